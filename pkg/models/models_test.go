package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTariffCode_Valid(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"0101210000", "0101210000"},
		{"0101.21.00.00", "0101210000"},
		{"01012100", "01012100"},
		{"0804.10.00", "08041000"},
		{" 0101 21 00 00 ", "0101210000"},
	}

	for _, tc := range cases {
		code, err := NewTariffCode(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, code.String())
	}
}

func TestNewTariffCode_Invalid(t *testing.T) {
	for _, raw := range []string{"", "0101", "010121000", "01012100000", "abc", "0101.21"} {
		_, err := NewTariffCode(raw)
		assert.Error(t, err, raw)
	}
}

func TestTariffCode_Padding(t *testing.T) {
	code := MustTariffCode("08041000")
	assert.Equal(t, "0804100000", code.Padded())
	assert.Equal(t, "08041000", code.String())
}

func TestTariffCode_Formats(t *testing.T) {
	code := MustTariffCode("0101210000")
	assert.Equal(t, "01.01", code.DottedHS4())
	assert.Equal(t, "0101.21", code.DottedHS6())
	assert.Equal(t, "00", code.HS8Pair())
	assert.Equal(t, "00", code.HS10Pair())
	assert.Equal(t, "0101", code.HS4())
	assert.Equal(t, "010121", code.HS6())
	assert.Equal(t, "01012100", code.HS8())
}

func TestHSProduct_HierarchyConsistent(t *testing.T) {
	p := HSProduct{
		HS10:    "0101210000",
		HS4:     HierarchyLevel{Code: "0101", Present: true},
		HS6:     HierarchyLevel{Code: "010121", Present: true},
		HS8:     HierarchyLevel{Code: "01012100", Present: true},
	}
	assert.True(t, p.HierarchyConsistent())

	p.HS6.Code = "010122"
	assert.False(t, p.HierarchyConsistent())
}

func TestScrapedRecord_SectionLookup(t *testing.T) {
	rec := &ScrapedRecord{}
	rec.AddSection(RawSection{Name: "Droits et Taxes", Status: SectionStatusOK})
	rec.AddSection(RawSection{Name: "Accords et Convention", Status: SectionStatusNotAvailable})

	s, ok := rec.Section("Droits et Taxes")
	require.True(t, ok)
	assert.Equal(t, 0, s.Order)

	_, ok = rec.Section("Historique")
	assert.False(t, ok)

	assert.Equal(t, 1, rec.AvailableSections())
}

func TestRunContext_Snapshot(t *testing.T) {
	rc := NewRunContext("https://www.douane.gov.ma/adil/")
	rc.RecordSearchStrategy("input field presence")
	rc.RecordContentStrategy("content scoring")
	rc.RecordFrameName("principal")
	rc.RecordFrameName("gauche")
	rc.RecordFrameName("principal") // set semantics
	rc.RecordSelector(`input[name="lposition"]`)
	rc.RecordMenuStrategy("Droits et Taxes", "exact text match")

	snap := rc.Snapshot()
	assert.Equal(t, "input field presence", snap.SearchFrameStrategy)
	assert.Equal(t, "content scoring", snap.ContentFrameStrategy)
	assert.Equal(t, []string{"gauche", "principal"}, snap.FrameNames)
	assert.Equal(t, []string{`input[name="lposition"]`}, snap.SelectorsUsed)
	assert.Equal(t, "exact text match", snap.MenuClickStrategies["Droits et Taxes"])
	assert.NotEmpty(t, snap.RunID)
}
