package models

import (
	"fmt"
	"strings"
	"time"
)

// TariffCode is an immutable HS code value object. It normalizes the raw
// input by stripping every non-digit character and requires the remainder
// to be exactly 8 or 10 digits long. Equality is by normalized digits.
type TariffCode struct {
	digits string
}

// NewTariffCode validates and normalizes a raw code string ("0101.21.00.00",
// "01012100", ...). Returns an error when the digit count is neither 8 nor 10.
func NewTariffCode(raw string) (TariffCode, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 8 && len(digits) != 10 {
		return TariffCode{}, fmt.Errorf("invalid tariff code %q: expected 8 or 10 digits, got %d", raw, len(digits))
	}
	return TariffCode{digits: digits}, nil
}

// MustTariffCode is a fixture helper that panics on invalid input
func MustTariffCode(raw string) TariffCode {
	tc, err := NewTariffCode(raw)
	if err != nil {
		panic(err)
	}
	return tc
}

// String returns the normalized digit string
func (t TariffCode) String() string { return t.digits }

// IsZero reports whether the code is the uninitialized zero value
func (t TariffCode) IsZero() bool { return t.digits == "" }

// Padded returns the code right-padded with zeros to 10 digits. The site's
// search form only accepts full 10-digit positions.
func (t TariffCode) Padded() string {
	if len(t.digits) >= 10 {
		return t.digits
	}
	return t.digits + strings.Repeat("0", 10-len(t.digits))
}

// HS4 returns the first 4 digits
func (t TariffCode) HS4() string { return t.Padded()[:4] }

// HS6 returns the first 6 digits
func (t TariffCode) HS6() string { return t.Padded()[:6] }

// HS8 returns the first 8 digits
func (t TariffCode) HS8() string { return t.Padded()[:8] }

// HS10 returns the full 10-digit code
func (t TariffCode) HS10() string { return t.Padded() }

// DottedHS4 formats the 4-digit prefix the way the site prints it ("01.01")
func (t TariffCode) DottedHS4() string {
	p := t.Padded()
	return p[:2] + "." + p[2:4]
}

// DottedHS6 formats the 6-digit prefix the way the site prints it ("0101.21")
func (t TariffCode) DottedHS6() string {
	p := t.Padded()
	return p[:4] + "." + p[4:6]
}

// HS8Pair returns digits 7-8, printed as a bare pair on the site
func (t TariffCode) HS8Pair() string { return t.Padded()[6:8] }

// HS10Pair returns digits 9-10
func (t TariffCode) HS10Pair() string { return t.Padded()[8:10] }

// Section statuses recorded on RawSection
const (
	SectionStatusOK           = "ok"
	SectionStatusNotAvailable = "not_available"
)

// Table is one extracted HTML table: an optional header row plus data rows
type Table struct {
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows"`
}

// RawSection is the extraction result for one sidebar section. Instances are
// built once per visit and never mutated afterwards; they are discarded once
// folded into a ScrapedRecord.
type RawSection struct {
	Name      string            `json:"section_name"`
	Type      string            `json:"section_type,omitempty"`
	RawText   string            `json:"raw_text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	KeyValues map[string]string `json:"key_values,omitempty"`
	Tables    []Table           `json:"tables,omitempty"`
	Order     int               `json:"order"`
	Status    string            `json:"status"`
	Error     string            `json:"error,omitempty"`
	ScrapedAt time.Time         `json:"scraped_at"`
}

// BasicInfo holds the landing-frame content for a code before any section
// navigation happens
type BasicInfo struct {
	ProductDescription string            `json:"product_description,omitempty"`
	EffectiveDate      string            `json:"effective_date,omitempty"`
	RawText            string            `json:"raw_text,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// Scrape statuses recorded on ScrapedRecord
const (
	ScrapeStatusSuccess = "success"
	ScrapeStatusPartial = "partial"
	ScrapeStatusError   = "error"
)

// ScrapedRecord aggregates everything scraped for one tariff code. It is
// owned exclusively by the worker that produced it until handed to the
// persistence layer.
type ScrapedRecord struct {
	TariffCode      TariffCode   `json:"-"`
	Code            string       `json:"hs_code"`
	BasicInfo       BasicInfo    `json:"basic_info"`
	Sections        []RawSection `json:"sections"`
	Status          string       `json:"scrape_status"`
	Error           string       `json:"error,omitempty"`
	ScrapedAt       time.Time    `json:"scraped_at"`
	DurationSeconds float64      `json:"duration_seconds"`
}

// Section returns the section with the given name, if present. Section order
// is preserved in the Sections slice; lookup is by exact name.
func (r *ScrapedRecord) Section(name string) (RawSection, bool) {
	for _, s := range r.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return RawSection{}, false
}

// AddSection appends a section, keeping discovery order
func (r *ScrapedRecord) AddSection(s RawSection) {
	s.Order = len(r.Sections)
	r.Sections = append(r.Sections, s)
}

// AvailableSections counts sections that were actually extracted
func (r *ScrapedRecord) AvailableSections() int {
	n := 0
	for _, s := range r.Sections {
		if s.Status != SectionStatusNotAvailable {
			n++
		}
	}
	return n
}
