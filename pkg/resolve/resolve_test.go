package resolve

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/browser"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/browser/browsertest"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/config"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/utils"
)

func testConfig() config.ScrapeConfig {
	app := &config.AppConfig{}
	app.ApplyDefaults()
	cfg := app.Scrape
	cfg.RetryDelay = time.Millisecond
	cfg.ResultsSettleDelay = time.Millisecond
	cfg.ElementTimeout = 100 * time.Millisecond
	return cfg
}

func newTestResolver(t *testing.T) (*Resolver, *models.RunContext) {
	t.Helper()
	run := models.NewRunContext("https://example.test/adil/")
	log := logrus.NewEntry(logrus.New())
	return New(testConfig(), run, log), run
}

const loadedText = "Recherche par position tarifaire. Entrez la position a dix chiffres puis cliquez sur Trouver."

func TestSearchFrameByURLFragment(t *testing.T) {
	r, run := newTestResolver(t)
	session := &browsertest.FakeSession{FrameList: []browser.Frame{
		&browsertest.FakeFrame{FrameName: "haut", FrameURL: "http://x/banner.htm", Body: loadedText},
		&browsertest.FakeFrame{FrameName: "bas", FrameURL: "http://x/c_bas_test_1.htm", Body: loadedText},
	}}

	frame, err := r.SearchFrame(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "bas", frame.Name())
	assert.Equal(t, "url_fragment", run.Snapshot().SearchFrameStrategy)
}

func TestSearchFrameByInputPresence(t *testing.T) {
	r, run := newTestResolver(t)
	session := &browsertest.FakeSession{FrameList: []browser.Frame{
		&browsertest.FakeFrame{FrameName: "haut", FrameURL: "http://x/banner.htm", Body: loadedText},
		&browsertest.FakeFrame{
			FrameName: "form",
			FrameURL:  "http://x/other.htm",
			Body:      loadedText,
			Selectors: map[string]bool{`input[name="lposition"]`: true},
		},
	}}

	frame, err := r.SearchFrame(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "form", frame.Name())
	assert.Equal(t, "input_present", run.Snapshot().SearchFrameStrategy)
}

func TestSearchFrameFallsBackToNameHint(t *testing.T) {
	// Neither the URL fragment nor the form input resolves; the name
	// hint is the first strategy left standing.
	r, run := newTestResolver(t)
	session := &browsertest.FakeSession{FrameList: []browser.Frame{
		&browsertest.FakeFrame{FrameName: "haut", FrameURL: "http://x/banner.htm", Body: loadedText},
		&browsertest.FakeFrame{FrameName: "c_test_zone", FrameURL: "http://x/renamed.htm", Body: loadedText},
	}}

	frame, err := r.SearchFrame(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "c_test_zone", frame.Name())
	assert.Equal(t, "name_hint", run.Snapshot().SearchFrameStrategy)
}

func TestSearchFrameRejectsUnloadedFrame(t *testing.T) {
	// The URL fragment matches but the frame is still empty, so the
	// resolver must skip it and take the loaded form frame instead.
	r, _ := newTestResolver(t)
	session := &browsertest.FakeSession{FrameList: []browser.Frame{
		&browsertest.FakeFrame{FrameName: "bas", FrameURL: "http://x/c_bas_test_1.htm", Body: "  "},
		&browsertest.FakeFrame{
			FrameName: "form",
			FrameURL:  "http://x/other.htm",
			Body:      loadedText,
			Selectors: map[string]bool{`input[name="lposition"]`: true},
		},
	}}

	frame, err := r.SearchFrame(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "form", frame.Name())
}

func TestSearchFrameExhaustsRetries(t *testing.T) {
	r, _ := newTestResolver(t)
	session := &browsertest.FakeSession{FrameList: []browser.Frame{
		&browsertest.FakeFrame{FrameName: "haut", Body: "  "},
	}}

	_, err := r.SearchFrame(context.Background(), session)
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrResolutionFailed)
}

func TestContentFramePrefersRichResultFrame(t *testing.T) {
	r, run := newTestResolver(t)
	rich := &browsertest.FakeFrame{
		FrameName: "principal",
		FrameURL:  "http://x/rsearcht.asp",
		Body: "Position tarifaire : 0101.21.00.10\n" + strings.Repeat("Chevaux reproducteurs de race pure. ", 20),
		Selectors: map[string]bool{"body": true, "table": true},
	}
	session := &browsertest.FakeSession{FrameList: []browser.Frame{
		&browsertest.FakeFrame{FrameName: "haut", Body: "ADiL", Selectors: map[string]bool{"body": true}},
		rich,
	}}

	frame, err := r.ContentFrame(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "principal", frame.Name())
	assert.Equal(t, "scored", run.Snapshot().ContentFrameStrategy)
}

func TestContentFrameNoCandidate(t *testing.T) {
	r, _ := newTestResolver(t)
	session := &browsertest.FakeSession{}

	_, err := r.ContentFrame(context.Background(), session)
	assert.ErrorIs(t, err, utils.ErrResolutionFailed)
}

// lateSession reports no frames until the result document has had a few
// polling rounds to come up, like the frameset does while a search loads.
type lateSession struct {
	browsertest.FakeSession
	after  int
	calls  int
	frames []browser.Frame
}

func (s *lateSession) Frames() ([]browser.Frame, error) {
	s.calls++
	if s.calls <= s.after {
		return nil, nil
	}
	return s.frames, nil
}

func TestContentFrameRetriesWhileResultLoads(t *testing.T) {
	r, _ := newTestResolver(t)
	session := &lateSession{
		after: 1,
		frames: []browser.Frame{&browsertest.FakeFrame{
			FrameName: "principal",
			Body:      "Position tarifaire : 0101.21.00.10",
			Selectors: map[string]bool{"body": true},
		}},
	}

	frame, err := r.ContentFrame(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "principal", frame.Name())
	assert.Equal(t, 2, session.calls)
}

func TestSidebarFrameByNameHint(t *testing.T) {
	r, _ := newTestResolver(t)
	session := &browsertest.FakeSession{FrameList: []browser.Frame{
		&browsertest.FakeFrame{FrameName: "principal"},
		&browsertest.FakeFrame{FrameName: "gauche"},
	}}

	frame, err := r.SidebarFrame(session)
	require.NoError(t, err)
	assert.Equal(t, "gauche", frame.Name())
}

func TestSidebarFrameByLinkScoring(t *testing.T) {
	r, _ := newTestResolver(t)
	links := make([]browser.Link, 12)
	for i := range links {
		links[i] = browser.Link{Text: "Entry", Href: "#"}
	}
	menu := &browsertest.FakeFrame{
		FrameName: "f2",
		Body:      "Position tarifaire Droits et Taxes Importations",
		LinkList:  links,
	}
	session := &browsertest.FakeSession{FrameList: []browser.Frame{
		&browsertest.FakeFrame{FrameName: "f1", Body: "banner"},
		menu,
	}}

	frame, err := r.SidebarFrame(session)
	require.NoError(t, err)
	assert.Equal(t, "f2", frame.Name())
}

func TestSubmitSearchUsesPreferredSelectors(t *testing.T) {
	r, run := newTestResolver(t)
	frame := &browsertest.FakeFrame{Selectors: map[string]bool{
		`input[name="lposition"]`:                  true,
		`input[type="submit"][value*="Trouver"]`: true,
	}}

	err := r.SubmitSearch(context.Background(), frame, models.MustTariffCode("0101210010"))
	require.NoError(t, err)
	assert.Equal(t, []string{`input[name="lposition"]=0101210010`}, frame.FillCalls)
	assert.Equal(t, []string{`input[type="submit"][value*="Trouver"]`}, frame.ClickCalls)
	assert.Contains(t, run.Snapshot().SelectorsUsed, `input[name="lposition"]`)
}

func TestSubmitSearchFallsBackThroughSelectors(t *testing.T) {
	r, _ := newTestResolver(t)
	frame := &browsertest.FakeFrame{Selectors: map[string]bool{
		`input[name*="position"]`: true,
		`input[value*="Trouver"]`: true,
	}}

	err := r.SubmitSearch(context.Background(), frame, models.MustTariffCode("0101210010"))
	require.NoError(t, err)
	assert.Len(t, frame.FillCalls, 4)
	assert.Len(t, frame.ClickCalls, 4)
}

func TestSubmitSearchPadsEightDigitCode(t *testing.T) {
	r, _ := newTestResolver(t)
	frame := &browsertest.FakeFrame{Selectors: map[string]bool{
		`input[name="lposition"]`: true,
		`input[type="submit"]`:    true,
	}}

	err := r.SubmitSearch(context.Background(), frame, models.MustTariffCode("01012100"))
	require.NoError(t, err)
	assert.Equal(t, []string{`input[name="lposition"]=0101210000`}, frame.FillCalls)
}

func TestSubmitSearchNoInput(t *testing.T) {
	r, _ := newTestResolver(t)
	frame := &browsertest.FakeFrame{}

	err := r.SubmitSearch(context.Background(), frame, models.MustTariffCode("0101210010"))
	assert.ErrorIs(t, err, utils.ErrSearchFailed)
}
