package walk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/browser"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/browser/browsertest"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/clean"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/config"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/resolve"
)

func newTestWalker(t *testing.T) (*SectionWalker, *models.RunContext) {
	t.Helper()
	app := &config.AppConfig{}
	app.ApplyDefaults()
	cfg := app.Scrape
	cfg.RetryDelay = time.Millisecond
	cfg.ResultsSettleDelay = time.Millisecond
	cfg.SectionLoadDelay = time.Millisecond
	cfg.ScrollDelay = 0
	cfg.ElementTimeout = 100 * time.Millisecond

	run := models.NewRunContext("https://example.test/adil/")
	log := logrus.NewEntry(logrus.New())
	resolver := resolve.New(cfg, run, log)
	cleaner := clean.NewCleaner(config.DefaultBoilerplatePhrases())
	return NewSectionWalker(cfg, resolver, cleaner, run, log), run
}

func menuLinks(texts ...string) []browser.Link {
	links := make([]browser.Link, len(texts))
	for i, t := range texts {
		links[i] = browser.Link{Text: t, Href: "#"}
	}
	return links
}

func TestDiscoverSectionsDedupAndSkip(t *testing.T) {
	w, _ := newTestWalker(t)
	sidebar := &browsertest.FakeFrame{
		LinkList: menuLinks(
			"Position Tarifaire",
			"Droits et Taxes",
			"Position Tarifaire", // rendered twice by the frameset
			"Nouvelle recherche", // navigation entry, skipped
			"Importations :",     // group header, skipped
		),
		Scrollable: browser.ScrollState{Top: 0, Height: 400, Viewport: 400},
	}

	sections, err := w.DiscoverSections(context.Background(), sidebar)
	require.NoError(t, err)
	assert.Equal(t, []string{"Position Tarifaire", "Droits et Taxes"}, sections)
}

func TestDiscoverSectionsFindsEntriesRevealedByScrolling(t *testing.T) {
	w, _ := newTestWalker(t)
	sidebar := &browsertest.FakeFrame{
		LinkList:   menuLinks("Position Tarifaire"),
		Scrollable: browser.ScrollState{Top: 0, Height: 2000, Viewport: 400},
	}
	// New entries become visible once the frame has scrolled past 600px.
	revealed := false
	sidebar.ScrollFunc = func(dy int) error {
		sidebar.Scrollable.Top += dy
		if sidebar.Scrollable.Top >= 600 && !revealed {
			revealed = true
			sidebar.LinkList = menuLinks("Position Tarifaire", "Historique Droit d'Importation")
		}
		return nil
	}

	sections, err := w.DiscoverSections(context.Background(), sidebar)
	require.NoError(t, err)
	assert.Equal(t, []string{"Position Tarifaire", "Historique Droit d'Importation"}, sections)
}

func TestDiscoverSectionsStopsAfterStalledScrolls(t *testing.T) {
	w, _ := newTestWalker(t)
	scrolls := 0
	sidebar := &browsertest.FakeFrame{
		LinkList:   menuLinks("Position Tarifaire"),
		Scrollable: browser.ScrollState{Top: 0, Height: 100000, Viewport: 400},
	}
	sidebar.ScrollFunc = func(dy int) error {
		scrolls++
		// Top never moves; the frame is shorter than it reports.
		return nil
	}

	_, err := w.DiscoverSections(context.Background(), sidebar)
	require.NoError(t, err)
	assert.Equal(t, w.cfg.ScrollStallMax, scrolls)
}

func TestDiscoverSectionsSkipsNavigationVariants(t *testing.T) {
	// Navigation entries are filtered by substring, so reworded variants of
	// the configured entries stay out of the section list.
	w, _ := newTestWalker(t)
	sidebar := &browsertest.FakeFrame{
		LinkList: menuLinks(
			"Nouvelle recherche avancée",
			"Retour à l'accueil",
			"Droits et Taxes",
		),
		Scrollable: browser.ScrollState{Top: 0, Height: 400, Viewport: 400},
	}

	sections, err := w.DiscoverSections(context.Background(), sidebar)
	require.NoError(t, err)
	assert.Equal(t, []string{"Droits et Taxes"}, sections)
}

// resultSession builds a FakeSession shaped like a loaded result page:
// a sidebar frame plus a content frame whose body changes per clicked entry.
func resultSession(sidebar *browsertest.FakeFrame, content *browsertest.FakeFrame) *browsertest.FakeSession {
	return &browsertest.FakeSession{FrameList: []browser.Frame{sidebar, content}}
}

const taxBody = `Position tarifaire : 0101.21.00.10
Droit d'Importation* (DI) : 2.5%
Taxe sur la Valeur Ajoutée (TVA) : 20%
Source : ADII`

func TestVisitSectionCapturesContent(t *testing.T) {
	w, run := newTestWalker(t)
	sidebar := &browsertest.FakeFrame{
		FrameName: "gauche",
		LinkList:  menuLinks("Droits et Taxes"),
	}
	content := &browsertest.FakeFrame{
		FrameName: "principal",
		Body:      taxBody,
		Selectors: map[string]bool{"body": true},
	}
	session := resultSession(sidebar, content)

	section := w.VisitSection(context.Background(), session, "Droits et Taxes", 0)

	assert.Equal(t, models.SectionStatusOK, section.Status)
	assert.Equal(t, "Droits et Taxes", section.Name)
	assert.Contains(t, section.RawText, "Droit d'Importation")
	assert.Equal(t, "0101.21.00.10", section.Metadata["position"])
	assert.Equal(t, clean.SectionTypeFinancial, section.Type)
	assert.Equal(t, "exact_text", run.Snapshot().MenuClickStrategies["Droits et Taxes"])
}

func TestVisitSectionPartialTextFallback(t *testing.T) {
	w, run := newTestWalker(t)
	// The sidebar renders a truncated label, so only the ten character
	// prefix of the requested name matches.
	sidebar := &browsertest.FakeFrame{
		FrameName: "gauche",
		LinkList:  menuLinks("Historique (vue abrégée)"),
	}
	content := &browsertest.FakeFrame{
		FrameName: "principal",
		Body:      "01/01/2020\nDI\n2.5%",
		Selectors: map[string]bool{"body": true},
	}
	session := resultSession(sidebar, content)

	section := w.VisitSection(context.Background(), session, "Historique Droit d'Importation", 0)

	assert.Equal(t, models.SectionStatusOK, section.Status)
	assert.Equal(t, "partial_text", run.Snapshot().MenuClickStrategies["Historique Droit d'Importation"])
}

func TestVisitSectionNotAvailableAfterRetries(t *testing.T) {
	w, _ := newTestWalker(t)
	sidebar := &browsertest.FakeFrame{
		FrameName: "gauche",
		LinkList:  menuLinks("Droits et Taxes"),
	}
	session := resultSession(sidebar, &browsertest.FakeFrame{FrameName: "principal"})

	section := w.VisitSection(context.Background(), session, "Accords et Convention", 0)

	assert.Equal(t, models.SectionStatusNotAvailable, section.Status)
	assert.NotEmpty(t, section.Error)
}

func TestVisitSectionRetriesFailedContentExtraction(t *testing.T) {
	// The first click lands while the result frame is still blank; the
	// whole visit runs again from the menu and succeeds once the frame has
	// content.
	w, run := newTestWalker(t)
	content := &browsertest.FakeFrame{FrameName: "cadre"}
	clicks := 0
	sidebar := &browsertest.FakeFrame{
		FrameName: "gauche",
		LinkList:  menuLinks("Droits et Taxes"),
	}
	sidebar.ClickTextFunc = func(string) error {
		clicks++
		if clicks >= 2 {
			content.Body = taxBody
			content.Selectors = map[string]bool{"body": true}
		}
		return nil
	}
	session := resultSession(sidebar, content)

	section := w.VisitSection(context.Background(), session, "Droits et Taxes", 0)

	assert.Equal(t, models.SectionStatusOK, section.Status)
	assert.Contains(t, section.RawText, "Droit d'Importation")
	assert.Equal(t, 2, clicks)
	assert.Equal(t, "exact_text", run.Snapshot().MenuClickStrategies["Droits et Taxes"])
}

func TestVisitSectionIsolatesFailure(t *testing.T) {
	// One entry always rejects clicks; the next visit on the same session
	// must still succeed.
	w, _ := newTestWalker(t)
	sidebar := &browsertest.FakeFrame{
		FrameName: "gauche",
		LinkList:  menuLinks("Droits et Taxes", "Documents et Normes"),
		ClickTextFunc: func(text string) error {
			if text == "Droits et Taxes" {
				return errors.New("click intercepted")
			}
			return nil
		},
	}
	content := &browsertest.FakeFrame{
		FrameName: "principal",
		Body:      "Documents exigibles\n1234\nCertificat sanitaire\nEmetteur ONSSA",
		Selectors: map[string]bool{"body": true},
	}
	session := resultSession(sidebar, content)

	broken := w.VisitSection(context.Background(), session, "Droits et Taxes", 0)
	good := w.VisitSection(context.Background(), session, "Documents et Normes", 1)

	assert.Equal(t, models.SectionStatusNotAvailable, broken.Status)
	assert.Equal(t, models.SectionStatusOK, good.Status)
}

func TestExtractTables(t *testing.T) {
	html := `<html><body>
	<table><tr><td>layout</td></tr></table>
	<table>
		<tr><th>Année</th><th>Poids</th><th>Valeur</th></tr>
		<tr><td>2022</td><td>1 250</td><td>34 000</td></tr>
		<tr><td>2023</td><td>1 180</td><td>36 500</td></tr>
	</table>
	</body></html>`

	tables := ExtractTables(html)
	require.Len(t, tables, 1)
	assert.Equal(t, []string{"Année", "Poids", "Valeur"}, tables[0].Headers)
	assert.Equal(t, [][]string{
		{"2022", "1 250", "34 000"},
		{"2023", "1 180", "36 500"},
	}, tables[0].Rows)
}

func TestExtractTablesSkipsOuterNestedTable(t *testing.T) {
	html := `<table><tr><td>
		<table><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></table>
	</td></tr></table>`

	tables := ExtractTables(html)
	require.Len(t, tables, 1)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, tables[0].Rows)
}

func TestVisitSectionRecoversTextTables(t *testing.T) {
	// No HTML tables in the frame; the year-grouped figures still come
	// back as rows.
	w, _ := newTestWalker(t)
	sidebar := &browsertest.FakeFrame{
		FrameName: "gauche",
		LinkList:  menuLinks("Importations Globales"),
	}
	content := &browsertest.FakeFrame{
		FrameName: "principal",
		Body:      "Importations Globales\n2022 1250 34000\n2023 1180 36500",
		Selectors: map[string]bool{"body": true},
	}
	session := resultSession(sidebar, content)

	section := w.VisitSection(context.Background(), session, "Importations Globales", 0)

	require.Equal(t, models.SectionStatusOK, section.Status)
	require.Len(t, section.Tables, 1)
	assert.Equal(t, [][]string{
		{"2022", "1250", "34000"},
		{"2023", "1180", "36500"},
	}, section.Tables[0].Rows)
}

func TestScrapeCodeFullFlow(t *testing.T) {
	w, _ := newTestWalker(t)

	search := &browsertest.FakeFrame{
		FrameName: "bas",
		FrameURL:  "http://x/c_bas_test_1.htm",
		Body:      "Recherche par position tarifaire. Entrez la position puis cliquez.",
		Selectors: map[string]bool{
			`input[name="lposition"]`: true,
			`input[type="submit"]`:    true,
		},
	}
	sidebar := &browsertest.FakeFrame{
		FrameName: "gauche",
		LinkList:  menuLinks("Droits et Taxes"),
	}
	content := &browsertest.FakeFrame{
		FrameName: "principal",
		Body:      taxBody + "\nDESIGNATION DU PRODUIT : Chevaux reproducteurs de race pure",
		Selectors: map[string]bool{"body": true, "table": true},
	}
	session := &browsertest.FakeSession{FrameList: []browser.Frame{search, sidebar, content}}

	rec := w.ScrapeCode(context.Background(), session, models.MustTariffCode("0101210010"))

	assert.Equal(t, models.ScrapeStatusSuccess, rec.Status)
	assert.Equal(t, "0101210010", rec.Code)
	assert.Equal(t, "Chevaux reproducteurs de race pure", rec.BasicInfo.ProductDescription)
	require.Len(t, rec.Sections, 1)
	assert.Equal(t, "Droits et Taxes", rec.Sections[0].Name)
	assert.InDelta(t, 0, rec.DurationSeconds, 30)
}

func TestScrapeCodeErrorWhenSearchNeverResolves(t *testing.T) {
	w, _ := newTestWalker(t)
	session := &browsertest.FakeSession{}

	rec := w.ScrapeCode(context.Background(), session, models.MustTariffCode("0101210010"))

	assert.Equal(t, models.ScrapeStatusError, rec.Status)
	assert.NotEmpty(t, rec.Error)
	assert.Empty(t, rec.Sections)
}

func TestScrapeCodePartialWhenNoSectionsDiscovered(t *testing.T) {
	// The search completes and the result page loads, but its sidebar
	// carries no usable entries. The landing content is kept as partial.
	w, _ := newTestWalker(t)
	search := &browsertest.FakeFrame{
		FrameName: "bas",
		FrameURL:  "http://x/c_bas_test_1.htm",
		Body:      "Recherche par position tarifaire. Entrez la position puis cliquez.",
		Selectors: map[string]bool{
			"body":                    true,
			`input[name="lposition"]`: true,
			`input[type="submit"]`:    true,
		},
	}
	session := &browsertest.FakeSession{FrameList: []browser.Frame{search}}

	rec := w.ScrapeCode(context.Background(), session, models.MustTariffCode("0101210010"))

	assert.Equal(t, models.ScrapeStatusPartial, rec.Status)
	assert.Empty(t, rec.Sections)
}
