package walk

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/browser"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/clean"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/utils"
)

// VisitSection clicks the named sidebar entry, waits for the content frame
// to reload and captures the section. A section that cannot be opened after
// the retry budget comes back as a not_available placeholder rather than an
// error, so one broken menu entry never sinks the whole code.
func (w *SectionWalker) VisitSection(ctx context.Context, session browser.Session, name string, order int) models.RawSection {
	section := models.RawSection{
		Name:      name,
		Order:     order,
		ScrapedAt: time.Now().UTC(),
	}

	policy := utils.RetryPolicy{
		MaxAttempts: w.cfg.MaxRetries,
		Backoff:     utils.LinearBackoff(w.cfg.RetryDelay),
	}
	err := policy.Do(ctx, func() error {
		// The sidebar frame can be re-rendered by the previous visit, so it
		// is re-resolved and the entry re-located on every attempt. Content
		// extraction sits inside the same retry: a click that landed on a
		// half-loaded result frame is redone from the menu, not given up on.
		sidebar, err := w.resolver.SidebarFrame(session)
		if err != nil {
			return err
		}
		strategy, err := w.clickEntry(sidebar, name)
		if err != nil {
			return err
		}
		if err := sleepCtx(ctx, w.cfg.SectionLoadDelay); err != nil {
			return err
		}
		content, err := w.resolver.ContentFrame(ctx, session)
		if err != nil {
			return err
		}
		captured, err := w.capture(section, content)
		if err != nil {
			return err
		}
		w.run.RecordMenuStrategy(name, strategy)
		section = captured
		return nil
	})
	if err != nil {
		w.log.WithError(err).WithField("section", name).Warn("section unavailable")
		section.Status = models.SectionStatusNotAvailable
		section.Error = err.Error()
		return section
	}
	return section
}

// clickEntry locates and clicks a sidebar link, degrading from exact match
// to looser ones. Returns the name of the strategy that worked.
func (w *SectionWalker) clickEntry(sidebar browser.Frame, name string) (string, error) {
	if err := sidebar.ClickText(name, w.cfg.ElementTimeout); err == nil {
		return "exact_text", nil
	}

	links, err := sidebar.Links(w.cfg.ElementTimeout)
	if err != nil {
		return "", fmt.Errorf("%w: listing sidebar links: %v", utils.ErrSectionUnavailable, err)
	}

	want := clean.CollapseInline(clean.FixEncoding(name))
	for _, l := range links {
		if clean.CollapseInline(clean.FixEncoding(l.Text)) != want {
			continue
		}
		if err := sidebar.ClickText(l.Text, w.cfg.ElementTimeout); err == nil {
			return "text_match", nil
		}
	}

	prefix := collapsePrefix(want, 10)
	if prefix != "" {
		for _, l := range links {
			if !strings.HasPrefix(clean.CollapseInline(clean.FixEncoding(l.Text)), prefix) {
				continue
			}
			if err := sidebar.ClickText(l.Text, w.cfg.ElementTimeout); err == nil {
				return "partial_text", nil
			}
		}
	}

	for _, l := range links {
		if !strings.Contains(strings.ToLower(l.Text), strings.ToLower(want)) {
			continue
		}
		if err := sidebar.ClickText(l.Text, w.cfg.ElementTimeout); err == nil {
			return "manual_search", nil
		}
	}

	return "", fmt.Errorf("%w: no sidebar link matched %q", utils.ErrSectionUnavailable, name)
}

func collapsePrefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// capture reads the content frame and fills in the section payload
func (w *SectionWalker) capture(section models.RawSection, content browser.Frame) (models.RawSection, error) {
	text, err := content.Text(w.cfg.ElementTimeout)
	if err != nil {
		return section, fmt.Errorf("%w: reading section text: %v", utils.ErrSectionUnavailable, err)
	}

	block := w.cleaner.Block(text)
	section.RawText = block
	section.Metadata = clean.Metadata(block)
	section.KeyValues = clean.KeyValues(block)
	section.Type = clean.DetectSectionType(block)

	if html, err := content.HTML(w.cfg.ElementTimeout); err == nil {
		section.Tables = ExtractTables(html)
	}
	if len(section.Tables) == 0 {
		// Statistics pages on older site releases render their figures as
		// plain text; recover them from the year-grouped lines.
		section.Tables = textTables(block)
	}

	section.Status = models.SectionStatusOK
	return section, nil
}

// textTables converts year-grouped text blocks into row form, one row per
// line, cells split on whitespace runs.
func textTables(block string) []models.Table {
	var tables []models.Table
	for _, group := range clean.YearTables(block) {
		var t models.Table
		for _, line := range clean.Lines(group) {
			t.Rows = append(t.Rows, strings.Fields(line))
		}
		if len(t.Rows) > 1 {
			tables = append(tables, t)
		}
	}
	return tables
}

// ExtractTables parses every data table out of a frame's HTML. Single-cell
// and empty tables are layout scaffolding and are dropped.
func ExtractTables(html string) []models.Table {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var tables []models.Table
	doc.Find("table").Each(func(_ int, t *goquery.Selection) {
		// Nested tables are reported by their innermost occurrence only.
		if t.Find("table").Length() > 0 {
			return
		}
		var table models.Table
		t.Find("tr").Each(func(i int, tr *goquery.Selection) {
			var cells []string
			hasHeader := tr.Find("th").Length() > 0
			tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, clean.CollapseInline(clean.FixEncoding(cell.Text())))
			})
			if len(cells) == 0 {
				return
			}
			if i == 0 && hasHeader {
				table.Headers = cells
				return
			}
			table.Rows = append(table.Rows, cells)
		})
		if len(table.Rows) == 0 && len(table.Headers) == 0 {
			return
		}
		if len(table.Rows) == 1 && len(table.Rows[0]) == 1 && table.Headers == nil {
			return
		}
		tables = append(tables, table)
	})
	return tables
}
