package walk

import (
	"context"
	"fmt"
	"time"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/browser"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/clean"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/utils"
)

// ScrapeCode runs the whole extraction for one tariff code on the given
// session: search, landing capture, sidebar discovery, then every section
// in order. Section failures degrade the record to partial; only failures
// before any content is reached produce an error record.
func (w *SectionWalker) ScrapeCode(ctx context.Context, session browser.Session, code models.TariffCode) models.ScrapedRecord {
	start := time.Now()
	rec := models.ScrapedRecord{
		TariffCode: code,
		Code:       code.Padded(),
		ScrapedAt:  start.UTC(),
	}
	fail := func(err error) models.ScrapedRecord {
		rec.Status = models.ScrapeStatusError
		rec.Error = err.Error()
		rec.DurationSeconds = time.Since(start).Seconds()
		return rec
	}

	if err := session.Navigate(w.cfg.BaseURL, w.cfg.NavigationTimeout); err != nil {
		return fail(fmt.Errorf("%w: %v", utils.ErrResolutionFailed, err))
	}

	searchFrame, err := w.resolver.SearchFrame(ctx, session)
	if err != nil {
		return fail(err)
	}
	if err := w.resolver.SubmitSearch(ctx, searchFrame, code); err != nil {
		return fail(err)
	}

	content, err := w.resolver.ContentFrame(ctx, session)
	if err != nil {
		return fail(err)
	}
	rec.BasicInfo = w.captureBasicInfo(content)

	sidebar, err := w.resolver.SidebarFrame(session)
	if err != nil {
		// The landing content alone is still worth keeping.
		w.log.WithError(err).WithField("code", rec.Code).Warn("no sidebar, keeping landing content only")
		rec.Status = models.ScrapeStatusPartial
		rec.Error = err.Error()
		rec.DurationSeconds = time.Since(start).Seconds()
		return rec
	}

	names, err := w.DiscoverSections(ctx, sidebar)
	if err != nil {
		return fail(err)
	}

	failures := 0
	for _, name := range names {
		if ctx.Err() != nil {
			return fail(ctx.Err())
		}
		section := w.VisitSection(ctx, session, name, len(rec.Sections))
		if section.Status != models.SectionStatusOK {
			failures++
		}
		rec.AddSection(section)
	}

	switch {
	case len(names) == 0 || failures == len(names):
		rec.Status = models.ScrapeStatusPartial
	case failures > 0:
		rec.Status = models.ScrapeStatusPartial
	default:
		rec.Status = models.ScrapeStatusSuccess
	}
	rec.DurationSeconds = time.Since(start).Seconds()
	return rec
}

func (w *SectionWalker) captureBasicInfo(content browser.Frame) models.BasicInfo {
	text, err := content.Text(w.cfg.ElementTimeout)
	if err != nil {
		return models.BasicInfo{}
	}
	block := w.cleaner.Block(text)
	meta := clean.Metadata(block)
	desc := clean.KeyValues(block)["DESIGNATION DU PRODUIT"]
	return models.BasicInfo{
		ProductDescription: desc,
		EffectiveDate:      meta["date"],
		RawText:            block,
		Metadata:           meta,
	}
}
