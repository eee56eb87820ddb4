// Package walk drives the sidebar menu of a result page: it discovers the
// available sections, visits each one and captures its raw content.
package walk

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/browser"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/clean"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/config"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/resolve"
)

// SectionWalker discovers and visits the per-code sections listed in the
// sidebar frame.
type SectionWalker struct {
	cfg      config.ScrapeConfig
	resolver *resolve.Resolver
	cleaner  *clean.Cleaner
	run      *models.RunContext
	log      *logrus.Entry
}

// NewSectionWalker creates a walker bound to one run's strategy context
func NewSectionWalker(cfg config.ScrapeConfig, resolver *resolve.Resolver, cleaner *clean.Cleaner, run *models.RunContext, log *logrus.Entry) *SectionWalker {
	return &SectionWalker{cfg: cfg, resolver: resolver, cleaner: cleaner, run: run, log: log}
}

// DiscoverSections returns the sidebar entries in display order. The menu
// renders collapsed and taller than its frame, so entries ending in a colon
// are expanded first and the frame is scrolled in steps until no new entry
// shows up.
func (w *SectionWalker) DiscoverSections(ctx context.Context, sidebar browser.Frame) ([]string, error) {
	w.expandCollapsed(sidebar)

	seen := make(map[string]struct{})
	var ordered []string

	collect := func() int {
		links, err := sidebar.Links(w.cfg.ElementTimeout)
		if err != nil {
			return 0
		}
		added := 0
		for _, l := range links {
			text := clean.CollapseInline(clean.FixEncoding(l.Text))
			if text == "" || w.skipEntry(text) {
				continue
			}
			if _, dup := seen[text]; dup {
				continue
			}
			seen[text] = struct{}{}
			ordered = append(ordered, text)
			added++
		}
		return added
	}

	collect()

	stalls := 0
	for i := 0; i < w.cfg.MaxScrolls; i++ {
		if err := sleepCtx(ctx, w.cfg.ScrollDelay); err != nil {
			return ordered, err
		}
		if err := sidebar.Scroll(w.cfg.ScrollStep); err != nil {
			break
		}
		if collect() == 0 {
			stalls++
		} else {
			stalls = 0
		}
		if stalls >= w.cfg.ScrollStallMax {
			break
		}
		if state, err := sidebar.ScrollState(); err == nil && state.AtEnd() {
			// One last sweep catches entries rendered by the final scroll.
			collect()
			break
		}
	}

	w.log.WithField("sections", len(ordered)).Debug("sidebar discovery finished")
	return ordered, nil
}

// expandCollapsed clicks every collapsed group header. Group headers are
// the entries whose visible text ends with a colon.
func (w *SectionWalker) expandCollapsed(sidebar browser.Frame) {
	links, err := sidebar.Links(w.cfg.ElementTimeout)
	if err != nil {
		return
	}
	for _, l := range links {
		text := clean.CollapseInline(l.Text)
		if !strings.HasSuffix(text, ":") {
			continue
		}
		if err := sidebar.ClickText(l.Text, w.cfg.ElementTimeout); err != nil {
			w.log.WithField("entry", text).Debug("could not expand menu group")
		}
	}
}

func (w *SectionWalker) skipEntry(text string) bool {
	// Substring match: the site varies the wording of its navigation links
	// ("Nouvelle recherche", "Nouvelle recherche avancée").
	lower := strings.ToLower(text)
	for _, skip := range w.cfg.SkipMenuEntries {
		if strings.Contains(lower, strings.ToLower(skip)) {
			return true
		}
	}
	// Group headers hold no content of their own.
	return strings.HasSuffix(text, ":")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
