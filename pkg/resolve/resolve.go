// Package resolve locates the working frames inside the ADIL frameset.
// The site is served as a legacy nested frameset whose frame names and
// URLs drift between releases, so every lookup runs a cascade of
// strategies and records which one succeeded.
package resolve

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/browser"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/config"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/utils"
)

// hs10Re matches a fully dotted ten digit tariff code, the strongest
// signal that a frame is showing result content.
var hs10Re = regexp.MustCompile(`\d{4}\.\d{2}\.\d{2}\.\d{2}`)

// Resolver finds the search, content and sidebar frames of a session.
type Resolver struct {
	cfg config.ScrapeConfig
	run *models.RunContext
	log *logrus.Entry
}

// New creates a Resolver that records its strategy choices into run.
func New(cfg config.ScrapeConfig, run *models.RunContext, log *logrus.Entry) *Resolver {
	return &Resolver{cfg: cfg, run: run, log: log}
}

func (r *Resolver) frames(session browser.Session) ([]browser.Frame, error) {
	frames, err := session.Frames()
	if err != nil {
		return nil, fmt.Errorf("%w: enumerating frames: %v", utils.ErrResolutionFailed, err)
	}
	for _, f := range frames {
		if f.Name() != "" {
			r.run.RecordFrameName(f.Name())
		}
	}
	return frames, nil
}

// SearchFrame locates the frame carrying the tariff code search form.
// Strategies run in order of reliability; a hit still needs enough text
// in the frame to rule out an unloaded placeholder. Each attempt that
// comes up empty waits a little longer than the last, since the frameset
// loads its children lazily.
func (r *Resolver) SearchFrame(ctx context.Context, session browser.Session) (browser.Frame, error) {
	var found browser.Frame

	policy := utils.RetryPolicy{
		MaxAttempts: r.cfg.MaxRetries,
		Backoff:     utils.LinearBackoff(r.cfg.RetryDelay),
	}
	err := policy.Do(ctx, func() error {
		frames, err := r.frames(session)
		if err != nil {
			return err
		}
		frame, strategy := r.pickSearchFrame(frames)
		if frame == nil {
			return fmt.Errorf("%w: no frame matched any search strategy", utils.ErrResolutionFailed)
		}
		r.run.RecordSearchStrategy(strategy)
		r.log.WithFields(logrus.Fields{
			"strategy": strategy,
			"frame":    frame.Name(),
		}).Debug("search frame resolved")
		found = frame
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *Resolver) pickSearchFrame(frames []browser.Frame) (browser.Frame, string) {
	inputSel := fmt.Sprintf(`input[name=%q]`, r.cfg.SearchInputName)

	type strategy struct {
		name  string
		match func(browser.Frame) bool
	}
	strategies := []strategy{
		{"url_fragment", func(f browser.Frame) bool {
			return r.cfg.SearchURLFragment != "" && strings.Contains(f.URL(), r.cfg.SearchURLFragment)
		}},
		{"input_present", func(f browser.Frame) bool {
			return f.Has(inputSel)
		}},
		{"name_hint", func(f browser.Frame) bool {
			name := strings.ToLower(f.Name())
			return strings.Contains(name, "test") || strings.Contains(name, "search")
		}},
		{"exhaustive_scan", func(f browser.Frame) bool {
			return f.Has(inputSel) || f.Has("input[type=\"text\"]")
		}},
	}

	for _, s := range strategies {
		for _, f := range frames {
			if !s.match(f) {
				continue
			}
			if !r.frameLoaded(f) {
				continue
			}
			return f, s.name
		}
	}
	return nil, ""
}

// frameLoaded rejects frames whose document has not filled in yet.
func (r *Resolver) frameLoaded(f browser.Frame) bool {
	text, err := f.Text(r.cfg.ElementTimeout)
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(text)) >= r.cfg.MinSearchFrameText
}

// ContentFrame scores every frame for result-likeness and returns the
// best one. Scoring beats fixed names because the site renders results
// into differently named frames depending on the entry path. A round
// where no frame scores at all usually means the result document is
// still loading, so scoring is retried with backoff like the search
// frame lookup.
func (r *Resolver) ContentFrame(ctx context.Context, session browser.Session) (browser.Frame, error) {
	var found browser.Frame

	policy := utils.RetryPolicy{
		MaxAttempts: r.cfg.MaxRetries,
		Backoff:     utils.LinearBackoff(r.cfg.RetryDelay),
	}
	err := policy.Do(ctx, func() error {
		frames, err := r.frames(session)
		if err != nil {
			return err
		}

		var best browser.Frame
		bestScore := 0
		for _, f := range frames {
			score := r.scoreContentFrame(f)
			if score > bestScore {
				best, bestScore = f, score
			}
		}
		if best == nil {
			return fmt.Errorf("%w: no frame scored as content", utils.ErrResolutionFailed)
		}

		r.run.RecordContentStrategy("scored")
		r.log.WithFields(logrus.Fields{
			"frame": best.Name(),
			"score": bestScore,
		}).Debug("content frame resolved")
		found = best
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

var contentURLHints = []string{"principal", "rsearcht", "r_imp", "r_exp", "droite"}

func (r *Resolver) scoreContentFrame(f browser.Frame) int {
	score := 0
	if f.Has("body") {
		score += 10
	}
	text, err := f.Text(r.cfg.ElementTimeout)
	if err != nil {
		return score
	}
	switch n := len(strings.TrimSpace(text)); {
	case n > 500:
		score += 30
	case n > 200:
		score += 20
	case n > 100:
		score += 10
	}
	if f.Has("table") {
		score += 20
	}
	if strings.Contains(text, "Position tarifaire") || strings.Contains(text, "ADiL") {
		score += 15
	}
	if hs10Re.MatchString(text) {
		score += 10
	}
	name := strings.ToLower(f.Name())
	if strings.Contains(name, "principal") || strings.Contains(name, "milieu") {
		score += 5
	}
	url := strings.ToLower(f.URL())
	for _, hint := range contentURLHints {
		if strings.Contains(url, hint) {
			score += 10
			break
		}
	}
	return score
}

var (
	sidebarNameHints = []string{"gauche", "sommaire", "left", "sidebar", "menu", "navigation"}
	sidebarKeywords  = []string{"position tarifaire", "droits", "importations", "exportations"}
)

// SidebarFrame locates the section navigation frame. Name and URL hints
// are tried first; otherwise the frame with the most menu-like link set
// wins.
func (r *Resolver) SidebarFrame(session browser.Session) (browser.Frame, error) {
	frames, err := r.frames(session)
	if err != nil {
		return nil, err
	}

	for _, f := range frames {
		name := strings.ToLower(f.Name())
		url := strings.ToLower(f.URL())
		for _, hint := range sidebarNameHints {
			if strings.Contains(name, hint) || strings.Contains(url, hint) {
				r.log.WithFields(logrus.Fields{"frame": f.Name(), "hint": hint}).Debug("sidebar frame resolved")
				return f, nil
			}
		}
	}

	var best browser.Frame
	bestScore := 0
	for _, f := range frames {
		score := r.scoreSidebarFrame(f)
		if score > bestScore {
			best, bestScore = f, score
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no frame looks like a sidebar", utils.ErrResolutionFailed)
	}
	r.log.WithFields(logrus.Fields{"frame": best.Name(), "score": bestScore}).Debug("sidebar frame resolved by scoring")
	return best, nil
}

func (r *Resolver) scoreSidebarFrame(f browser.Frame) int {
	links, err := f.Links(r.cfg.ElementTimeout)
	if err != nil {
		return 0
	}
	score := 0
	if len(links) > 5 {
		score += len(links)
	}
	if len(links) > 10 {
		score += 20
	}
	text, err := f.Text(r.cfg.ElementTimeout)
	if err != nil {
		return score
	}
	lower := strings.ToLower(text)
	for _, kw := range sidebarKeywords {
		if strings.Contains(lower, kw) {
			score += 30
			break
		}
	}
	return score
}
