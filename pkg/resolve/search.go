package resolve

import (
	"context"
	"fmt"
	"time"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/browser"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/utils"
)

// inputSelectors and submitSelectors are tried in order. The first pair
// is the documented form; the rest cover the site variants seen so far.
var (
	inputSelectors = []string{
		`input[name="lposition"]`,
		`input[type="text"]`,
		`input#lposition`,
		`input[name*="position"]`,
	}
	submitSelectors = []string{
		`input[type="submit"][value*="Trouver"]`,
		`input[type="submit"]`,
		`button[type="submit"]`,
		`input[value*="Trouver"]`,
	}
)

// SubmitSearch types the ten digit code into the search form and submits
// it, then waits for the result frameset to settle. Selector fallbacks
// make the submission survive form markup drift.
func (r *Resolver) SubmitSearch(ctx context.Context, frame browser.Frame, code models.TariffCode) error {
	filled := false
	for _, sel := range inputSelectors {
		if err := frame.Fill(sel, code.Padded(), r.cfg.ElementTimeout); err == nil {
			r.run.RecordSelector(sel)
			filled = true
			break
		}
	}
	if !filled {
		return fmt.Errorf("%w: no search input accepted code %s", utils.ErrSearchFailed, code)
	}

	submitted := false
	for _, sel := range submitSelectors {
		if err := frame.Click(sel, r.cfg.ElementTimeout); err == nil {
			r.run.RecordSelector(sel)
			submitted = true
			break
		}
	}
	if !submitted {
		return fmt.Errorf("%w: no submit control responded", utils.ErrSearchFailed)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(r.cfg.ResultsSettleDelay):
	}
	return nil
}
