package parse

import (
	"regexp"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/clean"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
)

var historyDateRe = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}`)

// DutyHistory extracts the import-duty history table. The layout interleaves
// each date with an intervening cell, so the rate sits two lines below its
// date; a date with no rate line in range is kept with an empty rate.
func (p *Parser) DutyHistory(text string) []models.DutyRate {
	history := []models.DutyRate{}
	lines := clean.Lines(text)

	for i, line := range lines {
		if !historyDateRe.MatchString(line) {
			continue
		}
		rate := ""
		if i+2 < len(lines) {
			rate = lines[i+2]
		}
		history = append(history, models.DutyRate{
			Date:    parseDate(line),
			RawRate: "Taux: " + rate,
		})
	}

	return dedupDutyRates(history)
}

func dedupDutyRates(in []models.DutyRate) []models.DutyRate {
	seen := make(map[models.DutyRate]struct{}, len(in))
	out := in[:0]
	for _, d := range in {
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
