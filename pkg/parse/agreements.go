package parse

import (
	"regexp"
	"strings"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/clean"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
)

// rateValueRe matches rate cells: "2,5 %", "0%", "10", "(*)"
var rateValueRe = regexp.MustCompile(`^(\(\*\)|\d+[.,]?\d*\s*%?)$`)

// regimeKeywords are the fixed list-type labels of the agreements table
var regimeKeywords = []string{
	"liste 1", "liste 2", "liste 3", "liste unique",
	"contingent", "hors contingent", "démantèlement", "droit commun",
}

// agreementSkip marks lines that are table furniture rather than rows
var agreementSkip = []string{"Taux", "Source", "Pays", "Accord"}

// Agreements extracts the preferential-regime rows. The table reaches us as
// one flat line stream, so rows are rebuilt by shape: a line with no digits
// and no percent sign longer than 3 characters opens a new country row, rate
// shaped lines fill its duty then parafiscal columns, regime keywords set
// its list type. The shape heuristic is the same one the site's own layout
// forces; countries whose names contain digits would be misclassified, and
// none occur in practice.
func (p *Parser) Agreements(text string) []models.Agreement {
	agreements := []models.Agreement{}

	var current *models.Agreement
	flush := func() {
		if current != nil && current.Country != "" {
			agreements = append(agreements, *current)
		}
		current = nil
	}

	for _, line := range clean.Lines(text) {
		switch {
		case isRegimeKeyword(line):
			if current != nil {
				current.ListType = line
			}
		case rateValueRe.MatchString(line):
			if current == nil {
				continue
			}
			if current.ImportDutyRate == "" {
				current.ImportDutyRate = line
			} else if current.ParafiscalRate == "" {
				current.ParafiscalRate = line
			}
		case isCountryLine(line):
			flush()
			current = &models.Agreement{Country: p.cleaner.Label(line)}
		}
	}
	flush()

	return dedupAgreements(agreements)
}

// isCountryLine applies the shape heuristic: no digits, no percent sign,
// longer than 3 characters, and not table furniture
func isCountryLine(line string) bool {
	if len(line) <= 3 || strings.HasPrefix(line, "(") {
		return false
	}
	if strings.ContainsAny(line, "0123456789%") {
		return false
	}
	for _, skip := range agreementSkip {
		if strings.Contains(line, skip) {
			return false
		}
	}
	return true
}

func isRegimeKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range regimeKeywords {
		if lower == kw {
			return true
		}
	}
	return false
}

func dedupAgreements(in []models.Agreement) []models.Agreement {
	seen := make(map[models.Agreement]struct{}, len(in))
	out := in[:0]
	for _, a := range in {
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
