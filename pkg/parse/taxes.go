package parse

import (
	"regexp"
	"strings"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/clean"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
)

// taxLineRe matches the primary rendering of a tax line:
// "- Droit d'Importation * ( DI ) : 2,5 %"
var taxLineRe = regexp.MustCompile(`-\s*([^(*]+?)\s*\*?\s*\(\s*([A-Z]+)\s*\)\s*:\s*([^%-]+%)`)

var parenCodeRe = regexp.MustCompile(`\(([^)]+)\)`)

// taxKeySkip marks key/value keys that are page furniture, not taxes
var taxKeySkip = []string{"Position tarifaire", "Situation du", "Source", "ADiL"}

// Taxes extracts duty/tax lines from the taxes section text. The structured
// "label ( CODE ) : rate%" pattern is matched first; when the page renders
// the lines as loose key/value pairs instead, those are consumed as a
// fallback. Results are deduplicated; no matches is a valid outcome.
func (p *Parser) Taxes(text string) []models.Tax {
	taxes := []models.Tax{}

	inline := clean.CollapseInline(text)
	for _, m := range taxLineRe.FindAllStringSubmatch(inline, -1) {
		taxes = append(taxes, models.Tax{
			Code:    strings.TrimSpace(m[2]),
			Label:   p.cleaner.Label(strings.ReplaceAll(m[1], "*", "")),
			RawRate: strings.TrimSpace(m[3]),
		})
	}

	if len(taxes) == 0 {
		for key, value := range clean.KeyValues(text) {
			if containsAny(key, taxKeySkip) {
				continue
			}
			code := models.NA
			if m := parenCodeRe.FindStringSubmatch(key); m != nil {
				code = strings.TrimSpace(m[1])
			}
			label, _, _ := strings.Cut(key, "(")
			label = strings.TrimLeft(label, "- ")
			taxes = append(taxes, models.Tax{
				Code:    code,
				Label:   p.cleaner.Label(strings.ReplaceAll(label, "*", "")),
				RawRate: strings.TrimSpace(value),
			})
		}
	}

	return dedupTaxes(taxes)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func dedupTaxes(in []models.Tax) []models.Tax {
	seen := make(map[models.Tax]struct{}, len(in))
	out := in[:0]
	for _, t := range in {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
