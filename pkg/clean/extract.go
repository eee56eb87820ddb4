package clean

import (
	"regexp"
	"strings"
)

// Pre-compiled patterns for the fixed metadata labels the site prints
var metadataPatterns = []struct {
	key string
	re  *regexp.Regexp
}{
	{"position", regexp.MustCompile(`(?i)Position tarifaire\s*:?\s*([^\n]+)`)},
	{"source", regexp.MustCompile(`(?i)Source\s*:?\s*([^\n]+)`)},
	{"date", regexp.MustCompile(`(?i)Situation du\s*:?\s*([^\n]+)`)},
	{"period", regexp.MustCompile(`(?i)Période[^:\n]*:?\s*([^\n]+)`)},
	{"intercom", regexp.MustCompile(`(?i)Intercom\s*:?\s*([^\n]+)`)},
	{"unit", regexp.MustCompile(`(?i)Unité[^:\n]*:?\s*([^\n]+)`)},
}

var (
	keyValueRe = regexp.MustCompile(`^([^:]+?)\s*:\s*(.+)$`)
	yearRe     = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	percentRe  = regexp.MustCompile(`\d+[.,]?\d*\s*%`)
	pairedNumRe = regexp.MustCompile(`\d+[,\s]\d+`)
	rangeYearRe = regexp.MustCompile(`\d{4}.*\d{4}`)
)

// Metadata extracts the fixed-label metadata pairs from a text block
func Metadata(text string) map[string]string {
	out := make(map[string]string)
	for _, p := range metadataPatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			out[p.key] = strings.TrimSpace(m[1])
		}
	}
	return out
}

// KeyValues extracts "key : value" pairs line by line
func KeyValues(text string) map[string]string {
	out := make(map[string]string)
	for _, line := range Lines(text) {
		m := keyValueRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key := strings.TrimSpace(m[1])
		value := strings.TrimSpace(m[2])
		if key != "" && value != "" {
			out[key] = value
		}
	}
	return out
}

// YearTables groups consecutive lines that look like statistical tables:
// a line mentioning a year opens a table, following numeric lines extend it
func YearTables(text string) []string {
	var tables []string
	var current []string

	flush := func() {
		if len(current) > 1 {
			tables = append(tables, strings.Join(current, "\n"))
		}
		current = nil
	}

	for _, line := range Lines(text) {
		switch {
		case yearRe.MatchString(line):
			current = append(current, line)
		case len(current) > 0 && strings.ContainsAny(line, "0123456789"):
			current = append(current, line)
		default:
			flush()
		}
	}
	flush()

	return tables
}

// Section content categories assigned by DetectSectionType
const (
	SectionTypeStatistics     = "statistics"
	SectionTypeFinancial      = "financial"
	SectionTypeGeography      = "geography"
	SectionTypeClassification = "classification"
	SectionTypeRegulatory     = "regulatory"
	SectionTypeGeneral        = "general"
	SectionTypeEmpty          = "empty"
)

var countryKeywords = []string{"pays", "country", "france", "espagne", "allemagne"}
var legalKeywords = []string{"accord", "treaty", "restriction", "prohibition", "document"}
var classificationRe = regexp.MustCompile(`(?i)section|chapitre|branche|division`)

// DetectSectionType classifies a section's content by scoring the shape of
// its text. Advisory only; the structural parser keys off section names.
func DetectSectionType(content string) string {
	if strings.TrimSpace(content) == "" || content == "N/A" {
		return SectionTypeEmpty
	}

	lower := strings.ToLower(content)
	scores := map[string]int{}

	if rangeYearRe.MatchString(content) {
		scores[SectionTypeStatistics] += 3
	}
	if pairedNumRe.MatchString(content) {
		scores[SectionTypeStatistics] += 2
	}
	if percentRe.MatchString(content) {
		scores[SectionTypeFinancial] += 3
	}
	for _, kw := range countryKeywords {
		if strings.Contains(lower, kw) {
			scores[SectionTypeGeography] += 2
			break
		}
	}
	if classificationRe.MatchString(lower) {
		scores[SectionTypeClassification] += 3
	}
	for _, term := range legalKeywords {
		if strings.Contains(lower, term) {
			scores[SectionTypeRegulatory] += 2
			break
		}
	}

	best, bestScore := SectionTypeGeneral, 0
	for typ, score := range scores {
		if score > bestScore || (score == bestScore && typ < best && bestScore > 0) {
			best, bestScore = typ, score
		}
	}
	return best
}
