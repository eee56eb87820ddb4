package parse

import (
	"regexp"
	"strings"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/clean"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
)

// issuerHeader is the literal column heading that precedes the document
// rows in the "Documents et Normes" section
const issuerHeader = "Emetteur"

// docCodeRe matches the site's document codes (3 to 5 digits)
var docCodeRe = regexp.MustCompile(`^\d{3,5}$`)

// Documents extracts required-document rows. The table renders as flat
// lines after the issuer header; a line that is itself a 3-5 digit code
// starts a new document, the following lines fill its name and issuer.
func (p *Parser) Documents(text string) []models.Document {
	docs := []models.Document{}
	lines := clean.Lines(text)

	start := -1
	for i, line := range lines {
		if strings.Contains(line, issuerHeader) {
			start = i + 1
			break
		}
	}
	if start == -1 {
		return docs
	}

	var current *models.Document
	flush := func() {
		if current != nil && current.Code != "" {
			docs = append(docs, *current)
		}
		current = nil
	}

	for _, line := range lines[start:] {
		if docCodeRe.MatchString(line) {
			flush()
			current = &models.Document{Code: line}
			continue
		}
		if current == nil {
			continue
		}
		cleaned := p.cleaner.Label(line)
		if cleaned == "" {
			continue
		}
		switch {
		case current.Name == "":
			current.Name = cleaned
		case current.Issuer == "":
			current.Issuer = cleaned
		default:
			current.Issuer += " " + cleaned
		}
	}
	flush()

	return dedupDocuments(docs)
}

func dedupDocuments(in []models.Document) []models.Document {
	seen := make(map[models.Document]struct{}, len(in))
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
