// Package parse turns the flat, boilerplate-laden text blobs scraped for one
// tariff code into a structured HSProduct. All routines are deterministic
// walks over cleaned text; absence of data degrades to empty lists or "NA"
// labels, never to an error.
package parse

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/clean"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
)

// Sidebar section names carrying the data the parser consumes. These are the
// site's own headings; discovery order varies but names are stable.
const (
	SectionPositionTarifaire = "Position Tarifaire"
	SectionTaxes             = "Droits et Taxes"
	SectionDocuments         = "Documents et Normes"
	SectionAgreements        = "Accords et Convention"
	SectionDutyHistory       = "Historique Droit d'Importation"
)

// Parser assembles HSProduct records from scraped section text
type Parser struct {
	cleaner *clean.Cleaner
	log     *logrus.Entry
}

// NewParser creates a parser using the given cleaner for boilerplate removal
func NewParser(cleaner *clean.Cleaner, log *logrus.Entry) *Parser {
	return &Parser{cleaner: cleaner, log: log}
}

// Product parses a full scraped record into the canonical structured output.
// Missing sections yield empty sub-lists; only a missing tariff code is an
// error, because nothing can be keyed without it.
func (p *Parser) Product(rec *models.ScrapedRecord) (*models.HSProduct, error) {
	if rec.TariffCode.IsZero() {
		return nil, fmt.Errorf("scraped record has no tariff code")
	}
	code := rec.TariffCode

	pos, _ := rec.Section(SectionPositionTarifaire)
	posText := p.cleaner.Block(pos.RawText)
	keyValues := clean.KeyValues(posText)

	sectionLevel, chapterLevel := p.SectionAndChapter(posText, keyValues)
	hier := p.Hierarchy(posText, code)

	designation := hier.HS10Label
	if designation == models.NA || designation == "" {
		designation = p.Designation(posText, keyValues, code)
	}

	product := &models.HSProduct{
		TariffCode: code,
		HS10:       code.HS10(),
		Section:    sectionLevel,
		Chapter:    chapterLevel,
		HS4: models.HierarchyLevel{
			Code: code.HS4(), Label: hier.HS4Label, Present: hier.HS4Label != models.NA,
		},
		HS6: models.HierarchyLevel{
			Code: code.HS6(), Label: hier.HS6Label, Present: hier.HS6Label != models.NA,
		},
		HS8: models.HierarchyLevel{
			Code: code.HS8(), Label: hier.HS8Label, Present: hier.HS8Label != models.NA,
		},
		HS10Level: models.HierarchyLevel{
			Code: code.HS10(), Label: hier.HS10Label, Present: hier.HS10Label != models.NA,
		},
		Designation:   designation,
		UnitOfMeasure: p.UnitOfMeasure(posText, pos.Metadata),
		Taxes:         []models.Tax{},
		Documents:     []models.Document{},
		Agreements:    []models.Agreement{},
		DutyHistory:   []models.DutyRate{},
		Lineage: models.Lineage{
			ScrapedAt: rec.ScrapedAt,
			Status:    rec.Status,
		},
	}

	if s, ok := rec.Section(SectionTaxes); ok {
		product.Taxes = p.Taxes(p.cleaner.Block(s.RawText))
		product.Lineage.Sources = append(product.Lineage.Sources, s.Name)
	}
	if s, ok := rec.Section(SectionDocuments); ok {
		product.Documents = p.Documents(p.cleaner.Block(s.RawText))
		product.Lineage.Sources = append(product.Lineage.Sources, s.Name)
	}
	if s, ok := rec.Section(SectionAgreements); ok {
		product.Agreements = p.Agreements(p.cleaner.Block(s.RawText))
		product.Lineage.Sources = append(product.Lineage.Sources, s.Name)
	}
	if s, ok := rec.Section(SectionDutyHistory); ok {
		product.DutyHistory = p.DutyHistory(p.cleaner.Block(s.RawText))
		product.Lineage.Sources = append(product.Lineage.Sources, s.Name)
	}

	return product, nil
}

// UnitOfMeasure reads the trailing unit line of the classification text. A
// plausible unit is at most 5 characters; anything longer falls back to the
// extracted metadata, then to the site default "U". Empty text carries no
// unit at all and yields NA.
func (p *Parser) UnitOfMeasure(posText string, metadata map[string]string) string {
	lines := clean.Lines(posText)
	if len(lines) == 0 {
		return models.NA
	}
	if last := lines[len(lines)-1]; len(last) <= 5 {
		return last
	}
	if u, ok := metadata["unit"]; ok && u != "" {
		return u
	}
	return "U"
}

// parseDate converts the site's dd/mm/yyyy dates to ISO; unparseable input
// is returned verbatim
func parseDate(s string) string {
	t, err := time.Parse("02/01/2006", strings.TrimSpace(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return t.Format("2006-01-02")
}
