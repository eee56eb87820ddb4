package models

import "time"

// NA marks a hierarchy label the source text did not provide
const NA = "NA"

// HierarchyLevel is one node of the HS classification tree. Present is false
// when the level is structurally absent in the source text (label "NA").
type HierarchyLevel struct {
	Code    string `json:"code"`
	Label   string `json:"label"`
	Present bool   `json:"present"`
}

// Tax is one duty or tax line from the "Droits et Taxes" section
type Tax struct {
	Code    string `json:"code"`
	Label   string `json:"label"`
	RawRate string `json:"raw"`
}

// Document is one required document from the "Documents et Normes" section
type Document struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
}

// Agreement is one preferential-regime line from "Accords et Convention"
type Agreement struct {
	Country        string `json:"country"`
	ListType       string `json:"list"`
	ImportDutyRate string `json:"di"`
	ParafiscalRate string `json:"tpi"`
}

// DutyRate is one entry of the import-duty history table
type DutyRate struct {
	Date    string `json:"date"`
	RawRate string `json:"raw"`
}

// Lineage records where and when a product record came from
type Lineage struct {
	ScrapedAt time.Time `json:"scraped_at"`
	Status    string    `json:"status"`
	Sources   []string  `json:"sources,omitempty"`
}

// HSProduct is the canonical structured output of the parser for one
// 10-digit position.
type HSProduct struct {
	TariffCode    TariffCode     `json:"-"`
	HS10          string         `json:"hs10"`
	Section       HierarchyLevel `json:"section"`
	Chapter       HierarchyLevel `json:"chapter"`
	HS4           HierarchyLevel `json:"hs4"`
	HS6           HierarchyLevel `json:"hs6"`
	HS8           HierarchyLevel `json:"hs8"`
	HS10Level     HierarchyLevel `json:"hs10_level"`
	Designation   string         `json:"designation"`
	UnitOfMeasure string         `json:"unit_of_measure"`
	Taxes         []Tax          `json:"taxation"`
	Documents     []Document     `json:"documents"`
	Agreements    []Agreement    `json:"agreements"`
	DutyHistory   []DutyRate     `json:"import_duty_history"`
	Lineage       Lineage        `json:"lineage"`
}

// HierarchyConsistent verifies that every level's code is a prefix of the
// 10-digit code: HS4 == digits 1-4, HS6 == digits 1-6, HS8 == digits 1-8.
func (p *HSProduct) HierarchyConsistent() bool {
	if len(p.HS10) != 10 {
		return false
	}
	return p.HS4.Code == p.HS10[:4] &&
		p.HS6.Code == p.HS10[:6] &&
		p.HS8.Code == p.HS10[:8]
}
