// Package clean normalizes the raw text extracted from the target site's
// frames: encoding-artifact repair, boilerplate stripping and whitespace
// collapsing. Everything here is a pure function over strings.
package clean

import (
	"strings"
)

// The site serves windows-1252 content that regularly reaches us double
// encoded. The table covers the artifacts actually observed in scrapes.
var mojibake = strings.NewReplacer(
	"â€™", "'",
	"â€˜", "'",
	"â€œ", "\"",
	"â€\"", "-",
	"â€“", "-",
	"â€”", "-",
	"â€¦", "...",
	"Ã©", "é",
	"Ã¨", "è",
	"Ãª", "ê",
	"Ã«", "ë",
	"Ã ", "à",
	"Ã¢", "â",
	"Ã®", "î",
	"Ã¯", "ï",
	"Ã´", "ô",
	"Ã»", "û",
	"Ã¹", "ù",
	"Ã§", "ç",
	"Â°", "°",
	"Â«", "«",
	"Â»", "»",
	" ", " ",
)

// Cleaner strips configured site boilerplate from text blocks. The phrase
// list lives in configuration so site drift is a config change, not a code
// change.
type Cleaner struct {
	phrases []string
}

// NewCleaner builds a cleaner with the given boilerplate phrase list
func NewCleaner(phrases []string) *Cleaner {
	return &Cleaner{phrases: phrases}
}

// FixEncoding repairs double-encoded UTF-8 artifacts
func FixEncoding(s string) string {
	return mojibake.Replace(s)
}

// CollapseInline reduces any whitespace run (including newlines) to a single
// space and trims the result
func CollapseInline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeLines trims every line, collapses intra-line whitespace and drops
// blank lines, preserving line boundaries for the structural parser
func NormalizeLines(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = CollapseInline(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// Lines returns the trimmed, non-empty lines of a text block
func Lines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// StripBoilerplate removes every configured boilerplate phrase
func (c *Cleaner) StripBoilerplate(s string) string {
	for _, phrase := range c.phrases {
		s = strings.ReplaceAll(s, phrase, "")
	}
	return s
}

// Block runs the full pipeline on a multi-line extraction: encoding repair,
// boilerplate stripping, then line normalization
func (c *Cleaner) Block(s string) string {
	return NormalizeLines(c.StripBoilerplate(FixEncoding(s)))
}

// Label cleans a single hierarchy or tax label: full pipeline plus removal
// of leading list markers and dangling separators
func (c *Cleaner) Label(s string) string {
	s = CollapseInline(c.StripBoilerplate(FixEncoding(s)))
	s = strings.TrimLeft(s, "-– ")
	s = strings.TrimRight(s, " :-–")
	return strings.TrimSpace(s)
}
