package parse

import (
	"regexp"
	"strings"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/clean"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
)

// startMarker anchors the hierarchy walk. When the heading is missing
// (older renderings of the page), the first chapter code of the nomenclature
// serves as an emergency anchor.
const (
	startMarker         = "Codification"
	fallbackStartMarker = "01.01"
)

// bareCodeRe matches lines that are themselves codes ("01.01", "0101.21",
// "00") and therefore never label text
var bareCodeRe = regexp.MustCompile(`^\d+[\d.]*$`)

// hierarchy level states for the line walker
type hierLevel int

const (
	levelNone hierLevel = iota
	levelHS4
	levelHS6
	levelHS8
	levelHS10
)

// HierarchyLabels is the result of the stateful hierarchy walk
type HierarchyLabels struct {
	HS4Label  string
	HS6Label  string
	HS8Label  string
	HS10Label string
}

// Hierarchy performs the single-pass stateful walk over the classification
// text. The site prints the nomenclature as an indented outline where each
// code appears on its own line followed by its label fragments; the walk
// assigns every non-code line to the level opened by the most recent code
// line. The trailing unit-of-measure line is excluded.
func (p *Parser) Hierarchy(posText string, code models.TariffCode) HierarchyLabels {
	hs4Fmt := code.DottedHS4()
	hs6Fmt := code.DottedHS6()
	hs8Pair := code.HS8Pair()
	hs10Pair := code.HS10Pair()

	text := posText
	if idx := strings.Index(text, startMarker); idx != -1 {
		text = text[idx:]
	} else if idx := strings.Index(text, fallbackStartMarker); idx != -1 {
		text = text[idx:]
	}

	lines := clean.Lines(text)
	if len(lines) > 0 {
		lines = lines[:len(lines)-1] // unit-of-measure tail
	}

	level := levelNone
	buffers := map[hierLevel][]string{}

	for _, line := range lines {
		switch {
		case line == hs4Fmt:
			level = levelHS4
			continue
		case line == hs6Fmt:
			level = levelHS6
			continue
		case level == levelHS6 && line == hs8Pair:
			level = levelHS8
			continue
		case level == levelHS8 && line == hs10Pair:
			level = levelHS10
			continue
		}

		if level != levelNone && !bareCodeRe.MatchString(line) {
			buffers[level] = append(buffers[level], line)
		}
	}

	return HierarchyLabels{
		HS4Label:  p.joinLabel(buffers[levelHS4]),
		HS6Label:  p.joinLabel(buffers[levelHS6]),
		HS8Label:  p.joinLabel(buffers[levelHS8]),
		HS10Label: p.joinLabel(buffers[levelHS10]),
	}
}

func (p *Parser) joinLabel(fragments []string) string {
	label := p.cleaner.Label(strings.Join(fragments, " "))
	if label == "" {
		return models.NA
	}
	return label
}

// doubleDashRe captures the indented designation text the site prints after
// the deepest code ("- - Reproducteurs de race pure")
var doubleDashRe = regexp.MustCompile(`-\s*-+\s*(.*)`)

// Designation resolves the product designation when the HS10-level label
// buffer came up empty: first the text after the first double-dash marker
// following the 6-digit code, then the fixed key-value field.
func (p *Parser) Designation(posText string, keyValues map[string]string, code models.TariffCode) string {
	hs6Idx := strings.Index(posText, code.DottedHS6())
	if hs6Idx != -1 {
		after := posText[hs6Idx:]
		if m := doubleDashRe.FindStringSubmatch(after); m != nil {
			// Capture runs to end of line only
			candidate := m[1]
			if nl := strings.IndexByte(candidate, '\n'); nl != -1 {
				candidate = candidate[:nl]
			}
			if d := p.cleaner.Label(candidate); d != "" {
				return d
			}
		}
	}

	if d, ok := keyValues["DESIGNATION DU PRODUIT"]; ok {
		if d = p.cleaner.Label(d); d != "" {
			return d
		}
	}
	return models.NA
}
