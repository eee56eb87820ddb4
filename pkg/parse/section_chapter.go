package parse

import (
	"regexp"
	"strings"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
)

var (
	codeDashLabelRe = regexp.MustCompile(`^(\d{2})\s*[-–—]\s*(.+)$`)

	sectionCodeRe  = regexp.MustCompile(`(?i)SECTION\s*:\s*(\d{2})`)
	chapterCodeRe  = regexp.MustCompile(`(?i)CHAPITRE\s*:\s*(\d{2})`)
	sectionLabelRe = regexp.MustCompile(`(?is)SECTION\s*:\s*\d{2}\s*[-–—]\s*(.+?)(?:\n|CHAPITRE|$)`)
	chapterLabelRe = regexp.MustCompile(`(?is)CHAPITRE\s*:\s*\d{2}\s*[-–—]\s*(.+?)(?:\n|DESIGNATION|$)`)
)

// SectionAndChapter extracts the section and chapter levels. The structured
// key/value pair ("SECTION : 01 - Animaux vivants") is preferred; when the
// rendering omits it, a regex pass over the raw text recovers code and label
// separately.
func (p *Parser) SectionAndChapter(posText string, keyValues map[string]string) (section, chapter models.HierarchyLevel) {
	section = p.levelFromKeyOrText(posText, keyValues["SECTION"], sectionCodeRe, sectionLabelRe)
	chapter = p.levelFromKeyOrText(posText, keyValues["CHAPITRE"], chapterCodeRe, chapterLabelRe)
	return section, chapter
}

func (p *Parser) levelFromKeyOrText(posText, keyed string, codeRe, labelRe *regexp.Regexp) models.HierarchyLevel {
	level := models.HierarchyLevel{Code: models.NA, Label: models.NA}

	if keyed != "" {
		if m := codeDashLabelRe.FindStringSubmatch(strings.TrimSpace(keyed)); m != nil {
			level.Code = m[1]
			level.Label = p.cleaner.Label(m[2])
		} else if before, after, found := strings.Cut(keyed, "-"); found {
			level.Code = strings.TrimSpace(before)
			level.Label = p.cleaner.Label(after)
		}
	}

	if level.Code == models.NA && posText != "" {
		if m := codeRe.FindStringSubmatch(posText); m != nil {
			level.Code = m[1]
			if lm := labelRe.FindStringSubmatch(posText); lm != nil {
				level.Label = p.cleaner.Label(lm[1])
			}
		}
	}

	if level.Label == "" {
		level.Label = models.NA
	}
	level.Present = level.Code != models.NA
	return level
}
