// Package input loads the tariff codes a run should process.
package input

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
)

// NormalizeCode turns a raw CSV cell into a ten digit code. Spreadsheet
// exports drop leading zeros and short positions omit their trailing
// subdivision, so digits are left-padded to six and right-padded to ten.
func NormalizeCode(raw string) (models.TariffCode, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	s := digits.String()
	if s == "" {
		return models.TariffCode{}, fmt.Errorf("no digits in %q", raw)
	}
	if len(s) > 10 {
		return models.TariffCode{}, fmt.Errorf("too many digits in %q", raw)
	}
	for len(s) < 6 {
		s = "0" + s
	}
	for len(s) < 10 {
		s += "0"
	}
	return models.NewTariffCode(s)
}

// ReadCodes loads the ordered, deduplicated code list from a CSV file. The
// code is taken from the first column; a non-numeric first row is treated
// as a header. Malformed rows are logged and skipped, never fatal.
func ReadCodes(path string, log *logrus.Entry) ([]models.TariffCode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	defer f.Close()

	return readCodes(f, log)
}

func readCodes(r io.Reader, log *logrus.Entry) ([]models.TariffCode, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var out []models.TariffCode
	seen := make(map[string]struct{})
	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading input file: %w", err)
		}
		line++
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}

		code, err := NormalizeCode(row[0])
		if err != nil {
			if line == 1 {
				// Header row.
				continue
			}
			log.WithField("line", line).WithError(err).Warn("skipping malformed row")
			continue
		}

		if _, dup := seen[code.Padded()]; dup {
			continue
		}
		seen[code.Padded()] = struct{}{}
		out = append(out, code)
	}
	return out, nil
}
