package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
)

// CanonicalPayload serializes a record with its volatile fields zeroed, so
// two scrapes of unchanged content hash identically regardless of when they
// ran or how long they took.
func CanonicalPayload(rec models.ScrapedRecord) ([]byte, error) {
	stable := rec
	stable.ScrapedAt = time.Time{}
	stable.DurationSeconds = 0

	stable.Sections = make([]models.RawSection, len(rec.Sections))
	for i, s := range rec.Sections {
		s.ScrapedAt = time.Time{}
		stable.Sections[i] = s
	}

	data, err := json.Marshal(stable)
	if err != nil {
		return nil, fmt.Errorf("marshaling record %s: %w", rec.Code, err)
	}
	return data, nil
}

// ContentHash returns the hex SHA-256 of the canonical payload
func ContentHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
