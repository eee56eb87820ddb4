package models

import "time"

// StoredVersion is one row of the append-only scrape history. For a given
// tariff code no two versions share a content hash, and Version strictly
// increases with insertion order starting at 1.
type StoredVersion struct {
	TariffCode  string    `json:"tariff_code"`
	Version     int       `json:"version"`
	ContentHash string    `json:"content_hash"`
	Payload     []byte    `json:"payload"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// SaveResult reports the outcome of a VersionedStore save
type SaveResult struct {
	Written bool
	Version int
}

// AuditEntry is one row of the run observability log
type AuditEntry struct {
	TariffCode string        `json:"tariff_code"`
	RunID      string        `json:"run_id"`
	Status     string        `json:"status"`
	Message    string        `json:"message,omitempty"`
	Duration   time.Duration `json:"duration_ms"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Audit statuses
const (
	AuditStatusSuccess   = "success"
	AuditStatusDuplicate = "duplicate"
	AuditStatusSkipped   = "skipped"
	AuditStatusFailed    = "failed"
)
