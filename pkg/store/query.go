package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/utils"
)

// ListFreshCodes returns the tariff codes whose most recent version was
// stored within the given window. A zero window means "ever scraped".
// Resumed runs use this set to skip work that is still fresh.
func (s *VersionedStore) ListFreshCodes(ctx context.Context, within time.Duration) (map[string]struct{}, error) {
	var rows *sql.Rows
	var err error
	if within > 0 {
		rows, err = s.db.QueryContext(ctx,
			`SELECT DISTINCT tariff_code FROM scraped_versions WHERE scraped_at >= ?`,
			time.Now().UTC().Add(-within))
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT DISTINCT tariff_code FROM scraped_versions`)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: listing codes: %v", utils.ErrTransaction, err)
	}
	defer rows.Close()

	fresh := make(map[string]struct{})
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("%w: scanning code: %v", utils.ErrTransaction, err)
		}
		fresh[code] = struct{}{}
	}
	return fresh, rows.Err()
}

// LoadLatest returns the newest stored version for a code, or nil when the
// code has never been stored.
func (s *VersionedStore) LoadLatest(ctx context.Context, code string) (*models.StoredVersion, error) {
	var v models.StoredVersion
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT tariff_code, version, content_hash, payload, scraped_at
		 FROM scraped_versions WHERE tariff_code = ?
		 ORDER BY version DESC LIMIT 1`, code).
		Scan(&v.TariffCode, &v.Version, &v.ContentHash, &payload, &v.ScrapedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: loading latest %s: %v", utils.ErrTransaction, code, err)
	}
	v.Payload = []byte(payload)
	return &v, nil
}

// HashInfo returns the full version history of a code, oldest first, with
// payloads omitted. Useful for inspecting how often a position changes.
func (s *VersionedStore) HashInfo(ctx context.Context, code string) ([]models.StoredVersion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tariff_code, version, content_hash, scraped_at
		 FROM scraped_versions WHERE tariff_code = ? ORDER BY version`, code)
	if err != nil {
		return nil, fmt.Errorf("%w: hash info %s: %v", utils.ErrTransaction, code, err)
	}
	defer rows.Close()

	var out []models.StoredVersion
	for rows.Next() {
		var v models.StoredVersion
		if err := rows.Scan(&v.TariffCode, &v.Version, &v.ContentHash, &v.ScrapedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning version: %v", utils.ErrTransaction, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// RunAudit returns the audit entries recorded for a run, oldest first
func (s *VersionedStore) RunAudit(ctx context.Context, runID string) ([]models.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tariff_code, run_id, status, COALESCE(message, ''), duration_ms, created_at
		 FROM audit_log WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("%w: run audit %s: %v", utils.ErrTransaction, runID, err)
	}
	defer rows.Close()

	var out []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var ms int64
		if err := rows.Scan(&e.TariffCode, &e.RunID, &e.Status, &e.Message, &ms, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: scanning audit row: %v", utils.ErrTransaction, err)
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}
