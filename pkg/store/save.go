package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/utils"
)

// Save persists one scraped record. Unchanged content (same tariff code and
// content hash as any stored version) is a no-op reported as Written=false
// with the already-stored version. New content appends the next version and
// refreshes the structured hierarchy when a parsed product is supplied.
func (s *VersionedStore) Save(ctx context.Context, rec models.ScrapedRecord, product *models.HSProduct) (models.SaveResult, error) {
	payload, err := CanonicalPayload(rec)
	if err != nil {
		return models.SaveResult{}, err
	}
	hash := ContentHash(payload)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.SaveResult{}, fmt.Errorf("%w: begin: %v", utils.ErrTransaction, err)
	}
	defer tx.Rollback()

	result, err := s.saveInTx(ctx, tx, rec, product, payload, hash)
	if err != nil {
		return models.SaveResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.SaveResult{}, fmt.Errorf("%w: commit: %v", utils.ErrTransaction, err)
	}
	return result, nil
}

func (s *VersionedStore) saveInTx(ctx context.Context, tx *sql.Tx, rec models.ScrapedRecord, product *models.HSProduct, payload []byte, hash string) (models.SaveResult, error) {
	var existing int
	err := tx.QueryRowContext(ctx,
		`SELECT version FROM scraped_versions WHERE tariff_code = ? AND content_hash = ?`,
		rec.Code, hash).Scan(&existing)
	switch {
	case err == nil:
		s.log.WithFields(map[string]interface{}{"code": rec.Code, "version": existing}).
			Debug("content unchanged, skipping")
		return models.SaveResult{Written: false, Version: existing}, nil
	case err != sql.ErrNoRows:
		return models.SaveResult{}, fmt.Errorf("%w: hash lookup: %v", utils.ErrTransaction, err)
	}

	var version int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM scraped_versions WHERE tariff_code = ?`,
		rec.Code).Scan(&version); err != nil {
		return models.SaveResult{}, fmt.Errorf("%w: next version: %v", utils.ErrTransaction, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO scraped_versions (tariff_code, version, content_hash, payload, scraped_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.Code, version, hash, string(payload), rec.ScrapedAt.UTC())
	if err != nil {
		// A concurrent writer can insert the same hash between the lookup
		// and this insert; the unique index makes that a duplicate, not a
		// failure.
		if isUniqueViolation(err) {
			var v int
			if qerr := tx.QueryRowContext(ctx,
				`SELECT version FROM scraped_versions WHERE tariff_code = ? AND content_hash = ?`,
				rec.Code, hash).Scan(&v); qerr == nil {
				return models.SaveResult{Written: false, Version: v}, nil
			}
			return models.SaveResult{Written: false, Version: version - 1}, nil
		}
		return models.SaveResult{}, fmt.Errorf("%w: insert version: %v", utils.ErrTransaction, err)
	}

	if product != nil {
		if err := upsertHierarchy(ctx, tx, product, rec); err != nil {
			return models.SaveResult{}, err
		}
	}

	return models.SaveResult{Written: true, Version: version}, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// upsertHierarchy walks the classification chain top-down, creating missing
// nodes and refreshing labels. An NA label never overwrites a real one.
func upsertHierarchy(ctx context.Context, tx *sql.Tx, p *models.HSProduct, rec models.ScrapedRecord) error {
	upsertNode := func(table, parentCol, code, parent, label string) error {
		var err error
		if parentCol == "" {
			_, err = tx.ExecContext(ctx, fmt.Sprintf(
				`INSERT INTO %s (code, label) VALUES (?, ?)
				 ON CONFLICT (code) DO UPDATE SET label = excluded.label
				 WHERE excluded.label <> ?`, table),
				code, label, models.NA)
		} else {
			_, err = tx.ExecContext(ctx, fmt.Sprintf(
				`INSERT INTO %s (code, %s, label) VALUES (?, ?, ?)
				 ON CONFLICT (code) DO UPDATE SET label = excluded.label, %s = excluded.%s
				 WHERE excluded.label <> ?`, table, parentCol, parentCol, parentCol),
				code, parent, label, models.NA)
		}
		if err != nil {
			return fmt.Errorf("%w: upsert %s %s: %v", utils.ErrTransaction, table, code, err)
		}
		return nil
	}

	sectionCode := p.Section.Code
	if err := upsertNode("sections", "", sectionCode, "", p.Section.Label); err != nil {
		return err
	}
	if err := upsertNode("chapters", "section_code", p.Chapter.Code, sectionCode, p.Chapter.Label); err != nil {
		return err
	}
	if err := upsertNode("hs4_nodes", "chapter_code", p.HS4.Code, p.Chapter.Code, p.HS4.Label); err != nil {
		return err
	}
	if err := upsertNode("hs6_nodes", "hs4_code", p.HS6.Code, p.HS4.Code, p.HS6.Label); err != nil {
		return err
	}

	taxes, _ := json.Marshal(p.Taxes)
	documents, _ := json.Marshal(p.Documents)
	agreements, _ := json.Marshal(p.Agreements)
	history, _ := json.Marshal(p.DutyHistory)

	_, err := tx.ExecContext(ctx,
		`INSERT INTO hs_products
		 (hs10, hs6_code, hs8_code, hs8_label, hs10_label, designation, unit_of_measure,
		  taxes, documents, agreements, duty_history, status, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (hs10) DO UPDATE SET
		   hs6_code = excluded.hs6_code,
		   hs8_code = excluded.hs8_code,
		   hs8_label = excluded.hs8_label,
		   hs10_label = excluded.hs10_label,
		   designation = excluded.designation,
		   unit_of_measure = excluded.unit_of_measure,
		   taxes = excluded.taxes,
		   documents = excluded.documents,
		   agreements = excluded.agreements,
		   duty_history = excluded.duty_history,
		   status = excluded.status,
		   updated_at = excluded.updated_at`,
		p.HS10, p.HS6.Code, p.HS8.Code, p.HS8.Label, p.HS10Level.Label,
		p.Designation, p.UnitOfMeasure,
		string(taxes), string(documents), string(agreements), string(history),
		rec.Status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: upsert product %s: %v", utils.ErrTransaction, p.HS10, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func writeAudit(ctx context.Context, ex execer, entry models.AuditEntry) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO audit_log (tariff_code, run_id, status, message, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.TariffCode, entry.RunID, entry.Status, entry.Message,
		entry.Duration.Milliseconds(), entry.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("%w: audit insert: %v", utils.ErrTransaction, err)
	}
	return nil
}

// Audit appends one run observability row
func (s *VersionedStore) Audit(ctx context.Context, entry models.AuditEntry) error {
	return writeAudit(ctx, s.db, entry)
}
