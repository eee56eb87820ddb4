package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/utils"
)

// BatchWriter groups saves into transactions of the configured batch size,
// committing automatically when a batch fills. SQLite allows one write
// transaction at a time, so a run shares a single writer across all workers
// and routes audit rows through it too; every write joins the one open batch
// transaction instead of contending for the database write lock. Each record
// runs inside its own savepoint, so a failed save rolls back that record
// alone and the records already staged in the batch survive.
type BatchWriter struct {
	store *VersionedStore

	mu      sync.Mutex
	tx      *sql.Tx
	pending int
}

// NewBatchWriter creates a writer bound to the store's batch size
func (s *VersionedStore) NewBatchWriter() *BatchWriter {
	return &BatchWriter{store: s}
}

// beginLocked lazily opens the batch transaction; the write lock is taken
// here and held until the batch commits.
func (b *BatchWriter) beginLocked(ctx context.Context) error {
	if b.tx != nil {
		return nil
	}
	tx, err := b.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin batch: %v", utils.ErrTransaction, err)
	}
	b.tx = tx
	return nil
}

// Add persists one record inside the current batch transaction
func (b *BatchWriter) Add(ctx context.Context, rec models.ScrapedRecord, product *models.HSProduct) (models.SaveResult, error) {
	payload, err := CanonicalPayload(rec)
	if err != nil {
		return models.SaveResult{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.beginLocked(ctx); err != nil {
		return models.SaveResult{}, err
	}

	if _, err := b.tx.ExecContext(ctx, "SAVEPOINT record_save"); err != nil {
		return models.SaveResult{}, fmt.Errorf("%w: savepoint: %v", utils.ErrTransaction, err)
	}
	result, err := b.store.saveInTx(ctx, b.tx, rec, product, payload, ContentHash(payload))
	if err != nil {
		// Undo this record's partial writes only; earlier records of the
		// batch stay staged for commit.
		b.tx.ExecContext(ctx, "ROLLBACK TO record_save")
		b.tx.ExecContext(ctx, "RELEASE record_save")
		return models.SaveResult{}, err
	}
	if _, err := b.tx.ExecContext(ctx, "RELEASE record_save"); err != nil {
		return models.SaveResult{}, fmt.Errorf("%w: release savepoint: %v", utils.ErrTransaction, err)
	}

	b.pending++
	if b.pending >= b.store.batchSize {
		if err := b.flushLocked(); err != nil {
			return models.SaveResult{}, err
		}
	}
	return result, nil
}

// Audit stages one observability row in the batch transaction. Routing audit
// rows through the writer keeps them off the database write lock while a
// batch is open; they become visible at the next flush.
func (b *BatchWriter) Audit(ctx context.Context, entry models.AuditEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.beginLocked(ctx); err != nil {
		return err
	}
	return writeAudit(ctx, b.tx, entry)
}

// Flush commits the open batch, if any
func (b *BatchWriter) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushLocked()
}

func (b *BatchWriter) flushLocked() error {
	if b.tx == nil {
		return nil
	}
	err := b.tx.Commit()
	b.tx = nil
	b.pending = 0
	if err != nil {
		return fmt.Errorf("%w: commit batch: %v", utils.ErrTransaction, err)
	}
	return nil
}
