// Package orchestrate runs the scrape across a fixed pool of workers, each
// owning an exclusive browser session, and streams per-code results.
package orchestrate

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/browser"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/config"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/models"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/parse"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/store"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/utils"
	"github.com/aichaoukdour/Autommated-scraping-pipeline/pkg/walk"
)

// CodeResult is the outcome of processing one tariff code
type CodeResult struct {
	Code     string
	Status   string
	Version  int
	Written  bool
	Err      error
	Duration time.Duration
	Worker   int
}

// Result statuses as streamed to the consumer
const (
	ResultSuccess   = "success"
	ResultPartial   = "partial"
	ResultDuplicate = "duplicate"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"
)

// Summary aggregates a finished run
type Summary struct {
	Processed  int
	Succeeded  int
	Partial    int
	Duplicates int
	Skipped    int
	Failed     int
	Duration   time.Duration
}

// Observe folds one result into the summary
func (s *Summary) Observe(r CodeResult) {
	s.Processed++
	switch r.Status {
	case ResultSuccess:
		s.Succeeded++
	case ResultPartial:
		s.Partial++
	case ResultDuplicate:
		s.Duplicates++
	case ResultSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// Orchestrator coordinates workers, sessions and persistence for one run
type Orchestrator struct {
	cfg     *config.AppConfig
	factory browser.SessionFactory
	walker  *walk.SectionWalker
	parser  *parse.Parser
	db      *store.VersionedStore
	run     *models.RunContext
	log     *logrus.Entry
}

// New creates an orchestrator. All collaborators are shared across workers
// except browser sessions, which each worker creates for itself.
func New(cfg *config.AppConfig, factory browser.SessionFactory, walker *walk.SectionWalker, parser *parse.Parser, db *store.VersionedStore, run *models.RunContext, log *logrus.Entry) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		factory: factory,
		walker:  walker,
		parser:  parser,
		db:      db,
		run:     run,
		log:     log,
	}
}

// Run processes the given codes and streams one result per code. The
// returned channel closes when every worker has drained. Codes already
// stored within the resume window are skipped without opening a browser.
func (o *Orchestrator) Run(ctx context.Context, codes []models.TariffCode) <-chan CodeResult {
	out := make(chan CodeResult, o.cfg.NumWorkers)

	var fresh map[string]struct{}
	if o.cfg.Store.ResumeFreshDays > 0 {
		window := time.Duration(o.cfg.Store.ResumeFreshDays) * 24 * time.Hour
		var err error
		fresh, err = o.db.ListFreshCodes(ctx, window)
		if err != nil {
			o.log.WithError(err).Warn("resume query failed, processing all codes")
			fresh = nil
		} else {
			o.log.WithField("fresh", len(fresh)).Info("resume window applied")
		}
	}

	// One writer for the whole run: SQLite has a single write lock, so all
	// workers funnel their saves and audit rows through the same batch
	// transaction instead of queuing on it.
	writer := o.db.NewBatchWriter()

	g, gctx := errgroup.WithContext(ctx)

	jobs := make(chan models.TariffCode)
	go func() {
		defer close(jobs)
		for _, code := range codes {
			select {
			case <-gctx.Done():
				return
			case jobs <- code:
			}
		}
	}()

	for i := 0; i < o.cfg.NumWorkers; i++ {
		worker := i
		g.Go(func() error {
			return o.runWorker(gctx, worker, jobs, out, fresh, writer)
		})
	}
	go func() {
		if err := g.Wait(); err != nil {
			o.log.WithError(err).Error("run aborted")
		}
		if err := writer.Flush(); err != nil {
			o.log.WithError(err).Error("final batch flush failed")
		}
		close(out)
	}()

	return out
}

// runWorker owns one browser session at a time and recycles it every
// SessionRestartEvery codes to shed leaked frame state. A failure to open a
// session at all means the browser pool is gone; that error is returned and
// stops the whole run.
func (o *Orchestrator) runWorker(ctx context.Context, id int, jobs <-chan models.TariffCode, out chan<- CodeResult, fresh map[string]struct{}, writer *store.BatchWriter) error {
	wlog := o.log.WithField("worker", id)

	var session browser.Session
	var onSession int
	defer func() {
		if session != nil {
			session.Close()
		}
	}()

	for code := range jobs {
		if ctx.Err() != nil {
			return nil
		}

		start := time.Now()
		result := CodeResult{Code: code.Padded(), Worker: id}

		if _, ok := fresh[code.Padded()]; ok {
			result.Status = ResultSkipped
			result.Duration = time.Since(start)
			o.audit(ctx, writer, result, models.AuditStatusSkipped, "fresh within resume window")
			out <- result
			continue
		}

		if session != nil && onSession >= o.cfg.SessionRestartEvery {
			wlog.WithField("codes", onSession).Debug("recycling browser session")
			session.Close()
			session = nil
			onSession = 0
		}
		if session == nil {
			var err error
			session, err = o.factory.NewSession()
			if err != nil {
				result.Status = ResultFailed
				result.Err = fmt.Errorf("%w: opening session: %v", utils.ErrPipelineFatal, err)
				result.Duration = time.Since(start)
				o.audit(ctx, writer, result, models.AuditStatusFailed, result.Err.Error())
				out <- result
				return result.Err
			}
		}

		status, saved, err := o.processCode(ctx, session, writer, code)
		onSession++
		result.Status = status
		result.Version = saved.Version
		result.Written = saved.Written
		result.Err = err
		result.Duration = time.Since(start)

		switch {
		case err != nil:
			o.audit(ctx, writer, result, models.AuditStatusFailed, err.Error())
			// A code that died mid-navigation can leave the session on an
			// arbitrary page; recycle before the next one.
			session.Close()
			session = nil
			onSession = 0
		case status == ResultDuplicate:
			o.audit(ctx, writer, result, models.AuditStatusDuplicate, "")
		default:
			o.audit(ctx, writer, result, models.AuditStatusSuccess, "")
		}
		out <- result
	}
	return nil
}

// processCode scrapes, parses and persists one code. Panics from the
// browser layer are contained here so a poisoned page only costs one code.
func (o *Orchestrator) processCode(ctx context.Context, session browser.Session, writer *store.BatchWriter, code models.TariffCode) (status string, saved models.SaveResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			status = ResultFailed
			err = fmt.Errorf("panic processing %s: %v", code, r)
		}
	}()

	rec := o.walker.ScrapeCode(ctx, session, code)
	if rec.Status == models.ScrapeStatusError {
		return ResultFailed, models.SaveResult{}, fmt.Errorf("scrape failed: %s", rec.Error)
	}

	var product *models.HSProduct
	if p, perr := o.parser.Product(&rec); perr == nil {
		product = p
	} else {
		o.log.WithError(perr).WithField("code", rec.Code).Warn("record not parseable, storing raw only")
	}

	saved, err = writer.Add(ctx, rec, product)
	if err != nil {
		return ResultFailed, models.SaveResult{}, err
	}
	if !saved.Written {
		return ResultDuplicate, saved, nil
	}
	if rec.Status == models.ScrapeStatusPartial {
		return ResultPartial, saved, nil
	}
	return ResultSuccess, saved, nil
}

func (o *Orchestrator) audit(ctx context.Context, writer *store.BatchWriter, r CodeResult, status, message string) {
	entry := models.AuditEntry{
		TariffCode: r.Code,
		RunID:      o.run.RunID,
		Status:     status,
		Message:    message,
		Duration:   r.Duration,
		Timestamp:  time.Now().UTC(),
	}
	if err := writer.Audit(ctx, entry); err != nil {
		o.log.WithError(err).WithField("code", r.Code).Warn("audit write failed")
	}
}

// Collect drains a result channel into a summary, logging each code
func Collect(results <-chan CodeResult, log *logrus.Entry) Summary {
	start := time.Now()
	var summary Summary

	for r := range results {
		summary.Observe(r)

		fields := logrus.Fields{
			"code":     r.Code,
			"status":   r.Status,
			"worker":   r.Worker,
			"duration": r.Duration.Round(time.Millisecond),
		}
		if r.Err != nil {
			fields["category"] = utils.CategorizeError(r.Err)
			log.WithFields(fields).WithError(r.Err).Warn("code failed")
		} else {
			log.WithFields(fields).Info("code processed")
		}
	}

	summary.Duration = time.Since(start)
	return summary
}
