// Package pipeline is the concurrent dispatch-and-batch-write engine of
// aisflow. One dispatcher goroutine walks the input files and classifies
// every record; two long-lived batch writers drain the clean and dirty
// queues into the store. Backpressure comes from the bounded queues: a
// full queue blocks the dispatcher until the writers catch up.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/aisflow/aisflow/internal/errlog"
	"github.com/aisflow/aisflow/internal/scan"
	"github.com/aisflow/aisflow/internal/store"
	"github.com/aisflow/aisflow/pkg/parse"
	"github.com/aisflow/aisflow/pkg/reader"
	"github.com/aisflow/aisflow/pkg/validate"
)

// DefaultQueueCapacity bounds each sink queue when the config leaves it
// zero.
const DefaultQueueCapacity = 5000

// Config tunes a pipeline run.
type Config struct {
	// QueueCapacity bounds the clean and dirty queues and caps batch size.
	QueueCapacity int

	// ErrorLogDir receives one rejected-record CSV per input file.
	ErrorLogDir string

	// Source is the provenance tag stamped on every parsed record.
	Source int

	// Rules are the domain validity predicates.
	Rules validate.Rules

	// OnFileDone, when set, is called after each input file with its
	// report (progress display hook).
	OnFileDone func(FileReport)
}

// FileReport summarizes one input file's outcome.
type FileReport struct {
	Name    string
	Skipped bool
	Reason  string
	Clean   int64
	Dirty   int64
	Invalid int64
}

// Metrics holds the run counters. All fields are safe for concurrent
// update.
type Metrics struct {
	FilesProcessed atomic.Int64
	FilesSkipped   atomic.Int64

	RecordsRead atomic.Int64
	Clean       atomic.Int64
	Dirty       atomic.Int64
	Invalid     atomic.Int64

	CleanPersisted  atomic.Int64
	DirtyPersisted  atomic.Int64
	PersistFailures atomic.Int64
}

// Pipeline wires the dispatcher, the queues, and the batch writers around
// one Store.
type Pipeline struct {
	cfg     Config
	store   store.Store
	log     *slog.Logger
	tracer  trace.Tracer
	metrics *Metrics

	cleanq chan *parse.Record
	dirtyq chan *parse.Record
}

// New builds a pipeline over st. The logger may be nil for the default.
func New(st store.Store, cfg Config, log *slog.Logger) *Pipeline {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		cfg:     cfg,
		store:   st,
		log:     log,
		tracer:  otel.Tracer("aisflow/pipeline"),
		metrics: &Metrics{},
		cleanq:  make(chan *parse.Record, cfg.QueueCapacity),
		dirtyq:  make(chan *parse.Record, cfg.QueueCapacity),
	}
}

// Metrics returns the run counters.
func (p *Pipeline) Metrics() *Metrics { return p.metrics }

// Run ingests files to completion: drop indices, start the writers,
// dispatch every file, drain both queues, rebuild indices. The returned
// error is nil on a clean run; per-record and per-file problems surface
// only in counters and logs.
func (p *Pipeline) Run(ctx context.Context, files []scan.File) error {
	runID := uuid.New().String()
	log := p.log.With("run_id", runID)

	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.files", len(files)),
		))
	defer span.End()

	if err := p.store.DropIndices(ctx); err != nil {
		return fmt.Errorf("drop indices: %w", err)
	}

	g, wctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.runWriter(wctx, p.cleanq, p.store.Clean(), &p.metrics.CleanPersisted)
	})
	g.Go(func() error {
		return p.runWriter(wctx, p.dirtyq, p.store.Dirty(), &p.metrics.DirtyPersisted)
	})

	dispatchErr := p.dispatch(ctx, files, log)

	// Closing the queues is the drain signal: the writers flush whatever
	// is left and exit, so Wait returning means every enqueued record has
	// been handed to the store.
	close(p.cleanq)
	close(p.dirtyq)
	if err := g.Wait(); err != nil {
		return err
	}
	if dispatchErr != nil {
		return dispatchErr
	}

	if err := p.store.CreateIndices(ctx); err != nil {
		return fmt.Errorf("rebuild indices: %w", err)
	}

	log.Info("ingestion complete",
		"files", p.metrics.FilesProcessed.Load(),
		"skipped", p.metrics.FilesSkipped.Load(),
		"clean", p.metrics.Clean.Load(),
		"dirty", p.metrics.Dirty.Load(),
		"invalid", p.metrics.Invalid.Load(),
	)
	return nil
}

// dispatch processes every file in order. Only storage failures and
// cancellation abort the run.
func (p *Pipeline) dispatch(ctx context.Context, files []scan.File, log *slog.Logger) error {
	for _, f := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		report, err := p.processFile(ctx, f, log)
		if err != nil {
			return err
		}
		if p.cfg.OnFileDone != nil {
			p.cfg.OnFileDone(report)
		}
	}
	return nil
}

// processFile runs one input file through reader → parser → validator and
// enqueues the outcomes. A non-nil error aborts the whole run; skippable
// conditions (unsupported extension, header mismatch, read failure,
// already ingested) are reported in the FileReport instead.
func (p *Pipeline) processFile(ctx context.Context, f scan.File, log *slog.Logger) (FileReport, error) {
	report := FileReport{Name: f.Name}

	rdr, ok := reader.ForExtension(f.Ext)
	if !ok {
		log.Warn("cannot parse file extension", "file", f.Name, "ext", f.Ext)
		p.metrics.FilesSkipped.Add(1)
		report.Skipped, report.Reason = true, "unsupported extension"
		return report, nil
	}

	ingested, err := p.store.HasIngested(ctx, f.Name)
	if err != nil {
		return report, fmt.Errorf("idempotency check for %s: %w", f.Name, err)
	}
	if ingested {
		log.Info("already ingested, skipping", "file", f.Name)
		p.metrics.FilesSkipped.Add(1)
		report.Skipped, report.Reason = true, "already ingested"
		return report, nil
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.file",
		trace.WithAttributes(attribute.String("file.name", f.Name)))
	defer span.End()

	elog, err := errlog.Open(p.cfg.ErrorLogDir, f.Name)
	if err != nil {
		return report, err
	}
	defer elog.Close()

	in, err := os.Open(f.Path)
	if err != nil {
		return report, fmt.Errorf("open %s: %w", f.Path, err)
	}
	defer in.Close()

	log.Info("parsing", "file", f.Name, "format", rdr.Name())

	raws := make(chan parse.RawRecord, 256)
	readErr := make(chan error, 1)
	go func() {
		readErr <- rdr.Read(ctx, in, raws)
		close(raws)
	}()

	var clean, dirty, invalid int64
	for raw := range raws {
		p.metrics.RecordsRead.Add(1)

		rec, err := parse.Parse(raw, p.cfg.Source)
		if err != nil {
			if aerr := elog.Append(raw, err.Error()); aerr != nil {
				log.Warn("error log write failed", "file", f.Name, "error", aerr)
			}
			invalid++
			continue
		}

		q := p.cleanq
		if verr := validate.Validate(rec, p.cfg.Rules); verr != nil {
			q = p.dirtyq
		}
		select {
		case q <- rec:
		case <-ctx.Done():
			return report, ctx.Err()
		}
		if q == p.cleanq {
			clean++
		} else {
			dirty++
		}
	}

	p.metrics.Clean.Add(clean)
	p.metrics.Dirty.Add(dirty)
	p.metrics.Invalid.Add(invalid)
	report.Clean, report.Dirty, report.Invalid = clean, dirty, invalid

	if err := <-readErr; err != nil {
		// A broken header or a mid-file read failure skips the file
		// without a SourceFile row, so a corrected file can be retried.
		var he *reader.HeaderError
		if errors.As(err, &he) {
			log.Warn("file skipped", "file", f.Name, "error", he)
			p.metrics.FilesSkipped.Add(1)
			report.Skipped, report.Reason = true, he.Error()
			return report, nil
		}
		if errors.Is(err, reader.ErrContextCanceled) || errors.Is(err, context.Canceled) {
			return report, context.Cause(ctx)
		}
		log.Warn("file skipped", "file", f.Name, "error", err)
		p.metrics.FilesSkipped.Add(1)
		report.Skipped, report.Reason = true, err.Error()
		return report, nil
	}

	if err := p.store.RecordIngestion(ctx, store.SourceFile{
		Filename: f.Name,
		Ext:      f.Ext,
		Invalid:  invalid,
		Clean:    clean,
		Dirty:    dirty,
	}); err != nil {
		return report, err
	}
	p.metrics.FilesProcessed.Add(1)

	log.Info("completed", "file", f.Name, "clean", clean, "dirty", dirty, "invalid", invalid)
	return report, nil
}

// runWriter is the drain-and-persist loop of one sink: block for a first
// record, then take everything immediately available into the same batch,
// and hand the batch to the store. A persistence failure is logged and the
// batch dropped; the writer never stops for it.
func (p *Pipeline) runWriter(ctx context.Context, q <-chan *parse.Record, sink store.Sink, persisted *atomic.Int64) error {
	batch := make([]*parse.Record, 0, p.cfg.QueueCapacity)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok := <-q:
			if !ok {
				return nil
			}
			batch = append(batch[:0], rec)

		drain:
			for len(batch) < cap(batch) {
				select {
				case rec, ok := <-q:
					if !ok {
						p.flush(ctx, sink, batch, persisted)
						return nil
					}
					batch = append(batch, rec)
				default:
					break drain
				}
			}
			p.flush(ctx, sink, batch, persisted)
		}
	}
}

// flush persists one batch. Failures are counted and logged, never
// propagated: at-most-once persistence is the explicit policy here.
func (p *Pipeline) flush(ctx context.Context, sink store.Sink, batch []*parse.Record, persisted *atomic.Int64) {
	if len(batch) == 0 {
		return
	}
	if err := sink.InsertBatch(ctx, batch); err != nil {
		p.log.Warn("batch insert failed, dropping batch",
			"sink", sink.Name(), "records", len(batch), "error", err)
		p.metrics.PersistFailures.Add(1)
		return
	}
	persisted.Add(int64(len(batch)))
}
