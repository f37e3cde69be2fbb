package etl

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"migrator/internal/domain"
)

// ── Migration ──────────────────────────────────────────────
// Orchestrates: read every source page → read target schema →
// map + create record by record, in sequential batches.

// Options controls a single run.
type Options struct {
	DryRun    bool
	BatchSize int
}

// DefaultBatchSize is used by callers that have no explicit batch size.
const DefaultBatchSize = 10

// Failure is a record whose creation failed.
type Failure struct {
	RecordID string `json:"recordId"`
	Error    string `json:"error"`
}

// Result is the outcome of a run.
// Attempted always equals Succeeded + Failed + Simulated.
type Result struct {
	RunID     string        `json:"runId"`
	DryRun    bool          `json:"dryRun"`
	Attempted int           `json:"attempted"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Simulated int           `json:"simulated"`
	Failures  []Failure     `json:"failures,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Phase is the engine state during a run. Every change is logged at debug
// level with "from" and "to" fields.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseFetchingSource Phase = "fetching-source"
	PhaseFetchingSchema Phase = "fetching-schema"
	PhaseMigrating      Phase = "migrating"
	PhaseDone           Phase = "done"
	PhaseFailed         Phase = "failed"
)

// Emitter receives progress events. service.EventEmitter satisfies it.
type Emitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Progress events.
const (
	EventPage   = "migration:page"
	EventSchema = "migration:schema"
	EventBatch  = "migration:batch"
	EventRecord = "migration:record"
	EventDone   = "migration:done"
)

// PageLoaded is emitted after each source page.
type PageLoaded struct {
	Loaded int `json:"loaded"`
}

// SchemaLoaded is emitted once the target schema is known.
type SchemaLoaded struct {
	Properties []string `json:"properties"`
}

// BatchStarted is emitted before each batch; Index is 1-based.
type BatchStarted struct {
	Index int `json:"index"`
	Total int `json:"total"`
}

// RecordProcessed is emitted after each record.
type RecordProcessed struct {
	RecordID string   `json:"recordId"`
	Keys     []string `json:"keys"`
	DryRun   bool     `json:"dryRun"`
	Error    string   `json:"error,omitempty"`
}

// Engine copies records between two collections of the same client.
// Only Client is required; the rest fall back to defaults.
type Engine struct {
	Client  domain.CollectionClient
	Mapper  *Mapper
	Pacer   Pacer
	Logger  logrus.FieldLogger
	Emitter Emitter

	phase Phase
}

func (e *Engine) current() Phase {
	if e.phase == "" {
		return PhaseIdle
	}
	return e.phase
}

// Run migrates every record of sourceID into targetID.
// Errors while reading the source or the target schema abort the run
// before anything is written. A failed create only counts as a failure.
func (e *Engine) Run(ctx context.Context, sourceID, targetID string, opts Options) (*Result, error) {
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", opts.BatchSize)
	}
	if e.Client == nil {
		return nil, fmt.Errorf("engine has no collection client")
	}

	start := time.Now()
	result := &Result{RunID: uuid.New().String(), DryRun: opts.DryRun}
	log := e.logger().WithFields(logrus.Fields{
		"run_id": result.RunID,
		"source": sourceID,
		"target": targetID,
	})
	log.WithField("dry_run", opts.DryRun).Info("starting migration")

	// 1. Read the whole source before any write.
	e.transition(log, PhaseFetchingSource)
	records, err := FetchAll(ctx, e.Client, sourceID, func(loaded int) {
		log.WithField("loaded", loaded).Info("loaded source records")
		e.emit(ctx, EventPage, PageLoaded{Loaded: loaded})
	})
	if err != nil {
		e.transition(log, PhaseFailed)
		return nil, fmt.Errorf("fetch source %s: %w", sourceID, err)
	}
	log.WithField("total", len(records)).Info("source fully loaded")

	// 2. Target schema, once per run.
	e.transition(log, PhaseFetchingSchema)
	schema, err := e.Client.FetchSchema(ctx, targetID)
	if err != nil {
		e.transition(log, PhaseFailed)
		return nil, fmt.Errorf("fetch schema %s: %w", targetID, err)
	}
	names := schema.Names()
	log.WithField("properties", names).Info("target schema loaded")
	e.emit(ctx, EventSchema, SchemaLoaded{Properties: names})

	// 3. Sequential batches, sequential records.
	e.transition(log, PhaseMigrating)
	mapper := e.mapper(log)
	pacer := e.pacer()
	total := (len(records) + opts.BatchSize - 1) / opts.BatchSize

	for i := 0; i < len(records); i += opts.BatchSize {
		end := min(i+opts.BatchSize, len(records))
		index := i/opts.BatchSize + 1

		log.WithFields(logrus.Fields{"batch": index, "batches": total}).Info("processing batch")
		e.emit(ctx, EventBatch, BatchStarted{Index: index, Total: total})

		for _, rec := range records[i:end] {
			e.migrateRecord(ctx, log, mapper, rec, targetID, schema, opts.DryRun, result)
			pacer.Wait(ctx)
		}
	}

	result.Duration = time.Since(start)
	e.transition(log, PhaseDone)
	log.WithFields(logrus.Fields{
		"attempted": result.Attempted,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"simulated": result.Simulated,
		"duration":  result.Duration.String(),
	}).Info("migration finished")
	e.emit(ctx, EventDone, result)

	return result, nil
}

func (e *Engine) migrateRecord(
	ctx context.Context,
	log logrus.FieldLogger,
	mapper *Mapper,
	rec domain.Record,
	targetID string,
	schema *domain.Schema,
	dryRun bool,
	result *Result,
) {
	props := mapper.Map(rec, schema)
	keys := sortedKeys(props)
	event := RecordProcessed{RecordID: rec.ID, Keys: keys, DryRun: dryRun}
	result.Attempted++

	if dryRun {
		result.Simulated++
		log.WithFields(logrus.Fields{"record": rec.ID, "keys": keys}).Info("[dry-run] would create record")
		e.emit(ctx, EventRecord, event)
		return
	}

	if _, err := e.Client.CreateRecord(ctx, targetID, props); err != nil {
		result.Failed++
		result.Failures = append(result.Failures, Failure{RecordID: rec.ID, Error: err.Error()})
		log.WithField("record", rec.ID).WithError(err).Error("failed to migrate record")
		event.Error = err.Error()
		e.emit(ctx, EventRecord, event)
		return
	}

	result.Succeeded++
	e.emit(ctx, EventRecord, event)
}

func (e *Engine) transition(log logrus.FieldLogger, to Phase) {
	log.WithFields(logrus.Fields{"from": e.current(), "to": to}).Debug("phase change")
	e.phase = to
}

func (e *Engine) emit(ctx context.Context, event string, data any) {
	if e.Emitter != nil {
		e.Emitter.Emit(ctx, event, data)
	}
}

func (e *Engine) logger() logrus.FieldLogger {
	if e.Logger == nil {
		return logrus.StandardLogger()
	}
	return e.Logger
}

func (e *Engine) mapper(log logrus.FieldLogger) *Mapper {
	if e.Mapper != nil {
		return e.Mapper
	}
	return NewMapper(log)
}

func (e *Engine) pacer() Pacer {
	if e.Pacer == nil {
		return FixedDelay{Delay: DefaultPace}
	}
	return e.Pacer
}

func sortedKeys(props map[string]domain.Value) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
