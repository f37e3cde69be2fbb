package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"migrator/internal/domain"
	"migrator/internal/etl"
)

// ─────────────────────────────────────────────────────────────
// Migration Service: wires a collection client into the engine
// ─────────────────────────────────────────────────────────────

// MigrationService runs migrations against one collection client.
type MigrationService struct {
	client    domain.CollectionClient
	logger    logrus.FieldLogger
	emitter   EventEmitter
	pacer     etl.Pacer
	batchSize int
	guard     targetGuard
}

// ServiceOption configures a MigrationService.
type ServiceOption func(*MigrationService)

// WithPacer replaces the fixed delay between records.
func WithPacer(p etl.Pacer) ServiceOption {
	return func(s *MigrationService) { s.pacer = p }
}

// WithPace sets the fixed delay between records.
func WithPace(d time.Duration) ServiceOption {
	return func(s *MigrationService) { s.pacer = etl.FixedDelay{Delay: d} }
}

// WithBatchSize sets the batch size used when RunInput leaves it at zero.
func WithBatchSize(n int) ServiceOption {
	return func(s *MigrationService) { s.batchSize = n }
}

// NewMigrationService creates a MigrationService ready for use.
func NewMigrationService(
	client domain.CollectionClient,
	logger logrus.FieldLogger,
	emitter EventEmitter,
	opts ...ServiceOption,
) *MigrationService {
	s := &MigrationService{
		client:    client,
		logger:    logger,
		emitter:   emitter,
		pacer:     etl.FixedDelay{Delay: etl.DefaultPace},
		batchSize: etl.DefaultBatchSize,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RunInput describes one invocation.
type RunInput struct {
	SourceID  string
	TargetID  string
	Confirm   bool // live writes; anything else is a dry run
	BatchSize int  // 0 uses the service default
}

// Run migrates every record of SourceID into TargetID.
func (s *MigrationService) Run(ctx context.Context, in RunInput) (*etl.Result, error) {
	if in.SourceID == "" || in.TargetID == "" {
		return nil, fmt.Errorf("source and target collection ids are required")
	}
	batchSize := in.BatchSize
	if batchSize == 0 {
		batchSize = s.batchSize
	}

	if !s.guard.TryLock(in.TargetID) {
		return nil, fmt.Errorf("a migration into %s is already running", in.TargetID)
	}
	defer s.guard.Unlock(in.TargetID)

	engine := &etl.Engine{
		Client:  s.client,
		Pacer:   s.pacer,
		Logger:  s.logger,
		Emitter: s.emitter,
	}
	return engine.Run(ctx, in.SourceID, in.TargetID, etl.Options{
		DryRun:    !in.Confirm,
		BatchSize: batchSize,
	})
}
