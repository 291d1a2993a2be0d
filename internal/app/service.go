// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	submissionqueue "github.com/plotcrowd/fairval/internal/adapters/mq/queue"
	workerpool "github.com/plotcrowd/fairval/internal/adapters/mq/worker"
	"github.com/plotcrowd/fairval/internal/adapters/recorder"
	"github.com/plotcrowd/fairval/internal/adapters/repository"
	"github.com/plotcrowd/fairval/internal/domain/dedupe"
	"github.com/plotcrowd/fairval/internal/domain/model"
	"github.com/plotcrowd/fairval/internal/domain/reputation"
	"github.com/plotcrowd/fairval/internal/domain/types"
	"github.com/plotcrowd/fairval/internal/domain/valuation"
	"github.com/plotcrowd/fairval/internal/scheduler"
	"github.com/plotcrowd/fairval/pkg/logger"
	"github.com/plotcrowd/fairval/pkg/metrics"
)

// Service implements the API dependencies for the valuation system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      *repository.PropertyStore
	board      *repository.KarmaBoard
	deduper    dedupe.Deduper
	queue      submissionqueue.Queue
	workerPool *workerpool.Pool
	recorder   recorder.Recorder
	refresher  *scheduler.Scheduler

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	refreshCron string

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRecorder sets the persistence sink for computed results.
func WithRecorder(rec recorder.Recorder) Option {
	return func(s *Service) {
		if rec != nil {
			s.recorder = rec
		}
	}
}

// WithRefreshCron sets the cron expression for the periodic reputation
// refresh. An empty expression disables the refresh.
func WithRefreshCron(expr string) Option {
	return func(s *Service) {
		s.refreshCron = expr
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   100000,
		dedupeSize:  50000,
		refreshCron: "0 0 3 * * *", // nightly at 03:00
		stopCh:      make(chan struct{}),
		logger:      nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting valuation service...")

	s.store = repository.NewPropertyStore()
	s.board = repository.NewKarmaBoard()
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = submissionqueue.NewInMemoryQueue(
		submissionqueue.WithCapacity(s.queueSize),
	)
	if s.recorder == nil {
		s.recorder = recorder.NewNoopRecorder()
	}

	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.store, s.board, s.recorder)
	s.workerPool.Start(ctx)

	if s.refreshCron != "" {
		s.refresher = scheduler.NewScheduler(ctx, s.store, s.board, s.recorder)
		if err := s.refresher.Register(s.refreshCron); err != nil {
			return err
		}
		s.refresher.Start()
	}

	s.started = true
	s.logger.Info(ctx, "valuation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping valuation service...")

	if s.refresher != nil {
		s.refresher.Stop()
	}

	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	if q, ok := s.queue.(*submissionqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	if s.recorder != nil {
		_ = s.recorder.Close()
	}

	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "valuation service stopped")
}

// SeenAndRecord atomically checks if a submission id was seen and records it
// if not. Returns true if the id was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes a submission ID from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits a guess or sale for asynchronous processing.
func (s *Service) Enqueue(ctx context.Context, sub model.Submission) bool {
	s.logger.Debug(ctx, "enqueueing submission",
		logger.String("id", sub.ID),
		logger.String("kind", string(sub.Kind)),
		logger.String("property_id", sub.PropertyID),
	)

	return s.queue.Enqueue(ctx, sub)
}

// UpsertProperty registers or updates a property's reference prices.
func (s *Service) UpsertProperty(ctx context.Context, propertyID string, official, asking *int64) error {
	return s.store.UpsertProperty(ctx, propertyID, official, asking)
}

// Valuation computes the current fair market value for a property from its
// stored guesses and reference prices.
func (s *Service) Valuation(ctx context.Context, propertyID string) (model.FMVResult, error) {
	snap, err := s.store.Snapshot(ctx, propertyID)
	if err != nil {
		return model.FMVResult{}, err
	}

	guesses := make([]model.Guess, 0, len(snap.Guesses))
	for _, g := range snap.Guesses {
		guesses = append(guesses, model.Guess{
			GuessedPrice: g.Price,
			Reputation:   s.board.Score(ctx, g.UserID),
		})
	}

	start := time.Now()
	result := valuation.ComputeFMV(guesses, snap.OfficialValue, snap.AskingPrice)
	metrics.RecordFMVComputation(float64(time.Since(start).Milliseconds()))

	return result, nil
}

// Karma returns a user's public reputation view: karma, board rank, the rank
// title and the legacy display badge. Unknown users report zero karma.
func (s *Service) Karma(ctx context.Context, userID string) (types.KarmaStatus, error) {
	karma := s.board.Score(ctx, userID)

	var rank int
	if entry, err := s.board.Rank(ctx, userID); err == nil {
		rank = entry.Rank
	}

	r := reputation.Rank(karma)
	return types.KarmaStatus{
		UserID: userID,
		Karma:  karma,
		Rank:   rank,
		Title:  r.Title,
		Level:  r.Level,
		Badge:  reputation.DisplayBadge(karma),
	}, nil
}

// TopN returns the top N leaderboard entries with their rank titles.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	entries, err := s.board.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	apiEntries := make([]types.Entry, len(entries))
	for i, entry := range entries {
		r := reputation.Rank(entry.Karma)
		apiEntries[i] = types.Entry{
			Rank:   entry.Rank,
			UserID: entry.UserID,
			Karma:  entry.Karma,
			Title:  r.Title,
			Level:  r.Level,
		}
	}

	return apiEntries, nil
}

// RefreshReputations recomputes every user's reputation immediately.
func (s *Service) RefreshReputations() {
	if s.refresher != nil {
		s.refresher.RunRefreshNow()
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		properties := s.store.PropertyCount(ctx)
		users := s.board.Count(ctx)

		stats["queueLength"] = queueLen
		stats["trackedProperties"] = properties
		stats["trackedUsers"] = users

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTrackedProperties(properties)
		metrics.UpdateTrackedUsers(users)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
