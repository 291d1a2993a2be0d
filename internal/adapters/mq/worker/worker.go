// Package worker drains the ingestion queue and drives the valuation and
// reputation engines against the stores.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/plotcrowd/fairval/internal/adapters/repository"
	"github.com/plotcrowd/fairval/internal/domain/model"
	"github.com/plotcrowd/fairval/internal/domain/reputation"
	"github.com/plotcrowd/fairval/internal/domain/valuation"
	"github.com/plotcrowd/fairval/pkg/logger"
	"github.com/plotcrowd/fairval/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Submission abstracts what workers read off the queue.
type Submission = model.Submission

// Store is the slice of the property store the workers need.
type Store interface {
	AddGuess(ctx context.Context, row repository.GuessRow) error
	RecordSale(ctx context.Context, propertyID string, price int64, at time.Time) ([]string, error)
	Snapshot(ctx context.Context, propertyID string) (repository.PropertySnapshot, error)
	ResolvedHistory(ctx context.Context, userID string) (model.ResolvedHistory, error)
}

// Board is the slice of the karma board the workers need.
type Board interface {
	SetScore(ctx context.Context, userID string, karma int) error
	Score(ctx context.Context, userID string) int
}

// Recorder receives computed results for the audit trail.
type Recorder interface {
	RecordValuation(ctx context.Context, propertyID string, result model.FMVResult) error
	RecordReputation(ctx context.Context, userID string, result model.ReputationResult) error
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Submission
}

// Worker processes submissions until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing submissions.
type InMemoryWorker struct {
	queue    Queue
	store    Store
	board    Board
	recorder Recorder
	name     string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, store Store, board Board, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		store:    store,
		board:    board,
		recorder: recorder,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	subs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case sub, ok := <-subs:
			if !ok {
				return
			}
			if err := w.process(ctx, sub); err != nil {
				w.logger.Error(ctx, "error processing submission",
					logger.String("submission_id", sub.ID),
					logger.String("kind", string(sub.Kind)),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process routes one submission to the guess or sale path.
func (w *InMemoryWorker) process(ctx context.Context, sub Submission) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	switch sub.Kind {
	case model.SubmissionGuess:
		return w.processGuess(ctx, sub)
	case model.SubmissionSale:
		return w.processSale(ctx, sub)
	default:
		metrics.RecordWorkerError()
		return fmt.Errorf("unknown submission kind %q", sub.Kind)
	}
}

// processGuess meme-flags and stores a guess, then refreshes the property's
// fair market value.
func (w *InMemoryWorker) processGuess(ctx context.Context, sub Submission) error {
	// The guess may target a property we have never seen; it then carries
	// no official value and cannot be meme-flagged.
	var official *int64
	if snap, err := w.store.Snapshot(ctx, sub.PropertyID); err == nil {
		official = snap.OfficialValue
	} else if !errors.Is(err, repository.ErrUnknownProperty) {
		metrics.RecordWorkerError()
		return fmt.Errorf("snapshot before guess: %w", err)
	}

	meme := reputation.IsMeme(sub.Price, official)
	if meme {
		metrics.RecordMemeGuess()
		w.logger.Info(ctx, "guess flagged as meme",
			logger.String("property_id", sub.PropertyID),
			logger.String("user_id", sub.UserID),
			logger.Int64("price", sub.Price),
		)
	}

	row := repository.GuessRow{
		ID:         sub.ID,
		PropertyID: sub.PropertyID,
		UserID:     sub.UserID,
		Price:      sub.Price,
		Meme:       meme,
		Submitted:  sub.TS,
	}
	if err := w.store.AddGuess(ctx, row); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordSubmissionFailed(string(sub.Kind), "store")
		return fmt.Errorf("store guess %s: %w", sub.ID, err)
	}

	return w.refreshValuation(ctx, sub.PropertyID)
}

// processSale records a sale and recomputes the reputation of every user
// whose guess on the property just became resolved.
func (w *InMemoryWorker) processSale(ctx context.Context, sub Submission) error {
	affected, err := w.store.RecordSale(ctx, sub.PropertyID, sub.Price, sub.TS)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordSubmissionFailed(string(sub.Kind), "unknown_property")
		return fmt.Errorf("record sale for %s: %w", sub.PropertyID, err)
	}
	metrics.RecordSaleRecorded()

	for _, userID := range affected {
		if err := w.refreshReputation(ctx, userID); err != nil {
			w.logger.Error(ctx, "reputation refresh failed",
				logger.String("user_id", userID),
				logger.Error(err),
			)
		}
	}
	return nil
}

// refreshValuation recomputes and records the property's fair market value
// from the current guess set.
func (w *InMemoryWorker) refreshValuation(ctx context.Context, propertyID string) error {
	snap, err := w.store.Snapshot(ctx, propertyID)
	if err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("snapshot %s: %w", propertyID, err)
	}

	guesses := make([]model.Guess, 0, len(snap.Guesses))
	for _, g := range snap.Guesses {
		guesses = append(guesses, model.Guess{
			GuessedPrice: g.Price,
			Reputation:   w.board.Score(ctx, g.UserID),
		})
	}

	start := time.Now()
	result := valuation.ComputeFMV(guesses, snap.OfficialValue, snap.AskingPrice)
	metrics.RecordFMVComputation(float64(time.Since(start).Milliseconds()))

	if err := w.recorder.RecordValuation(ctx, propertyID, result); err != nil {
		w.logger.Warn(ctx, "recording valuation failed",
			logger.String("property_id", propertyID),
			logger.Error(err),
		)
	}
	return nil
}

// refreshReputation recomputes a user's reputation from their resolved
// history and publishes the public score to the karma board.
func (w *InMemoryWorker) refreshReputation(ctx context.Context, userID string) error {
	history, err := w.store.ResolvedHistory(ctx, userID)
	if err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("resolved history for %s: %w", userID, err)
	}

	start := time.Now()
	result := reputation.Compute(history)
	metrics.RecordKarmaComputation(float64(time.Since(start).Milliseconds()))

	if err := w.board.SetScore(ctx, userID, result.PublicScore); err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("karma board update for %s: %w", userID, err)
	}
	metrics.RecordKarmaBoardUpdate()

	if err := w.recorder.RecordReputation(ctx, userID, result); err != nil {
		w.logger.Warn(ctx, "recording reputation failed",
			logger.String("user_id", userID),
			logger.Error(err),
		)
	}
	return nil
}

// Pool manages multiple workers draining the same queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, store Store, board Board, recorder Recorder) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			store,
			board,
			recorder,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, worker := range p.workers {
		select {
		case <-worker.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new submissions.
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
