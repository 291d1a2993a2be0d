// Package scheduler runs the periodic reputation refresh. The worker path
// keeps scores current as sales arrive; the refresh is a safety net that
// rebuilds every user's score from their full resolved history.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/plotcrowd/fairval/internal/domain/model"
	"github.com/plotcrowd/fairval/internal/domain/reputation"
	"github.com/plotcrowd/fairval/pkg/logger"
	"github.com/plotcrowd/fairval/pkg/metrics"
)

// Store is the slice of the property store the refresh needs.
type Store interface {
	UserIDs(ctx context.Context) []string
	ResolvedHistory(ctx context.Context, userID string) (model.ResolvedHistory, error)
}

// Board receives recomputed karma scores.
type Board interface {
	SetScore(ctx context.Context, userID string, karma int) error
}

// Recorder receives recomputed reputations for the audit trail.
type Recorder interface {
	RecordReputation(ctx context.Context, userID string, result model.ReputationResult) error
}

// Scheduler manages the cron-driven refresh.
type Scheduler struct {
	cron     *cron.Cron
	store    Store
	board    Board
	recorder Recorder
	ctx      context.Context
	logger   logger.Logger
}

// NewScheduler creates a scheduler bound to the given stores.
func NewScheduler(ctx context.Context, store Store, board Board, recorder Recorder) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		store:    store,
		board:    board,
		recorder: recorder,
		ctx:      ctx,
		logger:   logger.Get().Named("scheduler"),
	}
}

// Register schedules the reputation refresh on the given cron expression
// (six fields, seconds first).
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register reputation refresh: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info(s.ctx, "scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info(s.ctx, "scheduler stopped")
}

// RunRefreshNow executes the refresh immediately.
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	start := time.Now()
	users := s.store.UserIDs(s.ctx)
	s.logger.Info(s.ctx, "running reputation refresh", logger.Int("users", len(users)))

	var failed int
	for _, userID := range users {
		if err := s.refreshUser(userID); err != nil {
			failed++
			s.logger.Error(s.ctx, "reputation refresh failed",
				logger.String("user_id", userID),
				logger.Error(err),
			)
		}
	}

	metrics.RecordReputationRefresh()
	s.logger.Info(s.ctx, "reputation refresh finished",
		logger.Int("users", len(users)),
		logger.Int("failed", failed),
		logger.Duration("took", time.Since(start)),
	)
}

func (s *Scheduler) refreshUser(userID string) error {
	history, err := s.store.ResolvedHistory(s.ctx, userID)
	if err != nil {
		return fmt.Errorf("resolved history: %w", err)
	}

	result := reputation.Compute(history)
	if err := s.board.SetScore(s.ctx, userID, result.PublicScore); err != nil {
		return fmt.Errorf("karma board update: %w", err)
	}
	metrics.RecordKarmaBoardUpdate()

	if err := s.recorder.RecordReputation(s.ctx, userID, result); err != nil {
		s.logger.Warn(s.ctx, "recording reputation failed",
			logger.String("user_id", userID),
			logger.Error(err),
		)
	}
	return nil
}
