// Package recorder persists computed valuations and reputation scores for
// offline analysis. The in-memory stores are authoritative; the recorder is
// an append-only audit trail.
package recorder

import (
	"context"

	"github.com/plotcrowd/fairval/internal/domain/model"
)

// Recorder persists engine outputs as they are produced.
type Recorder interface {
	// RecordValuation appends a computed fair market value for a property.
	RecordValuation(ctx context.Context, propertyID string, result model.FMVResult) error

	// RecordReputation appends a recomputed reputation for a user.
	RecordReputation(ctx context.Context, userID string, result model.ReputationResult) error

	// Close releases any underlying resources.
	Close() error
}

// NoopRecorder discards everything. Used when no recorder path is configured.
type NoopRecorder struct{}

// NewNoopRecorder returns a recorder that drops all writes.
func NewNoopRecorder() *NoopRecorder {
	return &NoopRecorder{}
}

// RecordValuation implements Recorder.
func (n *NoopRecorder) RecordValuation(_ context.Context, _ string, _ model.FMVResult) error {
	return nil
}

// RecordReputation implements Recorder.
func (n *NoopRecorder) RecordReputation(_ context.Context, _ string, _ model.ReputationResult) error {
	return nil
}

// Close implements Recorder.
func (n *NoopRecorder) Close() error { return nil }
