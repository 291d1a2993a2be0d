// Package dedupe defines the interface for idempotency tracking of
// submission IDs.
package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets the maximum number of IDs to keep in memory.
// maxSize > 0 enables FIFO eviction once full; maxSize <= 0 disables
// eviction (unbounded).
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}
