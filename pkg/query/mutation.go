package query

import (
	"context"
	"time"
)

// Invalidation is a cache-invalidation action declared by a mutation. It
// runs after the mutation completes successfully, with the form that
// triggered it, so targeted invalidations can derive the affected keys.
type Invalidation[F any] func(ctx context.Context, form F) error

// MutationConfig describes one write operation.
type MutationConfig[F any] struct {
	// Name identifies the operation in metrics.
	Name string
	// OnSuccess lists the invalidations to run after a successful write.
	OnSuccess []Invalidation[F]
}

// Mutation is a write operation. Results are never memoized; successful
// writes trigger the declared invalidations so the next read re-fetches
// fresh truth.
type Mutation[F any, R any] struct {
	engine *Engine
	cfg    MutationConfig[F]
	fn     func(context.Context, F) (R, error)
}

// NewMutation registers a write operation on the engine.
func NewMutation[F any, R any](engine *Engine, cfg MutationConfig[F], fn func(context.Context, F) (R, error)) *Mutation[F, R] {
	return &Mutation[F, R]{engine: engine, cfg: cfg, fn: fn}
}

// Name returns the operation name of the mutation.
func (m *Mutation[F, R]) Name() string { return m.cfg.Name }

// Do executes the write. Failures are returned untouched and trigger no
// invalidation. Invalidations run causally after the write completes; when
// one fails, the stale entries simply expire or get overwritten later, so
// the error is logged rather than surfaced.
func (m *Mutation[F, R]) Do(ctx context.Context, form F) (R, error) {
	start := time.Now()

	result, err := m.fn(ctx, form)
	if err != nil {
		mutationsTotal.WithLabelValues(m.cfg.Name, "error").Inc()
		return result, err
	}
	mutationsTotal.WithLabelValues(m.cfg.Name, "success").Inc()

	for _, invalidate := range m.cfg.OnSuccess {
		if err := invalidate(ctx, form); err != nil {
			m.engine.log.Warn().
				Err(err).
				Str("op", m.cfg.Name).
				Dur("elapsed", time.Since(start)).
				Msg("mutation invalidation failed")
		}
	}

	return result, nil
}
