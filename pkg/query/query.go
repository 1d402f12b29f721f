package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// ErrDisabled is returned by Query.Get when the query's enabled precondition
// does not hold. No network call is made in that case.
var ErrDisabled = errors.New("query disabled: precondition not met")

// Transient retries: 3 attempts total, linear backoff in the attempt count.
const (
	retryAttempts  = 3
	retryBaseDelay = 500 * time.Millisecond
)

// Engine owns the shared cache state: the memo store and the table of
// in-flight fetches. One Engine is shared by every Query and Mutation of a
// client. Engines are safe for concurrent use; distinct keys are never
// serialized against each other.
type Engine struct {
	store Store
	log   zerolog.Logger

	mu       sync.Mutex
	inflight map[string]*inflightCall
}

// inflightCall is one upstream fetch shared by every concurrent reader of
// the same key. done is closed once value/err are settled.
type inflightCall struct {
	done  chan struct{}
	value []byte
	err   error
}

// EngineConfig configures an Engine. Both fields are optional.
type EngineConfig struct {
	// Store memoizes query results. Defaults to an in-process MemoryStore.
	Store Store
	// Logger receives cache warnings. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// NewEngine builds an Engine.
func NewEngine(cfg EngineConfig) *Engine {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}

	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	return &Engine{
		store:    store,
		log:      log,
		inflight: make(map[string]*inflightCall),
	}
}

// Invalidate drops the cached entry of one operation for one exact argument
// set.
func (e *Engine) Invalidate(ctx context.Context, op string, args any) error {
	key, err := Key(op, args)
	if err != nil {
		return err
	}
	if err := e.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("invalidate %s: %w", op, err)
	}
	invalidationsTotal.WithLabelValues(op).Inc()
	return nil
}

// InvalidateAll drops every cached entry of an operation, regardless of
// arguments. Used when the set of affected keys is only partially known.
func (e *Engine) InvalidateAll(ctx context.Context, op string) error {
	if err := e.store.DeletePrefix(ctx, Prefix(op)); err != nil {
		return fmt.Errorf("invalidate %s: %w", op, err)
	}
	invalidationsTotal.WithLabelValues(op).Inc()
	return nil
}

// QueryConfig describes the caching discipline of one read operation.
type QueryConfig[P any] struct {
	// Name identifies the operation in cache keys and metrics.
	Name string
	// Enabled gates execution: when it returns false, Get fails with
	// ErrDisabled without touching the network. Optional.
	Enabled func(P) bool
	// RetryTransient retries fetches failing with a transient (internal)
	// error, up to 3 attempts with linear backoff. No other error kind is
	// ever retried.
	RetryTransient bool
	// Transient classifies an error as retryable. Required when
	// RetryTransient is set.
	Transient func(error) bool
}

// Query is a cached read operation. Concurrent Gets for the same key share a
// single upstream call; results are memoized until invalidated.
type Query[P any, R any] struct {
	engine *Engine
	cfg    QueryConfig[P]
	fn     func(context.Context, P) (R, error)
}

// NewQuery registers a read operation on the engine.
func NewQuery[P any, R any](engine *Engine, cfg QueryConfig[P], fn func(context.Context, P) (R, error)) *Query[P, R] {
	return &Query[P, R]{engine: engine, cfg: cfg, fn: fn}
}

// Name returns the operation name of the query.
func (q *Query[P, R]) Name() string { return q.cfg.Name }

// Get returns the memoized result for params, or fetches it upstream on a
// cache miss. The fetch error is returned as-is to the caller; errors are
// never memoized.
func (q *Query[P, R]) Get(ctx context.Context, params P) (R, error) {
	var zero R

	if q.cfg.Enabled != nil && !q.cfg.Enabled(params) {
		return zero, ErrDisabled
	}

	key, err := Key(q.cfg.Name, params)
	if err != nil {
		return zero, err
	}

	cached, ok, err := q.engine.store.Get(ctx, key)
	if err != nil {
		// A broken store must not take reads down. Fall through to a fetch.
		q.engine.log.Warn().Err(err).Str("op", q.cfg.Name).Msg("query store read failed")
	}
	if ok {
		queryCacheTotal.WithLabelValues(q.cfg.Name, "hit").Inc()
		return decodeCached[R](cached)
	}

	q.engine.mu.Lock()
	if call, found := q.engine.inflight[key]; found {
		q.engine.mu.Unlock()
		queryCacheTotal.WithLabelValues(q.cfg.Name, "shared").Inc()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-call.done:
		}
		if call.err != nil {
			return zero, call.err
		}
		return decodeCached[R](call.value)
	}

	call := &inflightCall{done: make(chan struct{})}
	q.engine.inflight[key] = call
	q.engine.mu.Unlock()
	queryCacheTotal.WithLabelValues(q.cfg.Name, "miss").Inc()

	result, err := q.fetch(ctx, key, params)

	call.err = err
	if err == nil {
		call.value = result
	}

	q.engine.mu.Lock()
	delete(q.engine.inflight, key)
	q.engine.mu.Unlock()
	close(call.done)

	if err != nil {
		return zero, err
	}
	return decodeCached[R](result)
}

// fetch performs the upstream call, applying the retry policy, and memoizes
// the encoded result on success.
func (q *Query[P, R]) fetch(ctx context.Context, key string, params P) ([]byte, error) {
	start := time.Now()

	var result R
	run := func(ctx context.Context) error {
		var err error
		result, err = q.fn(ctx, params)
		if err != nil && q.cfg.RetryTransient && q.cfg.Transient != nil && q.cfg.Transient(err) {
			return retry.RetryableError(err)
		}
		return err
	}

	var err error
	if q.cfg.RetryTransient {
		err = retry.Do(ctx, retry.WithMaxRetries(retryAttempts-1, linearBackoff(retryBaseDelay)), run)
	} else {
		err = run(ctx)
	}

	if err != nil {
		queryFetchDuration.WithLabelValues(q.cfg.Name, "error").Observe(time.Since(start).Seconds())
		return nil, err
	}
	queryFetchDuration.WithLabelValues(q.cfg.Name, "success").Observe(time.Since(start).Seconds())

	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", q.cfg.Name, err)
	}
	if err := q.engine.store.Set(ctx, key, encoded); err != nil {
		// The fresh value is still good; only memoization failed.
		q.engine.log.Warn().Err(err).Str("op", q.cfg.Name).Msg("query store write failed")
	}

	return encoded, nil
}

// Invalidate marks the cached entry for params stale, forcing the next Get
// to re-fetch.
func (q *Query[P, R]) Invalidate(ctx context.Context, params P) error {
	return q.engine.Invalidate(ctx, q.cfg.Name, params)
}

// InvalidateAll marks every cached entry of this query stale.
func (q *Query[P, R]) InvalidateAll(ctx context.Context) error {
	return q.engine.InvalidateAll(ctx, q.cfg.Name)
}

// decodeCached rebuilds a typed result from its encoded memo.
func decodeCached[R any](raw []byte) (R, error) {
	var out R
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode cached result: %w", err)
	}
	return out, nil
}

// linearBackoff waits attempt*base before each retry.
func linearBackoff(base time.Duration) retry.Backoff {
	attempt := 0
	return retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return time.Duration(attempt) * base, false
	})
}
