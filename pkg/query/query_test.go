package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testParams struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

type testResult struct {
	Exists bool `json:"exists"`
}

func TestQueryMemoization(t *testing.T) {
	ctx := context.Background()

	t.Run("second get is served from cache", func(t *testing.T) {
		engine := NewEngine(EngineConfig{})
		var calls atomic.Int32

		q := NewQuery(engine, QueryConfig[testParams]{Name: "credentials.email-exists"},
			func(ctx context.Context, params testParams) (testResult, error) {
				calls.Add(1)
				return testResult{Exists: true}, nil
			})

		params := testParams{Token: "t", Email: "user@email.com"}

		got, err := q.Get(ctx, params)
		require.NoError(t, err)
		assert.True(t, got.Exists)

		got, err = q.Get(ctx, params)
		require.NoError(t, err)
		assert.True(t, got.Exists)

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("distinct arguments fetch separately", func(t *testing.T) {
		engine := NewEngine(EngineConfig{})
		var calls atomic.Int32

		q := NewQuery(engine, QueryConfig[testParams]{Name: "credentials.email-exists"},
			func(ctx context.Context, params testParams) (testResult, error) {
				calls.Add(1)
				return testResult{}, nil
			})

		_, err := q.Get(ctx, testParams{Token: "t", Email: "a@email.com"})
		require.NoError(t, err)
		_, err = q.Get(ctx, testParams{Token: "t", Email: "b@email.com"})
		require.NoError(t, err)
		_, err = q.Get(ctx, testParams{Token: "other", Email: "a@email.com"})
		require.NoError(t, err)

		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("errors are not memoized", func(t *testing.T) {
		engine := NewEngine(EngineConfig{})
		var calls atomic.Int32
		boom := errors.New("boom")

		q := NewQuery(engine, QueryConfig[testParams]{Name: "credentials.email-exists"},
			func(ctx context.Context, params testParams) (testResult, error) {
				if calls.Add(1) == 1 {
					return testResult{}, boom
				}
				return testResult{Exists: true}, nil
			})

		params := testParams{Token: "t", Email: "user@email.com"}

		_, err := q.Get(ctx, params)
		require.ErrorIs(t, err, boom)

		got, err := q.Get(ctx, params)
		require.NoError(t, err)
		assert.True(t, got.Exists)
		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestQueryDisabled(t *testing.T) {
	engine := NewEngine(EngineConfig{})
	called := false

	q := NewQuery(engine, QueryConfig[testParams]{
		Name:    "credentials.email-exists",
		Enabled: func(params testParams) bool { return params.Token != "" && params.Email != "" },
	}, func(ctx context.Context, params testParams) (testResult, error) {
		called = true
		return testResult{}, nil
	})

	_, err := q.Get(context.Background(), testParams{Email: "user@email.com"})
	require.ErrorIs(t, err, ErrDisabled)
	assert.False(t, called)

	_, err = q.Get(context.Background(), testParams{Token: "t", Email: "user@email.com"})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestQueryInvalidation(t *testing.T) {
	ctx := context.Background()

	t.Run("invalidate forces a refetch", func(t *testing.T) {
		engine := NewEngine(EngineConfig{})
		var calls atomic.Int32

		q := NewQuery(engine, QueryConfig[testParams]{Name: "session.check"},
			func(ctx context.Context, params testParams) (testResult, error) {
				calls.Add(1)
				return testResult{}, nil
			})

		params := testParams{Token: "t"}

		_, err := q.Get(ctx, params)
		require.NoError(t, err)
		require.NoError(t, q.Invalidate(ctx, params))

		_, err = q.Get(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("invalidate all clears every argument set", func(t *testing.T) {
		engine := NewEngine(EngineConfig{})
		var calls atomic.Int32

		q := NewQuery(engine, QueryConfig[testParams]{Name: "session.check"},
			func(ctx context.Context, params testParams) (testResult, error) {
				calls.Add(1)
				return testResult{}, nil
			})

		_, err := q.Get(ctx, testParams{Token: "a"})
		require.NoError(t, err)
		_, err = q.Get(ctx, testParams{Token: "b"})
		require.NoError(t, err)

		require.NoError(t, q.InvalidateAll(ctx))

		_, err = q.Get(ctx, testParams{Token: "a"})
		require.NoError(t, err)
		_, err = q.Get(ctx, testParams{Token: "b"})
		require.NoError(t, err)
		assert.Equal(t, int32(4), calls.Load())
	})

	t.Run("invalidating one operation leaves others alone", func(t *testing.T) {
		engine := NewEngine(EngineConfig{})
		var checkCalls, listCalls atomic.Int32

		check := NewQuery(engine, QueryConfig[testParams]{Name: "session.check"},
			func(ctx context.Context, params testParams) (testResult, error) {
				checkCalls.Add(1)
				return testResult{}, nil
			})
		list := NewQuery(engine, QueryConfig[testParams]{Name: "users.list"},
			func(ctx context.Context, params testParams) (testResult, error) {
				listCalls.Add(1)
				return testResult{}, nil
			})

		params := testParams{Token: "t"}
		_, err := check.Get(ctx, params)
		require.NoError(t, err)
		_, err = list.Get(ctx, params)
		require.NoError(t, err)

		require.NoError(t, engine.InvalidateAll(ctx, "session.check"))

		_, err = check.Get(ctx, params)
		require.NoError(t, err)
		_, err = list.Get(ctx, params)
		require.NoError(t, err)

		assert.Equal(t, int32(2), checkCalls.Load())
		assert.Equal(t, int32(1), listCalls.Load())
	})
}

func TestQueryConcurrentDedup(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(EngineConfig{})

	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})

	q := NewQuery(engine, QueryConfig[testParams]{Name: "session.check"},
		func(ctx context.Context, params testParams) (testResult, error) {
			if calls.Add(1) == 1 {
				close(entered)
				<-release
			}
			return testResult{Exists: true}, nil
		})

	params := testParams{Token: "t"}

	var wg sync.WaitGroup
	results := make([]testResult, 5)
	errs := make([]error, 5)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = q.Get(ctx, params)
	}()

	// Wait for the first reader to own the in-flight slot before piling on.
	<-entered
	for i := 1; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = q.Get(ctx, params)
		}(i)
	}

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := range results {
		require.NoError(t, errs[i])
		assert.True(t, results[i].Exists)
	}
}

func TestQueryRetry(t *testing.T) {
	ctx := context.Background()
	transient := errors.New("transient upstream failure")

	t.Run("transient failures retried up to three attempts", func(t *testing.T) {
		engine := NewEngine(EngineConfig{})
		var calls atomic.Int32

		q := NewQuery(engine, QueryConfig[testParams]{
			Name:           "session.check",
			RetryTransient: true,
			Transient:      func(err error) bool { return errors.Is(err, transient) },
		}, func(ctx context.Context, params testParams) (testResult, error) {
			calls.Add(1)
			return testResult{}, transient
		})

		_, err := q.Get(ctx, testParams{Token: "t"})
		require.ErrorIs(t, err, transient)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("recovers when a retry succeeds", func(t *testing.T) {
		engine := NewEngine(EngineConfig{})
		var calls atomic.Int32

		q := NewQuery(engine, QueryConfig[testParams]{
			Name:           "session.check",
			RetryTransient: true,
			Transient:      func(err error) bool { return errors.Is(err, transient) },
		}, func(ctx context.Context, params testParams) (testResult, error) {
			if calls.Add(1) == 1 {
				return testResult{}, transient
			}
			return testResult{Exists: true}, nil
		})

		got, err := q.Get(ctx, testParams{Token: "t"})
		require.NoError(t, err)
		assert.True(t, got.Exists)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("non-transient failures are not retried", func(t *testing.T) {
		engine := NewEngine(EngineConfig{})
		var calls atomic.Int32
		fatal := errors.New("bad request")

		q := NewQuery(engine, QueryConfig[testParams]{
			Name:           "session.check",
			RetryTransient: true,
			Transient:      func(err error) bool { return errors.Is(err, transient) },
		}, func(ctx context.Context, params testParams) (testResult, error) {
			calls.Add(1)
			return testResult{}, fatal
		})

		_, err := q.Get(ctx, testParams{Token: "t"})
		require.ErrorIs(t, err, fatal)
		assert.Equal(t, int32(1), calls.Load())
	})
}

// failingStore breaks on every operation, so reads must fall through to the
// upstream fetch.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store down")
}
func (failingStore) Set(context.Context, string, []byte) error { return errors.New("store down") }
func (failingStore) Delete(context.Context, string) error      { return errors.New("store down") }
func (failingStore) DeletePrefix(context.Context, string) error {
	return errors.New("store down")
}

func TestQueryBrokenStoreStillServes(t *testing.T) {
	engine := NewEngine(EngineConfig{Store: failingStore{}})
	var calls atomic.Int32

	q := NewQuery(engine, QueryConfig[testParams]{Name: "session.check"},
		func(ctx context.Context, params testParams) (testResult, error) {
			calls.Add(1)
			return testResult{Exists: true}, nil
		})

	got, err := q.Get(context.Background(), testParams{Token: "t"})
	require.NoError(t, err)
	assert.True(t, got.Exists)

	// Nothing was memoized, so the next read fetches again.
	_, err = q.Get(context.Background(), testParams{Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
