package parser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/scorecache/internal/indexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
		Multiplier:  2,
	}
}

func TestRetryWithBackoff(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		got, err := retryWithBackoff(context.Background(), fastRetry(), func() (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("connection reset")
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		_, err := retryWithBackoff(context.Background(), fastRetry(), func() (int, error) {
			calls++
			return 0, errors.New("unavailable")
		})
		require.EqualError(t, err, "unavailable")
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent errors stop at once", func(t *testing.T) {
		calls := 0
		notFound := errors.New("not found")
		_, err := retryWithBackoff(context.Background(), fastRetry(), func() (int, error) {
			calls++
			return 0, permanent(notFound)
		})
		assert.ErrorIs(t, err, notFound)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := retryWithBackoff(ctx, fastRetry(), func() (int, error) {
			return 0, errors.New("unavailable")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("zero config tries once", func(t *testing.T) {
		calls := 0
		_, err := retryWithBackoff(context.Background(), RetryConfig{}, func() (int, error) {
			calls++
			return 0, errors.New("unavailable")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestDerive_NetworkRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/flaky.abc":
			if hits.Add(1) < 3 {
				http.Error(w, "busy", http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(reelsABC))
		default:
			hits.Add(1)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := New("")
	p.Retry = fastRetry()

	derived, err := p.Derive(context.Background(), srv.URL+"/flaky.abc", indexer.DeriveOptions{})
	require.NoError(t, err)
	assert.Len(t, derived, 2)
	assert.Equal(t, int32(3), hits.Load())

	hits.Store(0)
	_, err = p.Derive(context.Background(), srv.URL+"/gone.abc", indexer.DeriveOptions{})
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load(), "404 is not retried")
}
