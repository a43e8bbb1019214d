//go:build unit

package gitlab_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/repoaudit/internal/infrastructure/repositories/gitlab"
)

func TestRetryPolicy(t *testing.T) {
	t.Parallel()

	t.Run("should retry throttling and server errors only", func(t *testing.T) {
		t.Parallel()

		// given
		policy := gitlab.NewRetryPolicy(3, time.Second)
		cases := map[int]bool{
			http.StatusOK:                  false,
			http.StatusNotFound:            false,
			http.StatusForbidden:           false,
			http.StatusTooManyRequests:     true,
			http.StatusInternalServerError: true,
			http.StatusBadGateway:          true,
			599:                            true,
		}

		for status, expected := range cases {
			// when
			retry, err := policy.CheckRetry(context.Background(), &http.Response{StatusCode: status}, nil)

			// then
			require.NoError(t, err)
			assert.Equal(t, expected, retry, "status %d", status)
		}
	})

	t.Run("should not retry transport errors", func(t *testing.T) {
		t.Parallel()

		// given
		policy := gitlab.NewRetryPolicy(3, time.Second)

		// when
		retry, err := policy.CheckRetry(context.Background(), nil, errors.New("connection refused"))

		// then
		require.NoError(t, err)
		assert.False(t, retry)
	})

	t.Run("should stop when the context is done", func(t *testing.T) {
		t.Parallel()

		// given
		policy := gitlab.NewRetryPolicy(3, time.Second)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// when
		retry, err := policy.CheckRetry(ctx, &http.Response{StatusCode: http.StatusBadGateway}, nil)

		// then
		require.ErrorIs(t, err, context.Canceled)
		assert.False(t, retry)
	})

	t.Run("should wait the fixed delay and allow attempts minus one retries", func(t *testing.T) {
		t.Parallel()

		// given
		policy := gitlab.NewRetryPolicy(3, 2*time.Second)

		// when
		wait := policy.Backoff(time.Millisecond, time.Hour, 5, nil)

		// then
		assert.Equal(t, 2*time.Second, wait)
		assert.Equal(t, 2, policy.RetryMax())
	})

	t.Run("should always allow at least one attempt", func(t *testing.T) {
		t.Parallel()

		// given
		policy := gitlab.NewRetryPolicy(0, 0)

		// when
		retries := policy.RetryMax()

		// then
		assert.Equal(t, 0, retries)
	})
}
