package gitlab

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// RetryPolicy bounds the retries of transient HTTP failures. Only responses
// whose status is in RetryableStatuses are retried; transport errors are not.
type RetryPolicy struct {
	MaxAttempts       int
	Delay             time.Duration
	RetryableStatuses map[int]struct{}
}

// NewRetryPolicy retries 429 and every 5xx status, waiting delay between attempts.
func NewRetryPolicy(maxAttempts int, delay time.Duration) RetryPolicy {
	statuses := map[int]struct{}{http.StatusTooManyRequests: {}}
	for code := http.StatusInternalServerError; code <= 599; code++ {
		statuses[code] = struct{}{}
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryPolicy{
		MaxAttempts:       maxAttempts,
		Delay:             delay,
		RetryableStatuses: statuses,
	}
}

// RetryMax is the number of retries after the first attempt.
func (p RetryPolicy) RetryMax() int {
	return p.MaxAttempts - 1
}

// CheckRetry implements retryablehttp.CheckRetry.
func (p RetryPolicy) CheckRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err != nil || resp == nil {
		return false, nil
	}
	_, retryable := p.RetryableStatuses[resp.StatusCode]
	return retryable, nil
}

// Backoff implements retryablehttp.Backoff with a fixed delay.
func (p RetryPolicy) Backoff(_, _ time.Duration, _ int, _ *http.Response) time.Duration {
	return p.Delay
}

// Apply configures client to follow the policy.
func (p RetryPolicy) Apply(client *retryablehttp.Client) {
	client.RetryMax = p.RetryMax()
	client.CheckRetry = p.CheckRetry
	client.Backoff = p.Backoff
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
}
