package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"podcaster/internal/logging"
)

// complete sends payload, retrying rate limits, server errors, timeouts and
// empty answers with exponential backoff.
func (c *Client) complete(ctx context.Context, op string, payload chatCompletionRequest) (string, error) {
	attempts := max(c.retry.attempts, 1)
	var err error
	for attempt := 1; ; attempt++ {
		var content string
		content, err = c.send(ctx, op, payload)
		if err == nil {
			return content, nil
		}
		if attempt >= attempts || ctx.Err() != nil {
			break
		}
		delay, ok := c.retryAfter(err, attempt)
		if !ok {
			return "", err
		}
		c.logger.Debug("llm request retry",
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return "", sleepErr
		}
	}
	if attempts == 1 {
		return "", err
	}
	return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, err)
}

// retryAfter classifies err and returns the wait before the next attempt.
func (c *Client) retryAfter(err error, attempt int) (time.Duration, bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode
		if code != http.StatusRequestTimeout && code != http.StatusTooManyRequests && code < http.StatusInternalServerError {
			return 0, false
		}
		if statusErr.RetryAfter > 0 {
			return min(statusErr.RetryAfter, c.maxDelay()), true
		}
		return c.backoffDelay(attempt), true
	}

	var emptyErr *emptyContentError
	var netErr net.Error
	if errors.As(err, &emptyErr) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return c.backoffDelay(attempt), true
	}
	return 0, false
}

// backoffDelay doubles from the base delay per attempt, capped at the max
// delay: attempt 1 waits base, attempt 2 waits 2*base.
func (c *Client) backoffDelay(attempt int) time.Duration {
	if c.retry.base <= 0 {
		return 0
	}
	delay := c.retry.base
	for i := 1; i < attempt && delay < c.maxDelay(); i++ {
		delay *= 2
	}
	return min(delay, c.maxDelay())
}

func (c *Client) maxDelay() time.Duration {
	if c.retry.max > 0 {
		return c.retry.max
	}
	return defaultRetryMaxDelay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if c.retry.sleeper != nil {
		c.retry.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseRetryAfter accepts both delta-seconds and HTTP-date forms.
func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, seconds >= 0
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay > 0 {
			return delay, true
		}
	}
	return 0, false
}
