package github

import (
	"context"
	"errors"
	"time"

	"github.com/sumitmalik51/gitsecureops/logger"
)

const (
	// PerPage is the fixed page size for every list endpoint.
	PerPage = 100

	maxPageAttempts = 3
	backoffBase     = 500 * time.Millisecond
	maxResetWait    = 2 * time.Minute
)

// PageFunc fetches one page of a list endpoint. Implementations are
// provided per endpoint by the client, which keeps endpoint quirks (the
// Copilot seat envelope, bare arrays, search envelopes) out of the walk
// logic.
type PageFunc[T any] func(ctx context.Context, page, perPage int) ([]T, error)

// FetchAllPages walks a list endpoint page by page until a short page
// signals exhaustion. Pages are requested strictly in order, so item
// order is the server's. Transient failures retry the same page with
// exponential backoff up to maxPageAttempts; rate-limit failures wait
// for the reset before counting as an attempt's retry. Auth and scope
// failures propagate immediately.
func FetchAllPages[T any](ctx context.Context, log logger.Logger, fetch PageFunc[T]) ([]T, error) {
	var all []T

	for page := 1; ; page++ {
		items, err := fetchPageWithRetry(ctx, log, fetch, page)
		if err != nil {
			return nil, err
		}

		all = append(all, items...)

		if len(items) < PerPage {
			break
		}
	}

	return all, nil
}

func fetchPageWithRetry[T any](ctx context.Context, log logger.Logger, fetch PageFunc[T], page int) ([]T, error) {
	var lastErr error

	for attempt := 0; attempt < maxPageAttempts; attempt++ {
		if attempt > 0 {
			if err := backoff(ctx, log, lastErr, attempt); err != nil {
				return nil, lastErr
			}
		}

		items, err := fetch(ctx, page, PerPage)
		if err == nil {
			return items, nil
		}

		if !Retryable(err) {
			return nil, err
		}

		log.Warn("page fetch failed, may retry", "page", page, "attempt", attempt+1, "err", err.Error())
		lastErr = err
	}

	return nil, lastErr
}

// backoff sleeps before the next attempt: until the reported reset for
// rate-limit failures (capped), exponentially otherwise.
func backoff(ctx context.Context, log logger.Logger, lastErr error, attempt int) error {
	delay := backoffBase << (attempt - 1)

	var rateErr *RateLimitedError
	if errors.As(lastErr, &rateErr) {
		wait := time.Until(rateErr.ResetAt)
		if wait > maxResetWait {
			wait = maxResetWait
		}
		if wait > delay {
			delay = wait
		}
		log.Info("waiting for rate limit reset", "wait", delay.String())
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
