package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/go-github/v81/github"
	"golang.org/x/time/rate"
)

// GitHub allows 10 authenticated code-search requests per rolling 60-second
// window. One token every six seconds with no burst keeps every rolling
// window at or under that budget without relying on reactive 403 handling.
const (
	searchInterval = 6 * time.Second

	// fallbackRateLimitWait is used when a rate-limit response carries no
	// usable reset time.
	fallbackRateLimitWait = 60 * time.Second

	transportAttempts = 3
	transportBackoff  = 2 * time.Second
)

// ErrUnsearchableRepository marks a repository GitHub declines to search
// (empty, or not yet indexed). Callers skip the repository and continue.
var ErrUnsearchableRepository = errors.New("repository is not searchable")

// RateLimitExceededError reports that a single request exhausted its budget
// of rate-limit waits.
type RateLimitExceededError struct {
	Waits int
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("gave up after %d rate-limit waits", e.Waits)
}

// NetworkError reports a transport failure that persisted across retries.
type NetworkError struct {
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure after %d attempts: %v", e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UnexpectedStatusError reports a non-2xx status that is neither a
// rate-limit signal nor the unsearchable-repository case.
type UnexpectedStatusError struct {
	StatusCode int
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from github", e.StatusCode)
}

func (e *UnexpectedStatusError) Unwrap() error { return e.Err }

// requestState drives the per-request retry loop in Governor.Do.
type requestState int

const (
	statePending requestState = iota
	stateWaiting
	stateSucceeded
	stateSkipped
	stateFailed
)

// Governor wraps every outbound search call. It paces requests proactively
// to stay under the code-search budget and reacts to rate-limit responses by
// sleeping until the reported reset before retrying.
type Governor struct {
	limiter  *rate.Limiter
	maxWaits int
	log      io.Writer

	// Injection points for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGovernor returns a governor allowing maxWaits rate-limit sleeps per
// request. Warnings about waits are written to log.
func NewGovernor(maxWaits int, log io.Writer) *Governor {
	if log == nil {
		log = io.Discard
	}
	return &Governor{
		limiter:  rate.NewLimiter(rate.Every(searchInterval), 1),
		maxWaits: maxWaits,
		log:      log,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Do runs call under the proactive pacer and the reactive rate-limit policy.
// It returns nil once call succeeds, ErrUnsearchableRepository on a 422,
// a *RateLimitExceededError when the wait budget runs out, a *NetworkError
// when transport retries are exhausted, or a *UnexpectedStatusError for any
// other non-2xx status.
func (g *Governor) Do(ctx context.Context, call func() error) error {
	st := statePending
	var (
		waits   int // rate-limit sleeps consumed by this request
		tries   int // failed transport attempts for this request
		wait    time.Duration
		failure error
	)

	for {
		switch st {
		case statePending:
			if err := g.limiter.Wait(ctx); err != nil {
				return err
			}
			st, wait, failure = g.transition(call(), &waits, &tries)
		case stateWaiting:
			if err := g.sleep(ctx, wait); err != nil {
				return err
			}
			st = statePending
		case stateSucceeded:
			return nil
		case stateSkipped:
			return ErrUnsearchableRepository
		case stateFailed:
			return failure
		}
	}
}

// transition classifies the outcome of one attempt and picks the next state.
func (g *Governor) transition(err error, waits, tries *int) (requestState, time.Duration, error) {
	if err == nil {
		return stateSucceeded, 0, nil
	}

	if wait, ok := RateLimitWait(err, g.now()); ok {
		return g.enterWait(wait, waits)
	}

	var er *github.ErrorResponse
	if errors.As(err, &er) {
		code := 0
		if er.Response != nil {
			code = er.Response.StatusCode
		}
		if code == http.StatusUnprocessableEntity {
			return stateSkipped, 0, nil
		}
		return stateFailed, 0, &UnexpectedStatusError{StatusCode: code, Err: err}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return stateFailed, 0, err
	}

	// Anything left is a transport-level failure; retry with a short pause.
	*tries++
	if *tries >= transportAttempts {
		return stateFailed, 0, &NetworkError{Attempts: *tries, Err: err}
	}
	fmt.Fprintf(g.log, "warning: transient network error (attempt %d/%d): %v\n", *tries, transportAttempts, err)
	return stateWaiting, transportBackoff, nil
}

func (g *Governor) enterWait(wait time.Duration, waits *int) (requestState, time.Duration, error) {
	if *waits >= g.maxWaits {
		return stateFailed, 0, &RateLimitExceededError{Waits: *waits}
	}
	*waits++
	fmt.Fprintf(g.log, "warning: rate limited by github; waiting %s before retrying (wait %d/%d)\n",
		wait.Truncate(time.Second), *waits, g.maxWaits)
	return stateWaiting, wait, nil
}

// RateLimitWait reports whether err is a rate-limit signal from GitHub and,
// if so, how long to sleep before retrying: until the reported reset, the
// Retry-After value for abuse responses, or a fixed fallback when the
// response carries no usable reset.
func RateLimitWait(err error, now time.Time) (time.Duration, bool) {
	var rl *github.RateLimitError
	if errors.As(err, &rl) {
		reset := rl.Rate.Reset.Time
		if reset.IsZero() {
			return fallbackRateLimitWait, true
		}
		if wait := reset.Sub(now); wait > 0 {
			return wait, true
		}
		return fallbackRateLimitWait, true
	}

	var abuse *github.AbuseRateLimitError
	if errors.As(err, &abuse) {
		if abuse.RetryAfter != nil && *abuse.RetryAfter > 0 {
			return *abuse.RetryAfter, true
		}
		return fallbackRateLimitWait, true
	}

	return 0, false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
