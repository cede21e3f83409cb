package scheduler

import (
	"context"
	"errors"
)

// ErrUnavailable tags scheduler failures the caller may retry. Losing a
// reminder is product-visible, so unlike store writes these surface.
var ErrUnavailable = errors.New("scheduler unavailable")

// PublishOptions selects exactly one scheduling mode. DelaySeconds enqueues
// a one-shot delivery; Cron enqueues a recurring one. RetryCount is the
// scheduler's maximum delivery attempts; delivery is at-least-once and
// consumers must tolerate duplicate triggers.
type PublishOptions struct {
	DelaySeconds int
	Cron         string
	RetryCount   int
}

// Scheduler is the remote delayed/recurring delivery capability. It POSTs
// the body to the URL at the requested time(s). No timers are run locally.
type Scheduler interface {
	// Publish enqueues a delivery and returns the scheduler's message id,
	// the only handle capable of cancelling the job.
	Publish(ctx context.Context, url string, body []byte, opts PublishOptions) (string, error)
	// Cancel deletes a scheduled job by message id.
	Cancel(ctx context.Context, messageID string) error
}
