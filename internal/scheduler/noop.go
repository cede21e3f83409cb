package scheduler

import (
	"context"

	"github.com/google/uuid"
)

// Noop is the null-object Scheduler selected when no scheduler token is
// configured. Publish hands back a synthetic message id so calling code
// keeps its cancellation bookkeeping; nothing is ever delivered.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (*Noop) Publish(_ context.Context, _ string, _ []byte, _ PublishOptions) (string, error) {
	return "noop-" + uuid.NewString(), nil
}

func (*Noop) Cancel(context.Context, string) error { return nil }
