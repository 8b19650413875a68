package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jsm-masala/storefront/internal/domain"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotifierClosed = errors.New("notifier closed")
	ErrNotifierBusy   = errors.New("notification queue full")
)

type Notifier interface {
	Send(ctx context.Context, email domain.Email) error
}

type asyncJob struct {
	ctx   context.Context
	email domain.Email
}

// AsyncNotifier queues emails for a fixed set of workers so Send never
// waits on the wrapped notifier. Close drains what is already queued.
type AsyncNotifier struct {
	next Notifier
	jobs chan asyncJob
	log  *slog.Logger

	mu     sync.RWMutex
	closed bool
	g      errgroup.Group
}

func NewAsyncNotifier(next Notifier, workers, buffer int, log *slog.Logger) *AsyncNotifier {
	if workers < 1 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}

	n := &AsyncNotifier{
		next: next,
		jobs: make(chan asyncJob, buffer),
		log:  log.With("component", "async-notifier"),
	}
	for i := 0; i < workers; i++ {
		n.g.Go(n.work)
	}
	return n
}

func (n *AsyncNotifier) work() error {
	for job := range n.jobs {
		if err := n.next.Send(job.ctx, job.email); err != nil {
			n.log.Error("notification failed",
				"order_id", job.email.OrderID, "user_id", job.email.UserID, "subject", job.email.Subject, "err", err)
		}
	}
	return nil
}

// Send enqueues the email and returns immediately. The caller's
// cancellation does not reach the queued delivery.
func (n *AsyncNotifier) Send(ctx context.Context, email domain.Email) error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return ErrNotifierClosed
	}
	select {
	case n.jobs <- asyncJob{ctx: context.WithoutCancel(ctx), email: email}:
		return nil
	default:
		return fmt.Errorf("%w: dropping email for order %s", ErrNotifierBusy, email.OrderID)
	}
}

// Close stops accepting emails and waits for queued ones until ctx ends.
func (n *AsyncNotifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.jobs)
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = n.g.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notifier drain: %w", ctx.Err())
	}
}
