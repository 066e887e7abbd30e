package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	mu         sync.Mutex
	queue      []uuid.UUID
	queueErr   error
	queued     int
	reconciled []uuid.UUID
}

func (f *fakeService) ReconcilePayments(ctx context.Context, orderCh <-chan uuid.UUID) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-orderCh:
			f.mu.Lock()
			f.reconciled = append(f.reconciled, id)
			f.mu.Unlock()
		}
	}
}

func (f *fakeService) QueueAwaitingPayments(ctx context.Context, orderCh chan<- uuid.UUID) error {
	f.mu.Lock()
	ids := f.queue
	f.queue = nil
	f.queued++
	err := f.queueErr
	f.mu.Unlock()

	for _, id := range ids {
		orderCh <- id
	}
	return err
}

func (f *fakeService) snapshot() (int, []uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queued, append([]uuid.UUID(nil), f.reconciled...)
}

func TestPaymentReconciler_Run(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	svc := &fakeService{queue: ids, queueErr: errors.New("temporary")}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		NewPaymentReconciler(svc, 10*time.Millisecond).Run(ctx)
	}()

	assert.Eventually(t, func() bool {
		queued, reconciled := svc.snapshot()
		return queued >= 2 && len(reconciled) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}

	_, reconciled := svc.snapshot()
	assert.ElementsMatch(t, ids, reconciled)
}
