package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rookgm/foodorder/internal/logger"
	"go.uber.org/zap"
)

const defaultInterval = 30 * time.Second

type OrderService interface {
	ReconcilePayments(ctx context.Context, orderCh <-chan uuid.UUID)
	QueueAwaitingPayments(ctx context.Context, orderCh chan<- uuid.UUID) error
}

// PaymentReconciler is worker that verifies payments of orders the client stopped polling
type PaymentReconciler struct {
	svc      OrderService
	interval time.Duration
}

// NewPaymentReconciler create new payment reconciler
func NewPaymentReconciler(svc OrderService, interval time.Duration) *PaymentReconciler {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &PaymentReconciler{svc: svc, interval: interval}
}

// Run queues awaiting orders every interval until ctx is done
func (pr *PaymentReconciler) Run(ctx context.Context) {
	orders := make(chan uuid.UUID, 10)

	done := make(chan struct{})
	go func() {
		defer close(done)
		pr.svc.ReconcilePayments(ctx, orders)
	}()

	ticker := time.NewTicker(pr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			<-done
			logger.Log.Debug("payment reconciler is done")
			return
		case <-ticker.C:
			if err := pr.svc.QueueAwaitingPayments(ctx, orders); err != nil && ctx.Err() == nil {
				logger.Log.Error("queue awaiting payments", zap.Error(err))
			}
		}
	}
}
