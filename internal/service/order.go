package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rookgm/foodorder/internal/logger"
	"github.com/rookgm/foodorder/internal/models"
	"github.com/rookgm/foodorder/internal/payments"
	"go.uber.org/zap"
)

const (
	defaultCancelWindow   = time.Minute
	defaultReconcileAge   = 30 * time.Second
	defaultReconcileBatch = 100
	// longest listing window in days
	maxListDays = 3650
	// notification lifetime in minutes
	notificationTTL = 60
)

// OrderRepository is interface for interacting with order-related data
type OrderRepository interface {
	// CreateOrder inserts order with its items
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	// GetOrder returns order with items
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	// TransitionStatus moves order to `to` only from one of `from`
	TransitionStatus(ctx context.Context, orderID uuid.UUID, from []models.OrderStatus, to models.OrderStatus) (bool, error)
	// RecordPaymentPlaced moves pending order to paid and sets placed time
	RecordPaymentPlaced(ctx context.Context, orderID uuid.UUID, at time.Time) (bool, error)
	// RecordCompletion completes paid order of restaurant
	RecordCompletion(ctx context.Context, orderID, restaurantID uuid.UUID, at time.Time) (uuid.UUID, bool, error)
	CancelByUser(ctx context.Context, orderID, userID uuid.UUID, placedAfter time.Time) (bool, error)
	CancelByRestaurant(ctx context.Context, orderID, restaurantID uuid.UUID) (uuid.UUID, bool, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.Order, error)
	ListOrdersByRestaurant(ctx context.Context, restaurantID uuid.UUID, since time.Time) ([]models.Order, error)
	ListPendingByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListPendingByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.Order, error)
	UserWaitStats(ctx context.Context, userID uuid.UUID) (models.WaitStats, error)
	// ListAwaitingPayment returns pending orders with a session older than olderThan
	ListAwaitingPayment(ctx context.Context, olderThan time.Time, limit int) ([]uuid.UUID, error)
}

// CatalogRepository resolves requested items to catalog prices
type CatalogRepository interface {
	ResolveItems(ctx context.Context, restaurantID uuid.UUID, requested []models.RequestedItem) ([]models.ResolvedItem, error)
}

// PaymentRepository stores payment sessions
type PaymentRepository interface {
	GetSession(ctx context.Context, orderID uuid.UUID) (*models.PaymentSession, error)
	ClaimSession(ctx context.Context, session *models.PaymentSession) (*models.PaymentSession, bool, error)
	AttachRedirect(ctx context.Context, orderID uuid.UUID, url string) (bool, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, state models.PaymentState) error
}

// MerchantRepository reads restaurant payment credentials
type MerchantRepository interface {
	GetMerchantCredentials(ctx context.Context, restaurantID uuid.UUID) (*models.MerchantCredentials, error)
}

// Transactor runs fn in a single database transaction
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PaymentGateway talks to the restaurant's payment provider
type PaymentGateway interface {
	CreateSession(ctx context.Context, req payments.SessionRequest, creds models.MerchantCredentials) (payments.SessionHandle, error)
	VerifyStatus(ctx context.Context, txnID string, creds models.MerchantCredentials) (models.PaymentState, error)
}

// Notifier delivers notifications to users
type Notifier interface {
	Notify(ctx context.Context, senderID, recipientID *uuid.UUID, title, body string, ttlMinutes int) error
}

// Repositories groups storage dependencies of OrderService
type Repositories struct {
	Tx        Transactor
	Orders    OrderRepository
	Catalog   CatalogRepository
	Payments  PaymentRepository
	Merchants MerchantRepository
}

// OrderOptions configures OrderService
type OrderOptions struct {
	CancelWindow time.Duration
	// RedirectURL is where the provider sends the payer back
	RedirectURL string
	// CallbackURL receives provider server-to-server notifications
	CallbackURL string
	// ReconcileAge is the minimum session age picked up by the reconciler
	ReconcileAge   time.Duration
	ReconcileBatch int
}

// OrderService implements order lifecycle
type OrderService struct {
	repos    Repositories
	gateway  PaymentGateway
	notifier Notifier
	opts     OrderOptions
	now      func() time.Time
}

// NewOrderService creates new OrderService instance
func NewOrderService(repos Repositories, gateway PaymentGateway, notifier Notifier, opts OrderOptions) *OrderService {
	if opts.CancelWindow <= 0 {
		opts.CancelWindow = defaultCancelWindow
	}
	if opts.ReconcileAge <= 0 {
		opts.ReconcileAge = defaultReconcileAge
	}
	if opts.ReconcileBatch <= 0 {
		opts.ReconcileBatch = defaultReconcileBatch
	}

	return &OrderService{
		repos:    repos,
		gateway:  gateway,
		notifier: notifier,
		opts:     opts,
		now:      time.Now,
	}
}

// PlaceOrder creates order priced from the catalog and opens its payment session
func (os *OrderService) PlaceOrder(ctx context.Context, userID, restaurantID uuid.UUID, items []models.RequestedItem) (*models.Order, error) {
	if len(items) == 0 {
		return nil, models.ErrEmptyOrder
	}
	for _, item := range items {
		if item.Quantity <= 0 || item.Quantity > models.MaxItemQuantity {
			return nil, fmt.Errorf("%w: item %s", models.ErrInvalidQuantity, item.ItemID)
		}
	}

	var (
		order *models.Order
		creds *models.MerchantCredentials
	)
	err := os.repos.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		creds, err = os.repos.Merchants.GetMerchantCredentials(ctx, restaurantID)
		if err != nil {
			return err
		}

		resolved, err := os.repos.Catalog.ResolveItems(ctx, restaurantID, items)
		if err != nil {
			return err
		}

		orderItems := make([]models.OrderItem, 0, len(resolved))
		for _, r := range resolved {
			orderItems = append(orderItems, models.OrderItem{
				Name:     r.Name,
				Price:    r.Price,
				Quantity: r.Quantity,
			})
		}

		total, err := models.OrderTotal(orderItems)
		if err != nil {
			return err
		}

		order, err = os.repos.Orders.CreateOrder(ctx, &models.Order{
			ID:           uuid.New(),
			RestaurantID: restaurantID,
			UserID:       userID,
			Items:        orderItems,
			Total:        total,
			Status:       models.OrderStatusPaymentPending,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Debug("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("restaurant_id", restaurantID.String()),
		zap.Int64("total", order.Total),
	)

	// the payment endpoint opens the session later if this fails
	if _, _, err := os.ensureSession(ctx, order, *creds); err != nil {
		logger.Log.Warn("open payment session",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}

	return order, nil
}

// GetOrCreatePaymentSession returns payment session of user order.
// An existing session of a pending order is verified with the provider.
func (os *OrderService) GetOrCreatePaymentSession(ctx context.Context, orderID, userID uuid.UUID) (*models.PaymentSessionResult, error) {
	order, err := os.userOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	// payment of order is already settled
	if !order.Status.CanTransition(models.OrderStatusPaid) {
		return os.settledResult(ctx, order)
	}

	creds, err := os.repos.Merchants.GetMerchantCredentials(ctx, order.RestaurantID)
	if err != nil {
		return nil, err
	}

	session, fresh, err := os.ensureSession(ctx, order, *creds)
	if err != nil {
		return nil, err
	}

	if fresh {
		return &models.PaymentSessionResult{
			OrderID:     order.ID,
			RedirectURL: *session.RedirectURL,
			State:       models.PaymentStatePending,
			OrderStatus: order.Status,
		}, nil
	}

	return os.verify(ctx, order, session, *creds)
}

// VerifyPayment checks payment state of user order without opening a session
func (os *OrderService) VerifyPayment(ctx context.Context, orderID, userID uuid.UUID) (*models.PaymentSessionResult, error) {
	order, err := os.userOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	return os.reconcile(ctx, order)
}

// ReconcilePayment verifies payment of pending order regardless of actor
func (os *OrderService) ReconcilePayment(ctx context.Context, orderID uuid.UUID) (*models.PaymentSessionResult, error) {
	order, err := os.repos.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return os.reconcile(ctx, order)
}

// ReconcilePayments reconciles orders received from channel
func (os *OrderService) ReconcilePayments(ctx context.Context, orderCh <-chan uuid.UUID) {
	for {
		select {
		case <-ctx.Done():
			logger.Log.Debug("payment reconcile is done")
			return
		case orderID, ok := <-orderCh:
			if !ok {
				return
			}

			res, err := os.ReconcilePayment(ctx, orderID)
			if err != nil {
				logger.Log.Error("reconcile payment",
					zap.String("order_id", orderID.String()),
					zap.Error(err),
				)
				continue
			}

			logger.Log.Debug("payment reconciled",
				zap.String("order_id", orderID.String()),
				zap.String("state", string(res.State)),
				zap.String("status", string(res.OrderStatus)),
			)
		}
	}
}

// QueueAwaitingPayments writes pending orders with stale sessions to channel
func (os *OrderService) QueueAwaitingPayments(ctx context.Context, orderCh chan<- uuid.UUID) error {
	ids, err := os.repos.Orders.ListAwaitingPayment(ctx, os.now().Add(-os.opts.ReconcileAge), os.opts.ReconcileBatch)
	if err != nil {
		return err
	}

	for _, id := range ids {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case orderCh <- id:
		}
	}

	return nil
}

// CompleteOrder completes paid order of restaurant and notifies the user.
// It returns false if the order is not paid.
func (os *OrderService) CompleteOrder(ctx context.Context, orderID, restaurantID uuid.UUID) (bool, error) {
	userID, ok, err := os.repos.Orders.RecordCompletion(ctx, orderID, restaurantID, os.now())
	if err != nil || !ok {
		return false, err
	}

	os.notify(ctx, restaurantID, userID, "Order completed", "Your order is ready for pickup")

	return true, nil
}

// CancelOrder cancels paid order. Users may cancel only within the cancel window.
// It returns false if the order cannot be cancelled.
func (os *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID, actor models.Identity) (bool, error) {
	switch actor.Kind {
	case models.ActorUser:
		return os.repos.Orders.CancelByUser(ctx, orderID, actor.ID, os.now().Add(-os.opts.CancelWindow))
	case models.ActorRestaurant:
		userID, ok, err := os.repos.Orders.CancelByRestaurant(ctx, orderID, actor.ID)
		if err != nil || !ok {
			return false, err
		}
		os.notify(ctx, actor.ID, userID, "Order cancelled", "Your order was cancelled by the restaurant")
		return true, nil
	}

	return false, models.ErrForbidden
}

// ListOrders returns orders of actor created during the last days.
// User listing carries average wait time over completed orders.
func (os *OrderService) ListOrders(ctx context.Context, actor models.Identity, days int) (*models.OrderList, error) {
	if days < 1 || days > maxListDays {
		return nil, models.ErrInvalidDays
	}
	since := os.now().Add(-time.Duration(days) * 24 * time.Hour)

	switch actor.Kind {
	case models.ActorUser:
		orders, err := os.repos.Orders.ListOrdersByUser(ctx, actor.ID, since)
		if err != nil {
			return nil, err
		}
		stats, err := os.repos.Orders.UserWaitStats(ctx, actor.ID)
		if err != nil {
			return nil, err
		}

		list := &models.OrderList{Orders: orders}
		if stats.Count > 0 {
			avg := stats.TotalSeconds / stats.Count
			list.AvgWaitTime = &avg
		}
		return list, nil
	case models.ActorRestaurant:
		orders, err := os.repos.Orders.ListOrdersByRestaurant(ctx, actor.ID, since)
		if err != nil {
			return nil, err
		}
		return &models.OrderList{Orders: orders}, nil
	}

	return nil, models.ErrForbidden
}

// ListPendingOrders returns paid but not completed orders of actor
func (os *OrderService) ListPendingOrders(ctx context.Context, actor models.Identity) ([]models.Order, error) {
	switch actor.Kind {
	case models.ActorUser:
		return os.repos.Orders.ListPendingByUser(ctx, actor.ID)
	case models.ActorRestaurant:
		return os.repos.Orders.ListPendingByRestaurant(ctx, actor.ID)
	}

	return nil, models.ErrForbidden
}

// userOrder returns order owned by user. Orders of other users are reported as not found.
func (os *OrderService) userOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := os.repos.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, models.ErrDataNotFound
	}

	return order, nil
}

// ensureSession returns session of order with a redirect url, creating it at the provider if needed.
// fresh is true if the url was obtained by this call.
func (os *OrderService) ensureSession(ctx context.Context, order *models.Order, creds models.MerchantCredentials) (*models.PaymentSession, bool, error) {
	session, _, err := os.repos.Payments.ClaimSession(ctx, &models.PaymentSession{
		OrderID:       order.ID,
		Provider:      creds.Provider,
		ProviderTxnID: payments.NewTransactionID(),
	})
	if err != nil {
		return nil, false, err
	}
	if session.HasRedirect() {
		return session, false, nil
	}

	handle, err := os.gateway.CreateSession(ctx, payments.SessionRequest{
		OrderID:      order.ID,
		TxnID:        session.ProviderTxnID,
		Amount:       order.Total,
		CustomerID:   order.UserID,
		CustomerName: order.UserName,
		RedirectURL:  os.opts.RedirectURL,
		CallbackURL:  os.opts.CallbackURL,
	}, creds)
	if err != nil {
		return nil, false, err
	}

	attached, err := os.repos.Payments.AttachRedirect(ctx, order.ID, handle.RedirectURL)
	if err != nil {
		return nil, false, err
	}
	if !attached {
		// concurrent request stored its url first
		stored, err := os.repos.Payments.GetSession(ctx, order.ID)
		if err != nil {
			return nil, false, err
		}
		return stored, true, nil
	}

	session.RedirectURL = &handle.RedirectURL
	logger.Log.Debug("payment session created",
		zap.String("order_id", order.ID.String()),
		zap.String("provider", creds.Provider),
		zap.String("txn_id", session.ProviderTxnID),
	)

	return session, true, nil
}

// reconcile verifies pending order that already has a provider session
func (os *OrderService) reconcile(ctx context.Context, order *models.Order) (*models.PaymentSessionResult, error) {
	// payment of order is already settled
	if !order.Status.CanTransition(models.OrderStatusPaid) {
		return os.settledResult(ctx, order)
	}

	session, err := os.repos.Payments.GetSession(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if !session.HasRedirect() {
		return &models.PaymentSessionResult{
			OrderID:     order.ID,
			State:       models.PaymentStatePending,
			OrderStatus: order.Status,
		}, nil
	}

	creds, err := os.repos.Merchants.GetMerchantCredentials(ctx, order.RestaurantID)
	if err != nil {
		return nil, err
	}

	return os.verify(ctx, order, session, *creds)
}

// verify queries provider and persists a terminal payment state
func (os *OrderService) verify(ctx context.Context, order *models.Order, session *models.PaymentSession, creds models.MerchantCredentials) (*models.PaymentSessionResult, error) {
	state, err := os.gateway.VerifyStatus(ctx, session.ProviderTxnID, creds)
	if err != nil {
		return nil, err
	}

	result := &models.PaymentSessionResult{
		OrderID:     order.ID,
		RedirectURL: *session.RedirectURL,
		State:       state,
		OrderStatus: order.Status,
	}

	var applied bool
	switch state {
	case models.PaymentStatePaid:
		err = os.repos.Tx.InTx(ctx, func(ctx context.Context) error {
			var err error
			if applied, err = os.repos.Orders.RecordPaymentPlaced(ctx, order.ID, os.now()); err != nil || !applied {
				return err
			}
			return os.repos.Payments.UpdateStatus(ctx, order.ID, state)
		})
		result.OrderStatus = models.OrderStatusPaid
	case models.PaymentStateFailed:
		err = os.repos.Tx.InTx(ctx, func(ctx context.Context) error {
			var err error
			applied, err = os.repos.Orders.TransitionStatus(ctx, order.ID,
				[]models.OrderStatus{models.OrderStatusPaymentPending}, models.OrderStatusPaymentFailed)
			if err != nil || !applied {
				return err
			}
			return os.repos.Payments.UpdateStatus(ctx, order.ID, state)
		})
		result.OrderStatus = models.OrderStatusPaymentFailed
	default:
		return result, os.repos.Payments.UpdateStatus(ctx, order.ID, state)
	}
	if err != nil {
		return nil, err
	}

	if !applied {
		// another verification settled the order first
		current, err := os.repos.Orders.GetOrder(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		result.OrderStatus = current.Status
		result.State = models.StateForStatus(current.Status)
		return result, nil
	}

	logger.Log.Info("payment settled",
		zap.String("order_id", order.ID.String()),
		zap.String("state", string(state)),
	)

	return result, nil
}

// settledResult reports known state of order whose payment is no longer pending
func (os *OrderService) settledResult(ctx context.Context, order *models.Order) (*models.PaymentSessionResult, error) {
	result := &models.PaymentSessionResult{
		OrderID:     order.ID,
		State:       models.StateForStatus(order.Status),
		OrderStatus: order.Status,
	}

	session, err := os.repos.Payments.GetSession(ctx, order.ID)
	switch {
	case err == nil:
		if session.HasRedirect() {
			result.RedirectURL = *session.RedirectURL
		}
	case !errors.Is(err, models.ErrDataNotFound):
		return nil, err
	}

	return result, nil
}

// notify sends notification from restaurant to user. Failures are only logged.
func (os *OrderService) notify(ctx context.Context, restaurantID, userID uuid.UUID, title, body string) {
	if os.notifier == nil {
		return
	}
	if err := os.notifier.Notify(ctx, &restaurantID, &userID, title, body, notificationTTL); err != nil {
		logger.Log.Warn("send notification",
			zap.String("user_id", userID.String()),
			zap.String("title", title),
			zap.Error(err),
		)
	}
}
