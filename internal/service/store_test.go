package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rookgm/foodorder/internal/models"
	"github.com/rookgm/foodorder/internal/payments"
)

type catalogEntry struct {
	restaurantID uuid.UUID
	name         string
	price        int64
	available    bool
}

// memStore keeps orders, catalog, sessions and credentials in memory.
// InTx restores the snapshot taken before fn if fn fails.
type memStore struct {
	mu        sync.Mutex
	now       func() time.Time
	orders    map[uuid.UUID]models.Order
	catalog   map[uuid.UUID]catalogEntry
	sessions  map[uuid.UUID]models.PaymentSession
	merchants map[uuid.UUID]models.MerchantCredentials
	createErr error
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		now:       now,
		orders:    map[uuid.UUID]models.Order{},
		catalog:   map[uuid.UUID]catalogEntry{},
		sessions:  map[uuid.UUID]models.PaymentSession{},
		merchants: map[uuid.UUID]models.MerchantCredentials{},
	}
}

func (s *memStore) addItem(restaurantID uuid.UUID, name string, price int64) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.catalog[id] = catalogEntry{restaurantID: restaurantID, name: name, price: price, available: true}
	return id
}

func (s *memStore) addMerchant(restaurantID uuid.UUID, provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.merchants[restaurantID] = models.MerchantCredentials{
		RestaurantID: restaurantID,
		Provider:     provider,
		MerchantID:   "MERCHANT",
		SecretKey:    "secret",
		KeyIndex:     "1",
	}
}

func (s *memStore) order(id uuid.UUID) models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id]
}

func (s *memStore) setOrder(o models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	orders := make(map[uuid.UUID]models.Order, len(s.orders))
	for k, v := range s.orders {
		orders[k] = v
	}
	sessions := make(map[uuid.UUID]models.PaymentSession, len(s.sessions))
	for k, v := range s.sessions {
		sessions[k] = v
	}
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.orders, s.sessions = orders, sessions
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) ResolveItems(_ context.Context, restaurantID uuid.UUID, requested []models.RequestedItem) ([]models.ResolvedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := make([]models.ResolvedItem, 0, len(requested))
	for _, r := range requested {
		item, ok := s.catalog[r.ItemID]
		if !ok || item.restaurantID != restaurantID || !item.available {
			return nil, fmt.Errorf("%w: %s", models.ErrItemNotFound, r.ItemID)
		}
		resolved = append(resolved, models.ResolvedItem{ItemID: r.ItemID, Name: item.name, Price: item.price, Quantity: r.Quantity})
	}
	return resolved, nil
}

func (s *memStore) GetMerchantCredentials(_ context.Context, restaurantID uuid.UUID) (*models.MerchantCredentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, ok := s.merchants[restaurantID]
	if !ok {
		return nil, models.ErrRestaurantNotFound
	}
	return &creds, nil
}

func (s *memStore) CreateOrder(_ context.Context, order *models.Order) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return nil, s.createErr
	}
	if _, ok := s.orders[order.ID]; ok {
		return nil, models.ErrConflictData
	}

	order.CreatedAt = s.now()
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	stored := *order
	stored.Items = append([]models.OrderItem(nil), order.Items...)
	s.orders[order.ID] = stored

	return order, nil
}

func (s *memStore) GetOrder(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, models.ErrDataNotFound
	}
	return &o, nil
}

func (s *memStore) TransitionStatus(_ context.Context, orderID uuid.UUID, from []models.OrderStatus, to models.OrderStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if o.Status == f {
			o.Status = to
			s.orders[orderID] = o
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) RecordPaymentPlaced(_ context.Context, orderID uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok || o.Status != models.OrderStatusPaymentPending {
		return false, nil
	}
	o.Status = models.OrderStatusPaid
	o.OrderPlacedTime = &at
	s.orders[orderID] = o
	return true, nil
}

func (s *memStore) RecordCompletion(_ context.Context, orderID, restaurantID uuid.UUID, at time.Time) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok || o.RestaurantID != restaurantID {
		return uuid.Nil, false, models.ErrDataNotFound
	}
	if o.Status != models.OrderStatusPaid {
		return uuid.Nil, false, nil
	}
	taken := int64(at.Sub(*o.OrderPlacedTime) / time.Second)
	o.Status = models.OrderStatusCompleted
	o.OrderCompletedTime = &at
	o.TimeTaken = &taken
	s.orders[orderID] = o
	return o.UserID, true, nil
}

func (s *memStore) CancelByUser(_ context.Context, orderID, userID uuid.UUID, placedAfter time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok || o.UserID != userID {
		return false, models.ErrDataNotFound
	}
	if o.Status != models.OrderStatusPaid || o.OrderPlacedTime == nil || o.OrderPlacedTime.Before(placedAfter) {
		return false, nil
	}
	o.Status = models.OrderStatusCancelled
	s.orders[orderID] = o
	return true, nil
}

func (s *memStore) CancelByRestaurant(_ context.Context, orderID, restaurantID uuid.UUID) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok || o.RestaurantID != restaurantID {
		return uuid.Nil, false, models.ErrDataNotFound
	}
	if o.Status != models.OrderStatusPaid {
		return uuid.Nil, false, nil
	}
	o.Status = models.OrderStatusCancelled
	s.orders[orderID] = o
	return o.UserID, true, nil
}

func (s *memStore) filter(keep func(models.Order) bool) []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Order
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *memStore) ListOrdersByUser(_ context.Context, userID uuid.UUID, since time.Time) ([]models.Order, error) {
	return s.filter(func(o models.Order) bool { return o.UserID == userID && !o.CreatedAt.Before(since) }), nil
}

func (s *memStore) ListOrdersByRestaurant(_ context.Context, restaurantID uuid.UUID, since time.Time) ([]models.Order, error) {
	return s.filter(func(o models.Order) bool { return o.RestaurantID == restaurantID && !o.CreatedAt.Before(since) }), nil
}

func (s *memStore) ListPendingByUser(_ context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.filter(func(o models.Order) bool { return o.UserID == userID && o.Status == models.OrderStatusPaid }), nil
}

func (s *memStore) ListPendingByRestaurant(_ context.Context, restaurantID uuid.UUID) ([]models.Order, error) {
	return s.filter(func(o models.Order) bool { return o.RestaurantID == restaurantID && o.Status == models.OrderStatusPaid }), nil
}

func (s *memStore) UserWaitStats(_ context.Context, userID uuid.UUID) (models.WaitStats, error) {
	var stats models.WaitStats
	for _, o := range s.filter(func(o models.Order) bool { return o.UserID == userID && o.TimeTaken != nil }) {
		stats.TotalSeconds += *o.TimeTaken
		stats.Count++
	}
	return stats, nil
}

func (s *memStore) ListAwaitingPayment(_ context.Context, olderThan time.Time, limit int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []uuid.UUID
	for id, o := range s.orders {
		sess, ok := s.sessions[id]
		if o.Status != models.OrderStatusPaymentPending || !ok || !sess.HasRedirect() || !sess.UpdatedAt.Before(olderThan) {
			continue
		}
		ids = append(ids, id)
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

func (s *memStore) GetSession(_ context.Context, orderID uuid.UUID) (*models.PaymentSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[orderID]
	if !ok {
		return nil, models.ErrDataNotFound
	}
	return &sess, nil
}

func (s *memStore) ClaimSession(_ context.Context, session *models.PaymentSession) (*models.PaymentSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[session.OrderID]; ok {
		return &existing, false, nil
	}
	stored := *session
	stored.Status = models.PaymentStatePending
	stored.CreatedAt = s.now()
	stored.UpdatedAt = stored.CreatedAt
	s.sessions[session.OrderID] = stored
	return &stored, true, nil
}

func (s *memStore) AttachRedirect(_ context.Context, orderID uuid.UUID, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[orderID]
	if !ok || sess.RedirectURL != nil {
		return false, nil
	}
	sess.RedirectURL = &url
	sess.UpdatedAt = s.now()
	s.sessions[orderID] = sess
	return true, nil
}

func (s *memStore) UpdateStatus(_ context.Context, orderID uuid.UUID, state models.PaymentState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[orderID]
	if !ok || sess.Status != models.PaymentStatePending {
		return nil
	}
	sess.Status = state
	sess.UpdatedAt = s.now()
	s.sessions[orderID] = sess
	return nil
}

// fakeGateway returns a fixed state and counts provider calls
type fakeGateway struct {
	mu          sync.Mutex
	state       models.PaymentState
	createErr   error
	verifyErr   error
	createCalls int
	verifyCalls int
	txnIDs      []string
	// onCreate runs before a successful CreateSession returns
	onCreate func(req payments.SessionRequest)
}

func (g *fakeGateway) CreateSession(_ context.Context, req payments.SessionRequest, _ models.MerchantCredentials) (payments.SessionHandle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.createCalls++
	g.txnIDs = append(g.txnIDs, req.TxnID)
	if g.createErr != nil {
		return payments.SessionHandle{}, g.createErr
	}
	if g.onCreate != nil {
		g.onCreate(req)
	}
	return payments.SessionHandle{RedirectURL: "https://pay.example/" + req.TxnID}, nil
}

func (g *fakeGateway) VerifyStatus(_ context.Context, _ string, _ models.MerchantCredentials) (models.PaymentState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.verifyCalls++
	if g.verifyErr != nil {
		return "", g.verifyErr
	}
	return g.state, nil
}

func (g *fakeGateway) calls() (create, verify int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.createCalls, g.verifyCalls
}

type sentNotification struct {
	sender, recipient uuid.UUID
	title             string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, senderID, recipientID *uuid.UUID, title, _ string, _ int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, sentNotification{sender: *senderID, recipient: *recipientID, title: title})
	return n.err
}
