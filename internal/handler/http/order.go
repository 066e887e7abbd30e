package handler

//go:generate mockgen -source=order.go -destination=mocks/order.go -package=mocks

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rookgm/foodorder/internal/models"
)

type OrderService interface {
	// PlaceOrder creates order and opens its payment session
	PlaceOrder(ctx context.Context, userID, restaurantID uuid.UUID, items []models.RequestedItem) (*models.Order, error)
	// GetOrCreatePaymentSession returns payment session, verifying an existing one
	GetOrCreatePaymentSession(ctx context.Context, orderID, userID uuid.UUID) (*models.PaymentSessionResult, error)
	// VerifyPayment checks payment state with the provider
	VerifyPayment(ctx context.Context, orderID, userID uuid.UUID) (*models.PaymentSessionResult, error)
	CompleteOrder(ctx context.Context, orderID, restaurantID uuid.UUID) (bool, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID, actor models.Identity) (bool, error)
	ListOrders(ctx context.Context, actor models.Identity, days int) (*models.OrderList, error)
	ListPendingOrders(ctx context.Context, actor models.Identity) ([]models.Order, error)
}

// OrderHandler represents HTTP handler for order-related requests
type OrderHandler struct {
	svc OrderService
}

// NewOrderHandler creates new OrderHandler instance
func NewOrderHandler(svc OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type placeOrderItem struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int64     `json:"quantity"`
}

type placeOrderRequest struct {
	RestaurantID uuid.UUID        `json:"restaurant_id"`
	Items        []placeOrderItem `json:"items"`
}

type orderItemResponse struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

type OrderResponse struct {
	ID                 string              `json:"id"`
	RestaurantID       string              `json:"restaurant_id"`
	RestaurantName     string              `json:"restaurant_name,omitempty"`
	UserID             string              `json:"user_id"`
	UserName           string              `json:"user_name,omitempty"`
	Items              []orderItemResponse `json:"items"`
	Total              int64               `json:"total"`
	Status             string              `json:"status"`
	CreatedAt          string              `json:"created_at"`
	OrderPlacedTime    string              `json:"order_placed_time,omitempty"`
	OrderCompletedTime string              `json:"order_completed_time,omitempty"`
	TimeTaken          *int64              `json:"time_taken,omitempty"`
}

type ListOrdersResponse struct {
	Orders      []OrderResponse `json:"orders"`
	AvgWaitTime *int64          `json:"avg_wait_time,omitempty"`
}

type PaymentResponse struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url,omitempty"`
	State       string `json:"payment_state"`
	OrderStatus string `json:"status"`
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func newOrderResponse(o models.Order) OrderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}

	return OrderResponse{
		ID:                 o.ID.String(),
		RestaurantID:       o.RestaurantID.String(),
		RestaurantName:     o.RestaurantName,
		UserID:             o.UserID.String(),
		UserName:           o.UserName,
		Items:              items,
		Total:              o.Total,
		Status:             string(o.Status),
		CreatedAt:          o.CreatedAt.Format(time.RFC3339),
		OrderPlacedTime:    formatTime(o.OrderPlacedTime),
		OrderCompletedTime: formatTime(o.OrderCompletedTime),
		TimeTaken:          o.TimeTaken,
	}
}

func newOrdersResponse(orders []models.Order) []OrderResponse {
	resp := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, newOrderResponse(o))
	}
	return resp
}

func newPaymentResponse(res *models.PaymentSessionResult) PaymentResponse {
	return PaymentResponse{
		OrderID:     res.OrderID.String(),
		RedirectURL: res.RedirectURL,
		State:       string(res.State),
		OrderStatus: string(res.OrderStatus),
	}
}

// orderIDParam parses {orderID} path parameter, writing 400 if malformed
func orderIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// PlaceOrder places user order
// 201 - заказ создан;
// 400 - неверный формат запроса;
// 401 - пользователь не аутентифицирован;
// 403 - заказ может создать только пользователь;
// 404 - ресторан не найден;
// 422 - неизвестная позиция или неверное количество;
// 500 - внутренняя ошибка сервера.
func (oh *OrderHandler) PlaceOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, models.ActorUser)
		if !ok {
			return
		}

		var req placeOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RestaurantID == uuid.Nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		items := make([]models.RequestedItem, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, models.RequestedItem{ItemID: item.ItemID, Quantity: item.Quantity})
		}

		order, err := oh.svc.PlaceOrder(r.Context(), actor.ID, req.RestaurantID, items)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, newOrderResponse(*order))
	}
}

// GetPaymentSession returns payment session of order, creating it if needed
// 200 - сессия оплаты;
// 401 - пользователь не аутентифицирован;
// 404 - заказ не найден;
// 502 - ошибка платежного провайдера.
func (oh *OrderHandler) GetPaymentSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, models.ActorUser)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(w, r)
		if !ok {
			return
		}

		res, err := oh.svc.GetOrCreatePaymentSession(r.Context(), orderID, actor.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, newPaymentResponse(res))
	}
}

// VerifyPayment checks payment state of order
func (oh *OrderHandler) VerifyPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, models.ActorUser)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(w, r)
		if !ok {
			return
		}

		res, err := oh.svc.VerifyPayment(r.Context(), orderID, actor.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, newPaymentResponse(res))
	}
}

// CompleteOrder marks paid order completed
// 200 - {"completed": true|false};
// 403 - завершить заказ может только ресторан;
// 404 - заказ не найден у ресторана.
func (oh *OrderHandler) CompleteOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, models.ActorRestaurant)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(w, r)
		if !ok {
			return
		}

		completed, err := oh.svc.CompleteOrder(r.Context(), orderID, actor.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"completed": completed})
	}
}

// CancelOrder cancels paid order
// 200 - {"cancelled": true|false};
// 404 - заказ не найден.
func (oh *OrderHandler) CancelOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, models.ActorUser, models.ActorRestaurant)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(w, r)
		if !ok {
			return
		}

		cancelled, err := oh.svc.CancelOrder(r.Context(), orderID, actor)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
	}
}

// ListOrders returns orders of the last {days} days
// 200 - успешная обработка запроса;
// 400 - неверное количество дней;
// 401 - пользователь не авторизован.
func (oh *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, models.ActorUser, models.ActorRestaurant)
		if !ok {
			return
		}

		days, err := strconv.Atoi(chi.URLParam(r, "days"))
		if err != nil {
			http.Error(w, "invalid days", http.StatusBadRequest)
			return
		}

		list, err := oh.svc.ListOrders(r.Context(), actor, days)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, ListOrdersResponse{
			Orders:      newOrdersResponse(list.Orders),
			AvgWaitTime: list.AvgWaitTime,
		})
	}
}

// ListPendingOrders returns paid orders awaiting completion
func (oh *OrderHandler) ListPendingOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r, models.ActorUser, models.ActorRestaurant)
		if !ok {
			return
		}

		orders, err := oh.svc.ListPendingOrders(r.Context(), actor)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, ListOrdersResponse{Orders: newOrdersResponse(orders)})
	}
}
