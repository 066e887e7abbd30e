package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rookgm/foodorder/internal/models"
	"github.com/rookgm/foodorder/internal/repository/postgres"
)

const orderColumns = `
						o.id, o.restaurant_id, r.name, o.user_id, u.username, o.total, o.status,
						o.created_at, o.order_placed_time, o.order_completed_time, o.time_taken
						FROM orders o
						JOIN restaurants r ON r.id = o.restaurant_id
						JOIN users u ON u.id = o.user_id
`

const (
	insertOrderQuery = `
						INSERT INTO orders (id, restaurant_id, user_id, total, status)
						VALUES ($1, $2, $3, $4, $5)
						RETURNING created_at
`
	insertOrderItemQuery = `
						INSERT INTO order_items (order_id, item_name, item_price, quantity)
						VALUES ($1, $2, $3, $4)
`
	selectOrderByIDQuery = `SELECT` + orderColumns + `
						WHERE o.id = $1
`
	selectOrdersByUserQuery = `SELECT` + orderColumns + `
						WHERE o.user_id = $1 AND o.created_at > $2
						ORDER BY o.created_at DESC
`
	selectOrdersByRestaurantQuery = `SELECT` + orderColumns + `
						WHERE o.restaurant_id = $1 AND o.created_at > $2
						ORDER BY o.created_at DESC
`
	selectPendingByUserQuery = `SELECT` + orderColumns + `
						WHERE o.user_id = $1 AND o.status = 'paid'
						ORDER BY o.order_placed_time
`
	selectPendingByRestaurantQuery = `SELECT` + orderColumns + `
						WHERE o.restaurant_id = $1 AND o.status = 'paid'
						ORDER BY o.order_placed_time
`
	selectOrderItemsQuery = `
						SELECT order_id, item_name, item_price, quantity FROM order_items
						WHERE order_id = ANY($1)
						ORDER BY id
`
	updateOrderStatusQuery = `
						UPDATE orders SET status = $1
						WHERE id = $2 AND status = ANY($3)
`
	updateOrderPaidQuery = `
						UPDATE orders SET status = 'paid', order_placed_time = $2
						WHERE id = $1 AND status = 'payment_pending'
`
	updateOrderCompletedQuery = `
						UPDATE orders
						SET status = 'completed',
						    order_completed_time = $3,
						    time_taken = FLOOR(EXTRACT(EPOCH FROM ($3::timestamptz - order_placed_time)))::bigint
						WHERE id = $1 AND restaurant_id = $2 AND status = 'paid'
						RETURNING user_id
`
	updateOrderCancelledByUserQuery = `
						UPDATE orders SET status = 'cancelled'
						WHERE id = $1 AND user_id = $2 AND status = 'paid' AND order_placed_time >= $3
`
	updateOrderCancelledByRestaurantQuery = `
						UPDATE orders SET status = 'cancelled'
						WHERE id = $1 AND restaurant_id = $2 AND status = 'paid'
						RETURNING user_id
`
	selectOrderOfUserExistsQuery = `
						SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1 AND user_id = $2)
`
	selectOrderOfRestaurantExistsQuery = `
						SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1 AND restaurant_id = $2)
`
	selectUserWaitStatsQuery = `
						SELECT COALESCE(SUM(time_taken), 0), COUNT(time_taken) FROM orders
						WHERE user_id = $1 AND status = 'completed'
`
	selectAwaitingPaymentQuery = `
						SELECT o.id FROM orders o
						JOIN payments p ON p.order_id = o.id
						WHERE o.status = 'payment_pending' AND p.redirect_url IS NOT NULL AND p.updated_at < $1
						ORDER BY p.updated_at
						LIMIT $2
`
)

// OrderRepository implements OrderRepository interface
type OrderRepository struct {
	db *postgres.DB
}

// NewOrderRepository creates new OrderRepository instance
func NewOrderRepository(db *postgres.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateOrder inserts order and its items. Both go into the transaction carried by ctx.
func (or *OrderRepository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	err := or.db.InTx(ctx, func(ctx context.Context) error {
		conn := or.db.Conn(ctx)

		err := conn.QueryRow(ctx, insertOrderQuery, order.ID, order.RestaurantID, order.UserID, order.Total, string(order.Status)).Scan(&order.CreatedAt)
		if err != nil {
			if errCode := or.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
				return models.ErrConflictData
			}
			return err
		}

		for _, item := range order.Items {
			if _, err := conn.Exec(ctx, insertOrderItemQuery, order.ID, item.Name, item.Price, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}

	return order, nil
}

// GetOrder returns order with items by id
func (or *OrderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	conn := or.db.Conn(ctx)

	order, err := scanOrder(conn.QueryRow(ctx, selectOrderByIDQuery, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	items, err := or.listItems(ctx, []uuid.UUID{orderID})
	if err != nil {
		return nil, err
	}
	order.Items = items[orderID]

	return &order, nil
}

// TransitionStatus moves order to status `to` only if its status is one of `from`.
// It returns false if the precondition does not hold.
func (or *OrderRepository) TransitionStatus(ctx context.Context, orderID uuid.UUID, from []models.OrderStatus, to models.OrderStatus) (bool, error) {
	fromStr := make([]string, 0, len(from))
	for _, s := range from {
		fromStr = append(fromStr, string(s))
	}

	cmd, err := or.db.Conn(ctx).Exec(ctx, updateOrderStatusQuery, string(to), orderID, fromStr)
	if err != nil {
		return false, err
	}

	return cmd.RowsAffected() == 1, nil
}

// RecordPaymentPlaced marks pending order paid and sets order placed time
func (or *OrderRepository) RecordPaymentPlaced(ctx context.Context, orderID uuid.UUID, at time.Time) (bool, error) {
	cmd, err := or.db.Conn(ctx).Exec(ctx, updateOrderPaidQuery, orderID, at)
	if err != nil {
		return false, err
	}

	return cmd.RowsAffected() == 1, nil
}

// RecordCompletion completes paid order of restaurant and returns the ordering user.
// ErrDataNotFound is returned if restaurant does not own the order.
func (or *OrderRepository) RecordCompletion(ctx context.Context, orderID, restaurantID uuid.UUID, at time.Time) (uuid.UUID, bool, error) {
	conn := or.db.Conn(ctx)

	var userID uuid.UUID
	err := conn.QueryRow(ctx, updateOrderCompletedQuery, orderID, restaurantID, at).Scan(&userID)
	if err == nil {
		return userID, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, err
	}

	return uuid.Nil, false, or.ensureExists(ctx, selectOrderOfRestaurantExistsQuery, orderID, restaurantID)
}

// CancelByUser cancels paid order of user placed not earlier than placedAfter
func (or *OrderRepository) CancelByUser(ctx context.Context, orderID, userID uuid.UUID, placedAfter time.Time) (bool, error) {
	cmd, err := or.db.Conn(ctx).Exec(ctx, updateOrderCancelledByUserQuery, orderID, userID, placedAfter)
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() == 1 {
		return true, nil
	}

	return false, or.ensureExists(ctx, selectOrderOfUserExistsQuery, orderID, userID)
}

// CancelByRestaurant cancels paid order of restaurant and returns the ordering user
func (or *OrderRepository) CancelByRestaurant(ctx context.Context, orderID, restaurantID uuid.UUID) (uuid.UUID, bool, error) {
	var userID uuid.UUID
	err := or.db.Conn(ctx).QueryRow(ctx, updateOrderCancelledByRestaurantQuery, orderID, restaurantID).Scan(&userID)
	if err == nil {
		return userID, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, err
	}

	return uuid.Nil, false, or.ensureExists(ctx, selectOrderOfRestaurantExistsQuery, orderID, restaurantID)
}

// ListOrdersByUser returns user orders created after since
func (or *OrderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.Order, error) {
	return or.listOrders(ctx, selectOrdersByUserQuery, userID, since)
}

// ListOrdersByRestaurant returns restaurant orders created after since
func (or *OrderRepository) ListOrdersByRestaurant(ctx context.Context, restaurantID uuid.UUID, since time.Time) ([]models.Order, error) {
	return or.listOrders(ctx, selectOrdersByRestaurantQuery, restaurantID, since)
}

// ListPendingByUser returns paid but not completed orders of user
func (or *OrderRepository) ListPendingByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return or.listOrders(ctx, selectPendingByUserQuery, userID)
}

// ListPendingByRestaurant returns paid but not completed orders of restaurant
func (or *OrderRepository) ListPendingByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.Order, error) {
	return or.listOrders(ctx, selectPendingByRestaurantQuery, restaurantID)
}

// UserWaitStats returns sum and count of time taken over completed user orders
func (or *OrderRepository) UserWaitStats(ctx context.Context, userID uuid.UUID) (models.WaitStats, error) {
	var stats models.WaitStats
	err := or.db.Conn(ctx).QueryRow(ctx, selectUserWaitStatsQuery, userID).Scan(&stats.TotalSeconds, &stats.Count)
	if err != nil {
		return models.WaitStats{}, err
	}

	return stats, nil
}

// ListAwaitingPayment returns pending orders with a provider session last touched before olderThan
func (or *OrderRepository) ListAwaitingPayment(ctx context.Context, olderThan time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := or.db.Conn(ctx).Query(ctx, selectAwaitingPaymentQuery, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

func (or *OrderRepository) ensureExists(ctx context.Context, query string, orderID, ownerID uuid.UUID) error {
	var exists bool
	if err := or.db.Conn(ctx).QueryRow(ctx, query, orderID, ownerID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return models.ErrDataNotFound
	}
	return nil
}

func (or *OrderRepository) listOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := or.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}
	ids := []uuid.UUID{}

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return orders, nil
	}

	items, err := or.listItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

func (or *OrderRepository) listItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.OrderItem, error) {
	rows, err := or.db.Conn(ctx).Query(ctx, selectOrderItemsQuery, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]models.OrderItem, len(orderIDs))
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.OrderID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, err
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func scanOrder(row pgx.Row) (models.Order, error) {
	var (
		order  models.Order
		status string
	)
	err := row.Scan(&order.ID, &order.RestaurantID, &order.RestaurantName, &order.UserID, &order.UserName,
		&order.Total, &status, &order.CreatedAt, &order.OrderPlacedTime, &order.OrderCompletedTime, &order.TimeTaken)
	if err != nil {
		return models.Order{}, err
	}
	order.Status = models.OrderStatus(status)

	return order, nil
}
