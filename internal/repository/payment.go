package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rookgm/foodorder/internal/models"
	"github.com/rookgm/foodorder/internal/repository/postgres"
)

const (
	insertPaymentQuery = `
						INSERT INTO payments (order_id, provider, provider_txn_id, status)
						VALUES ($1, $2, $3, $4)
						ON CONFLICT (order_id) DO NOTHING
						RETURNING order_id, provider, provider_txn_id, redirect_url, status, created_at, updated_at
`
	selectPaymentByOrderQuery = `
						SELECT order_id, provider, provider_txn_id, redirect_url, status, created_at, updated_at
						FROM payments
						WHERE order_id = $1
`
	updatePaymentRedirectQuery = `
						UPDATE payments SET redirect_url = $2, updated_at = now()
						WHERE order_id = $1 AND redirect_url IS NULL
`
	updatePaymentStatusQuery = `
						UPDATE payments SET status = $2, updated_at = now()
						WHERE order_id = $1 AND status = 'PENDING'
`
)

// PaymentRepository stores provider payment sessions
type PaymentRepository struct {
	db *postgres.DB
}

// NewPaymentRepository creates new PaymentRepository instance
func NewPaymentRepository(db *postgres.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// GetSession returns payment session of order
func (pr *PaymentRepository) GetSession(ctx context.Context, orderID uuid.UUID) (*models.PaymentSession, error) {
	session, err := scanPayment(pr.db.Conn(ctx).QueryRow(ctx, selectPaymentByOrderQuery, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return session, nil
}

// ClaimSession inserts session unless the order already has one.
// It returns the stored session and whether this call created it.
func (pr *PaymentRepository) ClaimSession(ctx context.Context, session *models.PaymentSession) (*models.PaymentSession, bool, error) {
	row := pr.db.Conn(ctx).QueryRow(ctx, insertPaymentQuery, session.OrderID, session.Provider, session.ProviderTxnID, string(models.PaymentStatePending))
	created, err := scanPayment(row)
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	existing, err := pr.GetSession(ctx, session.OrderID)
	if err != nil {
		return nil, false, err
	}

	return existing, false, nil
}

// AttachRedirect stores provider redirect url if none is stored yet
func (pr *PaymentRepository) AttachRedirect(ctx context.Context, orderID uuid.UUID, url string) (bool, error) {
	cmd, err := pr.db.Conn(ctx).Exec(ctx, updatePaymentRedirectQuery, orderID, url)
	if err != nil {
		return false, err
	}

	return cmd.RowsAffected() == 1, nil
}

// UpdateStatus mirrors provider state. Terminal states are never overwritten.
func (pr *PaymentRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, state models.PaymentState) error {
	_, err := pr.db.Conn(ctx).Exec(ctx, updatePaymentStatusQuery, orderID, string(state))
	return err
}

func scanPayment(row pgx.Row) (*models.PaymentSession, error) {
	var (
		session models.PaymentSession
		status  string
	)
	err := row.Scan(&session.OrderID, &session.Provider, &session.ProviderTxnID, &session.RedirectURL, &status, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return nil, err
	}
	session.Status = models.PaymentState(status)

	return &session, nil
}
