package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rookgm/foodorder/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	ProviderCashfree = "cashfree"
	ProviderPhonePe  = "phonepe"
)

var tracer = otel.Tracer("github.com/rookgm/foodorder/internal/payments")

// SessionRequest describes the payment session to open at the provider.
type SessionRequest struct {
	OrderID uuid.UUID
	// TxnID is the merchant side transaction id, stable across retries.
	TxnID         string
	Amount        int64
	Currency      string
	CustomerID    uuid.UUID
	CustomerName  string
	CustomerPhone string
	RedirectURL   string
	CallbackURL   string
}

// SessionHandle is what the paying client needs to continue at the provider.
type SessionHandle struct {
	RedirectURL string
}

// Provider is a payment gateway integration.
type Provider interface {
	Name() string
	CreateSession(ctx context.Context, req SessionRequest, creds models.MerchantCredentials) (SessionHandle, error)
	VerifyStatus(ctx context.Context, txnID string, creds models.MerchantCredentials) (models.PaymentState, error)
}

// Manager selects the provider configured for a restaurant.
type Manager struct {
	providers map[string]Provider
}

// NewManager creates new Manager instance
func NewManager(providers ...Provider) (*Manager, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("payments: at least one provider is required")
	}

	m := &Manager{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if p == nil {
			return nil, fmt.Errorf("payments: nil provider")
		}
		m.providers[strings.ToLower(p.Name())] = p
	}

	return m, nil
}

// NewTransactionID returns new merchant transaction id.
func NewTransactionID() string {
	return ulid.Make().String()
}

func (m *Manager) resolve(name string) (Provider, error) {
	p, ok := m.providers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedProvider, name)
	}
	return p, nil
}

// CreateSession opens a payment session with the restaurant's provider
func (m *Manager) CreateSession(ctx context.Context, req SessionRequest, creds models.MerchantCredentials) (SessionHandle, error) {
	p, err := m.resolve(creds.Provider)
	if err != nil {
		return SessionHandle{}, err
	}

	ctx, span := tracer.Start(ctx, "payments.CreateSession", trace.WithAttributes(
		attribute.String("payment.provider", p.Name()),
		attribute.String("payment.txn_id", req.TxnID),
		attribute.String("order.id", req.OrderID.String()),
	))
	defer span.End()

	handle, err := p.CreateSession(ctx, req, creds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return SessionHandle{}, err
	}

	return handle, nil
}

// VerifyStatus queries the provider for the current payment state
func (m *Manager) VerifyStatus(ctx context.Context, txnID string, creds models.MerchantCredentials) (models.PaymentState, error) {
	p, err := m.resolve(creds.Provider)
	if err != nil {
		return "", err
	}

	ctx, span := tracer.Start(ctx, "payments.VerifyStatus", trace.WithAttributes(
		attribute.String("payment.provider", p.Name()),
		attribute.String("payment.txn_id", txnID),
	))
	defer span.End()

	state, err := p.VerifyStatus(ctx, txnID, creds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.String("payment.state", string(state)))

	return state, nil
}
