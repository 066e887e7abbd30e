package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rookgm/foodorder/internal/models"
)

const (
	cashfreeOrdersPath = "/pg/orders"
	cashfreeAPIVersion = "2023-08-01"
	defaultCurrency    = "INR"
	// used when the customer has no phone on file, the api requires one
	defaultCustomerPhone = "9999999999"
)

// Cashfree order statuses
const (
	cashfreePaid        = "PAID"
	cashfreeActive      = "ACTIVE"
	cashfreeTermRequest = "TERMINATION_REQUESTED"
	cashfreeExpired     = "EXPIRED"
	cashfreeTerminated  = "TERMINATED"
)

type Cashfree struct {
	baseURL string
	client  *http.Client
}

// NewCashfree creates new Cashfree provider instance
func NewCashfree(baseURL string, timeout time.Duration) *Cashfree {
	return &Cashfree{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(timeout),
	}
}

func (c *Cashfree) Name() string {
	return ProviderCashfree
}

type cashfreeCustomer struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerPhone string `json:"customer_phone"`
}

type cashfreeMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
	NotifyURL string `json:"notify_url,omitempty"`
}

type cashfreeOrderRequest struct {
	OrderID         string           `json:"order_id"`
	OrderAmount     json.Number      `json:"order_amount"`
	OrderCurrency   string           `json:"order_currency"`
	CustomerDetails cashfreeCustomer `json:"customer_details"`
	OrderMeta       cashfreeMeta     `json:"order_meta"`
}

type cashfreeOrder struct {
	CfOrderID        json.Number `json:"cf_order_id"`
	OrderID          string      `json:"order_id"`
	OrderStatus      string      `json:"order_status"`
	PaymentSessionID string      `json:"payment_session_id"`
}

func (c *Cashfree) headers(creds models.MerchantCredentials) map[string]string {
	return map[string]string{
		"x-client-id":     creds.MerchantID,
		"x-client-secret": creds.SecretKey,
		"x-api-version":   cashfreeAPIVersion,
	}
}

// CreateSession creates a Cashfree order. The returned handle carries the payment session id,
// which the client hands to the Cashfree checkout.
// Cashfree order ids are unique per merchant, so a retry of an order that was already
// created answers 409. The session id is then read from the existing order.
func (c *Cashfree) CreateSession(ctx context.Context, req SessionRequest, creds models.MerchantCredentials) (SessionHandle, error) {
	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	phone := req.CustomerPhone
	if phone == "" {
		phone = defaultCustomerPhone
	}

	body := cashfreeOrderRequest{
		OrderID:       req.TxnID,
		OrderAmount:   json.Number(formatMajor(req.Amount)),
		OrderCurrency: currency,
		CustomerDetails: cashfreeCustomer{
			CustomerID:    req.CustomerID.String(),
			CustomerName:  req.CustomerName,
			CustomerPhone: phone,
		},
		OrderMeta: cashfreeMeta{
			ReturnURL: req.RedirectURL,
			NotifyURL: req.CallbackURL,
		},
	}

	endpoint, err := url.JoinPath(c.baseURL, cashfreeOrdersPath)
	if err != nil {
		return SessionHandle{}, err
	}

	var order cashfreeOrder
	err = doJSON(ctx, c.client, http.MethodPost, endpoint, c.headers(creds), body, &order)
	if isStatus(err, http.StatusConflict) {
		existing, ferr := c.fetchOrder(ctx, req.TxnID, creds)
		if ferr != nil {
			return SessionHandle{}, fmt.Errorf("cashfree: create session: %w", ferr)
		}
		order, err = *existing, nil
	}
	if err != nil {
		return SessionHandle{}, fmt.Errorf("cashfree: create session: %w", err)
	}
	if order.PaymentSessionID == "" {
		return SessionHandle{}, fmt.Errorf("cashfree: create session: %w: empty payment session id", models.ErrProviderResponse)
	}

	return SessionHandle{RedirectURL: order.PaymentSessionID}, nil
}

// VerifyStatus fetches the Cashfree order and maps its status
func (c *Cashfree) VerifyStatus(ctx context.Context, txnID string, creds models.MerchantCredentials) (models.PaymentState, error) {
	order, err := c.fetchOrder(ctx, txnID, creds)
	if err != nil {
		return "", fmt.Errorf("cashfree: verify status: %w", err)
	}

	return cashfreeState(order.OrderStatus)
}

func (c *Cashfree) fetchOrder(ctx context.Context, txnID string, creds models.MerchantCredentials) (*cashfreeOrder, error) {
	endpoint, err := url.JoinPath(c.baseURL, cashfreeOrdersPath, txnID)
	if err != nil {
		return nil, err
	}

	var order cashfreeOrder
	if err := doJSON(ctx, c.client, http.MethodGet, endpoint, c.headers(creds), nil, &order); err != nil {
		return nil, err
	}

	return &order, nil
}

func cashfreeState(status string) (models.PaymentState, error) {
	switch status {
	case cashfreePaid:
		return models.PaymentStatePaid, nil
	case cashfreeActive, cashfreeTermRequest:
		return models.PaymentStatePending, nil
	case cashfreeExpired, cashfreeTerminated:
		return models.PaymentStateFailed, nil
	default:
		return "", fmt.Errorf("cashfree: %w: unknown order status %q", models.ErrProviderResponse, status)
	}
}
