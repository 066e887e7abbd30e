package payments

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rookgm/foodorder/internal/logger"
	"github.com/rookgm/foodorder/internal/models"
	"go.uber.org/zap"
)

const (
	phonePePayPath    = "/pg/v1/pay"
	phonePeStatusPath = "/pg/v1/status"
)

// PhonePe transaction codes
const (
	phonePeSuccess  = "PAYMENT_SUCCESS"
	phonePePending  = "PAYMENT_PENDING"
	phonePeError    = "PAYMENT_ERROR"
	phonePeDeclined = "PAYMENT_DECLINED"
	phonePeTimedOut = "TIMED_OUT"
	phonePeAuthFail = "AUTHORIZATION_FAILED"
)

type PhonePe struct {
	baseURL string
	client  *http.Client
}

// NewPhonePe creates new PhonePe provider instance
func NewPhonePe(baseURL string, timeout time.Duration) *PhonePe {
	return &PhonePe{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(timeout),
	}
}

func (p *PhonePe) Name() string {
	return ProviderPhonePe
}

type phonePeInstrument struct {
	Type string `json:"type"`
}

type phonePePayRequest struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	PaymentInstrument     phonePeInstrument `json:"paymentInstrument"`
}

type phonePeEnvelope struct {
	Request string `json:"request"`
}

type phonePeResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		State                 string `json:"state"`
		InstrumentResponse    struct {
			RedirectInfo struct {
				URL    string `json:"url"`
				Method string `json:"method"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

// CreateSession initiates a pay page transaction and returns its redirect url
func (p *PhonePe) CreateSession(ctx context.Context, req SessionRequest, creds models.MerchantCredentials) (SessionHandle, error) {
	payload := phonePePayRequest{
		MerchantID:            creds.MerchantID,
		MerchantTransactionID: req.TxnID,
		MerchantUserID:        strings.ReplaceAll(req.CustomerID.String(), "-", ""),
		Amount:                req.Amount,
		RedirectURL:           req.RedirectURL,
		RedirectMode:          "REDIRECT",
		CallbackURL:           req.CallbackURL,
		PaymentInstrument:     phonePeInstrument{Type: "PAY_PAGE"},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return SessionHandle{}, err
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	endpoint, err := url.JoinPath(p.baseURL, phonePePayPath)
	if err != nil {
		return SessionHandle{}, err
	}

	headers := map[string]string{
		"X-VERIFY": Sign(encoded, phonePePayPath, creds.SecretKey, creds.KeyIndex),
	}

	var resp phonePeResponse
	if err := doJSON(ctx, p.client, http.MethodPost, endpoint, headers, phonePeEnvelope{Request: encoded}, &resp); err != nil {
		return SessionHandle{}, fmt.Errorf("phonepe: create session: %w", err)
	}

	redirect := resp.Data.InstrumentResponse.RedirectInfo.URL
	if !resp.Success || redirect == "" {
		logger.Log.Debug("phonepe rejected pay request",
			zap.String("txn_id", req.TxnID),
			zap.String("code", resp.Code),
			zap.String("message", resp.Message),
		)
		return SessionHandle{}, fmt.Errorf("phonepe: create session: %w: code %q", models.ErrProviderResponse, resp.Code)
	}

	return SessionHandle{RedirectURL: redirect}, nil
}

// VerifyStatus checks the transaction status
func (p *PhonePe) VerifyStatus(ctx context.Context, txnID string, creds models.MerchantCredentials) (models.PaymentState, error) {
	path := phonePeStatusPath + "/" + creds.MerchantID + "/" + txnID

	endpoint, err := url.JoinPath(p.baseURL, path)
	if err != nil {
		return "", err
	}

	headers := map[string]string{
		"X-VERIFY":      Sign("", path, creds.SecretKey, creds.KeyIndex),
		"X-MERCHANT-ID": creds.MerchantID,
	}

	var resp phonePeResponse
	if err := doJSON(ctx, p.client, http.MethodGet, endpoint, headers, nil, &resp); err != nil {
		return "", fmt.Errorf("phonepe: verify status: %w", err)
	}

	return phonePeState(resp.Code)
}

func phonePeState(code string) (models.PaymentState, error) {
	switch code {
	case phonePeSuccess:
		return models.PaymentStatePaid, nil
	case phonePePending:
		return models.PaymentStatePending, nil
	case phonePeError, phonePeDeclined, phonePeTimedOut, phonePeAuthFail:
		return models.PaymentStateFailed, nil
	default:
		return "", fmt.Errorf("phonepe: %w: unknown code %q", models.ErrProviderResponse, code)
	}
}
