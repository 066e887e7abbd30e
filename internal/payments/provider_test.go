package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/rookgm/foodorder/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name   string
	handle SessionHandle
	state  models.PaymentState
	err    error
	calls  int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) CreateSession(_ context.Context, _ SessionRequest, _ models.MerchantCredentials) (SessionHandle, error) {
	s.calls++
	return s.handle, s.err
}

func (s *stubProvider) VerifyStatus(_ context.Context, _ string, _ models.MerchantCredentials) (models.PaymentState, error) {
	s.calls++
	return s.state, s.err
}

func TestNewManager(t *testing.T) {
	_, err := NewManager()
	assert.Error(t, err)

	_, err = NewManager(nil)
	assert.Error(t, err)
}

func TestManager_Dispatch(t *testing.T) {
	phonepe := &stubProvider{name: ProviderPhonePe, handle: SessionHandle{RedirectURL: "https://pay"}, state: models.PaymentStatePaid}
	cashfree := &stubProvider{name: ProviderCashfree, handle: SessionHandle{RedirectURL: "session"}, state: models.PaymentStateFailed}

	m, err := NewManager(phonepe, cashfree)
	require.NoError(t, err)

	ctx := context.Background()

	h, err := m.CreateSession(ctx, SessionRequest{TxnID: "T"}, models.MerchantCredentials{Provider: "PhonePe"})
	require.NoError(t, err)
	assert.Equal(t, "https://pay", h.RedirectURL)

	state, err := m.VerifyStatus(ctx, "T", models.MerchantCredentials{Provider: "cashfree"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStateFailed, state)

	assert.Equal(t, 1, phonepe.calls)
	assert.Equal(t, 1, cashfree.calls)
}

func TestManager_UnsupportedProvider(t *testing.T) {
	m, err := NewManager(&stubProvider{name: ProviderPhonePe})
	require.NoError(t, err)

	_, err = m.CreateSession(context.Background(), SessionRequest{}, models.MerchantCredentials{Provider: "stripe"})
	assert.ErrorIs(t, err, models.ErrUnsupportedProvider)

	_, err = m.VerifyStatus(context.Background(), "T", models.MerchantCredentials{Provider: ""})
	assert.ErrorIs(t, err, models.ErrUnsupportedProvider)
}

func TestManager_ProviderError(t *testing.T) {
	m, err := NewManager(&stubProvider{name: ProviderPhonePe, err: models.ErrProviderUnavailable})
	require.NoError(t, err)

	_, err = m.VerifyStatus(context.Background(), "T", models.MerchantCredentials{Provider: ProviderPhonePe})
	assert.True(t, errors.Is(err, models.ErrProviderUnavailable))
}

func TestNewTransactionID(t *testing.T) {
	a, b := NewTransactionID(), NewTransactionID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}
