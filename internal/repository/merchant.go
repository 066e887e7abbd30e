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
	selectMerchantCredentialsQuery = `
						SELECT payment_provider, merchant_id, merchant_secret, merchant_key_index
						FROM restaurants
						WHERE id = $1
`
)

// MerchantRepository reads restaurant payment credentials
type MerchantRepository struct {
	db *postgres.DB
}

// NewMerchantRepository creates new MerchantRepository instance
func NewMerchantRepository(db *postgres.DB) *MerchantRepository {
	return &MerchantRepository{db: db}
}

// GetMerchantCredentials returns credentials of restaurant.
// ErrRestaurantNotFound is returned if restaurant is missing or has no credentials.
func (mr *MerchantRepository) GetMerchantCredentials(ctx context.Context, restaurantID uuid.UUID) (*models.MerchantCredentials, error) {
	var provider, merchantID, secret, keyIndex *string

	err := mr.db.Conn(ctx).QueryRow(ctx, selectMerchantCredentialsQuery, restaurantID).Scan(&provider, &merchantID, &secret, &keyIndex)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrRestaurantNotFound
		}
		return nil, err
	}

	if provider == nil || merchantID == nil || secret == nil || *provider == "" || *merchantID == "" || *secret == "" {
		return nil, models.ErrRestaurantNotFound
	}

	creds := &models.MerchantCredentials{
		RestaurantID: restaurantID,
		Provider:     *provider,
		MerchantID:   *merchantID,
		SecretKey:    *secret,
	}
	if keyIndex != nil {
		creds.KeyIndex = *keyIndex
	}

	return creds, nil
}
