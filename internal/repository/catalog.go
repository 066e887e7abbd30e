package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rookgm/foodorder/internal/models"
	"github.com/rookgm/foodorder/internal/repository/postgres"
)

const (
	selectItemsForOrderQuery = `
						SELECT id, name, price FROM items
						WHERE id = ANY($1) AND restaurant_id = $2 AND available
`
)

// CatalogRepository reads menu items
type CatalogRepository struct {
	db *postgres.DB
}

// NewCatalogRepository creates new CatalogRepository instance
func NewCatalogRepository(db *postgres.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

type catalogItem struct {
	name  string
	price int64
}

// ResolveItems returns current name and price of every requested item.
// It fails with ErrItemNotFound if any item is missing, belongs to another
// restaurant or is unavailable.
func (cr *CatalogRepository) ResolveItems(ctx context.Context, restaurantID uuid.UUID, requested []models.RequestedItem) ([]models.ResolvedItem, error) {
	ids := make([]uuid.UUID, 0, len(requested))
	for _, r := range requested {
		ids = append(ids, r.ItemID)
	}

	rows, err := cr.db.Conn(ctx).Query(ctx, selectItemsForOrderQuery, ids, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[uuid.UUID]catalogItem, len(ids))
	for rows.Next() {
		var (
			id   uuid.UUID
			item catalogItem
		)
		if err := rows.Scan(&id, &item.name, &item.price); err != nil {
			return nil, err
		}
		found[id] = item
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	resolved := make([]models.ResolvedItem, 0, len(requested))
	for _, r := range requested {
		item, ok := found[r.ItemID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", models.ErrItemNotFound, r.ItemID)
		}
		resolved = append(resolved, models.ResolvedItem{
			ItemID:   r.ItemID,
			Name:     item.name,
			Price:    item.price,
			Quantity: r.Quantity,
		})
	}

	return resolved, nil
}
