package product

import (
	"context"

	"github.com/atelierlabs/stylequery/internal/domain"
)

// Repository reads single catalog items.
type Repository interface {
	GetItem(ctx context.Context, parentASIN string) (domain.Product, error)
}
