// Package product serves single-item lookups by parent ASIN.
package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/atelierlabs/stylequery/internal/domain"
)

// ErrEmptyID is returned for a blank parent ASIN.
var ErrEmptyID = fmt.Errorf("parent asin is required")

// Service handles catalog item reads.
type Service struct {
	repo Repository
}

// New creates a product service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get fetches one catalog item.
func (s *Service) Get(ctx context.Context, parentASIN string) (domain.Product, error) {
	if strings.TrimSpace(parentASIN) == "" {
		return domain.Product{}, ErrEmptyID
	}

	p, err := s.repo.GetItem(ctx, parentASIN)
	if err != nil {
		return domain.Product{}, fmt.Errorf("get item: %w", err)
	}
	return p, nil
}
