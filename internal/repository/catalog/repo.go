// Package catalog reads the fashion_items catalog from Postgres. The
// nearest-neighbor computation itself lives in the get_fashion_items stored
// procedure (pgvector cosine index); this repository only passes parameters
// through and scans rows back.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/atelierlabs/stylequery/internal/domain"
)

// querier is the consumer interface over pgxpool.Pool (ISP).
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// searchQuery calls the store procedure. The procedure applies
// `param IS NULL OR predicate` per filter, converts the similarity
// threshold t into a maximum cosine distance 1-t, orders by ascending
// distance, and caps the row count at min(match_count, 100).
const searchQuery = `
SELECT parent_asin, title, images, average_rating, rating_number, price, store, cosine_distance, discontinued_item
FROM get_fashion_items(
	$1, $2, $3,
	min_price        => $4,
	max_price        => $5,
	min_avg_rating   => $6,
	max_avg_rating   => $7,
	min_rating_count => $8,
	max_rating_count => $9,
	store_name       => $10,
	discontinued     => $11
)`

const getItemQuery = `
SELECT parent_asin, title, images, average_rating, rating_number, price, store, discontinued_item
FROM fashion_items
WHERE parent_asin = $1`

// Repo retrieves candidates and single items from the catalog store.
type Repo struct {
	db        querier
	threshold float64
	count     int
}

// New creates a catalog repository. matchThreshold is the similarity
// threshold t passed to the store; matchCount the requested candidate cap.
func New(db querier, matchThreshold float64, matchCount int) *Repo {
	return &Repo{db: db, threshold: matchThreshold, count: matchCount}
}

// Search runs the filtered nearest-neighbor query. Every filter field is
// passed verbatim; nil pointers become SQL NULL, meaning unconstrained.
// The store's ascending-distance order is preserved. No matching rows is a
// valid outcome and returns an empty slice, not an error.
func (r *Repo) Search(ctx context.Context, embedding []float32, filters domain.FilterSet) ([]domain.Candidate, error) {
	rows, err := r.db.Query(ctx, searchQuery,
		pgvector.NewVector(embedding),
		r.threshold,
		r.count,
		filters.MinPrice,
		filters.MaxPrice,
		filters.MinAvgRating,
		filters.MaxAvgRating,
		filters.MinRatingCount,
		filters.MaxRatingCount,
		filters.StoreName,
		(*string)(filters.Discontinued),
	)
	if err != nil {
		return nil, fmt.Errorf("search fashion items: %w", err)
	}
	defer rows.Close()

	candidates := make([]domain.Candidate, 0, r.count)
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fashion item: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read fashion items: %w", err)
	}

	return candidates, nil
}

// GetItem fetches a single catalog item by its parent ASIN.
func (r *Repo) GetItem(ctx context.Context, parentASIN string) (domain.Product, error) {
	row := r.db.QueryRow(ctx, getItemQuery, parentASIN)

	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("item %s: %w", parentASIN, domain.ErrItemNotFound)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("get fashion item %s: %w", parentASIN, err)
	}

	return p, nil
}
