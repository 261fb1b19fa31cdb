package catalog

import (
	"github.com/jackc/pgx/v5"

	"github.com/atelierlabs/stylequery/internal/domain"
)

// scanCandidate scans one get_fashion_items row. Rating, price, store, and
// the discontinued flag are nullable in the catalog; absent values collapse
// to zero values (price stays a pointer — absent and free are different).
func scanCandidate(rows pgx.Rows) (domain.Candidate, error) {
	var (
		c     domain.Candidate
		avg   *float64
		count *int
		store *string
		disc  *string
	)

	err := rows.Scan(
		&c.ParentASIN, &c.Title, &c.Images,
		&avg, &count, &c.Price, &store,
		&c.CosineDistance, &disc,
	)
	if err != nil {
		return domain.Candidate{}, err
	}

	c.Product = fillNullable(c.Product, avg, count, store, disc)
	return c, nil
}

// scanProduct scans one fashion_items row (no distance column).
func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p     domain.Product
		avg   *float64
		count *int
		store *string
		disc  *string
	)

	err := row.Scan(
		&p.ParentASIN, &p.Title, &p.Images,
		&avg, &count, &p.Price, &store, &disc,
	)
	if err != nil {
		return domain.Product{}, err
	}

	return fillNullable(p, avg, count, store, disc), nil
}

func fillNullable(p domain.Product, avg *float64, count *int, store, disc *string) domain.Product {
	if avg != nil {
		p.AverageRating = *avg
	}
	if count != nil {
		p.RatingNumber = *count
	}
	if store != nil {
		p.Store = *store
	}
	if disc != nil {
		p.DiscontinuedItem = *disc
	}
	return p
}
