package domain

// Product is a catalog item as stored in the fashion_items table.
// Records are produced by the offline ingestion pipeline; the query
// pipeline only ever reads them.
type Product struct {
	ParentASIN       string   `json:"parent_asin"`
	Title            string   `json:"title"`
	Images           []string `json:"images"`
	AverageRating    float64  `json:"average_rating"`
	RatingNumber     int      `json:"rating_number"`
	Price            *float64 `json:"price"`
	Store            string   `json:"store"`
	DiscontinuedItem string   `json:"discontinued_item"`
}

// Candidate is a product returned by the store's nearest-neighbor search,
// joined with its cosine distance to the query embedding. Candidates arrive
// ordered by ascending distance and that order must be preserved until
// ranking recomputes the final one.
type Candidate struct {
	Product
	CosineDistance float64 `json:"cosine_distance"`
}

// RankedResult is a candidate with its composite score and final position.
type RankedResult struct {
	Candidate
	Score    float64 `json:"score"`
	Position int     `json:"position"`
}
