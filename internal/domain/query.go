package domain

// Discontinued is the tri-state discontinued filter. A nil pointer means
// "any"; the store compares the column against the literal Yes/No value.
type Discontinued string

// Discontinued filter values accepted by the store procedure.
const (
	DiscontinuedYes Discontinued = "Yes"
	DiscontinuedNo  Discontinued = "No"
)

// Valid reports whether d is one of the two accepted literals.
func (d Discontinued) Valid() bool {
	return d == DiscontinuedYes || d == DiscontinuedNo
}

// FilterSet holds the structured constraints extracted from a prompt.
// Every field is independently nullable: nil means unconstrained and is
// passed to the store verbatim as SQL NULL, never omitted. Min/max pairs
// are not validated against each other; an inverted range matches nothing.
type FilterSet struct {
	MinPrice       *float64      `json:"min_price"`
	MaxPrice       *float64      `json:"max_price"`
	MinAvgRating   *float64      `json:"min_avg_rating"`
	MaxAvgRating   *float64      `json:"max_avg_rating"`
	MinRatingCount *int          `json:"min_rating_count"`
	MaxRatingCount *int          `json:"max_rating_count"`
	StoreName      *string       `json:"store_name"`
	Discontinued   *Discontinued `json:"discontinued"`
}
