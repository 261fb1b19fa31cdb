package domain

// SearchResponse is the query pipeline's final output, handed to the HTTP
// layer for serialization. Results may be empty; an empty result set is a
// valid outcome communicated via Warnings, never via an error.
type SearchResponse struct {
	Results        []RankedResult `json:"results"`
	Recommendation *string        `json:"recommendation"`
	Warnings       []string       `json:"warnings"`
	FiltersApplied FilterSet      `json:"filters"`
}
