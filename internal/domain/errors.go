package domain

import "errors"

var (
	// ErrUpstream signals a failed or timed-out call to the model service
	// or the store. Fatal for the extractor, embedder, and retriever;
	// the composer degrades gracefully instead.
	ErrUpstream = errors.New("upstream service error")
	// ErrSchemaViolation signals a structured model response that does not
	// conform to the extraction schema. Treated the same as ErrUpstream.
	ErrSchemaViolation = errors.New("schema violation in model response")
	// ErrItemNotFound signals a missing catalog item.
	ErrItemNotFound = errors.New("item not found")
)
