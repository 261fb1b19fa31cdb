package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/pgvector/pgvector-go"

	"github.com/atelierlabs/stylequery/internal/domain"
)

// candidateRow builds one get_fashion_items result row in column order.
func candidateRow(asin string, distance float64) []any {
	return []any{
		asin, "Linen Shirt", []string{"https://img.example/1.jpg"},
		4.3, 120, 39.99, "Seaside Outfitters",
		distance, "No",
	}
}

func TestSearch_NullFiltersPassedThrough(t *testing.T) {
	q := &fakeQuerier{}
	repo := New(q, 0.6, 10)

	_, err := repo.Search(context.Background(), []float32{0.1, 0.2}, domain.FilterSet{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(q.lastArgs) != 11 {
		t.Fatalf("expected 11 args, got %d", len(q.lastArgs))
	}

	vec, ok := q.lastArgs[0].(pgvector.Vector)
	if !ok {
		t.Fatalf("first arg is %T, want pgvector.Vector", q.lastArgs[0])
	}
	if got := vec.Slice(); len(got) != 2 || got[0] != 0.1 {
		t.Errorf("embedding not passed through: %v", got)
	}
	if q.lastArgs[1] != 0.6 {
		t.Errorf("threshold not passed: %v", q.lastArgs[1])
	}
	if q.lastArgs[2] != 10 {
		t.Errorf("match count not passed: %v", q.lastArgs[2])
	}

	// Unconstrained filters must arrive as typed nils, never be omitted.
	for i, arg := range q.lastArgs[3:] {
		switch v := arg.(type) {
		case *float64:
			if v != nil {
				t.Errorf("filter arg %d: expected nil, got %v", i+3, *v)
			}
		case *int:
			if v != nil {
				t.Errorf("filter arg %d: expected nil, got %v", i+3, *v)
			}
		case *string:
			if v != nil {
				t.Errorf("filter arg %d: expected nil, got %v", i+3, *v)
			}
		default:
			t.Errorf("filter arg %d has unexpected type %T", i+3, arg)
		}
	}
}

func TestSearch_FilterValuesVerbatim(t *testing.T) {
	q := &fakeQuerier{}
	repo := New(q, 0.6, 10)

	maxPrice := 75.0
	minRating := 4.0
	store := "Seaside Outfitters"
	disc := domain.DiscontinuedNo
	filters := domain.FilterSet{
		MaxPrice:     &maxPrice,
		MinAvgRating: &minRating,
		StoreName:    &store,
		Discontinued: &disc,
	}

	if _, err := repo.Search(context.Background(), []float32{0.1}, filters); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := q.lastArgs[4].(*float64); got == nil || *got != 75.0 {
		t.Errorf("max_price not passed verbatim: %v", got)
	}
	if got := q.lastArgs[5].(*float64); got == nil || *got != 4.0 {
		t.Errorf("min_avg_rating not passed verbatim: %v", got)
	}
	if got := q.lastArgs[9].(*string); got == nil || *got != store {
		t.Errorf("store_name not passed verbatim: %v", got)
	}
	if got := q.lastArgs[10].(*string); got == nil || *got != "No" {
		t.Errorf("discontinued not passed verbatim: %v", got)
	}
	// Inverted or partial ranges are not validated locally; min_price
	// simply stays NULL here.
	if got := q.lastArgs[3].(*float64); got != nil {
		t.Errorf("min_price should stay nil: %v", *got)
	}
}

func TestSearch_PreservesStoreOrder(t *testing.T) {
	q := &fakeQuerier{rows: [][]any{
		candidateRow("B001", 0.05),
		candidateRow("B002", 0.11),
		candidateRow("B003", 0.38),
	}}
	repo := New(q, 0.6, 10)

	got, err := repo.Search(context.Background(), []float32{0.1}, domain.FilterSet{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	for i, want := range []string{"B001", "B002", "B003"} {
		if got[i].ParentASIN != want {
			t.Errorf("candidate %d: got %s, want %s", i, got[i].ParentASIN, want)
		}
	}
	if got[0].CosineDistance != 0.05 {
		t.Errorf("distance not scanned: %v", got[0].CosineDistance)
	}
	if got[0].AverageRating != 4.3 || got[0].RatingNumber != 120 {
		t.Errorf("ratings not scanned: %+v", got[0])
	}
	if got[0].Price == nil || *got[0].Price != 39.99 {
		t.Errorf("price not scanned: %v", got[0].Price)
	}
}

func TestSearch_NullColumnsCollapse(t *testing.T) {
	q := &fakeQuerier{rows: [][]any{{
		"B009", "Mystery Glove", nil,
		nil, nil, nil, nil,
		0.2, nil,
	}}}
	repo := New(q, 0.6, 10)

	got, err := repo.Search(context.Background(), []float32{0.1}, domain.FilterSet{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := got[0]
	if c.AverageRating != 0 || c.RatingNumber != 0 {
		t.Errorf("absent ratings must collapse to zero: %+v", c)
	}
	if c.Price != nil {
		t.Errorf("absent price must stay nil: %v", *c.Price)
	}
	if c.Store != "" || c.DiscontinuedItem != "" {
		t.Errorf("absent strings must collapse to empty: %+v", c)
	}
}

func TestSearch_EmptyIsNotAnError(t *testing.T) {
	repo := New(&fakeQuerier{}, 0.6, 10)

	got, err := repo.Search(context.Background(), []float32{0.1}, domain.FilterSet{})
	if err != nil {
		t.Fatalf("expected no error for zero matches, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty candidates, got %d", len(got))
	}
}

func TestSearch_QueryErrorSurfaces(t *testing.T) {
	repo := New(&fakeQuerier{queryErr: errors.New("connection refused")}, 0.6, 10)

	if _, err := repo.Search(context.Background(), []float32{0.1}, domain.FilterSet{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestGetItem_NotFound(t *testing.T) {
	repo := New(&fakeQuerier{}, 0.6, 10)

	_, err := repo.GetItem(context.Background(), "B0MISSING")
	if !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestGetItem_OK(t *testing.T) {
	q := &fakeQuerier{rows: [][]any{{
		"B001", "Silk Scarf", []string{"https://img.example/2.jpg"},
		4.8, 9400, 24.50, "Maison Rouge", "No",
	}}}
	repo := New(q, 0.6, 10)

	p, err := repo.GetItem(context.Background(), "B001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ParentASIN != "B001" || p.Title != "Silk Scarf" || p.Store != "Maison Rouge" {
		t.Errorf("unexpected product: %+v", p)
	}
}
