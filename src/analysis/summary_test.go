package analysis

import (
	"errors"
	"testing"
)

func TestNewSummaryOddCount(t *testing.T) {
	s, err := newSummary([]float64{3, 1, 2})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Min != 1 || s.Max != 3 || !almostEqual(s.Avg, 2) || s.Median != 2 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestNewSummaryEvenCount(t *testing.T) {
	s, err := newSummary([]float64{4, 1, 3, 2})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Median != 2.5 {
		t.Fatalf("even-count median should average the middle pair: %v", s.Median)
	}
}

func TestNewSummarySingleValue(t *testing.T) {
	s, err := newSummary([]float64{42})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Min != 42 || s.Max != 42 || s.Avg != 42 || s.Median != 42 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestNewSummaryEmptyErrors(t *testing.T) {
	if _, err := newSummary(nil); !errors.Is(err, ErrNoEstimates) {
		t.Fatalf("expected ErrNoEstimates got %v", err)
	}
}

func TestNewSummaryDoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	if _, err := newSummary(values); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Fatalf("caller slice was reordered: %v", values)
	}
}
