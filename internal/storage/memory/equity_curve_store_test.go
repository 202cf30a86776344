package memory

import (
	"context"
	"errors"
	"testing"

	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/storage"
)

func TestEquityCurveStore_InsertBulkAndGet(t *testing.T) {
	store := NewEquityCurveStore()
	ctx := context.Background()

	points := []*domain.EquityPoint{
		{RunID: "run1", Seq: 2, Timestamp: 3000, Balance: 980},
		{RunID: "run1", Seq: 0, Timestamp: 1000, Balance: 1000},
		{RunID: "run1", Seq: 1, Timestamp: 2000, Balance: 1050},
		{RunID: "run2", Seq: 0, Timestamp: 1000, Balance: 500},
	}

	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(got))
	}
	for i, want := range []int64{1000, 2000, 3000} {
		if got[i].Timestamp != want {
			t.Errorf("got[%d].Timestamp = %d, want %d", i, got[i].Timestamp, want)
		}
	}
}

func TestEquityCurveStore_DuplicateSeq(t *testing.T) {
	store := NewEquityCurveStore()
	ctx := context.Background()

	first := []*domain.EquityPoint{{RunID: "run1", Seq: 0, Timestamp: 1000, Balance: 1000}}
	if err := store.InsertBulk(ctx, first); err != nil {
		t.Fatalf("First InsertBulk failed: %v", err)
	}

	dup := []*domain.EquityPoint{
		{RunID: "run1", Seq: 1, Timestamp: 2000, Balance: 1010},
		{RunID: "run1", Seq: 0, Timestamp: 3000, Balance: 999},
	}
	err := store.InsertBulk(ctx, dup)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Failed batch must not be partially applied
	got, _ := store.GetByRunID(ctx, "run1")
	if len(got) != 1 {
		t.Errorf("Expected 1 point after failed batch, got %d", len(got))
	}
}

func TestEquityCurveStore_SharedTimestamp(t *testing.T) {
	store := NewEquityCurveStore()
	ctx := context.Background()

	// Deferred settlements can land on the same millisecond; seq keeps
	// the points distinct.
	points := []*domain.EquityPoint{
		{RunID: "run1", Seq: 0, Timestamp: 1000, Balance: 1000},
		{RunID: "run1", Seq: 1, Timestamp: 1000, Balance: 1050},
		{RunID: "run1", Seq: 2, Timestamp: 1000, Balance: 1020},
	}
	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed for same-timestamp points: %v", err)
	}

	got, err := store.GetByRunID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(got))
	}
	for i, want := range []float64{1000, 1050, 1020} {
		if got[i].Balance != want {
			t.Errorf("got[%d].Balance = %f, want %f", i, got[i].Balance, want)
		}
	}
}

func TestEquityCurveStore_GetByTimeRange(t *testing.T) {
	store := NewEquityCurveStore()
	ctx := context.Background()

	points := []*domain.EquityPoint{
		{RunID: "run1", Seq: 0, Timestamp: 1000, Balance: 1000},
		{RunID: "run1", Seq: 1, Timestamp: 2000, Balance: 1050},
		{RunID: "run1", Seq: 2, Timestamp: 3000, Balance: 980},
	}
	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByTimeRange(ctx, "run1", 2000, 3000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 points in [2000, 3000], got %d", len(got))
	}
	if got[0].Balance != 1050 || got[1].Balance != 980 {
		t.Errorf("Range result wrong: got [%f, %f]", got[0].Balance, got[1].Balance)
	}
}
