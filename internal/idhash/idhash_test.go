package idhash

import (
	"testing"
)

func TestComputeWagerID(t *testing.T) {
	got := ComputeWagerID("run-1", "game-42", 1736121600000)

	if len(got) != 64 {
		t.Errorf("ComputeWagerID() length = %d, want 64", len(got))
	}

	// Same inputs produce the same id.
	if got2 := ComputeWagerID("run-1", "game-42", 1736121600000); got != got2 {
		t.Errorf("ComputeWagerID() not deterministic: %s != %s", got, got2)
	}

	// Any changed input produces a different id.
	variants := []string{
		ComputeWagerID("run-2", "game-42", 1736121600000),
		ComputeWagerID("run-1", "game-43", 1736121600000),
		ComputeWagerID("run-1", "game-42", 1736121600001),
	}
	for i, v := range variants {
		if v == got {
			t.Errorf("variant %d collided with base id", i)
		}
	}
}

func TestComputeRunID(t *testing.T) {
	got := ComputeRunID("kelly-quarter", "", 1000, 500, 1736121600000, 1736208000000)

	if len(got) != 64 {
		t.Errorf("ComputeRunID() length = %d, want 64", len(got))
	}

	if got2 := ComputeRunID("kelly-quarter", "", 1000, 500, 1736121600000, 1736208000000); got != got2 {
		t.Errorf("ComputeRunID() not deterministic: %s != %s", got, got2)
	}

	if other := ComputeRunID("kelly-quarter", "FIXED_AMOUNT", 1000, 500, 1736121600000, 1736208000000); other == got {
		t.Error("sizing override should change the run id")
	}
}
