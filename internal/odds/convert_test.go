package odds

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFromAmerican(t *testing.T) {
	tests := []struct {
		name     string
		american float64
		want     float64
		wantErr  bool
	}{
		{"positive underdog", 150, 2.50, false},
		{"even money", 100, 2.00, false},
		{"negative favourite", -200, 1.50, false},
		{"heavy favourite", -110, 1 + 100.0/110.0, false},
		{"zero invalid", 0, 0, true},
		{"inside dead zone", 50, 0, true},
		{"negative dead zone", -99, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAmerican(tt.american)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %v, got %v", tt.american, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !almostEqual(got, tt.want) {
				t.Errorf("FromAmerican(%v) = %v, want %v", tt.american, got, tt.want)
			}
		})
	}
}

func TestFromFractional(t *testing.T) {
	got, err := FromFractional(5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(got, 3.5) {
		t.Errorf("FromFractional(5,2) = %v, want 3.5", got)
	}

	if _, err := FromFractional(0, 2); err == nil {
		t.Error("expected error for zero numerator")
	}
	if _, err := FromFractional(5, 0); err == nil {
		t.Error("expected error for zero denominator")
	}
}

func TestImpliedProbability(t *testing.T) {
	got, err := ImpliedProbability(2.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(got, 0.5) {
		t.Errorf("ImpliedProbability(2.0) = %v, want 0.5", got)
	}

	if _, err := ImpliedProbability(1.0); err == nil {
		t.Error("expected error for decimal odds of 1.0")
	}
}

func TestToAmericanRoundTrip(t *testing.T) {
	for _, american := range []float64{150, -200, 100, -110, 300} {
		decimal, err := FromAmerican(american)
		if err != nil {
			t.Fatalf("FromAmerican(%v): %v", american, err)
		}
		back, err := ToAmerican(decimal)
		if err != nil {
			t.Fatalf("ToAmerican(%v): %v", decimal, err)
		}
		if !almostEqual(back, american) {
			t.Errorf("round trip %v -> %v -> %v", american, decimal, back)
		}
	}
}
