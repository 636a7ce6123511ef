package models

import "testing"

func TestTierFor(t *testing.T) {
	cases := []struct {
		level float64
		want  RiskTier
	}{
		{0.0, RiskLow},
		{0.29, RiskLow},
		{0.30, RiskModerate},
		{0.69, RiskModerate},
		{0.70, RiskHigh},
		{0.84, RiskHigh},
		{0.85, RiskCritical},
		{1.0, RiskCritical},
	}
	for _, tc := range cases {
		if got := TierFor(tc.level); got != tc.want {
			t.Fatalf("TierFor(%v) = %q, want %q", tc.level, got, tc.want)
		}
	}
}
