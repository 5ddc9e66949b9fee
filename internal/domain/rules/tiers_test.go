package rules

import (
	"testing"

	"github.com/dottenv/dating-bot/internal/domain/enums"
)

func TestClassifyTierBands(t *testing.T) {
	th := DefaultTierThresholds()

	cases := []struct {
		rating int
		want   enums.Tier
	}{
		{rating: 1000, want: enums.TierHigh},
		{rating: 700, want: enums.TierHigh},
		{rating: 699, want: enums.TierMedium},
		{rating: 300, want: enums.TierMedium},
		{rating: 299, want: enums.TierLow},
		{rating: 0, want: enums.TierLow},
		{rating: -50, want: enums.TierLow},
	}

	for _, tc := range cases {
		if got := ClassifyTier(tc.rating, th); got != tc.want {
			t.Fatalf("rating %d: got tier %s want %s", tc.rating, got, tc.want)
		}
	}
}

func TestClassifyTierCustomThresholds(t *testing.T) {
	th := TierThresholds{High: 70, Medium: 40}

	if got := ClassifyTier(55, th); got != enums.TierMedium {
		t.Fatalf("got tier %s want %s", got, enums.TierMedium)
	}
	if got := ClassifyTier(70, th); got != enums.TierHigh {
		t.Fatalf("got tier %s want %s", got, enums.TierHigh)
	}
}

func TestSearchTiersOwnTierFirst(t *testing.T) {
	got := SearchTiers(enums.TierMedium)
	want := []enums.Tier{enums.TierMedium, enums.TierHigh, enums.TierLow}

	if len(got) != len(want) {
		t.Fatalf("unexpected tier count: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestSearchTiersCoverAllTiers(t *testing.T) {
	for _, own := range enums.AllTiers {
		got := SearchTiers(own)
		seen := map[enums.Tier]bool{}
		for _, tier := range got {
			seen[tier] = true
		}
		for _, tier := range enums.AllTiers {
			if !seen[tier] {
				t.Fatalf("own tier %s: scan order misses %s", own, tier)
			}
		}
	}
}
