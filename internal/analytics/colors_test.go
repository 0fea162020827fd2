package analytics

import (
	"strings"
	"testing"
)

func TestColorFor_Known(t *testing.T) {
	// "Food" hashes to 2195582.
	if got := ColorFor("Food"); got != Palette[2195582%len(Palette)] {
		t.Fatalf("ColorFor(Food) = %s", got)
	}
	if got := labelHash("Food"); got != 2195582 {
		t.Fatalf("labelHash(Food) = %d", got)
	}
}

func TestColorFor_StableAndInPalette(t *testing.T) {
	labels := []string{"Food", "Transport", "Gifts & Donations", "EMI / Loans", "කෑම", strings.Repeat("overflowing label ", 40)}
	for _, label := range labels {
		first := ColorFor(label)
		for i := 0; i < 3; i++ {
			if got := ColorFor(label); got != first {
				t.Fatalf("ColorFor(%q) changed: %s then %s", label, first, got)
			}
		}
		found := false
		for _, c := range Palette {
			if c == first {
				found = true
			}
		}
		if !found {
			t.Fatalf("ColorFor(%q) = %s, not in palette", label, first)
		}
	}
}

func TestColorFor_Overflow(t *testing.T) {
	for _, label := range []string{LabelOther, LabelRemaining} {
		if got := ColorFor(label); got != NeutralGray {
			t.Errorf("ColorFor(%q) = %s, want gray", label, got)
		}
		if got := PaletteByOrder(label, 0); got != NeutralGray {
			t.Errorf("PaletteByOrder(%q) = %s, want gray", label, got)
		}
	}
}

func TestLabelHash_Wraps(t *testing.T) {
	h := labelHash(strings.Repeat("z", 64))
	idx := ColorFor(strings.Repeat("z", 64))
	if idx == "" {
		t.Fatalf("empty colour for hash %d", h)
	}
}
