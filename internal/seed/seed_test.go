package seed

import "testing"

func TestComputeCounts_Default(t *testing.T) {
	active, pending, sold, rejected := computeCounts(20, defaultDistribution)
	if active+pending+sold+rejected != 20 {
		t.Fatalf("sum mismatch: got %d", active+pending+sold+rejected)
	}
	if active != 12 || pending != 4 || sold != 3 || rejected != 1 {
		t.Fatalf("unexpected default counts: active=%d, pending=%d, sold=%d, rejected=%d",
			active, pending, sold, rejected)
	}
}

func TestComputeCounts_RemainderGoesToActive(t *testing.T) {
	active, pending, sold, rejected := computeCounts(7, defaultDistribution)
	if active+pending+sold+rejected != 7 {
		t.Fatalf("sum mismatch: got %d", active+pending+sold+rejected)
	}
	if active < pending || active < sold || active < rejected {
		t.Fatalf("active should absorb rounding remainder: active=%d, pending=%d, sold=%d, rejected=%d",
			active, pending, sold, rejected)
	}
}

func TestBuiltInCategories_UniqueSlugs(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range BuiltInCategories {
		if c.Slug == "" {
			t.Fatalf("category %q has empty slug", c.Name)
		}
		if seen[c.Slug] {
			t.Fatalf("duplicate category slug %q", c.Slug)
		}
		seen[c.Slug] = true
	}
	if !seen["other"] {
		t.Fatalf("catch-all 'other' category missing")
	}
}
