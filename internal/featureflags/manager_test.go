package featureflags

import "testing"

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("reports=on,signup_disabled=off,mod_queue=true,rehash=false,pins=1,legacy=0")

	if !m.Enabled("reports", 1) || !m.Enabled("mod_queue", 1) || !m.Enabled("pins", 1) {
		t.Fatal("expected enabled boolean values to evaluate true")
	}
	if m.Enabled("signup_disabled", 1) || m.Enabled("rehash", 1) || m.Enabled("legacy", 1) {
		t.Fatal("expected disabled boolean values to evaluate false")
	}
}

func TestEnabled_MissingFlagIsOff(t *testing.T) {
	m := NewManager("reports=on")

	if m.Enabled("signup_disabled", 7) {
		t.Fatal("an unconfigured flag must be off")
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("everyone=100%,nobody=0%,image_variants=25%")

	if !m.Enabled("everyone", 1) {
		t.Fatal("100% rollout should always be enabled")
	}
	if m.Enabled("nobody", 1) {
		t.Fatal("0% rollout should always be disabled")
	}

	first := m.Enabled("image_variants", 42)
	for i := 0; i < 5; i++ {
		if got := m.Enabled("image_variants", 42); got != first {
			t.Fatal("rollout evaluation must be deterministic per user")
		}
	}

	if m.Enabled("image_variants", 0) {
		t.Fatal("percentage rollout requires non-zero userID")
	}
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" broken ,reports=on, image_variants = 20% ,signup_disabled=off ")

	raw := m.Raw()
	if len(raw) != 3 {
		t.Fatalf("expected 3 parsed flags, got %d", len(raw))
	}
	if raw["reports"] != "on" || raw["image_variants"] != "20%" || raw["signup_disabled"] != "off" {
		t.Fatalf("unexpected raw flags: %#v", raw)
	}

	snap := m.Snapshot(123)
	if len(snap) != 3 {
		t.Fatalf("expected snapshot size 3, got %d", len(snap))
	}
}
