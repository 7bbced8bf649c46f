package theme

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		id     string
		wantOK bool
	}{
		{"cyber", true},
		{"luxe", true},
		{"minimal", true},
		{" LUXE ", true},
		{"retro", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			th, ok := Lookup(tt.id)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.id, ok, tt.wantOK)
			}
			if ok && !IsTransition(th.Transition) {
				t.Errorf("theme %s has unknown transition %q", th.ID, th.Transition)
			}
			if ok && !IsTextStyle(th.TextAnimation) {
				t.Errorf("theme %s has unknown text animation %q", th.ID, th.TextAnimation)
			}
		})
	}
}

func TestCatalogIsReadOnly(t *testing.T) {
	th, _ := Lookup(Luxe)
	th.Colors.Primary = "#000000"
	th.KenBurnsScale = 9

	again, _ := Lookup(Luxe)
	if again.Colors.Primary != "#d4af37" {
		t.Errorf("catalog mutated through returned value: %s", again.Colors.Primary)
	}
	if again.KenBurnsScale != 1.15 {
		t.Errorf("catalog mutated through returned value: %f", again.KenBurnsScale)
	}
}

func TestAllMatchesIDs(t *testing.T) {
	all := All()
	if len(all) != 3 {
		t.Fatalf("expected exactly 3 presets, got %d", len(all))
	}
	for i, id := range IDs() {
		if all[i].ID != id {
			t.Errorf("All()[%d] = %s, want %s", i, all[i].ID, id)
		}
	}
	if Default().ID != Cyber {
		t.Errorf("default theme = %s, want cyber", Default().ID)
	}
}
