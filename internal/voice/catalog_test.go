package voice

import "testing"

func TestCatalogIntegrity(t *testing.T) {
	if len(Catalog) != 30 {
		t.Fatalf("catalog has %d voices, want 30", len(Catalog))
	}
	seen := make(map[string]bool)
	for _, v := range Catalog {
		if v.Name == "" || v.Description == "" {
			t.Fatalf("incomplete catalog entry: %+v", v)
		}
		if seen[v.Name] {
			t.Fatalf("duplicate voice name %q", v.Name)
		}
		seen[v.Name] = true
	}
	if !IsValid(Default) {
		t.Fatalf("default voice %q not in catalog", Default)
	}
	for _, name := range Featured {
		if !IsValid(name) {
			t.Fatalf("featured voice %q not in catalog", name)
		}
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("Puck") {
		t.Fatal("Puck should be valid")
	}
	if IsValid("puck") {
		t.Fatal("names are case-sensitive")
	}
	if IsValid("") {
		t.Fatal("empty name should be invalid")
	}
}

func TestDescription(t *testing.T) {
	if Description("Kore") == "Unknown voice" {
		t.Fatal("catalog voice reported as unknown")
	}
	if Description("NotAVoice") != "Unknown voice" {
		t.Fatal("unknown voice should report as such")
	}
}

func TestNamesStableOrder(t *testing.T) {
	first := Names()
	second := Names()
	if len(first) != len(Catalog) {
		t.Fatalf("Names() returned %d entries", len(first))
	}
	for i := range first {
		if first[i] != second[i] || first[i] != Catalog[i].Name {
			t.Fatalf("unstable name order at %d: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestSuggestForTrait(t *testing.T) {
	tests := []struct {
		trait string
		want  string
	}{
		{"calm", "Autonoe"}, // exact character match
		{"a funny old man", "Schedar"},
		{"funny", "Puck"},
		{"completely unknown trait", "Charon"},
	}
	for _, tt := range tests {
		if got := SuggestForTrait(tt.trait); got != tt.want {
			t.Fatalf("SuggestForTrait(%q) = %q, want %q", tt.trait, got, tt.want)
		}
	}
}
