package docs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRules_ClassifyAuthority(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		path string
		want AuthorityBand
	}{
		{"canon/retry.md", BandGoverning},
		{"Canon/Retry.md", BandGoverning},
		{"pattern-library/cache.md", BandGoverning},
		{"docs/operational/oncall.md", BandOperational},
		{"docs/guide.md", BandNonGoverning},
		{"README.md", BandNonGoverning},
		{"notes/canon/x.md", BandNonGoverning},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := rules.ClassifyAuthority(tt.path); got != tt.want {
				t.Errorf("ClassifyAuthority(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func TestDefaultRules_ClassifyIntent(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		path string
		want Intent
	}{
		{"canon/retry.md", IntentPromoted},
		{"canon/workarounds/x.md", IntentPromoted},
		{"patterns/cache.md", IntentPattern},
		{"pattern-library/cache.md", IntentPattern},
		{"notes/workarounds/flaky.md", IntentWorkaround},
		{"notes/db-workaround.md", IntentWorkaround},
		{"lab/experiments/x.md", IntentExperiment},
		{"docs/guide.md", IntentOperational},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := rules.ClassifyIntent(tt.path); got != tt.want {
				t.Errorf("ClassifyIntent(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func TestLoadRules_Missing(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "rules.toml"))
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if len(rules.Authority) != len(DefaultRules().Authority) {
		t.Error("expected default authority rules")
	}
}

func TestLoadRules_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	content := `
default_intent = "experiment"

[[authority]]
prefix = "governance/"
band = "governing"

[[intent]]
contains = "adr"
intent = "pattern"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if got := rules.ClassifyAuthority("governance/a.md"); got != BandGoverning {
		t.Errorf("governance/ band = %s, want governing", got)
	}
	if got := rules.ClassifyAuthority("canon/a.md"); got != BandNonGoverning {
		t.Errorf("canon/ band = %s, want non-governing after override", got)
	}
	if got := rules.ClassifyIntent("docs/adr-001.md"); got != IntentPattern {
		t.Errorf("adr intent = %s, want pattern", got)
	}
	if got := rules.ClassifyIntent("docs/guide.md"); got != IntentExperiment {
		t.Errorf("default intent = %s, want experiment", got)
	}
}

func TestLoadRules_InvalidValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	content := "[[intent]]\nprefix = \"x/\"\nintent = \"forever\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(path); err == nil {
		t.Error("expected error for unknown intent")
	}
}

func TestIntentOrder(t *testing.T) {
	order := []Intent{IntentWorkaround, IntentExperiment, IntentOperational, IntentPattern, IntentPromoted}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("%s should rank above %s", order[i], order[i-1])
		}
	}
	if Intent("bogus").Valid() {
		t.Error("unknown intent should be invalid")
	}
	if !IntentPattern.IsHigh() || !IntentPromoted.IsHigh() || IntentOperational.IsHigh() {
		t.Error("IsHigh mismatch")
	}
	if !IntentWorkaround.IsLow() || !IntentExperiment.IsLow() || IntentOperational.IsLow() {
		t.Error("IsLow mismatch")
	}
}
