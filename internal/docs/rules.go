package docs

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// AuthorityRule assigns a band to paths starting with Prefix.
type AuthorityRule struct {
	Prefix string        `toml:"prefix"`
	Band   AuthorityBand `toml:"band"`
}

// IntentRule assigns an intent to paths starting with Prefix, or whose
// path segments contain Contains. A rule with both set needs both.
type IntentRule struct {
	Prefix   string `toml:"prefix"`
	Contains string `toml:"contains"`
	Intent   Intent `toml:"intent"`
}

// Rules are ordered classification tables. The first matching rule wins;
// the defaults apply when nothing matches.
type Rules struct {
	Authority     []AuthorityRule `toml:"authority"`
	Intent        []IntentRule    `toml:"intent"`
	DefaultBand   AuthorityBand   `toml:"default_band"`
	DefaultIntent Intent          `toml:"default_intent"`
}

// DefaultRules returns the built-in path conventions.
func DefaultRules() Rules {
	return Rules{
		Authority: []AuthorityRule{
			{Prefix: "canon/", Band: BandGoverning},
			{Prefix: "pattern-library/", Band: BandGoverning},
			{Prefix: "docs/operational/", Band: BandOperational},
		},
		Intent: []IntentRule{
			{Prefix: "canon/", Intent: IntentPromoted},
			{Prefix: "patterns/", Intent: IntentPattern},
			{Prefix: "pattern-library/", Intent: IntentPattern},
			{Contains: "workaround", Intent: IntentWorkaround},
			{Contains: "experiment", Intent: IntentExperiment},
		},
		DefaultBand:   BandNonGoverning,
		DefaultIntent: IntentOperational,
	}
}

// LoadRules reads rule overrides from a TOML file. A missing file yields the
// defaults. Tables present in the file replace the corresponding default table.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return rules, nil
	}

	var override Rules
	if _, err := toml.DecodeFile(path, &override); err != nil {
		return rules, fmt.Errorf("failed to parse rules: %w", err)
	}

	if len(override.Authority) > 0 {
		for _, r := range override.Authority {
			if !r.Band.Valid() {
				return rules, fmt.Errorf("authority rule %q: unknown band %q", r.Prefix, r.Band)
			}
		}
		rules.Authority = override.Authority
	}
	if len(override.Intent) > 0 {
		for _, r := range override.Intent {
			if !r.Intent.Valid() {
				return rules, fmt.Errorf("intent rule %q: unknown intent %q", r.Prefix+r.Contains, r.Intent)
			}
		}
		rules.Intent = override.Intent
	}
	if override.DefaultBand != "" {
		if !override.DefaultBand.Valid() {
			return rules, fmt.Errorf("unknown default_band %q", override.DefaultBand)
		}
		rules.DefaultBand = override.DefaultBand
	}
	if override.DefaultIntent != "" {
		if !override.DefaultIntent.Valid() {
			return rules, fmt.Errorf("unknown default_intent %q", override.DefaultIntent)
		}
		rules.DefaultIntent = override.DefaultIntent
	}
	return rules, nil
}

// ClassifyAuthority infers the band for a repo-relative path.
func (r Rules) ClassifyAuthority(path string) AuthorityBand {
	p := strings.ToLower(path)
	for _, rule := range r.Authority {
		if strings.HasPrefix(p, strings.ToLower(rule.Prefix)) {
			return rule.Band
		}
	}
	return r.DefaultBand
}

// ClassifyIntent infers the intent for a repo-relative path.
func (r Rules) ClassifyIntent(path string) Intent {
	p := strings.ToLower(path)
	for _, rule := range r.Intent {
		if rule.matches(p) {
			return rule.Intent
		}
	}
	return r.DefaultIntent
}

func (rule IntentRule) matches(lowerPath string) bool {
	if rule.Prefix != "" && !strings.HasPrefix(lowerPath, strings.ToLower(rule.Prefix)) {
		return false
	}
	if rule.Contains != "" {
		needle := strings.ToLower(rule.Contains)
		for _, seg := range strings.Split(lowerPath, "/") {
			if strings.Contains(seg, needle) {
				return true
			}
		}
		return false
	}
	return true
}
