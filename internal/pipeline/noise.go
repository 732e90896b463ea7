// Package pipeline implements the hotel-inventory search pipeline: noise
// filtering, field extraction/normalization, reputation enrichment,
// filtering, pagination and the orchestrator that ties them together.
package pipeline

import (
	"regexp"
	"strings"
)

// NoiseRule is one entry of the ordered exclusion table. Rules are pure
// predicates over the item's name, address and the requested region; the
// first matching rule excludes the item and its name is reported so that
// exclusions stay auditable.
type NoiseRule struct {
	Name    string
	Matches func(name, address, region string) bool
}

// syntheticKeywords is the denylist of tokens that mark non-production
// inventory. Matching is case-insensitive substring, which is a heuristic:
// a real property named "Test Street Inn" would be excluded too. That
// trade-off is accepted; leaking synthetic entries into results is worse
// than dropping the odd legitimate item.
var syntheticKeywords = []string{
	"test property",
	"test hotel",
	"testing",
	"do not book",
	"donotbook",
	"dummy",
	"synthetic",
	"sample hotel",
	"qa property",
	"load test",
}

// structuralTestPattern matches machine-generated names of the form
// "<word> <3-letter-code> <digits>", e.g. "Property NYC 042".
var structuralTestPattern = regexp.MustCompile(`(?i)^[a-z]+\s+[a-z]{3}\s+\d+$`)

// placeholderAddressPattern matches addresses that are pure placeholders
// rather than real street addresses.
var placeholderAddressPattern = regexp.MustCompile(`(?i)^\s*(n/?a|tbd|todo|unknown|none|null|x+|-+|\.+|0+|123 test\b.*)\s*$`)

// regionMismatchCities maps a region code to city names that, when they
// appear in an item's name, indicate the provider filed the property under
// the wrong region. The table is small and pairwise; it only covers
// mismatches actually observed in provider data.
var regionMismatchCities = map[string][]string{
	"NYC": {"las vegas", "los angeles", "miami", "chicago"},
	"LAX": {"new york", "miami", "boston"},
	"LON": {"paris", "berlin", "madrid", "rome"},
	"PAR": {"london", "berlin", "madrid", "rome"},
	"TYO": {"osaka", "seoul", "bangkok"},
}

// noiseRulesV1 is the current exclusion table, applied in order. Bump the
// version when rules change so that result differences can be traced back
// to a table revision.
var noiseRulesV1 = []NoiseRule{
	{
		Name: "synthetic-keyword",
		Matches: func(name, address, _ string) bool {
			hay := strings.ToLower(name + " " + address)
			for _, kw := range syntheticKeywords {
				if strings.Contains(hay, kw) {
					return true
				}
			}
			return false
		},
	},
	{
		Name: "structural-test-name",
		Matches: func(name, _, _ string) bool {
			return structuralTestPattern.MatchString(strings.TrimSpace(name))
		},
	},
	{
		Name: "placeholder-address",
		Matches: func(_, address, _ string) bool {
			return address != "" && placeholderAddressPattern.MatchString(address)
		},
	},
	{
		Name: "region-city-mismatch",
		Matches: func(name, _, region string) bool {
			cities, ok := regionMismatchCities[strings.ToUpper(region)]
			if !ok {
				return false
			}
			lower := strings.ToLower(name)
			for _, city := range cities {
				if strings.Contains(lower, city) {
					return true
				}
			}
			return false
		},
	},
}

// IsNoise reports whether an inventory entry should be excluded as
// non-production data, along with the name of the rule that matched.
// This is a heuristic, not a ground-truth filter: false positives and
// false negatives are both possible and accepted.
func IsNoise(name, address, region string) (bool, string) {
	for _, rule := range noiseRulesV1 {
		if rule.Matches(name, address, region) {
			return true, rule.Name
		}
	}
	return false, ""
}
