// Package locator defines the locator syntax families shared by the cache
// store, the resolution engine, and the inference provider.
package locator

import "strings"

// Strategy is the syntax family of a locator candidate.
type Strategy string

const (
	StrategyCSS    Strategy = "CSS"
	StrategyXPath  Strategy = "XPATH"
	StrategyText   Strategy = "TEXT"
	StrategyTestID Strategy = "DATA_TESTID"
)

// ParseStrategy maps a strategy tag to a known Strategy. Matching is
// case-insensitive; unrecognized tags report ok=false.
func ParseStrategy(tag string) (Strategy, bool) {
	switch strings.ToUpper(strings.TrimSpace(tag)) {
	case "CSS":
		return StrategyCSS, true
	case "XPATH":
		return StrategyXPath, true
	case "TEXT":
		return StrategyText, true
	case "DATA_TESTID", "DATA-TESTID", "TESTID":
		return StrategyTestID, true
	default:
		return "", false
	}
}

// Valid reports whether s is one of the recognized strategy tags.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyCSS, StrategyXPath, StrategyText, StrategyTestID:
		return true
	}
	return false
}

func (s Strategy) String() string {
	return string(s)
}
