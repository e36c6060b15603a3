package model

import (
	"strings"
	"time"
)

// Intent classifies which response path an utterance takes
type Intent string

const (
	IntentShareholdingPie Intent = "shareholding_pie"
	IntentSalesComparison Intent = "sales_comparison"
	IntentBoardHierarchy  Intent = "board_hierarchy"
	IntentUnmatched       Intent = "unmatched"
)

// Rule is one row of the intent table. Require is an AND over groups,
// each group an OR over lowercase substrings.
type Rule struct {
	Intent  Intent
	Require [][]string
	Produce func(now time.Time) []Message
}

// Matches reports whether every required group has at least one substring
// contained in the already-lowercased utterance.
func (r Rule) Matches(lowered string) bool {
	if len(r.Require) == 0 {
		return false
	}
	for _, group := range r.Require {
		found := false
		for _, sub := range group {
			if strings.Contains(lowered, sub) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Matcher evaluates rules in priority order; the first match wins.
// A real classification service would sit behind the same two methods.
type Matcher struct {
	rules []Rule
}

func NewMatcher(rules []Rule) *Matcher {
	normalized := make([]Rule, len(rules))
	for i, r := range rules {
		groups := make([][]string, len(r.Require))
		for j, g := range r.Require {
			groups[j] = make([]string, len(g))
			for k, sub := range g {
				groups[j][k] = strings.ToLower(sub)
			}
		}
		normalized[i] = Rule{Intent: r.Intent, Require: groups, Produce: r.Produce}
	}
	return &Matcher{rules: normalized}
}

// Match returns the first rule whose requirements the utterance satisfies
func (m *Matcher) Match(utterance string) (Rule, bool) {
	lowered := strings.ToLower(utterance)
	for _, r := range m.rules {
		if r.Matches(lowered) {
			return r, true
		}
	}
	return Rule{Intent: IntentUnmatched}, false
}

// Classify returns the intent for utterance; it has no side effects
func (m *Matcher) Classify(utterance string) Intent {
	r, _ := m.Match(utterance)
	return r.Intent
}
