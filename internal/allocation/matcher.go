// Package allocation implements the 5-tier income-source allocation engine
// and its rule matcher.
package allocation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/steuerflow/steuerflow/internal/common"
	"github.com/steuerflow/steuerflow/internal/model"
)

// Matcher evaluates allocation rules against expenses. Regex patterns are
// compiled once up front.
type Matcher struct {
	compiledRegex map[int]*regexp.Regexp
	rules         []model.AllocationRule
}

// NewMatcher validates the rules and builds a matcher. A rule without any
// match criterion would match everything; that is a configuration error.
// Rule IDs must be unique, compiled patterns are stored per ID.
func NewMatcher(rules []model.AllocationRule) (*Matcher, error) {
	m := &Matcher{
		rules:         rules,
		compiledRegex: make(map[int]*regexp.Regexp),
	}

	seen := make(map[int]bool, len(rules))
	for i := range rules {
		rule := &rules[i]
		if seen[rule.ID] {
			return nil, fmt.Errorf("%w: duplicate allocation rule id %d", common.ErrInvalidConfig, rule.ID)
		}
		seen[rule.ID] = true
		if !rule.HasCriteria() {
			return nil, fmt.Errorf("%w: allocation rule %d has no match criteria", common.ErrInvalidConfig, rule.ID)
		}
		if len(rule.Allocations) == 0 {
			return nil, fmt.Errorf("%w: allocation rule %d allocates nothing", common.ErrInvalidConfig, rule.ID)
		}
		if total := model.AllocationTotal(rule.Allocations); total > 100 {
			return nil, fmt.Errorf("%w: allocation rule %d sums to %d%%", common.ErrInvalidConfig, rule.ID, total)
		}
		if rule.VendorPattern != "" {
			re, err := regexp.Compile("(?i)" + rule.VendorPattern)
			if err != nil {
				return nil, fmt.Errorf("%w: allocation rule %d pattern: %v", common.ErrInvalidConfig, rule.ID, err)
			}
			m.compiledRegex[rule.ID] = re
		}
	}

	return m, nil
}

// Matches returns every rule matching the expense, in configuration order.
// All specified criteria of a rule must hold for it to match. Callers that
// need more than matching criteria (active targets, say) filter the list
// themselves.
func (m *Matcher) Matches(expense model.Expense, category string) []model.AllocationRule {
	var matched []model.AllocationRule
	for _, rule := range m.rules {
		if m.matchesRule(rule, expense, category) {
			matched = append(matched, rule)
		}
	}
	return matched
}

func (m *Matcher) matchesRule(rule model.AllocationRule, expense model.Expense, category string) bool {
	if rule.VendorDomain != "" &&
		!strings.Contains(strings.ToLower(expense.SenderDomain), strings.ToLower(rule.VendorDomain)) {
		return false
	}
	if rule.VendorPattern != "" {
		re, ok := m.compiledRegex[rule.ID]
		if !ok || !re.MatchString(expense.Subject+" "+expense.Snippet) {
			return false
		}
	}
	if rule.Category != "" && rule.Category != category {
		return false
	}
	if rule.MinAmountCents > 0 && expense.AmountCents < rule.MinAmountCents {
		return false
	}
	return true
}
