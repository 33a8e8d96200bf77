package model

import (
	"fmt"
	"sort"
	"strings"
)

// Allocation assigns a percentage of an expense to one income source.
type Allocation struct {
	SourceID string `json:"source_id"`
	Percent  int    `json:"percent"`
}

// AllocationRule is a user-authored routing rule. All specified criteria
// must hold for a match; rules are evaluated in slice order and the first
// match wins.
type AllocationRule struct {
	VendorDomain   string
	VendorPattern  string
	Category       string
	Allocations    []Allocation
	ID             int
	MinAmountCents int64
}

// HasCriteria reports whether the rule specifies at least one match
// criterion. A rule without criteria would match everything and is a
// configuration error.
func (r *AllocationRule) HasCriteria() bool {
	return r.VendorDomain != "" || r.VendorPattern != "" || r.Category != "" || r.MinAmountCents > 0
}

// DecisionSource identifies which tier of the allocation procedure decided.
type DecisionSource string

// Decision source constants, in priority order.
const (
	SourceManualOverride  DecisionSource = "manual_override"
	SourceAllocationRule  DecisionSource = "allocation_rule"
	SourceAISuggestion    DecisionSource = "ai_suggestion"
	SourceCategoryDefault DecisionSource = "category_default"
	SourceHeuristicSingle DecisionSource = "heuristic_single_source"
	SourceReviewNeeded    DecisionSource = "review_needed"
)

// AllocationResult is the immutable outcome of one allocation decision.
type AllocationResult struct {
	Source       DecisionSource
	Reason       string
	Allocations  []Allocation
	Alternatives []string
	RuleID       *int
	Confidence   float64
}

// NormalizeAllocations drops zero-percent entries and orders the rest by
// descending percent, ties broken by source id for stable output.
func NormalizeAllocations(allocs []Allocation) []Allocation {
	out := make([]Allocation, 0, len(allocs))
	for _, a := range allocs {
		if a.Percent > 0 {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Percent != out[j].Percent {
			return out[i].Percent > out[j].Percent
		}
		return out[i].SourceID < out[j].SourceID
	})
	return out
}

// AllocationTotal sums the percentages of a set of allocations.
func AllocationTotal(allocs []Allocation) int {
	total := 0
	for _, a := range allocs {
		total += a.Percent
	}
	return total
}

// IsSplit reports whether the expense is divided across more than one source.
func IsSplit(allocs []Allocation) bool {
	nonzero := 0
	for _, a := range allocs {
		if a.Percent > 0 {
			nonzero++
		}
	}
	return nonzero > 1
}

// PrimaryAllocation returns the allocation with the highest percent, or
// false when the set is empty.
func PrimaryAllocation(allocs []Allocation) (Allocation, bool) {
	normalized := NormalizeAllocations(allocs)
	if len(normalized) == 0 {
		return Allocation{}, false
	}
	return normalized[0], true
}

// SummarizeAllocations renders a compact human-readable form, e.g.
// "consulting 70% / saas 30%".
func SummarizeAllocations(allocs []Allocation) string {
	normalized := NormalizeAllocations(allocs)
	if len(normalized) == 0 {
		return "unassigned"
	}
	parts := make([]string, len(normalized))
	for i, a := range normalized {
		parts[i] = fmt.Sprintf("%s %d%%", a.SourceID, a.Percent)
	}
	return strings.Join(parts, " / ")
}
