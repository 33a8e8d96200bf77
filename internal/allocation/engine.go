package allocation

import (
	"fmt"
	"strings"

	"github.com/steuerflow/steuerflow/internal/common"
	"github.com/steuerflow/steuerflow/internal/model"
	"github.com/steuerflow/steuerflow/internal/situation"
)

// Confidence scores per decision tier.
const (
	confidenceManual    = 1.0
	confidenceRule      = 1.0
	confidenceHeuristic = 0.9
	confidenceAI        = 0.8
	confidenceDefault   = 0.7
)

// Config carries everything the allocation decision needs: the configuration
// snapshot, user rules, and per-category default sources.
type Config struct {
	Snapshot         *situation.Snapshot
	Matcher          *Matcher
	CategoryDefaults map[string]string
}

// NewConfig builds an allocation config, validating the rules. Rule targets
// and category defaults must reference income sources the snapshot knows,
// though they may be expired ones.
func NewConfig(snap *situation.Snapshot, rules []model.AllocationRule, categoryDefaults map[string]string) (Config, error) {
	matcher, err := NewMatcher(rules)
	if err != nil {
		return Config{}, err
	}
	for _, rule := range rules {
		for _, a := range rule.Allocations {
			if _, ok := snap.Source(a.SourceID); !ok {
				return Config{}, fmt.Errorf("%w: allocation rule %d references %q", common.ErrUnknownIncomeSource, rule.ID, a.SourceID)
			}
		}
	}
	for category, sourceID := range categoryDefaults {
		if _, ok := snap.Source(sourceID); !ok {
			return Config{}, fmt.Errorf("%w: default for category %s references %q", common.ErrUnknownIncomeSource, category, sourceID)
		}
	}
	return Config{
		Snapshot:         snap,
		Matcher:          matcher,
		CategoryDefaults: categoryDefaults,
	}, nil
}

// Input is one expense awaiting allocation, after classification.
type Input struct {
	Expense           model.Expense
	Category          string
	SuggestedSourceID string
}

// Allocate decides which income source(s) receive the expense via the strict
// 5-tier priority procedure: manual override, allocation rule, AI
// suggestion, category default, single-source heuristic. The first
// applicable tier wins; tiers never combine. "No allocation" is a valid
// terminal state, not an error.
func Allocate(cfg Config, in Input) model.AllocationResult {
	active := cfg.Snapshot.ActiveIncomeSources(in.Expense.InvoiceDate)

	// Tier 1: a confirmed manual assignment is final.
	if in.Expense.AssignmentStatus == model.AssignmentConfirmed && len(in.Expense.Allocations) > 0 {
		return model.AllocationResult{
			Allocations: model.NormalizeAllocations(in.Expense.Allocations),
			Source:      model.SourceManualOverride,
			Confidence:  confidenceManual,
			Reason:      "manually confirmed assignment",
		}
	}

	// Tier 2: first matching user rule whose targets include at least one
	// active source. A rule whose targets have all expired does not win the
	// tier; later matching rules are still considered. Allocations are
	// filtered to active sources only.
	for _, rule := range cfg.Matcher.Matches(in.Expense, in.Category) {
		allocs := filterActive(rule.Allocations, active)
		if len(allocs) == 0 {
			continue
		}
		ruleID := rule.ID
		return model.AllocationResult{
			Allocations: model.NormalizeAllocations(allocs),
			Source:      model.SourceAllocationRule,
			RuleID:      &ruleID,
			Confidence:  confidenceRule,
			Reason:      fmt.Sprintf("allocation rule %d matched", rule.ID),
		}
	}

	// Tier 3: the classifier's suggested source, if currently active.
	if in.SuggestedSourceID != "" && isActive(in.SuggestedSourceID, active) {
		return model.AllocationResult{
			Allocations:  []model.Allocation{{SourceID: in.SuggestedSourceID, Percent: 100}},
			Source:       model.SourceAISuggestion,
			Confidence:   confidenceAI,
			Reason:       fmt.Sprintf("classifier suggested source %s", in.SuggestedSourceID),
			Alternatives: otherSourceIDs(in.SuggestedSourceID, active),
		}
	}

	// Tier 4: configured default source for the final category.
	if defaultID, ok := cfg.CategoryDefaults[in.Category]; ok && isActive(defaultID, active) {
		return model.AllocationResult{
			Allocations: []model.Allocation{{SourceID: defaultID, Percent: 100}},
			Source:      model.SourceCategoryDefault,
			Confidence:  confidenceDefault,
			Reason:      fmt.Sprintf("category %s defaults to source %s", in.Category, defaultID),
		}
	}

	// Tier 5: a single-source business has no ambiguity.
	if len(active) == 1 {
		return model.AllocationResult{
			Allocations: []model.Allocation{{SourceID: active[0].ID, Percent: 100}},
			Source:      model.SourceHeuristicSingle,
			Confidence:  confidenceHeuristic,
			Reason:      fmt.Sprintf("%s is the only active income source", active[0].Name),
		}
	}

	// Terminal state: review needed.
	if len(active) == 0 {
		return model.AllocationResult{
			Source: model.SourceReviewNeeded,
			Reason: fmt.Sprintf("no income source is active on %s", in.Expense.InvoiceDate.Format("2006-01-02")),
		}
	}
	names := make([]string, len(active))
	for i, src := range active {
		names[i] = src.Name
	}
	return model.AllocationResult{
		Source:       model.SourceReviewNeeded,
		Reason:       fmt.Sprintf("%d active sources and no rule or default resolves the ambiguity: %s", len(active), strings.Join(names, ", ")),
		Alternatives: names,
	}
}

func filterActive(allocs []model.Allocation, active []model.IncomeSource) []model.Allocation {
	var out []model.Allocation
	for _, a := range allocs {
		if isActive(a.SourceID, active) {
			out = append(out, a)
		}
	}
	return out
}

func isActive(id string, active []model.IncomeSource) bool {
	for _, src := range active {
		if src.ID == id {
			return true
		}
	}
	return false
}

func otherSourceIDs(except string, active []model.IncomeSource) []string {
	var out []string
	for _, src := range active {
		if src.ID != except {
			out = append(out, src.ID)
		}
	}
	return out
}
