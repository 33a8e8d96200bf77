package allocation

import (
	"fmt"
	"strings"

	"github.com/steuerflow/steuerflow/internal/model"
	"github.com/steuerflow/steuerflow/internal/money"
)

// SummarizeResult renders an allocation result with the cent share each
// source receives, e.g. "allocation_rule: dev 70% (34.30 EUR) / ops 30%
// (14.70 EUR)".
func SummarizeResult(result model.AllocationResult, amountCents int64) string {
	allocs := model.NormalizeAllocations(result.Allocations)
	if len(allocs) == 0 {
		return fmt.Sprintf("%s: %s", result.Source, result.Reason)
	}

	percents := make([]int, len(allocs))
	for i, a := range allocs {
		percents[i] = a.Percent
	}
	shares := money.SplitByAllocations(amountCents, percents)

	parts := make([]string, len(allocs))
	for i, a := range allocs {
		parts[i] = fmt.Sprintf("%s %d%% (%s)", a.SourceID, a.Percent, money.FormatEUR(shares[i]))
	}
	return fmt.Sprintf("%s: %s", result.Source, strings.Join(parts, " / "))
}
