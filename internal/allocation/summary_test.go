package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/steuerflow/steuerflow/internal/model"
)

func TestSummarizeResult(t *testing.T) {
	result := model.AllocationResult{
		Source: model.SourceAllocationRule,
		Allocations: []model.Allocation{
			{SourceID: "dev", Percent: 70},
			{SourceID: "ops", Percent: 30},
		},
	}

	assert.Equal(t, "allocation_rule: dev 70% (34.30 EUR) / ops 30% (14.70 EUR)", SummarizeResult(result, 4900))
}

func TestSummarizeResultWithoutAllocations(t *testing.T) {
	result := model.AllocationResult{
		Source: model.SourceReviewNeeded,
		Reason: "2 active sources and no rule or default resolves the ambiguity",
	}

	assert.Equal(t, "review_needed: 2 active sources and no rule or default resolves the ambiguity", SummarizeResult(result, 4900))
}
