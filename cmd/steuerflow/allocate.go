package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steuerflow/steuerflow/internal/allocation"
	"github.com/steuerflow/steuerflow/internal/model"
)

func allocateTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allocate-test",
		Short: "Dry-run the allocation decision for a hypothetical expense",
		Long: `Runs the income-source allocation procedure for a made-up expense built
from flags, against the configured situations, rules and defaults.
Nothing is persisted; use this to check what a rule would do.`,
		RunE: runAllocateTest,
	}

	cmd.Flags().String("date", "", "invoice date (YYYY-MM-DD, required)")
	cmd.Flags().String("domain", "", "sender domain, e.g. hetzner.com")
	cmd.Flags().String("subject", "", "email subject")
	cmd.Flags().String("category", model.CategoryFull, "deductibility category")
	cmd.Flags().Int64("amount", 0, "amount in cents")
	cmd.Flags().String("suggest-source", "", "classifier-suggested income source id")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func runAllocateTest(cmd *cobra.Command, _ []string) error {
	dateStr, _ := cmd.Flags().GetString("date")
	date, err := parseDate(dateStr, "--date")
	if err != nil {
		return err
	}
	category, _ := cmd.Flags().GetString("category")
	if !model.IsValidCategory(category) {
		return fmt.Errorf("unknown category %q", category)
	}
	domain, _ := cmd.Flags().GetString("domain")
	subject, _ := cmd.Flags().GetString("subject")
	amount, _ := cmd.Flags().GetInt64("amount")
	suggested, _ := cmd.Flags().GetString("suggest-source")

	snap, err := loadSnapshot()
	if err != nil {
		return err
	}
	cfg, err := loadAllocationConfig(snap)
	if err != nil {
		return err
	}

	result := allocation.Allocate(cfg, allocation.Input{
		Expense: model.Expense{
			EmailID:      "dry-run",
			Account:      "dry-run",
			SenderDomain: domain,
			Subject:      subject,
			InvoiceDate:  date,
			AmountCents:  amount,
		},
		Category:          category,
		SuggestedSourceID: suggested,
	})

	fmt.Printf("Decision:   %s\n", result.Source)
	fmt.Printf("Confidence: %.2f\n", result.Confidence)
	fmt.Printf("Reason:     %s\n", result.Reason)
	if result.RuleID != nil {
		fmt.Printf("Rule:       %d\n", *result.RuleID)
	}
	if len(result.Alternatives) > 0 {
		fmt.Printf("Alternatives: %v\n", result.Alternatives)
	}
	fmt.Printf("Allocation: %s\n", allocation.SummarizeResult(result, amount))

	return nil
}
