package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steuerflow/steuerflow/internal/situation"
)

func fingerprintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Compute the situation fingerprint for a date",
		Long: `Resolve the tax situation covering a date and print its fingerprint.

The fingerprint summarizes every classification-relevant configuration
field active on that date; expenses store it so configuration drift can
be detected later.`,
		RunE: runFingerprint,
	}

	cmd.Flags().String("date", "", "date to fingerprint (YYYY-MM-DD, required)")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func runFingerprint(cmd *cobra.Command, _ []string) error {
	dateStr, _ := cmd.Flags().GetString("date")
	date, err := parseDate(dateStr, "--date")
	if err != nil {
		return err
	}

	snap, err := loadSnapshot()
	if err != nil {
		return err
	}

	ctx, ok := snap.ContextForDate(date)
	if !ok {
		fmt.Printf("No situation covers %s; nothing to fingerprint.\n", dateStr)
		return nil
	}

	hash := situation.ComputeFingerprint(ctx)
	fmt.Printf("%s  (situation %d, %d active sources)\n", hash, ctx.Situation.ID, len(ctx.Sources))
	return nil
}
