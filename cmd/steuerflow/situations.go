package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steuerflow/steuerflow/internal/situation"
)

func situationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "situations",
		Short: "Show the situation and income sources active on a date",
		RunE:  runSituations,
	}

	cmd.Flags().String("date", "", "date to resolve (YYYY-MM-DD, required)")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func runSituations(cmd *cobra.Command, _ []string) error {
	dateStr, _ := cmd.Flags().GetString("date")
	date, err := parseDate(dateStr, "--date")
	if err != nil {
		return err
	}

	snap, err := loadSnapshot()
	if err != nil {
		return err
	}

	sit, ok := snap.ResolveSituation(date)
	if !ok {
		fmt.Printf("No situation covers %s.\n", dateStr)
		return nil
	}

	to := "ongoing"
	if sit.To != nil {
		to = sit.To.Format("2006-01-02")
	}
	fmt.Printf("Situation %d (%s): %s to %s\n", sit.ID, sit.Jurisdiction, sit.From.Format("2006-01-02"), to)
	fmt.Printf("  VAT status:   %s\n", sit.VATStatus)
	if sit.CompanyVehicle {
		fmt.Printf("  Vehicle:      %s at %d%% business use\n", sit.VehicleType, sit.VehicleBusinessPercent)
	} else {
		fmt.Println("  Vehicle:      none")
	}
	fmt.Printf("  Telecom:      %d%%\n", sit.TelecomBusinessPercent)
	fmt.Printf("  Internet:     %d%%\n", sit.InternetBusinessPercent)
	fmt.Printf("  Home office:  %s\n", sit.HomeOfficeMode)

	sources := snap.ActiveIncomeSources(date)
	if len(sources) == 0 {
		fmt.Println("No income sources active.")
	} else {
		fmt.Printf("Active income sources (%d):\n", len(sources))
		for _, src := range sources {
			fmt.Printf("  %-12s %s (%s)\n", src.ID, src.Name, src.Category)
		}
	}

	if hash, ok := situation.FingerprintForDate(snap, date); ok {
		fmt.Printf("Fingerprint: %s\n", hash)
	}

	return nil
}
