package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/steuerflow/steuerflow/internal/common"
	"github.com/steuerflow/steuerflow/internal/model"
	"github.com/steuerflow/steuerflow/internal/situation"
	"github.com/steuerflow/steuerflow/internal/storage"
)

func reclassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reclassify",
		Short: "Detect and mark expenses whose tax situation changed",
		Long: `Compare each stored expense's situation fingerprint against the current
configuration and report the ones that need another classification run.

With --mark, flagged expenses have their fingerprint cleared so the next
classification run picks them up. Marking is idempotent.`,
		RunE: runReclassify,
	}

	cmd.Flags().String("account", "", "account to scan (required)")
	cmd.Flags().Bool("mark", false, "clear fingerprints of flagged expenses")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func runReclassify(cmd *cobra.Command, _ []string) error {
	account, _ := cmd.Flags().GetString("account")
	mark, _ := cmd.Flags().GetBool("mark")

	snap, err := loadSnapshot()
	if err != nil {
		return err
	}

	dbPath, err := databasePath()
	if err != nil {
		return err
	}
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return common.NewUserError("could not open the expense database", err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	expenses, err := store.GetExpensesByAccount(ctx, account, nil)
	if err != nil {
		return err
	}
	if len(expenses) == 0 {
		fmt.Println("No expenses stored for this account.")
		return nil
	}

	bar := progressbar.Default(int64(len(expenses)), "scanning")
	var flags []situation.ReclassifyFlag
	for _, exp := range expenses {
		flags = append(flags, situation.DetectReclassification([]model.Expense{exp}, snap)...)
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	summary := situation.Summarize(flags)
	if summary.Total == 0 {
		fmt.Println("All expenses are up to date.")
		return nil
	}

	fmt.Printf("%d of %d expenses need reclassification (%s to %s):\n",
		summary.Total, len(expenses),
		summary.From.Format("2006-01-02"), summary.To.Format("2006-01-02"))
	for reason, count := range summary.ByReason {
		fmt.Printf("  %-24s %d\n", reason, count)
	}

	if !mark {
		fmt.Println("Run again with --mark to queue them for reclassification.")
		return nil
	}

	detector := situation.NewDetector(store)
	if err := detector.Mark(ctx, flags); err != nil {
		return err
	}
	fmt.Printf("Marked %d expenses for reclassification.\n", summary.Total)
	return nil
}
