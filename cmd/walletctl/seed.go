package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wallet/internal/seed"
)

func seedCmd() *cobra.Command {
	var incomeCount, expenseCount, maxAge int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the ledger with sample transactions",
		Long: `Create randomized sample incomes and expenses dated within the last
--max-age days. Incomes are spread over the existing categories.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			cats, err := a.reports.ListCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Creating sample data...")
			res, err := seed.Run(ctx, a.ledger, cats, seed.Options{
				IncomeCount:  incomeCount,
				ExpenseCount: expenseCount,
				MaxAgeDays:   maxAge,
			})
			if err != nil {
				return err
			}
			for _, f := range res.Failures {
				fmt.Fprintf(out, "Failed to create %v\n", f)
			}
			fmt.Fprintf(out, "Successfully created %d income transactions and %d expense transactions\n", res.Incomes, res.Expenses)

			d, err := a.reports.DashboardSummary(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Ledger now holds %d transactions, balance %s\n", d.Summary.Count, d.Summary.Balance.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().IntVar(&incomeCount, "income-count", seed.DefaultIncomeCount, "number of sample income transactions to create")
	cmd.Flags().IntVar(&expenseCount, "expense-count", seed.DefaultExpenseCount, "number of sample expense transactions to create")
	cmd.Flags().IntVar(&maxAge, "max-age", seed.DefaultMaxAgeDays, "oldest sample date, in days before today")
	return cmd
}
