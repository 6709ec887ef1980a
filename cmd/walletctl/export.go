package main

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"wallet/internal/export"
	apphttp "wallet/internal/http"
)

func exportCmd() *cobra.Command {
	var kind, from, to, search, category, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions as CSV",
		Long: `Write the filtered transaction feed as CSV, newest first, using the
same columns as the /export/ endpoint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Flags share the query parameter parser of the HTTP API.
			criteria, err := apphttp.ParseCriteria(url.Values{
				"type":      {kind},
				"date_from": {from},
				"date_to":   {to},
				"search":    {search},
				"category":  {category},
			})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := a.reports.Export(ctx, criteria)
			if err != nil {
				return err
			}

			if output == "" {
				output = export.Filename(criteria.Kind)
			}
			if output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "type", "all", "transaction type (income, expense, all)")
	cmd.Flags().StringVar(&from, "from", "", "earliest date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "latest date, YYYY-MM-DD")
	cmd.Flags().StringVar(&search, "search", "", "keyword matched against title, category and note")
	cmd.Flags().StringVar(&category, "category", "", "category name")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default <type>_transactions.csv)")
	return cmd
}
