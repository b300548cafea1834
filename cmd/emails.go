package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/contacts-cli/internal/emails"
)

var (
	emailsColumn    string
	emailsOverwrite bool
)

var emailsCmd = &cobra.Command{
	Use:   "emails <csv>",
	Short: "Add a scraped-emails column to an existing contact CSV",
	Long: "Visits each row's website (and any discovered contact page), extracts email " +
		"addresses, and writes <name>_with_emails.csv. The input CSV is never modified.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		augmenter := emails.NewAugmenter(
			emails.NewFetcher(time.Duration(cfg.Emails.TimeoutSecs)*time.Second),
			cfg.Emails.MaxContactPages,
		)

		report, err := augmenter.Augment(ctx, args[0], emailsColumn, emailsOverwrite)
		if err != nil {
			return err
		}

		fmt.Printf("emails CSV created: %s (%d/%d rows with emails)\n",
			report.OutputPath, report.WithEmails, report.Rows)
		for _, re := range report.Errors {
			fmt.Printf("  row %d (%s): %s\n", re.Row, re.Website, re.Err)
		}
		return nil
	},
}

func init() {
	emailsCmd.Flags().StringVar(&emailsColumn, "column", "website",
		"name of the column holding website URLs")
	emailsCmd.Flags().BoolVar(&emailsOverwrite, "overwrite", false,
		"overwrite an existing _with_emails.csv")
	rootCmd.AddCommand(emailsCmd)
}
