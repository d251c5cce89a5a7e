package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kjstillabower/solawi/internal/bankimport"
)

func newImportCommand(opts *RootOptions) *cobra.Command {
	var userEmail string
	cmd := &cobra.Command{
		Use:   "import <statement.csv>",
		Short: "Book deposits from a bank statement CSV",
		Long: `Book deposits from a bank statement CSV (windows-1252, semicolon separated).

Transactions already booked for a person with the same date, amount and title are
skipped, so a statement can be imported more than once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !bankimport.AllowedFile(filepath.Base(path)) {
				return fmt.Errorf("%s: only .csv files can be imported", path)
			}

			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.store.GetUserByEmail(cmd.Context(), userEmail)
			if err != nil {
				return fmt.Errorf("user %s: %w", userEmail, err)
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			txs, err := bankimport.Parse(f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			res, err := a.svc.ImportDeposits(cmd.Context(), txs, user.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d, new persons %d\n", res.Imported, res.Skipped, res.NewPersons)
			return nil
		},
	}
	cmd.Flags().StringVar(&userEmail, "user-email", "", "user recorded as having added the deposits (required)")
	_ = cmd.MarkFlagRequired("user-email")
	return cmd
}
