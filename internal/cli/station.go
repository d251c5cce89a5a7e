package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStationCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "station",
		Short: "Manage pickup stations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a pickup station",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.svc.CreateStation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created station %d %s\n", st.ID, st.Name)
			return nil
		},
	})
	return cmd
}
