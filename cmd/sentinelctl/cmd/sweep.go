package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// sweepCmd triggers one expiration sweep pass outside the daemon's timer.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Deactivate expired bans now",
	Long: `Run one expiration sweep pass immediately, deactivating every active
ban whose expiry has passed. The daemon runs the same sweep on a timer;
this command is for one-off runs and maintenance.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, closeStore, err := openEngine(cmdCtx)
		if err != nil {
			return err
		}
		defer closeStore()

		reaped, err := engine.SweepExpired(cmdCtx)
		if err != nil {
			return err
		}
		fmt.Printf("Deactivated %d expired ban(s).\n", reaped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
