package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// lookupCmd shows a player's record and whether they are blocked right now.
var lookupCmd = &cobra.Command{
	Use:   "lookup <player>",
	Short: "Show a player's record and current ban status",
	Long: `Look a player up by display name or UUID, print their record and
report whether they are blocked right now. A ban past its expiry that
the sweeper has not reached yet does not count as blocking.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, dir, closeStore, err := openEngine(cmdCtx)
		if err != nil {
			return err
		}
		defer closeStore()

		p, err := dir.Resolve(cmdCtx, args[0])
		if err != nil {
			return err
		}

		if err := printPlayer(p); err != nil {
			return err
		}

		b, err := engine.IsBlocked(cmdCtx, p.ID)
		if err != nil {
			return err
		}
		if b == nil {
			fmt.Println("\nNot currently blocked.")
			return nil
		}

		fmt.Println("\nCurrently blocked:")
		return printBan(b)
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}
