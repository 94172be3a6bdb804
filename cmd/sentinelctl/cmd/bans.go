package cmd

import (
	"github.com/spf13/cobra"
)

var bansActiveOnly bool

// bansCmd lists bans, either globally or for a single player.
var bansCmd = &cobra.Command{
	Use:   "bans [player]",
	Short: "List bans",
	Long: `List bans newest first. Without arguments, every ban is listed;
with a player name or UUID, only that player's history is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, dir, closeStore, err := openEngine(cmdCtx)
		if err != nil {
			return err
		}
		defer closeStore()

		if len(args) == 1 {
			p, err := dir.Resolve(cmdCtx, args[0])
			if err != nil {
				return err
			}
			bans, err := engine.ListFor(cmdCtx, p.ID)
			if err != nil {
				return err
			}
			return printBanList(bans)
		}

		bans, err := engine.ListAll(cmdCtx, bansActiveOnly)
		if err != nil {
			return err
		}
		return printBanList(bans)
	},
}

func init() {
	rootCmd.AddCommand(bansCmd)

	bansCmd.Flags().BoolVar(&bansActiveOnly, "active", false, "only list active bans")
}
