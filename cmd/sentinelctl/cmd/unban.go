package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var unbanAll bool

// unbanCmd lifts a ban by id, or every active ban a player holds.
var unbanCmd = &cobra.Command{
	Use:   "unban <ban-id | player>",
	Short: "Lift a ban",
	Long: `Lift a single ban by numeric id, or with --all every active ban held
by the named player. Lifting an already-inactive ban is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, dir, closeStore, err := openEngine(cmdCtx)
		if err != nil {
			return err
		}
		defer closeStore()

		if unbanAll {
			p, err := dir.Resolve(cmdCtx, args[0])
			if err != nil {
				return err
			}
			changed, err := engine.UnbanAll(cmdCtx, p.ID)
			if err != nil {
				return err
			}
			fmt.Printf("Lifted %d ban(s) for %s.\n", changed, p.Name)
			return nil
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ban id %q (use --all to unban by player)", args[0])
		}

		changed, err := engine.Unban(cmdCtx, id)
		if err != nil {
			return err
		}
		if changed {
			fmt.Printf("Ban #%d lifted.\n", id)
		} else {
			fmt.Printf("Ban #%d was not active; nothing changed.\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unbanCmd)

	unbanCmd.Flags().BoolVar(&unbanAll, "all", false, "treat the argument as a player and lift all their active bans")
}
