package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	playerIP        string
	playerSetPoints int
	playerAddPoints int
)

// playerCmd groups the player directory subcommands.
var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "Manage the player directory",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// playerRegisterCmd records a player sighting, as a login hook would.
var playerRegisterCmd = &cobra.Command{
	Use:   "register <uuid> <name>",
	Short: "Register or update a player record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid player uuid %q", args[0])
		}

		dir, closeStore, err := openDirectory(cmdCtx)
		if err != nil {
			return err
		}
		defer closeStore()

		p, err := dir.RegisterOrUpdate(cmdCtx, id, args[1], playerIP)
		if err != nil {
			return err
		}
		return printPlayer(p)
	},
}

// playerPointsCmd adjusts or overwrites a player's penalty points.
var playerPointsCmd = &cobra.Command{
	Use:   "points <player>",
	Short: "Adjust a player's penalty points",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("set") && !cmd.Flags().Changed("add") {
			return fmt.Errorf("give --set or --add")
		}

		dir, closeStore, err := openDirectory(cmdCtx)
		if err != nil {
			return err
		}
		defer closeStore()

		p, err := dir.Resolve(cmdCtx, args[0])
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("set") {
			if err := dir.SetPoints(cmdCtx, p.ID, playerSetPoints); err != nil {
				return err
			}
			fmt.Printf("%s now has %d point(s).\n", p.Name, playerSetPoints)
			return nil
		}

		points, err := dir.AddPoints(cmdCtx, p.ID, playerAddPoints)
		if err != nil {
			return err
		}
		fmt.Printf("%s now has %d point(s).\n", p.Name, points)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(playerCmd)
	playerCmd.AddCommand(playerRegisterCmd)
	playerCmd.AddCommand(playerPointsCmd)

	playerRegisterCmd.Flags().StringVar(&playerIP, "ip", "", "source IP to record for the player")
	playerPointsCmd.Flags().IntVar(&playerSetPoints, "set", 0, "overwrite the point total")
	playerPointsCmd.Flags().IntVar(&playerAddPoints, "add", 0, "adjust the point total by this delta")
}
