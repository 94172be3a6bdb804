package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sentinel/internal/domain"
)

var (
	reasonCategory string
	reasonDuration int64
)

// reasonCmd groups the reason catalog subcommands.
var reasonCmd = &cobra.Command{
	Use:   "reason",
	Short: "Manage the reason catalog",
	Long: `Manage the catalog of named ban reasons. Each reason carries a
default duration in seconds; 0 means a ban citing it is permanent.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// reasonAddCmd creates or overwrites a reason definition.
var reasonAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or update a reason",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := domain.ParseReasonCategory(reasonCategory)
		if err != nil {
			return err
		}

		catalog, closeStore, err := openCatalog(cmdCtx)
		if err != nil {
			return err
		}
		defer closeStore()

		r, err := catalog.Save(cmdCtx, args[0], category, reasonDuration)
		if err != nil {
			return err
		}

		if r.Permanent() {
			fmt.Printf("Reason %q (%s) saved: permanent.\n", r.Name, r.Category)
		} else {
			fmt.Printf("Reason %q (%s) saved: %d seconds.\n", r.Name, r.Category, r.DurationSeconds)
		}
		return nil
	},
}

// reasonRemoveCmd deletes a reason definition.
var reasonRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a reason",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := domain.ParseReasonCategory(reasonCategory)
		if err != nil {
			return err
		}

		catalog, closeStore, err := openCatalog(cmdCtx)
		if err != nil {
			return err
		}
		defer closeStore()

		removed, err := catalog.Delete(cmdCtx, args[0], category)
		if err != nil {
			return err
		}
		if removed {
			fmt.Printf("Reason %q removed.\n", args[0])
		} else {
			fmt.Printf("Reason %q was not defined; nothing changed.\n", args[0])
		}
		return nil
	},
}

// reasonListCmd lists the catalog.
var reasonListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reasons",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var category domain.ReasonCategory
		if cmd.Flags().Changed("category") {
			var err error
			category, err = domain.ParseReasonCategory(reasonCategory)
			if err != nil {
				return err
			}
		}

		catalog, closeStore, err := openCatalog(cmdCtx)
		if err != nil {
			return err
		}
		defer closeStore()

		reasons, err := catalog.LoadAll(cmdCtx, category)
		if err != nil {
			return err
		}
		return printReasonList(reasons)
	},
}

func init() {
	rootCmd.AddCommand(reasonCmd)
	reasonCmd.AddCommand(reasonAddCmd)
	reasonCmd.AddCommand(reasonRemoveCmd)
	reasonCmd.AddCommand(reasonListCmd)

	reasonCmd.PersistentFlags().StringVarP(&reasonCategory, "category", "c", "ban", "reason category (ban, mute, report)")
	reasonAddCmd.Flags().Int64VarP(&reasonDuration, "duration", "d", 0, "default duration in seconds (0 = permanent)")
}
