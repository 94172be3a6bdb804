package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var adjustNotice string

// adjustCmd edits the remaining duration or notice of an existing ban.
var adjustCmd = &cobra.Command{
	Use:   "adjust <ban-id> [remaining-seconds]",
	Short: "Adjust a ban's remaining duration or notice",
	Long: `Adjust an existing ban. A remaining-seconds argument recomputes the
expiry from now; 0 expires the ban immediately (it does not make it
permanent). --notice replaces the operator note.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ban id %q", args[0])
		}

		if len(args) < 2 && !cmd.Flags().Changed("notice") {
			return fmt.Errorf("nothing to adjust: give remaining seconds, --notice, or both")
		}

		engine, _, closeStore, err := openEngine(cmdCtx)
		if err != nil {
			return err
		}
		defer closeStore()

		if len(args) == 2 {
			seconds, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid remaining seconds %q", args[1])
			}
			changed, err := engine.SetRemaining(cmdCtx, id, seconds)
			if err != nil {
				return err
			}
			switch {
			case !changed:
				fmt.Printf("No ban with id %d; nothing changed.\n", id)
			case seconds <= 0:
				fmt.Printf("Ban #%d expired immediately.\n", id)
			default:
				fmt.Printf("Ban #%d now expires in %d seconds.\n", id, seconds)
			}
		}

		if cmd.Flags().Changed("notice") {
			changed, err := engine.SetNotice(cmdCtx, id, adjustNotice)
			if err != nil {
				return err
			}
			if changed {
				fmt.Printf("Ban #%d notice updated.\n", id)
			} else {
				fmt.Printf("No ban with id %d; nothing changed.\n", id)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adjustCmd)

	adjustCmd.Flags().StringVarP(&adjustNotice, "notice", "n", "", "replace the operator note")
}
