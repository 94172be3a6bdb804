package cmd

import (
	"fmt"
	"os/user"

	"github.com/spf13/cobra"

	"sentinel/internal/domain"
)

var (
	banReasons  []string
	banCategory string
	banDuration int64
	banNotice   string
	banOperator string
)

// banCmd creates a ban for a player identified by name or UUID.
var banCmd = &cobra.Command{
	Use:   "ban <player>",
	Short: "Ban a player",
	Long: `Ban a player identified by display name or UUID. The duration and
category follow from the cited reasons unless --duration or --category
override them; overrides can lengthen, but never shorten, what the
reasons mandate.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, closeStore, err := openEngine(cmdCtx)
		if err != nil {
			return err
		}
		defer closeStore()

		operator := banOperator
		if operator == "" {
			if u, err := user.Current(); err == nil {
				operator = u.Username
			}
		}

		manual := cmd.Flags().Changed("duration") || cmd.Flags().Changed("category")

		var b *domain.Ban
		if manual {
			category := domain.BanCategoryTemporary
			if banCategory != "" {
				category, err = domain.ParseBanCategory(banCategory)
				if err != nil {
					return err
				}
			}
			b, err = engine.BanOffline(cmdCtx, args[0], operator, category, banReasons, banDuration, banNotice)
		} else {
			b, err = engine.BanOfflineAuto(cmdCtx, args[0], operator, banReasons, banNotice)
		}
		if err != nil {
			return fmt.Errorf("ban failed: %w", err)
		}

		return printBan(b)
	},
}

func init() {
	rootCmd.AddCommand(banCmd)

	banCmd.Flags().StringSliceVarP(&banReasons, "reasons", "r", nil, "reason names from the catalog (required)")
	banCmd.Flags().StringVar(&banCategory, "category", "", "ban category (temporary, permanent, address)")
	banCmd.Flags().Int64Var(&banDuration, "duration", 0, "duration in seconds; may only lengthen the reason-derived duration")
	banCmd.Flags().StringVarP(&banNotice, "notice", "n", "", "free-text note shown to operators")
	banCmd.Flags().StringVar(&banOperator, "operator", "", "operator name (defaults to the current user)")

	banCmd.MarkFlagRequired("reasons")
}
