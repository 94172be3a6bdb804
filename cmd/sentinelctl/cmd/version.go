package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sentinel/internal/version"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of sentinelctl.`,
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Printf("sentinelctl version %s\n", info.String())
		fmt.Println(info.Full())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
