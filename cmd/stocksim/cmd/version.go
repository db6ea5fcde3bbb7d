package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the stocksim CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stocksim version %s\n", version)
		fmt.Println("A daily-bar equity backtesting engine and research tool")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
