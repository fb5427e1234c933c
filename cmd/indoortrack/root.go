package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "indoortrack",
	Short: "Indoor positioning toolkit",
	Long:  "indoortrack estimates indoor device positions from sensor readings and tracks zone occupancy.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(replayCmd)
}
