package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wisp",
	Short: "Embedder harness for the wisp managed runtime",
	Long:  `wisp drives the heap, collector, and inline cache in internal/rt end to end for inspection and testing.`,
}

func main() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(inspectCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
