package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wisplang/wisp/internal/rtconfig"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the resolved GC tuning parameters",
	Long:  `stats loads wisp.toml (or built-in defaults if none is found) and prints the resolved heap and PIC configuration.`,
	RunE:  printResolvedStats,
}

func printResolvedStats(cmd *cobra.Command, args []string) error {
	cfg, err := rtconfig.FindAndLoad(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("%s\n", bold("heap"))
	fmt.Printf("  new space page size: %d\n", cfg.Heap.NewSpacePageSize)
	fmt.Printf("  old space page size: %d\n", cfg.Heap.OldSpacePageSize)
	fmt.Printf("  tenuring threshold:  %d\n", cfg.Heap.TenuringThreshold)
	fmt.Printf("%s\n", bold("pic"))
	fmt.Printf("  capacity per site:   %d\n", cfg.PIC.Capacity)
	return nil
}
