package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wisplang/wisp/internal/rt"
	"github.com/wisplang/wisp/internal/rtconfig"
)

var runCmd = &cobra.Command{
	Use:   "run <allocation-count>",
	Short: "Drive a synthetic allocation workload through the heap",
	Long:  `run allocates the given number of small strings and contexts, triggering young and old collections, and prints a CollectStats summary for each cycle.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkload,
}

func runWorkload(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid allocation count: %w", err)
	}

	cfg, err := rtconfig.FindAndLoad(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	h := rt.NewHeap(cfg.HeapConfig())

	var keep []*rt.Value
	for i := 0; i < n; i++ {
		ctx := h.AllocateContext(false, h.Nil, 4)
		s := h.AllocateString(false, []byte(fmt.Sprintf("wisp-%d", i)))
		cv, _ := rt.AsContext(ctx)
		cv.SetSlot(0, s)

		if i%8 == 0 {
			slot := new(rt.Value)
			h.AcquireHandle(rt.HandlePersistent, slot, ctx, nil)
			keep = append(keep, slot)
		}

		if stats := h.CollectIfNeeded(); stats != nil {
			printStats(stats)
		}
	}

	color.Green("allocated %d contexts, retained %d roots", n, len(keep))
	return nil
}

func printStats(s *rt.CollectStats) {
	label := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("%s target=%s evacuated=%d (%d bytes) tenured=%d soft-marked=%d weak-fired=%d duration=%s\n",
		label("gc"), s.Target, s.Evacuated, s.EvacuatedBytes, s.Tenured, s.SoftMarked, s.WeakCallbacksFired, s.Duration)
}
