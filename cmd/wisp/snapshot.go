package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wisplang/wisp/internal/rt"
	"github.com/wisplang/wisp/internal/rtconfig"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export or import a heap snapshot",
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export the factory's canonical constants to a CBOR snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  exportSnapshot,
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import a CBOR snapshot and re-intern its canonical constants",
	Args:  cobra.ExactArgs(1),
	RunE:  importSnapshot,
}

func init() {
	snapshotCmd.AddCommand(snapshotExportCmd)
	snapshotCmd.AddCommand(snapshotImportCmd)
}

func exportSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := rtconfig.FindAndLoad(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	h := rt.NewHeap(cfg.HeapConfig())

	h.CreateString([]byte("hello"))
	h.CreateNumber(42)
	h.CreateBoolean(true)

	snap := h.Snapshot(uuid.New(), 1)
	data, err := snap.Marshal()
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	color.Green("wrote snapshot %s (%d constants)", snap.ID, len(snap.Constants))
	return nil
}

func importSnapshot(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := rt.UnmarshalSnapshot(data)
	if err != nil {
		return fmt.Errorf("unmarshal snapshot: %w", err)
	}

	cfg, err := rtconfig.FindAndLoad(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	h := rt.NewHeap(cfg.HeapConfig())
	if err := h.Restore(snap); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	color.Green("restored snapshot %s sequence=%d (%d constants)", snap.ID, snap.Sequence, len(snap.Constants))
	return nil
}
