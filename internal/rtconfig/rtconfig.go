// Package rtconfig handles wisp.toml runtime tuning configuration.
package rtconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/wisplang/wisp/internal/rt"
)

// Config represents a wisp.toml configuration file.
type Config struct {
	Heap HeapSection `toml:"heap"`
	PIC  PICSection  `toml:"pic"`

	// Dir is the directory containing the wisp.toml file (set at load
	// time).
	Dir string `toml:"-"`
}

// HeapSection configures the two spaces and the tenuring policy.
type HeapSection struct {
	NewSpacePageSize  int    `toml:"new_space_page_size"`
	OldSpacePageSize  int    `toml:"old_space_page_size"`
	TenuringThreshold uint32 `toml:"tenuring_threshold"`
}

// PICSection configures the per-call-site inline cache.
type PICSection struct {
	Capacity int `toml:"capacity"`
}

// Default returns a Config whose values match rt's own built-in
// defaults, for use when no wisp.toml is present.
func Default() *Config {
	hc := rt.DefaultHeapConfig()
	return &Config{
		Heap: HeapSection{
			NewSpacePageSize:  hc.NewSpacePageSize,
			OldSpacePageSize:  hc.OldSpacePageSize,
			TenuringThreshold: hc.TenuringThreshold,
		},
		PIC: PICSection{Capacity: 4},
	}
}

// Load parses a wisp.toml file from the given directory, falling back
// to Default for any field left unset (BurntSushi/toml leaves zero
// values in place for keys the file omits).
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "wisp.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir looking for a wisp.toml file. It
// returns Default with no error if none is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "wisp.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// HeapConfig converts the loaded section into an rt.HeapConfig.
func (c *Config) HeapConfig() rt.HeapConfig {
	return rt.HeapConfig{
		NewSpacePageSize:  c.Heap.NewSpacePageSize,
		OldSpacePageSize:  c.Heap.OldSpacePageSize,
		TenuringThreshold: c.Heap.TenuringThreshold,
	}
}
