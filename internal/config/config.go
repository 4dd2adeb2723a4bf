// Package config loads the array configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// Config describes one RAID6 array. DiskPaths may be left empty, in which
// case dataDisks+2 directories named disk0..diskN+1 are derived under Root.
type Config struct {
	Root          string   `yaml:"root"`
	DataDisks     int      `yaml:"dataDisks"`
	ParityDisks   int      `yaml:"parityDisks"`
	FieldDegree   uint     `yaml:"fieldDegree"`
	ChunkSize     int      `yaml:"chunkSize"`
	DiskPaths     []string `yaml:"diskPaths"`
	Store         string   `yaml:"store"`
	Compression   string   `yaml:"compression"`
	Workers       int      `yaml:"workers"`
	MinimumFreeGB uint     `yaml:"minimumFreeGB"`
}

// Load reads and validates a config file, filling defaults for omitted
// options.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ApplyDefaults fills omitted options with working values.
func (c *Config) ApplyDefaults() {
	if c.DataDisks == 0 {
		c.DataDisks = 4
	}
	if c.ParityDisks == 0 {
		c.ParityDisks = 2
	}
	if c.FieldDegree == 0 {
		c.FieldDegree = 8
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 4096
	}
	if c.Store == "" {
		c.Store = "file"
	}
	if c.Compression == "" {
		c.Compression = "none"
	}
	if len(c.DiskPaths) == 0 && c.Root != "" {
		for i := 0; i < c.DataDisks+c.ParityDisks; i++ {
			c.DiskPaths = append(c.DiskPaths, filepath.Join(c.Root, fmt.Sprintf("disk%d", i)))
		}
	}
}

// Validate rejects configurations the array cannot run with.
func (c Config) Validate() error {
	if c.DataDisks < 2 {
		return fmt.Errorf("config: dataDisks must be >= 2, got %d", c.DataDisks)
	}
	if c.ParityDisks != 2 {
		return fmt.Errorf("config: parityDisks is fixed at 2 (RAID6), got %d", c.ParityDisks)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("config: chunkSize must be positive, got %d", c.ChunkSize)
	}
	if c.Root == "" {
		return fmt.Errorf("config: root directory is required")
	}
	if len(c.DiskPaths) != c.DataDisks+c.ParityDisks {
		return fmt.Errorf("config: need %d disk paths, got %d",
			c.DataDisks+c.ParityDisks, len(c.DiskPaths))
	}
	switch c.Store {
	case "file", "badger":
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store)
	}
	return nil
}
