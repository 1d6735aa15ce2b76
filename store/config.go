package store

import (
	"fmt"
	"os"

	"github.com/viant/sqlite-kd/index"
	"github.com/viant/sqlite-kd/kdtree"
	"gopkg.in/yaml.v3"
)

// Config controls how a SQLiteStore indexes embeddings.
type Config struct {
	// Distance names the metric: l2sq (default), l2, l1 or linf.
	Distance string `yaml:"distance,omitempty"`

	// Index selects the index: auto (default), kd or brute.
	Index string `yaml:"index,omitempty"`

	// AutoMinDocs is the smallest document count for which auto picks kd.
	AutoMinDocs int `yaml:"autoMinDocs,omitempty"`

	// AutoMaxDim is the largest dimensionality for which auto picks kd.
	AutoMaxDim int `yaml:"autoMaxDim,omitempty"`
}

// NewDefaultConfig returns a configuration with default settings.
func NewDefaultConfig() *Config {
	return &Config{
		Distance:    string(kdtree.DistanceFunctionSquaredEuclidean),
		Index:       index.KindAuto,
		AutoMinDocs: index.DefaultAutoMinDocs,
		AutoMaxDim:  index.DefaultAutoMaxDim,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.IndexOptions(); err != nil {
		return err
	}
	return nil
}

// IndexOptions converts the configuration into index build options.
func (c *Config) IndexOptions() (index.Options, error) {
	distance, err := kdtree.ParseDistanceFunction(c.Distance)
	if err != nil {
		return index.Options{}, fmt.Errorf("distance: %w", err)
	}
	kind, err := index.ParseKind(c.Index)
	if err != nil {
		return index.Options{}, err
	}
	if c.AutoMinDocs < 0 {
		return index.Options{}, fmt.Errorf("autoMinDocs must not be negative, got %d", c.AutoMinDocs)
	}
	if c.AutoMaxDim < 0 {
		return index.Options{}, fmt.Errorf("autoMaxDim must not be negative, got %d", c.AutoMaxDim)
	}
	return index.Options{
		Kind:        kind,
		Distance:    distance,
		AutoMinDocs: c.AutoMinDocs,
		AutoMaxDim:  c.AutoMaxDim,
	}, nil
}

// ParseConfig decodes and validates a YAML configuration.
func ParseConfig(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// LoadConfig loads configuration from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}
