// Package config provides configuration loading and management for Semscrub.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Missing-term policies.
const (
	// PolicyPrune rewrites statements, removing references to missing terms
	PolicyPrune = "prune"
	// PolicyStub appends placeholder definitions for missing terms instead
	PolicyStub = "stub"
)

// Config represents the complete Semscrub configuration
type Config struct {
	// DataDir is the candidate corpus directory, rewritten in place
	DataDir string `yaml:"data_dir"`
	// VocabDir is the trusted vocabulary directory, never modified by a prune run
	VocabDir string `yaml:"vocab_dir"`
	// Report is the missing-terms report path
	Report string `yaml:"report"`

	Scrub    ScrubConfig    `yaml:"scrub"`
	Prefixes PrefixesConfig `yaml:"prefixes"`
	Watch    WatchConfig    `yaml:"watch"`
	NATS     NATSConfig     `yaml:"nats"`
	Loader   LoaderConfig   `yaml:"loader"`
	Serve    ServeConfig    `yaml:"serve"`
}

// ScrubConfig configures the repair/audit/prune pipeline
type ScrubConfig struct {
	// MinUsage is the usage count below which undefined terms are ignored
	MinUsage int `yaml:"min_usage"`
	// SkipRepair disables the line repairer
	SkipRepair bool `yaml:"skip_repair"`
	// KeepEmpty keeps files with no statements instead of deleting them
	KeepEmpty bool `yaml:"keep_empty"`
	// Policy selects how missing terms are handled: prune or stub
	Policy string `yaml:"policy"`
	// Workers caps concurrent file workers (0 = NumCPU, at most 8)
	Workers int `yaml:"workers"`
	// Include selects candidate files below data_dir (doublestar globs)
	Include []string `yaml:"include"`
	// Exclude removes matches from the candidate set
	Exclude []string `yaml:"exclude"`
	// StubFile is the stub vocabulary file, relative to vocab_dir
	StubFile string `yaml:"stub_file"`
	// StubLangs are the label languages for stub definitions
	StubLangs []string `yaml:"stub_langs"`
}

// PrefixesConfig configures the namespace prefixes
type PrefixesConfig struct {
	// Vocabulary lists the audited vocabulary prefixes
	Vocabulary []string `yaml:"vocabulary"`
	// Resource lists the entity prefixes recognized by the repair rules
	Resource []string `yaml:"resource"`
	// Bindings maps prefixes to namespace IRIs (compaction + loader headers)
	Bindings map[string]string `yaml:"bindings"`
}

// WatchConfig configures continuous re-scrubbing
type WatchConfig struct {
	// Enabled turns on the file watcher
	Enabled bool `yaml:"enabled"`
	// Debounce is the quiet period before changed files are reprocessed
	Debounce time.Duration `yaml:"debounce"`
	// ExcludeDirs are directory names the watcher never descends into
	ExcludeDirs []string `yaml:"exclude_dirs"`
}

// NATSConfig configures the NATS connection for run provenance
type NATSConfig struct {
	// URL is the NATS server URL (empty = provenance publishing disabled)
	URL string `yaml:"url"`
	// Name is the client connection name
	Name string `yaml:"name"`
}

// LoaderConfig configures the triple-store bulk loader
type LoaderConfig struct {
	// Endpoint is the store's base URL
	Endpoint string `yaml:"endpoint"`
	// Dataset is the target dataset name
	Dataset string `yaml:"dataset"`
	// GraphBase prefixes per-file named-graph IRIs
	GraphBase string `yaml:"graph_base"`
	// User authenticates admin requests
	User string `yaml:"user"`
	// Password authenticates admin requests (SEMSCRUB_STORE_PASSWORD wins)
	Password string `yaml:"password"`
	// CreateDataset creates the dataset when it does not exist
	CreateDataset bool `yaml:"create_dataset"`
	// Timeout bounds each store request
	Timeout time.Duration `yaml:"timeout"`
}

// ServeConfig configures the dereference API
type ServeConfig struct {
	// Listen is the HTTP listen address
	Listen string `yaml:"listen"`
	// Endpoint is the SPARQL query endpoint
	Endpoint string `yaml:"endpoint"`
	// BaseIRI is the resource namespace served for dereference
	BaseIRI string `yaml:"base_iri"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DataDir:  "data/silver",
		VocabDir: "data/vocabulary",
		Report:   "missing_terms.txt",
		Scrub: ScrubConfig{
			MinUsage:  1,
			Policy:    PolicyPrune,
			Workers:   0, // NumCPU
			Include:   []string{"**/*.ttl"},
			StubFile:  "additional.ttl",
			StubLangs: []string{"en", "vi"},
		},
		Prefixes: PrefixesConfig{
			Vocabulary: []string{"kg"},
			Resource:   []string{"res"},
			Bindings: map[string]string{
				"kg":     "https://semscrub.dev/ontology#",
				"res":    "https://semscrub.dev/resource/",
				"rdf":    "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
				"rdfs":   "http://www.w3.org/2000/01/rdf-schema#",
				"owl":    "http://www.w3.org/2002/07/owl#",
				"xsd":    "http://www.w3.org/2001/XMLSchema#",
				"foaf":   "http://xmlns.com/foaf/0.1/",
				"schema": "https://schema.org/",
			},
		},
		Watch: WatchConfig{
			Enabled:     false,
			Debounce:    500 * time.Millisecond,
			ExcludeDirs: []string{".git", "node_modules", "vendor"},
		},
		NATS: NATSConfig{
			URL:  "",
			Name: "semscrub",
		},
		Loader: LoaderConfig{
			Endpoint:      "http://localhost:3030",
			Dataset:       "kg",
			GraphBase:     "https://semscrub.dev/graph/",
			User:          "admin",
			CreateDataset: true,
			Timeout:       60 * time.Second,
		},
		Serve: ServeConfig{
			Listen:   ":8090",
			Endpoint: "http://localhost:3030/kg/sparql",
			BaseIRI:  "https://semscrub.dev/resource/",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.VocabDir == "" {
		return fmt.Errorf("vocab_dir is required")
	}
	if c.Scrub.MinUsage < 1 {
		return fmt.Errorf("scrub.min_usage must be at least 1")
	}
	if c.Scrub.Policy != PolicyPrune && c.Scrub.Policy != PolicyStub {
		return fmt.Errorf("scrub.policy must be %q or %q", PolicyPrune, PolicyStub)
	}
	if c.Scrub.Workers < 0 {
		return fmt.Errorf("scrub.workers must not be negative")
	}
	if len(c.Prefixes.Vocabulary) == 0 {
		return fmt.Errorf("prefixes.vocabulary must name at least one prefix")
	}
	if c.Watch.Enabled && c.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be positive")
	}
	return nil
}

// ValidateLoader checks the fields the load command requires
func (c *Config) ValidateLoader() error {
	if c.Loader.Endpoint == "" {
		return fmt.Errorf("loader.endpoint is required")
	}
	if c.Loader.Dataset == "" {
		return fmt.Errorf("loader.dataset is required")
	}
	return nil
}

// ValidateServe checks the fields the serve command requires
func (c *Config) ValidateServe() error {
	if c.Serve.Listen == "" {
		return fmt.Errorf("serve.listen is required")
	}
	if c.Serve.Endpoint == "" {
		return fmt.Errorf("serve.endpoint is required")
	}
	return nil
}

// EffectiveWorkers resolves the worker cap, defaulting to NumCPU bounded at 8
func (c *ScrubConfig) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	n := runtime.NumCPU()
	if n > 8 {
		n = 8
	}
	return n
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}
	if other.VocabDir != "" {
		c.VocabDir = other.VocabDir
	}
	if other.Report != "" {
		c.Report = other.Report
	}

	// Scrub
	if other.Scrub.MinUsage != 0 {
		c.Scrub.MinUsage = other.Scrub.MinUsage
	}
	if other.Scrub.SkipRepair {
		c.Scrub.SkipRepair = true
	}
	if other.Scrub.KeepEmpty {
		c.Scrub.KeepEmpty = true
	}
	if other.Scrub.Policy != "" {
		c.Scrub.Policy = other.Scrub.Policy
	}
	if other.Scrub.Workers != 0 {
		c.Scrub.Workers = other.Scrub.Workers
	}
	if len(other.Scrub.Include) > 0 {
		c.Scrub.Include = other.Scrub.Include
	}
	if len(other.Scrub.Exclude) > 0 {
		c.Scrub.Exclude = other.Scrub.Exclude
	}
	if other.Scrub.StubFile != "" {
		c.Scrub.StubFile = other.Scrub.StubFile
	}
	if len(other.Scrub.StubLangs) > 0 {
		c.Scrub.StubLangs = other.Scrub.StubLangs
	}

	// Prefixes
	if len(other.Prefixes.Vocabulary) > 0 {
		c.Prefixes.Vocabulary = other.Prefixes.Vocabulary
	}
	if len(other.Prefixes.Resource) > 0 {
		c.Prefixes.Resource = other.Prefixes.Resource
	}
	if len(other.Prefixes.Bindings) > 0 {
		if c.Prefixes.Bindings == nil {
			c.Prefixes.Bindings = make(map[string]string)
		}
		for prefix, iri := range other.Prefixes.Bindings {
			c.Prefixes.Bindings[prefix] = iri
		}
	}

	// Watch
	if other.Watch.Enabled {
		c.Watch.Enabled = true
	}
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if len(other.Watch.ExcludeDirs) > 0 {
		c.Watch.ExcludeDirs = other.Watch.ExcludeDirs
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Name != "" {
		c.NATS.Name = other.NATS.Name
	}

	// Loader
	if other.Loader.Endpoint != "" {
		c.Loader.Endpoint = other.Loader.Endpoint
	}
	if other.Loader.Dataset != "" {
		c.Loader.Dataset = other.Loader.Dataset
	}
	if other.Loader.GraphBase != "" {
		c.Loader.GraphBase = other.Loader.GraphBase
	}
	if other.Loader.User != "" {
		c.Loader.User = other.Loader.User
	}
	if other.Loader.Password != "" {
		c.Loader.Password = other.Loader.Password
	}
	if other.Loader.CreateDataset {
		c.Loader.CreateDataset = true
	}
	if other.Loader.Timeout != 0 {
		c.Loader.Timeout = other.Loader.Timeout
	}

	// Serve
	if other.Serve.Listen != "" {
		c.Serve.Listen = other.Serve.Listen
	}
	if other.Serve.Endpoint != "" {
		c.Serve.Endpoint = other.Serve.Endpoint
	}
	if other.Serve.BaseIRI != "" {
		c.Serve.BaseIRI = other.Serve.BaseIRI
	}
}
