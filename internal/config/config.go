package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skipbench/skipbench/internal/bench"
	"github.com/skipbench/skipbench/internal/layout"
	"github.com/skipbench/skipbench/internal/pruning"
)

// DefaultFile is the config file used when none is given on the command
// line.
const DefaultFile = "skipbench.yaml"

// ErrInvalid marks a structurally broken benchmark definition.
var ErrInvalid = errors.New("invalid configuration")

// Duration accepts Go duration strings ("5m", "90s") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// QueryConfig names one side of the comparison and carries its SQL text.
type QueryConfig struct {
	Label string `yaml:"label"`
	SQL   string `yaml:"sql"`
}

// KeyConfig declares one partition key of a table.
type KeyConfig struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

// RangeConfig is the inclusive bound pair of a between predicate.
type RangeConfig struct {
	Low  int `yaml:"low"`
	High int `yaml:"high"`
}

// PredicateConfig declares one predicate. Exactly one of Equals, In, or
// Between must be set.
type PredicateConfig struct {
	Key     string       `yaml:"key"`
	Equals  any          `yaml:"equals"`
	In      []any        `yaml:"in"`
	Between *RangeConfig `yaml:"between"`
}

// TableConfig declares one partitioned table root to count files under.
type TableConfig struct {
	Name       string            `yaml:"name"`
	Root       string            `yaml:"root"`
	FileSuffix string            `yaml:"file_suffix"`
	Keys       []KeyConfig       `yaml:"keys"`
	Predicates []PredicateConfig `yaml:"predicates"`
}

// Config holds all configuration for the application, loaded from a YAML
// file with environment variable overrides.
type Config struct {
	Database      string        `yaml:"database"` // duckdb path; empty runs in-memory
	Threads       int           `yaml:"threads"`
	ProfileOutput string        `yaml:"profile_output"`
	Repeats       int           `yaml:"repeats"`
	QueryTimeout  Duration      `yaml:"query_timeout"`
	OutputDir     string        `yaml:"output_dir"`
	Listen        string        `yaml:"listen"`
	Verify        bool          `yaml:"verify"`
	Baseline      QueryConfig   `yaml:"baseline"`
	Optimized     QueryConfig   `yaml:"optimized"`
	Tables        []TableConfig `yaml:"tables"`
}

// Load reads the YAML file at path, applies environment overrides, and
// fills in defaults. It falls back to DefaultFile when path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	cfg := &Config{
		Repeats:      5,
		QueryTimeout: Duration(5 * time.Minute),
		OutputDir:    "results",
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	cfg.applyEnv()

	if cfg.Baseline.Label == "" {
		cfg.Baseline.Label = "baseline"
	}
	if cfg.Optimized.Label == "" {
		cfg.Optimized.Label = "optimized"
	}

	log.Printf("config: loaded %s: Database=%q, Threads=%d, Repeats=%d, QueryTimeout=%v, Tables=%d",
		path, cfg.Database, cfg.Threads, cfg.Repeats, cfg.QueryTimeout.Std(), len(cfg.Tables))
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Database = getEnv("SKIPBENCH_DATABASE", c.Database)
	c.Threads = getEnvAsInt("SKIPBENCH_THREADS", c.Threads)
	c.Repeats = getEnvAsInt("SKIPBENCH_REPEATS", c.Repeats)
	c.QueryTimeout = Duration(getEnvAsDuration("SKIPBENCH_QUERY_TIMEOUT", c.QueryTimeout.Std()))
	c.OutputDir = getEnv("SKIPBENCH_OUTPUT_DIR", c.OutputDir)
	c.Listen = getEnv("SKIPBENCH_LISTEN", c.Listen)
}

// Validate checks the fields every command needs. An empty Database is
// valid and selects an in-memory session.
func (c *Config) Validate() error {
	if c.Repeats < 1 {
		return fmt.Errorf("config: repeats must be at least 1, got %d: %w", c.Repeats, ErrInvalid)
	}
	for i := range c.Tables {
		if _, err := c.Tables[i].table(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateQueries checks that both comparison sides carry SQL text.
func (c *Config) ValidateQueries() error {
	if c.Baseline.SQL == "" {
		return fmt.Errorf("config: baseline.sql must not be empty: %w", ErrInvalid)
	}
	if c.Optimized.SQL == "" {
		return fmt.Errorf("config: optimized.sql must not be empty: %w", ErrInvalid)
	}
	return nil
}

// Targets converts the declared tables into runnable pruning targets.
func (c *Config) Targets() ([]bench.Target, error) {
	targets := make([]bench.Target, 0, len(c.Tables))
	for i := range c.Tables {
		tc := &c.Tables[i]
		tab, err := tc.table()
		if err != nil {
			return nil, err
		}
		set := make(pruning.Set, 0, len(tc.Predicates))
		for j := range tc.Predicates {
			p, err := tc.Predicates[j].predicate(tc.Name)
			if err != nil {
				return nil, err
			}
			set = append(set, p)
		}
		targets = append(targets, bench.Target{Table: tab, Predicates: set})
	}
	return targets, nil
}

func (tc *TableConfig) table() (layout.Table, error) {
	keys := make([]layout.Key, 0, len(tc.Keys))
	for _, kc := range tc.Keys {
		kind, err := layout.ParseKind(kc.Kind)
		if err != nil {
			return layout.Table{}, fmt.Errorf("config: table %q key %q: %w", tc.Name, kc.Name, err)
		}
		keys = append(keys, layout.Key{Name: kc.Name, Kind: kind})
	}
	tab := layout.Table{
		Name:       tc.Name,
		Root:       tc.Root,
		Keys:       keys,
		FileSuffix: tc.FileSuffix,
	}
	if err := tab.Validate(); err != nil {
		return layout.Table{}, fmt.Errorf("config: table %q: %w", tc.Name, err)
	}
	return tab, nil
}

func (pc *PredicateConfig) predicate(table string) (pruning.Predicate, error) {
	set := 0
	if pc.Equals != nil {
		set++
	}
	if pc.In != nil {
		set++
	}
	if pc.Between != nil {
		set++
	}
	if set != 1 {
		return pruning.Predicate{}, fmt.Errorf("config: table %q predicate on %q must set exactly one of equals, in, between: %w", table, pc.Key, ErrInvalid)
	}

	switch {
	case pc.Equals != nil:
		return pruning.Equals(pc.Key, stringify(pc.Equals)), nil
	case pc.In != nil:
		values := make([]string, 0, len(pc.In))
		for _, v := range pc.In {
			values = append(values, stringify(v))
		}
		return pruning.In(pc.Key, values...), nil
	default:
		return pruning.Between(pc.Key, pc.Between.Low, pc.Between.High), nil
	}
}

// stringify renders YAML scalars the way they would appear in a
// directory name.
func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}

// getEnv retrieves a string environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an int environment variable or returns a fallback value.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("config: invalid value for %s: %v. using fallback %d", key, err, fallback)
		return fallback
	}
	return value
}

// getEnvAsDuration retrieves a time.Duration environment variable or returns a fallback value.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("config: invalid value for %s: %v. using fallback %v", key, err, fallback)
		return fallback
	}
	return value
}
