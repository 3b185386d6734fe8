// Package config loads mshdb settings through Viper.
//
// Precedence, lowest to highest: built-in defaults, the config file
// (mshdb.toml or mshdb.yaml in the working directory, or an explicit
// --config path), then MSHDB_* environment variables.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/sheets"
	"github.com/roach88/mshdb/internal/table"
)

// EnvPrefix prefixes every environment override, e.g. MSHDB_LOG_VERBOSE.
const EnvPrefix = "MSHDB"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the full mshdb configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Schema  string        `mapstructure:"schema"`
	Output  OutputConfig  `mapstructure:"output"`
	Store   StoreConfig   `mapstructure:"store"`
	Dataset DatasetConfig `mapstructure:"dataset"`
}

// LogConfig controls logger.Initialize.
type LogConfig struct {
	JSON    bool `mapstructure:"json"`
	Verbose bool `mapstructure:"verbose"`
}

// OutputConfig controls how commands render results.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// StoreConfig names the default snapshot database.
type StoreConfig struct {
	Path     string `mapstructure:"path"`
	Snapshot string `mapstructure:"snapshot"`
}

// DatasetConfig is an inline dataset schema, used when no CUE schema
// file is available.
type DatasetConfig struct {
	Key       string        `mapstructure:"key" yaml:"key"`
	Session   string        `mapstructure:"session" yaml:"session"`
	Group     string        `mapstructure:"group" yaml:"group"`
	Main      string        `mapstructure:"main" yaml:"main"`
	AllowDiff bool          `mapstructure:"allow_diff" yaml:"allow_diff"`
	Sheets    []SheetConfig `mapstructure:"sheets" yaml:"sheets"`
}

// SheetConfig declares one sheet of an inline dataset.
type SheetConfig struct {
	Name    string         `mapstructure:"name" yaml:"name"`
	Columns []ColumnConfig `mapstructure:"columns" yaml:"columns"`
}

// ColumnConfig declares one column of an inline sheet.
type ColumnConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
	Kind string `mapstructure:"kind" yaml:"kind"`
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.json", false)
	v.SetDefault("log.verbose", false)
	v.SetDefault("schema", "schema.cue")
	v.SetDefault("output.format", FormatText)
	v.SetDefault("store.path", "mshdb.sqlite")
	v.SetDefault("store.snapshot", "latest")
}

// NewViper builds a Viper instance with defaults and env binding. When
// path is empty it looks for mshdb.{toml,yaml} in the working directory.
func NewViper(path string) *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mshdb")
		v.AddConfigPath(".")
	}
	return v
}

// Load reads configuration from path (or the default search location).
// A missing default config file is not an error; a missing explicit one is.
func Load(path string) (*Config, error) {
	v := NewViper(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	return LoadWithViper(v)
}

// LoadWithViper unmarshals and validates configuration from v.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks option values that Viper cannot constrain.
func (c *Config) Validate() error {
	if !slices.Contains([]string{FormatText, FormatJSON}, c.Output.Format) {
		return errors.WithHintf(
			errors.Newf("output.format %q is not supported", c.Output.Format),
			"use %q or %q", FormatText, FormatJSON,
		)
	}
	return nil
}

// HasDataset reports whether the config file declares an inline dataset.
func (c *Config) HasDataset() bool {
	return len(c.Dataset.Sheets) > 0
}

// DatasetSchema converts the inline dataset into a validated Schema.
func (c *Config) DatasetSchema() (sheets.Schema, error) {
	return c.Dataset.Schema()
}

// Schema converts d into a validated Schema.
func (d DatasetConfig) Schema() (sheets.Schema, error) {
	s := sheets.Schema{
		KeyColumn:     d.Key,
		SessionColumn: d.Session,
		GroupColumn:   d.Group,
		AllowDiff:     d.AllowDiff,
	}

	for _, sh := range d.Sheets {
		s.Sheets = append(s.Sheets, sh.Name)
		if len(sh.Columns) == 0 {
			continue
		}
		if s.Columns == nil {
			s.Columns = make(map[string][]table.Column)
		}
		for _, col := range sh.Columns {
			kind, err := cell.ParseKind(col.Kind)
			if err != nil {
				return sheets.Schema{}, errors.Wrapf(err, "dataset sheet %q column %q", sh.Name, col.Name)
			}
			s.Columns[sh.Name] = append(s.Columns[sh.Name], table.Column{Name: col.Name, Kind: kind})
		}
	}

	if d.Main != "" {
		s.MainIndex = slices.Index(s.Sheets, d.Main)
		if s.MainIndex < 0 {
			return sheets.Schema{}, errors.NewInvalidSchemaError(fmt.Sprintf("main sheet %q is not listed in dataset.sheets", d.Main))
		}
	}

	if err := s.Validate(); err != nil {
		return sheets.Schema{}, errors.Wrap(err, "dataset")
	}
	return s, nil
}
