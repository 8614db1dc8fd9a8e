// Package config loads the paramgen CLI configuration.
//
// Values come from paramgen.yaml, PARAMGEN_* environment variables and
// command-line flags. The shared project settings are handed to the engine
// as a core.ProjectConfig.
package config

import (
	"github.com/leapstack-labs/paramgen/pkg/core"
)

// LintConfig is an alias for the shared lint configuration.
type LintConfig = core.LintConfig

// Config holds all CLI configuration options.
type Config struct {
	Schemas       []string       `koanf:"schemas"`
	OutDir        string         `koanf:"out_dir"`
	Package       string         `koanf:"package"`
	RuntimeImport string         `koanf:"runtime_import"`
	Targets       []string       `koanf:"targets"`
	StatePath     string         `koanf:"state_path"`
	OutputFormat  string         `koanf:"output"`
	Verbose       bool           `koanf:"verbose"`
	LogLevel      string         `koanf:"log_level"`
	LogFormat     string         `koanf:"log_format"`
	Lint          *LintConfig    `koanf:"lint"`
	Emit          map[string]any `koanf:"emit"`

	// ProjectRoot is the directory relative paths were resolved against
	ProjectRoot string `koanf:"-"`
	// ConfigFile is the config file that was loaded, if any
	ConfigFile string `koanf:"-"`
}

// Project returns the settings the engine needs.
func (c *Config) Project() *core.ProjectConfig {
	return &core.ProjectConfig{
		Schemas:       c.Schemas,
		OutDir:        c.OutDir,
		Package:       c.Package,
		RuntimeImport: c.RuntimeImport,
		Targets:       c.Targets,
		Emit:          c.Emit,
		Lint:          c.Lint,
	}
}

// Default configuration values.
const (
	ConfigFileName   = "paramgen.yaml"
	DefaultSchemas   = "schemas/*.xml"
	DefaultOutDir    = "gen"
	DefaultPackage   = "params"
	DefaultTarget    = "go"
	DefaultStateFile = ".paramgen/state.db"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
	EnvPrefix        = "PARAMGEN_"
)
