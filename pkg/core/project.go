package core

// ProjectConfig holds project-level configuration.
type ProjectConfig struct {
	Schemas       []string       `koanf:"schemas"`
	OutDir        string         `koanf:"out_dir"`
	Package       string         `koanf:"package"`
	RuntimeImport string         `koanf:"runtime_import"`
	Targets       []string       `koanf:"targets"`
	Emit          map[string]any `koanf:"emit"`
	Lint          *LintConfig    `koanf:"lint"`
}

// LintConfig holds lint rule configuration.
type LintConfig struct {
	// Enabled controls whether schema linting runs during compile (default: true)
	Enabled *bool `koanf:"enabled"`

	// Disabled contains rule IDs to disable
	Disabled []string `koanf:"disabled"`

	// Severity maps rule ID to severity override (error, warning, info, hint)
	Severity map[string]string `koanf:"severity"`
}

// IsEnabled returns whether linting is enabled.
func (c *LintConfig) IsEnabled() bool {
	if c == nil || c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// IsDisabled reports whether a rule was switched off.
func (c *LintConfig) IsDisabled(id string) bool {
	if c == nil {
		return false
	}
	for _, d := range c.Disabled {
		if d == id {
			return true
		}
	}
	return false
}
