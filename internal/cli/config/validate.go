package config

import (
	"errors"
	"fmt"
	"go/token"
	"io"
	"slices"
	"strings"

	"github.com/leapstack-labs/paramgen/internal/cli/output"
	"github.com/leapstack-labs/paramgen/pkg/emit"
	"github.com/leapstack-labs/paramgen/pkg/lint"
)

// Validate checks the configuration. Targets are checked against the emit
// registry, so target packages must be linked into the binary.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Schemas) == 0 {
		errs = append(errs, errors.New("schemas is required"))
	}
	if len(c.Targets) == 0 {
		errs = append(errs, errors.New("targets is required"))
	}
	for _, t := range c.Targets {
		if _, ok := emit.Get(t); !ok {
			errs = append(errs, fmt.Errorf("unknown target %q (available: %s)\nHint: Check the targets list in %s",
				t, strings.Join(emit.List(), ", "), ConfigFileName))
		}
	}
	if !token.IsIdentifier(c.Package) {
		errs = append(errs, fmt.Errorf("package %q is not a valid identifier", c.Package))
	}
	if c.OutputFormat != "" && !slices.Contains(output.Modes, strings.ToLower(c.OutputFormat)) {
		errs = append(errs, fmt.Errorf("output %q is not one of %s", c.OutputFormat, strings.Join(output.Modes, ", ")))
	}
	if _, err := NewLogger(c, io.Discard); err != nil {
		errs = append(errs, err)
	}
	if _, err := lint.FromProject(c.Lint); err != nil {
		errs = append(errs, fmt.Errorf("lint: %w", err))
	}

	return errors.Join(errs...)
}
