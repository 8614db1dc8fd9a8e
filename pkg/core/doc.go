// Package core defines the shared language of the paramgen system.
//
// This package contains:
//   - The resolved schema tree (Document, Module, Instance, Parameter, Source)
//   - Diagnostics and severities shared by the builder and the linter
//   - Service interfaces (Store) and their records (Run, IDEntry)
//   - Configuration types (ProjectConfig, LintConfig)
//
// The Golden Rule: pkg/core imports ONLY pkg/token and stdlib.
// All other packages depend on core, not the reverse.
package core
