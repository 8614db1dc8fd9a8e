package core

import (
	"fmt"

	"github.com/leapstack-labs/paramgen/pkg/token"
)

// Diagnostic codes reported by the schema builder.
const (
	DiagMissingRequiredName = "MissingRequiredName"
	DiagInvalidCount        = "InvalidCount"
)

// Diagnostic is a non-fatal problem found in a schema.
type Diagnostic struct {
	Code     string         `json:"code"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Pos      token.Position `json:"pos"`
	// Path of the offending entry, when it got far enough to have one
	Path string `json:"path,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s [%s] %s", d.Pos, d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s [%s] %s", d.Severity, d.Code, d.Message)
}
