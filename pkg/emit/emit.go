// Package emit defines output targets for resolved schema documents.
//
// A Target turns a core.Document into one or more artifacts. Targets register
// themselves in init(), the same way the language-specific emitters under
// pkg/emit do, and are looked up by name from configuration.
package emit

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/paramgen/pkg/core"
)

// DefaultRuntimeImport is the import path of the runtime package generated
// code depends on.
const DefaultRuntimeImport = "github.com/leapstack-labs/paramgen/pkg/synthrt"

// Sentinel errors shared by all targets.
var (
	ErrUnknownTarget = errors.New("unknown emit target")
	ErrEmptyDocument = errors.New("document has no top-level module")
)

// Artifact is one generated file.
type Artifact struct {
	// Name is the file name relative to the output directory.
	Name    string
	Content []byte
}

// Options are the settings every target receives.
type Options struct {
	// Package is the package or namespace name of generated code.
	Package string
	// RuntimeImport is the import path of the runtime support package.
	RuntimeImport string
	// Basename prefixes every artifact name.
	Basename string
	// Extra holds target-specific settings, decoded with DecodeOptions.
	Extra map[string]any
}

// Target renders documents in one output format.
type Target interface {
	// Name is the identifier used in configuration, e.g. "go".
	Name() string
	// Emit renders doc. It never modifies doc.
	Emit(doc *core.Document, opts Options) ([]Artifact, error)
}

// Target registry
var (
	targetsMu sync.RWMutex
	targets   = make(map[string]Target)
)

// Register registers a target in the global registry.
// Called by target implementations in their init() functions.
func Register(t Target) {
	targetsMu.Lock()
	defer targetsMu.Unlock()
	targets[strings.ToLower(t.Name())] = t
}

// Get returns a target by name.
func Get(name string) (Target, bool) {
	targetsMu.RLock()
	defer targetsMu.RUnlock()
	t, ok := targets[strings.ToLower(name)]
	return t, ok
}

// MustGet returns a target by name or an error wrapping ErrUnknownTarget.
func MustGet(name string) (Target, error) {
	t, ok := Get(name)
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownTarget, name, strings.Join(List(), ", "))
	}
	return t, nil
}

// List returns all registered target names (sorted).
func List() []string {
	targetsMu.RLock()
	defer targetsMu.RUnlock()
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DecodeOptions decodes the target-specific settings in raw into out, which
// must be a pointer to a struct with mapstructure tags. String values are
// converted to the field types ("true" -> bool, "2" -> int) since they often
// come from environment variables.
func DecodeOptions(raw map[string]any, out any) error {
	if len(raw) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("creating options decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decoding emit options: %w", err)
	}
	return nil
}

// Section returns the settings stored under key in extra, if it is a map.
// Config files nest per-target settings as emit.<target>.<option>.
func Section(extra map[string]any, key string) map[string]any {
	if extra == nil {
		return nil
	}
	if m, ok := extra[key].(map[string]any); ok {
		return m
	}
	return nil
}

// CheckDocument returns ErrEmptyDocument when doc has nothing to emit.
func CheckDocument(doc *core.Document) error {
	if doc == nil || doc.Top == nil {
		return ErrEmptyDocument
	}
	return nil
}
