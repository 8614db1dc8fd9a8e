package core

import "time"

// Store defines the interface for id history operations.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Run operations
	CreateRun(schema string) (*Run, error)
	GetRun(id string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetLatestRun(schema string) (*Run, error)
	ListRuns(schema string, limit int) ([]*Run, error)

	// Id table operations
	SaveIDs(runID string, entries []IDEntry) error
	GetIDs(runID string) ([]IDEntry, error)

	// Maintenance
	DeleteOldRuns(schema string, keepRuns int) error
}

// RunStatus represents the status of a compile run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents one compile of one schema file.
type Run struct {
	ID          string
	Schema      string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// IDKind distinguishes the two id spaces.
type IDKind string

// Id kinds.
const (
	IDKindParam  IDKind = "param"
	IDKindSource IDKind = "source"
)

// IDEntry records which path owned an id in a run.
type IDEntry struct {
	Kind IDKind
	ID   int
	Path string
	Name string
}

// IDDrift is an id whose owner changed between two runs. An empty OldPath
// means the id is new; an empty NewPath means it disappeared.
type IDDrift struct {
	Kind    IDKind
	ID      int
	OldPath string
	NewPath string
}

// Breaking reports whether the drift reassigns or removes an existing id.
// Appending new ids keeps stored presets valid.
func (d IDDrift) Breaking() bool {
	return d.OldPath != ""
}

// IDTable flattens a document into id entries, params first.
func IDTable(doc *Document) []IDEntry {
	out := make([]IDEntry, 0, len(doc.Params)+len(doc.Sources))
	for _, p := range doc.Params {
		out = append(out, IDEntry{Kind: IDKindParam, ID: p.ID, Path: p.Path, Name: p.Name})
	}
	for _, s := range doc.Sources {
		out = append(out, IDEntry{Kind: IDKindSource, ID: s.ID, Path: s.Path, Name: s.Name})
	}
	return out
}

// CompareIDs lists the ids whose path differs between two tables, params
// first then sources, each ordered by id.
func CompareIDs(prev, next []IDEntry) []IDDrift {
	type key struct {
		kind IDKind
		id   int
	}
	old := make(map[key]string, len(prev))
	for _, e := range prev {
		old[key{e.Kind, e.ID}] = e.Path
	}
	cur := make(map[key]string, len(next))
	for _, e := range next {
		cur[key{e.Kind, e.ID}] = e.Path
	}

	var drifts []IDDrift
	for _, kind := range []IDKind{IDKindParam, IDKindSource} {
		maxID := -1
		for k := range old {
			if k.kind == kind && k.id > maxID {
				maxID = k.id
			}
		}
		for k := range cur {
			if k.kind == kind && k.id > maxID {
				maxID = k.id
			}
		}
		for id := 0; id <= maxID; id++ {
			o, n := old[key{kind, id}], cur[key{kind, id}]
			if o != n {
				drifts = append(drifts, IDDrift{Kind: kind, ID: id, OldPath: o, NewPath: n})
			}
		}
	}
	return drifts
}
