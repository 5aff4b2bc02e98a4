package store

import (
	"strings"
	"time"
)

// RunKind names the pipeline operation a ledger run belongs to.
type RunKind string

const (
	RunCode     RunKind = "code"
	RunDescribe RunKind = "describe"
)

// errorPrefix tags outputs that record a failure instead of a label.
const errorPrefix = "ERROR:"

// Run is one recorded invocation of a labeling pipeline.
type Run struct {
	ID           string
	Kind         RunKind
	SheetPath    string
	Model        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Institutions int
	RowsLabeled  int
	RowsFailed   int
}

// Finished reports whether the run recorded a completion time.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// ClipLabel is the ledger row for one coder clip: the sheet annotations it
// was sent with, the resolved scene evidence, and the model's verbatim
// reply.
type ClipLabel struct {
	RunID       string
	Institution string
	Clip        int
	NextClip    int
	HasNext     bool
	Length      string
	Category    string
	Subcategory string
	Description string
	Revision    string
	ScenesGuess string
	ImagePath   string
	Output      string
	LabeledAt   time.Time
}

// Failed reports whether the recorded output is an ERROR capture rather
// than a label. Failed rows are retried on resume.
func (l ClipLabel) Failed() bool {
	return strings.HasPrefix(l.Output, errorPrefix)
}

// Labeled reports whether the row holds a usable (possibly empty) label.
func (l ClipLabel) Labeled() bool {
	return !l.Failed()
}

// SceneNote is the ledger row for one per-scene annotation: a measured
// clip length plus the model's description and category replies.
type SceneNote struct {
	RunID         string
	Institution   string
	Scene         int
	LengthSeconds float64
	ImagePath     string
	Description   string
	Category      string
	NotedAt       time.Time
}

// Failed reports whether either annotation recorded an ERROR capture.
func (n SceneNote) Failed() bool {
	return strings.HasPrefix(n.Description, errorPrefix) || strings.HasPrefix(n.Category, errorPrefix)
}

// InstitutionSummary aggregates ledger coverage for one institution.
type InstitutionSummary struct {
	Institution string
	Labeled     int
	Failed      int
	LastLabeled time.Time
}
