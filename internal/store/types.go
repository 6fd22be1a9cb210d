package store

import "time"

// Operation statuses recorded in the journal.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Operation kinds recorded in the journal. Kinds mirror the backend
// operations, plus "estimate" for the janitor's non-destructive pass.
const (
	OpClone    = "clone"
	OpRename   = "rename"
	OpDelete   = "delete"
	OpCreate   = "create"
	OpExport   = "export"
	OpImport   = "import"
	OpInstall  = "install"
	OpRemove   = "remove"
	OpUpdate   = "update"
	OpEstimate = "estimate"
	OpClean    = "clean"
)

// Operation is one journal entry for a backend invocation sequence.
type Operation struct {
	ID         int64
	Kind       string
	EnvName    string
	Status     string
	Detail     string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
}

// EnvSize is a cached directory size for an environment path.
type EnvSize struct {
	Path      string
	SizeBytes int64
	ScannedAt time.Time
}
