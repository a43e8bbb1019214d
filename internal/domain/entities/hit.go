package entities

import (
	"time"

	"github.com/google/uuid"
)

// BinaryHit records a committed archive or office document. Its content is never read.
type BinaryHit struct {
	RepositoryID   string
	RepositoryName string
	Branch         string
	Path           string
}

// SensitiveHit records a comment containing a sensitive term.
type SensitiveHit struct {
	RepositoryID   string
	RepositoryName string
	Branch         string
	Path           string
	Line           int
	Term           string
	Excerpt        string
}

// File outcomes counted while traversing a repository.
const (
	FileOutcomeSkippedDirectory = "skipped_directory"
	FileOutcomeBinaryArtifact   = "binary_artifact"
	FileOutcomeUnrecognized     = "unrecognized"
	FileOutcomeFetchFailed      = "fetch_failed"
	FileOutcomeEmpty            = "empty"
	FileOutcomeBinaryContent    = "binary_content"
	FileOutcomeDecodeFailed     = "decode_failed"
	FileOutcomeScanned          = "scanned"
)

// Repository outcomes counted by the run orchestrator.
const (
	RepositoryOutcomeScanned   = "scanned"
	RepositoryOutcomeAbandoned = "abandoned"
)

// Hit kinds used for metrics labels.
const (
	HitKindBinary  = "binary"
	HitKindComment = "comment"
)

// ScanResult is everything one repository traversal produced.
type ScanResult struct {
	Repository    Repository
	Branch        string
	BinaryHits    []BinaryHit
	SensitiveHits []SensitiveHit
	FileOutcomes  map[string]int
}

// Run identifies one full sweep.
type Run struct {
	ID        string
	StartedAt time.Time
}

// NewRun starts a run with a fresh identifier.
func NewRun() Run {
	return Run{ID: uuid.NewString(), StartedAt: time.Now().UTC()}
}

// RunSummary holds the running totals of a sweep.
type RunSummary struct {
	RunID                 string
	RepositoriesTotal     int
	RepositoriesScanned   int
	RepositoriesAbandoned int
	BinaryHits            int
	SensitiveHits         int
	StartedAt             time.Time
	FinishedAt            time.Time
}
