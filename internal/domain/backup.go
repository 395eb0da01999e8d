package domain

import "time"

// JobConfig is the immutable per-run configuration. The engine only ever
// reads a snapshot of it; ownership stays with the caller.
type JobConfig struct {
	SourcePath      string
	LocalDestDir    string
	RemoteFolderID  string
	IntervalMinutes int
}

// Artifact is one compressed file produced by a run. The engine never
// deletes artifacts; retention is the operator's responsibility.
type Artifact struct {
	Path      string
	SizeBytes int64
	CreatedAt time.Time
}

type RunStatus string

const (
	StatusSuccess        RunStatus = "Success"
	StatusPartialFailure RunStatus = "PartialFailure"
	StatusFailure        RunStatus = "Failure"
)

// OperationRecord is one row of run history, immutable once appended.
// Checksum and RemoteFileID stay empty when the corresponding stage
// never completed.
type OperationRecord struct {
	Timestamp    time.Time
	SourcePath   string
	ArtifactPath string
	ArtifactSize int64
	Checksum     string
	RemoteFileID string
	Status       RunStatus
	Message      string
}

// SchedulerState is a read snapshot of the engine's control state.
type SchedulerState struct {
	Running         bool
	Armed           bool
	IntervalMinutes int
	LastRunAt       time.Time
	NextRunAt       time.Time
}
