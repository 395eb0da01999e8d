package domain

// Archiver turns a source path into a single compressed artifact under
// destDir.
type Archiver interface {
	Archive(sourcePath, destDir string) (Artifact, error)
}

// Hasher computes a hex-encoded content digest of a file.
type Hasher interface {
	Checksum(path string) (string, error)
}

// OperationLog is the durable, append-only record of every run attempt.
type OperationLog interface {
	Append(record OperationRecord) error
	ReadAll() ([]OperationRecord, error)
}
