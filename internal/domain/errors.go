package domain

import "errors"

var (
	// Archiver failures.
	ErrSourceNotFound = errors.New("source path not found")
	ErrDestUnwritable = errors.New("destination directory not writable")

	// Hasher failure.
	ErrReadError = errors.New("artifact read failed")

	// RemoteStore failures. ErrAuthRequired is terminal for the run; the
	// operator must re-authenticate out of band.
	ErrAuthRequired = errors.New("remote authentication required")
	ErrUploadFailed = errors.New("remote upload failed")

	// Scheduler guard and state machine.
	ErrRunInProgress = errors.New("a backup run is already in progress")
	ErrAlreadyArmed  = errors.New("scheduler already armed")
	ErrNotArmed      = errors.New("scheduler not armed")

	// ErrLogWrite means run history could not be durably written. It is
	// always surfaced to the caller regardless of trigger source.
	ErrLogWrite = errors.New("operation log write failed")
)
