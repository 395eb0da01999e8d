package domain

import "context"

// RemoteStore uploads a local file to a named remote location. An empty
// folderID means the default remote root. Authentication lives entirely
// behind this boundary.
type RemoteStore interface {
	Upload(ctx context.Context, localPath string, folderID string) (remoteFileID string, err error)
}

// Notifier delivers a run outcome to an operator channel. Failures are
// best-effort and never change the recorded outcome.
type Notifier interface {
	Notify(ctx context.Context, record OperationRecord) error
}
