package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/custodio-dev/custodio/internal/domain"
)

// LocalStore mirrors artifacts into a directory tree. The remote folder
// id maps to a subdirectory; the returned remote id is the mirrored path.
// Useful for air-gapped setups and as the test double's real counterpart.
type LocalStore struct {
	basePath string
}

func NewLocal(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create mirror directory: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

func (l *LocalStore) Upload(ctx context.Context, localPath string, folderID string) (string, error) {
	destDir := l.basePath
	if folderID != "" {
		destDir = filepath.Join(l.basePath, folderID)
		if err := os.MkdirAll(destDir, 0755); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
		}
	}

	destPath := filepath.Join(destDir, filepath.Base(localPath))

	source, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	defer source.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, source); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	return destPath, nil
}

// List returns the mirrored file names under folderID.
func (l *LocalStore) List(ctx context.Context, folderID string) ([]string, error) {
	dir := l.basePath
	if folderID != "" {
		dir = filepath.Join(l.basePath, folderID)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mirror directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}
