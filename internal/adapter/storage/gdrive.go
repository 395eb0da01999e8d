package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodio-dev/custodio/internal/domain"
)

// GDriveStore uploads artifacts to Google Drive using a previously
// persisted OAuth2 token. Obtaining that token is the auth helper's job;
// this store only consumes it. The Drive service is built on first use so
// a missing token surfaces as ErrAuthRequired on the run that needs it,
// not at process start.
type GDriveStore struct {
	clientSecretFile string
	tokenFile        string

	mu      sync.Mutex
	service *drive.Service
}

func NewGDrive(clientSecretFile, tokenFile string) *GDriveStore {
	return &GDriveStore{
		clientSecretFile: clientSecretFile,
		tokenFile:        tokenFile,
	}
}

func (g *GDriveStore) Upload(ctx context.Context, localPath string, folderID string) (string, error) {
	service, err := g.getService(ctx)
	if err != nil {
		return "", err
	}

	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	defer file.Close()

	meta := &drive.File{Name: filepath.Base(localPath)}
	if folderID != "" {
		meta.Parents = []string{folderID}
	}

	created, err := service.Files.Create(meta).
		Media(file).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		if isAuthError(err) {
			return "", fmt.Errorf("%w: %v", domain.ErrAuthRequired, err)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	return created.Id, nil
}

// List returns the names of files under folderID, for operator tooling.
func (g *GDriveStore) List(ctx context.Context, folderID string) ([]string, error) {
	service, err := g.getService(ctx)
	if err != nil {
		return nil, err
	}

	query := "trashed=false"
	if folderID != "" {
		query = fmt.Sprintf("'%s' in parents and trashed=false", folderID)
	}

	fileList, err := service.Files.List().
		Q(query).
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	var names []string
	for _, f := range fileList.Files {
		names = append(names, f.Name)
	}
	return names, nil
}

// Delete removes a remote file by id, for operator tooling.
func (g *GDriveStore) Delete(ctx context.Context, fileID string) error {
	service, err := g.getService(ctx)
	if err != nil {
		return err
	}
	if err := service.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (g *GDriveStore) getService(ctx context.Context) (*drive.Service, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.service != nil {
		return g.service, nil
	}

	b, err := os.ReadFile(g.clientSecretFile)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read client secret: %v", domain.ErrAuthRequired, err)
	}

	cfg, err := google.ConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to parse client secret: %v", domain.ErrAuthRequired, err)
	}

	token, err := loadToken(g.tokenFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthRequired, err)
	}

	service, err := drive.NewService(ctx, option.WithTokenSource(cfg.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	g.service = service
	return service, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("no saved token at %s", path)
	}
	defer f.Close()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %v", path, err)
	}
	return &token, nil
}

func isAuthError(err error) bool {
	if apiErr, ok := err.(*googleapi.Error); ok {
		return apiErr.Code == 401 || apiErr.Code == 403
	}
	return false
}
