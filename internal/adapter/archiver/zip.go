package archiver

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodio-dev/custodio/internal/domain"
)

// Zip entry metadata is pinned so that archiving identical source bytes
// yields byte-identical artifacts: entries are written in walk order with
// a fixed modification time and Deflate compression. Artifact checksums
// are therefore comparable across runs.
var pinnedModTime = time.Unix(0, 0).UTC()

type ZipArchiver struct{}

func NewZip() *ZipArchiver {
	return &ZipArchiver{}
}

func (z *ZipArchiver) Archive(sourcePath, destDir string) (domain.Artifact, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Artifact{}, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, sourcePath)
		}
		return domain.Artifact{}, fmt.Errorf("failed to stat source: %w", err)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return domain.Artifact{}, fmt.Errorf("%w: %s: %v", domain.ErrDestUnwritable, destDir, err)
	}

	createdAt := time.Now().UTC()
	outPath, err := resolveOutputPath(sourcePath, destDir, info.IsDir(), createdAt)
	if err != nil {
		return domain.Artifact{}, err
	}

	if err := writeArchive(sourcePath, outPath, info.IsDir()); err != nil {
		// Never leave a partially written artifact behind.
		os.Remove(outPath)
		return domain.Artifact{}, err
	}

	finished, err := os.Stat(outPath)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("failed to stat artifact: %w", err)
	}

	return domain.Artifact{
		Path:      outPath,
		SizeBytes: finished.Size(),
		CreatedAt: createdAt,
	}, nil
}

// resolveOutputPath derives backup-<base>-<YYYYMMDD-HHMMSS>.zip under
// destDir, appending a numeric suffix if two runs land in the same second.
func resolveOutputPath(sourcePath, destDir string, isDir bool, createdAt time.Time) (string, error) {
	base := filepath.Base(sourcePath)
	if !isDir {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	base = sanitizeName(base)
	if base == "" {
		base = "backup"
	}

	stamp := createdAt.Format("20060102-150405")
	name := fmt.Sprintf("backup-%s-%s.zip", base, stamp)
	outPath := filepath.Join(destDir, name)

	for i := 1; ; i++ {
		if _, err := os.Stat(outPath); os.IsNotExist(err) {
			return outPath, nil
		} else if err != nil {
			return "", fmt.Errorf("%w: %s: %v", domain.ErrDestUnwritable, destDir, err)
		}
		outPath = filepath.Join(destDir, fmt.Sprintf("backup-%s-%s-%d.zip", base, stamp, i))
	}
}

// sanitizeName keeps alphanumerics, '-', '_', '.' and spaces.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == '-' || c == '_' || c == '.' || c == ' ':
			b.WriteRune(c)
		}
	}
	return strings.TrimSpace(b.String())
}

func writeArchive(sourcePath, outPath string, isDir bool) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrDestUnwritable, outPath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	if isDir {
		err = addTree(zw, sourcePath)
	} else {
		err = addFile(zw, sourcePath, filepath.Base(sourcePath))
	}
	if err != nil {
		zw.Close()
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to flush archive: %w", err)
	}
	return nil
}

// addTree walks the source directory and streams every regular file into
// the archive under its path relative to the source root. Walk order is
// lexical, which keeps entry order stable between runs.
func addTree(zw *zip.Writer, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk source: %w", err)
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to resolve relative path: %w", err)
		}
		return addFile(zw, path, filepath.ToSlash(rel))
	})
}

func addFile(zw *zip.Writer, path, entryName string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", path, err)
	}
	defer f.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     entryName,
		Method:   zip.Deflate,
		Modified: pinnedModTime,
	})
	if err != nil {
		return fmt.Errorf("failed to create archive entry: %w", err)
	}

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to compress %s: %w", path, err)
	}
	return nil
}
