package archiver

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/custodio-dev/custodio/internal/domain"
)

func sha256OfFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func readArchiveEntries(path string) (map[string]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	entries := make(map[string]string)
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		entries[f.Name] = string(content)
	}
	return entries, nil
}

func TestZipArchiver(t *testing.T) {
	Convey("Given a ZipArchiver", t, func() {
		archiver := NewZip()

		tempDir, err := os.MkdirTemp("", "archiver_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		destDir := filepath.Join(tempDir, "backups")

		Convey("When archiving a single file", func() {
			sourceFile := filepath.Join(tempDir, "data.sqlite")
			So(os.WriteFile(sourceFile, []byte("0123456789"), 0644), ShouldBeNil)

			artifact, err := archiver.Archive(sourceFile, destDir)

			Convey("It should produce one zip containing that file at the root", func() {
				So(err, ShouldBeNil)
				So(artifact.Path, ShouldStartWith, filepath.Join(destDir, "backup-data-"))
				So(artifact.Path, ShouldEndWith, ".zip")
				So(artifact.SizeBytes, ShouldBeGreaterThan, 0)
				So(artifact.CreatedAt.IsZero(), ShouldBeFalse)

				info, err := os.Stat(artifact.Path)
				So(err, ShouldBeNil)
				So(info.Size(), ShouldEqual, artifact.SizeBytes)

				entries, err := readArchiveEntries(artifact.Path)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
				So(entries["data.sqlite"], ShouldEqual, "0123456789")
			})
		})

		Convey("When archiving a directory", func() {
			sourceDir := filepath.Join(tempDir, "project")
			So(os.MkdirAll(filepath.Join(sourceDir, "nested", "deep"), 0755), ShouldBeNil)
			So(os.WriteFile(filepath.Join(sourceDir, "a.txt"), []byte("alpha"), 0644), ShouldBeNil)
			So(os.WriteFile(filepath.Join(sourceDir, "nested", "b.txt"), []byte("beta"), 0644), ShouldBeNil)
			So(os.WriteFile(filepath.Join(sourceDir, "nested", "deep", "c.txt"), []byte("gamma"), 0644), ShouldBeNil)

			artifact, err := archiver.Archive(sourceDir, destDir)

			Convey("It should preserve the recursive tree with relative paths", func() {
				So(err, ShouldBeNil)

				entries, err := readArchiveEntries(artifact.Path)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 3)
				So(entries["a.txt"], ShouldEqual, "alpha")
				So(entries["nested/b.txt"], ShouldEqual, "beta")
				So(entries["nested/deep/c.txt"], ShouldEqual, "gamma")
			})
		})

		Convey("When archiving identical content twice", func() {
			sourceDir := filepath.Join(tempDir, "stable")
			So(os.MkdirAll(sourceDir, 0755), ShouldBeNil)
			So(os.WriteFile(filepath.Join(sourceDir, "x.txt"), []byte("same bytes"), 0644), ShouldBeNil)
			So(os.WriteFile(filepath.Join(sourceDir, "y.txt"), []byte("more bytes"), 0644), ShouldBeNil)

			first, err := archiver.Archive(sourceDir, destDir)
			So(err, ShouldBeNil)
			second, err := archiver.Archive(sourceDir, destDir)
			So(err, ShouldBeNil)

			Convey("Both artifacts should have equal checksums", func() {
				So(second.Path, ShouldNotEqual, first.Path)

				firstSum, err := sha256OfFile(first.Path)
				So(err, ShouldBeNil)
				secondSum, err := sha256OfFile(second.Path)
				So(err, ShouldBeNil)
				So(secondSum, ShouldEqual, firstSum)
			})
		})

		Convey("When two artifacts land in the same second", func() {
			sourceFile := filepath.Join(tempDir, "fast.db")
			So(os.WriteFile(sourceFile, []byte("quick"), 0644), ShouldBeNil)

			first, err := archiver.Archive(sourceFile, destDir)
			So(err, ShouldBeNil)
			second, err := archiver.Archive(sourceFile, destDir)
			So(err, ShouldBeNil)

			Convey("The collision should be resolved by a suffix, never an overwrite", func() {
				So(second.Path, ShouldNotEqual, first.Path)

				_, err := os.Stat(first.Path)
				So(err, ShouldBeNil)
				_, err = os.Stat(second.Path)
				So(err, ShouldBeNil)
			})
		})

		Convey("When the source does not exist", func() {
			_, err := archiver.Archive(filepath.Join(tempDir, "missing"), destDir)

			Convey("It should fail with ErrSourceNotFound and create nothing", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, domain.ErrSourceNotFound), ShouldBeTrue)

				_, statErr := os.Stat(destDir)
				if statErr == nil {
					entries, err := os.ReadDir(destDir)
					So(err, ShouldBeNil)
					So(len(entries), ShouldEqual, 0)
				}
			})
		})

		Convey("When the destination cannot be created", func() {
			blocker := filepath.Join(tempDir, "blocker")
			So(os.WriteFile(blocker, []byte("file, not a dir"), 0644), ShouldBeNil)

			sourceFile := filepath.Join(tempDir, "src.txt")
			So(os.WriteFile(sourceFile, []byte("data"), 0644), ShouldBeNil)

			_, err := archiver.Archive(sourceFile, filepath.Join(blocker, "sub"))

			Convey("It should fail with ErrDestUnwritable", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, domain.ErrDestUnwritable), ShouldBeTrue)
			})
		})

		Convey("When the source base name carries unsafe characters", func() {
			sourceFile := filepath.Join(tempDir, "weird$na#me!.db")
			So(os.WriteFile(sourceFile, []byte("data"), 0644), ShouldBeNil)

			artifact, err := archiver.Archive(sourceFile, destDir)

			Convey("The artifact name should keep only safe characters", func() {
				So(err, ShouldBeNil)
				So(filepath.Base(artifact.Path), ShouldStartWith, "backup-weirdname-")
			})
		})
	})
}

func TestDetectSourceKind(t *testing.T) {
	Convey("Given source paths with database extensions", t, func() {
		Convey("They should classify by extension", func() {
			So(DetectSourceKind("/data/app.sqlite"), ShouldEqual, SourceSQLite)
			So(DetectSourceKind("/data/app.DB"), ShouldEqual, SourceSQLite)
			So(DetectSourceKind("/data/app.duckdb"), ShouldEqual, SourceDuckDB)
			So(DetectSourceKind("/data/app.mdf"), ShouldEqual, SourceSQLLocalDB)
			So(DetectSourceKind("/data/notes.txt"), ShouldEqual, SourceOther)
			So(DetectSourceKind("/data/folder"), ShouldEqual, SourceOther)
		})

		Convey("IsDatabase should flag only database kinds", func() {
			So(SourceSQLite.IsDatabase(), ShouldBeTrue)
			So(SourceDuckDB.IsDatabase(), ShouldBeTrue)
			So(SourceSQLLocalDB.IsDatabase(), ShouldBeTrue)
			So(SourceOther.IsDatabase(), ShouldBeFalse)
		})
	})
}
