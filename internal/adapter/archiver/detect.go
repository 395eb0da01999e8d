package archiver

import (
	"path/filepath"
	"strings"
)

type SourceKind string

const (
	SourceSQLite     SourceKind = "sqlite"
	SourceDuckDB     SourceKind = "duckdb"
	SourceSQLLocalDB SourceKind = "sqllocaldb"
	SourceOther      SourceKind = "other"
)

// DetectSourceKind classifies a source path by extension. Live database
// files deserve a warning before archiving: a zip of a file being written
// to may not be restorable.
func DetectSourceKind(path string) SourceKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sqlite", ".db":
		return SourceSQLite
	case ".duckdb":
		return SourceDuckDB
	case ".mdf":
		return SourceSQLLocalDB
	default:
		return SourceOther
	}
}

// IsDatabase reports whether the kind refers to a database file format.
func (k SourceKind) IsDatabase() bool {
	return k != SourceOther
}
