package oplog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/custodio-dev/custodio/internal/domain"
)

// timeLayout matches ISO-8601 at second precision, sortable as text.
const timeLayout = "2006-01-02T15:04:05"

var header = []string{
	"date_time", "source", "zip_path", "zip_size",
	"checksum", "drive_file_id", "status", "message",
}

// CSVLog is an append-only run history file. Each Append encodes the row
// in memory and lands it with a single write followed by a sync, so a
// crash mid-append never corrupts rows already on disk.
type CSVLog struct {
	mu   sync.Mutex
	path string
}

func NewCSV(path string) *CSVLog {
	return &CSVLog{path: path}
}

func (l *CSVLog) Append(record domain.OperationRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLogWrite, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLogWrite, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrLogWrite, err)
		}
	}
	if err := w.Write(encodeRow(record)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLogWrite, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLogWrite, err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLogWrite, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLogWrite, err)
	}
	return nil
}

// ReadAll returns every recorded run, oldest first. A missing log file
// means no history yet, not an error.
func (l *CSVLog) ReadAll() ([]domain.OperationRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	var records []domain.OperationRecord
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse history: %w", err)
		}
		if first {
			first = false
			if row[0] == header[0] {
				continue
			}
		}
		rec, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func encodeRow(r domain.OperationRecord) []string {
	return []string{
		r.Timestamp.UTC().Format(timeLayout),
		r.SourcePath,
		r.ArtifactPath,
		strconv.FormatInt(r.ArtifactSize, 10),
		r.Checksum,
		r.RemoteFileID,
		string(r.Status),
		r.Message,
	}
}

func decodeRow(row []string) (domain.OperationRecord, error) {
	ts, err := time.Parse(timeLayout, row[0])
	if err != nil {
		return domain.OperationRecord{}, fmt.Errorf("failed to parse history timestamp %q: %w", row[0], err)
	}
	size, err := strconv.ParseInt(row[3], 10, 64)
	if err != nil {
		return domain.OperationRecord{}, fmt.Errorf("failed to parse history size %q: %w", row[3], err)
	}
	return domain.OperationRecord{
		Timestamp:    ts,
		SourcePath:   row[1],
		ArtifactPath: row[2],
		ArtifactSize: size,
		Checksum:     row[4],
		RemoteFileID: row[5],
		Status:       domain.RunStatus(row[6]),
		Message:      row[7],
	}, nil
}
