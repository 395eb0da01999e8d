package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/custodio-dev/custodio/internal/domain"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

// Engine drives the backup pipeline: archive, checksum, upload, record.
// At most one pipeline executes at any instant; manual triggers and timer
// ticks contend for the same run guard. A second manual trigger while a
// run is in flight gets ErrRunInProgress, a tick is skipped.
type Engine struct {
	archiver domain.Archiver
	hasher   domain.Hasher
	remote   domain.RemoteStore
	oplog    domain.OperationLog
	notifier domain.Notifier
	logger   Logger

	// runMu is the single-slot run guard. It is held for the whole
	// pipeline and never while mu is held.
	runMu sync.Mutex

	// mu guards the control state below; it is only held for short
	// transitions so status queries stay responsive during a run.
	mu      sync.Mutex
	armed   bool
	running bool
	lastRun time.Time
	jobCfg  domain.JobConfig
	cron    *cron.Cron
	entryID cron.EntryID
}

func New(
	archiver domain.Archiver,
	hasher domain.Hasher,
	remote domain.RemoteStore,
	oplog domain.OperationLog,
	notifier domain.Notifier,
	logger Logger,
) *Engine {
	return &Engine{
		archiver: archiver,
		hasher:   hasher,
		remote:   remote,
		oplog:    oplog,
		notifier: notifier,
		logger:   logger,
	}
}

// RunOnce executes one full backup synchronously. It returns after the
// OperationRecord is appended. The run error is returned alongside the
// record so a control surface can show immediate feedback; a log write
// failure takes precedence over everything else.
func (e *Engine) RunOnce(ctx context.Context, cfg domain.JobConfig) (domain.OperationRecord, error) {
	if !e.runMu.TryLock() {
		return domain.OperationRecord{}, domain.ErrRunInProgress
	}
	defer e.runMu.Unlock()

	return e.execute(ctx, cfg)
}

// Start arms automatic scheduling at cfg's interval. Valid only while
// not already armed.
func (e *Engine) Start(cfg domain.JobConfig) error {
	if cfg.IntervalMinutes < 1 {
		return fmt.Errorf("interval must be at least 1 minute, got %d", cfg.IntervalMinutes)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.armed {
		return domain.ErrAlreadyArmed
	}

	c := cron.New()
	interval := time.Duration(cfg.IntervalMinutes) * time.Minute
	id, err := c.AddFunc(fmt.Sprintf("@every %s", interval), e.tick)
	if err != nil {
		return fmt.Errorf("failed to arm scheduler: %w", err)
	}
	c.Start()

	e.cron = c
	e.entryID = id
	e.jobCfg = cfg
	e.armed = true

	e.logger.Infof("Scheduler armed, interval %s", interval)
	return nil
}

// Stop disarms the timer. A run already in flight completes normally and
// still produces its record.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.armed {
		return domain.ErrNotArmed
	}

	e.cron.Stop()
	e.cron = nil
	e.armed = false

	e.logger.Infof("Scheduler disarmed")
	return nil
}

// GetState returns a consistent snapshot of the control state.
func (e *Engine) GetState() domain.SchedulerState {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := domain.SchedulerState{
		Running:         e.running,
		Armed:           e.armed,
		IntervalMinutes: e.jobCfg.IntervalMinutes,
		LastRunAt:       e.lastRun,
	}
	if e.armed {
		state.NextRunAt = e.cron.Entry(e.entryID).Next
	}
	return state
}

// GetHistory returns every recorded run, oldest first.
func (e *Engine) GetHistory() ([]domain.OperationRecord, error) {
	return e.oplog.ReadAll()
}

// tick is the timer path. A tick arriving while a run is in flight is
// skipped, never queued. Run errors are swallowed here: scheduled runs
// report through history, except a log write failure, which is the one
// condition worth shouting about.
func (e *Engine) tick() {
	e.mu.Lock()
	cfg := e.jobCfg
	e.mu.Unlock()

	if !e.runMu.TryLock() {
		e.logger.Warnf("Skipping scheduled backup: previous run still in progress")
		return
	}
	defer e.runMu.Unlock()

	record, err := e.execute(context.Background(), cfg)
	if errors.Is(err, domain.ErrLogWrite) {
		e.logger.Errorf("FATAL: run history could not be written: %v", err)
		return
	}
	if err != nil {
		e.logger.Errorf("Scheduled backup finished with status %s: %s", record.Status, record.Message)
	}
}

// execute runs the pipeline and appends exactly one record. Caller must
// hold the run guard.
func (e *Engine) execute(ctx context.Context, cfg domain.JobConfig) (domain.OperationRecord, error) {
	e.setRunning(true)
	defer e.setRunning(false)

	start := time.Now()
	e.logger.Infof("Starting backup of %s", cfg.SourcePath)

	record, runErr := e.pipeline(ctx, cfg)

	if err := e.oplog.Append(record); err != nil {
		return record, err
	}

	if e.notifier != nil {
		if err := e.notifier.Notify(ctx, record); err != nil {
			e.logger.Warnf("Failed to send notification: %v", err)
		}
	}

	e.logger.Infof("Backup finished in %s, status=%s",
		time.Since(start).Round(time.Second), record.Status)
	return record, runErr
}

// pipeline runs Archive → Checksum → Upload, stopping at the first
// failing stage. The returned record describes the furthest stage
// reached; the error is the stage failure, if any.
func (e *Engine) pipeline(ctx context.Context, cfg domain.JobConfig) (domain.OperationRecord, error) {
	record := domain.OperationRecord{
		Timestamp:  time.Now().UTC(),
		SourcePath: cfg.SourcePath,
		Status:     domain.StatusFailure,
	}

	artifact, err := e.archiver.Archive(cfg.SourcePath, cfg.LocalDestDir)
	if err != nil {
		record.Message = fmt.Sprintf("archive: %v", err)
		return record, err
	}
	record.ArtifactPath = artifact.Path
	record.ArtifactSize = artifact.SizeBytes
	e.logger.Infof("Artifact created: %s (%d bytes)", artifact.Path, artifact.SizeBytes)

	checksum, err := e.hasher.Checksum(artifact.Path)
	if err != nil {
		record.Message = fmt.Sprintf("checksum: %v", err)
		return record, err
	}
	record.Checksum = checksum
	e.logger.Infof("Artifact checksum: %s", checksum)

	remoteID, err := e.remote.Upload(ctx, artifact.Path, cfg.RemoteFolderID)
	if err != nil {
		// A verified local artifact exists even though nothing reached
		// remote storage.
		record.Status = domain.StatusPartialFailure
		record.Message = fmt.Sprintf("upload: %v", err)
		return record, err
	}
	record.RemoteFileID = remoteID
	record.Status = domain.StatusSuccess

	e.logger.Infof("Uploaded to remote storage, id=%s", remoteID)
	return record, nil
}

func (e *Engine) setRunning(running bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = running
	if !running {
		e.lastRun = time.Now()
	}
}
