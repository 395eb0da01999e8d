package app

import (
	"context"
	"fmt"
	"time"

	"github.com/custodio-dev/custodio/internal/adapter/archiver"
	"github.com/custodio-dev/custodio/internal/adapter/checksum"
	"github.com/custodio-dev/custodio/internal/adapter/notify"
	"github.com/custodio-dev/custodio/internal/adapter/oplog"
	"github.com/custodio-dev/custodio/internal/adapter/storage"
	"github.com/custodio-dev/custodio/internal/config"
	"github.com/custodio-dev/custodio/internal/domain"
	"github.com/custodio-dev/custodio/internal/engine"
	"github.com/custodio-dev/custodio/internal/infrastructure/logger"
)

type App struct {
	config *config.Config
	logger *logger.Logger
	engine *engine.Engine
}

func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Infof("Starting %s", cfg.App.Name)
	log.Infof("Source: %s, destination: %s, remote: %s",
		cfg.Backup.SourcePath, cfg.Backup.LocalDest, cfg.Remote.Type)

	if kind := archiver.DetectSourceKind(cfg.Backup.SourcePath); kind.IsDatabase() {
		log.Warnf("Source looks like a live %s file; archives of a database being written to may not be restorable", kind)
	}

	remote, err := buildRemoteStore(cfg, log)
	if err != nil {
		return nil, err
	}

	var notifier domain.Notifier
	if cfg.Notify.TelegramEnabled {
		notifier, err = notify.NewTelegram(cfg.Notify.BotToken, cfg.Notify.ChatID)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telegram notifier: %w", err)
		}
		log.Infof("✓ Telegram notifications enabled")
	}

	eng := engine.New(
		archiver.NewZip(),
		checksum.NewSHA256(),
		remote,
		oplog.NewCSV(cfg.Backup.HistoryFile),
		notifier,
		log,
	)

	return &App{
		config: cfg,
		logger: log,
		engine: eng,
	}, nil
}

func buildRemoteStore(cfg *config.Config, log *logger.Logger) (domain.RemoteStore, error) {
	switch cfg.Remote.Type {
	case "gdrive":
		log.Infof("✓ Google Drive upload enabled")
		return storage.NewGDrive(cfg.Remote.ClientSecretFile, cfg.Remote.TokenFile), nil

	case "s3":
		store, err := storage.NewS3(context.Background(),
			cfg.Remote.Region, cfg.Remote.Bucket,
			cfg.Remote.AccessKey, cfg.Remote.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3: %w", err)
		}
		log.Infof("✓ AWS S3 upload enabled (bucket: %s)", cfg.Remote.Bucket)
		return store, nil

	case "local":
		store, err := storage.NewLocal(cfg.Remote.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local mirror: %w", err)
		}
		log.Infof("✓ Local mirror enabled (%s)", cfg.Remote.Path)
		return store, nil

	default:
		return nil, fmt.Errorf("unknown remote type: %s", cfg.Remote.Type)
	}
}

// Engine exposes the control surface to the CLI.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// RunOnce executes a single backup synchronously and reports its outcome.
func (a *App) RunOnce(ctx context.Context) error {
	record, err := a.engine.RunOnce(ctx, a.config.Job())
	if err != nil {
		if record.Status == "" {
			return err
		}
		return fmt.Errorf("backup finished with status %s: %w", record.Status, err)
	}
	a.logger.Infof("Backup succeeded: %s", record.ArtifactPath)
	return nil
}

// Run arms the scheduler and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.engine.Start(a.config.Job()); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	a.logger.Infof("Automatic backups every %d minute(s)", a.config.Backup.IntervalMinutes)

	<-ctx.Done()
	return a.engine.Stop()
}

// ServeAuth runs the Google Drive OAuth helper until ctx is cancelled.
func (a *App) ServeAuth(ctx context.Context) error {
	svc, err := NewGoogleOAuthService(a.logger, a.config.Remote.ClientSecretFile, a.config.Remote.TokenFile)
	if err != nil {
		return fmt.Errorf("failed to initialize OAuth helper: %w", err)
	}

	if err := svc.StartAuthServer(ctx, a.config.Remote.AuthListenAddr); err != nil {
		return err
	}

	<-ctx.Done()

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return svc.Shutdown(shutCtx)
}

func (a *App) Shutdown() {
	a.logger.Infof("Shutting down...")
	a.logger.Close()
}
