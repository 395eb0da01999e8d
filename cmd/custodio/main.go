// cmd/custodio/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/custodio-dev/custodio/internal/app"
	"github.com/custodio-dev/custodio/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func run() error {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single backup and exit")
	history := flag.Bool("history", false, "print run history and exit")
	auth := flag.Bool("auth", false, "start the Google Drive OAuth helper and wait")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer application.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case *history:
		return printHistory(application)
	case *once:
		return application.RunOnce(ctx)
	case *auth:
		return application.ServeAuth(ctx)
	default:
		return application.Run(ctx)
	}
}

func printHistory(application *app.App) error {
	records, err := application.Engine().GetHistory()
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tSOURCE\tARTIFACT\tSIZE\tSTATUS\tREMOTE ID\tMESSAGE")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.SourcePath, r.ArtifactPath, r.ArtifactSize,
			r.Status, r.RemoteFileID, r.Message)
	}
	return w.Flush()
}
