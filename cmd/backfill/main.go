// Command backfill runs the clause offset locator over existing
// documents, filling in start/end offsets that predate offset tracking.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pabg92/astralabs-sub005/internal/config"
	"github.com/pabg92/astralabs-sub005/internal/docstore"
	"github.com/pabg92/astralabs-sub005/internal/locate"
	"github.com/pabg92/astralabs-sub005/internal/store"
	"github.com/pabg92/astralabs-sub005/pkg/db"
	"github.com/pabg92/astralabs-sub005/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to config file")
	tenantID := flag.String("tenant", "", "tenant to backfill (required)")
	documentID := flag.String("document", "", "single document to backfill; all documents when empty")
	dryRun := flag.Bool("dry-run", false, "report placements without writing them")
	flag.Parse()

	if *tenantID == "" {
		fmt.Fprintln(os.Stderr, "-tenant is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := db.MustConnect(cfg.Database.DSN)
	defer pool.Close()
	st := store.New(pool)

	texts, err := docstore.New(cfg.Minio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "docstore: %v\n", err)
		os.Exit(1)
	}
	locator := locate.New(st, texts)

	docIDs := []string{*documentID}
	if *documentID == "" {
		docIDs, err = st.ListDocumentIDs(ctx, *tenantID)
		if err != nil {
			logger.Error(ctx, "list documents", "error", err)
			os.Exit(1)
		}
	}

	var located, missed, failed int
	for _, id := range docIDs {
		if ctx.Err() != nil {
			break
		}
		sum, err := locator.Run(ctx, *tenantID, id, *dryRun)
		if err != nil {
			failed++
			logger.Error(ctx, "backfill failed", "document_id", id, "error", err)
			continue
		}
		located += sum.Located
		missed += sum.Missed
		logger.Info(ctx, "document backfilled",
			"document_id", id,
			"total", sum.Total,
			"located", sum.Located,
			"skipped", sum.Skipped,
			"missed", sum.Missed,
			"dry_run", *dryRun,
		)
	}

	logger.Info(ctx, "backfill complete",
		"documents", len(docIDs), "located", located, "missed", missed, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
