package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samirrijal/schoolfinder/internal/adapters/storage"
	"github.com/samirrijal/schoolfinder/internal/core/domain"
	"github.com/samirrijal/schoolfinder/internal/core/usecases"
	"github.com/samirrijal/schoolfinder/internal/pkg/config"
	"github.com/samirrijal/schoolfinder/internal/pkg/logging"
)

func main() {
	batchSize := flag.Int("batch", 500, "rows per INSERT statement")
	purge := flag.Bool("purge", false, "delete all schools before loading")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: loader [-batch N] [-purge] <file.csv|file.json>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 || *batchSize <= 0 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := config.Load("schoolfinder-loader")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, "text")

	ctx := context.Background()

	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer store.Close()

	if err := store.Schema.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	svc := usecases.NewSchoolService(store.Schools, nil, nil)

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	records, err := read(path, f, svc.Validator())
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}

	if *purge {
		if err := svc.DeleteAll(ctx); err != nil {
			log.Fatalf("purge: %v", err)
		}
		slog.Info("existing schools deleted")
	}

	start := time.Now()
	loaded, rejected, err := load(ctx, svc, records, *batchSize)
	if err != nil {
		log.Fatalf("load: %v (%d rows stored before the failure)", err, loaded)
	}

	slog.Info("load complete",
		"file", path,
		"loaded", loaded,
		"rejected", rejected,
		"elapsed", time.Since(start).String(),
	)
	if rejected > 0 {
		os.Exit(1)
	}
}

func read(path string, r io.Reader, v *usecases.Validator) ([]record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(r, v)
	case ".json":
		return readJSON(r, v)
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .csv or .json)", filepath.Ext(path))
	}
}

// inserter is the part of the school service the loader needs.
type inserter interface {
	AddInputs(ctx context.Context, inputs []domain.SchoolInput) (int, error)
}

// load reports rejected records and stores the rest in batches of batchSize.
func load(ctx context.Context, svc inserter, records []record, batchSize int) (loaded, rejected int, err error) {
	batch := make([]domain.SchoolInput, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := svc.AddInputs(ctx, batch)
		if err != nil {
			return err
		}
		loaded += n
		slog.Debug("batch stored", "rows", n, "total", loaded)
		batch = batch[:0]
		return nil
	}

	for _, rec := range records {
		if rec.Err != nil {
			rejected++
			slog.Warn("rejected", "at", rec.Pos, "error", rec.Err)
			continue
		}
		batch = append(batch, rec.In)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return loaded, rejected, err
			}
		}
	}
	if err := flush(); err != nil {
		return loaded, rejected, err
	}
	return loaded, rejected, nil
}
