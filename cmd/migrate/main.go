package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/samirrijal/schoolfinder/internal/adapters/storage"
	"github.com/samirrijal/schoolfinder/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("schoolfinder-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer store.Close()

	switch os.Args[1] {
	case "up":
		if err := store.Schema.EnsureSchema(ctx); err != nil {
			log.Fatalf("up: %v", err)
		}
		fmt.Printf("OK  schools table present (%s)\n", store.Driver)
	case "down":
		if err := store.Schema.DropSchema(ctx); err != nil {
			log.Fatalf("down: %v", err)
		}
		fmt.Printf("OK  schools table dropped (%s)\n", store.Driver)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
