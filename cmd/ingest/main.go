// Command ingest builds a persisted vector index from a directory of
// source documents so the chat front end can answer questions over them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kataras/golog"

	"github.com/smallnest/finchat/config"
	"github.com/smallnest/finchat/ingest"
	"github.com/smallnest/finchat/log"
	"github.com/smallnest/finchat/store"
)

func main() {
	configPath := flag.String("config", "app_config.yml", "path to the application config")
	source := flag.String("source", "", "source document directory (defaults to the configured data directory)")
	out := flag.String("out", "", "persist directory for the index (defaults to the configured persist directory)")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	logger := log.NewGologLogger(golog.New())
	if *verbose {
		logger.SetLevel(log.LogLevelDebug)
	}
	log.SetDefaultLogger(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("configuration error: %v", err)
		os.Exit(1)
	}

	sourceDir := cfg.Directories.DataDirectory
	if *source != "" {
		sourceDir = *source
	}
	persistDir := cfg.Directories.PersistDirectory
	if *out != "" {
		persistDir = *out
	}

	embedder, err := store.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.Embedding.Engine, cfg.Embedding.BaseURL)
	if err != nil {
		log.Error("failed to create embedder: %v", err)
		os.Exit(1)
	}

	pipeline := ingest.New(embedder, cfg.Splitter.ChunkSize, cfg.Splitter.ChunkOverlap)
	count, err := pipeline.BuildIndex(context.Background(), sourceDir, persistDir)
	if err != nil {
		log.Error("index build failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("Indexed %d chunks from %s into %s\n", count, sourceDir, persistDir)
}
