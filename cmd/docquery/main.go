// Docquery answers natural-language questions over ingested documents.
//
// The daemon retrieves relevant chunks from a Qdrant collection populated
// by the ingestion pipeline and synthesizes a grounded answer with an
// external language model, scoping a query to one document or balancing
// retrieval across all of them.
//
// Usage:
//
//	# Start server with defaults
//	docquery
//
//	# Configure via environment
//	SERVER_PORT=8090 QDRANT_HOST=localhost LLM_API_KEY=... docquery
//
//	# Or via YAML
//	docquery -config /etc/docquery/config.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docquery/internal/config"
	"github.com/fyrsmithlabs/docquery/internal/embeddings"
	"github.com/fyrsmithlabs/docquery/internal/httpapi"
	"github.com/fyrsmithlabs/docquery/internal/llm"
	"github.com/fyrsmithlabs/docquery/internal/logging"
	"github.com/fyrsmithlabs/docquery/internal/qdrant"
	"github.com/fyrsmithlabs/docquery/internal/query"
	"github.com/fyrsmithlabs/docquery/internal/retrieval"
	"github.com/fyrsmithlabs/docquery/internal/synthesis"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  docquery           Start the docquery daemon\n")
			fmt.Fprintf(os.Stderr, "  docquery version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("docquery by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the docquery server and blocks until context is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info(ctx, "starting docquery",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("collection", cfg.Retrieval.Collection),
	)

	store, err := qdrant.NewGRPCClient(&cfg.Qdrant, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to qdrant: %w", err)
	}
	defer store.Close()

	if err := retrieval.EnsureCollection(ctx, store, cfg.Retrieval.Collection); err != nil {
		return err
	}

	embedder, err := embeddings.NewService(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("failed to create embedding service: %w", err)
	}

	completer, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}

	classifier := synthesis.NewNotFoundClassifier(nil)
	orchestrator := query.NewOrchestrator(
		embedder,
		retrieval.NewRetriever(store, cfg.Retrieval, logger),
		retrieval.NewMetadataResolver(store, cfg.Retrieval, logger),
		synthesis.NewSynthesizer(completer, logger),
		synthesis.NewReducer(completer, classifier, logger),
		classifier,
		cfg.Query,
		logger,
	)

	srv, err := httpapi.NewServer(orchestrator, store, logger, &cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info(context.Background(), "shutting down http server")
		if err := srv.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errCh
	}
}
