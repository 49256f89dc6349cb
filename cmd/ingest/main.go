package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"policybot/internal/config"
	"policybot/internal/index"
	"policybot/internal/indexer"
	"policybot/internal/models"
)

type ingestFlags struct {
	input          string
	output         string
	chunkSize      int
	chunkOverlap   int
	embeddingModel string
	stripMarkdown  bool
	configFile     string
	quiet          bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(config.Load).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var flags ingestFlags

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Build the policy index used by the PolicyBot API",
		Long: `Loads policy documents, cleans and chunks them, embeds every chunk and
writes the result to the index directory, replacing any previous index.

Example usage:
  ingest                                  # Index the built-in sample policies
  ingest --input ./policies               # Index every .txt and .md file below ./policies
  ingest --input handbook.md --strip-markdown --chunk-size 800`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.configFile != "" {
				if err := os.Setenv(config.ConfigFileEnv, flags.configFile); err != nil {
					return err
				}
			}
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return runIngest(cmd, cfg, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.input, "input", "i", "", "file or directory of .txt/.md policies (default: built-in samples)")
	f.StringVarP(&flags.output, "output", "o", "", "index directory (default: INDEX_PATH)")
	f.IntVar(&flags.chunkSize, "chunk-size", indexer.DefaultChunkSize, "maximum characters per chunk")
	f.IntVar(&flags.chunkOverlap, "chunk-overlap", indexer.DefaultChunkOverlap, "characters shared by consecutive chunks")
	f.StringVar(&flags.embeddingModel, "embedding-model", "", "embedding model (default: EMBEDDING_MODEL)")
	f.BoolVar(&flags.stripMarkdown, "strip-markdown", false, "render markdown files to plain text before chunking")
	f.StringVar(&flags.configFile, "config", "", "YAML config file")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "hide the progress bar")

	return cmd
}

func runIngest(cmd *cobra.Command, cfg *config.Config, flags ingestFlags) error {
	stderr := cmd.ErrOrStderr()
	logger := cfg.NewLogger(stderr)
	if flags.quiet {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	slog.SetDefault(logger)

	output := flags.output
	if output == "" {
		output = cfg.IndexPath
	}
	model := flags.embeddingModel
	if model == "" {
		model = cfg.EmbeddingModel
	}

	embedFactory, err := models.NewEmbedderFactory(models.FactoryConfig{
		EmbeddingProvider:  cfg.EmbeddingProvider,
		EmbeddingBaseURL:   cfg.EmbeddingBaseURL,
		APIKey:             cfg.LLMAPIKey,
		EmbeddingDimension: cfg.EmbeddingDimension,
		Preload:            cfg.PreloadModels,
	})
	if err != nil {
		return err
	}
	registry := models.NewRegistry(embedFactory, nil, 1, 1)

	pipeline := indexer.NewPipeline(registry, indexer.Config{
		Backend:        cfg.VectorBackend,
		Collection:     cfg.QdrantCollection,
		Store:          index.StoreOptions{QdrantURL: cfg.QdrantURL},
		EmbeddingModel: model,
		BatchSize:      cfg.EmbeddingBatchSize,
	})
	if !flags.quiet {
		pipeline.OnProgress(newProgress(stderr))
	}

	path, err := pipeline.BuildIndex(cmd.Context(), flags.input, indexer.BuildOptions{
		Output:         output,
		ChunkSize:      flags.chunkSize,
		ChunkOverlap:   flags.chunkOverlap,
		EmbeddingModel: model,
		StripMarkdown:  flags.stripMarkdown,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Index saved at %s\n", path)
	return nil
}

// newProgress draws an embedding progress bar, created on the first callback once the total is known.
func newProgress(w io.Writer) indexer.ProgressFunc {
	var (
		mu  sync.Mutex
		bar *progressbar.ProgressBar
	)
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("Embedding chunks"),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(w)
				}),
			)
		}
		_ = bar.Set(done)
	}
}
