package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/quillforge/pdfrag/docstore"
	"github.com/quillforge/pdfrag/embed"
	"github.com/quillforge/pdfrag/readers"
)

var (
	cfgPath      string
	idxChunkSize int
	idxOverlap   int
	searchTopK   int
	searchStyle  string
)

var rootCmd = &cobra.Command{
	Use:   "pdfrag",
	Short: "Index a folder of PDFs and search it with embeddings",
	Long: `pdfrag builds a local vector index over a folder of PDFs and answers
natural-language queries against it, standalone or as an MCP server.`,
	SilenceUsage: true,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the search index from the PDF folder",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the indexed PDF library",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the PDF library to agents over MCP (SSE)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the library is indexed and searchable",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "cfg/config.yaml", "configuration file")

	indexCmd.Flags().IntVar(&idxChunkSize, "chunk-size", 0, "words per chunk (overrides config)")
	indexCmd.Flags().IntVar(&idxOverlap, "overlap", -1, "words shared between neighboring chunks (overrides config)")

	searchCmd.Flags().IntVar(&searchTopK, "top-k", 0, "number of results (overrides config)")
	searchCmd.Flags().StringVar(&searchStyle, "style", "", "citation style: ieee, apa or vancouver")

	rootCmd.AddCommand(indexCmd, searchCmd, serveCmd, statusCmd)
}

// setup loads configuration and opens the structured log sink. The caller
// owns closing the returned file.
func setup() (*Config, *slog.Logger, *os.File, error) {
	cfg, err := readConfig(cfgPath, rootCmd.PersistentFlags().Changed("config"))
	if err != nil {
		return nil, nil, nil, err
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return cfg, slog.New(slog.NewJSONHandler(logFile, nil)), logFile, nil
}

// newEmbedder picks the embedding provider from config: an explicit OpenAI
// or Gemini block wins, otherwise the bundled local model. API keys fall
// back to the conventional environment variables.
func newEmbedder(cfg *Config) (*embed.Embedder, error) {
	if cfg.OpenAI != nil {
		key := cfg.OpenAI.ApiKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}

		return embed.NewOpenAI(key, cfg.OpenAI.Model)
	}

	if cfg.Gemini != nil {
		key := cfg.Gemini.ApiKey
		if key == "" {
			key = os.Getenv("GEMINI_API_KEY")
		}

		return embed.NewGemini(key, cfg.Gemini.Model)
	}

	return embed.NewLocal()
}

func newService(cfg *Config, logger *slog.Logger, embedder *embed.Embedder) *RAGService {
	embedder.SetBatchSize(cfg.RequestSize)

	return &RAGService{
		log:      logger,
		pdfDir:   cfg.PDFDir,
		indexDir: cfg.IndexDir,
		store:    docstore.NewFileStore(cfg.IndexDir),
		reader:   &readers.PdfReader{},
		chunkifier: &DefaultChunkfier{
			chunkSize:    cfg.ChunkSize,
			chunkOverlap: cfg.ChunkOverlap,
		},
		embedder:     embedder,
		chunkSize:    cfg.ChunkSize,
		chunkOverlap: cfg.ChunkOverlap,
		topK:         cfg.TopK,
	}
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, logger, logFile, err := setup()
	if err != nil {
		return err
	}
	defer logFile.Close()

	if cmd.Flags().Changed("chunk-size") {
		cfg.ChunkSize = idxChunkSize
	}
	if cmd.Flags().Changed("overlap") {
		cfg.ChunkOverlap = idxOverlap
	}
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()

	ctx := context.Background()
	if err := embedder.Warmup(ctx); err != nil {
		return err
	}

	manifest, err := newService(cfg, logger, embedder).IndexCorpus(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Indexed %d PDFs into %d chunks (model %s, dim %d)\n",
		manifest.NumPDFs, manifest.NumChunks, manifest.EmbeddingModel, manifest.EmbeddingDim)
	for _, line := range indexedFileLines(cfg.PDFDir, manifest.PDFFiles) {
		cmd.Println(line)
	}

	return nil
}

// indexedFileLines lists each indexed PDF with its size on disk. A file that
// vanished since indexing is listed by name alone.
func indexedFileLines(pdfDir string, files []string) []string {
	lines := make([]string, 0, len(files))
	for _, f := range files {
		line := "  " + f
		if info, err := os.Stat(filepath.Join(pdfDir, f)); err == nil {
			line = fmt.Sprintf("  %s (%.1f KB)", f, float64(info.Size())/1024)
		}
		lines = append(lines, line)
	}

	return lines
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, logger, logFile, err := setup()
	if err != nil {
		return err
	}
	defer logFile.Close()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()

	results, err := newService(cfg, logger, embedder).Search(context.Background(), args[0], searchTopK)
	if err != nil {
		return err
	}

	if searchStyle != "" {
		cmd.Println(FormatForCitation(results, searchStyle))
		return nil
	}

	cmd.Println(FormatSearchResults(results))

	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, logFile, err := setup()
	if err != nil {
		return err
	}
	defer logFile.Close()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()

	if err := embedder.Warmup(context.Background()); err != nil {
		return err
	}

	srv := NewRagServer(newService(cfg, logger, embedder))
	sse := server.NewSSEServer(srv, server.WithBaseURL(fmt.Sprintf("http://%s", cfg.ServerAddr)))
	logger.Info("serving MCP over SSE", "addr", cfg.ServerAddr)

	return sse.Start(cfg.ServerAddr)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := readConfig(cfgPath, rootCmd.PersistentFlags().Changed("config"))
	if err != nil {
		return err
	}

	_, msg := CheckReady(cfg.PDFDir, cfg.IndexDir)
	cmd.Println(msg)

	return nil
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
