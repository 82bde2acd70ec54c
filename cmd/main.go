package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"oracle-rag/internal/chromemdb"
	"oracle-rag/internal/chunker"
	"oracle-rag/internal/config"
	"oracle-rag/internal/db"
	"oracle-rag/internal/embedding"
	"oracle-rag/internal/extractor"
	"oracle-rag/internal/faults"
	"oracle-rag/internal/llmservice"
	"oracle-rag/internal/models"
	"oracle-rag/internal/rag"
)

var (
	flagConfig string
	flagSchema string
	flagOutput string
	flagForce  bool
	flagTopK   int
	flagSQL    bool
)

var rootCmd = &cobra.Command{
	Use:           "oracle-rag",
	Short:         "Ask natural-language questions about an Oracle schema using retrieval-augmented generation",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional, env vars win either way.
		_ = godotenv.Load()
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract schema metadata from the database to a JSON or YAML snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd.Context())
	},
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Extract, chunk, embed, and store schema metadata in the vector store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd.Context())
	},
}

var queryCmd = &cobra.Command{
	Use:   "query \"TEXT\"",
	Short: "Answer a natural-language question about the schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to optional YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagSchema, "schema", "", "database schema name")

	extractCmd.Flags().StringVar(&flagOutput, "output", "schema_metadata.json", "snapshot output file (.json or .yaml)")
	buildCmd.Flags().BoolVar(&flagForce, "force", false, "drop the schema's collection before storing")
	queryCmd.Flags().IntVar(&flagTopK, "top-k", 0, "number of chunks to retrieve (default from MAX_RESULTS)")
	queryCmd.Flags().BoolVar(&flagSQL, "sql", false, "also generate an Oracle SQL query and explanation")

	rootCmd.AddCommand(extractCmd, buildCmd, queryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(faults.ExitCode(err))
	}
}

func setup() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	return cfg, nil
}

func schemaName(cfg *config.Config) string {
	if flagSchema != "" {
		return flagSchema
	}
	// Like the database itself, default to the connecting user's own schema.
	return cfg.Database.User
}

func extract(ctx context.Context, cfg *config.Config) (*models.Schema, error) {
	connCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	conn, err := db.Connect(connCtx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	ext := extractor.New(conn, schemaName(cfg), cfg.Timeout)
	schema, err := ext.Extract(ctx)
	if err != nil {
		return nil, err
	}
	log.Info().Str("schema", schema.Name).Int("tables", len(schema.Tables)).Msg("extracted schema metadata")
	return schema, nil
}

func runExtract(ctx context.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	schema, err := extract(ctx, cfg)
	if err != nil {
		return err
	}

	if err := writeSnapshot(schema, flagOutput); err != nil {
		return err
	}
	fmt.Printf("Metadata for %d tables saved to %s\n", len(schema.Tables), flagOutput)
	return nil
}

// writeSnapshot serializes the snapshot next to the target and renames it in
// place, so a failed run never leaves a half-written file behind.
func writeSnapshot(schema *models.Schema, path string) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(schema)
	default:
		data, err = json.MarshalIndent(schema, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func runBuild(ctx context.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	schema, err := extract(ctx, cfg)
	if err != nil {
		return err
	}

	chunks := chunker.New(cfg.ChunkSize).Chunk(schema)
	log.Info().Int("chunks", len(chunks)).Msg("chunked schema")

	embedder, err := embedding.NewEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		return err
	}
	vectors, err := embedding.EmbedChunks(ctx, embedder, chunks, cfg.Timeout)
	if err != nil {
		return err
	}

	store, err := chromemdb.Open(cfg.VectorStoreDir)
	if err != nil {
		return err
	}
	if flagForce {
		if err := store.Drop(schema.Name); err != nil {
			return err
		}
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:        chunk.ID,
			Content:   chunk.Text,
			Metadata:  chunk.Metadata,
			Embedding: vectors[i],
		}
	}
	if err := store.Upsert(ctx, schema.Name, docs); err != nil {
		return err
	}

	fmt.Printf("Stored %d chunks for schema %s in %s\n", len(docs), schema.Name, cfg.VectorStoreDir)
	return nil
}

func runQuery(ctx context.Context, question string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if flagTopK > 0 {
		cfg.TopK = flagTopK
	}

	store, err := chromemdb.Open(cfg.VectorStoreDir)
	if err != nil {
		return err
	}
	embedder, err := embedding.NewEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		return err
	}
	model, err := llmservice.NewModel(ctx, &cfg.LLM)
	if err != nil {
		return err
	}

	pipeline := rag.New(store, embedder, model, cfg)
	schema := schemaName(cfg)

	result, err := pipeline.Query(ctx, schema, question)
	if err != nil {
		return err
	}

	fmt.Printf("Question:\n%s\n\n", result.Question)
	fmt.Printf("Answer:\n%s\n\n", result.Answer)
	fmt.Printf("Tables: %s\n", strings.Join(result.Tables, ", "))
	fmt.Printf("Context chunks: %s\n", strings.Join(result.ChunkIDs, ", "))

	if !flagSQL {
		return nil
	}

	sqlResult, err := pipeline.GenerateSQL(ctx, schema, question)
	if err != nil {
		return err
	}
	fmt.Printf("\nSQL:\n%s\n", sqlResult.SQL)

	explanation, err := pipeline.ExplainSQL(ctx, sqlResult.SQL, question)
	if err != nil {
		return err
	}
	fmt.Printf("\nExplanation:\n%s\n", explanation)
	return nil
}
