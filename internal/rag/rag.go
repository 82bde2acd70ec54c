package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"

	"oracle-rag/internal/chromemdb"
	"oracle-rag/internal/config"
	"oracle-rag/internal/embedding"
	"oracle-rag/internal/helper"
	"oracle-rag/internal/llmservice"
	"oracle-rag/internal/models"
)

// RAG answers natural-language questions about a schema by retrieving stored
// chunks and forwarding them with the question to the LLM.
type RAG struct {
	store    *chromemdb.Store
	embedder embeddings.Embedder
	model    llms.Model
	cfg      *config.Config
}

func New(store *chromemdb.Store, embedder embeddings.Embedder, model llms.Model, cfg *config.Config) *RAG {
	return &RAG{store: store, embedder: embedder, model: model, cfg: cfg}
}

// Query embeds the question with the build-time embedder, retrieves the
// top-k chunks, and asks the LLM to answer from that context.
func (r *RAG) Query(ctx context.Context, schema, question string) (*models.QueryResult, error) {
	results, err := r.retrieve(ctx, schema, question)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(models.AnswerPromptTemplate, buildContext(results), question)
	answer, err := llmservice.Complete(ctx, r.model, &r.cfg.LLM, models.AnswerSystemPrompt, prompt, r.cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &models.QueryResult{
		ID:       helper.GenerateUUID(),
		Question: question,
		Answer:   answer,
		ChunkIDs: chunkIDs(results),
		Tables:   tableNames(results),
	}, nil
}

// GenerateSQL asks the LLM for an Oracle SQL query answering the question,
// grounded on the retrieved schema context.
func (r *RAG) GenerateSQL(ctx context.Context, schema, question string) (*models.SQLResult, error) {
	results, err := r.retrieve(ctx, schema, question)
	if err != nil {
		return nil, err
	}

	tables := tableNames(results)
	tablesHint := "No tables identified"
	if len(tables) > 0 {
		tablesHint = strings.Join(tables, ", ")
	}

	prompt := fmt.Sprintf(models.SQLPromptTemplate, buildContext(results), question, tablesHint)
	raw, err := llmservice.Complete(ctx, r.model, &r.cfg.LLM, models.AnswerSystemPrompt, prompt, r.cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &models.SQLResult{
		SQL:      llmservice.CleanSQL(raw),
		Tables:   tables,
		ChunkIDs: chunkIDs(results),
	}, nil
}

// ExplainSQL produces a plain-language explanation of a generated query.
func (r *RAG) ExplainSQL(ctx context.Context, sqlText, question string) (string, error) {
	prompt := fmt.Sprintf(models.ExplainPromptTemplate, question, sqlText)
	answer, err := llmservice.Complete(ctx, r.model, &r.cfg.LLM, models.AnswerSystemPrompt, prompt, r.cfg.Timeout)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func (r *RAG) retrieve(ctx context.Context, schema, question string) ([]chromem.Result, error) {
	vec, err := embedding.EmbedText(ctx, r.embedder, question, r.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	results, err := r.store.Search(ctx, schema, vec, r.cfg.TopK)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("schema", schema).Int("chunks", len(results)).Msg("retrieved context")
	return results, nil
}

func buildContext(results []chromem.Result) string {
	texts := make([]string, len(results))
	for i, res := range results {
		texts[i] = res.Content
	}
	return strings.Join(texts, models.ContextSeparator)
}

func chunkIDs(results []chromem.Result) []string {
	ids := make([]string, len(results))
	for i, res := range results {
		ids[i] = res.ID
	}
	return ids
}

func tableNames(results []chromem.Result) []string {
	seen := make(map[string]bool)
	var tables []string
	for _, res := range results {
		name := res.Metadata["table"]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tables = append(tables, name)
	}
	sort.Strings(tables)
	return tables
}
