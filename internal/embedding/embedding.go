package embedding

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"oracle-rag/internal/config"
	"oracle-rag/internal/faults"
	"oracle-rag/internal/models"
)

// maxAttempts bounds retries against a flaky embedding provider: the first
// call plus two retries.
const maxAttempts = 3

// NewEmbedder builds a langchaingo embedder for the configured provider.
// Build-time and query-time must use the same configuration, otherwise the
// query vector lives in a different space than the stored ones.
func NewEmbedder(ctx context.Context, cfg *config.EmbeddingConfig) (embeddings.Embedder, error) {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, errors.Wrapf(faults.ErrEmbeddingProvider, "init %s embedder: %v", cfg.Provider, err)
	}
	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, errors.Wrapf(faults.ErrEmbeddingProvider, "create embedder: %v", err)
	}
	return embedder, nil
}

func newClient(ctx context.Context, cfg *config.EmbeddingConfig) (embeddings.EmbedderClient, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(cfg.APIKey),
			openai.WithEmbeddingModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(opts...)
	case config.ProviderGemini:
		return googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultEmbeddingModel(cfg.Model))
	case config.ProviderOllama:
		return ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model))
	default:
		return nil, errors.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// EmbedChunks embeds every chunk, retrying transient provider failures with
// exponential backoff. Vectors are returned in chunk order.
func EmbedChunks(ctx context.Context, embedder embeddings.Embedder, chunks []models.Chunk, timeout time.Duration) ([][]float32, error) {
	if len(chunks) == 0 {
		log.Info().Msg("no chunks to embed")
		return nil, nil
	}

	vectors := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		vec, err := EmbedText(ctx, embedder, chunk.Text, timeout)
		if err != nil {
			return nil, errors.WithMessagef(err, "chunk %s", chunk.ID)
		}
		vectors[i] = vec
		log.Debug().Str("chunk", chunk.ID).Int("dim", len(vec)).Msg("embedded chunk")
	}
	return vectors, nil
}

// EmbedText embeds one text with per-call timeout and bounded retry.
func EmbedText(ctx context.Context, embedder embeddings.Embedder, text string, timeout time.Duration) ([]float32, error) {
	op := func() ([]float32, error) {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		vec, err := embedder.EmbedQuery(cctx, text)
		if err != nil {
			if ctx.Err() != nil {
				// Parent canceled or timed out, retrying is pointless.
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return vec, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 500 * time.Millisecond
	vec, err := backoff.RetryWithData(op, backoff.WithMaxRetries(expo, maxAttempts-1))
	if err != nil {
		if werr, ok := faults.AsTimeout(err, "embed"); ok {
			return nil, werr
		}
		return nil, errors.Wrapf(faults.ErrEmbeddingProvider, "embed after %d attempts: %v", maxAttempts, err)
	}
	return vec, nil
}
