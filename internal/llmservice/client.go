package llmservice

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"oracle-rag/internal/config"
	"oracle-rag/internal/faults"
)

// NewModel builds the completion model for the configured provider. Provider
// selection is a plain switch over the configured name.
func NewModel(ctx context.Context, cfg *config.LLMConfig) (llms.Model, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(cfg.APIKey),
			openai.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, errors.Wrapf(faults.ErrLLMProvider, "init openai: %v", err)
		}
		return model, nil
	case config.ProviderGemini:
		model, err := googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(cfg.Model))
		if err != nil {
			return nil, errors.Wrapf(faults.ErrLLMProvider, "init gemini: %v", err)
		}
		return model, nil
	case config.ProviderOllama:
		model, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model))
		if err != nil {
			return nil, errors.Wrapf(faults.ErrLLMProvider, "init ollama: %v", err)
		}
		return model, nil
	default:
		return nil, errors.Wrapf(faults.ErrLLMProvider, "unsupported provider: %s", cfg.Provider)
	}
}

// Complete sends one system+user exchange and returns the text of the first
// choice. No retry: a failed completion surfaces immediately and the caller
// decides whether to rerun.
func Complete(ctx context.Context, model llms.Model, cfg *config.LLMConfig, system, user string, timeout time.Duration) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, system),
		llms.TextParts(schema.ChatMessageTypeHuman, user),
	}

	log.Debug().Str("provider", cfg.Provider).Str("model", cfg.Model).Msg("calling llm")
	resp, err := model.GenerateContent(cctx, messages,
		llms.WithTemperature(cfg.Temperature),
		llms.WithMaxTokens(cfg.MaxTokens))
	if err != nil {
		if werr, ok := faults.AsTimeout(err, "llm completion"); ok {
			return "", werr
		}
		return "", errors.Wrapf(faults.ErrLLMProvider, "completion: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.Wrap(faults.ErrLLMProvider, "completion returned no choices")
	}
	return resp.Choices[0].Content, nil
}

// CleanSQL strips markdown code fences the model tends to wrap queries in.
func CleanSQL(response string) string {
	content := response
	if idx := strings.Index(content, "```sql"); idx >= 0 {
		content = content[idx+len("```sql"):]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
	} else if idx := strings.Index(content, "```"); idx >= 0 {
		content = content[idx+len("```"):]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
	}
	return strings.TrimSpace(content)
}
