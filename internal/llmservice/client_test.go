package llmservice

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"oracle-rag/internal/config"
	"oracle-rag/internal/faults"
)

type fakeModel struct {
	response string
	err      error
	block    bool
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.response}},
	}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, nil, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func llmCfg() *config.LLMConfig {
	return &config.LLMConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o-mini", Temperature: 0.3, MaxTokens: 1000}
}

func TestCompleteReturnsFirstChoice(t *testing.T) {
	got, err := Complete(context.Background(), &fakeModel{response: "the answer"}, llmCfg(), "system", "user", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "the answer", got)
}

func TestCompleteProviderFailureIsNotRetried(t *testing.T) {
	model := &fakeModel{err: errors.New("rate limited")}
	_, err := Complete(context.Background(), model, llmCfg(), "system", "user", time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, faults.ErrLLMProvider))
}

func TestCompleteTimeout(t *testing.T) {
	_, err := Complete(context.Background(), &fakeModel{block: true}, llmCfg(), "system", "user", 20*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, faults.ErrTimeout))
}

func TestCompleteNoChoices(t *testing.T) {
	// A response object with zero choices is still a provider failure.
	_, err := Complete(context.Background(), &emptyModel{}, llmCfg(), "system", "user", time.Second)
	assert.True(t, errors.Is(err, faults.ErrLLMProvider))
}

type emptyModel struct{}

func (m *emptyModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{}, nil
}

func (m *emptyModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", nil
}

func TestNewModelUnsupportedProvider(t *testing.T) {
	_, err := NewModel(context.Background(), &config.LLMConfig{Provider: "watson"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, faults.ErrLLMProvider))
}

func TestCleanSQL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "SELECT 1 FROM dual", "SELECT 1 FROM dual"},
		{"sql fence", "```sql\nSELECT 1 FROM dual\n```", "SELECT 1 FROM dual"},
		{"bare fence", "```\nSELECT 1 FROM dual\n```", "SELECT 1 FROM dual"},
		{"fence with prose", "Here you go:\n```sql\nSELECT e.last_name\nFROM employees e\n```\nHope that helps.", "SELECT e.last_name\nFROM employees e"},
		{"whitespace", "  SELECT 1 FROM dual  \n", "SELECT 1 FROM dual"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanSQL(tc.in))
		})
	}
}
