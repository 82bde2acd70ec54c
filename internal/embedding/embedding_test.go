package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oracle-rag/internal/faults"
	"oracle-rag/internal/models"
)

// flakyEmbedder fails the first n calls, then succeeds.
type flakyEmbedder struct {
	failures int
	calls    int
}

func (f *flakyEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("provider unavailable")
	}
	return []float32{1, 0, 0}, nil
}

func (f *flakyEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		vec, err := f.EmbedQuery(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func TestEmbedTextRetriesTransientFailures(t *testing.T) {
	fake := &flakyEmbedder{failures: 2}

	vec, err := EmbedText(context.Background(), fake, "hello", time.Second)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, vec)
	assert.Equal(t, 3, fake.calls)
}

func TestEmbedTextGivesUpAfterThreeAttempts(t *testing.T) {
	fake := &flakyEmbedder{failures: 100}

	_, err := EmbedText(context.Background(), fake, "hello", time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, faults.ErrEmbeddingProvider))
	assert.Equal(t, 3, fake.calls)
}

func TestEmbedChunks(t *testing.T) {
	fake := &flakyEmbedder{}
	chunks := []models.Chunk{
		{ID: "HR.EMPLOYEES#0-abc", Text: "Table: HR.EMPLOYEES"},
		{ID: "HR.DEPARTMENTS#0-def", Text: "Table: HR.DEPARTMENTS"},
	}

	vectors, err := EmbedChunks(context.Background(), fake, chunks, time.Second)
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, 2, fake.calls)
}

func TestEmbedChunksEmpty(t *testing.T) {
	vectors, err := EmbedChunks(context.Background(), &flakyEmbedder{}, nil, time.Second)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedTextCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	blocked := &blockingEmbedder{}
	_, err := EmbedText(ctx, blocked, "hello", time.Second)
	require.Error(t, err)
	// Canceled parent stops the retry loop after the first attempt.
	assert.Equal(t, 1, blocked.calls)
}

type blockingEmbedder struct {
	calls int
}

func (b *blockingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	b.calls++
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b *blockingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not used")
}
