// Package faults defines the error kinds surfaced by the pipeline. Callers
// classify with errors.Is and map kinds to process exit codes.
package faults

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrConnection        = errors.New("database connection failed")
	ErrPermission        = errors.New("insufficient privileges to read catalog")
	ErrEmbeddingProvider = errors.New("embedding provider unavailable")
	ErrStorage           = errors.New("vector store failure")
	ErrNotBuilt          = errors.New("vector store not built for schema, run build first")
	ErrLLMProvider       = errors.New("llm provider request failed")
	ErrTimeout           = errors.New("operation timed out")
)

// ExitCode maps an error to the CLI exit code. Unknown errors exit 1.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrConnection):
		return 2
	case errors.Is(err, ErrPermission):
		return 3
	case errors.Is(err, ErrEmbeddingProvider):
		return 4
	case errors.Is(err, ErrStorage):
		return 5
	case errors.Is(err, ErrNotBuilt):
		return 6
	case errors.Is(err, ErrLLMProvider):
		return 7
	case errors.Is(err, ErrTimeout):
		return 8
	default:
		return 1
	}
}

// AsTimeout rewraps context deadline errors as ErrTimeout so a hung
// collaborator surfaces as a timeout kind instead of a provider failure.
func AsTimeout(err error, op string) (error, bool) {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrapf(ErrTimeout, "%s: %v", op, err), true
	}
	return err, false
}
