package ai

import (
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
)

// ProviderError is any failure reported by, or while talking to, the model
// provider.
type ProviderError struct {
	Op         string // "generate" or "stream"
	StatusCode int    // HTTP status when the provider answered, else 0
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: provider returned %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func providerError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}

	out := &ProviderError{Op: op, Err: err}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		out.StatusCode = apiErr.StatusCode
	}
	return out
}
