package agent

import (
	"context"
	"errors"
	"fmt"
)

// DefaultMaxRetries is the attempt bound when an Invoker does not specify one.
const DefaultMaxRetries = 3

// ErrExhausted is returned when every attempt of an invocation failed.
var ErrExhausted = errors.New("all attempts exhausted")

// StructuredRunner is the two-path producer an Invoker drives: a structured
// path that yields a result map directly, and a raw path that yields free
// text to be wrapped into the minimal valid shape.
type StructuredRunner interface {
	RunStructured(ctx context.Context, input string, taskContext map[string]any) (map[string]any, error)
	RunRaw(ctx context.Context, input string, taskContext map[string]any) (string, error)
}

// Invoker attempts structured output first and falls back to the raw path in
// the same attempt, retrying up to MaxRetries times with no backoff. A result
// is accepted once every Required field is present. Failures surface as error
// values; the invoker never panics past this boundary.
type Invoker struct {
	// MaxRetries bounds the attempt count. Zero means DefaultMaxRetries.
	MaxRetries int

	// Required lists the result fields that must be present for a result
	// to be accepted. Supplied per agent kind.
	Required []string

	// RawField is the field the raw fallback text is wrapped into.
	RawField string

	// RawDefaults are merged into the fallback shape for required fields
	// the raw text alone cannot satisfy.
	RawDefaults map[string]any
}

// Invoke drives the runner until a valid result is produced or the attempt
// bound is reached.
func (iv Invoker) Invoke(ctx context.Context, r StructuredRunner, input string, taskContext map[string]any) (map[string]any, error) {
	maxRetries := iv.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		result, err := r.RunStructured(ctx, input, taskContext)
		if err == nil && iv.valid(result) {
			return result, nil
		}
		if err == nil {
			err = fmt.Errorf("structured output missing required fields %v", iv.missing(result))
		}
		lastErr = err

		// Raw fallback within the same attempt.
		raw, rawErr := r.RunRaw(ctx, input, taskContext)
		if rawErr != nil {
			lastErr = fmt.Errorf("structured: %v; raw fallback: %w", err, rawErr)
			continue
		}

		result = iv.wrapRaw(raw)
		if iv.valid(result) {
			return result, nil
		}
		lastErr = fmt.Errorf("raw fallback missing required fields %v", iv.missing(result))
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrExhausted, maxRetries, lastErr)
}

// wrapRaw builds the minimal valid shape from raw fallback text.
func (iv Invoker) wrapRaw(raw string) map[string]any {
	result := make(map[string]any, 1+len(iv.RawDefaults))
	for k, v := range iv.RawDefaults {
		result[k] = v
	}
	if iv.RawField != "" {
		result[iv.RawField] = raw
	}
	return result
}

func (iv Invoker) valid(result map[string]any) bool {
	return len(iv.missing(result)) == 0
}

func (iv Invoker) missing(result map[string]any) []string {
	var missing []string
	for _, field := range iv.Required {
		if v, ok := result[field]; !ok || v == nil {
			missing = append(missing, field)
		}
	}
	return missing
}
