package providers

import "context"

// Request is the payload forwarded to the upstream completion service.
// The routing layer treats it as opaque and passes it through untouched.
type Request struct {
	// Prompt is the user prompt to complete.
	Prompt string

	// System is an optional system prompt.
	System string

	// MaxTokens caps the generated completion length (0 = provider default).
	MaxTokens int

	// Temperature is the sampling temperature (0 = provider default).
	Temperature float64
}

// Executor is the raw upstream boundary: one credential's ability to execute
// a completion call against the generative service.
//
// Implementations are responsible for classifying transport-level failures
// into this package's typed errors (UpstreamRateLimitError, AuthError,
// ProviderError) so that callers never have to parse error text. Executors
// are expected to carry their own request timeout; the context is honored
// for cancellation.
type Executor interface {
	// Complete executes one completion call and returns the generated text.
	Complete(ctx context.Context, model string, req *Request) (string, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, model string, req *Request) (string, error)

// Complete implements Executor.
func (f ExecutorFunc) Complete(ctx context.Context, model string, req *Request) (string, error) {
	return f(ctx, model, req)
}
