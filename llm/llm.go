// Package llm is the boundary to the language model that discovers terms.
//
// The extraction pipeline only needs one capability: given a system and a
// user prompt, return the model's text or fail. Completer captures that;
// Client implements it for the hosted providers and Func adapts a plain
// function for stubs and tests.
package llm

import "context"

// Request is a single chat completion request.
type Request struct {
	System      string
	User        string
	Temperature float64
	// MaxTokens caps the response length; zero leaves the provider default.
	MaxTokens int
}

// Completer returns the model's text for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Func adapts an ordinary function to Completer.
type Func func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
