package llm

import (
	"sort"
	"time"
)

// Provider identifiers.
const (
	ProviderLLM7         = "llm7"
	ProviderOpenAI       = "openai"
	ProviderGroq         = "groq"
	ProviderOllama       = "ollama"
	ProviderCustomOpenAI = "custom-openai"
	ProviderGoogle       = "google"
	ProviderAnthropic    = "anthropic"
)

// DefaultProviderID is used when no provider is configured.
const DefaultProviderID = ProviderLLM7

// anonymousKey is sent to llm7 when the user has no token.
const anonymousKey = "unused"

// Provider holds the configuration for a model service.
type Provider struct {
	// ID is the provider identifier (llm7, openai, google, etc.).
	ID string
	// Name is the display name.
	Name string
	// BaseURL is the API base URL.
	BaseURL string
	// APIKey is the authentication key (empty for local or anonymous services).
	APIKey string
	// Model is the model identifier.
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the request timeout.
	Timeout time.Duration
	// KeyRequired reports whether calls fail without an API key.
	KeyRequired bool
}

// DefaultProviders returns the pre-configured provider definitions.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		ProviderLLM7: {
			ID:      ProviderLLM7,
			Name:    "LLM7",
			BaseURL: "https://api.llm7.io/v1",
			Model:   "gpt-4.1-nano-2025-04-14",
			Timeout: 120 * time.Second,
		},
		ProviderOpenAI: {
			ID:          ProviderOpenAI,
			Name:        "OpenAI",
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4.1-mini",
			Timeout:     120 * time.Second,
			KeyRequired: true,
		},
		ProviderGroq: {
			ID:          ProviderGroq,
			Name:        "Groq",
			BaseURL:     "https://api.groq.com/openai/v1",
			Timeout:     60 * time.Second,
			KeyRequired: true,
		},
		ProviderOllama: {
			ID:      ProviderOllama,
			Name:    "Ollama",
			BaseURL: "http://localhost:11434/v1",
			Timeout: 300 * time.Second,
		},
		ProviderCustomOpenAI: {
			ID:      ProviderCustomOpenAI,
			Name:    "Custom OpenAI",
			Timeout: 120 * time.Second,
		},
		ProviderGoogle: {
			ID:          ProviderGoogle,
			Name:        "Google AI (Gemini)",
			BaseURL:     "https://generativelanguage.googleapis.com",
			Model:       "gemini-2.5-flash",
			Timeout:     120 * time.Second,
			KeyRequired: true,
		},
		ProviderAnthropic: {
			ID:          ProviderAnthropic,
			Name:        "Anthropic",
			BaseURL:     "https://api.anthropic.com/v1",
			Timeout:     120 * time.Second,
			KeyRequired: true,
		},
	}
}

// ProviderIDs returns the known provider identifiers, sorted.
func ProviderIDs() []string {
	providers := DefaultProviders()
	ids := make([]string, 0, len(providers))
	for id := range providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LookupProvider returns the default definition for id.
func LookupProvider(id string) (Provider, bool) {
	p, ok := DefaultProviders()[id]
	return p, ok
}

// usesOpenAIProtocol reports whether the provider speaks the OpenAI chat API.
func (p Provider) usesOpenAIProtocol() bool {
	switch p.ID {
	case ProviderGoogle, ProviderAnthropic:
		return false
	default:
		return true
	}
}
