package types

import "fmt"

// ProviderID identifies a generation backend.
type ProviderID string

const (
	ProviderPrimaryLLM   ProviderID = "primary_llm"
	ProviderSecondaryLLM ProviderID = "secondary_llm"
	ProviderHostedOSS    ProviderID = "hosted_oss"
	ProviderMock         ProviderID = "mock"
)

// ProviderOrder is the fixed failover priority.
var ProviderOrder = []ProviderID{ProviderPrimaryLLM, ProviderSecondaryLLM, ProviderHostedOSS}

// Chat roles accepted in a conversation window.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of the bounded conversation window.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationRequest is built fresh for every provider call and never mutated.
type GenerationRequest struct {
	SystemPrompt string
	Messages     []ChatMessage
	MaxTokens    int
	Temperature  float64
	// JSON asks the provider for a single JSON object.
	JSON bool
}

// Validate checks the numeric limits.
func (r GenerationRequest) Validate() error {
	if r.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", r.MaxTokens)
	}
	if r.Temperature < 0 || r.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0,2], got %v", r.Temperature)
	}
	return nil
}

// ProviderStatus reports whether a provider has credentials and a live client.
type ProviderStatus struct {
	ID         ProviderID `json:"id"`
	Configured bool       `json:"configured"`
	Live       bool       `json:"live"`
}
