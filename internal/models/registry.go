package models

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/mindmate/internal/config"
	"github.com/easeaico/mindmate/internal/types"
)

// Registry holds the configured providers in fixed priority order. It is
// read-only after construction and safe to share across goroutines.
type Registry struct {
	providers  []Provider
	configured map[types.ProviderID]bool
	timeout    time.Duration
}

// NewRegistry constructs a client for every provider whose credentials are
// present, in the order Primary, Secondary, Hosted. A provider that fails to
// construct is logged and skipped.
func NewRegistry(ctx context.Context, cfg *config.Config) *Registry {
	r := &Registry{
		configured: make(map[types.ProviderID]bool),
		timeout:    cfg.ProviderTimeout,
	}

	type builder struct {
		id     types.ProviderID
		apiKey string
		build  func() (model.LLM, error)
	}
	builders := []builder{
		{
			id:     types.ProviderPrimaryLLM,
			apiKey: cfg.OpenAIAPIKey,
			build: func() (model.LLM, error) {
				return NewOpenAIModel(ctx, cfg.OpenAIModel, &genai.ClientConfig{APIKey: cfg.OpenAIAPIKey})
			},
		},
		{
			id:     types.ProviderSecondaryLLM,
			apiKey: cfg.GoogleAPIKey,
			build: func() (model.LLM, error) {
				return NewGeminiModel(ctx, cfg.GoogleAPIKey, cfg.GeminiModel)
			},
		},
		{
			id:     types.ProviderHostedOSS,
			apiKey: cfg.HostedAPIKey,
			build: func() (model.LLM, error) {
				return NewHostedModel(ctx, cfg.HostedModel, &genai.ClientConfig{
					APIKey:      cfg.HostedAPIKey,
					HTTPOptions: genai.HTTPOptions{BaseURL: cfg.HostedBaseURL},
				})
			},
		},
	}

	for _, b := range builders {
		if strings.TrimSpace(b.apiKey) == "" {
			slog.Info("provider not configured", "provider", b.id)
			continue
		}
		r.configured[b.id] = true

		llm, err := b.build()
		if err != nil {
			slog.Warn("failed to initialize provider", "provider", b.id, "error", err.Error())
			continue
		}
		r.providers = append(r.providers, NewLLMProvider(b.id, llm))
		slog.Info("provider available", "provider", b.id, "model", llm.Name())
	}

	slog.Info("provider registry ready", "current", r.Current())
	return r
}

// NewRegistryWithProviders builds a registry from ready providers, which are
// used in the given order.
func NewRegistryWithProviders(timeout time.Duration, providers ...Provider) *Registry {
	r := &Registry{
		configured: make(map[types.ProviderID]bool),
		timeout:    timeout,
	}
	for _, p := range providers {
		if p == nil {
			continue
		}
		r.configured[p.ID()] = true
		r.providers = append(r.providers, p)
	}
	return r
}

// Current returns the first live provider, or mock when none is live.
func (r *Registry) Current() types.ProviderID {
	if r == nil || len(r.providers) == 0 {
		return types.ProviderMock
	}
	return r.providers[0].ID()
}

// Status reports every known provider, mock included.
func (r *Registry) Status() []types.ProviderStatus {
	statuses := make([]types.ProviderStatus, 0, len(types.ProviderOrder)+1)
	for _, id := range types.ProviderOrder {
		_, live := r.Get(id)
		statuses = append(statuses, types.ProviderStatus{
			ID:         id,
			Configured: r != nil && r.configured[id],
			Live:       live,
		})
	}
	statuses = append(statuses, types.ProviderStatus{ID: types.ProviderMock, Configured: true, Live: true})
	return statuses
}

// Live returns the live providers in priority order.
func (r *Registry) Live() []Provider {
	if r == nil {
		return nil
	}
	return append([]Provider(nil), r.providers...)
}

// Get returns the live provider with the given id.
func (r *Registry) Get(id types.ProviderID) (Provider, bool) {
	if r == nil {
		return nil, false
	}
	for _, p := range r.providers {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}

// Timeout is the per-attempt deadline applied by Failover.
func (r *Registry) Timeout() time.Duration {
	if r == nil {
		return 0
	}
	return r.timeout
}
