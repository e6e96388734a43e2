package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/easeaico/mindmate/internal/types"
)

// ErrNoProvider is returned by Failover when no live provider produced an
// accepted completion.
var ErrNoProvider = errors.New("no provider produced a usable completion")

// Attempt is the outcome of a successful failover run.
type Attempt struct {
	Text     string
	Provider types.ProviderID
}

// Failover tries providers strictly in order and returns the first completion
// that accept approves. accept may be nil. Each attempt is bounded by timeout
// when positive.
func Failover(ctx context.Context, providers []Provider, timeout time.Duration, req types.GenerationRequest, accept func(string) error) (Attempt, error) {
	for _, p := range providers {
		if err := ctx.Err(); err != nil {
			return Attempt{}, err
		}

		text, err := tryOne(ctx, p, timeout, req)
		if err == nil && accept != nil {
			err = accept(text)
		}
		if err != nil {
			slog.Warn("provider failed, trying next", "provider", p.ID(), "error", err.Error())
			continue
		}
		return Attempt{Text: text, Provider: p.ID()}, nil
	}
	return Attempt{}, ErrNoProvider
}

func tryOne(ctx context.Context, p Provider, timeout time.Duration, req types.GenerationRequest) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("provider %s panicked: %v", p.ID(), rec)
		}
	}()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return p.TryGenerate(ctx, req)
}
