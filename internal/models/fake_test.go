package models

import (
	"context"
	"errors"

	"github.com/easeaico/mindmate/internal/types"
)

type fakeProvider struct {
	id    types.ProviderID
	reply string
	err   error
	panic bool
	calls int
	last  types.GenerationRequest
}

func (p *fakeProvider) ID() types.ProviderID {
	return p.id
}

func (p *fakeProvider) TryGenerate(ctx context.Context, req types.GenerationRequest) (string, error) {
	p.calls++
	p.last = req
	if p.panic {
		panic("boom")
	}
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

var errProviderDown = errors.New("provider down")
