package antifraude

import (
	"context"

	"github.com/marcelojr/chad-battle/internal/domain"
)

// Noop deixa a deduplicação inteiramente a cargo do armazenamento.
type Noop struct{}

func NewNoop() Noop {
	return Noop{}
}

func (Noop) Reserve(context.Context, string, domain.Pair) error {
	return nil
}

func (Noop) Release(context.Context, string, domain.Pair) error {
	return nil
}

var _ domain.DedupGuard = Noop{}
