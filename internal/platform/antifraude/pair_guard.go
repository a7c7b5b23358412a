// Pacote antifraude barra votos de batalha repetidos antes que cheguem ao armazenamento.
package antifraude

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/chad-battle/internal/domain"
)

// PairGuard reserva o par (eleitor, par não ordenado) no Redis com SET NX pelo tempo da janela.
type PairGuard struct {
	client    *redis.Client
	window    time.Duration
	keyPrefix string
}

func NewPairGuard(client *redis.Client, window time.Duration, prefix string) *PairGuard {
	if prefix == "" {
		prefix = "dedup"
	}
	return &PairGuard{
		client:    client,
		window:    window,
		keyPrefix: prefix,
	}
}

// Reserve devolve domain.ErrDuplicate quando o par já está reservado para o eleitor.
func (g *PairGuard) Reserve(ctx context.Context, voterID string, pair domain.Pair) error {
	if g.client == nil || g.window <= 0 {
		return nil
	}

	ok, err := g.client.SetNX(ctx, g.buildKey(voterID, pair), 1, g.window).Result()
	if err != nil {
		return fmt.Errorf("antifraude: falha ao reservar par: %w", err)
	}
	if !ok {
		return domain.ErrDuplicate
	}
	return nil
}

// Release libera a reserva quando o voto não foi confirmado, para não bloquear uma nova tentativa.
func (g *PairGuard) Release(ctx context.Context, voterID string, pair domain.Pair) error {
	if g.client == nil {
		return nil
	}
	if err := g.client.Del(ctx, g.buildKey(voterID, pair)).Err(); err != nil {
		return fmt.Errorf("antifraude: falha ao liberar par: %w", err)
	}
	return nil
}

func (g *PairGuard) buildKey(voterID string, pair domain.Pair) string {
	a, b := pair.A, pair.B
	if b < a {
		a, b = b, a
	}
	// Hash evita expor a carteira do eleitor no Redis e mantém o tamanho da chave fixo.
	hash := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%s", voterID, a, b)))
	return fmt.Sprintf("%s:%s", g.keyPrefix, hex.EncodeToString(hash[:]))
}

var _ domain.DedupGuard = (*PairGuard)(nil)
