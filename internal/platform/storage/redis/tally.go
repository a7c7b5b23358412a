package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/chad-battle/internal/domain"
)

// Tally mantém contadores agregados com chaves prefixadas; não é fonte de verdade dos votos.
type Tally struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewTally cria o contador; ttl > 0 aplica expiração às chaves diárias.
func NewTally(client *redis.Client, prefix string, dailyTTL time.Duration) *Tally {
	return &Tally{
		client: client,
		prefix: prefix,
		ttl:    dailyTTL,
	}
}

func (t *Tally) Increment(ctx context.Context, chave string, delta int64) (int64, error) {
	key := t.key(chave)
	if t.ttl <= 0 || !isDaily(chave) {
		return t.client.IncrBy(ctx, key, delta).Result()
	}

	// Pipeline transacional garante que a chave diária nunca fica sem expiração.
	var incr *redis.IntCmd
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.IncrBy(ctx, key, delta)
		pipe.Expire(ctx, key, t.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis tally: incrementar %s: %w", chave, err)
	}
	return incr.Val(), nil
}

func (t *Tally) GetAll(ctx context.Context, chaves []string) (map[string]int64, error) {
	if len(chaves) == 0 {
		return map[string]int64{}, nil
	}

	keys := make([]string, len(chaves))
	for i, ch := range chaves {
		keys[i] = t.key(ch)
	}

	valores, err := t.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis tally: mget: %w", err)
	}

	resultado := make(map[string]int64, len(chaves))
	for i, raw := range valores {
		if raw == nil {
			resultado[chaves[i]] = 0
			continue
		}

		switch v := raw.(type) {
		case string:
			num, convErr := strconv.ParseInt(v, 10, 64)
			if convErr != nil {
				return nil, fmt.Errorf("redis tally: valor invalido para %s: %w", chaves[i], convErr)
			}
			resultado[chaves[i]] = num
		case int64:
			resultado[chaves[i]] = v
		default:
			return nil, fmt.Errorf("redis tally: tipo inesperado %T", raw)
		}
	}

	return resultado, nil
}

func (t *Tally) key(chave string) string {
	if t.prefix == "" {
		return chave
	}
	return fmt.Sprintf("%s:%s", t.prefix, chave)
}

func isDaily(chave string) bool {
	return strings.Contains(chave, ":day:")
}

var _ domain.Tally = (*Tally)(nil)
