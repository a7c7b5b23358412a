package ids

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/marcelojr/chad-battle/internal/domain"
)

// Generator produz ULIDs monotônicos; a ordem lexical acompanha a ordem de criação,
// o que mantém o desempate por id do leaderboard estável.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

func NewGenerator() *Generator {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Generator{
		entropy: ulid.Monotonic(src, 0),
		now:     time.Now,
	}
}

func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now().UTC()), g.entropy).String()
}

func (g *Generator) NewProfileID() domain.ProfileID {
	return domain.ProfileID(g.New())
}

func (g *Generator) NewBattleVoteID() domain.BattleVoteID {
	return domain.BattleVoteID(g.New())
}

var (
	defaultOnce sync.Once
	defaultGen  *Generator
)

func DefaultGenerator() *Generator {
	defaultOnce.Do(func() {
		defaultGen = NewGenerator()
	})
	return defaultGen
}
