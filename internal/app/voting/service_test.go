package voting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/chad-battle/internal/domain"
	"github.com/marcelojr/chad-battle/internal/platform/ids"
)

var baseTime = time.Date(2026, 10, 17, 20, 0, 0, 0, time.UTC)

func TestPercentages(t *testing.T) {
	tests := []struct {
		name     string
		chad     int64
		jeet     int64
		wantChad int
		wantJeet int
	}{
		{"sem votos", 0, 0, 50, 50},
		{"so chad", 1, 0, 100, 0},
		{"so jeet", 0, 1, 0, 100},
		{"empate", 1, 1, 50, 50},
		{"um terco", 1, 2, 33, 67},
		{"dois tercos", 2, 1, 67, 33},
		{"arredondamento estoura chad maior", 5, 3, 62, 38},
		{"arredondamento estoura jeet maior", 3, 5, 38, 62},
		{"sexto", 1, 5, 17, 83},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chad, jeet := Percentages(tt.chad, tt.jeet)
			assert.Equal(t, tt.wantChad, chad)
			assert.Equal(t, tt.wantJeet, jeet)
		})
	}
}

func TestPercentages_SomaSempre100(t *testing.T) {
	for chad := int64(0); chad <= 40; chad++ {
		for jeet := int64(0); jeet <= 40; jeet++ {
			c, j := Percentages(chad, jeet)
			require.Equal(t, 100, c+j, "chad=%d jeet=%d", chad, jeet)
			require.GreaterOrEqual(t, c, 0)
			require.GreaterOrEqual(t, j, 0)
		}
	}
}

func TestRecordBattleVote_Sucesso(t *testing.T) {
	deps := newLedgerDeps(t)
	a, b := deps.seed(t, "alice"), deps.seed(t, "bruno")

	res, err := deps.ledger.RecordBattleVote(context.Background(), domain.BattleVoteInput{
		VoterID:  "0xabc",
		WinnerID: a.ID,
		LoserID:  b.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.BattleVoteResult{WinnerVotes: 1, WinnerScore: 1, LoserLosses: 1}, res)

	winner := deps.store.profile(a.ID)
	assert.Equal(t, int64(1), winner.BattleWins)
	assert.Equal(t, int64(0), winner.BattleLosses)
	assert.Equal(t, int64(1), deps.store.profile(b.ID).BattleLosses)
	assert.Equal(t, int64(0), deps.store.profile(b.ID).Votes)

	assert.Equal(t, int64(1), deps.tally.get(CounterKeyBattleTotal))
	assert.Equal(t, int64(1), deps.tally.get("battle:day:20261017"))
}

func TestRecordBattleVote_ParInvertidoNaJanela_DeveSerDuplicado(t *testing.T) {
	deps := newLedgerDeps(t)
	a, b := deps.seed(t, "alice"), deps.seed(t, "bruno")
	ctx := context.Background()

	_, err := deps.ledger.RecordBattleVote(ctx, domain.BattleVoteInput{VoterID: "0xabc", WinnerID: a.ID, LoserID: b.ID})
	require.NoError(t, err)

	deps.clock.advance(5 * time.Second)
	_, err = deps.ledger.RecordBattleVote(ctx, domain.BattleVoteInput{VoterID: "0xabc", WinnerID: b.ID, LoserID: a.ID})

	require.ErrorIs(t, err, ErrDuplicateVote)
	assert.Equal(t, KindDuplicateVote, KindOf(err))
	assert.Equal(t, int64(0), deps.store.profile(b.ID).Votes)
	assert.Equal(t, int64(0), deps.store.profile(a.ID).BattleLosses)
	assert.Len(t, deps.store.votes, 1)
}

func TestRecordBattleVote_ForaDaJanela_DeveAceitar(t *testing.T) {
	deps := newLedgerDeps(t)
	a, b := deps.seed(t, "alice"), deps.seed(t, "bruno")
	ctx := context.Background()

	_, err := deps.ledger.RecordBattleVote(ctx, domain.BattleVoteInput{VoterID: "0xabc", WinnerID: a.ID, LoserID: b.ID})
	require.NoError(t, err)

	deps.clock.advance(61 * time.Second)
	res, err := deps.ledger.RecordBattleVote(ctx, domain.BattleVoteInput{VoterID: "0xabc", WinnerID: a.ID, LoserID: b.ID})

	require.NoError(t, err)
	assert.Equal(t, int64(2), res.WinnerVotes)
	assert.Equal(t, int64(2), res.LoserLosses)
}

func TestRecordBattleVote_OutroEleitor_NaoEhDuplicado(t *testing.T) {
	deps := newLedgerDeps(t)
	a, b := deps.seed(t, "alice"), deps.seed(t, "bruno")
	ctx := context.Background()

	_, err := deps.ledger.RecordBattleVote(ctx, domain.BattleVoteInput{VoterID: "0xabc", WinnerID: a.ID, LoserID: b.ID})
	require.NoError(t, err)

	_, err = deps.ledger.RecordBattleVote(ctx, domain.BattleVoteInput{VoterID: "0xdef", WinnerID: a.ID, LoserID: b.ID})
	require.NoError(t, err)
}

func TestRecordBattleVote_Validacoes(t *testing.T) {
	deps := newLedgerDeps(t)
	a, b := deps.seed(t, "alice"), deps.seed(t, "bruno")

	tests := []struct {
		name string
		in   domain.BattleVoteInput
		want Kind
	}{
		{"mesmo perfil", domain.BattleVoteInput{VoterID: "0xabc", WinnerID: a.ID, LoserID: a.ID}, KindSameProfile},
		{"sem eleitor", domain.BattleVoteInput{VoterID: "  ", WinnerID: a.ID, LoserID: b.ID}, KindInvalidInput},
		{"sem perdedor", domain.BattleVoteInput{VoterID: "0xabc", WinnerID: a.ID}, KindInvalidInput},
		{"vencedor inexistente", domain.BattleVoteInput{VoterID: "0xabc", WinnerID: "nope", LoserID: b.ID}, KindProfileNotFound},
		{"perdedor inexistente", domain.BattleVoteInput{VoterID: "0xabc", WinnerID: a.ID, LoserID: "nope"}, KindProfileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := deps.ledger.RecordBattleVote(context.Background(), tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.want, KindOf(err))
		})
	}

	assert.Empty(t, deps.store.votes)
}

func TestRecordBattleVote_FalhaDoArmazenamento_DeveSerStorageUnavailable(t *testing.T) {
	deps := newLedgerDeps(t)
	a, b := deps.seed(t, "alice"), deps.seed(t, "bruno")
	causa := errors.New("conexao recusada")
	deps.store.applyErr = causa

	_, err := deps.ledger.RecordBattleVote(context.Background(), domain.BattleVoteInput{VoterID: "0xabc", WinnerID: a.ID, LoserID: b.ID})

	require.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, causa)
	assert.Zero(t, deps.tally.get(CounterKeyBattleTotal))
}

func TestRecordBattleVote_GuardaDuplicado_NaoTocaArmazenamento(t *testing.T) {
	deps := newLedgerDeps(t)
	a, b := deps.seed(t, "alice"), deps.seed(t, "bruno")
	deps.guard.reserveErr = domain.ErrDuplicate
	deps.ledger.guard = deps.guard

	_, err := deps.ledger.RecordBattleVote(context.Background(), domain.BattleVoteInput{VoterID: "0xabc", WinnerID: a.ID, LoserID: b.ID})

	require.ErrorIs(t, err, ErrDuplicateVote)
	assert.Zero(t, deps.store.applyCalls)
	assert.Zero(t, deps.guard.released)
}

func TestRecordBattleVote_RejeicaoDoArmazenamento_DeveLiberarGuarda(t *testing.T) {
	deps := newLedgerDeps(t)
	a := deps.seed(t, "alice")
	deps.ledger.guard = deps.guard

	_, err := deps.ledger.RecordBattleVote(context.Background(), domain.BattleVoteInput{VoterID: "0xabc", WinnerID: a.ID, LoserID: "nope"})

	require.ErrorIs(t, err, ErrProfileNotFound)
	assert.Equal(t, 1, deps.guard.reserved)
	assert.Equal(t, 1, deps.guard.released)
}

func TestRecordBattleVote_GuardaIndisponivel_DeveSeguirParaArmazenamento(t *testing.T) {
	deps := newLedgerDeps(t)
	a, b := deps.seed(t, "alice"), deps.seed(t, "bruno")
	deps.guard.reserveErr = errors.New("redis fora")
	deps.ledger.guard = deps.guard

	res, err := deps.ledger.RecordBattleVote(context.Background(), domain.BattleVoteInput{VoterID: "0xabc", WinnerID: a.ID, LoserID: b.ID})

	require.NoError(t, err)
	assert.Equal(t, int64(1), res.WinnerVotes)
	assert.Equal(t, 1, deps.store.applyCalls)
}

func TestRecordBattleVote_FalhaNoContador_NaoFalhaVoto(t *testing.T) {
	deps := newLedgerDeps(t)
	a, b := deps.seed(t, "alice"), deps.seed(t, "bruno")
	deps.tally.err = errors.New("redis fora")

	_, err := deps.ledger.RecordBattleVote(context.Background(), domain.BattleVoteInput{VoterID: "0xabc", WinnerID: a.ID, LoserID: b.ID})

	require.NoError(t, err)
	assert.Equal(t, int64(1), deps.store.profile(a.ID).Votes)
}

func TestRecordBattleVote_Concorrente_NaoPerdeIncrementos(t *testing.T) {
	deps := newLedgerDeps(t)
	a, b := deps.seed(t, "alice"), deps.seed(t, "bruno")

	const total = 20
	var wg sync.WaitGroup
	errs := make(chan error, total)
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := deps.ledger.RecordBattleVote(context.Background(), domain.BattleVoteInput{
				VoterID:  fmt.Sprintf("0x%02d", i),
				WinnerID: a.ID,
				LoserID:  b.ID,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(total), deps.store.profile(a.ID).Votes)
	assert.Equal(t, int64(total), deps.store.profile(b.ID).BattleLosses)
}

func TestRecordBattleVote_MesmoEleitorConcorrente_SoUmVence(t *testing.T) {
	deps := newLedgerDeps(t)
	a, b := deps.seed(t, "alice"), deps.seed(t, "bruno")

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, dup := 0, 0
	for _, in := range []domain.BattleVoteInput{
		{VoterID: "0xabc", WinnerID: a.ID, LoserID: b.ID},
		{VoterID: "0xabc", WinnerID: b.ID, LoserID: a.ID},
	} {
		wg.Add(1)
		go func(in domain.BattleVoteInput) {
			defer wg.Done()
			_, err := deps.ledger.RecordBattleVote(context.Background(), in)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, ErrDuplicateVote) {
				dup++
			}
		}(in)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, dup)
	assert.Len(t, deps.store.votes, 1)
}

func TestRecordProfileVote(t *testing.T) {
	deps := newLedgerDeps(t)
	a := deps.seed(t, "alice")
	ctx := context.Background()

	res, err := deps.ledger.RecordProfileVote(ctx, a.ID, domain.VoteChad)
	require.NoError(t, err)
	assert.Equal(t, domain.ProfileVoteResult{ChadVotes: 1, JeetVotes: 0, ChadPercentage: 100, JeetPercentage: 0}, res)

	res, err = deps.ledger.RecordProfileVote(ctx, a.ID, domain.VoteJeet)
	require.NoError(t, err)
	assert.Equal(t, domain.ProfileVoteResult{ChadVotes: 1, JeetVotes: 1, ChadPercentage: 50, JeetPercentage: 50}, res)

	res, err = deps.ledger.RecordProfileVote(ctx, a.ID, domain.VoteJeet)
	require.NoError(t, err)
	assert.Equal(t, 33, res.ChadPercentage)
	assert.Equal(t, 67, res.JeetPercentage)

	assert.Equal(t, int64(1), deps.tally.get(CounterKeyChadTotal))
	assert.Equal(t, int64(2), deps.tally.get(CounterKeyJeetTotal))
}

func TestRecordProfileVote_Erros(t *testing.T) {
	deps := newLedgerDeps(t)
	a := deps.seed(t, "alice")

	_, err := deps.ledger.RecordProfileVote(context.Background(), a.ID, "meh")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = deps.ledger.RecordProfileVote(context.Background(), "nope", domain.VoteChad)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	deps.store.incrementErr = errors.New("timeout")
	_, err = deps.ledger.RecordProfileVote(context.Background(), a.ID, domain.VoteChad)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestLeaderboard_OrdemELimite(t *testing.T) {
	deps := newLedgerDeps(t)
	a, b, c, d := deps.seed(t, "alice"), deps.seed(t, "bruno"), deps.seed(t, "carla"), deps.seed(t, "diego")
	ctx := context.Background()

	vote := func(voter string, w, l domain.Profile) {
		t.Helper()
		_, err := deps.ledger.RecordBattleVote(ctx, domain.BattleVoteInput{VoterID: voter, WinnerID: w.ID, LoserID: l.ID})
		require.NoError(t, err)
	}
	vote("v1", b, a)
	vote("v2", b, a)
	vote("v3", c, a)
	vote("v4", b, d)

	entries, err := deps.ledger.Leaderboard(ctx, domain.PeriodAll, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.LeaderboardEntry{ID: b.ID, Username: "bruno", Votes: 3, Score: 3}, entries[0])
	assert.Equal(t, c.ID, entries[1].ID)

	entries, err = deps.ledger.Leaderboard(ctx, domain.PeriodAll, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "perfis sem vitória ficam fora")
	assert.Equal(t, DefaultLeaderboardLimit, deps.store.lastLimit)

	_, err = deps.ledger.Leaderboard(ctx, domain.PeriodAll, 1000)
	require.NoError(t, err)
	assert.Equal(t, MaxLeaderboardLimit, deps.store.lastLimit)
}

func TestLeaderboard_JanelaDoPeriodo(t *testing.T) {
	deps := newLedgerDeps(t)
	a, b, c := deps.seed(t, "alice"), deps.seed(t, "bruno"), deps.seed(t, "carla")
	ctx := context.Background()

	_, err := deps.ledger.RecordBattleVote(ctx, domain.BattleVoteInput{VoterID: "v1", WinnerID: a.ID, LoserID: b.ID})
	require.NoError(t, err)

	deps.clock.advance(3 * 24 * time.Hour)
	_, err = deps.ledger.RecordBattleVote(ctx, domain.BattleVoteInput{VoterID: "v1", WinnerID: c.ID, LoserID: b.ID})
	require.NoError(t, err)

	day, err := deps.ledger.Leaderboard(ctx, domain.PeriodDay, 10)
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, c.ID, day[0].ID)

	week, err := deps.ledger.Leaderboard(ctx, domain.PeriodWeek, 10)
	require.NoError(t, err)
	assert.Len(t, week, 2)
}

func TestLeaderboard_Vazio(t *testing.T) {
	deps := newLedgerDeps(t)
	deps.seed(t, "alice")

	entries, err := deps.ledger.Leaderboard(context.Background(), domain.PeriodMonth, 10)

	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestLeaderboard_PeriodoInvalido(t *testing.T) {
	deps := newLedgerDeps(t)

	_, err := deps.ledger.Leaderboard(context.Background(), "year", 10)

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRandomPair_DevolvePerfisDistintos(t *testing.T) {
	deps := newLedgerDeps(t)
	for _, name := range []string{"alice", "bruno", "carla", "diego"} {
		deps.seed(t, name)
	}

	for i := 0; i < 50; i++ {
		pair, err := deps.ledger.RandomPair(context.Background(), nil)
		require.NoError(t, err)
		assert.NotEqual(t, pair[0].ID, pair[1].ID)
		assert.NotEmpty(t, pair[0].Username)
	}
}

func TestRandomPair_RespeitaExclusao(t *testing.T) {
	deps := newLedgerDeps(t)
	a, b := deps.seed(t, "alice"), deps.seed(t, "bruno")
	deps.seed(t, "carla")
	exclude := &domain.Pair{A: b.ID, B: a.ID}

	for i := 0; i < 50; i++ {
		pair, err := deps.ledger.RandomPair(context.Background(), exclude)
		require.NoError(t, err)
		assert.NotEqual(t, pair[0].ID, pair[1].ID)
		assert.False(t, exclude.Same(domain.Pair{A: pair[0].ID, B: pair[1].ID}))
	}
}

func TestRandomPair_ExclusaoComSoDoisPerfis_DevolveOMesmoPar(t *testing.T) {
	deps := newLedgerDeps(t)
	a, b := deps.seed(t, "alice"), deps.seed(t, "bruno")

	pair, err := deps.ledger.RandomPair(context.Background(), &domain.Pair{A: a.ID, B: b.ID})

	require.NoError(t, err)
	assert.True(t, domain.Pair{A: a.ID, B: b.ID}.Same(domain.Pair{A: pair[0].ID, B: pair[1].ID}))
}

func TestRandomPair_SorteioDeterministico(t *testing.T) {
	deps := newLedgerDeps(t)
	a, b, c := deps.seed(t, "alice"), deps.seed(t, "bruno"), deps.seed(t, "carla")
	// i=0 (alice), j=0 -> 1 (bruno), depois k=0 pula 0 e 1 -> 2 (carla)
	deps.ledger.intn = func(int) int { return 0 }

	pair, err := deps.ledger.RandomPair(context.Background(), &domain.Pair{A: a.ID, B: b.ID})

	require.NoError(t, err)
	assert.Equal(t, a.ID, pair[0].ID)
	assert.Equal(t, c.ID, pair[1].ID)
}

func TestRandomPair_PoucosPerfis(t *testing.T) {
	deps := newLedgerDeps(t)
	deps.seed(t, "alice")

	_, err := deps.ledger.RandomPair(context.Background(), nil)

	assert.ErrorIs(t, err, ErrNotEnoughProfiles)
}

func TestProfile_Card(t *testing.T) {
	deps := newLedgerDeps(t)
	a := deps.seed(t, "alice")

	card, err := deps.ledger.Profile(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, card.ChadPercentage)
	assert.Equal(t, 50, card.JeetPercentage)

	_, err = deps.ledger.RecordProfileVote(context.Background(), a.ID, domain.VoteJeet)
	require.NoError(t, err)

	card, err = deps.ledger.Profile(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", card.Username)
	assert.Equal(t, 0, card.ChadPercentage)
	assert.Equal(t, 100, card.JeetPercentage)

	_, err = deps.ledger.Profile(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestCreateProfile(t *testing.T) {
	deps := newLedgerDeps(t)

	p, err := deps.ledger.CreateProfile(context.Background(), domain.Profile{Username: " alice ", Votes: 99})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, "@alice", p.Handle)
	assert.Zero(t, p.Votes)
	assert.Equal(t, baseTime, p.CreatedAt)

	_, err = deps.ledger.CreateProfile(context.Background(), domain.Profile{Username: "alice"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = deps.ledger.CreateProfile(context.Background(), domain.Profile{Username: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStats(t *testing.T) {
	deps := newLedgerDeps(t)
	a, b := deps.seed(t, "alice"), deps.seed(t, "bruno")
	ctx := context.Background()

	_, err := deps.ledger.RecordBattleVote(ctx, domain.BattleVoteInput{VoterID: "v1", WinnerID: a.ID, LoserID: b.ID})
	require.NoError(t, err)
	_, err = deps.ledger.RecordProfileVote(ctx, a.ID, domain.VoteChad)
	require.NoError(t, err)

	stats, err := deps.ledger.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{BattleVotes: 1, BattleVotesToday: 1, ChadVotes: 1, JeetVotes: 0}, stats)

	deps.ledger.tally = nil
	_, err = deps.ledger.Stats(ctx)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestError_Mensagem(t *testing.T) {
	err := newError(KindStorageUnavailable, "leaderboard", errors.New("timeout"))

	assert.Equal(t, "StorageUnavailable: leaderboard: timeout", err.Error())
	assert.Equal(t, "SameProfile", ErrSameProfile.Error())
	assert.False(t, errors.Is(err, ErrProfileNotFound))
	assert.Equal(t, Kind(""), KindOf(errors.New("qualquer")))
}

// ---- dependências em memória ----

type ledgerDeps struct {
	ledger *Ledger
	store  *memStore
	guard  *fakeGuard
	tally  *fakeTally
	clock  *fakeClock
}

func newLedgerDeps(t *testing.T) *ledgerDeps {
	t.Helper()
	store := newMemStore()
	tally := &fakeTally{values: map[string]int64{}}
	clock := &fakeClock{now: baseTime}
	ledger := NewLedger(store, store, nil, tally, clock, ids.NewGenerator(), time.Minute)
	return &ledgerDeps{
		ledger: ledger,
		store:  store,
		guard:  &fakeGuard{},
		tally:  tally,
		clock:  clock,
	}
}

func (d *ledgerDeps) seed(t *testing.T, username string) domain.Profile {
	t.Helper()
	p, err := d.ledger.CreateProfile(context.Background(), domain.Profile{Username: username})
	require.NoError(t, err)
	return p
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeGuard struct {
	mu         sync.Mutex
	reserveErr error
	reserved   int
	released   int
}

func (g *fakeGuard) Reserve(context.Context, string, domain.Pair) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.reserveErr != nil {
		return g.reserveErr
	}
	g.reserved++
	return nil
}

func (g *fakeGuard) Release(context.Context, string, domain.Pair) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.released++
	return nil
}

type fakeTally struct {
	mu     sync.Mutex
	values map[string]int64
	err    error
}

func (f *fakeTally) Increment(_ context.Context, key string, delta int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.values[key] += delta
	return f.values[key], nil
}

func (f *fakeTally) GetAll(_ context.Context, keys []string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]int64, len(keys))
	for _, k := range keys {
		if v, ok := f.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (f *fakeTally) get(key string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key]
}

// memStore serializa tudo num mutex, como a transação do armazenamento real.
type memStore struct {
	mu           sync.Mutex
	profiles     map[domain.ProfileID]domain.Profile
	votes        []domain.BattleVote
	applyErr     error
	incrementErr error
	applyCalls   int
	lastLimit    int
}

func newMemStore() *memStore {
	return &memStore{profiles: map[domain.ProfileID]domain.Profile{}}
}

func (s *memStore) profile(id domain.ProfileID) domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[id]
}

func (s *memStore) Create(_ context.Context, p domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.profiles {
		if existing.Username == p.Username {
			return domain.ErrDuplicate
		}
	}
	s.profiles[p.ID] = p
	return nil
}

func (s *memStore) FindByID(_ context.Context, id domain.ProfileID) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *memStore) ListIDs(context.Context) ([]domain.ProfileID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ProfileID, 0, len(s.profiles))
	for id := range s.profiles {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *memStore) IncrementVote(_ context.Context, id domain.ProfileID, voteType domain.VoteType, at time.Time) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incrementErr != nil {
		return domain.Profile{}, s.incrementErr
	}
	p, ok := s.profiles[id]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	if voteType == domain.VoteChad {
		p.ChadVotes++
	} else {
		p.JeetVotes++
	}
	p.UpdatedAt = at
	s.profiles[id] = p
	return p, nil
}

func (s *memStore) Leaderboard(_ context.Context, since time.Time, limit int) ([]domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLimit = limit

	qualifies := map[domain.ProfileID]bool{}
	for _, v := range s.votes {
		if since.IsZero() || !v.CreatedAt.Before(since) {
			qualifies[v.WinnerID] = true
		}
	}

	out := []domain.Profile{}
	for id := range qualifies {
		out = append(out, s.profiles[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Votes != out[j].Votes {
			return out[i].Votes > out[j].Votes
		}
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) Apply(_ context.Context, vote domain.BattleVote, dedupSince time.Time) (domain.BattleVoteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyCalls++
	if s.applyErr != nil {
		return domain.BattleVoteResult{}, s.applyErr
	}

	winner, okW := s.profiles[vote.WinnerID]
	loser, okL := s.profiles[vote.LoserID]
	if !okW || !okL {
		return domain.BattleVoteResult{}, domain.ErrNotFound
	}

	pair := domain.Pair{A: vote.WinnerID, B: vote.LoserID}
	for _, v := range s.votes {
		if v.VoterID == vote.VoterID && !v.CreatedAt.Before(dedupSince) && pair.Same(domain.Pair{A: v.WinnerID, B: v.LoserID}) {
			return domain.BattleVoteResult{}, domain.ErrDuplicate
		}
	}

	s.votes = append(s.votes, vote)
	winner.Votes++
	winner.Score++
	winner.BattleWins++
	loser.BattleLosses++
	s.profiles[winner.ID] = winner
	s.profiles[loser.ID] = loser

	return domain.BattleVoteResult{
		WinnerVotes: winner.Votes,
		WinnerScore: winner.Score,
		LoserLosses: loser.BattleLosses,
	}, nil
}
