// Pacote voting implementa o ledger de votos: batalhas entre perfis, votos chad/jeet e leituras de ranking.
package voting

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/marcelojr/chad-battle/internal/domain"
	"github.com/marcelojr/chad-battle/internal/platform/ids"
	"github.com/marcelojr/chad-battle/internal/platform/logger"
	"github.com/marcelojr/chad-battle/internal/platform/metrics"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
	DefaultDedupWindow      = 60 * time.Second
)

// Ledger concentra as regras de votação; o armazenamento é a fonte da verdade
// e guard/tally são opcionais.
type Ledger struct {
	profiles    domain.ProfileRepository
	battleVotes domain.BattleVoteRepository
	guard       domain.DedupGuard
	tally       domain.Tally
	clock       domain.Clock
	ids         *ids.Generator
	dedupWindow time.Duration
	intn        func(n int) int
}

func NewLedger(
	profiles domain.ProfileRepository,
	battleVotes domain.BattleVoteRepository,
	guard domain.DedupGuard,
	tally domain.Tally,
	clock domain.Clock,
	idsGen *ids.Generator,
	dedupWindow time.Duration,
) *Ledger {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	if dedupWindow <= 0 {
		dedupWindow = DefaultDedupWindow
	}
	return &Ledger{
		profiles:    profiles,
		battleVotes: battleVotes,
		guard:       guard,
		tally:       tally,
		clock:       clock,
		ids:         idsGen,
		dedupWindow: dedupWindow,
		intn:        rand.Intn,
	}
}

// RecordBattleVote grava o voto e atualiza vencedor e perdedor numa única transação do armazenamento.
func (l *Ledger) RecordBattleVote(ctx context.Context, in domain.BattleVoteInput) (domain.BattleVoteResult, error) {
	res, err := l.recordBattleVote(ctx, in)
	metrics.ObserveVoteRequest("battle", statusLabel(err))
	return res, err
}

func (l *Ledger) recordBattleVote(ctx context.Context, in domain.BattleVoteInput) (domain.BattleVoteResult, error) {
	in.VoterID = strings.TrimSpace(in.VoterID)
	if in.VoterID == "" {
		return domain.BattleVoteResult{}, newError(KindInvalidInput, "voterId obrigatorio", nil)
	}
	if in.WinnerID == "" || in.LoserID == "" {
		return domain.BattleVoteResult{}, newError(KindInvalidInput, "winnerId e loserId obrigatorios", nil)
	}
	if in.WinnerID == in.LoserID {
		return domain.BattleVoteResult{}, newError(KindSameProfile, string(in.WinnerID), nil)
	}

	now := l.clock.Now()
	pair := domain.Pair{A: in.WinnerID, B: in.LoserID}

	reserved := false
	if l.guard != nil {
		switch err := l.guard.Reserve(ctx, in.VoterID, pair); {
		case errors.Is(err, domain.ErrDuplicate):
			metrics.IncDedupRejected("guard")
			return domain.BattleVoteResult{}, newError(KindDuplicateVote, "par votado recentemente", nil)
		case err != nil:
			// o armazenamento continua deduplicando sozinho
			logger.Warn("guarda de duplicidade indisponivel", "error", err)
		default:
			reserved = true
		}
	}

	vote := domain.BattleVote{
		ID:        l.ids.NewBattleVoteID(),
		VoterID:   in.VoterID,
		WinnerID:  in.WinnerID,
		LoserID:   in.LoserID,
		CreatedAt: now,
	}

	start := time.Now()
	res, err := l.battleVotes.Apply(ctx, vote, now.Add(-l.dedupWindow))
	metrics.ObserveStoreDuration("battle_vote_apply", time.Since(start).Seconds())
	if err != nil {
		if reserved {
			if relErr := l.guard.Release(context.WithoutCancel(ctx), in.VoterID, pair); relErr != nil {
				logger.Warn("falha ao liberar guarda de duplicidade", "error", relErr)
			}
		}
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return domain.BattleVoteResult{}, newError(KindProfileNotFound, "winner ou loser inexistente", nil)
		case errors.Is(err, domain.ErrDuplicate):
			metrics.IncDedupRejected("store")
			return domain.BattleVoteResult{}, newError(KindDuplicateVote, "par votado recentemente", nil)
		default:
			return domain.BattleVoteResult{}, newError(KindStorageUnavailable, "registrar voto de batalha", err)
		}
	}

	l.bump(ctx, CounterKeyBattleTotal)
	l.bump(ctx, CounterKeyBattleDay(now))

	return res, nil
}

// RecordProfileVote incrementa chad ou jeet; votos de perfil não têm deduplicação.
func (l *Ledger) RecordProfileVote(ctx context.Context, id domain.ProfileID, voteType domain.VoteType) (domain.ProfileVoteResult, error) {
	res, err := l.recordProfileVote(ctx, id, voteType)
	metrics.ObserveVoteRequest("profile", statusLabel(err))
	return res, err
}

func (l *Ledger) recordProfileVote(ctx context.Context, id domain.ProfileID, voteType domain.VoteType) (domain.ProfileVoteResult, error) {
	if !voteType.Valid() {
		return domain.ProfileVoteResult{}, newError(KindInvalidInput, "voteType deve ser chad ou jeet", nil)
	}
	if id == "" {
		return domain.ProfileVoteResult{}, newError(KindInvalidInput, "profileId obrigatorio", nil)
	}

	start := time.Now()
	p, err := l.profiles.IncrementVote(ctx, id, voteType, l.clock.Now())
	metrics.ObserveStoreDuration("profile_vote_increment", time.Since(start).Seconds())
	if err != nil {
		return domain.ProfileVoteResult{}, profileError(id, "registrar voto de perfil", err)
	}

	l.bump(ctx, CounterKeyProfileVote(voteType))

	chad, jeet := Percentages(p.ChadVotes, p.JeetVotes)
	return domain.ProfileVoteResult{
		ChadVotes:      p.ChadVotes,
		JeetVotes:      p.JeetVotes,
		ChadPercentage: chad,
		JeetPercentage: jeet,
	}, nil
}

func (l *Ledger) Leaderboard(ctx context.Context, period domain.Period, limit int) ([]domain.LeaderboardEntry, error) {
	window, ok := period.Window()
	if !ok {
		return nil, newError(KindInvalidInput, "period deve ser day, week, month ou all", nil)
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	var since time.Time
	if window > 0 {
		since = l.clock.Now().Add(-window)
	}

	start := time.Now()
	profiles, err := l.profiles.Leaderboard(ctx, since, limit)
	metrics.ObserveStoreDuration("leaderboard", time.Since(start).Seconds())
	if err != nil {
		return nil, newError(KindStorageUnavailable, "leaderboard", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(profiles))
	for _, p := range profiles {
		entries = append(entries, domain.LeaderboardEntry{
			ID:       p.ID,
			Username: p.Username,
			Votes:    p.Votes,
			Score:    p.Score,
		})
	}
	return entries, nil
}

// RandomPair sorteia dois perfis distintos. Com mais de dois perfis o par devolvido
// nunca repete exclude.
func (l *Ledger) RandomPair(ctx context.Context, exclude *domain.Pair) ([2]domain.Profile, error) {
	all, err := l.profiles.ListIDs(ctx)
	if err != nil {
		return [2]domain.Profile{}, newError(KindStorageUnavailable, "listar perfis", err)
	}
	if len(all) < 2 {
		return [2]domain.Profile{}, newError(KindNotEnoughProfiles, "cadastre ao menos dois perfis", nil)
	}

	i := l.intn(len(all))
	j := l.intn(len(all) - 1)
	if j >= i {
		j++
	}

	if exclude != nil && len(all) > 2 && exclude.Same(domain.Pair{A: all[i], B: all[j]}) {
		k := l.intn(len(all) - 2)
		for _, skip := range sortedPair(i, j) {
			if k >= skip {
				k++
			}
		}
		j = k
	}

	var pair [2]domain.Profile
	for n, idx := range [2]int{i, j} {
		p, err := l.profiles.FindByID(ctx, all[idx])
		if err != nil {
			return [2]domain.Profile{}, profileError(all[idx], "carregar par", err)
		}
		pair[n] = p
	}
	return pair, nil
}

func (l *Ledger) Profile(ctx context.Context, id domain.ProfileID) (domain.ProfileCard, error) {
	p, err := l.profiles.FindByID(ctx, id)
	if err != nil {
		return domain.ProfileCard{}, profileError(id, "carregar perfil", err)
	}
	chad, jeet := Percentages(p.ChadVotes, p.JeetVotes)
	return domain.ProfileCard{Profile: p, ChadPercentage: chad, JeetPercentage: jeet}, nil
}

func (l *Ledger) CreateProfile(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	p.Username = strings.TrimSpace(p.Username)
	if p.Username == "" {
		return domain.Profile{}, newError(KindInvalidInput, "username obrigatorio", nil)
	}
	if p.Handle == "" {
		p.Handle = "@" + p.Username
	}

	now := l.clock.Now()
	p.ID = l.ids.NewProfileID()
	p.Votes, p.Score = 0, 0
	p.BattleWins, p.BattleLosses = 0, 0
	p.ChadVotes, p.JeetVotes = 0, 0
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := l.profiles.Create(ctx, p); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return domain.Profile{}, newError(KindUsernameTaken, p.Username, nil)
		}
		return domain.Profile{}, newError(KindStorageUnavailable, "criar perfil", err)
	}
	return p, nil
}

// Stats lê os contadores aproximados do Redis; não substituem os totais do armazenamento.
func (l *Ledger) Stats(ctx context.Context) (domain.Stats, error) {
	if l.tally == nil {
		return domain.Stats{}, newError(KindStorageUnavailable, "contadores desabilitados", nil)
	}

	today := CounterKeyBattleDay(l.clock.Now())
	values, err := l.tally.GetAll(ctx, []string{CounterKeyBattleTotal, today, CounterKeyChadTotal, CounterKeyJeetTotal})
	if err != nil {
		return domain.Stats{}, newError(KindStorageUnavailable, "ler contadores", err)
	}

	return domain.Stats{
		BattleVotes:      values[CounterKeyBattleTotal],
		BattleVotesToday: values[today],
		ChadVotes:        values[CounterKeyChadTotal],
		JeetVotes:        values[CounterKeyJeetTotal],
	}, nil
}

// bump nunca falha o voto já confirmado.
func (l *Ledger) bump(ctx context.Context, key string) {
	if l.tally == nil {
		return
	}
	if _, err := l.tally.Increment(ctx, key, 1); err != nil {
		logger.Warn("falha ao incrementar contador", "key", key, "error", err)
	}
}

func profileError(id domain.ProfileID, op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return newError(KindProfileNotFound, string(id), nil)
	}
	return newError(KindStorageUnavailable, op, err)
}

func statusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}

func sortedPair(a, b int) [2]int {
	if a > b {
		return [2]int{b, a}
	}
	return [2]int{a, b}
}

var _ domain.LedgerService = (*Ledger)(nil)
