package domain

import (
	"context"
	"time"
)

type ProfileRepository interface {
	Create(ctx context.Context, p Profile) error
	FindByID(ctx context.Context, id ProfileID) (Profile, error)
	ListIDs(ctx context.Context) ([]ProfileID, error)
	IncrementVote(ctx context.Context, id ProfileID, voteType VoteType, at time.Time) (Profile, error)
	// Leaderboard considera apenas vencedores com voto desde `since`; since zero não limita o período.
	Leaderboard(ctx context.Context, since time.Time, limit int) ([]Profile, error)
}

type BattleVoteRepository interface {
	// Apply grava o voto e os contadores dos dois perfis numa única transação.
	// Devolve ErrNotFound se algum perfil não existir e ErrDuplicate se o mesmo eleitor
	// já votou no par desde dedupSince.
	Apply(ctx context.Context, vote BattleVote, dedupSince time.Time) (BattleVoteResult, error)
}

type DedupGuard interface {
	Reserve(ctx context.Context, voterID string, pair Pair) error
	Release(ctx context.Context, voterID string, pair Pair) error
}

type Tally interface {
	Increment(ctx context.Context, key string, delta int64) (int64, error)
	GetAll(ctx context.Context, keys []string) (map[string]int64, error)
}

type Clock interface {
	Now() time.Time
}

type LedgerService interface {
	RecordBattleVote(ctx context.Context, in BattleVoteInput) (BattleVoteResult, error)
	RecordProfileVote(ctx context.Context, id ProfileID, voteType VoteType) (ProfileVoteResult, error)
	Leaderboard(ctx context.Context, period Period, limit int) ([]LeaderboardEntry, error)
	RandomPair(ctx context.Context, exclude *Pair) ([2]Profile, error)
	Profile(ctx context.Context, id ProfileID) (ProfileCard, error)
	CreateProfile(ctx context.Context, p Profile) (Profile, error)
	Stats(ctx context.Context) (Stats, error)
}
