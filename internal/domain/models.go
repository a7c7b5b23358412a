package domain

import (
	"errors"
	"time"
)

type (
	ProfileID    string
	BattleVoteID string
)

var (
	// ErrNotFound é devolvido pelos repositórios quando o registro não existe.
	ErrNotFound = errors.New("registro nao encontrado")
	// ErrDuplicate sinaliza violação de unicidade (username ou voto repetido na janela).
	ErrDuplicate = errors.New("registro duplicado")
)

type Profile struct {
	ID           ProfileID `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Username     string    `gorm:"column:username;type:text;not null;uniqueIndex:idx_profiles_username" json:"username"`
	Handle       string    `gorm:"column:handle;type:text" json:"handle"`
	ImageURL     string    `gorm:"column:image_url;type:text" json:"imageUrl,omitempty"`
	Votes        int64     `gorm:"column:votes;not null;default:0" json:"votes"`
	Score        int64     `gorm:"column:score;not null;default:0" json:"score"`
	BattleWins   int64     `gorm:"column:battle_wins;not null;default:0" json:"battleWins"`
	BattleLosses int64     `gorm:"column:battle_losses;not null;default:0" json:"battleLosses"`
	ChadVotes    int64     `gorm:"column:chad_votes;not null;default:0" json:"chadVotes"`
	JeetVotes    int64     `gorm:"column:jeet_votes;not null;default:0" json:"jeetVotes"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// BattleVote é imutável: uma vez gravado nunca é alterado.
type BattleVote struct {
	ID        BattleVoteID `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	VoterID   string       `gorm:"column:voter_id;type:text;not null;index:idx_battle_votes_voter_created,priority:1" json:"voterId"`
	WinnerID  ProfileID    `gorm:"column:winner_id;type:char(26);not null;index:idx_battle_votes_winner_created,priority:1" json:"winnerId"`
	LoserID   ProfileID    `gorm:"column:loser_id;type:char(26);not null" json:"loserId"`
	CreatedAt time.Time    `gorm:"column:created_at;not null;index:idx_battle_votes_voter_created,priority:2;index:idx_battle_votes_winner_created,priority:2" json:"createdAt"`
}

func (Profile) TableName() string { return "profiles" }

func (BattleVote) TableName() string { return "battle_votes" }

type VoteType string

const (
	VoteChad VoteType = "chad"
	VoteJeet VoteType = "jeet"
)

func (v VoteType) Valid() bool {
	return v == VoteChad || v == VoteJeet
}

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// Window devolve a duração da janela; zero significa sem limite (all).
func (p Period) Window() (time.Duration, bool) {
	switch p {
	case PeriodDay:
		return 24 * time.Hour, true
	case PeriodWeek:
		return 7 * 24 * time.Hour, true
	case PeriodMonth:
		return 30 * 24 * time.Hour, true
	case PeriodAll:
		return 0, true
	default:
		return 0, false
	}
}

// Pair é um par não ordenado de perfis.
type Pair struct {
	A ProfileID
	B ProfileID
}

func (p Pair) Same(other Pair) bool {
	return (p.A == other.A && p.B == other.B) || (p.A == other.B && p.B == other.A)
}

type BattleVoteInput struct {
	VoterID  string
	WinnerID ProfileID
	LoserID  ProfileID
}

type BattleVoteResult struct {
	WinnerVotes int64 `json:"winnerVotes"`
	WinnerScore int64 `json:"winnerScore"`
	LoserLosses int64 `json:"loserLosses"`
}

type ProfileVoteResult struct {
	ChadVotes      int64 `json:"chadVotes"`
	JeetVotes      int64 `json:"jeetVotes"`
	ChadPercentage int   `json:"chadPercentage"`
	JeetPercentage int   `json:"jeetPercentage"`
}

type ProfileCard struct {
	Profile
	ChadPercentage int `json:"chadPercentage"`
	JeetPercentage int `json:"jeetPercentage"`
}

type LeaderboardEntry struct {
	ID       ProfileID `json:"id"`
	Username string    `json:"username"`
	Votes    int64     `json:"votes"`
	Score    int64     `json:"score"`
}

type Stats struct {
	BattleVotes      int64 `json:"battleVotes"`
	BattleVotesToday int64 `json:"battleVotesToday"`
	ChadVotes        int64 `json:"chadVotes"`
	JeetVotes        int64 `json:"jeetVotes"`
}
