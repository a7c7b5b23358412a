package mongo

import (
	"time"

	"github.com/marcelojr/chad-battle/internal/domain"
)

type profileDocument struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	Handle       string    `bson:"handle"`
	ImageURL     string    `bson:"image_url,omitempty"`
	Votes        int64     `bson:"votes"`
	Score        int64     `bson:"score"`
	BattleWins   int64     `bson:"battle_wins"`
	BattleLosses int64     `bson:"battle_losses"`
	ChadVotes    int64     `bson:"chad_votes"`
	JeetVotes    int64     `bson:"jeet_votes"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d profileDocument) toDomain() domain.Profile {
	return domain.Profile{
		ID:           domain.ProfileID(d.ID),
		Username:     d.Username,
		Handle:       d.Handle,
		ImageURL:     d.ImageURL,
		Votes:        d.Votes,
		Score:        d.Score,
		BattleWins:   d.BattleWins,
		BattleLosses: d.BattleLosses,
		ChadVotes:    d.ChadVotes,
		JeetVotes:    d.JeetVotes,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func fromDomainProfile(p domain.Profile) profileDocument {
	return profileDocument{
		ID:           string(p.ID),
		Username:     p.Username,
		Handle:       p.Handle,
		ImageURL:     p.ImageURL,
		Votes:        p.Votes,
		Score:        p.Score,
		BattleWins:   p.BattleWins,
		BattleLosses: p.BattleLosses,
		ChadVotes:    p.ChadVotes,
		JeetVotes:    p.JeetVotes,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

type battleVoteDocument struct {
	ID        string    `bson:"_id"`
	VoterID   string    `bson:"voter_id"`
	WinnerID  string    `bson:"winner_id"`
	LoserID   string    `bson:"loser_id"`
	CreatedAt time.Time `bson:"created_at"`
}

func fromDomainBattleVote(v domain.BattleVote) battleVoteDocument {
	return battleVoteDocument{
		ID:        string(v.ID),
		VoterID:   v.VoterID,
		WinnerID:  string(v.WinnerID),
		LoserID:   string(v.LoserID),
		CreatedAt: v.CreatedAt,
	}
}
