package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/marcelojr/chad-battle/internal/domain"
)

// BattleVoteRepository aplica o voto de batalha numa transação multi-documento.
// Os dois $inc tocam vencedor e perdedor; transações concorrentes no mesmo par entram em
// write conflict e o driver reexecuta a perdedora, que então encontra o voto e devolve duplicado.
type BattleVoteRepository struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewBattleVoteRepository(client *mongo.Client, db *mongo.Database) *BattleVoteRepository {
	return &BattleVoteRepository{client: client, db: db}
}

func (r *BattleVoteRepository) Apply(ctx context.Context, vote domain.BattleVote, dedupSince time.Time) (domain.BattleVoteResult, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return domain.BattleVoteResult{}, fmt.Errorf("mongo battle_votes: iniciar sessao: %w", err)
	}
	defer session.EndSession(ctx)

	doc := fromDomainBattleVote(vote)
	profiles := r.db.Collection(ProfilesCollection)
	votes := r.db.Collection(BattleVotesCollection)

	out, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		existentes, err := profiles.CountDocuments(sc, bson.M{"_id": bson.M{"$in": bson.A{doc.WinnerID, doc.LoserID}}})
		if err != nil {
			return nil, fmt.Errorf("mongo battle_votes: checar perfis: %w", err)
		}
		if existentes != 2 {
			return nil, domain.ErrNotFound
		}

		duplicados, err := votes.CountDocuments(sc, dedupFilter(doc.VoterID, doc.WinnerID, doc.LoserID, dedupSince))
		if err != nil {
			return nil, fmt.Errorf("mongo battle_votes: checar duplicidade: %w", err)
		}
		if duplicados > 0 {
			return nil, domain.ErrDuplicate
		}

		if _, err := votes.InsertOne(sc, doc); err != nil {
			return nil, fmt.Errorf("mongo battle_votes: inserir: %w", err)
		}

		after := options.FindOneAndUpdate().SetReturnDocument(options.After)

		var winner profileDocument
		if err := profiles.FindOneAndUpdate(sc, bson.M{"_id": doc.WinnerID}, winnerUpdate(doc.CreatedAt), after).Decode(&winner); err != nil {
			return nil, fmt.Errorf("mongo battle_votes: incrementar vencedor: %w", err)
		}

		var loser profileDocument
		if err := profiles.FindOneAndUpdate(sc, bson.M{"_id": doc.LoserID}, loserUpdate(doc.CreatedAt), after).Decode(&loser); err != nil {
			return nil, fmt.Errorf("mongo battle_votes: incrementar perdedor: %w", err)
		}

		return domain.BattleVoteResult{
			WinnerVotes: winner.Votes,
			WinnerScore: winner.Score,
			LoserLosses: loser.BattleLosses,
		}, nil
	})
	if err != nil {
		return domain.BattleVoteResult{}, err
	}

	return out.(domain.BattleVoteResult), nil
}

// dedupFilter casa votos do mesmo eleitor no par não ordenado a partir de since.
func dedupFilter(voterID, winnerID, loserID string, since time.Time) bson.M {
	return bson.M{
		"voter_id":   voterID,
		"created_at": bson.M{"$gte": since},
		"$or": bson.A{
			bson.M{"winner_id": winnerID, "loser_id": loserID},
			bson.M{"winner_id": loserID, "loser_id": winnerID},
		},
	}
}

func winnerUpdate(at time.Time) bson.M {
	return bson.M{
		"$inc": bson.M{"votes": 1, "score": 1, "battle_wins": 1},
		"$set": bson.M{"updated_at": at},
	}
}

func loserUpdate(at time.Time) bson.M {
	return bson.M{
		"$inc": bson.M{"battle_losses": 1},
		"$set": bson.M{"updated_at": at},
	}
}

var _ domain.BattleVoteRepository = (*BattleVoteRepository)(nil)
