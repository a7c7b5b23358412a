// Pacote mongo implementa o ledger sobre MongoDB (document store) como alternativa ao Postgres.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	ProfilesCollection    = "profiles"
	BattleVotesCollection = "battle_votes"
)

// Open conecta e valida o primário. Transações exigem replica set, então a URI deve apontar para um.
func Open(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("mongo: conectar: %w", err)
	}

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctxPing, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping falhou: %w", err)
	}

	return client, nil
}

// EnsureIndexes cria os índices usados por unicidade de username, dedup e leaderboard.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(ProfilesCollection).Indexes().CreateMany(ctx, profileIndexes()); err != nil {
		return fmt.Errorf("mongo profiles: criar indices: %w", err)
	}
	if _, err := db.Collection(BattleVotesCollection).Indexes().CreateMany(ctx, battleVoteIndexes()); err != nil {
		return fmt.Errorf("mongo battle_votes: criar indices: %w", err)
	}
	return nil
}

func profileIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_profiles_username"),
		},
		{
			Keys:    bson.D{{Key: "votes", Value: -1}, {Key: "score", Value: -1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_profiles_ranking"),
		},
	}
}

func battleVoteIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "voter_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_battle_votes_voter_created"),
		},
		{
			Keys:    bson.D{{Key: "winner_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_battle_votes_winner_created"),
		},
	}
}
