package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/marcelojr/chad-battle/internal/domain"
)

// ProfileRepository guarda perfis na coleção profiles; incrementos usam $inc no próprio servidor.
type ProfileRepository struct {
	db *mongo.Database
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{db: db}
}

var voteFields = map[domain.VoteType]string{
	domain.VoteChad: "chad_votes",
	domain.VoteJeet: "jeet_votes",
}

func (r *ProfileRepository) profiles() *mongo.Collection {
	return r.db.Collection(ProfilesCollection)
}

func (r *ProfileRepository) Create(ctx context.Context, p domain.Profile) error {
	_, err := r.profiles().InsertOne(ctx, fromDomainProfile(p))
	// nil check fica dentro de IsDuplicateKeyError
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("mongo profiles: inserir: %w", err)
	}
	return nil
}

func (r *ProfileRepository) FindByID(ctx context.Context, id domain.ProfileID) (domain.Profile, error) {
	var doc profileDocument
	if err := r.profiles().FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Profile{}, domain.ErrNotFound
		}
		return domain.Profile{}, fmt.Errorf("mongo profiles: buscar id: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ProfileRepository) ListIDs(ctx context.Context) ([]domain.ProfileID, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.profiles().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo profiles: listar ids: %w", err)
	}

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo profiles: decodificar ids: %w", err)
	}

	result := make([]domain.ProfileID, len(docs))
	for i, doc := range docs {
		result[i] = domain.ProfileID(doc.ID)
	}
	return result, nil
}

func (r *ProfileRepository) IncrementVote(ctx context.Context, id domain.ProfileID, voteType domain.VoteType, at time.Time) (domain.Profile, error) {
	field, ok := voteFields[voteType]
	if !ok {
		return domain.Profile{}, fmt.Errorf("mongo profiles: tipo de voto invalido %q", voteType)
	}

	update := bson.M{
		"$inc": bson.M{field: 1},
		"$set": bson.M{"updated_at": at},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc profileDocument
	if err := r.profiles().FindOneAndUpdate(ctx, bson.M{"_id": string(id)}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Profile{}, domain.ErrNotFound
		}
		return domain.Profile{}, fmt.Errorf("mongo profiles: incrementar %s: %w", field, err)
	}
	return doc.toDomain(), nil
}

// Leaderboard agrega no servidor: vencedores da janela, junção com profiles, ordenação e limite.
func (r *ProfileRepository) Leaderboard(ctx context.Context, since time.Time, limit int) ([]domain.Profile, error) {
	cursor, err := r.db.Collection(BattleVotesCollection).Aggregate(ctx, leaderboardPipeline(since, limit))
	if err != nil {
		return nil, fmt.Errorf("mongo battle_votes: leaderboard: %w", err)
	}

	var docs []profileDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo profiles: decodificar leaderboard: %w", err)
	}

	result := make([]domain.Profile, len(docs))
	for i, doc := range docs {
		result[i] = doc.toDomain()
	}
	return result, nil
}

func leaderboardPipeline(since time.Time, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: windowFilter(since)}},
		{{Key: "$group", Value: bson.M{"_id": "$winner_id"}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         ProfilesCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "profile",
		}}},
		{{Key: "$unwind", Value: "$profile"}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$profile"}}},
		{{Key: "$sort", Value: bson.D{{Key: "votes", Value: -1}, {Key: "score", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: int64(limit)}},
	}
}

func windowFilter(since time.Time) bson.M {
	if since.IsZero() {
		return bson.M{}
	}
	return bson.M{"created_at": bson.M{"$gte": since}}
}

var _ domain.ProfileRepository = (*ProfileRepository)(nil)
