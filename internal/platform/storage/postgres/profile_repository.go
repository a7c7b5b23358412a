package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/chad-battle/internal/domain"
)

// ProfileRepository persiste perfis e expõe os incrementos atômicos de chad/jeet.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

type profileModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Username     string    `gorm:"column:username"`
	Handle       string    `gorm:"column:handle"`
	ImageURL     string    `gorm:"column:image_url"`
	Votes        int64     `gorm:"column:votes"`
	Score        int64     `gorm:"column:score"`
	BattleWins   int64     `gorm:"column:battle_wins"`
	BattleLosses int64     `gorm:"column:battle_losses"`
	ChadVotes    int64     `gorm:"column:chad_votes"`
	JeetVotes    int64     `gorm:"column:jeet_votes"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (profileModel) TableName() string {
	return "profiles"
}

func (m profileModel) toDomain() domain.Profile {
	return domain.Profile{
		ID:           domain.ProfileID(m.ID),
		Username:     m.Username,
		Handle:       m.Handle,
		ImageURL:     m.ImageURL,
		Votes:        m.Votes,
		Score:        m.Score,
		BattleWins:   m.BattleWins,
		BattleLosses: m.BattleLosses,
		ChadVotes:    m.ChadVotes,
		JeetVotes:    m.JeetVotes,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func fromDomainProfile(p domain.Profile) profileModel {
	return profileModel{
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

var voteColumns = map[domain.VoteType]string{
	domain.VoteChad: "chad_votes",
	domain.VoteJeet: "jeet_votes",
}

func (r *ProfileRepository) Create(ctx context.Context, p domain.Profile) error {
	model := fromDomainProfile(p)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("gorm profiles: inserir: %w", err)
	}
	return nil
}

func (r *ProfileRepository) FindByID(ctx context.Context, id domain.ProfileID) (domain.Profile, error) {
	var model profileModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Profile{}, domain.ErrNotFound
		}
		return domain.Profile{}, fmt.Errorf("gorm profiles: buscar id: %w", err)
	}
	return model.toDomain(), nil
}

func (r *ProfileRepository) ListIDs(ctx context.Context) ([]domain.ProfileID, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&profileModel{}).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("gorm profiles: listar ids: %w", err)
	}

	result := make([]domain.ProfileID, len(ids))
	for i, id := range ids {
		result[i] = domain.ProfileID(id)
	}
	return result, nil
}

func (r *ProfileRepository) IncrementVote(ctx context.Context, id domain.ProfileID, voteType domain.VoteType, at time.Time) (domain.Profile, error) {
	column, ok := voteColumns[voteType]
	if !ok {
		return domain.Profile{}, fmt.Errorf("gorm profiles: tipo de voto invalido %q", voteType)
	}

	var model profileModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Incremento feito pelo banco; a linha fica bloqueada até o commit, então a leitura abaixo é a nossa.
		res := tx.Model(&profileModel{}).
			Where("id = ?", id).
			UpdateColumns(map[string]any{
				column:       gorm.Expr(column+" + ?", 1),
				"updated_at": at,
			})
		if res.Error != nil {
			return fmt.Errorf("gorm profiles: incrementar %s: %w", column, res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}

		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			return fmt.Errorf("gorm profiles: reler perfil: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Profile{}, err
	}
	return model.toDomain(), nil
}

func (r *ProfileRepository) Leaderboard(ctx context.Context, since time.Time, limit int) ([]domain.Profile, error) {
	query := r.db.WithContext(ctx).Model(&profileModel{})
	if since.IsZero() {
		query = query.Where("EXISTS (SELECT 1 FROM battle_votes bv WHERE bv.winner_id = profiles.id)")
	} else {
		query = query.Where("EXISTS (SELECT 1 FROM battle_votes bv WHERE bv.winner_id = profiles.id AND bv.created_at >= ?)", since)
	}

	var models []profileModel
	if err := query.
		Order("votes DESC").
		Order("score DESC").
		Order("id ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm profiles: leaderboard: %w", err)
	}

	result := make([]domain.Profile, len(models))
	for i, model := range models {
		result[i] = model.toDomain()
	}
	return result, nil
}

var _ domain.ProfileRepository = (*ProfileRepository)(nil)
