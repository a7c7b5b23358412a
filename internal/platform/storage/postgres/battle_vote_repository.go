package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/chad-battle/internal/domain"
)

// BattleVoteRepository grava votos de batalha e aplica os contadores dos dois perfis na mesma transação.
type BattleVoteRepository struct {
	db *gorm.DB
}

func NewBattleVoteRepository(db *gorm.DB) *BattleVoteRepository {
	return &BattleVoteRepository{db: db}
}

type battleVoteModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	VoterID   string    `gorm:"column:voter_id"`
	WinnerID  string    `gorm:"column:winner_id"`
	LoserID   string    `gorm:"column:loser_id"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (battleVoteModel) TableName() string {
	return "battle_votes"
}

func fromDomainBattleVote(v domain.BattleVote) battleVoteModel {
	return battleVoteModel{
		ID:        string(v.ID),
		VoterID:   v.VoterID,
		WinnerID:  string(v.WinnerID),
		LoserID:   string(v.LoserID),
		CreatedAt: v.CreatedAt,
	}
}

func (r *BattleVoteRepository) Apply(ctx context.Context, vote domain.BattleVote, dedupSince time.Time) (domain.BattleVoteResult, error) {
	var result domain.BattleVoteResult
	model := fromDomainBattleVote(vote)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Travamos os dois perfis sempre na mesma ordem: votos concorrentes no mesmo par
		// serializam aqui, o que torna a checagem de duplicidade abaixo atômica.
		ids := []string{model.WinnerID, model.LoserID}
		sort.Strings(ids)

		var locked []profileModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", ids).
			Order("id ASC").
			Find(&locked).Error; err != nil {
			return fmt.Errorf("gorm battle_votes: travar perfis: %w", err)
		}
		if len(locked) != 2 {
			return domain.ErrNotFound
		}

		var duplicados int64
		if err := tx.Model(&battleVoteModel{}).
			Where("voter_id = ? AND created_at >= ?", model.VoterID, dedupSince).
			Where("(winner_id = ? AND loser_id = ?) OR (winner_id = ? AND loser_id = ?)",
				model.WinnerID, model.LoserID, model.LoserID, model.WinnerID).
			Count(&duplicados).Error; err != nil {
			return fmt.Errorf("gorm battle_votes: checar duplicidade: %w", err)
		}
		if duplicados > 0 {
			return domain.ErrDuplicate
		}

		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("gorm battle_votes: inserir: %w", err)
		}

		if err := tx.Model(&profileModel{}).
			Where("id = ?", model.WinnerID).
			UpdateColumns(map[string]any{
				"votes":       gorm.Expr("votes + ?", 1),
				"score":       gorm.Expr("score + ?", 1),
				"battle_wins": gorm.Expr("battle_wins + ?", 1),
				"updated_at":  model.CreatedAt,
			}).Error; err != nil {
			return fmt.Errorf("gorm battle_votes: incrementar vencedor: %w", err)
		}

		if err := tx.Model(&profileModel{}).
			Where("id = ?", model.LoserID).
			UpdateColumns(map[string]any{
				"battle_losses": gorm.Expr("battle_losses + ?", 1),
				"updated_at":    model.CreatedAt,
			}).Error; err != nil {
			return fmt.Errorf("gorm battle_votes: incrementar perdedor: %w", err)
		}

		var winner, loser profileModel
		if err := tx.First(&winner, "id = ?", model.WinnerID).Error; err != nil {
			return fmt.Errorf("gorm battle_votes: reler vencedor: %w", err)
		}
		if err := tx.First(&loser, "id = ?", model.LoserID).Error; err != nil {
			return fmt.Errorf("gorm battle_votes: reler perdedor: %w", err)
		}

		result = domain.BattleVoteResult{
			WinnerVotes: winner.Votes,
			WinnerScore: winner.Score,
			LoserLosses: loser.BattleLosses,
		}
		return nil
	})
	if err != nil {
		return domain.BattleVoteResult{}, err
	}

	return result, nil
}

var _ domain.BattleVoteRepository = (*BattleVoteRepository)(nil)
