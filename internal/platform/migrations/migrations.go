// Pacote migrations centraliza as versões gormigrate aplicadas na inicialização.
package migrations

import (
	"errors"
	"fmt"

	gormigrate "github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/marcelojr/chad-battle/internal/domain"
)

const (
	VersionProfiles    = "202610010001_profiles"
	VersionBattleVotes = "202610010002_battle_votes"
)

var errNilDB = errors.New("migrations: db nulo")

// versions segue a ordem de aplicação; nunca reordene nem edite uma versão já publicada.
func versions() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: VersionProfiles,
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&domain.Profile{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(domain.Profile{}.TableName())
			},
		},
		{
			// (voter_id, created_at) atende a deduplicação; (winner_id, created_at) o leaderboard.
			ID: VersionBattleVotes,
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&domain.BattleVote{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(domain.BattleVote{}.TableName())
			},
		},
	}
}

func Run(db *gorm.DB) error {
	if db == nil {
		return errNilDB
	}
	if err := gormigrate.New(db, gormigrate.DefaultOptions, versions()).Migrate(); err != nil {
		return fmt.Errorf("migrations: falha ao aplicar: %w", err)
	}
	return nil
}

// RollbackTo desfaz as versões posteriores a id, mantendo id aplicada.
func RollbackTo(db *gorm.DB, id string) error {
	if db == nil {
		return errNilDB
	}
	if err := gormigrate.New(db, gormigrate.DefaultOptions, versions()).RollbackTo(id); err != nil {
		return fmt.Errorf("migrations: falha ao desfazer ate %s: %w", id, err)
	}
	return nil
}
