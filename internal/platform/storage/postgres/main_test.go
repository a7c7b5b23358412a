package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/marcelojr/chad-battle/internal/domain"
	"github.com/marcelojr/chad-battle/internal/platform/ids"
)

var baseTime = time.Date(2026, 10, 17, 20, 0, 0, 0, time.UTC)

// setupPostgres usa SQLite em memória com o mesmo schema; uma conexão só, para que todas
// as sessões enxerguem o mesmo banco.
func setupPostgres(t *testing.T) *gorm.DB {
	db, err := OpenDialector(context.Background(), sqlite.Open(":memory:"), Pool{MaxOpen: 1, MaxIdle: 1}, logger.Silent)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)

	err = db.AutoMigrate(&domain.Profile{}, &domain.BattleVote{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

func seedProfiles(t *testing.T, repo *ProfileRepository, gen *ids.Generator, usernames ...string) []domain.Profile {
	t.Helper()

	profiles := make([]domain.Profile, len(usernames))
	for i, username := range usernames {
		p := domain.Profile{
			ID:        gen.NewProfileID(),
			Username:  username,
			Handle:    "@" + username,
			CreatedAt: baseTime,
			UpdatedAt: baseTime,
		}
		require.NoError(t, repo.Create(context.Background(), p))
		profiles[i] = p
	}
	return profiles
}
