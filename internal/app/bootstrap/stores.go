// Pacote bootstrap abre os armazenamentos escolhidos na configuração e devolve os repositórios prontos.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/chad-battle/internal/domain"
	"github.com/marcelojr/chad-battle/internal/platform/antifraude"
	"github.com/marcelojr/chad-battle/internal/platform/config"
	"github.com/marcelojr/chad-battle/internal/platform/health"
	"github.com/marcelojr/chad-battle/internal/platform/logger"
	"github.com/marcelojr/chad-battle/internal/platform/migrations"
	mongostorage "github.com/marcelojr/chad-battle/internal/platform/storage/mongo"
	postgresstorage "github.com/marcelojr/chad-battle/internal/platform/storage/postgres"
	redisstorage "github.com/marcelojr/chad-battle/internal/platform/storage/redis"
)

// tallyDailyTTL mantém a chave do dia por mais um dia para leituras atrasadas.
const tallyDailyTTL = 48 * time.Hour

type Stores struct {
	Profiles    domain.ProfileRepository
	BattleVotes domain.BattleVoteRepository
	Guard       domain.DedupGuard
	Tally       domain.Tally
	Checker     *health.Checker

	closers []func(context.Context) error
}

// OpenStores conecta no backend configurado (postgres ou mongo). Redis é opcional:
// sem ele o ledger segue sem guarda de duplicidade e sem contadores.
func OpenStores(ctx context.Context, cfg config.Config, withRedis bool) (*Stores, error) {
	s := &Stores{Checker: health.NewChecker()}

	switch cfg.StorageBackend {
	case config.BackendMongo:
		if err := s.openMongo(ctx, cfg); err != nil {
			s.Close(ctx)
			return nil, err
		}
	default:
		if err := s.openPostgres(ctx, cfg); err != nil {
			s.Close(ctx)
			return nil, err
		}
	}

	if withRedis {
		s.openRedis(ctx, cfg)
	}

	return s, nil
}

func (s *Stores) openPostgres(ctx context.Context, cfg config.Config) error {
	db, err := postgresstorage.Open(ctx, cfg.PostgresDSN())
	if err != nil {
		return fmt.Errorf("bootstrap: conectar no postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("bootstrap: resgatar sql.DB: %w", err)
	}
	s.closers = append(s.closers, func(context.Context) error { return sqlDB.Close() })

	if cfg.AutoMigrate {
		if err := migrations.Run(db); err != nil {
			return fmt.Errorf("bootstrap: migracao automatica: %w", err)
		}
	}

	s.Profiles = postgresstorage.NewProfileRepository(db)
	s.BattleVotes = postgresstorage.NewBattleVoteRepository(db)
	s.Checker.Add("postgres", health.SQLPinger(sqlDB))
	return nil
}

func (s *Stores) openMongo(ctx context.Context, cfg config.Config) error {
	client, err := mongostorage.Open(ctx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("bootstrap: conectar no mongo: %w", err)
	}
	s.closers = append(s.closers, client.Disconnect)

	db := client.Database(cfg.MongoDatabase)
	if cfg.AutoMigrate {
		if err := mongostorage.EnsureIndexes(ctx, db); err != nil {
			return fmt.Errorf("bootstrap: criar indices: %w", err)
		}
	}

	s.Profiles = mongostorage.NewProfileRepository(db)
	s.BattleVotes = mongostorage.NewBattleVoteRepository(client, db)
	s.Checker.Add("mongo", health.MongoPinger(client))
	return nil
}

func (s *Stores) openRedis(ctx context.Context, cfg config.Config) {
	client, err := redisstorage.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("redis indisponivel, seguindo sem guarda e contadores", "err", err)
		return
	}
	s.closers = append(s.closers, func(context.Context) error { return client.Close() })

	s.Tally = redisstorage.NewTally(client, cfg.TallyKeyPrefix, tallyDailyTTL)
	s.Guard = guardFor(cfg, client)
	s.Checker.Add("redis", health.RedisPinger(client))
}

func guardFor(cfg config.Config, client *redis.Client) domain.DedupGuard {
	if !cfg.DedupEnabled {
		return antifraude.NewNoop()
	}
	return antifraude.NewPairGuard(client, cfg.DedupWindow(), cfg.DedupKeyPrefix)
}

// Close fecha as conexões na ordem inversa da abertura.
func (s *Stores) Close(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			logger.Warn("erro ao fechar conexao", "err", err)
		}
	}
	s.closers = nil
}
