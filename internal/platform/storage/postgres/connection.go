// Pacote postgres implementa a camada de persistência relacional do ledger via GORM.
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Pool limita o database/sql por baixo do GORM.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

var DefaultPool = Pool{
	MaxOpen:     25,
	MaxIdle:     25,
	MaxIdleTime: 5 * time.Minute,
	MaxLifetime: time.Hour,
}

func Open(ctx context.Context, dsn string) (*gorm.DB, error) {
	return OpenDialector(ctx, postgres.Open(dsn), DefaultPool, logger.Warn)
}

// OpenDialector aceita qualquer dialeto do GORM; os testes passam SQLite em memória.
// TranslateError fica sempre ligado para que unicidade vire gorm.ErrDuplicatedKey.
func OpenDialector(ctx context.Context, dialector gorm.Dialector, pool Pool, level logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("gorm %s: abrir conexao: %w", dialector.Name(), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm %s: obter sql.DB: %w", dialector.Name(), err)
	}
	sqlDB.SetMaxOpenConns(pool.MaxOpen)
	sqlDB.SetMaxIdleConns(pool.MaxIdle)
	sqlDB.SetConnMaxIdleTime(pool.MaxIdleTime)
	sqlDB.SetConnMaxLifetime(pool.MaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("gorm %s: ping falhou: %w", dialector.Name(), err)
	}

	return db, nil
}
