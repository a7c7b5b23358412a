// Pacote config centraliza o carregamento das variáveis de ambiente usadas pelos binários.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config agrega todos os parâmetros necessários para a API e o seed.
type Config struct {
	HTTPAddress string
	LogLevel    string

	StorageBackend string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DedupEnabled       bool
	DedupWindowSeconds int
	DedupKeyPrefix     string
	TallyKeyPrefix     string

	AutoMigrate bool
	AdminToken  string
}

func Load() (Config, error) {
	var env envReader

	// Defaults priorizam execução local; variáveis permitem sobrescrever em Docker/K8s.
	cfg := Config{
		HTTPAddress:        env.str("HTTP_ADDRESS", ":8080"),
		LogLevel:           env.str("LOG_LEVEL", "info"),
		StorageBackend:     env.str("STORAGE_BACKEND", BackendPostgres),
		PostgresHost:       env.str("POSTGRES_HOST", "localhost"),
		PostgresPort:       env.str("POSTGRES_PORT", "5432"),
		PostgresUser:       env.str("POSTGRES_USER", "battle"),
		PostgresPassword:   env.str("POSTGRES_PASSWORD", "battle"),
		PostgresDB:         env.str("POSTGRES_DB", "chad_battle"),
		PostgresSSLMode:    env.str("POSTGRES_SSLMODE", "disable"),
		MongoURI:           env.str("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDatabase:      env.str("MONGO_DB", "chad_battle"),
		RedisAddr:          env.str("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            env.asInt("REDIS_DB", 0),
		DedupEnabled:       env.asBool("DEDUP_ENABLED", true),
		DedupWindowSeconds: env.asInt("DEDUP_WINDOW_SECONDS", 60),
		DedupKeyPrefix:     env.str("DEDUP_KEY_PREFIX", "dedup"),
		TallyKeyPrefix:     env.str("TALLY_KEY_PREFIX", "tally"),
		AutoMigrate:        env.asBool("DB_AUTO_MIGRATE", true),
		AdminToken:         os.Getenv("ADMIN_TOKEN"),
	}

	switch cfg.StorageBackend {
	case BackendPostgres, BackendMongo:
	default:
		env.fail(fmt.Errorf("STORAGE_BACKEND invalido: %q", cfg.StorageBackend))
	}
	if cfg.DedupWindowSeconds <= 0 {
		env.fail(fmt.Errorf("DEDUP_WINDOW_SECONDS deve ser positivo, veio %d", cfg.DedupWindowSeconds))
	}

	if err := env.err(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c Config) DedupWindow() time.Duration {
	return time.Duration(c.DedupWindowSeconds) * time.Second
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresSSLMode,
	)
}

// envReader lê variáveis com default e acumula os valores que não convertem.
type envReader struct {
	errs []error
}

func (e *envReader) str(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (e *envReader) asInt(key string, fallback int) int {
	v := e.str(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(fmt.Errorf("%s invalido: %w", key, err))
		return fallback
	}
	return n
}

func (e *envReader) asBool(key string, fallback bool) bool {
	v := e.str(key, "")
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "no", "off":
		return false
	case "yes", "on":
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(fmt.Errorf("%s invalido: %w", key, err))
		return fallback
	}
	return b
}

func (e *envReader) fail(err error) {
	e.errs = append(e.errs, err)
}

func (e *envReader) err() error {
	return errors.Join(e.errs...)
}
