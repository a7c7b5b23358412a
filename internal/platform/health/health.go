// Pacote health expõe o readiness do processo checando cada armazenamento configurado.
package health

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Pinger func(ctx context.Context) error

type check struct {
	name string
	ping Pinger
}

// Checker executa as checagens na ordem em que foram registradas e para na primeira falha.
type Checker struct {
	checks  []check
	timeout time.Duration
}

func NewChecker() *Checker {
	return &Checker{timeout: 2 * time.Second}
}

func (c *Checker) Add(name string, ping Pinger) *Checker {
	if ping != nil {
		c.checks = append(c.checks, check{name: name, ping: ping})
	}
	return c
}

func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		defer cancel()

		for _, ch := range c.checks {
			if err := ch.ping(ctx); err != nil {
				http.Error(w, fmt.Sprintf("%s unavailable", ch.name), http.StatusServiceUnavailable)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func SQLPinger(db *sql.DB) Pinger {
	if db == nil {
		return nil
	}
	return db.PingContext
}

func RedisPinger(client *redis.Client) Pinger {
	if client == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

func MongoPinger(client *mongo.Client) Pinger {
	if client == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}
}
