// Executável principal da API: carrega a configuração, abre os armazenamentos e sobe o servidor HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcelojr/chad-battle/internal/app/bootstrap"
	"github.com/marcelojr/chad-battle/internal/app/httpapi"
	"github.com/marcelojr/chad-battle/internal/app/voting"
	"github.com/marcelojr/chad-battle/internal/platform/clock"
	"github.com/marcelojr/chad-battle/internal/platform/config"
	"github.com/marcelojr/chad-battle/internal/platform/ids"
	"github.com/marcelojr/chad-battle/internal/platform/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	stores, err := bootstrap.OpenStores(ctx, cfg, true)
	if err != nil {
		logger.Fatal("falha ao abrir armazenamento", "err", err, "backend", cfg.StorageBackend)
	}
	defer stores.Close(context.Background())

	ledger := voting.NewLedger(
		stores.Profiles,
		stores.BattleVotes,
		stores.Guard,
		stores.Tally,
		clock.NewSystemClock(),
		ids.NewGenerator(),
		cfg.DedupWindow(),
	)

	router := chi.NewRouter()
	httpapi.New(ledger, logger.L(), cfg.AdminToken).Register(router)
	router.Get("/readyz", stores.Checker.ReadyHandler())
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("api ouvindo", "addr", cfg.HTTPAddress, "backend", cfg.StorageBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("erro no servidor", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("encerrando api")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("erro ao encerrar servidor", "err", err)
	}
}
