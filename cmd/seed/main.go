// Carrega perfis de um arquivo JSON e cria cada um pelo ledger, pulando usernames já cadastrados.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/marcelojr/chad-battle/internal/app/bootstrap"
	"github.com/marcelojr/chad-battle/internal/app/voting"
	"github.com/marcelojr/chad-battle/internal/domain"
	"github.com/marcelojr/chad-battle/internal/platform/clock"
	"github.com/marcelojr/chad-battle/internal/platform/config"
	"github.com/marcelojr/chad-battle/internal/platform/ids"
	"github.com/marcelojr/chad-battle/internal/platform/logger"
)

type seedProfile struct {
	Username string `json:"username"`
	Handle   string `json:"handle"`
	ImageURL string `json:"imageUrl"`
}

func main() {
	file, err := parseFlags(os.Args[1:])
	if err != nil {
		logger.Error("flags invalidas", "err", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	f, err := os.Open(file)
	if err != nil {
		logger.Fatal("falha ao abrir arquivo de perfis", "err", err, "file", file)
	}
	defer f.Close()

	perfis, err := readProfiles(f)
	if err != nil {
		logger.Fatal("arquivo de perfis invalido", "err", err, "file", file)
	}

	stores, err := bootstrap.OpenStores(ctx, cfg, false)
	if err != nil {
		logger.Fatal("falha ao abrir armazenamento", "err", err, "backend", cfg.StorageBackend)
	}
	defer stores.Close(context.Background())

	ledger := voting.NewLedger(stores.Profiles, stores.BattleVotes, nil, nil, clock.NewSystemClock(), ids.NewGenerator(), cfg.DedupWindow())

	criados, pulados, err := seed(ctx, ledger, perfis)
	if err != nil {
		logger.Error("seed interrompido", "err", err, "criados", criados)
		os.Exit(1)
	}
	logger.Info("seed concluido", "criados", criados, "pulados", pulados)
}

func parseFlags(args []string) (string, error) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	file := fs.String("file", "profiles.json", "arquivo JSON com a lista de perfis")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *file == "" {
		return "", errors.New("seed: -file vazio")
	}
	return *file, nil
}

func readProfiles(r io.Reader) ([]seedProfile, error) {
	var perfis []seedProfile
	if err := json.NewDecoder(r).Decode(&perfis); err != nil {
		return nil, fmt.Errorf("seed: decodificar perfis: %w", err)
	}
	return perfis, nil
}

type profileCreator interface {
	CreateProfile(ctx context.Context, p domain.Profile) (domain.Profile, error)
}

func seed(ctx context.Context, ledger profileCreator, perfis []seedProfile) (criados, pulados int, err error) {
	for _, sp := range perfis {
		p, err := ledger.CreateProfile(ctx, domain.Profile{
			Username: sp.Username,
			Handle:   sp.Handle,
			ImageURL: sp.ImageURL,
		})
		switch {
		case errors.Is(err, voting.ErrUsernameTaken), errors.Is(err, voting.ErrInvalidInput):
			logger.Warn("perfil pulado", "username", sp.Username, "err", err)
			pulados++
		case err != nil:
			return criados, pulados, err
		default:
			logger.Info("perfil criado", "id", p.ID, "username", p.Username)
			criados++
		}
	}
	return criados, pulados, nil
}
