// Pacote httpapi expõe os handlers REST e traduz requisições HTTP para o ledger de votos.
package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marcelojr/chad-battle/internal/app/voting"
	"github.com/marcelojr/chad-battle/internal/domain"
)

const (
	HeaderWalletAddress = "X-Wallet-Address"
	HeaderAdminToken    = "X-Admin-Token"
)

// API empacota handlers HTTP ligados ao ledger e ao logger.
type API struct {
	ledger     domain.LedgerService
	logger     *slog.Logger
	adminToken string
}

func New(ledger domain.LedgerService, logger *slog.Logger, adminToken string) *API {
	return &API{ledger: ledger, logger: logger, adminToken: adminToken}
}

func (a *API) Register(r chi.Router) {
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/healthz", a.handleHealthz)
	r.Post("/battle-vote", a.registrarVotoBatalha)
	r.Post("/profile-vote", a.registrarVotoPerfil)
	r.Get("/leaderboard", a.obterLeaderboard)
	r.Get("/random-pair", a.sortearPar)
	r.Get("/stats", a.obterStats)
	r.Get("/profiles/{id}", a.obterPerfil)
	r.With(a.exigirAdmin).Post("/profiles", a.criarPerfil)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type battleVoteRequest struct {
	VoterID  string `json:"voterId"`
	WinnerID string `json:"winnerId"`
	LoserID  string `json:"loserId"`
}

func (a *API) registrarVotoBatalha(w http.ResponseWriter, r *http.Request) {
	var req battleVoteRequest
	if !a.decodificar(w, r, &req) {
		return
	}
	if req.VoterID == "" {
		req.VoterID = r.Header.Get(HeaderWalletAddress)
	}

	res, err := a.ledger.RecordBattleVote(r.Context(), domain.BattleVoteInput{
		VoterID:  req.VoterID,
		WinnerID: domain.ProfileID(req.WinnerID),
		LoserID:  domain.ProfileID(req.LoserID),
	})
	if err != nil {
		a.logger.Warn("falha ao registrar voto de batalha", "err", err, "winner", req.WinnerID, "loser", req.LoserID)
		responderErro(w, err)
		return
	}

	responderJSON(w, http.StatusOK, res)
	a.logger.Info("voto de batalha registrado", "winner", req.WinnerID, "loser", req.LoserID)
}

type profileVoteRequest struct {
	ProfileID string `json:"profileId"`
	VoteType  string `json:"voteType"`
}

func (a *API) registrarVotoPerfil(w http.ResponseWriter, r *http.Request) {
	var req profileVoteRequest
	if !a.decodificar(w, r, &req) {
		return
	}

	res, err := a.ledger.RecordProfileVote(r.Context(), domain.ProfileID(req.ProfileID), domain.VoteType(req.VoteType))
	if err != nil {
		a.logger.Warn("falha ao registrar voto de perfil", "err", err, "profile", req.ProfileID, "voteType", req.VoteType)
		responderErro(w, err)
		return
	}

	responderJSON(w, http.StatusOK, res)
}

func (a *API) obterLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	period := domain.Period(q.Get("period"))
	if period == "" {
		period = domain.PeriodAll
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			responderErro(w, &voting.Error{Kind: voting.KindInvalidInput, Detail: "limit deve ser inteiro"})
			return
		}
		limit = n
	}

	entries, err := a.ledger.Leaderboard(r.Context(), period, limit)
	if err != nil {
		a.logger.Error("erro ao obter leaderboard", "err", err, "period", period)
		responderErro(w, err)
		return
	}

	responderJSON(w, http.StatusOK, entries)
}

func (a *API) sortearPar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	excludeA, excludeB := q.Get("excludeA"), q.Get("excludeB")

	var exclude *domain.Pair
	switch {
	case excludeA != "" && excludeB != "":
		exclude = &domain.Pair{A: domain.ProfileID(excludeA), B: domain.ProfileID(excludeB)}
	case excludeA != "" || excludeB != "":
		responderErro(w, &voting.Error{Kind: voting.KindInvalidInput, Detail: "excludeA e excludeB devem vir juntos"})
		return
	}

	pair, err := a.ledger.RandomPair(r.Context(), exclude)
	if err != nil {
		a.logger.Error("erro ao sortear par", "err", err)
		responderErro(w, err)
		return
	}

	responderJSON(w, http.StatusOK, pair)
}

func (a *API) obterPerfil(w http.ResponseWriter, r *http.Request) {
	id := domain.ProfileID(chi.URLParam(r, "id"))

	card, err := a.ledger.Profile(r.Context(), id)
	if err != nil {
		responderErro(w, err)
		return
	}

	responderJSON(w, http.StatusOK, card)
}

type createProfileRequest struct {
	Username string `json:"username"`
	Handle   string `json:"handle"`
	ImageURL string `json:"imageUrl"`
}

func (a *API) criarPerfil(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if !a.decodificar(w, r, &req) {
		return
	}

	p, err := a.ledger.CreateProfile(r.Context(), domain.Profile{
		Username: req.Username,
		Handle:   req.Handle,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		a.logger.Warn("falha ao criar perfil", "err", err, "username", req.Username)
		responderErro(w, err)
		return
	}

	responderJSON(w, http.StatusCreated, p)
	a.logger.Info("perfil criado", "id", p.ID, "username", p.Username)
}

func (a *API) obterStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.ledger.Stats(r.Context())
	if err != nil {
		a.logger.Error("erro ao obter stats", "err", err)
		responderErro(w, err)
		return
	}

	responderJSON(w, http.StatusOK, stats)
}

// exigirAdmin bloqueia a rota quando o token não confere; sem ADMIN_TOKEN configurado a rota fica fechada.
func (a *API) exigirAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get(HeaderAdminToken))
		if a.adminToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(a.adminToken)) != 1 {
			responderJSON(w, http.StatusUnauthorized, errorBody{Kind: "Unauthorized", Detail: "token de admin invalido"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) decodificar(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.logger.Warn("payload invalido", "err", err, "path", r.URL.Path)
		responderErro(w, &voting.Error{Kind: voting.KindInvalidInput, Detail: "payload invalido"})
		return false
	}
	return true
}

type errorBody struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

func responderJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// responderErro nunca expõe a causa interna; só o kind e o detalhe do ledger.
func responderErro(w http.ResponseWriter, err error) {
	var e *voting.Error
	if !errors.As(err, &e) {
		responderJSON(w, http.StatusInternalServerError, errorBody{Kind: "Internal"})
		return
	}
	responderJSON(w, statusFromKind(e.Kind), errorBody{Kind: string(e.Kind), Detail: e.Detail})
}

func statusFromKind(kind voting.Kind) int {
	switch kind {
	case voting.KindProfileNotFound:
		return http.StatusNotFound
	case voting.KindSameProfile, voting.KindInvalidInput:
		return http.StatusBadRequest
	case voting.KindDuplicateVote, voting.KindUsernameTaken, voting.KindNotEnoughProfiles:
		return http.StatusConflict
	case voting.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
