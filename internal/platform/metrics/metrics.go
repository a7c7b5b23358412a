package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	voteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chad_battle_vote_requests_total",
		Help: "Total de requisicoes de voto recebidas por tipo e resultado",
	}, []string{"kind", "status"})

	dedupRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chad_battle_dedup_rejected_total",
		Help: "Votos de batalha rejeitados como duplicados, por camada que detectou",
	}, []string{"layer"})

	storeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chad_battle_store_duration_seconds",
		Help:    "Tempo das operacoes do ledger no armazenamento",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

func ObserveVoteRequest(kind, status string) {
	voteRequestsTotal.WithLabelValues(kind, status).Inc()
}

func IncDedupRejected(layer string) {
	dedupRejectedTotal.WithLabelValues(layer).Inc()
}

func ObserveStoreDuration(operation string, seconds float64) {
	storeDuration.WithLabelValues(operation).Observe(seconds)
}
