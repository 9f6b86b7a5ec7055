// internal/httpserver/metrics.go
//
// Prometheus counters for game activity plus the /metrics endpoint.

package httpserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	gamesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solitaire_games_started_total",
		Help: "Number of games dealt.",
	})
	gamesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solitaire_games_completed_total",
		Help: "Number of games played through frame 10.",
	})
	ballsRolled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solitaire_balls_rolled_total",
		Help: "Number of balls recorded into roll histories.",
	})
)

func (s *Server) mountMetrics() {
	s.r.Handle("/metrics", promhttp.Handler())
}
