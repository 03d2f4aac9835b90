package gamification

import "github.com/prometheus/client_golang/prometheus"

var (
	checkinsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mindhaven",
		Subsystem: "gamification",
		Name:      "checkins_total",
		Help:      "Number of first-of-the-day check-ins recorded.",
	})
	pointsAwardedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mindhaven",
		Subsystem: "gamification",
		Name:      "points_awarded_total",
		Help:      "Points paid out through the ledger, by award reason class.",
	}, []string{"reason"})
	badgeUnlocksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mindhaven",
		Subsystem: "gamification",
		Name:      "badge_unlocks_total",
		Help:      "Badges unlocked for the first time.",
	})
	idempotentReplaysTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mindhaven",
		Subsystem: "gamification",
		Name:      "idempotent_replays_total",
		Help:      "Writes short-circuited by a uniqueness conflict and replayed as already-applied.",
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(checkinsTotal, pointsAwardedTotal, badgeUnlocksTotal, idempotentReplaysTotal)
}
