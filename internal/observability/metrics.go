// Package observability provides Prometheus metrics and OpenTelemetry tracing
// for the application.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// SignupsTotal counts successful account creations.
	SignupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warbler_signups_total",
		Help: "Total number of successful signups",
	})

	// LoginAttempts counts login attempts by result.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_login_attempts_total",
		Help: "Total number of login attempts by result",
	}, []string{"result"})

	// LikeToggles counts like toggle operations by direction.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_like_toggles_total",
		Help: "Total number of like toggles by direction",
	}, []string{"direction"})

	// FollowEvents counts follow graph mutations by action.
	FollowEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_follow_events_total",
		Help: "Total number of follow/unfollow events",
	}, []string{"action"})

	// SessionResolutions counts session token resolutions by outcome.
	SessionResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_session_resolutions_total",
		Help: "Total number of session token resolutions by outcome",
	}, []string{"outcome"})
)
