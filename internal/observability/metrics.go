package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// VotesTotal counts vote mutations by kind (upvote, downvote) and action (apply, undo).
	VotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_votes_total",
		Help: "Total number of vote mutations",
	}, []string{"kind", "action"})

	// VoteRejections counts vote mutations rejected by state checks.
	VoteRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_vote_rejections_total",
		Help: "Total number of rejected vote mutations by reason code",
	}, []string{"code"})

	// NotificationsPushed counts notification frames written to sockets.
	NotificationsPushed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_notifications_pushed_total",
		Help: "Total number of notification frames pushed to clients",
	}, []string{"message_type"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agora_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// CacheLookups counts cache-aside lookups by key prefix and result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_cache_lookups_total",
		Help: "Cache lookups by prefix and result (hit, miss)",
	}, []string{"prefix", "result"})
)
