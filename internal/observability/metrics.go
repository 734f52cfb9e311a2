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

	// CacheLookups counts cache-aside lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_cache_lookups_total",
		Help: "Total number of cache lookups by result",
	}, []string{"result"})

	// RelationTransitions counts follow and like state changes by outcome.
	RelationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_relation_transitions_total",
		Help: "Follow/like state transitions by action and outcome",
	}, []string{"action", "outcome"})

	// NotificationsCreated counts notifications written by verb.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_notifications_created_total",
		Help: "Total number of notifications created",
	}, []string{"verb"})

	// PermissionDenials counts rejected permission checks by error code.
	PermissionDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_permission_denials_total",
		Help: "Total number of requests denied by a permission predicate",
	}, []string{"code"})

	// RateLimitRejections counts requests rejected by the rate limiter.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_rate_limit_rejections_total",
		Help: "Total number of requests rejected by rate limiting",
	}, []string{"resource", "store"})

	// WebSocketConnectionsTotal is the gauge of active WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agora_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped because a client send buffer was full.
	WebSocketBackpressureDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agora_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	})
)

// RecordTransition increments RelationTransitions for action ("follow",
// "unfollow", "like", "unlike") with outcome "ok" or the error code.
func RecordTransition(action, outcome string) {
	RelationTransitions.WithLabelValues(action, outcome).Inc()
}
