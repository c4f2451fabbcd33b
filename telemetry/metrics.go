// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	MessagesSeen    prometheus.Counter
	CommandErrors   prometheus.Counter
	UnknownCommands prometheus.Counter
	PointsAwarded   prometheus.Counter
	ReactionsSent   prometheus.Counter
	PresenceUpdates prometheus.Counter
	PresenceFailed  prometheus.Counter

	// Per-command counter
	CommandsProcessed *prometheus.CounterVec

	// Histograms (seconds)
	CommandDuration prometheus.Observer

	// Gauges
	TrackedPlayersGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		MessagesSeen = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_messages_seen_total", Help: "Number of inbound non-bot messages observed"})
		CommandErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_command_errors_total", Help: "Number of command invocations that failed"})
		UnknownCommands = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_unknown_commands_total", Help: "Number of prefixed messages matching no known command"})
		PointsAwarded = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_points_awarded_total", Help: "Total points awarded through the ledger"})
		ReactionsSent = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_reactions_sent_total", Help: "Number of passive reactions sent"})
		PresenceUpdates = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_presence_updates_total", Help: "Number of presence updates pushed"})
		PresenceFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_presence_failures_total", Help: "Number of presence updates rejected by the gateway"})
		CommandsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{Name: "bot_commands_processed_total", Help: "Number of command invocations by keyword"}, []string{"command"})
		CommandDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "bot_command_duration_seconds", Help: "Command handling duration seconds", Buckets: prometheus.DefBuckets})
		TrackedPlayersGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "bot_tracked_players", Help: "Current number of users holding points"})
	})
}

// IncMessagesSeen counts one observed inbound message.
func IncMessagesSeen() {
	if MessagesSeen != nil {
		MessagesSeen.Inc()
	}
}

// IncCommandProcessed counts one handled invocation of the named command.
func IncCommandProcessed(command string) {
	if CommandsProcessed != nil {
		CommandsProcessed.WithLabelValues(command).Inc()
	}
}

// IncCommandError counts one failed command invocation.
func IncCommandError() {
	if CommandErrors != nil {
		CommandErrors.Inc()
	}
}

// IncUnknownCommand counts one prefixed message with no matching keyword.
func IncUnknownCommand() {
	if UnknownCommands != nil {
		UnknownCommands.Inc()
	}
}

// IncReactionSent counts one passive reaction.
func IncReactionSent() {
	if ReactionsSent != nil {
		ReactionsSent.Inc()
	}
}

// IncPresenceUpdate counts one presence rotation attempt.
func IncPresenceUpdate(ok bool) {
	if ok {
		if PresenceUpdates != nil {
			PresenceUpdates.Inc()
		}
		return
	}
	if PresenceFailed != nil {
		PresenceFailed.Inc()
	}
}

// AddPointsAwarded records points granted via the ledger.
func AddPointsAwarded(n int64) {
	if PointsAwarded != nil && n > 0 {
		PointsAwarded.Add(float64(n))
	}
}

// SetTrackedPlayers records the current number of ledger rows.
func SetTrackedPlayers(n int64) {
	if TrackedPlayersGauge != nil {
		TrackedPlayersGauge.Set(float64(n))
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
