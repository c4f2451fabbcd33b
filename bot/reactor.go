package bot

import (
	"log/slog"

	"github.com/kaboomlabs/tntlauncher/telemetry"
)

// reactionChance is the probability of reacting to any one non-command message.
const reactionChance = 0.02

var reactions = []string{"💥", "🔥", "👀", "Boom!", "Kaboom!"}

// Reactor occasionally drops a themed reaction into busy channels.
type Reactor struct {
	gateway Gateway
	rng     randSource
}

func NewReactor(gw Gateway, rng randSource) *Reactor {
	return &Reactor{gateway: gw, rng: rng}
}

// MaybeReact rolls the reaction chance for one inbound message and, on a hit,
// sends one random reaction to the message's channel. It reports whether a
// reaction was sent. Send failures are logged and dropped.
func (r *Reactor) MaybeReact(channelID string) bool {
	if r.rng.Float64() >= reactionChance {
		return false
	}
	line := reactions[r.rng.Intn(len(reactions))]
	if err := r.gateway.SendMessage(channelID, line); err != nil {
		slog.Warn("reaction send failed", slog.String("channel", channelID), slog.Any("err", err))
		return false
	}
	telemetry.IncReactionSent()
	return true
}
