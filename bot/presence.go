package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/kaboomlabs/tntlauncher/config"
	"github.com/kaboomlabs/tntlauncher/telemetry"
)

var statuses = []string{
	"playing with TNT 💥",
	"testing TNTLauncher 🚀",
	"exploding servers 🔥",
	"watching the chaos 👀",
}

// PresenceRotator periodically pushes a random themed status string to the
// gateway.
type PresenceRotator struct {
	gateway  Gateway
	rng      randSource
	interval time.Duration
}

func NewPresenceRotator(gw Gateway, rng randSource, interval time.Duration) *PresenceRotator {
	if interval <= 0 {
		interval = config.DefaultPresenceInterval
	}
	return &PresenceRotator{gateway: gw, rng: rng, interval: interval}
}

// Run rotates the presence once immediately and then on every tick until ctx
// is canceled. Each firing is a single synchronous update call; a slow or
// failed update delays the next firing instead of overlapping it.
func (p *PresenceRotator) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	slog.Info("presence rotator started", slog.Duration("interval", p.interval))
	p.rotate()
	for {
		select {
		case <-ctx.Done():
			slog.Info("presence rotator stopped")
			return
		case <-ticker.C:
			p.rotate()
		}
	}
}

func (p *PresenceRotator) rotate() {
	status := statuses[p.rng.Intn(len(statuses))]
	if err := p.gateway.UpdateStatus(status); err != nil {
		telemetry.IncPresenceUpdate(false)
		slog.Warn("presence update failed", slog.Any("err", err))
		return
	}
	telemetry.IncPresenceUpdate(true)
	slog.Debug("presence updated", slog.String("status", status))
}
