package bot

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/kaboomlabs/tntlauncher/config"
	"github.com/kaboomlabs/tntlauncher/ledger"
	"github.com/kaboomlabs/tntlauncher/telemetry"
)

// Bot ties the gateway session to the dispatcher, reactor, and presence
// rotator.
type Bot struct {
	session     *discordgo.Session
	dispatcher  *Dispatcher
	reactor     *Reactor
	rotator     *PresenceRotator
	rotatorOnce sync.Once
}

// New wires a Bot around an authenticated (but not yet opened) session.
func New(session *discordgo.Session, store *ledger.Store, cfg *config.Config) *Bot {
	gw := &DiscordGateway{Session: session}
	rng := newLockedRand()
	return &Bot{
		session:    session,
		dispatcher: NewDispatcher(cfg.Prefix, store, gw, rng),
		reactor:    NewReactor(gw, rng),
		rotator:    NewPresenceRotator(gw, rng, cfg.PresenceInterval),
	}
}

// Start registers the gateway handlers and opens the websocket connection.
// The context bounds the presence rotator; cancel it before Close on shutdown.
func (b *Bot) Start(ctx context.Context) error {
	b.session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("gateway ready", slog.String("user", r.User.Username), slog.Int("guilds", len(r.Guilds)))
		// Ready fires again after reconnects; the rotator starts once.
		b.rotatorOnce.Do(func() {
			go b.rotator.Run(ctx)
		})
	})
	b.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		b.handleMessage(ctx, m)
	})

	return b.session.Open()
}

// Close shuts the gateway connection down.
func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) handleMessage(ctx context.Context, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	telemetry.IncMessagesSeen()
	ctx = telemetry.WithCorrelation(ctx, uuid.New().String())

	req := &Request{
		AuthorID:  m.Author.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
	}
	// Dispatch and reaction are independent checks: only messages that are
	// recognized command invocations skip the reaction roll.
	if b.dispatcher.Dispatch(ctx, req, m.Content) {
		return
	}
	b.reactor.MaybeReact(m.ChannelID)
}
