package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/kaboomlabs/tntlauncher/ledger"
	"github.com/kaboomlabs/tntlauncher/telemetry"
)

// Ledger is the slice of the point store the command handlers need.
// *ledger.Store satisfies it.
type Ledger interface {
	Award(ctx context.Context, userID, amount int64) error
	Balance(ctx context.Context, userID int64) (int64, error)
	Top(ctx context.Context, n int) ([]ledger.Entry, error)
}

// Request carries the structured context of one command invocation.
type Request struct {
	AuthorID  string
	GuildID   string
	ChannelID string
	// Arg is the raw text following the keyword, trimmed. Empty when the
	// command was invoked bare.
	Arg string
}

// HandlerFunc executes one command and returns the reply text.
type HandlerFunc func(ctx context.Context, req *Request) (string, error)

// usageError marks an invalid-argument failure whose message is shown to the
// user verbatim. No state has been mutated when one is returned.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

const failureReply = "💥 Something blew up on my end, try again later."

// Dispatcher routes prefixed text commands to their handlers.
type Dispatcher struct {
	prefix   string
	ledger   Ledger
	gateway  Gateway
	rng      randSource
	handlers map[string]HandlerFunc
}

func NewDispatcher(prefix string, l Ledger, gw Gateway, rng randSource) *Dispatcher {
	d := &Dispatcher{
		prefix:  prefix,
		ledger:  l,
		gateway: gw,
		rng:     rng,
	}
	d.handlers = map[string]HandlerFunc{
		"ping":    d.handlePing,
		"say":     d.handleSay,
		"tntdrop": d.handleTNTDrop,
		"balance": d.handleBalance,
		"top":     d.handleTop,
		"ignite":  d.handleIgnite,
	}
	return d
}

// Dispatch runs the handler matching content, if any, and sends the reply.
// It reports whether content was a recognized command invocation; messages
// without the prefix or with an unknown keyword are non-matches, not errors.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request, content string) bool {
	if !strings.HasPrefix(content, d.prefix) {
		return false
	}
	keyword, rest, _ := strings.Cut(strings.TrimPrefix(content, d.prefix), " ")
	handler, ok := d.handlers[keyword]
	if !ok {
		telemetry.IncUnknownCommand()
		return false
	}
	req.Arg = strings.TrimSpace(rest)

	log := telemetry.LoggerWithCorr(ctx).With(slog.String("command", keyword))
	telemetry.IncCommandProcessed(keyword)

	var reply string
	var err error
	telemetry.TimeFunc(telemetry.CommandDuration, func() {
		reply, err = handler(ctx, req)
	})
	if err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			reply = ue.msg
		} else {
			telemetry.IncCommandError()
			log.Error("command failed", slog.Any("err", err))
			reply = failureReply
		}
	}
	if reply != "" {
		if sendErr := d.gateway.SendMessage(req.ChannelID, reply); sendErr != nil {
			log.Error("reply send failed", slog.Any("err", sendErr))
		}
	}
	return true
}

func (d *Dispatcher) handlePing(ctx context.Context, req *Request) (string, error) {
	return "Pong!", nil
}

func (d *Dispatcher) handleSay(ctx context.Context, req *Request) (string, error) {
	if req.Arg == "" {
		return "", usagef("Usage: %ssay <message>", d.prefix)
	}
	return req.Arg, nil
}

func (d *Dispatcher) handleTNTDrop(ctx context.Context, req *Request) (string, error) {
	members, err := d.gateway.Members(req.GuildID)
	if err != nil {
		return "", fmt.Errorf("tntdrop roster: %w", err)
	}
	players := make([]Member, 0, len(members))
	for _, m := range members {
		if !m.Bot {
			players = append(players, m)
		}
	}
	if len(players) == 0 {
		return "No players found!", nil
	}
	victim := players[d.rng.Intn(len(players))]
	amount := int64(1 + d.rng.Intn(5))
	if err := d.award(ctx, victim.ID, amount); err != nil {
		return "", err
	}
	return fmt.Sprintf("💥 TNT dropped on %s! They gained %d points!", mention(victim.ID), amount), nil
}

func (d *Dispatcher) handleBalance(ctx context.Context, req *Request) (string, error) {
	userID, err := parseUserID(req.AuthorID)
	if err != nil {
		return "", err
	}
	points, err := d.ledger.Balance(ctx, userID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s, you have %d TNT points 💣", mention(req.AuthorID), points), nil
}

func (d *Dispatcher) handleTop(ctx context.Context, req *Request) (string, error) {
	entries, err := d.ledger.Top(ctx, ledger.DefaultTopN)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("**🏆 TNTLauncher Leaderboard 🏆**\n")
	rank := 1
	for _, e := range entries {
		// Users who left the server since earning points are skipped;
		// the remaining ranking still renders.
		m, err := d.gateway.Member(req.GuildID, strconv.FormatInt(e.UserID, 10))
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "%d. %s: %d points\n", rank, m.DisplayName, e.Points)
		rank++
	}
	return b.String(), nil
}

func (d *Dispatcher) handleIgnite(ctx context.Context, req *Request) (string, error) {
	if req.Arg == "" {
		return "", usagef("Usage: %signite <member>", d.prefix)
	}
	targetID, ok := parseMemberRef(req.Arg)
	if !ok {
		return "", usagef("I don't know who %q is — mention a member of this server.", req.Arg)
	}
	target, err := d.gateway.Member(req.GuildID, targetID)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return "", usagef("I don't know who %q is — mention a member of this server.", req.Arg)
		}
		return "", fmt.Errorf("ignite lookup: %w", err)
	}
	if err := d.award(ctx, target.ID, 1); err != nil {
		return "", err
	}
	return fmt.Sprintf("💥 %s got ignited by %s!", mention(target.ID), mention(req.AuthorID)), nil
}

func (d *Dispatcher) award(ctx context.Context, memberID string, amount int64) error {
	userID, err := parseUserID(memberID)
	if err != nil {
		return err
	}
	if err := d.ledger.Award(ctx, userID, amount); err != nil {
		return err
	}
	telemetry.AddPointsAwarded(amount)
	return nil
}

// parseUserID converts a platform snowflake into the ledger's integer key.
func parseUserID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed user id %q: %w", id, err)
	}
	return n, nil
}

// parseMemberRef accepts a mention (<@id> or <@!id>) or a bare numeric id and
// returns the referenced user id.
func parseMemberRef(ref string) (string, bool) {
	if strings.HasPrefix(ref, "<@") && strings.HasSuffix(ref, ">") {
		ref = strings.TrimSuffix(strings.TrimPrefix(ref, "<@"), ">")
		ref = strings.TrimPrefix(ref, "!")
	}
	if ref == "" {
		return "", false
	}
	for _, r := range ref {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return ref, true
}
