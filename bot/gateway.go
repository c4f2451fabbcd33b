package bot

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// ErrMemberNotFound reports that a member reference did not resolve to a
// current member of the guild.
var ErrMemberNotFound = errors.New("member not found")

// Member is the slice of roster data command handlers care about.
type Member struct {
	ID          string
	DisplayName string
	Bot         bool
}

// Gateway abstracts the discordgo session operations used by the bot.
// *discordgo.Session is wrapped by DiscordGateway; tests substitute a fake.
type Gateway interface {
	SendMessage(channelID, content string) error
	Member(guildID, userID string) (*Member, error)
	Members(guildID string) ([]Member, error)
	UpdateStatus(text string) error
}

// DiscordGateway adapts a discordgo session to the Gateway interface.
// Roster lookups prefer the session state cache and fall back to the REST API.
type DiscordGateway struct {
	Session *discordgo.Session
}

var _ Gateway = (*DiscordGateway)(nil)

func (g *DiscordGateway) SendMessage(channelID, content string) error {
	_, err := g.Session.ChannelMessageSend(channelID, content)
	return err
}

func (g *DiscordGateway) Member(guildID, userID string) (*Member, error) {
	if m, err := g.Session.State.Member(guildID, userID); err == nil {
		return toMember(m), nil
	}
	m, err := g.Session.GuildMember(guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("member %s in guild %s: %w", userID, guildID, ErrMemberNotFound)
	}
	return toMember(m), nil
}

func (g *DiscordGateway) Members(guildID string) ([]Member, error) {
	if guild, err := g.Session.State.Guild(guildID); err == nil && len(guild.Members) > 0 {
		out := make([]Member, 0, len(guild.Members))
		for _, m := range guild.Members {
			out = append(out, *toMember(m))
		}
		return out, nil
	}
	ms, err := g.Session.GuildMembers(guildID, "", 1000)
	if err != nil {
		return nil, fmt.Errorf("list members of guild %s: %w", guildID, err)
	}
	out := make([]Member, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toMember(m))
	}
	return out, nil
}

func (g *DiscordGateway) UpdateStatus(text string) error {
	return g.Session.UpdateGameStatus(0, text)
}

func toMember(m *discordgo.Member) *Member {
	name := m.Nick
	if name == "" && m.User != nil {
		name = m.User.GlobalName
		if name == "" {
			name = m.User.Username
		}
	}
	out := &Member{DisplayName: name}
	if m.User != nil {
		out.ID = m.User.ID
		out.Bot = m.User.Bot
	}
	return out
}

// mention renders a user id as a Discord mention.
func mention(userID string) string {
	return "<@" + userID + ">"
}
