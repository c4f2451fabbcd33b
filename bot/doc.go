// Package bot contains the Discord-facing behavior of the service.
//
// It provides three cooperating pieces, all wired by New:
//   - Dispatcher: parses prefixed text commands (ping, say, tntdrop,
//     balance, top, ignite) and turns them into ledger operations and
//     channel replies. Handler errors never escape; they are converted
//     into user-visible replies at the dispatch boundary.
//   - Reactor: rolls a small fixed chance on every non-command message
//     and occasionally drops a themed reaction into the channel.
//   - PresenceRotator: rotates the bot's displayed activity through a
//     fixed set of status strings on a timer, started once when the
//     gateway signals readiness.
//
// All Discord access goes through the Gateway interface so the pieces can
// be exercised against a fake session in tests. Randomness flows through
// an injectable source for the same reason.
package bot
