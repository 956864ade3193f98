// Package prompt assembles the outbound message window for a turn.
package prompt

import (
	"unicode/utf8"

	"github.com/Shoislam0311/Jervis/internal/provider"
	"github.com/Shoislam0311/Jervis/memory"
)

// HistoryWindow is the number of persisted turns flattened into each
// prompt. It is intentionally far below the storage cap: the store
// retains more than any single prompt needs.
const HistoryWindow = 5

// Fixed per-message overhead for deterministic size estimates; changing
// this requires updating the guard test.
const messageOverhead = 4

// Stats summarizes an assembled window.
//
// Fields:
// - Messages: total message count, system and current included.
// - HistoryTurns: persisted turns flattened into the window.
// - Runes: deterministic size estimate (content runes plus per-message overhead).
type Stats struct {
	Messages     int
	HistoryTurns int
	Runes        int
}

// Build assembles the message array: system instructions first, each
// turn flattened to a user message then an assistant message in
// chronological order, and the current user text as the final user
// message. Inputs are never mutated and content is never trimmed.
func Build(system string, turns []memory.Turn, current string) []provider.ChatMessage {
	msgs := make([]provider.ChatMessage, 0, len(turns)*2+2)
	msgs = append(msgs, provider.ChatMessage{Role: provider.RoleSystem, Content: system})
	for _, turn := range turns {
		msgs = append(msgs,
			provider.ChatMessage{Role: provider.RoleUser, Content: turn.User},
			provider.ChatMessage{Role: provider.RoleAssistant, Content: turn.Assistant},
		)
	}
	return append(msgs, provider.ChatMessage{Role: provider.RoleUser, Content: current})
}

// Measure returns deterministic Stats for an assembled window. It
// exists for telemetry only and never influences what is sent.
func Measure(msgs []provider.ChatMessage) Stats {
	st := Stats{Messages: len(msgs)}
	for _, m := range msgs {
		st.Runes += utf8.RuneCountInString(m.Content) + messageOverhead
	}
	if len(msgs) >= 2 {
		st.HistoryTurns = (len(msgs) - 2) / 2
	}
	return st
}
