package memory

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPath is the backing document used when no path is configured.
const DefaultPath = "memory.json"

// maxTurns bounds the conversation log; the oldest turns are evicted
// first, immediately after each append.
const maxTurns = 50

// Turn is one persisted exchange: what the user said and what the
// assistant replied, stamped at append time.
type Turn struct {
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// State is the whole durable document: the bounded turn log plus the
// user preference map. It is loaded once at Open and rewritten in full
// after every mutation.
type State struct {
	Conversations   []Turn         `json:"conversations"`
	UserPreferences map[string]any `json:"user_preferences"`
}

// Store owns the in-memory State and its backing file. All I/O
// failures are logged and absorbed: the in-memory state stays usable
// even when the durable copy is stale or missing.
type Store struct {
	path  string
	state State
	log   zerolog.Logger
}

// Open reads the document at path (DefaultPath when empty). A missing
// or unparseable file yields a fresh empty state with a logged
// warning; Open never fails.
func Open(path string, log zerolog.Logger) *Store {
	if path == "" {
		path = DefaultPath
	}
	s := &Store{
		path: path,
		log:  log.With().Str("component", "memory").Logger(),
	}
	s.state = loadState(path, s.log)
	return s
}

func loadState(path string, log zerolog.Logger) State {
	empty := State{Conversations: []Turn{}, UserPreferences: map[string]any{}}
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", path).Msg("failed to read memory file")
		}
		return empty
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("memory file unreadable, starting fresh")
		return empty
	}
	if st.Conversations == nil {
		st.Conversations = []Turn{}
	}
	if st.UserPreferences == nil {
		st.UserPreferences = map[string]any{}
	}
	return st
}

// AppendTurn records one exchange and rewrites the document. The log
// is truncated to the newest maxTurns entries before the write, so the
// bound holds after every append, not eventually.
func (s *Store) AppendTurn(user, assistant string) {
	s.state.Conversations = append(s.state.Conversations, Turn{
		Timestamp: time.Now().Format(time.RFC3339),
		User:      user,
		Assistant: assistant,
	})
	if n := len(s.state.Conversations); n > maxTurns {
		s.state.Conversations = s.state.Conversations[n-maxTurns:]
	}
	s.save()
}

// RecentTurns returns up to the last n turns in chronological order,
// oldest first. Empty log or n <= 0 yields nil.
func (s *Store) RecentTurns(n int) []Turn {
	if n <= 0 {
		return nil
	}
	conv := s.state.Conversations
	if n > len(conv) {
		n = len(conv)
	}
	return conv[len(conv)-n:]
}

// SetPreference stores a last-write-wins preference value and rewrites
// the document.
func (s *Store) SetPreference(key string, value any) {
	s.state.UserPreferences[key] = value
	s.save()
}

// Preference returns the stored value for key, or def when unset.
func (s *Store) Preference(key string, def any) any {
	if v, ok := s.state.UserPreferences[key]; ok {
		return v
	}
	return def
}

// Len reports the current conversation log length.
func (s *Store) Len() int { return len(s.state.Conversations) }

func (s *Store) save() {
	b, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode memory state")
		return
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("failed to save memory file")
	}
}
