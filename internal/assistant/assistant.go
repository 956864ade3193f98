package assistant

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/Shoislam0311/Jervis/internal/prompt"
	"github.com/Shoislam0311/Jervis/internal/provider"
	"github.com/Shoislam0311/Jervis/internal/telemetry"
	"github.com/Shoislam0311/Jervis/memory"
)

// systemPrompt anchors every completion request.
const systemPrompt = `You are Jervis, a highly capable AI assistant with deep reasoning, project planning, code generation, and multilingual communication skills. You speak and write fluently in Bengali, English, and Hindi, and can switch naturally when required.

Your core capabilities include:
1. Understanding high-level project goals and breaking them down into actionable steps
2. Generating well-structured outputs (Markdown, JSON, code snippets, tables, etc.)
3. Providing thorough explanations with bullet points and numbered lists
4. Maintaining clarity, consistency, and accuracy in all responses
5. Respecting constraints on timeline, budget, and technology stack
6. Suggesting optimizations, trade-offs, and risk mitigations

You have access to web search capabilities for real-time information retrieval and can provide voice responses when requested. Always be helpful, accurate, and maintain context throughout conversations.`

// fallbackReply substitutes for the model's answer whenever completion
// fails. It is the only guaranteed literal response.
const fallbackReply = "I apologize, but I'm having trouble processing your request right now. Please try again."

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1000

	// How many related entries an augmentation search asks for.
	searchResults = 5
)

// searchTriggers fire augmentation on a case-insensitive substring
// match against the raw user text.
var searchTriggers = []string{"search", "latest", "current", "news", "what's happening"}

// Completer generates one reply for an assembled message window.
type Completer interface {
	Complete(ctx context.Context, msgs []provider.ChatMessage, temperature float64, maxTokens int) (string, error)
}

// Searcher returns a text block of web results for a query.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) (string, error)
}

// Speaker voices a reply out loud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Config carries the orchestrator's collaborators, resolved once at
// startup. Memory and Completions are required; a nil Search disables
// augmentation and a nil Speech disables voice output.
type Config struct {
	Memory      *memory.Store
	Completions Completer
	Search      Searcher
	Speech      Speaker
	Temperature float64
	MaxTokens   int
	Logger      zerolog.Logger
}

// Assistant runs the per-turn state machine.
type Assistant struct {
	mem         *memory.Store
	completions Completer
	search      Searcher
	speech      Speaker
	temperature float64
	maxTokens   int
	log         zerolog.Logger
}

// New builds an Assistant, filling in the stock sampling parameters
// where the config leaves them zero.
func New(cfg Config) *Assistant {
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &Assistant{
		mem:         cfg.Memory,
		completions: cfg.Completions,
		search:      cfg.Search,
		speech:      cfg.Speech,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		log:         cfg.Logger.With().Str("component", "assistant").Logger(),
	}
}

// Process runs one turn: augmentation decision, prompt assembly over
// recent history, completion, persistence. Completion failures and
// empty completions yield the fixed fallback reply, and the turn is
// persisted either way with the user's original text. A request cut
// short by context cancellation abandons the turn instead: nothing is
// persisted and Process returns the empty string.
func (a *Assistant) Process(ctx context.Context, userText string) string {
	turnID, ok := telemetry.TurnIDFromContext(ctx)
	if !ok {
		turnID = telemetry.NewTurnID()
		ctx = telemetry.WithTurnID(ctx, turnID)
	}
	telemetry.Emit("turn_started", map[string]any{
		"turn_id":     turnID,
		"input_runes": utf8.RuneCountInString(userText),
	})

	modelInput := userText
	augmented := false
	if a.search != nil && wantsSearch(userText) {
		results, err := a.search.Search(ctx, userText, searchResults)
		switch {
		case err != nil:
			a.log.Warn().Err(err).Msg("search augmentation failed, continuing without")
		case results != "":
			modelInput = userText + "\n\nWeb search results:\n" + results
			augmented = true
			telemetry.Emit("search_augmented", map[string]any{
				"turn_id":      turnID,
				"result_runes": utf8.RuneCountInString(results),
			})
		}
	}

	msgs := prompt.Build(systemPrompt, a.mem.RecentTurns(prompt.HistoryWindow), modelInput)
	st := prompt.Measure(msgs)
	a.log.Debug().
		Int("messages", st.Messages).
		Int("history_turns", st.HistoryTurns).
		Int("est_runes", st.Runes).
		Msg("prompt assembled")

	reply, err := a.completions.Complete(ctx, msgs, a.temperature, a.maxTokens)
	if err != nil && ctx.Err() != nil {
		// Interrupted turns are abandoned, not persisted.
		a.log.Warn().Msg("completion interrupted by shutdown, turn abandoned")
		return ""
	}
	if err != nil || reply == "" {
		a.log.Error().Err(err).Msg("completion failed, substituting fallback reply")
		telemetry.Emit("completion_failed", map[string]any{"turn_id": turnID})
		reply = fallbackReply
	}

	// History carries what the user typed, not what the model saw.
	a.mem.AppendTurn(userText, reply)

	telemetry.EmitTurnCompleted(ctx, userText, reply, augmented)
	return reply
}

// Speak voices text through the configured Speaker.
func (a *Assistant) Speak(ctx context.Context, text string) error {
	if a.speech == nil {
		return errors.New("voice output is not configured")
	}
	return a.speech.Speak(ctx, text)
}

// wantsSearch reports whether the text names any search trigger.
func wantsSearch(text string) bool {
	lower := strings.ToLower(text)
	for _, trigger := range searchTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}
