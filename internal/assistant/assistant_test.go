package assistant_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Shoislam0311/Jervis/internal/assistant"
	"github.com/Shoislam0311/Jervis/internal/provider"
	"github.com/Shoislam0311/Jervis/memory"
)

const fallbackReply = "I apologize, but I'm having trouble processing your request right now. Please try again."

type fakeCompleter struct {
	reply string
	err   error
	calls int
	last  []provider.ChatMessage
}

func (f *fakeCompleter) Complete(ctx context.Context, msgs []provider.ChatMessage, temperature float64, maxTokens int) (string, error) {
	f.calls++
	f.last = msgs
	return f.reply, f.err
}

type fakeSearcher struct {
	result  string
	err     error
	calls   int
	lastQ   string
	lastMax int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int) (string, error) {
	f.calls++
	f.lastQ = query
	f.lastMax = maxResults
	return f.result, f.err
}

type fakeSpeaker struct {
	err   error
	calls int
	last  string
}

func (f *fakeSpeaker) Speak(ctx context.Context, text string) error {
	f.calls++
	f.last = text
	return f.err
}

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	return memory.Open(filepath.Join(t.TempDir(), "memory.json"), zerolog.Nop())
}

func newAssistant(t *testing.T, store *memory.Store, completions *fakeCompleter, search assistant.Searcher, speech assistant.Speaker) *assistant.Assistant {
	t.Helper()
	return assistant.New(assistant.Config{
		Memory:      store,
		Completions: completions,
		Search:      search,
		Speech:      speech,
		Logger:      zerolog.Nop(),
	})
}

func TestProcess_HappyPath(t *testing.T) {
	store := newStore(t)
	completer := &fakeCompleter{reply: "Hi there!"}
	a := newAssistant(t, store, completer, nil, nil)

	reply := a.Process(context.Background(), "Hello")
	if reply != "Hi there!" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 persisted turn, got %d", store.Len())
	}
	turns := store.RecentTurns(1)
	if turns[0].User != "Hello" || turns[0].Assistant != "Hi there!" {
		t.Fatalf("unexpected persisted turn: %+v", turns[0])
	}
}

func TestProcess_SystemPromptLeadsWindow(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	a := newAssistant(t, newStore(t), completer, nil, nil)

	a.Process(context.Background(), "Hello")
	if len(completer.last) != 2 {
		t.Fatalf("expected 2 messages for empty history, got %d", len(completer.last))
	}
	if completer.last[0].Role != provider.RoleSystem {
		t.Fatalf("expected system message first, got role %q", completer.last[0].Role)
	}
	if !strings.Contains(completer.last[0].Content, "You are Jervis") {
		t.Fatalf("system message lacks identity: %q", completer.last[0].Content)
	}
}

func TestProcess_CompletionFailureFallsBack(t *testing.T) {
	store := newStore(t)
	completer := &fakeCompleter{err: errors.New("boom")}
	a := newAssistant(t, store, completer, nil, nil)

	reply := a.Process(context.Background(), "Hello")
	if reply != fallbackReply {
		t.Fatalf("unexpected reply: %q", reply)
	}
	turns := store.RecentTurns(1)
	if len(turns) != 1 || turns[0].Assistant != fallbackReply {
		t.Fatalf("expected fallback persisted, got %+v", turns)
	}
}

func TestProcess_EmptyCompletionFallsBack(t *testing.T) {
	store := newStore(t)
	completer := &fakeCompleter{reply: ""}
	a := newAssistant(t, store, completer, nil, nil)

	reply := a.Process(context.Background(), "Hello")
	if reply != fallbackReply {
		t.Fatalf("unexpected reply: %q", reply)
	}
	turns := store.RecentTurns(1)
	if len(turns) != 1 || turns[0].Assistant != fallbackReply {
		t.Fatalf("expected fallback persisted, got %+v", turns)
	}
}

func TestProcess_InterruptAbandonsTurn(t *testing.T) {
	store := newStore(t)
	completer := &fakeCompleter{err: errors.New("request aborted")}
	a := newAssistant(t, store, completer, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply := a.Process(ctx, "Hello")
	if reply != "" {
		t.Fatalf("expected abandoned turn to yield no reply, got %q", reply)
	}
	if store.Len() != 0 {
		t.Fatalf("expected nothing persisted, got %d turns", store.Len())
	}
}

func TestProcess_TriggerInvokesSearch(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	searcher := &fakeSearcher{result: "Answer: 42"}
	a := newAssistant(t, newStore(t), completer, searcher, nil)

	a.Process(context.Background(), "latest on the election")
	if searcher.calls != 1 {
		t.Fatalf("expected 1 search call, got %d", searcher.calls)
	}
	if searcher.lastQ != "latest on the election" {
		t.Fatalf("search got wrong query: %q", searcher.lastQ)
	}
	if searcher.lastMax != 5 {
		t.Fatalf("search got wrong result cap: %d", searcher.lastMax)
	}

	final := completer.last[len(completer.last)-1]
	want := "latest on the election\n\nWeb search results:\nAnswer: 42"
	if final.Content != want {
		t.Fatalf("model input not augmented:\n%q\nwant:\n%q", final.Content, want)
	}
}

func TestProcess_NoTriggerSkipsSearch(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	searcher := &fakeSearcher{result: "Answer: 42"}
	a := newAssistant(t, newStore(t), completer, searcher, nil)

	a.Process(context.Background(), "tell me a story")
	if searcher.calls != 0 {
		t.Fatalf("expected no search calls, got %d", searcher.calls)
	}
}

func TestProcess_TriggerMatchIsCaseInsensitive(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	searcher := &fakeSearcher{result: "Answer: 42"}
	a := newAssistant(t, newStore(t), completer, searcher, nil)

	a.Process(context.Background(), "What's HAPPENING in tech?")
	if searcher.calls != 1 {
		t.Fatalf("expected trigger match regardless of case, got %d calls", searcher.calls)
	}
}

func TestProcess_PersistsOriginalNotAugmented(t *testing.T) {
	store := newStore(t)
	completer := &fakeCompleter{reply: "ok"}
	searcher := &fakeSearcher{result: "Answer: 42"}
	a := newAssistant(t, store, completer, searcher, nil)

	a.Process(context.Background(), "latest headlines")
	turns := store.RecentTurns(1)
	if turns[0].User != "latest headlines" {
		t.Fatalf("persisted user text was mutated: %q", turns[0].User)
	}
	if strings.Contains(turns[0].User, "Web search results") {
		t.Fatalf("augmentation leaked into history: %q", turns[0].User)
	}
}

func TestProcess_SearchErrorProceedsUnaugmented(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	searcher := &fakeSearcher{err: errors.New("offline")}
	a := newAssistant(t, newStore(t), completer, searcher, nil)

	reply := a.Process(context.Background(), "latest headlines")
	if reply != "ok" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	final := completer.last[len(completer.last)-1]
	if final.Content != "latest headlines" {
		t.Fatalf("expected unaugmented input, got %q", final.Content)
	}
}

func TestProcess_EmptySearchResultProceedsUnaugmented(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	searcher := &fakeSearcher{result: ""}
	a := newAssistant(t, newStore(t), completer, searcher, nil)

	a.Process(context.Background(), "latest headlines")
	final := completer.last[len(completer.last)-1]
	if final.Content != "latest headlines" {
		t.Fatalf("expected unaugmented input, got %q", final.Content)
	}
}

func TestProcess_NilSearcherSkipsAugmentation(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	a := newAssistant(t, newStore(t), completer, nil, nil)

	reply := a.Process(context.Background(), "latest headlines")
	if reply != "ok" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	final := completer.last[len(completer.last)-1]
	if final.Content != "latest headlines" {
		t.Fatalf("expected unaugmented input, got %q", final.Content)
	}
}

func TestProcess_WindowCarriesFiveRecentTurns(t *testing.T) {
	store := newStore(t)
	for i := 1; i <= 7; i++ {
		store.AppendTurn(fmt.Sprintf("question %d", i), fmt.Sprintf("answer %d", i))
	}
	completer := &fakeCompleter{reply: "ok"}
	a := newAssistant(t, store, completer, nil, nil)

	a.Process(context.Background(), "and now?")

	// system + 5 flattened turns + current
	if len(completer.last) != 12 {
		t.Fatalf("expected 12 messages, got %d", len(completer.last))
	}
	if completer.last[1].Content != "question 3" {
		t.Fatalf("history window starts at wrong turn: %q", completer.last[1].Content)
	}
	if completer.last[10].Content != "answer 7" {
		t.Fatalf("history window ends at wrong turn: %q", completer.last[10].Content)
	}
	if completer.last[11].Content != "and now?" {
		t.Fatalf("current input not last: %q", completer.last[11].Content)
	}
}

func TestProcess_EveryTurnPersisted(t *testing.T) {
	store := newStore(t)
	completer := &fakeCompleter{reply: "ok"}
	a := newAssistant(t, store, completer, nil, nil)

	for i := 0; i < 3; i++ {
		a.Process(context.Background(), fmt.Sprintf("msg %d", i))
	}
	if store.Len() != 3 {
		t.Fatalf("expected 3 persisted turns, got %d", store.Len())
	}
}

func TestSpeak_ForwardsToSpeaker(t *testing.T) {
	speaker := &fakeSpeaker{}
	a := newAssistant(t, newStore(t), &fakeCompleter{reply: "ok"}, nil, speaker)

	if err := a.Speak(context.Background(), "hello out loud"); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if speaker.calls != 1 || speaker.last != "hello out loud" {
		t.Fatalf("speaker not forwarded to: %+v", speaker)
	}
}

func TestSpeak_NilSpeakerErrors(t *testing.T) {
	a := newAssistant(t, newStore(t), &fakeCompleter{reply: "ok"}, nil, nil)
	if err := a.Speak(context.Background(), "hello"); err == nil {
		t.Fatal("expected error when voice output is not configured")
	}
}

func TestSpeak_PropagatesSpeakerError(t *testing.T) {
	speaker := &fakeSpeaker{err: errors.New("no player")}
	a := newAssistant(t, newStore(t), &fakeCompleter{reply: "ok"}, nil, speaker)

	if err := a.Speak(context.Background(), "hello"); err == nil {
		t.Fatal("expected speaker error to propagate")
	}
}
