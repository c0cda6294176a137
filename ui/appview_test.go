package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mentis/config"
	appmodel "mentis/model"
)

func newTestAppView() AppView {
	cfg := &config.Config{
		DataDirectory:   "/tmp/mentis-test",
		BackendHost:     "http://localhost:11434",
		DefaultModel:    "llama3.1:latest",
		DefaultProvider: "ollama",
	}
	dataModel := appmodel.NewModel(cfg, nil, nil, nil, nil, nil, "test")
	a := NewAppView(dataModel)
	a.width = 80
	a.height = 24
	a.ready = true
	return a
}

func TestFallbackViewShowsRawConversation(t *testing.T) {
	a := newTestAppView()
	a.dataModel.Messages = []Message{
		{Role: "user", Content: "hello there", Timestamp: time.Now()},
		{Role: "assistant", Content: "hi back", Timestamp: time.Now()},
	}
	a.dataModel.Input = "next question"

	out := a.fallbackView("boom")

	for _, want := range []string{"degraded", "boom", "hello there", "hi back", "next question"} {
		if !strings.Contains(out, want) {
			t.Errorf("fallback view missing %q:\n%s", want, out)
		}
	}
}

func TestRenderMessageAssistantBlocks(t *testing.T) {
	a := newTestAppView()

	msg := Message{
		Role:      "assistant",
		Content:   "<think>private reasoning</think>The answer is 42.",
		Timestamp: time.Now(),
	}

	out := a.renderMessage(msg)
	if strings.Contains(out, "private reasoning") {
		t.Errorf("thought body should be collapsed by default:\n%s", out)
	}
	if !strings.Contains(out, "Thought") {
		t.Errorf("expected thought header:\n%s", out)
	}
	if !strings.Contains(out, "The answer is 42.") {
		t.Errorf("expected text block content:\n%s", out)
	}

	a.showThoughts = true
	out = a.renderMessage(msg)
	if !strings.Contains(out, "private reasoning") {
		t.Errorf("expanded thought should show the body:\n%s", out)
	}
}

func TestRenderMessageSkipsWhitespaceOnlyText(t *testing.T) {
	a := newTestAppView()

	msg := Message{
		Role:      "assistant",
		Content:   "   \n\t  <think>only thought</think>   ",
		Timestamp: time.Now(),
	}

	out := a.renderMessage(msg)
	if !strings.Contains(out, "Thought") {
		t.Errorf("expected the thought panel:\n%s", out)
	}
	if strings.Contains(out, "only thought") {
		t.Errorf("collapsed panel must not show the body:\n%s", out)
	}
	if strings.Contains(out, "\t") {
		t.Errorf("whitespace-only text should be dropped, not rendered:\n%s", out)
	}
}

func TestRenderMessageUserBar(t *testing.T) {
	a := newTestAppView()

	msg := Message{Role: "user", Content: "line one\nline two", Timestamp: time.Now()}
	out := a.renderMessage(msg)

	if !strings.Contains(out, "line one") || !strings.Contains(out, "line two") {
		t.Errorf("expected both user lines:\n%s", out)
	}
	if !strings.Contains(out, "┃") {
		t.Errorf("expected the user bar prefix:\n%s", out)
	}
}

func TestRenderMarkdownAsyncSplitsPerTextBlock(t *testing.T) {
	a := newTestAppView()

	content := "first paragraph\n<think>skip me</think>\nsecond paragraph"
	msg := a.renderMarkdownAsync(3, content)()

	rendered, ok := msg.(markdownRenderedMsg)
	if !ok {
		t.Fatalf("expected markdownRenderedMsg, got %T", msg)
	}
	if rendered.MessageIndex != 3 {
		t.Errorf("MessageIndex = %d, want 3", rendered.MessageIndex)
	}

	parts := strings.Split(rendered.Rendered, textBlockSep)
	if len(parts) != 2 {
		t.Fatalf("expected 2 rendered text parts, got %d", len(parts))
	}
	if !strings.Contains(parts[0], "first paragraph") {
		t.Errorf("part 0 missing first paragraph: %q", parts[0])
	}
	if !strings.Contains(parts[1], "second paragraph") {
		t.Errorf("part 1 missing second paragraph: %q", parts[1])
	}
	if strings.Contains(rendered.Rendered, "skip me") {
		t.Errorf("thought content must not reach the markdown cache")
	}
}

func TestBuildConsoleProviders(t *testing.T) {
	cfg := &config.Config{
		BackendHost: "http://localhost:11434",
		Providers: []config.ProviderConfig{
			{ID: "openrouter", Name: "OpenRouter", Enabled: true},
			{ID: "anthropic", Enabled: false},
		},
	}

	providers := buildConsoleProviders(cfg)
	if len(providers) != 2 {
		t.Fatalf("expected backend + 1 enabled provider, got %d", len(providers))
	}
	if providers[0].ID != "ollama" {
		t.Errorf("backend should be first, got %s", providers[0].ID)
	}
	if providers[1].ID != "openrouter" {
		t.Errorf("expected openrouter second, got %s", providers[1].ID)
	}
}

func TestCancelledResponseCannotAnswerNextSend(t *testing.T) {
	a := newTestAppView()

	// Send A goes out
	a.dataModel.Input = "question A"
	if cmd := a.dataModel.SendMessage(); cmd == nil {
		t.Fatal("expected a send command")
	}
	staleGeneration := a.dataModel.StatusGeneration

	// User cancels with esc while A is still in flight
	m, _ := a.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	a = m.(AppView)
	if a.dataModel.Loading || a.dataModel.Streaming {
		t.Fatal("cancel must clear the in-flight flags")
	}

	// Send B goes out before A's goroutine returns
	a.dataModel.Input = "question B"
	if cmd := a.dataModel.SendMessage(); cmd == nil {
		t.Fatal("expected a send command for the second question")
	}
	messagesBefore := len(a.dataModel.Messages)

	// A's result finally lands. It matches B's loading state but not
	// B's generation, so it must be dropped.
	a, _ = a.handleStreamingMessage(streamChunksCollectedMsg{
		Chunks:       []string{"stale answer"},
		FullResponse: "stale answer",
		Generation:   staleGeneration,
	})
	if a.dataModel.Streaming {
		t.Error("stale result must not start the typewriter")
	}
	if !a.dataModel.Loading {
		t.Error("dropping a stale result must leave the newer send in flight")
	}
	if len(a.dataModel.Messages) != messagesBefore {
		t.Error("stale result must not append an assistant message")
	}

	// B's own result is accepted
	a, _ = a.handleStreamingMessage(streamChunksCollectedMsg{
		Chunks:       []string{"real answer"},
		FullResponse: "real answer",
		Generation:   a.dataModel.StatusGeneration,
	})
	if !a.dataModel.Streaming {
		t.Error("matching result must start the typewriter")
	}
}

func TestStaleErrorIsDropped(t *testing.T) {
	a := newTestAppView()

	a.dataModel.Input = "question"
	if cmd := a.dataModel.SendMessage(); cmd == nil {
		t.Fatal("expected a send command")
	}

	a, _ = a.handleStreamingMessage(streamErrorMsg{
		Err:        errTest("late failure"),
		Generation: a.dataModel.StatusGeneration - 1,
	})
	if a.dataModel.ErrMsg != "" {
		t.Errorf("stale error must not surface, got %q", a.dataModel.ErrMsg)
	}
	if !a.dataModel.Loading {
		t.Error("stale error must not complete the active send")
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }

func TestStatusEventPinsStageWhileLoading(t *testing.T) {
	a := newTestAppView()

	a.dataModel.Input = "question"
	if cmd := a.dataModel.SendMessage(); cmd == nil {
		t.Fatal("expected a send command")
	}

	m, _ := a.Update(statusEventMsg{Event: appmodel.StatusEvent{Stage: "evolve", Meta: map[string]interface{}{"detail": "web-search"}}})
	a = m.(AppView)

	if got := a.dataModel.CurrentStageIndex(); got != 2 {
		t.Errorf("stage index = %d, want 2 (evolve)", got)
	}

	// Auto-advance ticks must not move a pinned strip
	_ = a.dataModel.AdvanceStage(appmodel.StageTickMsg{Generation: a.dataModel.StatusGeneration})
	if got := a.dataModel.CurrentStageIndex(); got != 2 {
		t.Errorf("explicit stage must hold against auto-advance, got %d", got)
	}
}

func TestStatusEventIgnoredWhenIdle(t *testing.T) {
	a := newTestAppView()

	m, _ := a.Update(statusEventMsg{Event: appmodel.StatusEvent{Stage: "render"}})
	a = m.(AppView)

	if a.dataModel.StatusStage != "" {
		t.Errorf("idle model must ignore stage reports, got %q", a.dataModel.StatusStage)
	}
}

func TestBatchResponseFinalizesWithoutTypewriter(t *testing.T) {
	a := newTestAppView()

	a.dataModel.Input = "question"
	if cmd := a.dataModel.SendMessage(); cmd == nil {
		t.Fatal("expected a send command")
	}

	a, _ = a.handleStreamingMessage(streamDoneMsg{
		FullResponse: "whole answer",
		Generation:   a.dataModel.StatusGeneration,
	})

	if a.dataModel.Loading || a.dataModel.Streaming {
		t.Error("batch response must complete the send immediately")
	}
	last := a.dataModel.Messages[len(a.dataModel.Messages)-1]
	if last.Role != "assistant" || last.Content != "whole answer" {
		t.Errorf("assistant message = %+v", last)
	}
}

func TestSendQueuesWhileLoading(t *testing.T) {
	a := newTestAppView()
	a.dataModel.Loading = true
	a.dataModel.Input = "queued question"

	cmd := a.dataModel.SendMessage()
	if cmd != nil {
		t.Errorf("send during an active response should queue, not start")
	}
	if len(a.dataModel.PendingSends) != 1 {
		t.Fatalf("expected 1 pending send, got %d", len(a.dataModel.PendingSends))
	}
	if a.dataModel.Input != "" {
		t.Errorf("input should be consumed when queued")
	}
}
