package model

import (
	"context"
	"errors"
	"testing"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"mentis/config"
	"mentis/ollama"
)

// mockProvider implements Provider for store tests
type mockProvider struct {
	response string
	err      error
	model    string
	calls    int
}

func (p *mockProvider) Chat(ctx context.Context, messages []Message, callback StreamCallback) error {
	return p.ChatWithTools(ctx, messages, nil, callback)
}

func (p *mockProvider) ChatWithTools(ctx context.Context, messages []Message, tools []mcptypes.Tool, callback StreamCallback) error {
	p.calls++
	if p.err != nil {
		return p.err
	}
	return callback(p.response, nil)
}

func (p *mockProvider) ListModels(ctx context.Context) ([]ollama.ModelInfo, error) {
	return nil, nil
}

func (p *mockProvider) GetModel() string        { return p.model }
func (p *mockProvider) GetDisplayName() string  { return p.model }
func (p *mockProvider) SetModel(model string)   { p.model = model }
func (p *mockProvider) Ping(ctx context.Context) error { return nil }

func newTestModel(provider Provider) *Model {
	cfg := &config.Config{
		DefaultModel:     "test-model",
		DefaultProvider:  "ollama",
		StreamingEnabled: true,
	}
	m := NewModel(cfg, nil, nil, nil, nil, nil, "test")
	m.Provider = provider
	m.Providers["ollama"] = provider
	return m
}

// deliverResponse runs the send command synchronously and applies the
// resulting message the way the update loop does
func deliverResponse(t *testing.T, m *Model) {
	t.Helper()
	cmd := m.SendToBackend()
	switch msg := cmd().(type) {
	case StreamChunksCollectedMsg:
		m.Messages = append(m.Messages, Message{
			Role:      "assistant",
			Content:   msg.FullResponse,
			Timestamp: time.Now(),
		})
		_ = m.CompleteResponse()
	case StreamErrorMsg:
		m.ErrMsg = msg.Err.Error()
		_ = m.CompleteResponse()
	default:
		t.Fatalf("unexpected message type %T", msg)
	}
}

func TestSendMessageEndToEnd(t *testing.T) {
	provider := &mockProvider{response: "Hi<think>thinking...</think>there", model: "test-model"}
	m := newTestModel(provider)

	m.Input = "Hello"
	cmd := m.SendMessage()
	if cmd == nil {
		t.Fatal("expected a send command")
	}

	if len(m.Messages) != 1 || m.Messages[0].Role != "user" || m.Messages[0].Content != "Hello" {
		t.Fatalf("user message not appended: %+v", m.Messages)
	}
	if !m.Loading {
		t.Error("loading flag not set")
	}
	if m.Input != "" {
		t.Error("input not cleared")
	}

	deliverResponse(t, m)

	if len(m.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(m.Messages))
	}
	if m.Loading {
		t.Error("loading flag not cleared after response")
	}

	blocks := NormalizeContent(m.Messages[1].Content)
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3: %+v", len(blocks), blocks)
	}
	if blocks[0].Type != BlockText || blocks[0].Content != "Hi" {
		t.Errorf("block 0 = %+v", blocks[0])
	}
	if blocks[1].Type != BlockThought || blocks[1].Content != "thinking..." {
		t.Errorf("block 1 = %+v", blocks[1])
	}
	if blocks[2].Type != BlockText || blocks[2].Content != "there" {
		t.Errorf("block 2 = %+v", blocks[2])
	}
}

func TestSendResultsCarrySendGeneration(t *testing.T) {
	provider := &mockProvider{response: "ok"}
	m := newTestModel(provider)

	m.Input = "Hello"
	cmd := m.SendMessage()
	if cmd == nil {
		t.Fatal("expected a send command")
	}
	generation := m.StatusGeneration

	msg, ok := m.SendToBackend()().(StreamChunksCollectedMsg)
	if !ok {
		t.Fatalf("unexpected message type")
	}
	if msg.Generation != generation {
		t.Errorf("result generation = %d, want %d", msg.Generation, generation)
	}

	// After a cancel the generation moves on; the old result no longer
	// matches
	m.StatusGeneration++
	_ = m.CompleteResponse()
	if msg.Generation == m.StatusGeneration {
		t.Error("cancelled send's result must not match the new generation")
	}
}

func TestSendBatchDisplayReturnsDone(t *testing.T) {
	provider := &mockProvider{response: "all at once"}
	m := newTestModel(provider)
	m.Config.StreamingEnabled = false

	m.Input = "Hello"
	if cmd := m.SendMessage(); cmd == nil {
		t.Fatal("expected a send command")
	}

	msg, ok := m.SendToBackend()().(StreamDoneMsg)
	if !ok {
		t.Fatalf("batch display must deliver the response in one piece")
	}
	if msg.FullResponse != "all at once" {
		t.Errorf("FullResponse = %q", msg.FullResponse)
	}
	if msg.Generation != m.StatusGeneration {
		t.Errorf("result generation = %d, want %d", msg.Generation, m.StatusGeneration)
	}
}

func TestSendMessageEmptyInput(t *testing.T) {
	m := newTestModel(&mockProvider{})
	m.Input = "   \n "
	if cmd := m.SendMessage(); cmd != nil {
		t.Error("whitespace-only input must not send")
	}
	if len(m.Messages) != 0 {
		t.Error("no message should be appended")
	}
}

func TestSendMessageErrorSurfacedAsString(t *testing.T) {
	provider := &mockProvider{err: errors.New("backend unreachable")}
	m := newTestModel(provider)

	m.Input = "Hello"
	if cmd := m.SendMessage(); cmd == nil {
		t.Fatal("expected a send command")
	}
	deliverResponse(t, m)

	if m.ErrMsg != "backend unreachable" {
		t.Errorf("ErrMsg = %q, want backend error text", m.ErrMsg)
	}
	if m.Loading {
		t.Error("loading must clear on failure")
	}
	if len(m.Messages) != 1 {
		t.Errorf("failed send must not append an assistant message, got %d messages", len(m.Messages))
	}
}

func TestOverlappingSendsAreQueued(t *testing.T) {
	provider := &mockProvider{response: "ok"}
	m := newTestModel(provider)

	m.Input = "first"
	if cmd := m.SendMessage(); cmd == nil {
		t.Fatal("expected a send command")
	}

	// Second send while the first is in flight
	m.Input = "second"
	if cmd := m.SendMessage(); cmd != nil {
		t.Error("overlapping send must queue, not dispatch")
	}
	if len(m.PendingSends) != 1 {
		t.Fatalf("got %d pending sends, want 1", len(m.PendingSends))
	}
	if len(m.Messages) != 1 {
		t.Fatalf("queued send must not append yet, got %d messages", len(m.Messages))
	}

	// First response completes; the queue drains one entry
	m.Messages = append(m.Messages, Message{Role: "assistant", Content: "ok"})
	drain := m.CompleteResponse()
	if drain == nil {
		t.Fatal("expected drain command for the queued send")
	}
	if len(m.PendingSends) != 0 {
		t.Error("queue not drained")
	}
	if !m.Loading {
		t.Error("drained send must set loading again")
	}

	last := m.Messages[len(m.Messages)-1]
	if last.Role != "user" || last.Content != "second" {
		t.Errorf("drained send appended %+v, want the queued user message", last)
	}
}

func TestSendClearsAttachmentsAndStatus(t *testing.T) {
	m := newTestModel(&mockProvider{response: "ok"})
	m.AddAttachment(ImageAttachment{ID: "a1", Name: "shot.png", Size: 1024})
	m.StatusIndex = 2
	m.StatusStage = "evolve"

	m.Input = "look at this"
	if cmd := m.SendMessage(); cmd == nil {
		t.Fatal("expected a send command")
	}

	if len(m.Attachments) != 0 {
		t.Error("attachments not cleared after send")
	}
	if len(m.Messages[0].Attachments) != 1 || m.Messages[0].Attachments[0].ID != "a1" {
		t.Error("attachment not carried on the user message")
	}
	if m.CurrentStageIndex() != 0 {
		t.Error("status strip must reset on a new send")
	}
}

func TestRemoveAttachment(t *testing.T) {
	m := newTestModel(&mockProvider{})
	m.AddAttachment(ImageAttachment{ID: "a1"})
	m.AddAttachment(ImageAttachment{ID: "a2"})

	m.RemoveAttachment("a1")
	if len(m.Attachments) != 1 || m.Attachments[0].ID != "a2" {
		t.Errorf("attachments = %+v, want only a2", m.Attachments)
	}

	m.RemoveAttachment("missing")
	if len(m.Attachments) != 1 {
		t.Error("removing an unknown ID must be a no-op")
	}
}
