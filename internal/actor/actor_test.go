package actor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nexuscore/agentruntime/internal/audit"
	"github.com/nexuscore/agentruntime/internal/llmconv"
	"github.com/nexuscore/agentruntime/internal/store"
)

func newTestActor(t *testing.T, client *llmconv.FakeClient, config Config) (*Actor, *store.Store) {
	t.Helper()
	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	auditSvc, err := audit.NewService(filepath.Join(t.TempDir(), "audit"), audit.ServiceConfig{}, nil)
	if err != nil {
		t.Fatalf("audit.NewService() error = %v", err)
	}
	a := New("11111111-1111-4111-8111-111111111111", client, st, auditSvc, config)
	return a, st
}

func TestActorGetGreetingReturnsRealGreeting(t *testing.T) {
	a, _ := newTestActor(t, &llmconv.FakeClient{Reply: "hi there"}, Config{})
	a.Start()
	defer a.Stop()

	resp, err := a.GetGreeting(context.Background())
	if err != nil {
		t.Fatalf("GetGreeting() error = %v", err)
	}
	if resp.Text != "hi there" {
		t.Fatalf("GetGreeting() text = %q, want %q", resp.Text, "hi there")
	}
}

func TestActorGetGreetingFallsBackOnTimeout(t *testing.T) {
	a, _ := newTestActor(t, &llmconv.FakeClient{Reply: "hi"}, Config{GreetingTimeout: time.Millisecond, ShutdownWindow: time.Millisecond})
	// Do not Start(): the greeting will never arrive, forcing the fallback path.
	defer a.Stop()

	resp, err := a.GetGreeting(context.Background())
	if err != nil {
		t.Fatalf("GetGreeting() error = %v", err)
	}
	if resp.Text != fallbackGreeting {
		t.Fatalf("GetGreeting() text = %q, want fallback", resp.Text)
	}
}

func TestActorProcessMessageReturnsReplyAndCost(t *testing.T) {
	a, _ := newTestActor(t, &llmconv.FakeClient{Reply: "ack", CostPerTurn: 0.01}, Config{})
	a.Start()
	defer a.Stop()

	if _, err := a.GetGreeting(context.Background()); err != nil {
		t.Fatalf("GetGreeting() error = %v", err)
	}

	resp, err := a.ProcessMessage(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}
	if resp.Text != "ack" {
		t.Fatalf("ProcessMessage() text = %q, want %q", resp.Text, "ack")
	}
	if resp.ReportedCostUSD != 0.01 {
		t.Fatalf("ProcessMessage() cost = %v, want 0.01", resp.ReportedCostUSD)
	}
	if resp.InputTokens == 0 || resp.OutputTokens == 0 {
		t.Fatalf("ProcessMessage() expected non-zero token counts, got %+v", resp)
	}
}

func TestActorProcessMessagePersistsTranscript(t *testing.T) {
	a, st := newTestActor(t, &llmconv.FakeClient{Reply: "ack"}, Config{})
	a.Start()
	defer a.Stop()

	if _, err := a.GetGreeting(context.Background()); err != nil {
		t.Fatalf("GetGreeting() error = %v", err)
	}
	if _, err := a.ProcessMessage(context.Background(), "hello there"); err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}

	session, err := st.GetSession(a.SessionID())
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	// Greeting turn (user + agent) plus the explicit turn (user + agent).
	if len(session.Messages) != 4 {
		t.Fatalf("expected 4 persisted messages, got %d", len(session.Messages))
	}
	if session.Title == "" {
		t.Fatalf("expected title derived from first message, got empty")
	}
}

func TestActorProcessMessageFailsWhenClosed(t *testing.T) {
	a, _ := newTestActor(t, &llmconv.FakeClient{}, Config{})
	a.Start()
	if _, err := a.GetGreeting(context.Background()); err != nil {
		t.Fatalf("GetGreeting() error = %v", err)
	}
	a.Stop()

	if _, err := a.ProcessMessage(context.Background(), "hello"); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("ProcessMessage() error = %v, want ErrSessionClosed", err)
	}
}

func TestActorProcessMessageQueueFull(t *testing.T) {
	client := &llmconv.FakeClient{}
	a, _ := newTestActor(t, client, Config{QueueSize: 1})
	// Mark the actor running without starting its worker, so nothing
	// drains the turns channel and it fills up after one manual send.
	a.running.Store(true)
	a.turns <- &turnRequest{ctx: context.Background(), text: "x", respCh: make(chan MessageResponse, 1)}

	_, err := a.ProcessMessage(context.Background(), "hello")
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("ProcessMessage() error = %v, want ErrQueueFull", err)
	}
}

// blockingClient's conversations never reply until unblock is closed,
// letting tests force a real ProcessMessage timeout deterministically.
type blockingClient struct {
	unblock chan struct{}
}

func (c *blockingClient) NewConversation(ctx context.Context, opts llmconv.ConversationOptions) (llmconv.Conversation, error) {
	return &blockingConversation{unblock: c.unblock}, nil
}

type blockingConversation struct {
	unblock chan struct{}
}

func (c *blockingConversation) Query(ctx context.Context, text string) (<-chan llmconv.Message, error) {
	ch := make(chan llmconv.Message, 1)
	go func() {
		defer close(ch)
		if text == defaultGreetingPrompt {
			ch <- llmconv.Message{Text: "hi", Result: &llmconv.Result{Subtype: llmconv.SubtypeSuccess}}
			return
		}
		select {
		case <-c.unblock:
			ch <- llmconv.Message{Text: "done", Result: &llmconv.Result{Subtype: llmconv.SubtypeSuccess}}
		case <-ctx.Done():
		}
	}()
	return ch, nil
}

func (c *blockingConversation) Close() error { return nil }

func TestActorProcessMessageTimesOutButWorkerKeepsRunning(t *testing.T) {
	unblock := make(chan struct{})
	client := &blockingClient{unblock: unblock}
	a, _ := newTestActor(t, client, Config{ResponseTimeout: 10 * time.Millisecond})
	a.Start()
	defer func() {
		close(unblock)
		a.Stop()
	}()
	if _, err := a.GetGreeting(context.Background()); err != nil {
		t.Fatalf("GetGreeting() error = %v", err)
	}

	_, err := a.ProcessMessage(context.Background(), "hello")
	if !errors.Is(err, ErrResponseTimeout) {
		t.Fatalf("ProcessMessage() error = %v, want ErrResponseTimeout", err)
	}
	if !a.IsRunning() {
		t.Fatalf("expected actor to still be running after a response timeout")
	}
}

func TestActorTouchAndIsExpired(t *testing.T) {
	a, _ := newTestActor(t, &llmconv.FakeClient{}, Config{})
	if a.IsExpired(time.Hour) {
		t.Fatalf("freshly created actor should not be expired")
	}
	if !a.IsExpired(0) {
		t.Fatalf("actor should be expired against a zero TTL")
	}
	a.touch()
	if a.IsExpired(time.Hour) {
		t.Fatalf("actor touched just now should not be expired")
	}
}

func TestActorStopIsIdempotent(t *testing.T) {
	a, _ := newTestActor(t, &llmconv.FakeClient{}, Config{})
	a.Start()
	a.Stop()
	a.Stop()
	if a.IsRunning() {
		t.Fatalf("expected actor to be stopped")
	}
}

func TestActorUpstreamErrorSubtypeSurfacesAsErr(t *testing.T) {
	client := &llmconv.FakeClient{}
	a, _ := newTestActor(t, client, Config{})
	a.Start()
	defer a.Stop()
	if _, err := a.GetGreeting(context.Background()); err != nil {
		t.Fatalf("GetGreeting() error = %v", err)
	}

	client.FailNextQuery = errors.New("upstream unavailable")
	resp, err := a.ProcessMessage(context.Background(), "hello")
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}
	if resp.Err == "" {
		t.Fatalf("expected a classified upstream error string, got none")
	}
}
