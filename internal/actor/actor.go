package actor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nexuscore/agentruntime/internal/audit"
	"github.com/nexuscore/agentruntime/internal/llmconv"
	"github.com/nexuscore/agentruntime/internal/store"
)

type turnRequest struct {
	ctx    context.Context
	text   string
	respCh chan MessageResponse
}

// Actor owns one live LLM conversation for one session. Exactly one
// goroutine (its own worker) ever calls Conversation.Query; every other
// caller reaches the conversation only through the bounded turns channel.
type Actor struct {
	sessionID string
	config    Config
	client    llmconv.Client
	store     *store.Store
	audit     *audit.Service

	state   atomic.Value // State
	running atomic.Bool

	turns    chan *turnRequest
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	greetingReady chan struct{}
	greetingOnce  sync.Once
	greetingMu    sync.Mutex
	greeting      MessageResponse

	lastActivity atomic.Int64 // unix nanos

	costMu sync.Mutex
	cost   *store.SessionCost

	errMu   sync.Mutex
	lastErr error
}

// New constructs an Actor for sessionID. Call Start to spawn its worker.
func New(sessionID string, client llmconv.Client, st *store.Store, auditSvc *audit.Service, config Config) *Actor {
	config = config.withDefaults()
	a := &Actor{
		sessionID:     sessionID,
		config:        config,
		client:        client,
		store:         st,
		audit:         auditSvc,
		turns:         make(chan *turnRequest, config.QueueSize),
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
		greetingReady: make(chan struct{}),
		cost:          store.NewSessionCost(sessionID),
	}
	a.state.Store(StateInitializing)
	a.touch()
	return a
}

// SessionID returns the session this actor owns.
func (a *Actor) SessionID() string { return a.sessionID }

func (a *Actor) setState(s State) { a.state.Store(s) }

// State returns the actor's current lifecycle state.
func (a *Actor) State() State { return a.state.Load().(State) }

// IsRunning reports whether the worker goroutine is still alive.
func (a *Actor) IsRunning() bool { return a.running.Load() }

// IsProcessing reports whether a turn is currently in flight.
func (a *Actor) IsProcessing() bool { return a.State() == StateProcessing }

// touch records activity now, resetting the TTL clock.
func (a *Actor) touch() { a.lastActivity.Store(time.Now().UnixNano()) }

// IsExpired reports whether the actor has been idle longer than ttl.
func (a *Actor) IsExpired(ttl time.Duration) bool {
	last := time.Unix(0, a.lastActivity.Load())
	return time.Since(last) > ttl
}

// LastError returns the error that caused the worker to exit abnormally,
// if any.
func (a *Actor) LastError() error {
	a.errMu.Lock()
	defer a.errMu.Unlock()
	return a.lastErr
}

func (a *Actor) setLastErr(err error) {
	a.errMu.Lock()
	a.lastErr = err
	a.errMu.Unlock()
}

// Start spawns the worker goroutine and returns immediately.
func (a *Actor) Start() {
	a.running.Store(true)
	go a.run()
}

func (a *Actor) run() {
	defer close(a.done)
	defer a.running.Store(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-a.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	hooks := audit.NewHooks(a.sessionID, a.audit)
	conv, err := a.client.NewConversation(ctx, llmconv.ConversationOptions{
		SystemPrompt: a.config.SystemPrompt,
		Model:        a.config.Model,
		Hooks: llmconv.ConversationHooks{
			PreToolUse: func(ctx context.Context, toolName, toolCallID string, input json.RawMessage) error {
				return hooks.PreToolUse(ctx, toolName, toolCallID, input, "", "")
			},
			PostToolUse: func(ctx context.Context, toolName, toolCallID string, response json.RawMessage, success *bool, errMsg string) {
				hooks.PostToolUse(ctx, toolName, toolCallID, response, success, errMsg)
			},
		},
	})
	if err != nil {
		a.setLastErr(fmt.Errorf("actor: create conversation: %w", err))
		a.setState(StateError)
		a.finishGreeting(MessageResponse{Err: "I couldn't start this conversation."})
		a.finalize()
		return
	}
	defer conv.Close()

	greeting := a.runTurn(ctx, conv, a.config.GreetingPrompt)
	a.finishGreeting(greeting)
	a.setState(StateReady)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case req, ok := <-a.turns:
			if !ok || req == nil {
				a.finalize()
				return
			}
			a.setState(StateProcessing)
			resp := a.runTurn(req.ctx, conv, req.text)
			select {
			case req.respCh <- resp:
			default:
			}
			a.setState(StateReady)
			a.touch()
		case <-ticker.C:
			if !a.running.Load() {
				a.finalize()
				return
			}
		case <-a.stopCh:
			a.finalize()
			return
		}
	}
}

// runTurn sends one turn, streams the reply, and folds usage into the
// actor's SessionCost. It persists the user and assistant messages to the
// Atomic Store so the session transcript stays current even if the caller
// times out waiting for the response.
func (a *Actor) runTurn(ctx context.Context, conv llmconv.Conversation, text string) MessageResponse {
	if _, err := a.store.SaveMessage(a.sessionID, store.RoleUser, text); err != nil {
		a.logStoreFailure("save_user_message", err)
	}

	ch, err := conv.Query(ctx, text)
	if err != nil {
		resp := MessageResponse{Err: "An error occurred processing your request."}
		a.persistAgentMessage(resp)
		return resp
	}

	var textBuilder []byte
	var resp MessageResponse
	for msg := range ch {
		if msg.Text != "" {
			textBuilder = append(textBuilder, msg.Text...)
		}
		if msg.Usage != nil {
			a.addUsage(store.MessageUsage{
				MessageID:           msg.ID,
				InputTokens:         msg.Usage.InputTokens,
				OutputTokens:        msg.Usage.OutputTokens,
				CacheCreationTokens: msg.Usage.CacheCreationTokens,
				CacheReadTokens:     msg.Usage.CacheReadTokens,
			})
		}
		if msg.Result != nil {
			if msg.Result.TotalCostUSD > 0 {
				a.setReportedCost(msg.Result.TotalCostUSD)
			}
			resp.Err = classifyResult(msg.Result)
		}
	}

	resp.Text = string(textBuilder)
	if resp.Text == "" && resp.Err == "" {
		resp.Text = emptyResponseFallback
	}

	snap := a.costSnapshot()
	resp.InputTokens = snap.InputTokens
	resp.OutputTokens = snap.OutputTokens
	resp.CacheCreationTokens = snap.CacheCreationTokens
	resp.CacheReadTokens = snap.CacheReadTokens
	resp.ReportedCostUSD = snap.ReportedCostUSD

	a.persistAgentMessage(resp)
	return resp
}

func (a *Actor) persistAgentMessage(resp MessageResponse) {
	text := resp.Text
	if text == "" {
		text = resp.Err
	}
	if text == "" {
		return
	}
	if _, err := a.store.SaveMessage(a.sessionID, store.RoleAgent, text); err != nil {
		a.logStoreFailure("save_agent_message", err)
	}
}

func (a *Actor) addUsage(u store.MessageUsage) {
	a.costMu.Lock()
	a.cost.AddUsage(u)
	a.costMu.Unlock()
}

func (a *Actor) setReportedCost(usd float64) {
	a.costMu.Lock()
	a.cost.SetReportedCost(usd)
	a.costMu.Unlock()
}

func (a *Actor) costSnapshot() store.SessionCost {
	a.costMu.Lock()
	defer a.costMu.Unlock()
	return *a.cost
}

func (a *Actor) finishGreeting(resp MessageResponse) {
	a.greetingOnce.Do(func() {
		a.greetingMu.Lock()
		a.greeting = resp
		a.greetingMu.Unlock()
		close(a.greetingReady)
	})
}

// finalize runs once, on whatever path the worker exits by: persists the
// session's final cost and rolls it into the process-wide total.
func (a *Actor) finalize() {
	a.setState(StateClosed)
	snap := a.costSnapshot()
	if err := a.store.SaveSessionCost(&snap); err != nil {
		a.logStoreFailure("save_session_cost", err)
		return
	}
	_, err := a.store.UpdateGlobalCost(store.GlobalCostDelta{
		InputTokens:         snap.InputTokens,
		OutputTokens:        snap.OutputTokens,
		CacheCreationTokens: snap.CacheCreationTokens,
		CacheReadTokens:     snap.CacheReadTokens,
		CostUSD:             snap.ReportedCostUSD,
		NewSession:          true,
	})
	if err != nil {
		a.logStoreFailure("update_global_cost", err)
	}
}

func (a *Actor) logStoreFailure(action string, err error) {
	a.audit.LogResolutionEvent(context.Background(), audit.EventSessionStop, a.sessionID, "", map[string]any{
		"actor_store_failure": action,
		"error":               err.Error(),
	})
}

// GetGreeting returns the startup greeting, falling back to a canned reply
// if the greeting window elapses first. It never errors on timeout — the
// worker keeps producing the real greeting in the background.
func (a *Actor) GetGreeting(ctx context.Context) (MessageResponse, error) {
	select {
	case <-a.greetingReady:
		a.greetingMu.Lock()
		resp := a.greeting
		a.greetingMu.Unlock()
		return resp, nil
	case <-time.After(a.config.GreetingTimeout):
		return MessageResponse{Text: fallbackGreeting}, nil
	case <-ctx.Done():
		return MessageResponse{}, ctx.Err()
	}
}

// ProcessMessage sends one user turn and waits for the assistant's reply.
func (a *Actor) ProcessMessage(ctx context.Context, text string) (MessageResponse, error) {
	if !a.running.Load() {
		return MessageResponse{}, ErrSessionClosed
	}
	a.touch()

	req := &turnRequest{ctx: ctx, text: text, respCh: make(chan MessageResponse, 1)}
	select {
	case a.turns <- req:
	default:
		return MessageResponse{}, ErrQueueFull
	}

	select {
	case resp := <-req.respCh:
		return resp, nil
	case <-time.After(a.config.ResponseTimeout):
		return MessageResponse{}, ErrResponseTimeout
	case <-ctx.Done():
		return MessageResponse{}, ctx.Err()
	case <-a.done:
		return MessageResponse{}, ErrSessionClosed
	}
}

// Stop signals the worker to exit and waits up to the configured graceful
// window for it to do so. The signal cancels the worker's own context at
// once (an in-progress greeting turn is aborted); a user turn already in
// flight runs under its caller's context and is not cancelled, and the
// worker exits after it. If the worker has not exited when the window ends,
// Stop returns anyway and the worker is not force-cancelled. Idempotent.
func (a *Actor) Stop() {
	a.stopOnce.Do(func() {
		close(a.stopCh)
	})
	select {
	case <-a.done:
	case <-time.After(a.config.ShutdownWindow):
	}
}
