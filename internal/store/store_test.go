package store

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestSaveMessageCreatesSessionAndTitle(t *testing.T) {
	s := newTestStore(t)
	id := uuid.NewString()

	msg, err := s.SaveMessage(id, RoleUser, "what does this project do anyway I am curious about the internals")
	if err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}
	if msg.ID == "" {
		t.Fatalf("expected message id to be assigned")
	}

	session, err := s.GetSession(id)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if !strings.HasSuffix(session.Title, "...") {
		t.Fatalf("expected truncated title, got %q", session.Title)
	}
	if len(session.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(session.Messages))
	}
}

func TestSaveMessageTitleSetOnce(t *testing.T) {
	s := newTestStore(t)
	id := uuid.NewString()

	if _, err := s.SaveMessage(id, RoleUser, "first"); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}
	if _, err := s.SaveMessage(id, RoleUser, "second"); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}

	session, err := s.GetSession(id)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if session.Title != "first" {
		t.Fatalf("expected title to stay %q, got %q", "first", session.Title)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetSession(uuid.NewString()); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetSessionInvalidID(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetSession("not-a-uuid"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for invalid id, got %v", err)
	}
}

func TestListSessionsSortedByUpdatedAt(t *testing.T) {
	s := newTestStore(t)
	a := uuid.NewString()
	b := uuid.NewString()

	if _, err := s.SaveMessage(a, RoleUser, "a"); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}
	if _, err := s.SaveMessage(b, RoleUser, "b"); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}
	if _, err := s.SaveMessage(a, RoleAgent, "a reply"); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}

	summaries, err := s.ListSessions(0)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(summaries))
	}
	if summaries[0].ID != a {
		t.Fatalf("expected most recently updated session %q first, got %q", a, summaries[0].ID)
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t)
	id := uuid.NewString()
	if _, err := s.SaveMessage(id, RoleUser, "hi"); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}

	ok, err := s.DeleteSession(id)
	if err != nil || !ok {
		t.Fatalf("DeleteSession() = %v, %v", ok, err)
	}
	if _, err := s.GetSession(id); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	ok, err = s.DeleteSession(id)
	if err != nil || ok {
		t.Fatalf("expected second delete to be a no-op, got %v, %v", ok, err)
	}
}

func TestAddUsageIdempotent(t *testing.T) {
	c := NewSessionCost(uuid.NewString())
	usage := MessageUsage{MessageID: "m1", InputTokens: 10, OutputTokens: 5}
	c.AddUsage(usage)
	c.AddUsage(usage)

	if c.InputTokens != 10 || c.OutputTokens != 5 {
		t.Fatalf("expected dedup on replay, got input=%d output=%d", c.InputTokens, c.OutputTokens)
	}
}

func TestSaveAndGetSessionCost(t *testing.T) {
	s := newTestStore(t)
	id := uuid.NewString()
	cost := NewSessionCost(id)
	cost.AddUsage(MessageUsage{MessageID: "m1", InputTokens: 100})

	if err := s.SaveSessionCost(cost); err != nil {
		t.Fatalf("SaveSessionCost() error = %v", err)
	}

	loaded, err := s.GetSessionCost(id)
	if err != nil {
		t.Fatalf("GetSessionCost() error = %v", err)
	}
	if loaded.InputTokens != 100 {
		t.Fatalf("expected 100 input tokens, got %d", loaded.InputTokens)
	}
}

func TestUpdateGlobalCostAccumulates(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpdateGlobalCost(GlobalCostDelta{InputTokens: 10, CostUSD: 0.5, NewSession: true}); err != nil {
		t.Fatalf("UpdateGlobalCost() error = %v", err)
	}
	got, err := s.UpdateGlobalCost(GlobalCostDelta{InputTokens: 5, CostUSD: 0.25})
	if err != nil {
		t.Fatalf("UpdateGlobalCost() error = %v", err)
	}

	if got.InputTokens != 15 {
		t.Fatalf("expected accumulated 15 input tokens, got %d", got.InputTokens)
	}
	if got.TotalCostUSD != 0.75 {
		t.Fatalf("expected accumulated cost 0.75, got %v", got.TotalCostUSD)
	}
	if got.SessionCount != 1 {
		t.Fatalf("expected session_count 1, got %d", got.SessionCount)
	}
}

func TestRegisterAndDeleteTranscript(t *testing.T) {
	s := newTestStore(t)

	meta, err := s.RegisterTranscript(strings.NewReader("hello world"), "clip.txt", SourceUpload, "")
	if err != nil {
		t.Fatalf("RegisterTranscript() error = %v", err)
	}
	if meta.FileSize != int64(len("hello world")) {
		t.Fatalf("expected file size %d, got %d", len("hello world"), meta.FileSize)
	}

	got, err := s.GetTranscript(meta.ID)
	if err != nil {
		t.Fatalf("GetTranscript() error = %v", err)
	}
	if got.Filename != "clip.txt" {
		t.Fatalf("expected filename clip.txt, got %q", got.Filename)
	}

	ok, err := s.DeleteTranscript(meta.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteTranscript() = %v, %v", ok, err)
	}
	if _, err := s.GetTranscript(meta.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
