package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestHooksPreToolUseBlocksDangerousCommand(t *testing.T) {
	svc := newTestService(t)
	hooks := NewHooks("s1", svc)

	err := hooks.PreToolUse(context.Background(), "bash", "call-1", nil, "rm -rf /", "")
	var blocked *ErrToolBlocked
	if !errors.As(err, &blocked) {
		t.Fatalf("expected ErrToolBlocked, got %v", err)
	}

	page, _ := svc.GetSessionAuditLog("s1", 0, 0, nil)
	if page.TotalCount != 1 || page.Entries[0].EventType != EventToolBlocked {
		t.Fatalf("expected one tool_blocked event, got %+v", page.Entries)
	}
}

func TestHooksPreThenPostToolUseRecordsDuration(t *testing.T) {
	svc := newTestService(t)
	hooks := NewHooks("s2", svc)
	ctx := context.Background()

	if err := hooks.PreToolUse(ctx, "bash", "call-2", nil, "ls", ""); err != nil {
		t.Fatalf("PreToolUse() error = %v", err)
	}
	hooks.PostToolUse(ctx, "bash", "call-2", json.RawMessage(`"ok"`), nil, "")

	page, err := svc.GetSessionAuditLog("s2", 0, 0, nil)
	if err != nil {
		t.Fatalf("GetSessionAuditLog() error = %v", err)
	}
	if page.TotalCount != 2 {
		t.Fatalf("expected pre+post events, got %d", page.TotalCount)
	}
	post := page.Entries[0] // newest first
	if post.EventType != EventPostToolUse || post.DurationMS == nil {
		t.Fatalf("expected post_tool_use with a recorded duration, got %+v", post)
	}
	if post.Success == nil || !*post.Success {
		t.Fatalf("expected success=true by default, got %+v", post.Success)
	}
}

func TestHooksStopAndSubagentStop(t *testing.T) {
	svc := newTestService(t)
	hooks := NewHooks("s3", svc)
	ctx := context.Background()

	hooks.Stop(ctx, "client_disconnect")
	hooks.SubagentStop(ctx, "sub-1", "completed")

	page, err := svc.GetSessionAuditLog("s3", 0, 0, nil)
	if err != nil {
		t.Fatalf("GetSessionAuditLog() error = %v", err)
	}
	if page.TotalCount != 2 {
		t.Fatalf("expected 2 events, got %d", page.TotalCount)
	}
}

func TestClassifySuccessDefaultsTrueWithoutError(t *testing.T) {
	if !classifySuccess(nil, "") {
		t.Fatalf("expected default success=true")
	}
	if classifySuccess(nil, "boom") {
		t.Fatalf("expected explicit error to classify as failure")
	}
	falseVal := false
	if classifySuccess(&falseVal, "") {
		t.Fatalf("expected explicit success=false to win")
	}
}
