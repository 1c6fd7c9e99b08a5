package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"todoassist/internal/chat"
	"todoassist/internal/provider"
	"todoassist/internal/tools"
)

func toolCallResponse(name, arguments string) provider.ChatResponse {
	return provider.ChatResponse{
		ToolCalls: []chat.ToolCall{{
			ID:   "call-1",
			Type: "function",
			Function: chat.ToolCallFunction{
				Name:      name,
				Arguments: arguments,
			},
		}},
		FinishReason: "tool_calls",
	}
}

func TestLLMClassifier_ToolCallToIntent(t *testing.T) {
	mock := provider.NewMock(toolCallResponse(tools.NameDelete, `{"task_query":"milk wala task"}`))
	c := NewLLMClassifier(mock, LLMOptions{})

	intent, err := c.Classify(context.Background(), nil, "milk wala task hata do")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if intent.Command != tools.CommandDelete || intent.Query != "milk wala task" {
		t.Fatalf("intent=%+v", intent)
	}
	if len(mock.Requests) != 1 || len(mock.Requests[0].Tools) != 5 {
		t.Fatalf("want one request carrying five tool defs")
	}
}

func TestLLMClassifier_PlainTextMeansNone(t *testing.T) {
	mock := provider.NewMock(provider.ChatResponse{Content: "Hello!", FinishReason: "stop"})
	c := NewLLMClassifier(mock, LLMOptions{})

	intent, err := c.Classify(context.Background(), nil, "hi")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if intent.Command != tools.CommandNone {
		t.Fatalf("intent=%+v, want CommandNone", intent)
	}
}

func TestLLMClassifier_FallsBackOnProviderError(t *testing.T) {
	mock := provider.NewMock()
	mock.Err = errors.New("upstream 503")
	c := NewLLMClassifier(mock, LLMOptions{})

	intent, err := c.Classify(context.Background(), nil, "delete the milk task")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if intent.Command != tools.CommandDelete || intent.Query != "milk" {
		t.Fatalf("fallback intent=%+v", intent)
	}
}

func TestLLMClassifier_FallsBackOnMissingTaskQuery(t *testing.T) {
	// A mutating call without task_query is unusable; the rule
	// classifier takes over.
	mock := provider.NewMock(toolCallResponse(tools.NameDelete, `{}`))
	c := NewLLMClassifier(mock, LLMOptions{})

	intent, err := c.Classify(context.Background(), nil, "remove groceries")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if intent.Command != tools.CommandDelete || intent.Query != "groceries" {
		t.Fatalf("fallback intent=%+v", intent)
	}
}

func TestToolLoop_ExecutesToolsThenAnswers(t *testing.T) {
	store := seededStore(t, "Buy milk")
	fullID := store.tasks[0].ID

	mock := provider.NewMock(
		toolCallResponse(tools.NameDelete, `{"task_id":"`+fullID+`"}`),
		provider.ChatResponse{Content: "Done! Deleted \"Buy milk\".", FinishReason: "stop"},
	)
	loop := NewToolLoop(mock, tools.NewDispatcher(store), LLMOptions{})
	sess := NewSession("conv-1", "owner-1")

	reply := loop.HandleUtterance(context.Background(), sess, "delete milk")
	if !strings.Contains(reply, "Done!") {
		t.Fatalf("reply=%q", reply)
	}
	if len(store.deleteCalls) != 1 || store.deleteCalls[0] != fullID {
		t.Fatalf("deleteCalls=%v", store.deleteCalls)
	}

	// Second round trip must carry the tool result back to the model.
	if len(mock.Requests) != 2 {
		t.Fatalf("requests=%d, want 2", len(mock.Requests))
	}
	last := mock.Requests[1].Messages
	foundToolMsg := false
	for _, m := range last {
		if m.Role == chat.RoleTool && m.ToolCallID == "call-1" {
			foundToolMsg = true
		}
	}
	if !foundToolMsg {
		t.Fatalf("tool result message missing from second request")
	}
}

func TestToolLoop_ProviderErrorIsApology(t *testing.T) {
	store := seededStore(t, "Buy milk")
	mock := provider.NewMock()
	mock.Err = errors.New("timeout")
	loop := NewToolLoop(mock, tools.NewDispatcher(store), LLMOptions{})
	sess := NewSession("conv-1", "owner-1")

	reply := loop.HandleUtterance(context.Background(), sess, "delete milk")
	if reply != replyApology {
		t.Fatalf("reply=%q", reply)
	}
	if store.mutationCalls() != 0 {
		t.Fatalf("store must not be touched")
	}
}
