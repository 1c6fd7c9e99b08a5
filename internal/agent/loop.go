package agent

import (
	"context"
	"fmt"
	"time"

	"todoassist/internal/chat"
	"todoassist/internal/observability"
	"todoassist/internal/provider"
	"todoassist/internal/tools"
)

// maxLoopSteps bounds one direct-mode turn; each step is one provider
// round trip.
const maxLoopSteps = 8

// ToolLoop is the direct agent mode: the model drives the five task
// tools itself, the way the assistant originally shipped. The
// deterministic Policy is the default engine; this mode exists for
// deployments that prefer the model's own conversational judgment.
type ToolLoop struct {
	provider provider.Provider
	dispatch *tools.Dispatcher
	opts     LLMOptions
}

func NewToolLoop(p provider.Provider, dispatch *tools.Dispatcher, opts LLMOptions) *ToolLoop {
	return &ToolLoop{provider: p, dispatch: dispatch, opts: opts}
}

// HandleUtterance runs one turn: provider call, tool execution, repeat
// until the model answers in plain text or the step limit is reached.
func (l *ToolLoop) HandleUtterance(ctx context.Context, sess *Session, text string) string {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	log := observability.LoggerFromContext(ctx).With("component", "tool_loop", "session_id", sess.ID)

	messages := []chat.Message{{Role: chat.RoleSystem, Content: assistantPrompt(time.Now())}}
	messages = append(messages, TrimHistory(sess.history, l.opts.HistoryLimit, l.opts.HistoryTokenLimit, nil)...)
	messages = append(messages, chat.Message{Role: chat.RoleUser, Content: text})

	finalText := ""
	for step := 0; step < maxLoopSteps; step++ {
		if err := ctx.Err(); err != nil {
			return replyApology
		}
		temp := l.opts.Temperature
		resp, err := l.provider.Chat(ctx, provider.ChatRequest{
			Messages:    messages,
			Tools:       l.dispatch.Definitions(),
			Temperature: &temp,
			MaxTokens:   l.opts.MaxTokens,
		})
		if err != nil {
			log.Error("provider chat failed", "step", step, "error", err)
			return replyApology
		}

		messages = append(messages, chat.Message{
			Role:      chat.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		if resp.Content != "" {
			finalText = resp.Content
		}
		if len(resp.ToolCalls) == 0 {
			break
		}

		for _, call := range resp.ToolCalls {
			result, err := l.dispatch.ExecuteCall(ctx, sess.OwnerID, call.Function.Name, []byte(call.Function.Arguments))
			if err != nil {
				log.Error("tool call failed", "tool", call.Function.Name, "error", err)
				result = fmt.Sprintf(`{"ok":false,"error":%q}`, "tool execution failed")
			}
			messages = append(messages, chat.Message{
				Role:       chat.RoleTool,
				Name:       call.Function.Name,
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	if finalText == "" {
		log.Warn("loop ended without a text reply")
		finalText = replyApology
	}
	sess.recordTurn(Turn{Utterance: text, Command: tools.CommandNone})
	sess.appendHistory(
		chat.Message{Role: chat.RoleUser, Content: text},
		chat.Message{Role: chat.RoleAssistant, Content: finalText},
	)
	return finalText
}
