package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"todoassist/internal/chat"
	"todoassist/internal/observability"
	"todoassist/internal/provider"
	"todoassist/internal/task"
	"todoassist/internal/tools"
)

// LLMOptions bound a single classification or loop call.
type LLMOptions struct {
	MaxTokens         int
	Temperature       float64
	HistoryLimit      int
	HistoryTokenLimit int
}

// LLMClassifier asks the provider to map an utterance onto one command
// via tool calling. It degrades to the rule classifier when the provider
// fails, so the assistant keeps working through outages.
type LLMClassifier struct {
	provider provider.Provider
	fallback *RuleClassifier
	opts     LLMOptions
	log      *slog.Logger
}

func NewLLMClassifier(p provider.Provider, opts LLMOptions) *LLMClassifier {
	return &LLMClassifier{
		provider: p,
		fallback: NewRuleClassifier(),
		opts:     opts,
		log:      observability.Logger().With("component", "llm_classifier"),
	}
}

// classificationDefs mirror the command tool surface, with task_query in
// place of task_id: the model quotes the user, the policy resolves ids.
func classificationDefs() []chat.ToolDef {
	fn := func(name, desc string, props map[string]any, required []string) chat.ToolDef {
		return chat.ToolDef{
			Type: "function",
			Function: chat.ToolFunction{
				Name:        name,
				Description: desc,
				Parameters: map[string]any{
					"type":       "object",
					"properties": props,
					"required":   required,
				},
			},
		}
	}
	q := map[string]any{"type": "string", "description": "The user's own words for the task they mean"}
	return []chat.ToolDef{
		fn(tools.NameAdd, "The user wants to add a task.", map[string]any{
			"title":       map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
		}, []string{"title"}),
		fn(tools.NameList, "The user wants to see their tasks.", map[string]any{
			"filter": map[string]any{"type": "string", "enum": []string{"all", "pending", "completed"}},
		}, nil),
		fn(tools.NameComplete, "The user wants to mark a task done (or undone).", map[string]any{
			"task_query": q,
		}, []string{"task_query"}),
		fn(tools.NameUpdate, "The user wants to rename or edit a task.", map[string]any{
			"task_query":  q,
			"title":       map[string]any{"type": "string", "description": "The new title"},
			"description": map[string]any{"type": "string"},
		}, []string{"task_query", "title"}),
		fn(tools.NameDelete, "The user wants to delete a task.", map[string]any{
			"task_query": q,
		}, []string{"task_query"}),
	}
}

func (c *LLMClassifier) Classify(ctx context.Context, history []chat.Message, utterance string) (Intent, error) {
	messages := []chat.Message{{Role: chat.RoleSystem, Content: classifierPrompt}}
	messages = append(messages, TrimHistory(history, c.opts.HistoryLimit, c.opts.HistoryTokenLimit, nil)...)
	messages = append(messages, chat.Message{Role: chat.RoleUser, Content: utterance})

	temp := c.opts.Temperature
	resp, err := c.provider.Chat(ctx, provider.ChatRequest{
		Messages:    messages,
		Tools:       classificationDefs(),
		Temperature: &temp,
		MaxTokens:   c.opts.MaxTokens,
	})
	if err != nil {
		c.log.Warn("provider classification failed, using rule classifier", "error", err)
		return c.fallback.Classify(ctx, history, utterance)
	}
	if len(resp.ToolCalls) == 0 {
		// Plain text means no task operation was recognized.
		return Intent{Command: tools.CommandNone}, nil
	}

	intent, err := intentFromToolCall(resp.ToolCalls[0])
	if err != nil {
		c.log.Warn("unusable tool call, using rule classifier", "error", err)
		return c.fallback.Classify(ctx, history, utterance)
	}
	return intent, nil
}

func intentFromToolCall(call chat.ToolCall) (Intent, error) {
	cmd, err := tools.ParseCommand(call.Function.Name)
	if err != nil {
		return Intent{}, err
	}
	var args struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Filter      string `json:"filter"`
		TaskQuery   string `json:"task_query"`
	}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return Intent{}, fmt.Errorf("parse %s arguments: %w", call.Function.Name, err)
		}
	}
	intent := Intent{
		Command:     cmd,
		Title:       args.Title,
		Description: args.Description,
		Query:       args.TaskQuery,
	}
	if cmd == tools.CommandList {
		filter, ferr := task.ParseFilter(args.Filter)
		if ferr != nil {
			filter = task.FilterAll
		}
		intent.Filter = filter
	}
	if cmd.Mutating() && intent.Query == "" {
		return Intent{}, fmt.Errorf("%s call without task_query", call.Function.Name)
	}
	return intent, nil
}
