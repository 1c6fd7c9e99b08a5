package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"todoassist/internal/chat"
	"todoassist/internal/storage"
	"todoassist/internal/task"
)

// Result is the structured outcome of one command.
type Result struct {
	Command Command
	Task    *task.Task
	Tasks   []task.Task
	Deleted bool
}

// Handler executes one command against the store for one owner.
type Handler func(ctx context.Context, ownerID string, args Args) (Result, error)

// Dispatcher maps commands onto store operations and exposes the same
// surface as OpenAI function tools for the LLM front-end.
type Dispatcher struct {
	store    storage.TaskStore
	handlers map[Command]Handler
}

func NewDispatcher(store storage.TaskStore) *Dispatcher {
	d := &Dispatcher{store: store}
	d.handlers = map[Command]Handler{
		CommandAdd:      d.add,
		CommandList:     d.list,
		CommandComplete: d.complete,
		CommandUpdate:   d.update,
		CommandDelete:   d.delete,
	}
	return d
}

// Dispatch runs a typed command. Unknown commands are programmer errors.
func (d *Dispatcher) Dispatch(ctx context.Context, ownerID string, cmd Command, args Args) (Result, error) {
	h, ok := d.handlers[cmd]
	if !ok {
		return Result{}, fmt.Errorf("no handler for command %s", cmd)
	}
	return h(ctx, ownerID, args)
}

func (d *Dispatcher) add(ctx context.Context, ownerID string, args Args) (Result, error) {
	t, err := d.store.AddTask(ctx, ownerID, args.Title, args.Description)
	if err != nil {
		return Result{}, err
	}
	return Result{Command: CommandAdd, Task: &t}, nil
}

func (d *Dispatcher) list(ctx context.Context, ownerID string, args Args) (Result, error) {
	filter := args.Filter
	if filter == "" {
		filter = task.FilterAll
	}
	tasks, err := d.store.ListTasks(ctx, ownerID, filter)
	if err != nil {
		return Result{}, err
	}
	return Result{Command: CommandList, Tasks: tasks}, nil
}

func (d *Dispatcher) complete(ctx context.Context, ownerID string, args Args) (Result, error) {
	t, err := d.store.CompleteTask(ctx, ownerID, args.TaskID)
	if err != nil {
		return Result{}, err
	}
	return Result{Command: CommandComplete, Task: &t}, nil
}

func (d *Dispatcher) update(ctx context.Context, ownerID string, args Args) (Result, error) {
	var desc *string
	if args.DescriptionSet {
		desc = &args.Description
	}
	t, err := d.store.UpdateTask(ctx, ownerID, args.TaskID, args.Title, desc)
	if err != nil {
		return Result{}, err
	}
	return Result{Command: CommandUpdate, Task: &t}, nil
}

func (d *Dispatcher) delete(ctx context.Context, ownerID string, args Args) (Result, error) {
	if err := d.store.DeleteTask(ctx, ownerID, args.TaskID); err != nil {
		return Result{}, err
	}
	return Result{Command: CommandDelete, Deleted: true}, nil
}

// --- LLM tool surface ---

// Definitions returns the OpenAI-style tool definitions for all five
// commands, ordered for stable prompts.
func (d *Dispatcher) Definitions() []chat.ToolDef {
	return []chat.ToolDef{
		def(NameAdd, "Add a new task to the user's todo list.", map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":       map[string]any{"type": "string", "description": "Task title (1-100 characters)"},
				"description": map[string]any{"type": "string", "description": "Optional task description (0-500 characters)"},
			},
			"required": []string{"title"},
		}),
		def(NameList, "List the user's tasks. Each task has 'id' (short, display only) and 'full_id' (canonical; use this for complete/update/delete).", map[string]any{
			"type": "object",
			"properties": map[string]any{
				"filter": map[string]any{"type": "string", "enum": []string{"all", "pending", "completed"}},
			},
		}),
		def(NameComplete, "Toggle a task's completion status. Requires the canonical full_id from list_tasks.", map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_id": map[string]any{"type": "string", "description": "Canonical full task id"},
			},
			"required": []string{"task_id"},
		}),
		def(NameUpdate, "Update a task's title and optionally its description. Requires the canonical full_id.", map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_id":     map[string]any{"type": "string", "description": "Canonical full task id"},
				"title":       map[string]any{"type": "string", "description": "New title (1-100 characters)"},
				"description": map[string]any{"type": "string", "description": "New description"},
			},
			"required": []string{"task_id", "title"},
		}),
		def(NameDelete, "Permanently delete a task. Requires the canonical full_id from list_tasks.", map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_id": map[string]any{"type": "string", "description": "Canonical full task id"},
			},
			"required": []string{"task_id"},
		}),
	}
}

func def(name, description string, params map[string]any) chat.ToolDef {
	return chat.ToolDef{
		Type: "function",
		Function: chat.ToolFunction{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
	}
}

type rawArgs struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Filter      string  `json:"filter"`
	TaskID      string  `json:"task_id"`
}

// ExecuteCall runs a raw model tool call and renders a JSON result for
// the tool message. Domain failures come back as ok:false payloads so the
// model can react; only malformed calls are errors.
func (d *Dispatcher) ExecuteCall(ctx context.Context, ownerID, name string, args json.RawMessage) (string, error) {
	cmd, err := ParseCommand(name)
	if err != nil {
		return "", err
	}
	var raw rawArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &raw); err != nil {
			return "", fmt.Errorf("parse %s args: %w", name, err)
		}
	}

	parsed := Args{
		Title:  raw.Title,
		TaskID: raw.TaskID,
	}
	if raw.Description != nil {
		parsed.Description = *raw.Description
		parsed.DescriptionSet = true
	}
	if cmd == CommandList {
		filter, ferr := task.ParseFilter(raw.Filter)
		if ferr != nil {
			return errJSON(ferr), nil
		}
		parsed.Filter = filter
	}

	result, err := d.Dispatch(ctx, ownerID, cmd, parsed)
	if err != nil {
		var verr *task.ValidationError
		if errors.As(err, &verr) || errors.Is(err, task.ErrNotFound) {
			return errJSON(err), nil
		}
		return "", err
	}
	return resultJSON(result), nil
}

// taskView is the task payload handed to the model: both the short
// display id and the canonical full_id, per the original tool contract.
type taskView struct {
	ID          string `json:"id"`
	FullID      string `json:"full_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
}

func viewOf(t task.Task) taskView {
	return taskView{
		ID:          t.ShortID(),
		FullID:      t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
	}
}

func resultJSON(r Result) string {
	payload := map[string]any{"ok": true}
	switch {
	case r.Command == CommandList:
		views := make([]taskView, 0, len(r.Tasks))
		for _, t := range r.Tasks {
			views = append(views, viewOf(t))
		}
		payload["tasks"] = views
		payload["count"] = len(views)
	case r.Deleted:
		payload["deleted"] = true
	case r.Task != nil:
		payload["task"] = viewOf(*r.Task)
	}
	return mustJSON(payload)
}

func errJSON(err error) string {
	return mustJSON(map[string]any{"ok": false, "error": err.Error()})
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"ok":false,"error":"marshal result: %s"}`, err.Error())
	}
	return string(data)
}
