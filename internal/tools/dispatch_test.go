package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"todoassist/internal/storage"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewDispatcher(store)
}

func TestParseCommand(t *testing.T) {
	for _, name := range []string{NameAdd, NameList, NameComplete, NameUpdate, NameDelete} {
		cmd, err := ParseCommand(name)
		if err != nil {
			t.Fatalf("ParseCommand(%q): %v", name, err)
		}
		if cmd.String() != name {
			t.Fatalf("round-trip %q -> %q", name, cmd.String())
		}
	}
	if _, err := ParseCommand("drop_database"); err == nil {
		t.Fatalf("unknown tool should error")
	}
}

func TestCommandMutating(t *testing.T) {
	if CommandAdd.Mutating() || CommandList.Mutating() {
		t.Fatalf("add/list must not require confirmation")
	}
	if !CommandComplete.Mutating() || !CommandUpdate.Mutating() || !CommandDelete.Mutating() {
		t.Fatalf("complete/update/delete must require confirmation")
	}
}

func TestDispatcher_AddListDelete(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	added, err := d.Dispatch(ctx, "owner-1", CommandAdd, Args{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.Task == nil || added.Task.Title != "Buy milk" {
		t.Fatalf("add result: %+v", added)
	}

	listed, err := d.Dispatch(ctx, "owner-1", CommandList, Args{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed.Tasks) != 1 {
		t.Fatalf("list count=%d", len(listed.Tasks))
	}

	deleted, err := d.Dispatch(ctx, "owner-1", CommandDelete, Args{TaskID: added.Task.ID})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted.Deleted {
		t.Fatalf("delete result: %+v", deleted)
	}
}

func TestExecuteCall_ListCarriesFullID(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	added, err := d.Dispatch(ctx, "owner-1", CommandAdd, Args{Title: "Call mom"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := d.ExecuteCall(ctx, "owner-1", NameList, json.RawMessage(`{"filter":"all"}`))
	if err != nil {
		t.Fatalf("ExecuteCall: %v", err)
	}
	var payload struct {
		OK    bool `json:"ok"`
		Tasks []struct {
			ID     string `json:"id"`
			FullID string `json:"full_id"`
			Title  string `json:"title"`
		} `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !payload.OK || len(payload.Tasks) != 1 {
		t.Fatalf("payload: %s", out)
	}
	if payload.Tasks[0].FullID != added.Task.ID {
		t.Fatalf("full_id=%q, want %q", payload.Tasks[0].FullID, added.Task.ID)
	}
	if !strings.HasPrefix(payload.Tasks[0].FullID, payload.Tasks[0].ID) {
		t.Fatalf("short id should be a prefix of full_id")
	}
}

func TestExecuteCall_DomainErrorsAreToolPayloads(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	// Empty title: validation failure surfaces as ok:false, not as error.
	out, err := d.ExecuteCall(ctx, "owner-1", NameAdd, json.RawMessage(`{"title":"  "}`))
	if err != nil {
		t.Fatalf("ExecuteCall: %v", err)
	}
	if !strings.Contains(out, `"ok":false`) {
		t.Fatalf("want ok:false payload, got %s", out)
	}

	// Missing task: same.
	out, err = d.ExecuteCall(ctx, "owner-1", NameDelete, json.RawMessage(`{"task_id":"nope"}`))
	if err != nil {
		t.Fatalf("ExecuteCall: %v", err)
	}
	if !strings.Contains(out, `"ok":false`) {
		t.Fatalf("want ok:false payload, got %s", out)
	}

	// Unknown tool is a hard error.
	if _, err := d.ExecuteCall(ctx, "owner-1", "nuke_everything", nil); err == nil {
		t.Fatalf("unknown tool should be a hard error")
	}
}

func TestDefinitions_CoverAllCommands(t *testing.T) {
	d := newTestDispatcher(t)
	defs := d.Definitions()
	if len(defs) != 5 {
		t.Fatalf("definitions count=%d, want 5", len(defs))
	}
	seen := map[string]bool{}
	for _, def := range defs {
		if def.Type != "function" {
			t.Fatalf("type=%q", def.Type)
		}
		seen[def.Function.Name] = true
	}
	for _, name := range []string{NameAdd, NameList, NameComplete, NameUpdate, NameDelete} {
		if !seen[name] {
			t.Fatalf("missing definition for %s", name)
		}
	}
}
