package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"todoassist/internal/chat"
	"todoassist/internal/task"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_TaskCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.AddTask(ctx, "owner-1", "Buy milk", "2 liters")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if created.ID == "" || created.Completed {
		t.Fatalf("unexpected task: %+v", created)
	}

	// Round-trip: add then list includes the pending task.
	tasks, err := store.ListTasks(ctx, "owner-1", task.FilterAll)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" || tasks[0].Completed {
		t.Fatalf("ListTasks=%+v", tasks)
	}

	// Toggle on.
	toggled, err := store.CompleteTask(ctx, "owner-1", created.ID)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if !toggled.Completed || toggled.CompletedAt == nil {
		t.Fatalf("toggle on failed: %+v", toggled)
	}

	// Toggle back off.
	toggled, err = store.CompleteTask(ctx, "owner-1", created.ID)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if toggled.Completed || toggled.CompletedAt != nil {
		t.Fatalf("toggle off failed: %+v", toggled)
	}

	// Update title and description.
	desc := "3 liters"
	updated, err := store.UpdateTask(ctx, "owner-1", created.ID, "Buy oat milk", &desc)
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Title != "Buy oat milk" || updated.Description != "3 liters" {
		t.Fatalf("update failed: %+v", updated)
	}

	// Update with nil description keeps the old one.
	updated, err = store.UpdateTask(ctx, "owner-1", created.ID, "Buy oat milk", nil)
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Description != "3 liters" {
		t.Fatalf("nil description should be preserved, got %q", updated.Description)
	}

	// Delete.
	if err := store.DeleteTask(ctx, "owner-1", created.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if err := store.DeleteTask(ctx, "owner-1", created.ID); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_OwnerScoping(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.AddTask(ctx, "owner-1", "Private task", "")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	// Another owner cannot see, toggle, update or delete it.
	tasks, err := store.ListTasks(ctx, "owner-2", task.FilterAll)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("owner-2 should see no tasks, got %d", len(tasks))
	}
	if _, err := store.CompleteTask(ctx, "owner-2", created.ID); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("CompleteTask cross-owner: %v", err)
	}
	if _, err := store.UpdateTask(ctx, "owner-2", created.ID, "stolen", nil); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("UpdateTask cross-owner: %v", err)
	}
	if err := store.DeleteTask(ctx, "owner-2", created.ID); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("DeleteTask cross-owner: %v", err)
	}
}

func TestSQLiteStore_ListFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, _ := store.AddTask(ctx, "owner-1", "Task A", "")
	if _, err := store.AddTask(ctx, "owner-1", "Task B", ""); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if _, err := store.CompleteTask(ctx, "owner-1", a.ID); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	pending, err := store.ListTasks(ctx, "owner-1", task.FilterPending)
	if err != nil {
		t.Fatalf("ListTasks pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Title != "Task B" {
		t.Fatalf("pending=%+v", pending)
	}

	completed, err := store.ListTasks(ctx, "owner-1", task.FilterCompleted)
	if err != nil {
		t.Fatalf("ListTasks completed: %v", err)
	}
	if len(completed) != 1 || completed[0].Title != "Task A" {
		t.Fatalf("completed=%+v", completed)
	}
}

func TestSQLiteStore_AddTaskValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddTask(ctx, "owner-1", "   ", "")
	var verr *task.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

func TestSQLiteStore_UsersAndTokens(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u, err := store.CreateUser(ctx, "Ada@Example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.Email != "ada@example.com" {
		t.Fatalf("email should be normalized, got %q", u.Email)
	}
	if _, err := store.CreateUser(ctx, "ada@example.com", "hash2"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate email: %v", err)
	}

	loaded, err := store.GetUserByEmail(ctx, "ADA@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if loaded.ID != u.ID {
		t.Fatalf("ID mismatch")
	}
	if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing user: %v", err)
	}

	tok, err := store.CreateToken(ctx, u.ID, time.Hour)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	got, err := store.GetToken(ctx, tok.Token)
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if got.UserID != u.ID {
		t.Fatalf("UserID mismatch")
	}

	expired, err := store.CreateToken(ctx, u.ID, -time.Minute)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	if _, err := store.GetToken(ctx, expired.Token); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expired token should be rejected: %v", err)
	}
	if err := store.DeleteExpiredTokens(ctx); err != nil {
		t.Fatalf("DeleteExpiredTokens: %v", err)
	}
}

func TestSQLiteStore_Conversations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "owner-1")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if _, err := store.GetConversation(ctx, "owner-2", conv.ID); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("cross-owner conversation: %v", err)
	}

	msgs := []chat.Message{
		{Role: chat.RoleUser, Content: "add buy milk"},
		{Role: chat.RoleAssistant, Content: "Added."},
		{Role: chat.RoleUser, Content: "list my tasks"},
	}
	for _, m := range msgs {
		if err := store.AppendMessage(ctx, conv.ID, m); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	loaded, err := store.LoadMessages(ctx, conv.ID, 2)
	if err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("LoadMessages count=%d, want 2", len(loaded))
	}
	// Most recent two, oldest first.
	if loaded[0].Content != "Added." || loaded[1].Content != "list my tasks" {
		t.Fatalf("LoadMessages order wrong: %+v", loaded)
	}
}
