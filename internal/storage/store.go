package storage

import (
	"context"
	"time"

	"todoassist/internal/chat"
	"todoassist/internal/task"
)

// User is a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Token is an opaque bearer credential for the web API.
type Token struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Conversation groups chat messages for one user.
type Conversation struct {
	ID        string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskStore is the collaborator contract consumed by the resolution
// policy. Identifiers passed in must always be canonical full ids.
type TaskStore interface {
	AddTask(ctx context.Context, ownerID, title, description string) (task.Task, error)
	ListTasks(ctx context.Context, ownerID string, filter task.Filter) ([]task.Task, error)
	// CompleteTask toggles the completion flag.
	CompleteTask(ctx context.Context, ownerID, taskID string) (task.Task, error)
	UpdateTask(ctx context.Context, ownerID, taskID, title string, description *string) (task.Task, error)
	DeleteTask(ctx context.Context, ownerID, taskID string) error
}

// Store is the full persistence interface behind the web and console
// surfaces.
type Store interface {
	TaskStore

	// User operations
	CreateUser(ctx context.Context, email, passwordHash string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)

	// Token operations
	CreateToken(ctx context.Context, userID string, ttl time.Duration) (Token, error)
	GetToken(ctx context.Context, token string) (Token, error)
	DeleteExpiredTokens(ctx context.Context) error

	// Conversation operations
	CreateConversation(ctx context.Context, ownerID string) (Conversation, error)
	GetConversation(ctx context.Context, ownerID, id string) (Conversation, error)
	AppendMessage(ctx context.Context, conversationID string, msg chat.Message) error
	LoadMessages(ctx context.Context, conversationID string, limit int) ([]chat.Message, error)

	// Lifecycle
	Close() error
}
