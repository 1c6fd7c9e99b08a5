package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	TitleMaxLen       = 100
	DescriptionMaxLen = 500
	// ShortIDLen is the length of the display-only id prefix.
	ShortIDLen = 8
)

// ErrNotFound means the task does not exist or is not owned by the caller.
var ErrNotFound = errors.New("task not found")

// ValidationError reports an invalid field value before any store call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Task is a single owned todo item.
type Task struct {
	ID          string     `json:"full_id"`
	OwnerID     string     `json:"-"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ShortID returns the display form of the id. It must never be handed
// back to the store; only the full ID is canonical.
func (t Task) ShortID() string {
	if len(t.ID) <= ShortIDLen {
		return t.ID
	}
	return t.ID[:ShortIDLen]
}

// New builds a validated pending task with a fresh UUID.
func New(ownerID, title, description string) (Task, error) {
	title = strings.TrimSpace(title)
	if err := ValidateTitle(title); err != nil {
		return Task{}, err
	}
	if err := ValidateDescription(description); err != nil {
		return Task{}, err
	}
	now := time.Now().UTC()
	return Task{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ValidateTitle enforces the 1-100 character title bound.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if len([]rune(title)) > TitleMaxLen {
		return &ValidationError{Field: "title", Reason: fmt.Sprintf("must be at most %d characters", TitleMaxLen)}
	}
	return nil
}

// ValidateDescription enforces the 500 character description cap.
func ValidateDescription(description string) error {
	if len([]rune(description)) > DescriptionMaxLen {
		return &ValidationError{Field: "description", Reason: fmt.Sprintf("must be at most %d characters", DescriptionMaxLen)}
	}
	return nil
}

// Filter narrows a task listing.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// ParseFilter parses a filter string; empty falls back to all.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "pending", "open", "todo":
		return FilterPending, nil
	case "completed", "done":
		return FilterCompleted, nil
	default:
		return FilterAll, &ValidationError{Field: "filter", Reason: "must be one of all, pending, completed"}
	}
}
