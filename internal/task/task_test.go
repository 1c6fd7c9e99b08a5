package task

import (
	"errors"
	"strings"
	"testing"
)

func TestNew_Valid(t *testing.T) {
	tk, err := New("user-1", "Buy milk", "2 liters")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tk.ID == "" {
		t.Fatalf("ID should be generated")
	}
	if tk.Completed {
		t.Fatalf("new task should be pending")
	}
	if tk.CompletedAt != nil {
		t.Fatalf("CompletedAt should be nil for a new task")
	}
	if tk.CreatedAt.IsZero() || tk.UpdatedAt.IsZero() {
		t.Fatalf("timestamps should be set")
	}
}

func TestNew_TrimsTitle(t *testing.T) {
	tk, err := New("user-1", "  Call mom  ", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tk.Title != "Call mom" {
		t.Fatalf("Title=%q, want %q", tk.Title, "Call mom")
	}
}

func TestNew_EmptyTitle(t *testing.T) {
	_, err := New("user-1", "   ", "")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if verr.Field != "title" {
		t.Fatalf("Field=%q, want title", verr.Field)
	}
}

func TestNew_TitleTooLong(t *testing.T) {
	_, err := New("user-1", strings.Repeat("x", TitleMaxLen+1), "")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

func TestNew_DescriptionTooLong(t *testing.T) {
	_, err := New("user-1", "ok", strings.Repeat("x", DescriptionMaxLen+1))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if verr.Field != "description" {
		t.Fatalf("Field=%q, want description", verr.Field)
	}
}

func TestShortID(t *testing.T) {
	tk, err := New("user-1", "Buy milk", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(tk.ShortID()) != ShortIDLen {
		t.Fatalf("ShortID len=%d, want %d", len(tk.ShortID()), ShortIDLen)
	}
	if !strings.HasPrefix(tk.ID, tk.ShortID()) {
		t.Fatalf("ShortID should be a prefix of the full id")
	}
}

func TestParseFilter(t *testing.T) {
	cases := []struct {
		in   string
		want Filter
		ok   bool
	}{
		{"", FilterAll, true},
		{"all", FilterAll, true},
		{"Pending", FilterPending, true},
		{"done", FilterCompleted, true},
		{"completed", FilterCompleted, true},
		{"bogus", FilterAll, false},
	}
	for _, tc := range cases {
		got, err := ParseFilter(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("ParseFilter(%q): %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseFilter(%q): expected error", tc.in)
		}
		if tc.ok && got != tc.want {
			t.Fatalf("ParseFilter(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}
