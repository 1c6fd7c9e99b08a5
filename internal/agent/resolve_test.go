package agent

import (
	"testing"

	"todoassist/internal/task"
)

func namedTasks(titles ...string) []task.Task {
	out := make([]task.Task, len(titles))
	for i, title := range titles {
		out[i] = task.Task{ID: title, Title: title}
	}
	return out
}

func TestMatchScore(t *testing.T) {
	cases := []struct {
		query, title string
		want         float64
	}{
		{"buy milk", "Buy milk", 1.0},
		{"the buy milk task", "Buy milk", 1.0}, // fillers stripped
		{"milk", "Buy milk", 0.9},
		{"buy milk today", "Buy milk", 0.9},
		{"milk groceries", "Buy milk", 0.4}, // 0.8 * 1/2
		{"report", "Buy milk", 0},
		{"", "Buy milk", 0},
	}
	for _, tc := range cases {
		got := matchScore(tc.query, tc.title)
		if got < tc.want-0.001 || got > tc.want+0.001 {
			t.Errorf("matchScore(%q, %q)=%v, want %v", tc.query, tc.title, got, tc.want)
		}
	}
}

func TestResolveCandidates(t *testing.T) {
	tasks := namedTasks("Buy milk", "Call mom", "Buy groceries")

	got := resolveCandidates(tasks, "call mom")
	if len(got) != 1 || got[0].Title != "Call mom" {
		t.Fatalf("exact match: %v", got)
	}

	// Containment beats word overlap: "buy milk" is exact on one title
	// and only overlaps the other.
	got = resolveCandidates(tasks, "buy milk")
	if len(got) != 1 || got[0].Title != "Buy milk" {
		t.Fatalf("containment vs overlap: %v", got)
	}

	if got = resolveCandidates(tasks, "quarterly report"); got != nil {
		t.Fatalf("no match expected, got %v", got)
	}

	// Identical titles tie and are both returned.
	got = resolveCandidates(namedTasks("Buy milk", "Buy milk"), "buy milk")
	if len(got) != 2 {
		t.Fatalf("tie: want 2 candidates, got %d", len(got))
	}

	// Below-threshold overlap never surfaces.
	if got = resolveCandidates(namedTasks("Read a book about gardening"), "book"); len(got) != 1 {
		t.Fatalf("single-word containment: %v", got)
	}
	if got = resolveCandidates(namedTasks("Plan summer trip to the coast"), "plan winter budget"); got != nil {
		t.Fatalf("weak overlap must not match: %v", got)
	}
}
