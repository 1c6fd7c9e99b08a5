package agent

import (
	"context"
	"testing"

	"todoassist/internal/task"
	"todoassist/internal/tools"
)

func TestRuleClassifier(t *testing.T) {
	cases := []struct {
		utterance string
		want      Intent
	}{
		{"add buy milk", Intent{Command: tools.CommandAdd, Title: "buy milk"}},
		{"Add a task: Buy milk", Intent{Command: tools.CommandAdd, Title: "Buy milk"}},
		{"please add Call mom to my list", Intent{Command: tools.CommandAdd, Title: "Call mom"}},
		{"remember to water the plants", Intent{Command: tools.CommandAdd, Title: "water the plants"}},
		{"add Groceries: milk and eggs", Intent{Command: tools.CommandAdd, Title: "Groceries", Description: "milk and eggs"}},

		{"list my tasks", Intent{Command: tools.CommandList, Filter: task.FilterAll}},
		{"show me completed tasks", Intent{Command: tools.CommandList, Filter: task.FilterCompleted}},
		{"list completed tasks", Intent{Command: tools.CommandList, Filter: task.FilterCompleted}},
		{"what are my pending tasks", Intent{Command: tools.CommandList, Filter: task.FilterPending}},
		{"sab tasks dikhao", Intent{Command: tools.CommandList, Filter: task.FilterAll}},

		{"delete the milk task", Intent{Command: tools.CommandDelete, Query: "milk"}},
		{"milk wala task hata do", Intent{Command: tools.CommandDelete, Query: "milk"}},
		{"remove groceries", Intent{Command: tools.CommandDelete, Query: "groceries"}},

		{"mark buy milk as done", Intent{Command: tools.CommandComplete, Query: "buy milk"}},
		{"i finished the report", Intent{Command: tools.CommandComplete, Query: "report"}},
		{"buy milk ho gaya", Intent{Command: tools.CommandComplete, Query: "buy milk"}},

		{"rename call mom to call dad", Intent{Command: tools.CommandUpdate, Query: "call mom", Title: "call dad"}},

		{"", Intent{Command: tools.CommandNone}},
		{"hello there", Intent{Command: tools.CommandNone}},
	}

	c := NewRuleClassifier()
	for _, tc := range cases {
		got, err := c.Classify(context.Background(), nil, tc.utterance)
		if err != nil {
			t.Fatalf("%q: %v", tc.utterance, err)
		}
		if got != tc.want {
			t.Errorf("%q:\n got %+v\nwant %+v", tc.utterance, got, tc.want)
		}
	}
}

func TestClassifyConfirmation(t *testing.T) {
	affirm := []string{"yes", "Yes!", "yeah", "OK", "do it", "haan", "HAAN", "ji haan", "kar do", "theek hai"}
	for _, s := range affirm {
		if got := ClassifyConfirmation(s); got != ConfirmAffirmative {
			t.Errorf("%q classified %v, want affirmative", s, got)
		}
	}
	negative := []string{"no", "No.", "cancel", "nahi", "nahin", "mat karo", "rehne do"}
	for _, s := range negative {
		if got := ClassifyConfirmation(s); got != ConfirmNegative {
			t.Errorf("%q classified %v, want negative", s, got)
		}
	}
	unrelated := []string{"", "list my tasks", "yes delete the other one", "what?"}
	for _, s := range unrelated {
		if got := ClassifyConfirmation(s); got != ConfirmUnrelated {
			t.Errorf("%q classified %v, want unrelated", s, got)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := normalize("  Delete   the MILK task!! "); got != "delete the milk task" {
		t.Fatalf("normalize=%q", got)
	}
	if got := stripStopwords("the milk task please"); got != "milk" {
		t.Fatalf("stripStopwords=%q", got)
	}
}
