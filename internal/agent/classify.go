package agent

import (
	"context"
	"strings"

	"todoassist/internal/chat"
	"todoassist/internal/task"
	"todoassist/internal/tools"
)

// Intent is what a front-end hands the policy: a typed command plus the
// raw material to resolve it. Mutating commands carry Query (the user's
// wording of which task is meant), never a task id — resolving ids is the
// policy's job.
type Intent struct {
	Command     tools.Command
	Title       string
	Description string
	Query       string
	Filter      task.Filter
}

// Classifier turns an utterance (with optional conversation history) into
// an Intent. Implementations must not call the store.
type Classifier interface {
	Classify(ctx context.Context, history []chat.Message, utterance string) (Intent, error)
}

// RuleClassifier is the deterministic keyword classifier. It backs the
// offline console mode and serves as the fallback when no provider is
// configured or the provider call fails.
type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// residual verbs that survive keyword removal but never identify a task.
var residualVerbs = map[string]struct{}{
	"mark": {}, "set": {}, "make": {}, "as": {}, "is": {}, "have": {},
	"i": {}, "ive": {}, "just": {}, "that": {}, "this": {},
}

func (c *RuleClassifier) Classify(_ context.Context, _ []chat.Message, utterance string) (Intent, error) {
	n := normalize(utterance)
	if n == "" {
		return Intent{Command: tools.CommandNone}, nil
	}

	// Leading verb decides first: "list completed tasks" is a listing even
	// though "completed" is also a completion keyword.
	if cmd, kw := leadingKeyword(n); cmd != tools.CommandNone {
		return c.build(cmd, kw, utterance, n), nil
	}

	// Otherwise first table that matches anywhere wins, most destructive
	// checked first.
	for _, entry := range []struct {
		cmd      tools.Command
		keywords []string
	}{
		{tools.CommandDelete, deleteKeywords},
		{tools.CommandUpdate, updateKeywords},
		{tools.CommandComplete, completeKeywords},
		{tools.CommandAdd, addKeywords},
		{tools.CommandList, listKeywords},
	} {
		if kw := containsKeyword(n, entry.keywords); kw != "" {
			return c.build(entry.cmd, kw, utterance, n), nil
		}
	}

	return Intent{Command: tools.CommandNone}, nil
}

func (c *RuleClassifier) build(cmd tools.Command, keyword, raw, n string) Intent {
	switch cmd {
	case tools.CommandAdd:
		title, desc := extractAddTitle(raw)
		return Intent{Command: tools.CommandAdd, Title: title, Description: desc}
	case tools.CommandList:
		return Intent{Command: tools.CommandList, Filter: extractFilter(n)}
	case tools.CommandUpdate:
		query, title := extractUpdateParts(n)
		return Intent{Command: tools.CommandUpdate, Query: query, Title: title}
	default:
		return Intent{Command: cmd, Query: extractQuery(n, keywordTable(cmd))}
	}
}

func keywordTable(cmd tools.Command) []string {
	switch cmd {
	case tools.CommandDelete:
		return deleteKeywords
	case tools.CommandComplete:
		return completeKeywords
	case tools.CommandUpdate:
		return updateKeywords
	case tools.CommandAdd:
		return addKeywords
	default:
		return listKeywords
	}
}

// leadingKeyword checks whether the utterance begins with a keyword of
// any table; multi-word phrases are checked before single words.
func leadingKeyword(n string) (tools.Command, string) {
	type entry struct {
		cmd      tools.Command
		keywords []string
	}
	tables := []entry{
		{tools.CommandDelete, deleteKeywords},
		{tools.CommandUpdate, updateKeywords},
		{tools.CommandList, listKeywords},
		{tools.CommandAdd, addKeywords},
		{tools.CommandComplete, completeKeywords},
	}
	best := tools.CommandNone
	bestKw := ""
	for _, tbl := range tables {
		for _, kw := range tbl.keywords {
			if n == kw || strings.HasPrefix(n, kw+" ") {
				if len(kw) > len(bestKw) {
					best = tbl.cmd
					bestKw = kw
				}
			}
		}
	}
	return best, bestKw
}

// containsKeyword returns the first keyword present as a whole-word
// substring, longest phrases first within the table order given.
func containsKeyword(n string, keywords []string) string {
	padded := " " + n + " "
	for _, kw := range keywords {
		if strings.Contains(padded, " "+kw+" ") {
			return kw
		}
	}
	return ""
}

func removeKeywords(n string, keywords []string) string {
	padded := " " + n + " "
	for _, kw := range keywords {
		padded = strings.ReplaceAll(padded, " "+kw+" ", " ")
	}
	return strings.Join(strings.Fields(padded), " ")
}

// extractQuery reduces the utterance to the words that identify a task.
func extractQuery(n string, keywords []string) string {
	rest := removeKeywords(n, keywords)
	fields := strings.Fields(stripStopwords(rest))
	kept := fields[:0]
	for _, f := range fields {
		if _, ok := residualVerbs[f]; ok {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// extractAddTitle pulls the new task title (original casing) out of an
// add utterance; an optional colon separates title from description.
func extractAddTitle(raw string) (title, description string) {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	for _, prefix := range []string{
		"please ", "can you ", "could you ",
	} {
		if strings.HasPrefix(lower, prefix) {
			s = s[len(prefix):]
			lower = lower[len(prefix):]
		}
	}
	for _, kw := range []string{
		"add a task", "add task", "add", "create a task", "create task",
		"create", "note down", "note", "remember to", "remember",
		"new task", "yaad rakhna", "jodo", "banao", "likho",
	} {
		if strings.HasPrefix(lower, kw+" ") || strings.HasPrefix(lower, kw+":") {
			s = strings.TrimSpace(strings.TrimLeft(s[len(kw):], " :"))
			break
		}
		if lower == kw {
			return "", ""
		}
	}
	lower = strings.ToLower(s)
	for _, suffix := range []string{
		" to my list", " to my todo list", " to the list", " in my list",
		" to my tasks",
	} {
		if strings.HasSuffix(lower, suffix) {
			s = strings.TrimSpace(s[:len(s)-len(suffix)])
			break
		}
	}
	s = strings.Trim(s, " :-")
	if i := strings.IndexAny(s, ":"); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

// extractUpdateParts splits "rename X to Y" style utterances into the
// reference query and the new title.
func extractUpdateParts(n string) (query, title string) {
	rest := removeKeywords(n, updateKeywords)
	padded := " " + rest + " "
	if i := strings.Index(padded, " to "); i >= 0 {
		left := strings.TrimSpace(padded[:i])
		right := strings.TrimSpace(padded[i+len(" to "):])
		return strings.TrimSpace(stripStopwords(left)), right
	}
	return strings.TrimSpace(stripStopwords(rest)), ""
}

func extractFilter(n string) task.Filter {
	padded := " " + n + " "
	for _, kw := range []string{"completed", "done", "finished", "ho gaya", "mukammal"} {
		if strings.Contains(padded, " "+kw+" ") {
			return task.FilterCompleted
		}
	}
	for _, kw := range []string{"pending", "open", "remaining", "unfinished", "baaki", "baki"} {
		if strings.Contains(padded, " "+kw+" ") {
			return task.FilterPending
		}
	}
	return task.FilterAll
}
