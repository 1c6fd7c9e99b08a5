package agent

import (
	"fmt"
	"strings"

	"todoassist/internal/task"
	"todoassist/internal/tools"
)

// Replies never contain identifiers or raw error detail; lists are
// numbered 1-based so the user can refer to positions naturally.

const (
	replyApology   = "Sorry, something went wrong on my end. Please try again."
	replyCancelled = "Okay, cancelled. Nothing was changed."
	replyNotFound  = "I couldn't find that task in your list."
	replyGreeting  = "I can add, list, complete, update and delete your tasks. What would you like to do?"
)

func formatList(tasks []task.Task, filter task.Filter) string {
	if len(tasks) == 0 {
		switch filter {
		case task.FilterCompleted:
			return "You haven't completed any tasks yet."
		case task.FilterPending:
			return "Nothing pending. Nice work!"
		default:
			return "Your list is empty. Tell me something to add!"
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You have %d task%s:\n", len(tasks), plural(len(tasks)))
	for i, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, "%d. [%s] %s", i+1, mark, t.Title)
		if t.Description != "" {
			fmt.Fprintf(&b, " — %s", t.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatAdded(t task.Task) string {
	return fmt.Sprintf("Added %q to your list.", t.Title)
}

func formatConfirmQuestion(p *Pending) string {
	switch p.Command {
	case tools.CommandDelete:
		return fmt.Sprintf("I found %q. Delete it?", p.TaskTitle)
	case tools.CommandComplete:
		return fmt.Sprintf("Mark %q as done?", p.TaskTitle)
	case tools.CommandUpdate:
		return fmt.Sprintf("Rename %q to %q?", p.TaskTitle, p.Args.Title)
	default:
		return fmt.Sprintf("Go ahead with %q?", p.TaskTitle)
	}
}

func formatExecuted(p *Pending, res tools.Result) string {
	switch p.Command {
	case tools.CommandDelete:
		return fmt.Sprintf("Done! I've deleted %q.", p.TaskTitle)
	case tools.CommandComplete:
		if res.Task != nil && !res.Task.Completed {
			return fmt.Sprintf("Reopened %q — it's pending again.", p.TaskTitle)
		}
		return fmt.Sprintf("Nice! Marked %q as done.", p.TaskTitle)
	case tools.CommandUpdate:
		if res.Task != nil {
			return fmt.Sprintf("Updated! It's now called %q.", res.Task.Title)
		}
		return "Updated your task."
	default:
		return "Done!"
	}
}

// formatAmbiguous lists the equally plausible candidates positionally.
func formatAmbiguous(candidates []task.Task) string {
	var b strings.Builder
	b.WriteString("I found more than one matching task:\n")
	for i, t := range candidates {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t.Title)
	}
	b.WriteString("Which one did you mean? Try more specific wording.")
	return b.String()
}

func formatNoMatch(cmd tools.Command) string {
	switch cmd {
	case tools.CommandDelete:
		return "I couldn't find a task like that to delete. Say \"list my tasks\" to see what's there."
	case tools.CommandComplete:
		return "I couldn't find a task like that to mark done. Say \"list my tasks\" to see what's there."
	default:
		return "I couldn't find a task like that. Say \"list my tasks\" to see what's there."
	}
}

func formatValidation(err error) string {
	if verr, ok := err.(*task.ValidationError); ok {
		switch verr.Field {
		case "title":
			return fmt.Sprintf("That title won't work: it %s.", verr.Reason)
		case "description":
			return fmt.Sprintf("That description won't work: it %s.", verr.Reason)
		}
	}
	return "That doesn't look valid, sorry."
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
