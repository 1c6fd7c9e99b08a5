package agent

import (
	"context"
	"errors"
	"log/slog"

	"todoassist/internal/chat"
	"todoassist/internal/observability"
	"todoassist/internal/task"
	"todoassist/internal/tools"
)

// Policy maps a free-text instruction plus the user's visible task list
// onto exactly one of: no-op, a CRUD action held for confirmation, or a
// CRUD action executed immediately. It is the only component allowed to
// hand identifiers to the dispatcher, and it only ever hands over
// canonical full ids.
//
// Per pending reference the lifecycle is
// Idle → Resolved → AwaitingConfirmation → {Executed | Cancelled} → Idle.
type Policy struct {
	dispatch   *tools.Dispatcher
	classifier Classifier
	log        *slog.Logger
}

func NewPolicy(dispatch *tools.Dispatcher, classifier Classifier) *Policy {
	return &Policy{
		dispatch:   dispatch,
		classifier: classifier,
		log:        observability.Logger().With("component", "policy"),
	}
}

// HandleUtterance processes one utterance to completion. The session is
// locked for the whole turn, so one conversation is strictly sequential.
func (p *Policy) HandleUtterance(ctx context.Context, sess *Session, text string) string {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	reply := p.handleLocked(ctx, sess, text)
	sess.appendHistory(
		chat.Message{Role: chat.RoleUser, Content: text},
		chat.Message{Role: chat.RoleAssistant, Content: reply},
	)
	return reply
}

func (p *Policy) handleLocked(ctx context.Context, sess *Session, text string) string {
	if sess.hasPending() {
		switch ClassifyConfirmation(text) {
		case ConfirmAffirmative:
			return p.executePending(ctx, sess, text)
		case ConfirmNegative:
			pend := sess.takePending()
			sess.recordTurn(Turn{Utterance: text, Command: pend.Command, TaskID: pend.TaskID, Confirm: ConfirmStateDeclined})
			return replyCancelled
		default:
			// Unrelated input cancels the pending action and is handled
			// as a fresh utterance.
			sess.takePending()
		}
	}

	intent, err := p.classifier.Classify(ctx, sess.history, text)
	if err != nil {
		p.log.Error("classify failed", "session_id", sess.ID, "error", err)
		return replyApology
	}

	switch intent.Command {
	case tools.CommandAdd:
		return p.handleAdd(ctx, sess, text, intent)
	case tools.CommandList:
		return p.handleList(ctx, sess, text, intent)
	case tools.CommandComplete, tools.CommandUpdate, tools.CommandDelete:
		return p.handleMutating(ctx, sess, text, intent)
	default:
		sess.recordTurn(Turn{Utterance: text, Command: tools.CommandNone})
		return replyGreeting
	}
}

// executePending runs the confirmed action. The pending slot is cleared
// before the store call and stays cleared whatever the outcome.
func (p *Policy) executePending(ctx context.Context, sess *Session, text string) string {
	pend := sess.takePending()
	sess.markConfirmed(pend.Command, pend.TaskID)
	sess.recordTurn(Turn{Utterance: text, Command: pend.Command, TaskID: pend.TaskID, Confirm: ConfirmStateConfirmed})

	res, err := p.dispatch.Dispatch(ctx, sess.OwnerID, pend.Command, pend.Args)
	if err != nil {
		return p.reportStoreError(sess, pend.Command, err)
	}
	return formatExecuted(pend, res)
}

func (p *Policy) handleAdd(ctx context.Context, sess *Session, text string, intent Intent) string {
	if err := task.ValidateTitle(intent.Title); err != nil {
		sess.recordTurn(Turn{Utterance: text, Command: tools.CommandAdd})
		if intent.Title == "" {
			return "What should I add? Give me a task title."
		}
		return formatValidation(err)
	}
	if err := task.ValidateDescription(intent.Description); err != nil {
		sess.recordTurn(Turn{Utterance: text, Command: tools.CommandAdd})
		return formatValidation(err)
	}

	res, err := p.dispatch.Dispatch(ctx, sess.OwnerID, tools.CommandAdd, tools.Args{
		Title:       intent.Title,
		Description: intent.Description,
	})
	if err != nil {
		return p.reportStoreError(sess, tools.CommandAdd, err)
	}
	sess.recordTurn(Turn{Utterance: text, Command: tools.CommandAdd, TaskID: res.Task.ID})
	return formatAdded(*res.Task)
}

func (p *Policy) handleList(ctx context.Context, sess *Session, text string, intent Intent) string {
	res, err := p.dispatch.Dispatch(ctx, sess.OwnerID, tools.CommandList, tools.Args{Filter: intent.Filter})
	if err != nil {
		return p.reportStoreError(sess, tools.CommandList, err)
	}
	sess.recordTurn(Turn{Utterance: text, Command: tools.CommandList})
	return formatList(res.Tasks, intent.Filter)
}

// handleMutating resolves the referenced task with a single listing call,
// then either asks for confirmation or, if this intent+task pair was
// already confirmed this session, executes immediately.
func (p *Policy) handleMutating(ctx context.Context, sess *Session, text string, intent Intent) string {
	if intent.Command == tools.CommandUpdate {
		if err := task.ValidateTitle(intent.Title); err != nil {
			sess.recordTurn(Turn{Utterance: text, Command: intent.Command})
			if intent.Title == "" {
				return "What should the new title be? Say something like \"rename X to Y\"."
			}
			return formatValidation(err)
		}
	}

	listRes, err := p.dispatch.Dispatch(ctx, sess.OwnerID, tools.CommandList, tools.Args{Filter: task.FilterAll})
	if err != nil {
		return p.reportStoreError(sess, intent.Command, err)
	}

	candidates := resolveCandidates(listRes.Tasks, intent.Query)
	switch len(candidates) {
	case 0:
		sess.recordTurn(Turn{Utterance: text, Command: intent.Command})
		return formatNoMatch(intent.Command)
	case 1:
		// fall through
	default:
		// Equally plausible matches are never guessed.
		sess.recordTurn(Turn{Utterance: text, Command: intent.Command})
		return formatAmbiguous(candidates)
	}

	target := candidates[0]
	args := tools.Args{TaskID: target.ID}
	if intent.Command == tools.CommandUpdate {
		args.Title = intent.Title
		if intent.Description != "" {
			args.Description = intent.Description
			args.DescriptionSet = true
		}
	}
	pend := &Pending{
		Command:   intent.Command,
		TaskID:    target.ID,
		TaskTitle: target.Title,
		Args:      args,
	}

	if sess.alreadyConfirmed(intent.Command, target.ID) {
		// Confirmation is asked at most once per intent+task pair.
		sess.recordTurn(Turn{Utterance: text, Command: intent.Command, TaskID: target.ID, Confirm: ConfirmStateConfirmed})
		res, err := p.dispatch.Dispatch(ctx, sess.OwnerID, pend.Command, pend.Args)
		if err != nil {
			return p.reportStoreError(sess, pend.Command, err)
		}
		return formatExecuted(pend, res)
	}

	sess.setPending(pend)
	sess.recordTurn(Turn{Utterance: text, Command: intent.Command, TaskID: target.ID, Confirm: ConfirmStateAwaiting})
	return formatConfirmQuestion(pend)
}

// reportStoreError hides detail from the user, logs it in full, and
// leaves the session Idle. Operations are never retried automatically.
func (p *Policy) reportStoreError(sess *Session, cmd tools.Command, err error) string {
	if errors.Is(err, task.ErrNotFound) {
		p.log.Warn("task vanished before execution", "session_id", sess.ID, "command", cmd.String())
		return replyNotFound
	}
	var verr *task.ValidationError
	if errors.As(err, &verr) {
		return formatValidation(verr)
	}
	p.log.Error("store call failed", "session_id", sess.ID, "command", cmd.String(), "error", err)
	return replyApology
}
