package agent

import "context"

// Engine is the single surface the chat service and the REPL consume:
// one utterance in, one reply out. Policy and ToolLoop both satisfy it.
type Engine interface {
	HandleUtterance(ctx context.Context, sess *Session, text string) string
}
