package agent

import (
	"fmt"
	"testing"

	"todoassist/internal/chat"
)

func msgs(n int) []chat.Message {
	out := make([]chat.Message, n)
	for i := range out {
		out[i] = chat.Message{Role: chat.RoleUser, Content: fmt.Sprintf("message number %d with some words", i)}
	}
	return out
}

func TestTrimHistory_MessageCap(t *testing.T) {
	in := msgs(10)
	got := TrimHistory(in, 4, 0, nil)
	if len(got) != 4 {
		t.Fatalf("len=%d, want 4", len(got))
	}
	if got[0].Content != in[6].Content {
		t.Fatalf("kept the wrong end: %q", got[0].Content)
	}
}

func TestTrimHistory_TokenBudget(t *testing.T) {
	tok := &Tokenizer{fallback: true}
	in := msgs(10)
	perMsg := tok.CountMessage(in[0])

	got := TrimHistory(in, 0, perMsg*3, tok)
	if len(got) > 3 {
		t.Fatalf("len=%d exceeds token budget", len(got))
	}
	if len(got) == 0 {
		t.Fatalf("budget for 3 messages kept none")
	}
	if got[len(got)-1].Content != in[9].Content {
		t.Fatalf("newest message must survive trimming")
	}
}

func TestTokenizerFallbackCounts(t *testing.T) {
	tok := &Tokenizer{fallback: true}
	if got := tok.CountText(""); got != 0 {
		t.Fatalf("empty=%d", got)
	}
	if got := tok.CountText("hi"); got != 1 {
		t.Fatalf("short text should cost at least one token, got %d", got)
	}
	if a, b := tok.CountText("word "), tok.CountText("word word word word "); b <= a {
		t.Fatalf("longer text must cost more: %d vs %d", a, b)
	}
}
