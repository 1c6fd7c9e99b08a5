package agent

import (
	"sync"

	"todoassist/internal/chat"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Tokenizer 计数器，tiktoken 失败时回退启发式
// Tokenizer counts tokens with tiktoken, falling back to a heuristic when
// the BPE data is unavailable (offline environments).
type Tokenizer struct {
	encoder  *tiktoken.Tiktoken
	fallback bool
}

var (
	defaultTokenizer     *Tokenizer
	defaultTokenizerOnce sync.Once
)

// DefaultTokenizer 返回全局默认实例 / returns the shared instance.
func DefaultTokenizer() *Tokenizer {
	defaultTokenizerOnce.Do(func() {
		defaultTokenizer = NewTokenizer("cl100k_base")
	})
	return defaultTokenizer
}

func NewTokenizer(encodingName string) *Tokenizer {
	t := &Tokenizer{}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		// 离线环境可能没有 BPE 缓存 / no BPE cache, use the heuristic
		t.fallback = true
		return t
	}
	t.encoder = enc
	return t
}

// CountText 计算单个文本的 token 数 / counts tokens for one string.
func (t *Tokenizer) CountText(text string) int {
	if text == "" {
		return 0
	}
	if t.fallback || t.encoder == nil {
		// 约 4 字符 ≈ 1 token / roughly 4 chars per token
		n := len(text) / 4
		if n == 0 {
			n = 1
		}
		return n
	}
	return len(t.encoder.Encode(text, nil, nil))
}

// CountMessage 单条消息连同角色开销 / one message plus role overhead.
func (t *Tokenizer) CountMessage(msg chat.Message) int {
	return t.CountText(msg.Content) + 4
}

// TrimHistory keeps the most recent messages that fit both the message
// cap and the token budget, oldest dropped first.
func TrimHistory(msgs []chat.Message, maxMessages, tokenBudget int, tok *Tokenizer) []chat.Message {
	if tok == nil {
		tok = DefaultTokenizer()
	}
	if maxMessages > 0 && len(msgs) > maxMessages {
		msgs = msgs[len(msgs)-maxMessages:]
	}
	if tokenBudget <= 0 {
		return msgs
	}
	total := 0
	start := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		cost := tok.CountMessage(msgs[i])
		if total+cost > tokenBudget {
			break
		}
		total += cost
		start = i
	}
	return msgs[start:]
}
