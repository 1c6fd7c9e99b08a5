package provider

import (
	"context"

	"todoassist/internal/chat"
)

// ChatRequest 封装一次模型请求
// ChatRequest wraps a single model call
type ChatRequest struct {
	Model       string
	Messages    []chat.Message
	Tools       []chat.ToolDef
	Temperature *float64
	MaxTokens   int
}

// Usage token 用量统计
// Usage reports token consumption
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatResponse 完整响应
// ChatResponse is the complete response
type ChatResponse struct {
	Content      string
	ToolCalls    []chat.ToolCall
	FinishReason string
	Usage        Usage
}

// Provider 模型提供方接口，解析策略层不感知具体后端
// Provider is the model backend interface; the resolution policy never
// sees a concrete implementation.
type Provider interface {
	// Chat 发送聊天请求并返回响应 / Chat sends a request and returns a response
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)

	// Name 返回 provider 名称 / Name returns the provider name
	Name() string

	// CurrentModel 返回当前活跃模型 / CurrentModel returns the active model
	CurrentModel() string

	// SetModel 切换活跃模型 / SetModel switches the active model
	SetModel(model string) error
}
