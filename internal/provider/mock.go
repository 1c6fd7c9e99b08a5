package provider

import (
	"context"
	"fmt"
)

// Mock is a scripted Provider for tests: it replays queued responses in
// order and records every request it receives.
type Mock struct {
	Responses []ChatResponse
	Err       error
	Requests  []ChatRequest
	model     string
}

func NewMock(responses ...ChatResponse) *Mock {
	return &Mock{Responses: responses, model: "mock-model"}
}

func (m *Mock) Chat(_ context.Context, req ChatRequest) (ChatResponse, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return ChatResponse{}, m.Err
	}
	if len(m.Responses) == 0 {
		return ChatResponse{}, fmt.Errorf("mock provider: no scripted response")
	}
	resp := m.Responses[0]
	m.Responses = m.Responses[1:]
	return resp, nil
}

func (m *Mock) Name() string         { return "mock" }
func (m *Mock) CurrentModel() string { return m.model }

func (m *Mock) SetModel(model string) error {
	m.model = model
	return nil
}
