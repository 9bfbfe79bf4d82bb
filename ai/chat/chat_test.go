package chat

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/hrygo/wingman/ai/core/llm"
	"github.com/hrygo/wingman/store"
)

// memoryTurns is an in-memory TurnStore ordered the way the SQL drivers order rows.
type memoryTurns struct {
	mu        sync.Mutex
	turns     []*store.ChatTurn
	nextID    int64
	failAfter int
	failErr   error
}

func newMemoryTurns() *memoryTurns {
	return &memoryTurns{failAfter: -1}
}

func (m *memoryTurns) CreateChatTurn(_ context.Context, create *store.ChatTurn) (*store.ChatTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAfter >= 0 && len(m.turns) >= m.failAfter {
		return nil, m.failErr
	}
	m.nextID++
	turn := *create
	turn.ID = m.nextID
	if turn.CreatedTs == 0 {
		turn.CreatedTs = 1_700_000_000
	}
	m.turns = append(m.turns, &turn)
	return &turn, nil
}

func (m *memoryTurns) ListRecentChatTurns(_ context.Context, userID int32, sessionID string, limit int) ([]*store.ChatTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*store.ChatTurn
	for _, turn := range m.turns {
		if turn.UserID == userID && turn.SessionID == sessionID {
			result = append(result, turn)
		}
	}
	slices.SortFunc(result, func(a, b *store.ChatTurn) int {
		if a.CreatedTs != b.CreatedTs {
			return int(b.CreatedTs - a.CreatedTs)
		}
		return int(b.ID - a.ID)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *memoryTurns) session(sessionID string) []*store.ChatTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*store.ChatTurn
	for _, turn := range m.turns {
		if turn.SessionID == sessionID {
			result = append(result, turn)
		}
	}
	return result
}

type completion struct {
	resp *llm.ChatResponse
	err  error
}

// scriptedLLM replays completions in order and records what it was sent.
type scriptedLLM struct {
	mu        sync.Mutex
	script    []completion
	calls     [][]llm.Message
	toolsSeen [][]llm.ToolDescriptor
	models    []string
}

func (s *scriptedLLM) next(model string, messages []llm.Message, tools []llm.ToolDescriptor) (*llm.ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, slices.Clone(messages))
	s.toolsSeen = append(s.toolsSeen, tools)
	s.models = append(s.models, model)
	if len(s.script) == 0 {
		return nil, errors.New("unexpected completion call")
	}
	step := s.script[0]
	s.script = s.script[1:]
	return step.resp, step.err
}

func (s *scriptedLLM) Chat(_ context.Context, model string, messages []llm.Message) (string, *llm.LLMCallStats, error) {
	resp, err := s.next(model, messages, nil)
	if err != nil {
		return "", nil, err
	}
	return resp.Content, &llm.LLMCallStats{PromptTokens: 10, CompletionTokens: 5}, nil
}

func (s *scriptedLLM) ChatWithTools(_ context.Context, model string, messages []llm.Message, tools []llm.ToolDescriptor) (*llm.ChatResponse, *llm.LLMCallStats, error) {
	resp, err := s.next(model, messages, tools)
	if err != nil {
		return nil, nil, err
	}
	return resp, &llm.LLMCallStats{PromptTokens: 20, CompletionTokens: 8}, nil
}

func (s *scriptedLLM) DefaultModel() string { return "gpt-4o" }

func (s *scriptedLLM) Warmup(context.Context) {}

func text(content string) completion {
	return completion{resp: &llm.ChatResponse{Content: content}}
}

func toolCalls(calls ...llm.ToolCall) completion {
	return completion{resp: &llm.ChatResponse{ToolCalls: calls}}
}

func ptr[T any](v T) *T {
	return &v
}
