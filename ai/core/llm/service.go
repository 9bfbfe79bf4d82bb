package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Message roles understood by the completion API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a chat message.
// Assistant messages may carry ToolCalls instead of Content; tool messages
// carry the ToolCallID they answer.
type Message struct {
	Role       string
	Content    string
	ToolCallID string
	ToolCalls  []ToolCall
}

// LLMCallStats represents statistics for a single LLM call.
type LLMCallStats struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
	CacheReadTokens  int `json:"cache_read_tokens,omitempty"`
	// TotalDurationMs is the total wall-clock time for the request.
	TotalDurationMs int64 `json:"total_duration_ms"`
}

// Service is the LLM service interface.
// An empty model selects the configured default.
type Service interface {
	// Chat performs a completion without tools and returns the text.
	Chat(ctx context.Context, model string, messages []Message) (string, *LLMCallStats, error)

	// ChatWithTools performs a completion with the given tools offered and the
	// tool choice left to the model.
	ChatWithTools(ctx context.Context, model string, messages []Message, tools []ToolDescriptor) (*ChatResponse, *LLMCallStats, error)

	// DefaultModel returns the model used when a request names none.
	DefaultModel() string

	// Warmup sends a lightweight ping request to establish and warm up the LLM connection.
	Warmup(ctx context.Context)
}

// ToolDescriptor represents a function/tool available to the LLM.
type ToolDescriptor struct {
	Name        string
	Description string
	Parameters  string // JSON Schema string
}

// ChatResponse represents the LLM response including potential tool calls.
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// ToolCall represents a request to call a tool.
// The JSON form matches the completion API wire format and is what gets persisted.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall represents the function details.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Config represents LLM service configuration.
type Config struct {
	Provider    string // openai, deepseek, siliconflow, dashscope, openrouter, zai, ollama
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Timeout     int // Request timeout in seconds (default: 120)
}

var defaultBaseURLs = map[string]string{
	"deepseek":    "https://api.deepseek.com",
	"siliconflow": "https://api.siliconflow.cn/v1",
	"zai":         "https://open.bigmodel.cn/api/paas/v4",
	"dashscope":   "https://dashscope.aliyuncs.com/compatible-mode/v1",
	"openrouter":  "https://openrouter.ai/api/v1",
	"ollama":      "http://localhost:11434",
}

type service struct {
	client      *openai.Client
	model       string
	provider    string
	maxTokens   int
	temperature float32
	timeout     int
}

// NewService creates a new LLM Service.
func NewService(cfg *Config) (Service, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.HTTPClient = newHTTPClient()

	baseURL := cfg.BaseURL
	if baseURL == "" {
		if defaultURL, ok := defaultBaseURLs[cfg.Provider]; ok {
			baseURL = defaultURL
		} else if cfg.Provider != "openai" {
			slog.Info("Using generic OpenAI-compatible provider", "provider", cfg.Provider)
		}
	}
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120
	}

	return &service{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		provider:    cfg.Provider,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     timeout,
	}, nil
}

func (s *service) DefaultModel() string {
	return s.model
}

func (s *service) resolveModel(model string) string {
	if model == "" {
		return s.model
	}
	return model
}

func (s *service) Chat(ctx context.Context, model string, messages []Message) (string, *LLMCallStats, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       s.resolveModel(model),
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages:    convertMessages(messages),
	}

	slog.Debug("LLM: Chat request",
		"model", req.Model,
		"messages_count", len(messages),
	)

	resp, stats, err := s.complete(ctx, req)
	if err != nil {
		slog.Error("LLM: Chat request failed", "model", req.Model, "error", err)
		return "", nil, fmt.Errorf("LLM chat failed: %w", err)
	}

	return resp.Choices[0].Message.Content, stats, nil
}

func (s *service) ChatWithTools(ctx context.Context, model string, messages []Message, tools []ToolDescriptor) (*ChatResponse, *LLMCallStats, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	openaiTools := make([]openai.Tool, len(tools))
	for i, t := range tools {
		openaiTools[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  json.RawMessage(t.Parameters),
			},
		}
	}

	// Lower temperature keeps tool selection consistent.
	toolCallTemperature := float32(0.1)
	if s.temperature < 0.1 {
		toolCallTemperature = s.temperature
	}

	req := openai.ChatCompletionRequest{
		Model:       s.resolveModel(model),
		MaxTokens:   s.maxTokens,
		Temperature: toolCallTemperature,
		Messages:    convertMessages(messages),
	}
	if len(openaiTools) > 0 {
		req.Tools = openaiTools
		req.ToolChoice = "auto"
	}

	slog.Debug("LLM: ChatWithTools request",
		"model", req.Model,
		"messages_count", len(messages),
		"tools_count", len(tools),
	)

	resp, stats, err := s.complete(ctx, req)
	if err != nil {
		slog.Error("LLM: ChatWithTools request failed", "model", req.Model, "error", err)
		return nil, nil, fmt.Errorf("LLM chat with tools failed: %w", err)
	}

	choice := resp.Choices[0]
	response := &ChatResponse{
		Content: choice.Message.Content,
	}

	if len(choice.Message.ToolCalls) > 0 {
		response.ToolCalls = make([]ToolCall, len(choice.Message.ToolCalls))
		for i, tc := range choice.Message.ToolCalls {
			response.ToolCalls[i] = ToolCall{
				ID:   tc.ID,
				Type: string(tc.Type),
				Function: FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			}
		}
	}

	return response, stats, nil
}

func (s *service) complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, *LLMCallStats, error) {
	startTime := time.Now()

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return resp, nil, err
	}
	if len(resp.Choices) == 0 {
		return resp, nil, fmt.Errorf("empty response from LLM")
	}

	totalDuration := time.Since(startTime)
	stats := &LLMCallStats{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		TotalDurationMs:  totalDuration.Milliseconds(),
	}
	if resp.Usage.PromptTokensDetails != nil && resp.Usage.PromptTokensDetails.CachedTokens > 0 {
		stats.CacheReadTokens = resp.Usage.PromptTokensDetails.CachedTokens
	}

	slog.Debug("LLM: response received",
		"model", req.Model,
		"finish_reason", resp.Choices[0].FinishReason,
		"total_tokens", stats.TotalTokens,
		"duration_ms", stats.TotalDurationMs,
	)

	return resp, stats, nil
}

func (s *service) Warmup(ctx context.Context) {
	warmupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	slog.Info("LLM: starting connection warmup",
		"provider", s.provider,
		"model", s.model,
	)

	startTime := time.Now()

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   1,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "Hi"},
		},
	}

	_, err := s.client.CreateChatCompletion(warmupCtx, req)

	duration := time.Since(startTime)

	if err != nil {
		slog.Warn("LLM: warmup ping failed (service will still work, first request may be slower)",
			"provider", s.provider,
			"model", s.model,
			"error", err,
			"duration_ms", duration.Milliseconds(),
		)
		return
	}

	slog.Info("LLM: connection warmed up successfully",
		"provider", s.provider,
		"model", s.model,
		"duration_ms", duration.Milliseconds(),
	)
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		switch m.Role {
		case RoleSystem:
			llmMessages[i] = openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: m.Content,
			}
		case RoleAssistant:
			msg := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: m.Content,
			}
			for _, tc := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
			llmMessages[i] = msg
		case RoleTool:
			llmMessages[i] = openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.Content,
				ToolCallID: m.ToolCallID,
			}
		default:
			llmMessages[i] = openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: m.Content,
			}
		}
	}
	return llmMessages
}

// newHTTPClient leaves the overall deadline to the per-call context.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// Helper for creating system prompts.
func SystemPrompt(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// Helper for creating user messages.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Helper for creating assistant messages.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// AssistantToolCallMessage creates an assistant message that requests tool calls.
func AssistantToolCallMessage(calls []ToolCall) Message {
	return Message{Role: RoleAssistant, ToolCalls: calls}
}

// ToolResultMessage creates a tool-result message answering callID.
func ToolResultMessage(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}
