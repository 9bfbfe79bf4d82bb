// Package chat runs the tool-calling conversation loop: it rebuilds a
// session from the History Store, asks the model, executes the tools it
// requests and persists every step.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/wingman/ai/core/llm"
	"github.com/hrygo/wingman/ai/tools"
	"github.com/hrygo/wingman/internal/strutil"
	"github.com/hrygo/wingman/store"
)

var (
	// ErrInvalidInput is returned for requests the caller must correct.
	ErrInvalidInput = errors.New("invalid input")
	// ErrCompletionFailed is returned when the completion API call fails.
	ErrCompletionFailed = errors.New("completion service unavailable")
)

const (
	// DefaultFilePrefixLimit is how many characters of an uploaded file are inlined.
	DefaultFilePrefixLimit = 2000
	// MaxSessionIDLength is the longest session id every driver can store.
	MaxSessionIDLength = 255

	// otherModel labels metrics for models other than the configured default.
	otherModel = "other"

	emptyToolResult = "(no output)"
)

// TurnStore is the History Store used by the orchestrator.
type TurnStore interface {
	CreateChatTurn(ctx context.Context, create *store.ChatTurn) (*store.ChatTurn, error)
	ListRecentChatTurns(ctx context.Context, userID int32, sessionID string, limit int) ([]*store.ChatTurn, error)
}

// FileReader returns the leading text of a file a user uploaded.
type FileReader interface {
	ReadPrefix(ctx context.Context, userID int32, ref string, maxChars int) (string, error)
}

// Recorder receives pipeline metrics.
type Recorder interface {
	ChatStarted() func()
	RecordChatRequest(model, outcome string, latency time.Duration)
	RecordHistoryMessages(count int)
	RecordToolCall(toolName string, latency time.Duration, success bool, errorType string)
	RecordLLMCall(model, phase string, latency time.Duration, promptTokens, completionTokens int, err error)
}

// SendRequest is one user turn.
type SendRequest struct {
	Message       string
	Model         string
	SessionID     string
	FileReference string
	UserID        int32
}

// SendResponse is the outcome of a user turn.
type SendResponse struct {
	FinalText     string
	SessionID     string
	ModelUsed     string
	UserMessage   string
	FileReference string
}

// Config holds the tunables of an Orchestrator.
type Config struct {
	SystemPrompt    string
	MaxHistoryTurns int
	FilePrefixLimit int
}

// Orchestrator drives one user turn at a time per session.
type Orchestrator struct {
	turns           TurnStore
	reconstructor   *Reconstructor
	llm             llm.Service
	tools           *tools.Registry
	files           FileReader
	recorder        Recorder
	locks           *sessionLocks
	newSessionID    func() string
	filePrefixLimit int
}

type Option func(*Orchestrator)

// WithFileReader enables inlining uploaded files.
func WithFileReader(files FileReader) Option {
	return func(o *Orchestrator) {
		o.files = files
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(o *Orchestrator) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

// WithSessionIDGenerator replaces the session id generator.
func WithSessionIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		o.newSessionID = fn
	}
}

func NewOrchestrator(cfg Config, turns TurnStore, service llm.Service, registry *tools.Registry, opts ...Option) *Orchestrator {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.MaxHistoryTurns <= 0 {
		cfg.MaxHistoryTurns = 20
	}
	if cfg.FilePrefixLimit <= 0 {
		cfg.FilePrefixLimit = DefaultFilePrefixLimit
	}

	o := &Orchestrator{
		turns:           turns,
		reconstructor:   NewReconstructor(turns, cfg.SystemPrompt, cfg.MaxHistoryTurns),
		llm:             service,
		tools:           registry,
		recorder:        noopRecorder{},
		locks:           newSessionLocks(),
		newSessionID:    uuid.NewString,
		filePrefixLimit: cfg.FilePrefixLimit,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Send runs one user turn to completion.
//
// The user turn is persisted before the model is called. When the model
// requests tools, each call is executed in order and persisted, and the
// model is asked once more without tools for the final answer. At most one
// tool round happens per turn.
func (o *Orchestrator) Send(ctx context.Context, req *SendRequest) (_ *SendResponse, err error) {
	start := time.Now()
	model := req.Model
	if model == "" {
		model = o.llm.DefaultModel()
	}

	done := o.recorder.ChatStarted()
	defer func() {
		done()
		o.recorder.RecordChatRequest(o.modelLabel(model), outcome(err), time.Since(start))
	}()

	if req.Message == "" && req.FileReference == "" {
		return nil, fmt.Errorf("%w: message or uploaded file is required", ErrInvalidInput)
	}
	if len(req.SessionID) > MaxSessionIDLength {
		return nil, fmt.Errorf("%w: session id longer than %d bytes", ErrInvalidInput, MaxSessionIDLength)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = o.newSessionID()
	}

	release, err := o.locks.acquire(ctx, fmt.Sprintf("%d/%s", req.UserID, sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to wait for session %s: %w", sessionID, err)
	}
	defer release()

	messages, err := o.reconstructor.Build(ctx, req.UserID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for session %s: %w", sessionID, err)
	}
	o.recorder.RecordHistoryMessages(len(messages) - 1)

	content := req.Message + o.fileNote(ctx, req.UserID, req.FileReference)
	messages = append(messages, llm.UserMessage(content))

	if _, err := o.turns.CreateChatTurn(ctx, &store.ChatTurn{
		UserID:           req.UserID,
		SessionID:        sessionID,
		Role:             store.RoleUser,
		UserMessage:      optional(req.Message),
		UploadedFilePath: optional(req.FileReference),
	}); err != nil {
		return nil, fmt.Errorf("failed to persist user turn: %w", err)
	}

	slog.Info("Chat request",
		"user_id", req.UserID,
		"session_id", sessionID,
		"model", model,
		"history_messages", len(messages)-2,
		"has_file", req.FileReference != "",
	)

	first, err := o.complete(ctx, "initial", model, messages, o.tools.Descriptors())
	if err != nil {
		return nil, err
	}

	finalText := first.Content
	if len(first.ToolCalls) > 0 {
		messages = o.runTools(ctx, req.UserID, sessionID, model, messages, first.ToolCalls)

		final, err := o.complete(ctx, "final", model, messages, nil)
		if err != nil {
			return nil, err
		}
		finalText = final.Content
	}

	o.persist(ctx, &store.ChatTurn{
		UserID:     req.UserID,
		SessionID:  sessionID,
		Role:       store.RoleAssistant,
		AIResponse: &finalText,
		ModelUsed:  &model,
	})

	return &SendResponse{
		FinalText:     finalText,
		SessionID:     sessionID,
		ModelUsed:     model,
		UserMessage:   req.Message,
		FileReference: req.FileReference,
	}, nil
}

// complete calls the model with tools offered when descriptors is non-empty.
func (o *Orchestrator) complete(ctx context.Context, phase, model string, messages []llm.Message, descriptors []llm.ToolDescriptor) (*llm.ChatResponse, error) {
	start := time.Now()

	var (
		resp  *llm.ChatResponse
		stats *llm.LLMCallStats
		err   error
	)
	if len(descriptors) > 0 {
		resp, stats, err = o.llm.ChatWithTools(ctx, model, messages, descriptors)
	} else {
		var content string
		content, stats, err = o.llm.Chat(ctx, model, messages)
		resp = &llm.ChatResponse{Content: content}
	}

	var promptTokens, completionTokens int
	if stats != nil {
		promptTokens, completionTokens = stats.PromptTokens, stats.CompletionTokens
	}
	o.recorder.RecordLLMCall(o.modelLabel(model), phase, time.Since(start), promptTokens, completionTokens, err)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}
	return resp, nil
}

// runTools persists the tool request, executes each call in order and
// returns messages extended with the request and every result.
func (o *Orchestrator) runTools(ctx context.Context, userID int32, sessionID, model string, messages []llm.Message, calls []llm.ToolCall) []llm.Message {
	for i := range calls {
		if calls[i].Type == "" {
			calls[i].Type = "function"
		}
	}

	info, err := json.Marshal(calls)
	if err != nil {
		slog.Error("failed to encode tool calls", "session_id", sessionID, "error", err)
	} else {
		toolCallInfo := string(info)
		o.persist(ctx, &store.ChatTurn{
			UserID:       userID,
			SessionID:    sessionID,
			Role:         store.RoleAssistant,
			ToolCallInfo: &toolCallInfo,
			ModelUsed:    &model,
		})
	}
	messages = append(messages, llm.AssistantToolCallMessage(calls))

	for _, call := range calls {
		start := time.Now()
		result, err := o.tools.Execute(ctx, call)
		latency := time.Since(start)
		if result == "" {
			result = emptyToolResult
		}

		o.recorder.RecordToolCall(call.Function.Name, latency, err == nil, toolErrorType(err))
		slog.Info("Tool call executed",
			"session_id", sessionID,
			"tool", call.Function.Name,
			"tool_call_id", call.ID,
			"duration_ms", latency.Milliseconds(),
			"error", err,
			"preview", strutil.Truncate(result, 500),
		)

		messages = append(messages, llm.ToolResultMessage(call.ID, result))

		callID := call.ID
		o.persist(ctx, &store.ChatTurn{
			UserID:              userID,
			SessionID:           sessionID,
			Role:                store.RoleTool,
			ToolCallID:          &callID,
			ToolResponseContent: &result,
		})
	}
	return messages
}

// persist appends a turn after the user turn is durable. A failure is
// logged and the request carries on; reconstruction tolerates the gap.
func (o *Orchestrator) persist(ctx context.Context, turn *store.ChatTurn) {
	if _, err := o.turns.CreateChatTurn(ctx, turn); err != nil {
		slog.Error("failed to persist chat turn",
			"session_id", turn.SessionID,
			"role", turn.Role,
			"error", err,
		)
	}
}

// fileNote renders the inline note appended to a message that references a file.
func (o *Orchestrator) fileNote(ctx context.Context, userID int32, ref string) string {
	if ref == "" {
		return ""
	}
	name := path.Base(ref)
	if o.files == nil {
		return fmt.Sprintf("\n\n[Error reading file '%s']", name)
	}

	text, err := o.files.ReadPrefix(ctx, userID, ref, o.filePrefixLimit)
	if err != nil {
		slog.Warn("failed to read uploaded file", "user_id", userID, "file", ref, "error", err)
		return fmt.Sprintf("\n\n[Error reading file '%s']", name)
	}
	return fmt.Sprintf("\n\n[Content of file '%s' (first %d characters)]:\n%s", name, o.filePrefixLimit, text)
}

// modelLabel keeps metric label values bounded: callers may name any model.
func (o *Orchestrator) modelLabel(model string) string {
	if model == o.llm.DefaultModel() {
		return model
	}
	return otherModel
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrCompletionFailed):
		return "llm_error"
	default:
		return "internal_error"
	}
}

func toolErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, tools.ErrUnknownTool):
		return "unknown_tool"
	case errors.Is(err, tools.ErrInvalidArguments):
		return "invalid_arguments"
	default:
		return "tool_error"
	}
}

type noopRecorder struct{}

func (noopRecorder) ChatStarted() func() { return func() {} }
func (noopRecorder) RecordChatRequest(string, string, time.Duration) {}
func (noopRecorder) RecordHistoryMessages(int) {}
func (noopRecorder) RecordToolCall(string, time.Duration, bool, string) {}
func (noopRecorder) RecordLLMCall(string, string, time.Duration, int, int, error) {}
