package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/hrygo/wingman/ai/core/llm"
	"github.com/hrygo/wingman/store"
)

// Reconstructor rebuilds the message list of a session from stored turns.
type Reconstructor struct {
	turns        TurnStore
	systemPrompt string
	limit        int
}

// NewReconstructor replays at most limit stored turns behind systemPrompt.
func NewReconstructor(turns TurnStore, systemPrompt string, limit int) *Reconstructor {
	return &Reconstructor{
		turns:        turns,
		systemPrompt: systemPrompt,
		limit:        limit,
	}
}

// Build returns the system prompt followed by the session's most recent
// turns, oldest first. Rows that map to no message are skipped.
func (r *Reconstructor) Build(ctx context.Context, userID int32, sessionID string) ([]llm.Message, error) {
	recent, err := r.turns.ListRecentChatTurns(ctx, userID, sessionID, r.limit)
	if err != nil {
		return nil, err
	}

	// The store returns newest first.
	chronological := slices.Clone(recent)
	slices.Reverse(chronological)

	messages := make([]llm.Message, 0, len(chronological)+2)
	messages = append(messages, llm.SystemPrompt(r.systemPrompt))
	messages = append(messages, TurnsToMessages(chronological)...)
	return messages, nil
}

// TurnsToMessages maps chronological turns to completion messages.
//
// A tool round is only replayed when it is complete: assistant tool calls
// without a stored result are dropped, and so are tool results whose call
// is not in the window. A tool result belongs to the closest preceding
// assistant tool-call row, since providers may reuse call ids across rounds.
// The completion API rejects either half on its own.
func TurnsToMessages(turns []*store.ChatTurn) []llm.Message {
	// answered[i] holds the call ids with a result following tool-call row i.
	answered := make(map[int]map[string]bool)
	round := -1
	for i, turn := range turns {
		switch {
		case isToolRequest(turn):
			round = i
			answered[i] = make(map[string]bool)
		case turn.Role == store.RoleTool:
			if round >= 0 && nonEmpty(turn.ToolCallID) && nonEmpty(turn.ToolResponseContent) {
				answered[round][*turn.ToolCallID] = true
			}
		default:
			round = -1
		}
	}

	var pending map[string]bool
	messages := make([]llm.Message, 0, len(turns))
	for i, turn := range turns {
		switch turn.Role {
		case store.RoleUser:
			pending = nil
			if nonEmpty(turn.UserMessage) {
				messages = append(messages, llm.UserMessage(*turn.UserMessage))
			}

		case store.RoleAssistant:
			pending = nil
			if isToolRequest(turn) {
				var calls []llm.ToolCall
				if err := json.Unmarshal([]byte(*turn.ToolCallInfo), &calls); err != nil {
					slog.Warn("skipping chat turn with malformed tool_call_info",
						"turn_id", turn.ID,
						"session_id", turn.SessionID,
						"error", err,
					)
					continue
				}
				pending = make(map[string]bool, len(calls))
				kept := make([]llm.ToolCall, 0, len(calls))
				for _, call := range calls {
					if answered[i][call.ID] && !pending[call.ID] {
						kept = append(kept, call)
						pending[call.ID] = true
					}
				}
				if len(kept) == 0 {
					slog.Debug("skipping unanswered tool calls", "turn_id", turn.ID, "session_id", turn.SessionID)
					continue
				}
				messages = append(messages, llm.AssistantToolCallMessage(kept))
				continue
			}
			if nonEmpty(turn.AIResponse) {
				messages = append(messages, llm.AssistantMessage(*turn.AIResponse))
			}

		case store.RoleTool:
			if !nonEmpty(turn.ToolCallID) || !nonEmpty(turn.ToolResponseContent) {
				continue
			}
			if !pending[*turn.ToolCallID] {
				slog.Debug("skipping orphan tool result", "turn_id", turn.ID, "tool_call_id", *turn.ToolCallID)
				continue
			}
			delete(pending, *turn.ToolCallID)
			messages = append(messages, llm.ToolResultMessage(*turn.ToolCallID, *turn.ToolResponseContent))
		}
	}
	return messages
}

func isToolRequest(turn *store.ChatTurn) bool {
	return turn.Role == store.RoleAssistant && nonEmpty(turn.ToolCallInfo)
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}
