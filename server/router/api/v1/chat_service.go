package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/wingman/ai/chat"
	"github.com/hrygo/wingman/store"
)

type SendMessageRequest struct {
	Message          string `json:"message"`
	Model            string `json:"model"`
	SessionID        string `json:"session_id"`
	UploadedFilePath string `json:"uploaded_file_path"`
}

type SendMessageResponse struct {
	AIResponse       string `json:"ai_response"`
	SessionID        string `json:"session_id"`
	ModelUsed        string `json:"model_used"`
	UserMessage      string `json:"user_message"`
	UploadedFilePath string `json:"uploaded_file_path,omitempty"`
}

// ChatTurnMessage is the API form of a stored turn.
type ChatTurnMessage struct {
	ID                  int64   `json:"id"`
	SessionID           string  `json:"session_id"`
	Role                string  `json:"role"`
	UserMessage         *string `json:"user_message"`
	AIResponse          *string `json:"ai_response"`
	ModelUsed           *string `json:"model_used"`
	Timestamp           int64   `json:"timestamp"`
	UploadedFilePath    *string `json:"uploaded_file_path"`
	ToolCallID          *string `json:"tool_call_id"`
	ToolCallInfo        *string `json:"tool_call_info"`
	ToolResponseContent *string `json:"tool_response_content"`
}

type ListChatHistoryResponse struct {
	History []*ChatTurnMessage `json:"history"`
}

// SendMessage runs one chat turn for the caller.
func (s *APIV1Service) SendMessage(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if s.Chat == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "AI service is not configured")
	}

	var request SendMessageRequest
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := s.Chat.Send(c.Request().Context(), &chat.SendRequest{
		UserID:        userID,
		Message:       request.Message,
		Model:         request.Model,
		SessionID:     request.SessionID,
		FileReference: request.UploadedFilePath,
	})
	if err != nil {
		return toHTTPError(c, err)
	}

	return c.JSON(http.StatusOK, &SendMessageResponse{
		AIResponse:       resp.FinalText,
		SessionID:        resp.SessionID,
		ModelUsed:        resp.ModelUsed,
		UserMessage:      resp.UserMessage,
		UploadedFilePath: resp.FileReference,
	})
}

// ListChatHistory returns the caller's stored turns, oldest first,
// optionally restricted to one session.
func (s *APIV1Service) ListChatHistory(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	find := &store.FindChatTurn{UserID: &userID}
	if sessionID := c.QueryParam("session_id"); sessionID != "" {
		find.SessionID = &sessionID
	}

	turns, err := s.Store.ListChatTurns(c.Request().Context(), find)
	if err != nil {
		return toHTTPError(c, err)
	}

	history := make([]*ChatTurnMessage, 0, len(turns))
	for _, turn := range turns {
		history = append(history, convertChatTurnFromStore(turn))
	}
	return c.JSON(http.StatusOK, &ListChatHistoryResponse{History: history})
}

func convertChatTurnFromStore(turn *store.ChatTurn) *ChatTurnMessage {
	return &ChatTurnMessage{
		ID:                  turn.ID,
		SessionID:           turn.SessionID,
		Role:                string(turn.Role),
		UserMessage:         turn.UserMessage,
		AIResponse:          turn.AIResponse,
		ModelUsed:           turn.ModelUsed,
		Timestamp:           turn.CreatedTs,
		UploadedFilePath:    turn.UploadedFilePath,
		ToolCallID:          turn.ToolCallID,
		ToolCallInfo:        turn.ToolCallInfo,
		ToolResponseContent: turn.ToolResponseContent,
	}
}
