package store

// Role identifies who produced a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ChatTurn is one row of the append-only conversation log.
// Which payload column is meaningful depends on Role:
//   - user:      UserMessage (and optionally UploadedFilePath)
//   - assistant: AIResponse for a final answer, ToolCallInfo for pending tool calls
//   - tool:      ToolResponseContent tagged with ToolCallID
type ChatTurn struct {
	UserMessage         *string
	AIResponse          *string
	ModelUsed           *string
	ToolCallID          *string
	ToolCallInfo        *string // JSON list of tool-call requests
	ToolResponseContent *string
	UploadedFilePath    *string
	SessionID           string
	Role                Role
	ID                  int64
	CreatedTs           int64
	UserID              int32
}

type FindChatTurn struct {
	UserID    *int32
	SessionID *string
	// OrderDesc returns the newest turns first. Combined with Limit it selects
	// the most recent window of a session.
	OrderDesc bool
	Limit     *int
}
