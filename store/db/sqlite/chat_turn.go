package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/wingman/store"
)

const chatTurnColumns = "id, user_id, session_id, role, user_message, ai_response, model_used, tool_call_id, tool_call_info, tool_response_content, uploaded_file_path, created_ts"

func (d *DB) CreateChatTurn(ctx context.Context, create *store.ChatTurn) (*store.ChatTurn, error) {
	fields := []string{"user_id", "session_id", "role", "user_message", "ai_response", "model_used", "tool_call_id", "tool_call_info", "tool_response_content", "uploaded_file_path", "created_ts"}
	args := []any{create.UserID, create.SessionID, create.Role, create.UserMessage, create.AIResponse, create.ModelUsed, create.ToolCallID, create.ToolCallInfo, create.ToolResponseContent, create.UploadedFilePath, create.CreatedTs}

	stmt := "INSERT INTO chat_turn (" + strings.Join(fields, ", ") + ") VALUES (" + placeholders(len(args)) + ")"
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create chat_turn")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get chat_turn id")
	}
	create.ID = id
	return create, nil
}

func (d *DB) ListChatTurns(ctx context.Context, find *store.FindChatTurn) ([]*store.ChatTurn, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}
	if find.SessionID != nil {
		where, args = append(where, "session_id = ?"), append(args, *find.SessionID)
	}

	orderBy := "created_ts ASC, id ASC"
	if find.OrderDesc {
		orderBy = "created_ts DESC, id DESC"
	}

	query := "SELECT " + chatTurnColumns + " FROM chat_turn WHERE " + strings.Join(where, " AND ") + " ORDER BY " + orderBy
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chat_turns")
	}
	defer rows.Close()

	list := make([]*store.ChatTurn, 0)
	for rows.Next() {
		turn := &store.ChatTurn{}
		if err := rows.Scan(
			&turn.ID,
			&turn.UserID,
			&turn.SessionID,
			&turn.Role,
			&turn.UserMessage,
			&turn.AIResponse,
			&turn.ModelUsed,
			&turn.ToolCallID,
			&turn.ToolCallInfo,
			&turn.ToolResponseContent,
			&turn.UploadedFilePath,
			&turn.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan chat_turn")
		}
		list = append(list, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate chat_turns")
	}

	return list, nil
}

func placeholders(n int) string {
	return strings.Repeat("?, ", n-1) + "?"
}
