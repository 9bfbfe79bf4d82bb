// Package storetest holds driver conformance checks shared by the
// sqlite, postgres and mysql test suites.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/wingman/store"
)

// RunChatTurnTests exercises a migrated driver against the History Store contract.
func RunChatTurnTests(t *testing.T, driver store.Driver) {
	t.Helper()
	ctx := context.Background()
	ts := store.New(driver, nil)

	t.Run("CreateAssignsIncreasingIDs", func(t *testing.T) {
		first, err := ts.CreateChatTurn(ctx, &store.ChatTurn{UserID: 1, SessionID: "s-ids", Role: store.RoleUser, UserMessage: ptr("one")})
		require.NoError(t, err)
		second, err := ts.CreateChatTurn(ctx, &store.ChatTurn{UserID: 1, SessionID: "s-ids", Role: store.RoleUser, UserMessage: ptr("two")})
		require.NoError(t, err)
		assert.Greater(t, second.ID, first.ID)
		assert.NotZero(t, first.CreatedTs)
	})

	t.Run("NullableColumnsRoundTrip", func(t *testing.T) {
		info := `[{"id":"call_1","type":"function","function":{"name":"http_request","arguments":"{}"}}]`
		_, err := ts.CreateChatTurn(ctx, &store.ChatTurn{
			UserID:       2,
			SessionID:    "s-null",
			Role:         store.RoleAssistant,
			ModelUsed:    ptr("gpt-4o"),
			ToolCallInfo: &info,
		})
		require.NoError(t, err)

		list, err := ts.ListChatTurns(ctx, &store.FindChatTurn{UserID: ptr(int32(2))})
		require.NoError(t, err)
		require.Len(t, list, 1)
		turn := list[0]
		assert.Equal(t, store.RoleAssistant, turn.Role)
		assert.Nil(t, turn.UserMessage)
		assert.Nil(t, turn.AIResponse)
		assert.Nil(t, turn.ToolCallID)
		require.NotNil(t, turn.ToolCallInfo)
		assert.Equal(t, info, *turn.ToolCallInfo)
		require.NotNil(t, turn.ModelUsed)
		assert.Equal(t, "gpt-4o", *turn.ModelUsed)
	})

	t.Run("RecentWindowIsNewestFirst", func(t *testing.T) {
		for i, msg := range []string{"a", "b", "c", "d", "e"} {
			_, err := ts.CreateChatTurn(ctx, &store.ChatTurn{
				UserID:      3,
				SessionID:   "s-window",
				Role:        store.RoleUser,
				UserMessage: ptr(msg),
				CreatedTs:   int64(1000 + i),
			})
			require.NoError(t, err)
		}

		list, err := ts.ListRecentChatTurns(ctx, 3, "s-window", 3)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "e", *list[0].UserMessage)
		assert.Equal(t, "d", *list[1].UserMessage)
		assert.Equal(t, "c", *list[2].UserMessage)

		all, err := ts.ListRecentChatTurns(ctx, 3, "s-window", 100)
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})

	t.Run("SameTimestampOrdersByID", func(t *testing.T) {
		for _, msg := range []string{"x", "y", "z"} {
			_, err := ts.CreateChatTurn(ctx, &store.ChatTurn{
				UserID:      4,
				SessionID:   "s-tie",
				Role:        store.RoleUser,
				UserMessage: ptr(msg),
				CreatedTs:   5000,
			})
			require.NoError(t, err)
		}

		list, err := ts.ListChatTurns(ctx, &store.FindChatTurn{UserID: ptr(int32(4)), SessionID: ptr("s-tie")})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "x", *list[0].UserMessage)
		assert.Equal(t, "z", *list[2].UserMessage)
	})

	t.Run("SessionsAndUsersAreIsolated", func(t *testing.T) {
		_, err := ts.CreateChatTurn(ctx, &store.ChatTurn{UserID: 5, SessionID: "shared", Role: store.RoleUser, UserMessage: ptr("mine")})
		require.NoError(t, err)
		_, err = ts.CreateChatTurn(ctx, &store.ChatTurn{UserID: 6, SessionID: "shared", Role: store.RoleUser, UserMessage: ptr("theirs")})
		require.NoError(t, err)
		_, err = ts.CreateChatTurn(ctx, &store.ChatTurn{UserID: 5, SessionID: "other", Role: store.RoleUser, UserMessage: ptr("elsewhere")})
		require.NoError(t, err)

		list, err := ts.ListRecentChatTurns(ctx, 5, "shared", 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "mine", *list[0].UserMessage)

		all, err := ts.ListChatTurns(ctx, &store.FindChatTurn{UserID: ptr(int32(5))})
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func ptr[T any](v T) *T {
	return &v
}
