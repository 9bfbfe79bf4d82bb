package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/wingman/server/auth"
)

func TestTokenCommand(t *testing.T) {
	t.Setenv("WINGMAN_SECRET", "cli-secret")

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"token", "--user", "7", "--ttl", "1h"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())

	claims, err := auth.ParseAccessToken(strings.TrimSpace(stdout.String()), []byte("cli-secret"))
	require.NoError(t, err)
	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int32(7), userID)
	assert.Contains(t, stderr.String(), "expires at")
}

func TestTokenCommandRequiresSecret(t *testing.T) {
	t.Setenv("WINGMAN_SECRET", "")

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"token", "--user", "7"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	assert.Error(t, rootCmd.Execute())
}
