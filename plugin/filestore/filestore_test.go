package filestore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "uploads")
	backend, err := NewLocalBackend(root)
	require.NoError(t, err)
	return New(backend), root
}

func TestSaveAndReadPrefix(t *testing.T) {
	ctx := context.Background()
	store, root := newLocalStore(t)

	ref, err := store.Save(ctx, 42, "../My Report (final).txt", "text/plain", strings.NewReader("héllo world"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "42/"), ref)
	assert.True(t, strings.HasSuffix(ref, "_My_Report_final_.txt"), ref)

	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(ref)))
	require.NoError(t, err)

	text, err := store.ReadPrefix(ctx, 42, ref, 5)
	require.NoError(t, err)
	assert.Equal(t, "héllo", text)

	text, err = store.ReadPrefix(ctx, 42, ref, 2000)
	require.NoError(t, err)
	assert.Equal(t, "héllo world", text)

	body, err := store.Open(ctx, 42, ref)
	require.NoError(t, err)
	defer body.Close()
	all, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "héllo world", string(all))
}

func TestSaveGeneratesDistinctReferences(t *testing.T) {
	ctx := context.Background()
	store, _ := newLocalStore(t)

	first, err := store.Save(ctx, 1, "a.txt", "", strings.NewReader("1"))
	require.NoError(t, err)
	second, err := store.Save(ctx, 1, "a.txt", "", strings.NewReader("2"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestSaveRejectsEmptyName(t *testing.T) {
	store, _ := newLocalStore(t)
	_, err := store.Save(context.Background(), 1, "...", "", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrInvalidReference)
}

func TestReadPrefixOwnership(t *testing.T) {
	ctx := context.Background()
	store, _ := newLocalStore(t)
	ref, err := store.Save(ctx, 1, "secret.txt", "", strings.NewReader("mine"))
	require.NoError(t, err)

	_, err = store.ReadPrefix(ctx, 2, ref, 100)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = store.Open(ctx, 2, ref)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = store.ReadPrefix(ctx, 1, "1/missing.txt", 100)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReadPrefixRejectsBinary(t *testing.T) {
	ctx := context.Background()
	store, _ := newLocalStore(t)
	ref, err := store.Save(ctx, 1, "image.png", "", bytes.NewReader([]byte{0x89, 'P', 'N', 'G', 0xff, 0xfe}))
	require.NoError(t, err)

	_, err = store.ReadPrefix(ctx, 1, ref, 100)
	require.ErrorIs(t, err, ErrNotText)
}

func TestDecodePrefixDropsCutRune(t *testing.T) {
	data := []byte("ab\xe2\x82")
	text, err := decodePrefix(data, 10, true)
	require.NoError(t, err)
	assert.Equal(t, "ab", text)

	_, err = decodePrefix(data, 10, false)
	require.ErrorIs(t, err, ErrNotText)
}

func TestCheckOwner(t *testing.T) {
	tests := []struct {
		ref  string
		want error
	}{
		{"7/abc_file.txt", nil},
		{"8/abc_file.txt", ErrForbidden},
		{"7/../8/file.txt", ErrInvalidReference},
		{"7/sub/file.txt", ErrInvalidReference},
		{"7/", ErrInvalidReference},
		{"7/..", ErrInvalidReference},
		{"abc/file.txt", ErrInvalidReference},
		{"/7/file.txt", ErrInvalidReference},
		{"file.txt", ErrInvalidReference},
		{`7/a\b.txt`, ErrInvalidReference},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			err := CheckOwner(7, tt.ref)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":          "report.pdf",
		"my file.txt":         "my_file.txt",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\doc.txt`: "doc.txt",
		".hidden":             "hidden",
		"日本語.txt":             "txt",
		"":                    "",
	}
	for input, want := range tests {
		assert.Equal(t, want, SanitizeFilename(input), input)
	}
}
