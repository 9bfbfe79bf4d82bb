// Package filestore keeps files users upload, keyed by a reference of the
// form "<userID>/<name>", and reads them back for their owner only.
package filestore

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
)

var (
	ErrNotFound         = errors.New("file not found")
	ErrForbidden        = errors.New("file belongs to another user")
	ErrInvalidReference = errors.New("invalid file reference")
	ErrNotText          = errors.New("file is not valid UTF-8 text")
)

// Backend stores opaque objects by key.
type Backend interface {
	Put(ctx context.Context, key, contentType string, content io.Reader) error
	// Open returns the object body. When limit > 0 at most limit bytes are returned.
	Open(ctx context.Context, key string, limit int64) (io.ReadCloser, error)
}

// Store applies naming and ownership rules on top of a Backend.
type Store struct {
	backend Backend
}

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Save stores content as a new file of userID and returns its reference.
func (s *Store) Save(ctx context.Context, userID int32, filename, contentType string, content io.Reader) (string, error) {
	name := SanitizeFilename(filename)
	if name == "" {
		return "", errors.Wrap(ErrInvalidReference, "empty filename")
	}
	ref := fmt.Sprintf("%d/%s_%s", userID, shortuuid.New(), name)
	if err := s.backend.Put(ctx, ref, contentType, content); err != nil {
		return "", errors.Wrapf(err, "failed to store %s", ref)
	}
	return ref, nil
}

// Open returns the full content of ref if userID owns it.
func (s *Store) Open(ctx context.Context, userID int32, ref string) (io.ReadCloser, error) {
	if err := CheckOwner(userID, ref); err != nil {
		return nil, err
	}
	return s.backend.Open(ctx, ref, 0)
}

// ReadPrefix returns at most maxChars characters from the start of ref.
func (s *Store) ReadPrefix(ctx context.Context, userID int32, ref string, maxChars int) (string, error) {
	if err := CheckOwner(userID, ref); err != nil {
		return "", err
	}
	if maxChars <= 0 {
		return "", nil
	}

	limit := int64(maxChars) * utf8.UTFMax
	body, err := s.backend.Open(ctx, ref, limit)
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, limit))
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", ref)
	}
	return decodePrefix(data, maxChars, int64(len(data)) == limit)
}

// decodePrefix returns the first maxChars runes of data. A rune cut off by
// the read limit at the very end is dropped; any other invalid byte fails.
func decodePrefix(data []byte, maxChars int, truncated bool) (string, error) {
	var (
		offset int
		count  int
	)
	for offset < len(data) && count < maxChars {
		r, size := utf8.DecodeRune(data[offset:])
		if r == utf8.RuneError && size == 1 {
			if truncated && !utf8.FullRune(data[offset:]) {
				break
			}
			return "", ErrNotText
		}
		offset += size
		count++
	}
	return string(data[:offset]), nil
}

// CheckOwner validates ref and reports whether userID may read it.
func CheckOwner(userID int32, ref string) error {
	owner, name, ok := strings.Cut(ref, "/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." || path.Clean(ref) != ref {
		return errors.Wrapf(ErrInvalidReference, "%q", ref)
	}
	id, err := strconv.ParseInt(owner, 10, 32)
	if err != nil {
		return errors.Wrapf(ErrInvalidReference, "%q", ref)
	}
	if int32(id) != userID {
		return ErrForbidden
	}
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename reduces name to a safe base name made of ASCII letters,
// digits, dots, dashes and underscores.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return ""
	}
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	return strings.Trim(name, "._")
}
