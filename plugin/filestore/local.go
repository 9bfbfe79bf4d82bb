package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// LocalBackend keeps objects as files under a root directory.
type LocalBackend struct {
	root string
}

func NewLocalBackend(root string) (*LocalBackend, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create upload dir %s", root)
	}
	return &LocalBackend{root: root}, nil
}

func (b *LocalBackend) path(key string) string {
	return filepath.Join(b.root, filepath.FromSlash(key))
}

func (b *LocalBackend) Put(_ context.Context, key, _ string, content io.Reader) error {
	target := b.path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrap(err, "failed to create directory")
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(target)
		return errors.Wrap(err, "failed to write file")
	}
	return f.Close()
}

func (b *LocalBackend) Open(_ context.Context, key string, limit int64) (io.ReadCloser, error) {
	f, err := os.Open(b.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to open file")
	}
	if limit <= 0 {
		return f, nil
	}
	return limitedReadCloser{Reader: io.LimitReader(f, limit), Closer: f}, nil
}

type limitedReadCloser struct {
	io.Reader
	io.Closer
}
