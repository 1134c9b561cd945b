// Package workspace manages the per-submission scratch directory that
// attachments are downloaded into.
package workspace

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	appErr "autograder/pkg/errors"
)

// Workspace is an exclusively owned temporary directory.
type Workspace struct {
	dir string
}

// Create makes a fresh directory under root (the system temp dir when
// root is empty). The caller must call Remove on every exit path.
func Create(root, prefix string) (*Workspace, error) {
	if root != "" {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, appErr.Wrapf(err, appErr.WorkspaceFailed, "create work root failed")
		}
	}
	dir, err := os.MkdirTemp(root, prefix)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.WorkspaceFailed, "create workspace failed")
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the absolute directory path.
func (w *Workspace) Dir() string {
	return w.dir
}

// Remove deletes the directory recursively.
func (w *Workspace) Remove() error {
	if w == nil || w.dir == "" {
		return nil
	}
	if err := os.RemoveAll(w.dir); err != nil {
		return appErr.Wrapf(err, appErr.WorkspaceFailed, "remove workspace failed")
	}
	return nil
}

// Path resolves a declared attachment name inside the workspace. Names
// containing a path separator are rejected rather than sanitized.
func (w *Workspace) Path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(w.dir, name), nil
}

// WriteFile stores r under name inside the workspace.
func (w *Workspace) WriteFile(ctx context.Context, name string, r io.Reader) (int64, error) {
	path, err := w.Path(name)
	if err != nil {
		return 0, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, appErr.Wrapf(err, appErr.WorkspaceFailed, "create attachment file failed").
			WithDetail("name", name)
	}
	defer file.Close()

	n, err := io.Copy(file, contextReader{ctx: ctx, r: r})
	if err != nil {
		return n, appErr.Wrapf(err, appErr.AttachmentDownloadFailed, "write attachment %q failed", name)
	}
	return n, nil
}

// ValidateName accepts only plain file names.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return appErr.Newf(appErr.UnsafeAttachmentName, "attachment name %q is not a file name", name).
			WithDetail("name", name)
	case strings.ContainsRune(name, '/'), strings.ContainsRune(name, os.PathSeparator):
		return appErr.Newf(appErr.UnsafeAttachmentName, "attachment name %q contains a path separator", name).
			WithDetail("name", name)
	}
	return nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
