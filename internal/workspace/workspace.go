// Package workspace stages documents on short-lived private storage.
//
// Certificates carry health data. A staged document lives in its own
// directory created with os.MkdirTemp, the file is written with mode 0600,
// and the directory is removed when the caller is done, including when the
// caller panics or its context is cancelled.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"
)

var (
	// ErrTooLarge is returned when the document exceeds the size limit.
	ErrTooLarge = errors.New("document exceeds size limit")

	// ErrEmptyDocument is returned when the reader yields no bytes.
	ErrEmptyDocument = errors.New("empty document")
)

const (
	dirPattern  = "incapscan-*"
	defaultName = "document"
	maxNameLen  = 128
)

// Scratch is a staged document.
type Scratch struct {
	dir  string
	path string
	size int64

	once      sync.Once
	removeErr error
}

// Path returns the staged file path.
func (s *Scratch) Path() string {
	return s.path
}

// Dir returns the private directory holding the file.
func (s *Scratch) Dir() string {
	return s.dir
}

// Size returns the number of bytes staged.
func (s *Scratch) Size() int64 {
	return s.size
}

// Remove deletes the directory and everything in it. It is safe to call
// more than once.
func (s *Scratch) Remove() error {
	s.once.Do(func() {
		s.removeErr = os.RemoveAll(s.dir)
	})
	return s.removeErr
}

// Stage copies r into a new private directory. maxBytes <= 0 means no limit.
func Stage(ctx context.Context, name string, r io.Reader, maxBytes int64) (*Scratch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", dirPattern)
	if err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	s := &Scratch{dir: dir, path: filepath.Join(dir, SanitizeName(name))}

	if err := s.write(ctx, r, maxBytes); err != nil {
		_ = s.Remove()
		return nil, err
	}
	return s, nil
}

func (s *Scratch) write(ctx context.Context, r io.Reader, maxBytes int64) error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create scratch file: %w", err)
	}

	src := io.Reader(&ctxReader{ctx: ctx, r: r})
	if maxBytes > 0 {
		src = io.LimitReader(src, maxBytes+1)
	}

	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write scratch file: %w", err)
	}
	if maxBytes > 0 && n > maxBytes {
		return fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}
	if n == 0 {
		return ErrEmptyDocument
	}
	s.size = n
	return nil
}

// WithDocument stages r, calls fn with the staged path and removes the
// staging directory on every exit path.
func WithDocument(ctx context.Context, name string, r io.Reader, maxBytes int64, fn func(path string) error) (err error) {
	s, err := Stage(ctx, name, r, maxBytes)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := s.Remove(); rerr != nil && err == nil {
			err = fmt.Errorf("remove scratch directory: %w", rerr)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(s.Path())
}

// SanitizeName reduces a client-supplied file name to a safe base name.
// Directory parts are dropped and anything outside letters, digits, dot,
// dash and underscore becomes an underscore. The extension is kept so the
// extractor can dispatch on it.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := b.String()
	if len(out) > maxNameLen {
		ext := filepath.Ext(out)
		if len(ext) > 16 {
			ext = ""
		}
		out = out[:maxNameLen-len(ext)] + ext
	}
	if strings.Trim(out, "_.") == "" {
		return defaultName
	}
	if strings.HasPrefix(out, ".") {
		return defaultName + out
	}
	return out
}

// ctxReader stops reading once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
