// Package store persists aggregates as one JSON file per component under
// <root>/<user id>/<component>.json.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mike-meow/zestify/pkg/logging"
	"github.com/mike-meow/zestify/pkg/record"
)

// ErrInvalidUserID is returned for user ids that are not a single path element.
var ErrInvalidUserID = errors.New("store: invalid user id")

// WriteError reports a component that could not be persisted. The in-memory
// aggregate is still authoritative when it is returned.
type WriteError struct {
	Component string
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("store: write %s: %v", e.Component, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// FileStore is a local file-system component store.
//
// There is no locking: concurrent writers of the same component are
// last-writer-wins, while writers of different components never interfere.
type FileStore struct {
	root string
	log  *logging.Logger
	now  func() time.Time
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithLogger sets the logger used to report components that fail to load.
func WithLogger(l *logging.Logger) Option {
	return func(s *FileStore) { s.log = l }
}

// WithClock sets the clock used to stamp saved components.
func WithClock(now func() time.Time) Option {
	return func(s *FileStore) { s.now = now }
}

func NewFileStore(root string, opts ...Option) (*FileStore, error) {
	if root == "" {
		return nil, errors.New("store: empty root directory")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("store: init directory %s: %w", root, err)
	}
	s := &FileStore{
		root: root,
		log:  logging.NewWriterLogger("store", os.Stderr),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the directory holding every user's components.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) userDir(userID string) (string, error) {
	if userID == "" || userID == "." || userID == ".." || strings.ContainsAny(userID, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidUserID, userID)
	}
	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", fmt.Errorf("store: abs dir: %w", err)
	}
	return filepath.Join(root, userID), nil
}

func componentPath(dir, name string) string {
	return filepath.Join(dir, name+".json")
}

// Load assembles the aggregate for userID. A user seen for the first time
// gets a storage directory and a user_info record. Missing components take
// their default-empty value, and so do components that fail to decode or
// validate; those are logged and left on disk until the next save.
func (s *FileStore) Load(ctx context.Context, userID string) (*record.Aggregate, error) {
	dir, err := s.userDir(userID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ensureUser(dir, userID); err != nil {
		return nil, err
	}

	agg := record.NewAggregate(userID, s.now())
	for _, name := range record.Components {
		raw, err := os.ReadFile(componentPath(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("store: read %s/%s: %w", userID, name, err)
		}
		if err := record.DecodeComponent(agg, name, raw); err != nil {
			s.log.Warnf("user %s: component %s unreadable, using default: %v", userID, name, err)
		}
	}
	agg.UserInfo.UserID = userID
	agg.Normalize()
	return agg, nil
}

// ensureUser creates the user's directory and user_info record. Two first
// accesses may race; the record is published with a hard link so exactly one
// wins and the loser sees a complete file.
func (s *FileStore) ensureUser(dir, userID string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("store: create user directory: %w", err)
	}
	path := componentPath(dir, record.ComponentUserInfo)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	now := record.TimestampPtr(s.now())
	tmp, err := writeTemp(dir, record.ComponentUserInfo, record.UserInfo{UserID: userID, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return &WriteError{Component: record.ComponentUserInfo, Err: err}
	}
	defer os.Remove(tmp)

	switch err := os.Link(tmp, path); {
	case err == nil:
		s.log.Infof("created user %s", userID)
	case !errors.Is(err, fs.ErrExist):
		return &WriteError{Component: record.ComponentUserInfo, Err: err}
	}
	return nil
}

// Save overwrites every component of agg.
func (s *FileStore) Save(ctx context.Context, agg *record.Aggregate) error {
	dir, err := s.userDir(agg.UserID())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("store: create user directory: %w", err)
	}
	for _, name := range record.Components {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.writeComponent(dir, agg, name); err != nil {
			return err
		}
	}
	return nil
}

// SaveComponents writes only the named components, stamping each with the
// store's clock first. Unknown names are rejected before anything is written.
func (s *FileStore) SaveComponents(ctx context.Context, agg *record.Aggregate, names []string) error {
	dir, err := s.userDir(agg.UserID())
	if err != nil {
		return err
	}
	for _, name := range names {
		if !record.IsComponent(name) {
			return fmt.Errorf("store: %w: %q", record.ErrUnknownComponent, name)
		}
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("store: create user directory: %w", err)
	}

	now := s.now()
	written := make(map[string]bool, len(names))
	for _, name := range names {
		if written[name] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := agg.Stamp(name, now); err != nil {
			return err
		}
		if err := s.writeComponent(dir, agg, name); err != nil {
			return err
		}
		written[name] = true
	}
	return nil
}

func (s *FileStore) writeComponent(dir string, agg *record.Aggregate, name string) error {
	c, err := agg.Component(name)
	if err != nil {
		return err
	}
	tmp, err := writeTemp(dir, name, c)
	if err != nil {
		return &WriteError{Component: name, Err: err}
	}
	if err := os.Rename(tmp, componentPath(dir, name)); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return &WriteError{Component: name, Err: fmt.Errorf("atomic rename: %w", err)}
	}
	return nil
}

// writeTemp encodes v into a uniquely named temporary file in dir and returns
// its path.
func writeTemp(dir, name string, v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+name+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(append(b, '\n')); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), nil
}

// ListUsers returns the ids of every stored user, sorted.
func (s *FileStore) ListUsers(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", s.root, err)
	}
	var users []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		users = append(users, e.Name())
	}
	return users, nil
}
