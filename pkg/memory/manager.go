// Package memory ties the component store, the patch engine and the views
// together behind the operations the coaching model calls.
package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mike-meow/zestify/pkg/logging"
	"github.com/mike-meow/zestify/pkg/patch"
	"github.com/mike-meow/zestify/pkg/record"
	"github.com/mike-meow/zestify/pkg/view"
)

// Store is the persistence the manager needs. *store.FileStore satisfies it.
type Store interface {
	Load(ctx context.Context, userID string) (*record.Aggregate, error)
	SaveComponents(ctx context.Context, agg *record.Aggregate, names []string) error
}

// Result describes the outcome of a patch request.
type Result struct {
	Applied    bool     `json:"applied"`
	Components []string `json:"components,omitempty"`
	Reason     string   `json:"reason,omitempty"`
}

// Manager serves one request at a time per call; it holds no per-user state
// between calls.
type Manager struct {
	store Store
	views *view.Generator
	log   *logging.Logger
	now   func() time.Time

	compactWindow time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithGenerator sets the view generator. The default uses view.DefaultHorizons.
func WithGenerator(g *view.Generator) Option {
	return func(m *Manager) { m.views = g }
}

// WithLogger sets the manager's logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithClock sets the clock used to timestamp recorded chat turns.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithCompactWindow limits the workouts and chat turns handed to Compact to
// those dated within d of the clock. Undated entries are kept. Zero keeps all.
func WithCompactWindow(d time.Duration) Option {
	return func(m *Manager) { m.compactWindow = d }
}

// NewManager creates a manager over s.
func NewManager(s Store, opts ...Option) (*Manager, error) {
	if s == nil {
		return nil, errors.New("memory: nil store")
	}
	m := &Manager{
		store: s,
		views: view.New(view.DefaultHorizons()),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		l, err := logging.NewLogger("memory")
		if err != nil {
			l.Warnf("Failed to initialize memory logger, using stderr fallback: %v", err)
		}
		m.log = l
	}
	return m, nil
}

// Load returns the user's full aggregate, creating the user on first access.
func (m *Manager) Load(ctx context.Context, userID string) (*record.Aggregate, error) {
	agg, err := m.store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("memory: load %s: %w", userID, err)
	}
	return agg, nil
}

// Compact returns the compact projection handed to the model.
func (m *Manager) Compact(ctx context.Context, userID string) (*record.CompactAggregate, error) {
	agg, err := m.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m.compactWindow > 0 {
		trimBefore(agg, m.now().Add(-m.compactWindow))
	}
	return agg.ToCompact(), nil
}

// trimBefore drops workouts and chat turns dated before cutoff.
func trimBefore(agg *record.Aggregate, cutoff time.Time) {
	workouts := agg.WorkoutMemory.RecentWorkouts[:0]
	for _, w := range agg.WorkoutMemory.RecentWorkouts {
		if started := w.Started(); started.IsZero() || !started.Before(cutoff) {
			workouts = append(workouts, w)
		}
	}
	agg.WorkoutMemory.RecentWorkouts = workouts

	turns := agg.ChatHistory.Conversations[:0]
	for _, msg := range agg.ChatHistory.Conversations {
		if msg.Timestamp.IsZero() || !msg.Timestamp.Before(cutoff) {
			turns = append(turns, msg)
		}
	}
	agg.ChatHistory.Conversations = turns
}

// View renders the user's history as seen at now.
func (m *Manager) View(ctx context.Context, userID string, now time.Time) (string, error) {
	agg, err := m.Load(ctx, userID)
	if err != nil {
		return "", err
	}
	return m.views.Render(agg, now), nil
}

// ApplyJSONPatch applies RFC 6902 operations and saves only the components
// they touch. A rejected patch leaves the stored state untouched; the result
// then carries the reason and the typed error is returned alongside it.
func (m *Manager) ApplyJSONPatch(ctx context.Context, userID string, ops []patch.Operation) (*Result, error) {
	agg, err := m.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	next, err := patch.ApplyJSONPatch(agg, ops)
	if err != nil {
		return m.rejected(userID, err)
	}
	return m.commit(ctx, next, patch.ModifiedComponents(ops))
}

// ApplyMergePatch applies an RFC 7386 merge patch keyed by component name.
func (m *Manager) ApplyMergePatch(ctx context.Context, userID string, p map[string]any) (*Result, error) {
	agg, err := m.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	next, names, err := patch.MergeAggregate(agg, p)
	if err != nil {
		return m.rejected(userID, err)
	}
	return m.commit(ctx, next, names)
}

// RecordChatMessage appends one turn to the chat history and saves only that
// component. A message without a timestamp is stamped with the manager's clock.
func (m *Manager) RecordChatMessage(ctx context.Context, userID string, msg record.ChatMessage) (*Result, error) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = record.NewTimestamp(m.now())
	}
	ops := []patch.Operation{
		{Op: "add", Path: "/chat_history/conversations/-", Value: msg},
		{Op: "add", Path: "/chat_history/last_interaction", Value: msg.Timestamp},
	}
	return m.ApplyJSONPatch(ctx, userID, ops)
}

func (m *Manager) rejected(userID string, err error) (*Result, error) {
	m.log.Warnf("user %s: patch rejected: %v", userID, err)
	return &Result{Applied: false, Reason: err.Error()}, err
}

func (m *Manager) commit(ctx context.Context, agg *record.Aggregate, names []string) (*Result, error) {
	if err := m.store.SaveComponents(ctx, agg, names); err != nil {
		return nil, fmt.Errorf("memory: save %s: %w", agg.UserID(), err)
	}
	m.log.Debugf("user %s: saved %v", agg.UserID(), names)
	return &Result{Applied: true, Components: names}, nil
}
