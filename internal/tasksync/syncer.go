// Package tasksync keeps a household's task list consistent with the
// server across session changes, filter changes, and concurrent user
// actions. It owns the session, household, and task state; consumers
// read snapshots and never mutate the collections directly.
package tasksync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hearthkeep/hearthkeep/internal/api"
	"github.com/hearthkeep/hearthkeep/internal/model"
	"github.com/hearthkeep/hearthkeep/internal/realtime"
)

var timeNow = time.Now

// State is the view lifecycle. Mutations and filter changes are accepted
// only in StateReady; a failed mutation never leaves Ready.
type State int

const (
	StateLoading State = iota
	StateReady
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Filter selects which task statuses are visible.
type Filter string

const (
	FilterPending   Filter = "pending" // includes in_progress
	FilterCompleted Filter = "completed"
	FilterAll       Filter = "all"
)

// Backend is the server boundary the syncer depends on. *api.Client
// satisfies it.
type Backend interface {
	Session(ctx context.Context) (*api.SessionInfo, error)
	Household(ctx context.Context) (*model.Household, error)
	Members(ctx context.Context) ([]model.Member, error)
	ListTasks(ctx context.Context, filter string, assignedTo *int64) ([]model.Task, error)
	CreateTask(ctx context.Context, draft api.TaskDraft) (*model.Task, error)
	ToggleTask(ctx context.Context, id int64, revertTo string) (*model.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// EventSource is a live change feed. *api.EventStream satisfies it.
type EventSource interface {
	Next(ctx context.Context) (realtime.Message, error)
	Close() error
}

// Config configures a Syncer. Zero durations get defaults.
type Config struct {
	Backend   Backend
	Subscribe func(ctx context.Context) (EventSource, error)
	HintPath  string // durable household-id hint file; empty disables

	SessionTimeout time.Duration // default 6s
	LoadTimeout    time.Duration // default 15s
	MutateTimeout  time.Duration // default 10s
	FocusCooldown  time.Duration // default 3s

	Logger *slog.Logger
}

// Syncer is the session-synchronized data client.
type Syncer struct {
	mu  sync.Mutex
	cfg Config

	state   State
	lastErr error

	session   *api.SessionInfo
	household *model.Household
	members   []model.Member
	tasks     []model.Task

	filter       Filter
	memberFilter *int64

	initInFlight bool
	submitting   map[string]bool
	loadGen      uint64
	lastRefresh  time.Time
	alive        bool
}

// NewSyncer creates a syncer in the Loading state.
func NewSyncer(cfg Config) *Syncer {
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 6 * time.Second
	}
	if cfg.LoadTimeout == 0 {
		cfg.LoadTimeout = 15 * time.Second
	}
	if cfg.MutateTimeout == 0 {
		cfg.MutateTimeout = 10 * time.Second
	}
	if cfg.FocusCooldown == 0 {
		cfg.FocusCooldown = 3 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Syncer{
		cfg:        cfg,
		state:      StateLoading,
		filter:     FilterPending,
		submitting: make(map[string]bool),
		alive:      true,
	}
}

// State returns the current view state and the error that caused it, if
// any.
func (s *Syncer) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.lastErr
}

// Session returns the resolved session, or nil.
func (s *Syncer) Session() *api.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Household returns the resolved household, or nil.
func (s *Syncer) Household() *model.Household {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.household
}

// Members returns a copy of the household roster.
func (s *Syncer) Members() []model.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Member, len(s.members))
	copy(out, s.members)
	return out
}

// Tasks returns a copy of the visible task list.
func (s *Syncer) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Filter returns the active status filter.
func (s *Syncer) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Init runs the session → household → tasks load sequence. At most one
// initialization runs at a time; a second call while one is in flight is
// a no-op. On failure the view enters Errored with a classified error.
func (s *Syncer) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.initInFlight || !s.alive {
		s.mu.Unlock()
		return nil
	}
	s.initInFlight = true
	s.state = StateLoading
	s.lastErr = nil
	s.mu.Unlock()

	err := s.initialize(ctx)

	s.mu.Lock()
	s.initInFlight = false
	if s.alive {
		if err != nil {
			s.state = StateErrored
			s.lastErr = err
		} else {
			s.state = StateReady
			s.lastErr = nil
		}
	}
	s.mu.Unlock()
	return err
}

func (s *Syncer) initialize(ctx context.Context) error {
	session, err := s.resolveSession(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		return nil
	}
	s.session = session
	filter := s.filter
	memberFilter := s.memberFilter
	s.mu.Unlock()

	if err := s.loadHousehold(ctx); err != nil {
		return err
	}
	return s.loadTasks(ctx, filter, memberFilter)
}

// resolveSession confirms the session with a bounded round trip. A
// timeout is surfaced as ErrTimeout, never as a forced sign-out.
func (s *Syncer) resolveSession(ctx context.Context) (*api.SessionInfo, error) {
	return runBounded(ctx, s.cfg.SessionTimeout, s.cfg.Backend.Session)
}

// Retry re-runs initialization from the Errored state.
func (s *Syncer) Retry(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateErrored {
		s.mu.Unlock()
		return ErrNotReady
	}
	s.mu.Unlock()
	return s.Init(ctx)
}

// Refresh reloads the task list opportunistically, for focus or
// visibility regain. Calls inside the cooldown window are dropped.
func (s *Syncer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateReady || !s.alive {
		s.mu.Unlock()
		return ErrNotReady
	}
	now := timeNow()
	if now.Sub(s.lastRefresh) < s.cfg.FocusCooldown {
		s.mu.Unlock()
		return nil
	}
	s.lastRefresh = now
	filter := s.filter
	memberFilter := s.memberFilter
	s.mu.Unlock()

	return s.loadTasks(ctx, filter, memberFilter)
}

// HandleSessionChange applies a session notification. A nil session
// tears down all household and task state; an unchanged session is
// de-duplicated so notification ordering relative to Init does not
// matter. A different user id clears household and task state and
// returns the view to Loading until the next Init, so one identity's
// collections are never shown under another.
func (s *Syncer) HandleSessionChange(session *api.SessionInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.alive {
		return
	}

	if session == nil {
		s.session = nil
		s.household = nil
		s.members = nil
		s.tasks = nil
		s.loadGen++
		s.state = StateErrored
		s.lastErr = ErrUnauthenticated
		return
	}

	if s.session != nil && s.session.User.ID == session.User.ID {
		s.session = session
		return
	}

	s.session = session
	s.household = nil
	s.members = nil
	s.tasks = nil
	s.loadGen++
	s.state = StateLoading
	s.lastErr = nil
}

// Teardown shuts the syncer down. In-flight results observed after
// teardown are discarded, not applied.
func (s *Syncer) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alive = false
	s.session = nil
	s.household = nil
	s.members = nil
	s.tasks = nil
}

// Run consumes the change feed until the context ends. Task events
// trigger a reconciliation reload; a session revocation tears the view
// down to unauthenticated.
func (s *Syncer) Run(ctx context.Context) error {
	if s.cfg.Subscribe == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	stream, err := s.cfg.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		msg, err := stream.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		switch {
		case msg.Type == "session_revoked":
			s.HandleSessionChange(nil)
			return nil
		case msg.Entity == "task":
			s.mu.Lock()
			ready := s.state == StateReady && s.alive
			filter := s.filter
			memberFilter := s.memberFilter
			s.mu.Unlock()
			if ready {
				if err := s.loadTasks(ctx, filter, memberFilter); err != nil {
					s.cfg.Logger.Warn("event-driven reload failed", "error", err)
				}
			}
		}
	}
}
