package session

import (
	"sync"
	"time"

	"github.com/amterp/postdeck/internal/debounce"
	pderr "github.com/amterp/postdeck/internal/errors"
	"github.com/amterp/postdeck/internal/id"
	"github.com/amterp/postdeck/internal/model"
	"github.com/amterp/postdeck/internal/seed"
	"github.com/rs/zerolog"
)

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 2 * time.Hour

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Delay time.Duration
	TTL   time.Duration
	Clock debounce.Clock

	// Notify receives every event of every session, tagged with its id.
	Notify func(sessionID string, ev Event)

	Logger zerolog.Logger

	now   func() time.Time
	newID func() string
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Manager owns one Session per browser session. Each new session starts
// from its own copy of the seed dataset.
type Manager struct {
	opts ManagerOptions

	mu       sync.Mutex
	dataset  *seed.Dataset
	sessions map[string]*entry
}

// NewManager creates a manager seeding new sessions from ds.
func NewManager(ds *seed.Dataset, opts ManagerOptions) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.now == nil {
		opts.now = time.Now
	}
	if opts.newID == nil {
		opts.newID = id.NewSessionID
	}
	return &Manager{
		opts:     opts,
		dataset:  ds,
		sessions: make(map[string]*entry),
	}
}

// Get returns an existing session and marks it as used.
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[sessionID]
	if !ok {
		return nil, pderr.SessionNotFound(sessionID)
	}
	e.lastSeen = m.opts.now()
	return e.session, nil
}

// GetOrCreate returns the session for sessionID, creating a fresh one under
// a new id when sessionID is empty or unknown. created reports which case
// happened.
func (m *Manager) GetOrCreate(sessionID string) (s *Session, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.sessions[sessionID]; ok {
		e.lastSeen = m.opts.now()
		return e.session, false
	}

	newID := m.opts.newID()
	s = New(newID, m.dataset.NewStore(), Options{
		Delay:    m.opts.Delay,
		Clock:    m.opts.Clock,
		Listener: m.listenerFor(newID),
	})
	m.sessions[newID] = &entry{session: s, lastSeen: m.opts.now()}

	m.opts.Logger.Debug().Str("session", newID).Int("posts", len(m.dataset.Posts)).Msg("session created")
	return s, true
}

func (m *Manager) listenerFor(sessionID string) Listener {
	if m.opts.Notify == nil {
		return nil
	}
	notify := m.opts.Notify
	return func(ev Event) {
		notify(sessionID, ev)
	}
}

// Users returns the users of the current dataset, ordered by ID.
func (m *Manager) Users() []model.User {
	m.mu.Lock()
	ds := m.dataset
	m.mu.Unlock()
	return ds.Directory().List()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes and forgets sessions idle for longer than the TTL.
// Returns how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	cutoff := m.opts.now().Add(-m.opts.TTL)
	var expired []*Session
	for sid, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.session)
			delete(m.sessions, sid)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		m.opts.Logger.Debug().Int("count", len(expired)).Msg("expired sessions swept")
	}
	return len(expired)
}

// Reseed swaps the dataset and resets every live session to it.
func (m *Manager) Reseed(ds *seed.Dataset) {
	m.mu.Lock()
	m.dataset = ds
	live := make([]*Session, 0, len(m.sessions))
	for _, e := range m.sessions {
		live = append(live, e.session)
	}
	m.mu.Unlock()

	for _, s := range live {
		s.Reset(ds.Directory(), ds.PreparedPosts())
	}
	m.opts.Logger.Info().Int("sessions", len(live)).Int("posts", len(ds.Posts)).Msg("sessions reseeded")
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range all {
		e.session.Close()
	}
}
