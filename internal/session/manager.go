package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"foodorder/internal/cart"
	"foodorder/internal/domain"
	"foodorder/internal/service/auth"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrSessionNotFound = errors.New("session not found")

// Authenticator is the part of the auth service the manager needs.
type Authenticator interface {
	SignOut(ctx context.Context, h *auth.Handle) error
	Restore(ctx context.Context, h *auth.Handle, token string) (*domain.Identity, error)
}

// Session is the state of one connected app instance.
type Session struct {
	ID        string
	Auth      *auth.Handle
	Gate      *Gate
	Cart      *cart.Store
	CreatedAt time.Time

	lastSeen atomic.Int64
	cancel   context.CancelFunc
}

func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) close() {
	s.Gate.Close()
	s.cancel()
}

type ManagerConfig struct {
	Gate        GateConfig
	IdleTimeout time.Duration
}

// Manager owns every client session and drops the ones left idle.
type Manager struct {
	auth     Authenticator
	profiles ProfileLookup
	cfg      ManagerConfig
	logger   zerolog.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(authn Authenticator, profiles ProfileLookup, logger zerolog.Logger, cfg ManagerConfig) *Manager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	return &Manager{
		auth:     authn,
		profiles: profiles,
		cfg:      cfg,
		logger:   logger.With().Str("component", "sessions").Logger(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create opens a session. A non-empty restore token signs it in first; a stale
// token leaves the session signed out.
func (m *Manager) Create(ctx context.Context, restoreToken string) (*Session, error) {
	h := auth.NewHandle()
	if restoreToken != "" {
		if _, err := m.auth.Restore(ctx, h, restoreToken); err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				return nil, err
			}
			m.logger.Info().Msg("restore token rejected, starting signed out")
		}
	}

	id := uuid.NewString()
	logger := m.logger.With().Str("session", id).Logger()
	gate := NewGate(m.profiles, func(ctx context.Context) error {
		return m.auth.SignOut(ctx, h)
	}, logger, m.cfg.Gate)

	base, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        id,
		Auth:      h,
		Gate:      gate,
		Cart:      cart.New(),
		CreatedAt: m.now(),
		cancel:    cancel,
	}
	s.touch(s.CreatedAt)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	gate.Start(base, h)
	logger.Debug().Bool("restored", h.Current() != nil).Msg("session opened")
	return s, nil
}

// Get returns a live session and marks it as seen.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(m.now())
	return s, nil
}

// Close ends a session without signing it out.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.close()
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle since before now minus the idle timeout.
func (m *Manager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.cfg.IdleTimeout)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.close()
	}
	if len(stale) > 0 {
		m.logger.Info().Int("closed", len(stale)).Msg("idle sessions swept")
	}
	return len(stale)
}

// Run sweeps on a ticker until ctx is done, then closes every session.
func (m *Manager) Run(ctx context.Context) error {
	interval := m.cfg.IdleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return nil
		case <-ticker.C:
			m.Sweep(m.now())
		}
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.close()
	}
}
