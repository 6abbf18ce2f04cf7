// Package session owns per-client state: the gate that decides which view
// tree a client renders, and the client's cart.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"foodorder/internal/domain"

	"github.com/rs/zerolog"
)

// ErrProfileMissing is reported when the users document never appears.
var ErrProfileMissing = errors.New("profile not found after retries")

// ProfileLookup reads the users document for an account. It returns
// domain.ErrNotFound when the document does not exist (yet).
type ProfileLookup interface {
	GetProfile(ctx context.Context, uid string) (*domain.Profile, error)
}

// IdentityStream delivers identity changes. Subscribe must deliver the current
// identity once and return a function that stops delivery.
type IdentityStream interface {
	Subscribe(fn func(*domain.Identity)) (unsubscribe func())
}

// SignOutFunc ends the authenticated session on the auth side.
type SignOutFunc func(ctx context.Context) error

type GateConfig struct {
	SplashDuration time.Duration
	RetryDelay     time.Duration
	MaxAttempts    int
}

func DefaultGateConfig() GateConfig {
	return GateConfig{
		SplashDuration: 3 * time.Second,
		RetryDelay:     500 * time.Millisecond,
		MaxAttempts:    5,
	}
}

// State is a read-only copy of the gate.
type State struct {
	Identity     *domain.Identity
	Profile      *domain.Profile
	Loading      bool
	SplashActive bool
}

func (s State) View() View {
	return Route(s)
}

// Gate resolves identity changes into a session state. The latest identity
// event always wins: older lookups are cancelled and their results dropped.
type Gate struct {
	cfg      GateConfig
	profiles ProfileLookup
	signOut  SignOutFunc
	logger   zerolog.Logger

	mu          sync.Mutex
	base        context.Context
	state       State
	gen         uint64
	cancel      context.CancelFunc
	splash      *time.Timer
	unsubscribe func()
	changed     chan struct{}
	closed      bool
}

func NewGate(profiles ProfileLookup, signOut SignOutFunc, logger zerolog.Logger, cfg GateConfig) *Gate {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if signOut == nil {
		signOut = func(context.Context) error { return nil }
	}
	return &Gate{
		cfg:      cfg,
		profiles: profiles,
		signOut:  signOut,
		logger:   logger,
		base:     context.Background(),
		state:    State{Loading: true},
		changed:  make(chan struct{}),
	}
}

// Start arms the splash window and subscribes to the identity stream.
// Events from the stream are resolved on their own goroutine.
func (g *Gate) Start(ctx context.Context, stream IdentityStream) {
	g.mu.Lock()
	g.base = ctx
	if g.cfg.SplashDuration > 0 {
		g.state.SplashActive = true
		g.splash = time.AfterFunc(g.cfg.SplashDuration, g.endSplash)
	}
	g.notifyLocked()
	g.mu.Unlock()

	if stream == nil {
		return
	}
	unsubscribe := stream.Subscribe(func(id *domain.Identity) {
		gen, lookupCtx, ok := g.begin(g.baseContext())
		if !ok {
			return
		}
		go g.resolve(lookupCtx, gen, id)
	})

	g.mu.Lock()
	closed := g.closed
	if !closed {
		g.unsubscribe = unsubscribe
	}
	g.mu.Unlock()
	if closed {
		unsubscribe()
	}
}

// OnIdentityChanged resolves one identity event and blocks until it is
// resolved or superseded.
func (g *Gate) OnIdentityChanged(ctx context.Context, id *domain.Identity) {
	gen, lookupCtx, ok := g.begin(ctx)
	if !ok {
		return
	}
	g.resolve(lookupCtx, gen, id)
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return copyState(g.state)
}

func (g *Gate) View() View {
	return Route(g.State())
}

// Changed returns a channel closed at the next state change.
func (g *Gate) Changed() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.changed
}

// Close stops the splash timer, cancels any in-flight lookup and unsubscribes.
func (g *Gate) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.gen++
	if g.splash != nil {
		g.splash.Stop()
	}
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (g *Gate) baseContext() context.Context {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.base
}

// begin supersedes the in-flight lookup and marks the gate loading.
func (g *Gate) begin(parent context.Context) (uint64, context.Context, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return 0, nil, false
	}
	if g.cancel != nil {
		g.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	g.cancel = cancel
	g.gen++
	g.state.Loading = true
	g.notifyLocked()
	return g.gen, ctx, true
}

func (g *Gate) resolve(ctx context.Context, gen uint64, id *domain.Identity) {
	if id == nil {
		g.commit(gen, nil, nil)
		return
	}

	profile, err := g.lookup(ctx, id.UID)
	switch {
	case err == nil:
		g.commit(gen, id, profile)
	case errors.Is(err, ErrProfileMissing):
		if !g.commit(gen, nil, nil) {
			return
		}
		g.logger.Warn().Str("uid", id.UID).Int("attempts", g.cfg.MaxAttempts).Msg("profile missing, signing out")
		if err := g.signOut(context.WithoutCancel(ctx)); err != nil {
			g.logger.Error().Err(err).Str("uid", id.UID).Msg("forced sign-out failed")
		}
	case ctx.Err() != nil:
		// superseded or closed
	default:
		if !g.commit(gen, nil, nil) {
			return
		}
		g.logger.Error().Err(err).Str("uid", id.UID).Msg("profile lookup failed, signing out")
		// The auth handle must not keep an identity the gate no longer shows.
		if err := g.signOut(context.WithoutCancel(ctx)); err != nil {
			g.logger.Error().Err(err).Str("uid", id.UID).Msg("forced sign-out failed")
		}
	}
}

func (g *Gate) lookup(ctx context.Context, uid string) (*domain.Profile, error) {
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		profile, err := g.profiles.GetProfile(ctx, uid)
		if err == nil {
			return profile, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if attempt == g.cfg.MaxAttempts {
			break
		}
		g.logger.Debug().Str("uid", uid).Int("attempt", attempt).Msg("profile not found, retrying")

		timer := time.NewTimer(g.cfg.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, ErrProfileMissing
}

// commit applies a result if it still belongs to the latest event.
func (g *Gate) commit(gen uint64, id *domain.Identity, profile *domain.Profile) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.gen || g.closed {
		return false
	}
	g.state.Identity = id
	g.state.Profile = profile
	g.state.Loading = false
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.notifyLocked()
	return true
}

func (g *Gate) endSplash() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.state.SplashActive {
		return
	}
	g.state.SplashActive = false
	g.notifyLocked()
}

func (g *Gate) notifyLocked() {
	close(g.changed)
	g.changed = make(chan struct{})
}

func copyState(s State) State {
	out := s
	if s.Identity != nil {
		id := *s.Identity
		out.Identity = &id
	}
	if s.Profile != nil {
		p := *s.Profile
		out.Profile = &p
	}
	return out
}
