package auth

import (
	"sync"

	"foodorder/internal/domain"
)

// Handle is the auth state of one client session: the signed-in identity,
// its access token and the listeners of identity changes.
type Handle struct {
	mu       sync.Mutex
	identity *domain.Identity
	token    string
	subs     map[int]func(*domain.Identity)
	next     int
}

func NewHandle() *Handle {
	return &Handle{subs: make(map[int]func(*domain.Identity))}
}

// Subscribe delivers the current identity immediately and then every change.
// Listeners are called outside the handle's lock.
func (h *Handle) Subscribe(fn func(*domain.Identity)) func() {
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = fn
	current := cloneIdentity(h.identity)
	h.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

func (h *Handle) Current() *domain.Identity {
	h.mu.Lock()
	defer h.mu.Unlock()
	return cloneIdentity(h.identity)
}

func (h *Handle) Token() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.token
}

func (h *Handle) set(identity *domain.Identity, token string) {
	h.mu.Lock()
	h.identity = cloneIdentity(identity)
	h.token = token
	listeners := h.listenersLocked()
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(cloneIdentity(identity))
	}
}

// clear signs the handle out and returns the token it held.
func (h *Handle) clear() (token string, changed bool) {
	h.mu.Lock()
	token = h.token
	changed = h.identity != nil
	h.identity = nil
	h.token = ""
	listeners := h.listenersLocked()
	h.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(nil)
		}
	}
	return token, changed
}

func (h *Handle) listenersLocked() []func(*domain.Identity) {
	out := make([]func(*domain.Identity), 0, len(h.subs))
	for i := 0; i < h.next; i++ {
		if fn, ok := h.subs[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func cloneIdentity(id *domain.Identity) *domain.Identity {
	if id == nil {
		return nil
	}
	out := *id
	return &out
}
