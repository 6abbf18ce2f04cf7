package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"foodorder/internal/domain"
	"foodorder/internal/events"
	"foodorder/internal/live"
	tokenrepo "foodorder/internal/repository/token"
	"foodorder/internal/service/auth"
	"foodorder/internal/service/checkout"
	"foodorder/internal/service/menu"
	"foodorder/internal/service/order"
	"foodorder/internal/service/profile"
	"foodorder/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memAccounts struct {
	mu   sync.Mutex
	byID map[string]domain.Account
}

func (r *memAccounts) Create(_ context.Context, a domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == a.Email {
			return nil, domain.ErrAlreadyExists
		}
	}
	a.ID = "uid-" + a.Email
	r.byID[a.ID] = a
	return &a, nil
}

func (r *memAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memAccounts) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r *memAccounts) UpdatePassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.PasswordHash = hash
	r.byID[id] = a
	return nil
}

type memTokens struct {
	mu     sync.Mutex
	tokens map[string]tokenrepo.Token
}

func (r *memTokens) Create(_ context.Context, t tokenrepo.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[t.Token] = t
	return nil
}

func (r *memTokens) Get(_ context.Context, token string) (*tokenrepo.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r *memTokens) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

func (r *memTokens) DeleteByAccount(_ context.Context, accountID, kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, t := range r.tokens {
		if t.AccountID == accountID && t.Kind == kind {
			delete(r.tokens, k)
		}
	}
	return nil
}

type memProfiles struct {
	mu       sync.Mutex
	profiles map[string]domain.Profile
}

func (p *memProfiles) Create(_ context.Context, profile domain.Profile) (*domain.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profiles[profile.UID] = profile
	return &profile, nil
}

func (p *memProfiles) GetProfile(_ context.Context, uid string) (*domain.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	profile, ok := p.profiles[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &profile, nil
}

type memMenu struct {
	mu    sync.Mutex
	seq   int
	items map[string]domain.MenuItem
}

func (m *memMenu) ListAll(_ context.Context) ([]domain.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.MenuItem, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memMenu) ListByOwner(ctx context.Context, ownerID string) ([]domain.MenuItem, error) {
	all, _ := m.ListAll(ctx)
	var out []domain.MenuItem
	for _, it := range all {
		if it.OwnerID == ownerID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memMenu) GetByID(_ context.Context, id string) (*domain.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &it, nil
}

func (m *memMenu) Create(_ context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	item.ID = fmt.Sprintf("item-%02d", m.seq)
	m.items[item.ID] = item
	return &item, nil
}

func (m *memMenu) Update(_ context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	m.items[item.ID] = item
	return &item, nil
}

func (m *memMenu) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type stubUploader struct {
	url string
	err error
}

func (u *stubUploader) Upload(_ context.Context, _, _ string, body io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, body)
	return u.url, u.err
}

type memOrders struct {
	mu      sync.Mutex
	seq     int
	orders  []domain.Order
	failErr error
}

func (m *memOrders) Create(_ context.Context, o domain.Order) (*domain.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, false, m.failErr
	}
	for _, existing := range m.orders {
		if existing.IdempotencyKey == o.IdempotencyKey {
			if existing.CustomerID != o.CustomerID {
				return nil, false, domain.ErrAlreadyExists
			}
			return &existing, false, nil
		}
	}
	m.seq++
	o.ID = fmt.Sprintf("order-%02d", m.seq)
	o.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Second)
	o.UpdatedAt = o.CreatedAt
	m.orders = append(m.orders, o)
	return &o, true, nil
}

func (m *memOrders) GetByIdempotencyKey(_ context.Context, key string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.IdempotencyKey == key {
			return &o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memOrders) ListByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for i := len(m.orders) - 1; i >= 0; i-- {
		if m.orders[i].CustomerID == customerID {
			out = append(out, m.orders[i])
		}
	}
	return out, nil
}

func (m *memOrders) ListByOwner(_ context.Context, ownerID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for i := len(m.orders) - 1; i >= 0; i-- {
		if m.orders[i].HasOwner(ownerID) {
			out = append(out, m.orders[i])
		}
	}
	return out, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID == id {
			m.orders[i].Status = status
			o := m.orders[i]
			return &o, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memRestaurants struct {
	mu    sync.Mutex
	saved map[string]domain.Restaurant
}

func (m *memRestaurants) Get(_ context.Context, ownerID string) (*domain.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.saved[ownerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (m *memRestaurants) Upsert(_ context.Context, r domain.Restaurant) (*domain.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[r.OwnerID] = r
	return &r, nil
}

type memCustomers struct {
	mu    sync.Mutex
	saved map[string]domain.CustomerProfile
}

func (m *memCustomers) Get(_ context.Context, uid string) (*domain.CustomerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.saved[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memCustomers) Upsert(_ context.Context, p domain.CustomerProfile) (*domain.CustomerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[p.UID] = p
	return &p, nil
}

type fixture struct {
	router   *gin.Engine
	deps     Deps
	manager  *session.Manager
	profiles *memProfiles
	menu     *memMenu
	orders   *memOrders
	uploader *stubUploader
}

type fixtureOption func(*Deps)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zerolog.Nop()

	f := &fixture{
		profiles: &memProfiles{profiles: make(map[string]domain.Profile)},
		menu:     &memMenu{items: make(map[string]domain.MenuItem)},
		orders:   &memOrders{},
		uploader: &stubUploader{url: "https://blob.example/dishes/dish.jpg"},
	}
	tokens := &memTokens{tokens: make(map[string]tokenrepo.Token)}
	authSvc := auth.New(&memAccounts{byID: make(map[string]domain.Account)}, f.profiles, tokens,
		auth.LogMailer{Logger: logger}, logger, auth.WithHashCost(bcrypt.MinCost))
	f.manager = session.NewManager(authSvc, f.profiles, logger, session.ManagerConfig{
		Gate:        session.GateConfig{RetryDelay: 5 * time.Millisecond, MaxAttempts: 3},
		IdleTimeout: time.Minute,
	})

	var broker live.Broker = live.NopBroker{}
	deps := Deps{
		Sessions: f.manager,
		Auth:     authSvc,
		Live:     broker,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	deps.Menu = menu.New(f.menu, f.uploader, deps.Live, logger)
	deps.Orders = order.New(f.orders, deps.Live, events.NopPublisher{}, logger)
	deps.Checkout = checkout.New(f.orders, deps.Live, events.NopPublisher{}, logger)
	deps.Profiles = profile.New(&memRestaurants{saved: make(map[string]domain.Restaurant)}, &memCustomers{saved: make(map[string]domain.CustomerProfile)})

	router, err := buildRouter(logger, nil, deps)
	require.NoError(t, err)
	f.router = router
	f.deps = deps
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (f *fixture) newSession(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[sessionResponse](t, rec).ID
}

func (f *fixture) waitView(t *testing.T, id string, want session.View) sessionResponse {
	t.Helper()
	var last sessionResponse
	require.Eventually(t, func() bool {
		rec := f.do(t, http.MethodGet, "/v1/sessions/"+id, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		last = decode[sessionResponse](t, rec)
		return last.View == want
	}, 2*time.Second, 5*time.Millisecond)
	return last
}

// signedIn opens a session and signs up a new account with the role.
func (f *fixture) signedIn(t *testing.T, email string, role domain.Role) string {
	t.Helper()
	id := f.newSession(t)
	f.waitView(t, id, session.ViewAuth)
	rec := f.do(t, http.MethodPost, "/v1/sessions/"+id+"/signup", auth.SignUpInput{
		Email: email, Password: "secret1", ConfirmPassword: "secret1", Role: string(role),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	want := session.ViewCustomer
	if role == domain.RoleRestaurant {
		want = session.ViewRestaurant
	}
	f.waitView(t, id, want)
	return id
}
