package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"foodorder/internal/domain"
	tokenrepo "foodorder/internal/repository/token"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memoryAccounts is a lightweight in-memory account repository for tests.
type memoryAccounts struct {
	mu      sync.Mutex
	byEmail map[string]domain.Account
	err     error
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{byEmail: make(map[string]domain.Account)}
}

func (r *memoryAccounts) Create(_ context.Context, a domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	email := strings.ToLower(a.Email)
	if _, exists := r.byEmail[email]; exists {
		return nil, domain.ErrAlreadyExists
	}
	a.ID = "uid-" + email
	a.Email = email
	r.byEmail[email] = a
	return &a, nil
}

func (r *memoryAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	a, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r *memoryAccounts) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byEmail {
		if a.ID == id {
			clone := a
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryAccounts) UpdatePassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, a := range r.byEmail {
		if a.ID == id {
			a.PasswordHash = hash
			r.byEmail[email] = a
			return nil
		}
	}
	return domain.ErrNotFound
}

type memoryTokens struct {
	mu     sync.Mutex
	tokens map[string]tokenrepo.Token
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{tokens: make(map[string]tokenrepo.Token)}
}

func (r *memoryTokens) Create(_ context.Context, token tokenrepo.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tokens[token.Token]; exists {
		return domain.ErrAlreadyExists
	}
	r.tokens[token.Token] = token
	return nil
}

func (r *memoryTokens) Get(_ context.Context, token string) (*tokenrepo.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r *memoryTokens) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token]; !ok {
		return domain.ErrNotFound
	}
	delete(r.tokens, token)
	return nil
}

func (r *memoryTokens) DeleteByAccount(_ context.Context, accountID, kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, t := range r.tokens {
		if t.AccountID == accountID && t.Kind == kind {
			delete(r.tokens, k)
		}
	}
	return nil
}

func (r *memoryTokens) byKind(kind string) []tokenrepo.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []tokenrepo.Token
	for _, t := range r.tokens {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

type stubProfiles struct {
	created []domain.Profile
	err     error
}

func (s *stubProfiles) Create(_ context.Context, p domain.Profile) (*domain.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, p)
	return &p, nil
}

type stubMailer struct {
	email, code string
}

func (m *stubMailer) SendPasswordReset(_ context.Context, email, code string) error {
	m.email, m.code = email, code
	return nil
}

type fixture struct {
	svc      *Service
	accounts *memoryAccounts
	tokens   *memoryTokens
	profiles *stubProfiles
	mailer   *stubMailer
}

func newFixture(opts ...Option) fixture {
	f := fixture{
		accounts: newMemoryAccounts(),
		tokens:   newMemoryTokens(),
		profiles: &stubProfiles{},
		mailer:   &stubMailer{},
	}
	opts = append([]Option{WithHashCost(bcrypt.MinCost)}, opts...)
	f.svc = New(f.accounts, f.profiles, f.tokens, f.mailer, zerolog.Nop(), opts...)
	return f
}

func (f fixture) signUp(t *testing.T, email, password, role string) *Handle {
	t.Helper()
	h := NewHandle()
	_, err := f.svc.SignUp(context.Background(), h, SignUpInput{Email: email, Password: password, ConfirmPassword: password, Role: role})
	require.NoError(t, err)
	return h
}

func TestSignUpCreatesAccountProfileAndSignsIn(t *testing.T) {
	f := newFixture()
	h := NewHandle()

	var seen []*domain.Identity
	h.Subscribe(func(id *domain.Identity) { seen = append(seen, id) })

	id, err := f.svc.SignUp(context.Background(), h, SignUpInput{
		Email: " Chef@Example.com ", Password: "secret1", ConfirmPassword: "secret1", Role: "restaurant",
	})
	require.NoError(t, err)
	assert.Equal(t, "chef@example.com", id.Email)

	require.Len(t, f.profiles.created, 1)
	assert.Equal(t, domain.RoleRestaurant, f.profiles.created[0].Role)
	assert.Equal(t, id.UID, f.profiles.created[0].UID)

	require.Len(t, seen, 2, "initial nil plus sign-in")
	assert.Nil(t, seen[0])
	assert.Equal(t, id.UID, seen[1].UID)
	assert.NotEmpty(t, h.Token())
}

func TestSignUpValidation(t *testing.T) {
	f := newFixture()
	cases := []struct {
		name string
		in   SignUpInput
		want error
	}{
		{"missing", SignUpInput{Email: "a@b.co", Password: "secret1"}, ErrMissingFields},
		{"mismatch", SignUpInput{Email: "a@b.co", Password: "secret1", ConfirmPassword: "secret2"}, ErrPasswordMismatch},
		{"bad email", SignUpInput{Email: "nope", Password: "secret1", ConfirmPassword: "secret1"}, ErrInvalidEmail},
		{"weak", SignUpInput{Email: "a@b.co", Password: "abc", ConfirmPassword: "abc"}, ErrWeakPassword},
		{"role", SignUpInput{Email: "a@b.co", Password: "secret1", ConfirmPassword: "secret1", Role: "admin"}, ErrInvalidRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.SignUp(context.Background(), NewHandle(), tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	f := newFixture()
	f.signUp(t, "a@b.co", "secret1", "customer")

	_, err := f.svc.SignUp(context.Background(), NewHandle(), SignUpInput{Email: "A@B.co", Password: "secret1", ConfirmPassword: "secret1"})
	assert.ErrorIs(t, err, ErrEmailInUse)
	assert.Equal(t, CodeEmailInUse, CodeOf(err))
}

func TestSignInCodes(t *testing.T) {
	f := newFixture()
	f.signUp(t, "a@b.co", "secret1", "customer")
	ctx := context.Background()

	_, err := f.svc.SignIn(ctx, NewHandle(), "nobody@b.co", "secret1")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.SignIn(ctx, NewHandle(), "a@b.co", "wrong-pass")
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = f.svc.SignIn(ctx, NewHandle(), "not-an-email", "secret1")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = f.svc.SignIn(ctx, NewHandle(), "a@b.co", "123")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = f.svc.SignIn(ctx, NewHandle(), "", "")
	assert.ErrorIs(t, err, ErrMissingFields)

	h := NewHandle()
	id, err := f.svc.SignIn(ctx, h, "a@b.co", "secret1")
	require.NoError(t, err)
	assert.Equal(t, id.UID, h.Current().UID)
}

func TestSignInThrottlesAfterFailures(t *testing.T) {
	f := newFixture(WithAttemptLimit(2, time.Hour))
	f.signUp(t, "a@b.co", "secret1", "customer")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.SignIn(ctx, NewHandle(), "a@b.co", "wrong-pass")
		require.ErrorIs(t, err, ErrWrongPassword)
	}
	_, err := f.svc.SignIn(ctx, NewHandle(), "a@b.co", "secret1")
	assert.ErrorIs(t, err, ErrTooManyRequests)
}

func TestSignInBackendFailureIsNetworkError(t *testing.T) {
	f := newFixture()
	f.accounts.err = errors.New("connection refused")

	_, err := f.svc.SignIn(context.Background(), NewHandle(), "a@b.co", "secret1")
	require.Error(t, err)
	assert.Equal(t, CodeNetworkFailed, CodeOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSignOutRevokesTokenAndNotifies(t *testing.T) {
	f := newFixture()
	h := f.signUp(t, "a@b.co", "secret1", "customer")
	token := h.Token()

	var last *domain.Identity = &domain.Identity{}
	unsubscribe := h.Subscribe(func(id *domain.Identity) { last = id })
	defer unsubscribe()
	require.NotNil(t, last)

	require.NoError(t, f.svc.SignOut(context.Background(), h))
	assert.Nil(t, last)
	assert.Nil(t, h.Current())

	_, err := f.svc.Restore(context.Background(), NewHandle(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, f.svc.SignOut(context.Background(), h), "signing out twice is a no-op")
}

func TestRestore(t *testing.T) {
	f := newFixture()
	h := f.signUp(t, "a@b.co", "secret1", "customer")

	restored := NewHandle()
	id, err := f.svc.Restore(context.Background(), restored, h.Token())
	require.NoError(t, err)
	assert.Equal(t, h.Current().UID, id.UID)
	assert.Equal(t, h.Token(), restored.Token())

	_, err = f.svc.Restore(context.Background(), NewHandle(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	f := newFixture()
	h := f.signUp(t, "a@b.co", "secret1", "customer")
	f.svc.tokens.now = func() time.Time { return time.Now().Add(365 * 24 * time.Hour) }

	_, err := f.svc.Restore(context.Background(), NewHandle(), h.Token())
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Empty(t, f.tokens.byKind(tokenrepo.KindAccess), "expired token is deleted")
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture()
	h := f.signUp(t, "a@b.co", "secret1", "customer")
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.RequestPasswordReset(ctx, "nobody@b.co"), ErrUserNotFound)
	assert.ErrorIs(t, f.svc.RequestPasswordReset(ctx, "bad"), ErrInvalidEmail)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "a@b.co"))
	require.NotEmpty(t, f.mailer.code)
	assert.Equal(t, "a@b.co", f.mailer.email)

	assert.ErrorIs(t, f.svc.ConfirmPasswordReset(ctx, f.mailer.code, "abc"), ErrWeakPassword)
	assert.ErrorIs(t, f.svc.ConfirmPasswordReset(ctx, "wrong-code", "newsecret"), ErrInvalidActionCode)
	assert.ErrorIs(t, f.svc.ConfirmPasswordReset(ctx, h.Token(), "newsecret"), ErrInvalidActionCode, "access tokens are not reset codes")

	require.NoError(t, f.svc.ConfirmPasswordReset(ctx, f.mailer.code, "newsecret"))
	assert.ErrorIs(t, f.svc.ConfirmPasswordReset(ctx, f.mailer.code, "again123"), ErrInvalidActionCode, "codes are single use")

	_, err := f.svc.SignIn(ctx, NewHandle(), "a@b.co", "newsecret")
	require.NoError(t, err)
	_, err = f.svc.Restore(ctx, NewHandle(), h.Token())
	assert.ErrorIs(t, err, ErrInvalidToken, "reset signs out existing sessions")
}

func TestChangePassword(t *testing.T) {
	f := newFixture()
	h := f.signUp(t, "a@b.co", "secret1", "customer")
	ctx := context.Background()

	err := f.svc.ChangePassword(ctx, NewHandle(), ChangePasswordInput{CurrentPassword: "secret1", NewPassword: "secret2", ConfirmPassword: "secret2"})
	assert.ErrorIs(t, err, ErrNoCurrentUser)

	err = f.svc.ChangePassword(ctx, h, ChangePasswordInput{CurrentPassword: "secret1", NewPassword: "secret2"})
	assert.ErrorIs(t, err, ErrMissingFields)

	err = f.svc.ChangePassword(ctx, h, ChangePasswordInput{CurrentPassword: "secret1", NewPassword: "secret2", ConfirmPassword: "secret3"})
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	err = f.svc.ChangePassword(ctx, h, ChangePasswordInput{CurrentPassword: "secret1", NewPassword: "abc", ConfirmPassword: "abc"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	err = f.svc.ChangePassword(ctx, h, ChangePasswordInput{CurrentPassword: "nope-nope", NewPassword: "secret2", ConfirmPassword: "secret2"})
	assert.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, f.svc.ChangePassword(ctx, h, ChangePasswordInput{CurrentPassword: "secret1", NewPassword: "secret2", ConfirmPassword: "secret2"}))
	_, err = f.svc.SignIn(ctx, NewHandle(), "a@b.co", "secret2")
	assert.NoError(t, err)
}

func TestHandleUnsubscribe(t *testing.T) {
	h := NewHandle()
	calls := 0
	unsubscribe := h.Subscribe(func(*domain.Identity) { calls++ })
	unsubscribe()
	unsubscribe()

	h.set(&domain.Identity{UID: "u1"}, "tok")
	assert.Equal(t, 1, calls, "only the initial delivery")
}
