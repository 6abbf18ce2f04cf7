package httpserver

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"foodorder/internal/domain"
	"foodorder/internal/live"
	"foodorder/internal/service/menu"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func withRedisBroker(t *testing.T) fixtureOption {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return func(d *Deps) {
		d.Live = live.NewRedisBroker(client, zerolog.Nop())
	}
}

func withMemoryBroker(d *Deps) {
	d.Live = live.NewMemoryBroker()
}

// sseReader yields the data lines of one event stream.
type sseReader struct {
	lines chan string
}

func openStream(t *testing.T, ctx context.Context, url string) *sseReader {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	r := &sseReader{lines: make(chan string, 16)}
	go func() {
		defer resp.Body.Close()
		defer close(r.lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if data, ok := strings.CutPrefix(sc.Text(), "data:"); ok {
				r.lines <- data
			}
		}
	}()
	return r
}

// waitFor reads events until one contains want.
func (r *sseReader) waitFor(t *testing.T, want string) string {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case line, ok := <-r.lines:
			require.True(t, ok, "stream closed before %q", want)
			if strings.Contains(line, want) {
				return line
			}
		case <-timeout:
			t.Fatalf("no event containing %q", want)
		}
	}
}

func TestMenuStreamPushesChanges(t *testing.T) {
	for name, opt := range map[string]fixtureOption{
		"redis":  withRedisBroker(t),
		"memory": withMemoryBroker,
	} {
		t.Run(name, func(t *testing.T) {
			testMenuStream(t, opt)
		})
	}
}

func testMenuStream(t *testing.T, opt fixtureOption) {
	f := newFixture(t, opt)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream := openStream(t, ctx, srv.URL+"/v1/menu/stream")
	stream.waitFor(t, `"items":[]`)

	_, err := f.deps.Menu.Create(context.Background(), "owner-1", menu.ItemInput{Name: "Tiramisu", Description: "Coffee dessert", Price: "6"})
	require.NoError(t, err)
	stream.waitFor(t, "Tiramisu")
}

func TestRestaurantOrderStreamFiltersByOwner(t *testing.T) {
	f := newFixture(t, withRedisBroker(t))
	f.seedMenu("uid-luigi@example.com")
	f.menu.items["salad"] = domain.MenuItem{ID: "salad", OwnerID: "uid-other@example.com", Name: "Salad"}
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	rest := f.signedIn(t, "luigi@example.com", domain.RoleRestaurant)
	cust := f.signedIn(t, "casey@example.com", domain.RoleCustomer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream := openStream(t, ctx, srv.URL+"/v1/sessions/"+rest+"/restaurant/orders/stream")
	stream.waitFor(t, `"orders":[]`)

	f.do(t, http.MethodPost, "/v1/sessions/"+cust+"/cart/items", addItemRequest{ProductID: "salad"})
	f.do(t, http.MethodPost, "/v1/sessions/"+cust+"/checkout", nil)
	f.do(t, http.MethodPost, "/v1/sessions/"+cust+"/cart/items", addItemRequest{ProductID: "pizza"})
	f.do(t, http.MethodPost, "/v1/sessions/"+cust+"/checkout", nil)

	line := stream.waitFor(t, "Margherita")
	require.NotContains(t, line, "Salad")
}

func TestSessionStreamFollowsGate(t *testing.T) {
	f := newFixture(t)
	f.signedIn(t, "casey@example.com", domain.RoleCustomer)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	id := f.newSession(t)
	f.waitView(t, id, "auth")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream := openStream(t, ctx, srv.URL+"/v1/sessions/"+id+"/stream")
	stream.waitFor(t, `"view":"auth"`)

	rec := f.do(t, http.MethodPost, "/v1/sessions/"+id+"/login", loginRequest{Email: "casey@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	stream.waitFor(t, `"view":"customer"`)
}
