package instapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instapi/pkg/config"
	"instapi/pkg/instagram"
	"instapi/pkg/logger"
	"instapi/pkg/models"
	"instapi/pkg/ratelimit"
	"instapi/pkg/session"
)

type fakeRemote struct {
	*httptest.Server
	mu        sync.Mutex
	logins    int
	validSess string
}

func newFakeRemote(t *testing.T) *fakeRemote {
	t.Helper()
	f := &fakeRemote{validSess: "fresh"}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/si/fetch_headers/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "csrf", Path: "/"})
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/api/v1/accounts/login/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.logins++
		sess := f.validSess
		f.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: sess, Path: "/"})
		_, _ = w.Write([]byte(`{"logged_in_user":{"pk":42},"status":"ok"}`))
	})
	mux.HandleFunc("/api/v1/accounts/current_user/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		sess := f.validSess
		f.mu.Unlock()
		ck, err := r.Cookie("sessionid")
		if err != nil || ck.Value != sess {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"login_required","status":"fail"}`))
			return
		}
		_, _ = w.Write([]byte(`{"user":{"pk":42,"username":"alice","full_name":"A","is_private":false,"is_verified":false}}`))
	})
	mux.HandleFunc("/api/v1/users/42/info/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user":{"pk":42,"username":"alice","full_name":"A","is_private":false,"is_verified":false},"status":"ok"}`))
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeRemote) loginCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins
}

func (f *fakeRemote) rotate(sess string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validSess = sess
}

func testConfig(f *fakeRemote) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Instagram.BaseURL = f.URL + "/api/v1/"
	cfg.Instagram.Username = "alice"
	cfg.Instagram.Password = "secret"
	cfg.Retry.MaxAttempts = 1
	return cfg
}

func bindOpts(store session.Store) []Option {
	return []Option{
		WithStore(store),
		WithLogger(logger.NewNopLogger()),
		WithClientOptions(instagram.WithLimiter(ratelimit.Unlimited{})),
	}
}

func TestBindRequiresCredentials(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Instagram.Username = "alice"

	b, client, err := Bind(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Nil(t, client)
	assert.False(t, b.IsBound())
}

func TestBindLogsInAndCaches(t *testing.T) {
	f := newFakeRemote(t)
	store := session.NewMockStore()

	b, client, err := Bind(context.Background(), testConfig(f), bindOpts(store)...)
	require.NoError(t, err)
	assert.True(t, b.IsBound())
	assert.Equal(t, int64(42), client.UserID())
	assert.Equal(t, 1, f.loginCount())
	assert.Equal(t, 1, store.Len())

	me, err := models.Self(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
}

func TestBindReusesCachedSession(t *testing.T) {
	f := newFakeRemote(t)
	store := session.NewMockStore()
	cfg := testConfig(f)

	_, _, err := Bind(context.Background(), cfg, bindOpts(store)...)
	require.NoError(t, err)
	_, client, err := Bind(context.Background(), cfg, bindOpts(store)...)
	require.NoError(t, err)

	assert.Equal(t, 1, f.loginCount())
	assert.Equal(t, int64(42), client.UserID())
	assert.Equal(t, 2, store.Puts)
}

func TestBindRelogsWhenCacheExpired(t *testing.T) {
	f := newFakeRemote(t)
	store := session.NewMockStore()
	cfg := testConfig(f)

	_, _, err := Bind(context.Background(), cfg, bindOpts(store)...)
	require.NoError(t, err)

	f.rotate("rotated")
	_, _, err = Bind(context.Background(), cfg, bindOpts(store)...)
	require.NoError(t, err)
	assert.Equal(t, 2, f.loginCount())
}

func TestBindToleratesBrokenCache(t *testing.T) {
	f := newFakeRemote(t)
	store := session.NewMockStore()
	store.GetError = errors.New("disk on fire")
	store.PutError = errors.New("disk on fire")

	b, _, err := Bind(context.Background(), testConfig(f), bindOpts(store)...)
	require.NoError(t, err)
	assert.True(t, b.IsBound())
	assert.Equal(t, 1, f.loginCount())
}

func TestBindWithFileStore(t *testing.T) {
	f := newFakeRemote(t)
	cfg := testConfig(f)
	cfg.Session.CacheDir = t.TempDir()
	opts := []Option{
		WithLogger(logger.NewNopLogger()),
		WithClientOptions(instagram.WithLimiter(ratelimit.Unlimited{})),
	}

	_, _, err := Bind(context.Background(), cfg, opts...)
	require.NoError(t, err)
	_, _, err = Bind(context.Background(), cfg, opts...)
	require.NoError(t, err)
	assert.Equal(t, 1, f.loginCount())
	assert.FileExists(t, filepath.Join(cfg.Session.CacheDir, session.Credentials{Username: "alice", Password: "secret"}.Key()))
}
