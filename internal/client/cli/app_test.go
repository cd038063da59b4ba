package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/nutrisync/internal/client/config"
	"github.com/dmitrijs2005/nutrisync/internal/client/models"
	"github.com/dmitrijs2005/nutrisync/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.ServerBaseURL = serverURL
	cfg.DatabasePath = filepath.Join(t.TempDir(), "cache.db")
	cfg.OwnerID = "user-1"
	cfg.RequestTimeout = time.Second
	cfg.OnlineCheckInterval = 50 * time.Millisecond
	cfg.RetryBase = 10 * time.Millisecond
	cfg.MaxRetries = 0
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) (*App, *bytes.Buffer) {
	t.Helper()
	a, err := NewApp(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	var out bytes.Buffer
	a.out = &out
	a.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	return a, &out
}

func TestNewApp_RequiresOwner(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.OwnerID = ""

	_, err := NewApp(context.Background(), cfg, logging.Discard())
	require.ErrorIs(t, err, ErrNoOwner)
}

func TestNewApp_OwnerFromTokenFile(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "token-owner",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte(tok+"\n"), 0o600))

	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.TokenFile = path

	a, _ := newTestApp(t, cfg)
	assert.Equal(t, "token-owner", a.owner)
	assert.Equal(t, "token-owner offline", a.status())
}

func TestExec_OfflineWritesAreListed(t *testing.T) {
	a, out := newTestApp(t, testConfig(t, "http://127.0.0.1:1"))
	ctx := context.Background()

	assert.False(t, a.Exec(ctx, "water 250"))
	assert.Contains(t, out.String(), "server id: offline")

	a.Exec(ctx, "food apple 95 snack")
	a.Exec(ctx, "meal lunch 640")
	a.Exec(ctx, "exercise running 30 300")
	a.Exec(ctx, "water 100 2026-03-13")

	out.Reset()
	a.Exec(ctx, "list")
	listing := out.String()
	assert.Contains(t, listing, "2026-03-14")
	assert.Contains(t, listing, "apple")
	assert.Contains(t, listing, "lunch")
	assert.Contains(t, listing, "running")
	assert.Contains(t, listing, "water total: 250 ml")
	assert.NotContains(t, listing, "100 ml")

	out.Reset()
	a.Exec(ctx, "list 2026-03-12")
	assert.Contains(t, out.String(), "nothing logged")
}

func TestExec_RejectsBadInput(t *testing.T) {
	a, out := newTestApp(t, testConfig(t, "http://127.0.0.1:1"))
	ctx := context.Background()

	tests := []struct {
		line string
		want string
	}{
		{"water", "wrong arguments"},
		{"water lots", "positive number"},
		{"water 200 banana", "unrecognised date"},
		{"food apple", "wrong arguments"},
		{"list xyzzy", "unrecognised date"},
		{"delete water", "wrong arguments"},
		{"delete sandwiches x", "error:"},
		{"delete water missing-id", "no water_log with id missing-id"},
		{"frobnicate", "Unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			out.Reset()
			assert.False(t, a.Exec(ctx, tt.line))
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestExec_HabitLifecycle(t *testing.T) {
	a, out := newTestApp(t, testConfig(t, "http://127.0.0.1:1"))
	ctx := context.Background()

	res, err := a.repos.Habits.Create(ctx, a.owner, models.Habit{Name: "stretch", Frequency: "daily", Date: "2026-03-14"})
	require.NoError(t, err)

	a.Exec(ctx, "done "+res.LocalID)
	assert.Contains(t, out.String(), "stretch marked done")

	out.Reset()
	a.Exec(ctx, "habits")
	assert.Contains(t, out.String(), "[x]")

	out.Reset()
	a.Exec(ctx, "delete habits "+res.LocalID)
	assert.Contains(t, out.String(), "deleted habit")

	out.Reset()
	a.Exec(ctx, "habits")
	assert.Contains(t, out.String(), "no habits")
}

func TestExec_SyncWhileOffline(t *testing.T) {
	a, out := newTestApp(t, testConfig(t, "http://127.0.0.1:1"))

	a.Exec(context.Background(), "sync")
	assert.Contains(t, out.String(), "offline")

	out.Reset()
	a.Exec(context.Background(), "status")
	assert.Contains(t, out.String(), "connectivity: offline")
	assert.Contains(t, out.String(), "last sync: ")
}

func TestExec_OnlineCreateUsesServerID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/health":
			_, _ = w.Write([]byte(`{"success":true}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/water-logs":
			_, _ = w.Write([]byte(`{"success":true,"data":{"id":"w-1"}}`))
		case r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	a, out := newTestApp(t, testConfig(t, srv.URL))
	ctx := context.Background()
	require.True(t, a.monitor.Check(ctx))

	a.Exec(ctx, "water 300")
	assert.Contains(t, out.String(), "server id: w-1")

	out.Reset()
	a.Exec(ctx, "sync")
	assert.Contains(t, out.String(), "synced 0")

	out.Reset()
	a.Exec(ctx, "status")
	assert.Contains(t, out.String(), "connectivity: online")
	assert.Contains(t, out.String(), "ok")
}

func TestRun_EndsOnQuit(t *testing.T) {
	a, out := newTestApp(t, testConfig(t, "http://127.0.0.1:1"))
	a.in = strings.NewReader("water 200\nquit\nwater 999\n")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Run(ctx))

	assert.Contains(t, out.String(), "Bye!")
	recs, err := a.repos.Water.ReadByDate(context.Background(), a.owner, "2026-03-14")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 200, recs[0].Payload.Amount)
}

func TestRun_EndsOnEOF(t *testing.T) {
	a, _ := newTestApp(t, testConfig(t, "http://127.0.0.1:1"))
	a.in = strings.NewReader("help\n")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Run(ctx))
}

func TestExec_RelativeDates(t *testing.T) {
	a, out := newTestApp(t, testConfig(t, "http://127.0.0.1:1"))
	ctx := context.Background()

	a.Exec(ctx, "water 150 yesterday")
	require.NotContains(t, out.String(), "error")

	recs, err := a.repos.Water.ReadByDate(ctx, a.owner, "2026-03-13")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 150, recs[0].Payload.Amount)

	out.Reset()
	a.Exec(ctx, "list yesterday")
	assert.Contains(t, out.String(), "water total: 150 ml")
}

func TestResolveDate(t *testing.T) {
	w := newDateParser()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2026-01-02", "2026-01-02", false},
		{"today", "2026-03-14", false},
		{"yesterday", "2026-03-13", false},
		{"tomorrow", "2026-03-15", false},
		{"banana", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := resolveDate(w, tt.in, now)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
