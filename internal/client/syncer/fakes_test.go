package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/nutrisync/internal/client/connectivity"
	"github.com/dmitrijs2005/nutrisync/internal/client/models"
	"github.com/dmitrijs2005/nutrisync/internal/client/remote"
	"github.com/dmitrijs2005/nutrisync/internal/client/services"
	"github.com/dmitrijs2005/nutrisync/internal/client/storage"
	"github.com/dmitrijs2005/nutrisync/internal/logging"
	"github.com/stretchr/testify/require"
)

// apiServer is an in-memory tracker API speaking the envelope protocol.
type apiServer struct {
	mu      sync.Mutex
	down    bool
	seq     int
	data    map[string]map[string]map[string]any // resource -> id -> entity
	creates map[string]int
	updates map[string]int
	deletes map[string]int
}

func newAPIServer(t *testing.T) (*apiServer, *httptest.Server) {
	t.Helper()
	a := &apiServer{
		data:    map[string]map[string]map[string]any{},
		creates: map[string]int{},
		updates: map[string]int{},
		deletes: map[string]int{},
	}
	srv := httptest.NewServer(a)
	t.Cleanup(srv.Close)
	return a, srv
}

func (a *apiServer) setDown(down bool) {
	a.mu.Lock()
	a.down = down
	a.mu.Unlock()
}

func (a *apiServer) count(m map[string]int, resource string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return m[resource]
}

func (a *apiServer) stored(resource string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.data[resource])
}

func reply(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	raw, _ := json.Marshal(data)
	_ = json.NewEncoder(w).Encode(remote.Envelope{Success: status < 300, Data: raw})
}

func (a *apiServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.down {
		reply(w, http.StatusServiceUnavailable, nil)
		return
	}
	if r.URL.Path == "/api/health" {
		reply(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/"), "/")
	resource := parts[0]
	if a.data[resource] == nil {
		a.data[resource] = map[string]map[string]any{}
	}
	coll := a.data[resource]

	switch {
	case r.Method == http.MethodPost && len(parts) == 1:
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			reply(w, http.StatusBadRequest, nil)
			return
		}
		a.seq++
		id := fmt.Sprintf("%s-%d", resource, a.seq)
		body["id"] = id
		coll[id] = body
		a.creates[resource]++
		reply(w, http.StatusCreated, body)

	case r.Method == http.MethodPut && len(parts) == 2:
		if _, ok := coll[parts[1]]; !ok {
			reply(w, http.StatusNotFound, nil)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["id"] = parts[1]
		coll[parts[1]] = body
		a.updates[resource]++
		reply(w, http.StatusOK, body)

	case r.Method == http.MethodDelete && len(parts) == 2:
		if _, ok := coll[parts[1]]; !ok {
			reply(w, http.StatusNotFound, nil)
			return
		}
		delete(coll, parts[1])
		a.deletes[resource]++
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodGet && len(parts) == 1:
		owner := r.URL.Query().Get("userId")
		out := []map[string]any{}
		for _, e := range coll {
			if e["userId"] == owner {
				out = append(out, e)
			}
		}
		reply(w, http.StatusOK, out)

	default:
		reply(w, http.StatusMethodNotAllowed, nil)
	}
}

// stack is a fully wired client against an apiServer.
type stack struct {
	api     *apiServer
	monitor *connectivity.Monitor
	repos   *services.Repositories
	coord   *Coordinator
}

func newStack(t *testing.T, opts ...CoordinatorOption) *stack {
	t.Helper()
	api, srv := newAPIServer(t)
	log := logging.Discard()

	db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rc := remote.NewClient(srv.URL, time.Second, log)
	mon := connectivity.NewMonitor(rc, time.Hour, time.Second, log)
	repos := services.NewRepositories(db, rc, mon, log)

	entities := []Syncable{repos.Food, repos.Meals, repos.Water, repos.Exercise, repos.Habits}
	return &stack{
		api:     api,
		monitor: mon,
		repos:   repos,
		coord:   NewCoordinator(entities, mon, log, opts...),
	}
}

// fakeEntity is a scripted Syncable.
type fakeEntity struct {
	kind     models.Kind
	report   models.SyncReport
	pushErr  error
	refresh  []string
	since    []time.Time
	purgedAt []time.Time
	pushes   int
}

func (f *fakeEntity) Kind() models.Kind { return f.kind }

func (f *fakeEntity) PushPending(ctx context.Context) (models.SyncReport, error) {
	f.pushes++
	rep := f.report
	rep.Kind = f.kind
	return rep, f.pushErr
}

func (f *fakeEntity) Refresh(ctx context.Context, ownerID string, notBefore time.Time) (int, error) {
	f.refresh = append(f.refresh, ownerID)
	f.since = append(f.since, notBefore)
	return 1, nil
}

func (f *fakeEntity) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	f.purgedAt = append(f.purgedAt, cutoff)
	return 2, nil
}

type staticOracle bool

func (s staticOracle) IsOnline() bool { return bool(s) }

// fakeRunner counts passes and can block or fail on demand.
type fakeRunner struct {
	calls   atomic.Int32
	block   chan struct{}
	results chan error
}

func (f *fakeRunner) RunSyncPass(ctx context.Context) (Outcome, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		}
	}
	if f.results != nil {
		select {
		case err := <-f.results:
			return Outcome{}, err
		default:
		}
	}
	return Outcome{}, nil
}
