package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/nutrisync/internal/client/models"
	"github.com/dmitrijs2005/nutrisync/internal/client/remote"
	"github.com/dmitrijs2005/nutrisync/internal/client/repositories/records"
	"github.com/dmitrijs2005/nutrisync/internal/client/storage"
	"github.com/dmitrijs2005/nutrisync/internal/logging"
	"github.com/stretchr/testify/require"
)

type fakeOracle struct{ online atomic.Bool }

func (f *fakeOracle) IsOnline() bool { return f.online.Load() }

// fakeEndpoint is an in-memory server for one kind.
type fakeEndpoint[T models.Payload] struct {
	t *testing.T

	mu      sync.Mutex
	items   map[string]remote.Item[T]
	seq     int
	creates int
	updates int
	deletes int
	lists   int

	failCreate error
	failUpdate error
	failDelete error
	// forbid fails the test on any call
	forbid bool
	// listAll makes List ignore the owner filter
	listAll bool
	// afterCreate runs once the server has stored a new record, before
	// Create returns to the caller
	afterCreate func(serverID string)
}

func newFakeEndpoint[T models.Payload](t *testing.T) *fakeEndpoint[T] {
	return &fakeEndpoint[T]{t: t, items: map[string]remote.Item[T]{}}
}

func (f *fakeEndpoint[T]) check(op string) {
	if f.forbid {
		f.t.Errorf("unexpected remote %s", op)
	}
}

func (f *fakeEndpoint[T]) Create(ctx context.Context, ownerID, localID string, p T) (string, error) {
	id, hook, err := f.create(ownerID, p)
	if err == nil && hook != nil {
		hook(id)
	}
	return id, err
}

func (f *fakeEndpoint[T]) create(ownerID string, p T) (string, func(string), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.check("create")
	f.creates++
	if f.failCreate != nil {
		return "", nil, f.failCreate
	}
	f.seq++
	id := fmt.Sprintf("srv-%d", f.seq)
	f.items[id] = remote.Item[T]{ServerID: id, OwnerID: ownerID, Payload: p}
	return id, f.afterCreate, nil
}

func (f *fakeEndpoint[T]) Update(ctx context.Context, ownerID, serverID string, p T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.check("update")
	f.updates++
	if f.failUpdate != nil {
		return f.failUpdate
	}
	if _, ok := f.items[serverID]; !ok {
		return remote.ErrNotFound
	}
	f.items[serverID] = remote.Item[T]{ServerID: serverID, OwnerID: ownerID, Payload: p}
	return nil
}

func (f *fakeEndpoint[T]) Delete(ctx context.Context, serverID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.check("delete")
	f.deletes++
	if f.failDelete != nil {
		return f.failDelete
	}
	if _, ok := f.items[serverID]; !ok {
		return remote.ErrNotFound
	}
	delete(f.items, serverID)
	return nil
}

func (f *fakeEndpoint[T]) List(ctx context.Context, ownerID string) ([]remote.Item[T], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.check("list")
	f.lists++
	var out []remote.Item[T]
	for _, it := range f.items {
		if f.listAll || it.OwnerID == ownerID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeEndpoint[T]) calls() (creates, updates, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates, f.updates, f.deletes
}

func (f *fakeEndpoint[T]) set(fn func(f *fakeEndpoint[T])) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// testClock hands out strictly increasing instants.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newStore[T models.Payload](t *testing.T) *records.SQLiteStore[T] {
	t.Helper()
	db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return records.NewSQLiteStore[T](db)
}

type waterFixture struct {
	repo   *Repository[models.WaterLog]
	store  *records.SQLiteStore[models.WaterLog]
	remote *fakeEndpoint[models.WaterLog]
	oracle *fakeOracle
}

func newWaterFixture(t *testing.T, opts ...Option) *waterFixture {
	t.Helper()
	f := &waterFixture{
		store:  newStore[models.WaterLog](t),
		remote: newFakeEndpoint[models.WaterLog](t),
		oracle: &fakeOracle{},
	}
	opts = append([]Option{WithClock(newClock().Now)}, opts...)
	f.repo = NewRepository[models.WaterLog](f.store, f.remote, f.oracle, logging.Discard(), opts...)
	return f
}

type habitFixture struct {
	repo   *HabitRepository
	store  *records.SQLiteStore[models.Habit]
	remote *fakeEndpoint[models.Habit]
	oracle *fakeOracle
}

func newHabitFixture(t *testing.T) *habitFixture {
	t.Helper()
	f := &habitFixture{
		store:  newStore[models.Habit](t),
		remote: newFakeEndpoint[models.Habit](t),
		oracle: &fakeOracle{},
	}
	f.repo = NewHabitRepository(f.store, f.remote, f.oracle, logging.Discard(), WithClock(newClock().Now))
	return f
}

const (
	owner = "user-1"
	day   = "2024-03-10"
)

func glass(ml int) models.WaterLog { return models.WaterLog{Amount: ml, Date: day} }
