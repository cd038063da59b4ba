package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/nutrisync/internal/client/config"
	"github.com/dmitrijs2005/nutrisync/internal/client/connectivity"
	"github.com/dmitrijs2005/nutrisync/internal/client/models"
	"github.com/dmitrijs2005/nutrisync/internal/client/remote"
	"github.com/dmitrijs2005/nutrisync/internal/client/services"
	"github.com/dmitrijs2005/nutrisync/internal/client/session"
	"github.com/dmitrijs2005/nutrisync/internal/client/storage"
	"github.com/dmitrijs2005/nutrisync/internal/client/syncer"
	"github.com/dmitrijs2005/nutrisync/internal/logging"
	"github.com/olebedev/when"
	"golang.org/x/sync/errgroup"
)

var ErrNoOwner = errors.New("no owner: pass a token file (-t) or an owner id (-u)")

type deleter interface {
	Delete(ctx context.Context, localID string) error
}

type App struct {
	cfg *config.Config
	log logging.Logger

	db      *sql.DB
	client  *remote.Client
	monitor *connectivity.Monitor
	repos   *services.Repositories
	sched   *syncer.Scheduler

	owner    string
	deleters map[models.Kind]deleter

	in    io.Reader
	out   io.Writer
	now   func() time.Time
	dates *when.Parser
}

// NewApp opens the cache and wires every component. The owner comes from
// the token file when one is configured, otherwise from cfg.OwnerID.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log, in: os.Stdin, out: os.Stdout, now: time.Now, dates: newDateParser()}

	a.client = remote.NewClient(cfg.ServerBaseURL, cfg.RequestTimeout, log.With("component", "remote"))

	switch {
	case cfg.TokenFile != "":
		s, err := session.Load(cfg.TokenFile)
		if err != nil {
			return nil, err
		}
		if err := s.Check(time.Now()); err != nil {
			log.Warn(ctx, "token looks expired, server calls may be refused", "error", err)
		}
		a.client.SetToken(s.Token)
		a.owner = s.OwnerID
	case cfg.OwnerID != "":
		a.owner = cfg.OwnerID
	default:
		return nil, ErrNoOwner
	}

	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	a.db = db

	a.monitor = connectivity.NewMonitor(a.client, cfg.OnlineCheckInterval, cfg.RequestTimeout,
		log.With("component", "connectivity"))
	a.repos = services.NewRepositories(db, a.client, a.monitor, log.With("component", "repository"))
	a.deleters = map[models.Kind]deleter{
		models.KindFoodLog:     a.repos.Food,
		models.KindMealLog:     a.repos.Meals,
		models.KindWaterLog:    a.repos.Water,
		models.KindExerciseLog: a.repos.Exercise,
		models.KindHabit:       a.repos.Habits,
	}

	coord := syncer.NewCoordinator(a.entities(), a.monitor, log.With("component", "sync"),
		syncer.WithRetention(cfg.Retention()), syncer.WithOwners(a.owner))
	a.sched = syncer.NewScheduler(coord, a.monitor, cfg.SyncInterval, log.With("component", "scheduler"),
		syncer.WithBackoff(cfg.RetryBase, cfg.RetryMax, cfg.MaxRetries))

	return a, nil
}

func (a *App) entities() []syncer.Syncable {
	return []syncer.Syncable{a.repos.Food, a.repos.Meals, a.repos.Water, a.repos.Exercise, a.repos.Habits}
}

// Run starts the connectivity monitor and the sync scheduler and serves the
// REPL until the user quits, input ends or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.monitor.Run(ctx)
		return nil
	})
	g.Go(func() error {
		a.sched.Run(ctx)
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return a.repl(ctx)
	})
	return g.Wait()
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) status() string {
	mode := "offline"
	if a.monitor.IsOnline() {
		mode = "online"
	}
	return fmt.Sprintf("%s %s", a.owner, mode)
}
