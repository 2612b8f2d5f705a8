// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bktutor/bktutor/catalog"
	"github.com/bktutor/bktutor/enrollment"
	"github.com/bktutor/bktutor/lib/clock"
	"github.com/bktutor/bktutor/lib/config"
	"github.com/bktutor/bktutor/lib/version"
	"github.com/bktutor/bktutor/session"
	"github.com/bktutor/bktutor/tutorapi"
)

// AppOptions configures OpenApp.
type AppOptions struct {
	// Config is the finalized, validated configuration. Required.
	Config *config.Config
	// HTTPClient is passed to the gateway. If nil, http.DefaultClient.
	HTTPClient *http.Client
	// Clock is shared by every component. If nil, clock.Real().
	Clock clock.Clock
	// Logger is shared by every component. If nil, a no-op logger.
	Logger *slog.Logger
}

// App is the wired client: one gateway, one session manager, one
// catalog store and one enrollment coordinator sharing them.
type App struct {
	Config     *config.Config
	Client     *tutorapi.Client
	API        *tutorapi.Session
	Session    *session.Manager
	Catalog    *catalog.Store
	Enrollment *enrollment.Coordinator
	Clock      clock.Clock

	logger      *slog.Logger
	store       session.Store
	unsubscribe func()

	closeOnce sync.Once
	closeErr  error
}

// OpenApp opens the session store and builds the components. Nothing
// touches the network until Start.
func OpenApp(options AppOptions) (*App, error) {
	cfg := options.Config
	if cfg == nil {
		return nil, fmt.Errorf("app: Config is required")
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}

	if err := cfg.EnsureStorageDir(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	store, err := session.OpenStore(cfg.Storage, logger.With("component", "store"))
	if err != nil {
		return nil, fmt.Errorf("app: opening session store: %w", err)
	}

	app := &App{Config: cfg, Clock: clk, logger: logger, store: store}
	if err := app.wire(options.HTTPClient, clk); err != nil {
		store.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(httpClient *http.Client, clk clock.Clock) error {
	client, err := tutorapi.NewClient(tutorapi.ClientConfig{
		BaseURL:        a.Config.Server.BaseURL,
		HTTPClient:     httpClient,
		RequestTimeout: a.Config.Server.RequestTimeout.Std(),
		UserAgent:      version.UserAgent("bktutor"),
		Logger:         a.logger.With("component", "tutorapi"),
	})
	if err != nil {
		return err
	}
	manager, err := session.NewManager(session.Config{
		Gateway: client,
		Store:   a.store,
		Clock:   clk,
		Logger:  a.logger.With("component", "session"),
	})
	if err != nil {
		return err
	}
	api := client.Authorized(manager)

	courses, err := catalog.NewStore(catalog.Config{
		API:           api,
		PageIncrement: a.Config.Catalog.PageIncrement,
		Clock:         clk,
		Logger:        a.logger.With("component", "catalog"),
	})
	if err != nil {
		manager.Close()
		return err
	}
	coordinator, err := enrollment.NewCoordinator(enrollment.Config{
		API:      api,
		Identity: manager,
		Clock:    clk,
		Logger:   a.logger.With("component", "enrollment"),
	})
	if err != nil {
		courses.Close()
		manager.Close()
		return err
	}

	a.Client = client
	a.API = api
	a.Session = manager
	a.Catalog = courses
	a.Enrollment = coordinator
	a.unsubscribe = manager.Subscribe(a.sessionChanged)
	return nil
}

// sessionChanged drops the previous user's enrollment set whenever a
// session ends.
func (a *App) sessionChanged(change session.Change) {
	a.logger.Debug("session state changed",
		"previous", change.Previous.String(),
		"state", change.State.String(),
		"reason", string(change.Reason),
	)
	if change.State == session.Anonymous {
		a.Enrollment.Reset()
	}
}

// Load selects what Start fetches after the session settles.
type Load struct {
	Catalog    bool
	Enrollment bool
}

// Start restores the stored session, then runs the requested fetches
// concurrently. The enrollment fetch only runs when a session exists.
// The two fetches are independent: a failure of one neither cancels
// nor hides the other, and both errors are returned joined. The settled
// session state is returned even when a fetch fails.
func (a *App) Start(ctx context.Context, load Load) (session.State, error) {
	state := a.Session.Init(ctx)
	a.logger.Info("session initialized", "state", state.String())

	var catalogErr, enrollmentErr error
	var group errgroup.Group
	if load.Catalog {
		group.Go(func() error {
			catalogErr = a.Catalog.Fetch(ctx)
			return nil
		})
	}
	if load.Enrollment && state == session.Authenticated {
		group.Go(func() error {
			_, enrollmentErr = a.Enrollment.MyCourses(ctx)
			return nil
		})
	}
	group.Wait()
	// A 401 during the fetches has already ended the session.
	return a.Session.State(), errors.Join(catalogErr, enrollmentErr)
}

// RequireUser returns the current user, or an error that tells the
// user to log in.
func (a *App) RequireUser() (tutorapi.User, error) {
	user, ok := a.Session.CurrentUser()
	if !ok {
		return tutorapi.User{}, Classify(session.ErrNotAuthenticated)
	}
	return user, nil
}

// Close tears the components down in reverse order and closes the
// store. Later calls return the first call's result.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.unsubscribe()
		a.Enrollment.Close()
		a.Catalog.Close()
		a.Session.Close()
		if err := a.store.Close(); err != nil {
			a.closeErr = fmt.Errorf("app: closing session store: %w", err)
		}
	})
	return a.closeErr
}
