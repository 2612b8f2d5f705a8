// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bktutor/bktutor/catalog"
	"github.com/bktutor/bktutor/internal/fakeserver"
	"github.com/bktutor/bktutor/lib/config"
	"github.com/bktutor/bktutor/lib/testutil"
	"github.com/bktutor/bktutor/session"
	"github.com/bktutor/bktutor/tutorapi"
)

// testApp opens an App against a seeded fake server, persisting the
// session with the given backend.
func testApp(t *testing.T, server *fakeserver.Server, url, backend string) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Server.BaseURL = url
	cfg.Storage.Backend = backend
	switch backend {
	case config.BackendSQLite:
		cfg.Storage.Path = testutil.StatePath(t, "state") + "/session.db"
	default:
		cfg.Storage.Path = testutil.StatePath(t, "state") + "/session.json"
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	app, err := OpenApp(AppOptions{Config: cfg})
	if err != nil {
		t.Fatalf("OpenApp: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app
}

func seededServer(t *testing.T) (*fakeserver.Server, string) {
	t.Helper()
	server := fakeserver.New(fakeserver.Config{})
	if err := server.Seed(); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	httpServer := httptest.NewServer(server)
	t.Cleanup(httpServer.Close)
	return server, httpServer.URL
}

func TestApp_StartAnonymous(t *testing.T) {
	server, url := seededServer(t)
	app := testApp(t, server, url, config.BackendFile)

	state, err := app.Start(context.Background(), Load{Catalog: true, Enrollment: true})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if state != session.Anonymous {
		t.Errorf("state = %s", state)
	}
	if app.Catalog.Status() != catalog.Ready {
		t.Errorf("catalog status = %s", app.Catalog.Status())
	}
	if server.Calls("my-courses") != 0 {
		t.Error("enrollment fetched without a session")
	}
}

func TestApp_SessionSurvivesRestart(t *testing.T) {
	for _, backend := range []string{config.BackendFile, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			server, url := seededServer(t)
			first := testApp(t, server, url, backend)
			ctx := context.Background()

			if err := first.Session.Login(ctx, "sv.an", fakeserver.SamplePassword); err != nil {
				t.Fatalf("Login: %v", err)
			}
			if result, err := first.Enrollment.Register(ctx, "CO3001"); err != nil || !result.Success {
				t.Fatalf("Register: %+v, %v", result, err)
			}
			first.Close()

			// Reopen against the same store path.
			second, err := OpenApp(AppOptions{Config: first.Config})
			if err != nil {
				t.Fatalf("OpenApp: %v", err)
			}
			defer second.Close()

			state, err := second.Start(ctx, Load{Catalog: true, Enrollment: true})
			if err != nil {
				t.Fatalf("Start: %v", err)
			}
			if state != session.Authenticated {
				t.Fatalf("state after restart = %s", state)
			}
			if user, _ := second.Session.CurrentUser(); user.Username != "sv.an" {
				t.Errorf("restored user = %q", user.Username)
			}
			if !second.Enrollment.IsRegistered("CO3001") {
				t.Error("enrollment set not fetched at start")
			}

			view := second.Catalog.View(second.Enrollment)
			marked := 0
			for _, entry := range view.Entries {
				if entry.Registered {
					marked++
					if entry.Code != "CO3001" {
						t.Errorf("unexpected registered marker on %s", entry.Code)
					}
				}
			}
			if marked != 1 {
				t.Errorf("%d registered markers, want 1", marked)
			}
		})
	}
}

func TestApp_UnauthorizedCatalogFetchEndsSession(t *testing.T) {
	server, url := seededServer(t)
	app := testApp(t, server, url, config.BackendFile)
	ctx := context.Background()

	changes := make(chan session.Change, 16)
	app.Session.Subscribe(func(change session.Change) { changes <- change })

	if err := app.Session.Login(ctx, "sv.an", fakeserver.SamplePassword); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := app.Enrollment.Register(ctx, "MA1001"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if app.Enrollment.Snapshot().Len() != 1 {
		t.Fatalf("enrollment set = %d courses", app.Enrollment.Snapshot().Len())
	}

	server.RevokeTokens("sv.an")

	err := app.Catalog.Fetch(ctx)
	if !tutorapi.IsUnauthorized(err) {
		t.Fatalf("expected 401 from catalog fetch, got %v", err)
	}
	if app.Session.State() != session.Anonymous {
		t.Errorf("state after 401 = %s", app.Session.State())
	}
	if app.Session.AccessToken() != "" {
		t.Error("token retained after 401")
	}
	if app.Enrollment.Snapshot().Len() != 0 {
		t.Error("enrollment set retained after the session ended")
	}

	var sawExpired bool
	for {
		change := testutil.RequireReceive(t, changes, time.Second, "waiting for session changes")
		if change.State == session.Expired {
			sawExpired = true
		}
		if change.State == session.Anonymous && change.Reason == session.ReasonExpired {
			break
		}
	}
	if !sawExpired {
		t.Error("Expired was not published before Anonymous")
	}

	// Nothing survives on disk either.
	restarted, err := OpenApp(AppOptions{Config: app.Config})
	if err != nil {
		t.Fatalf("OpenApp: %v", err)
	}
	defer restarted.Close()
	if state, _ := restarted.Start(ctx, Load{}); state != session.Anonymous {
		t.Errorf("state after restart = %s", state)
	}
}

func TestApp_CatalogFailureKeepsEnrollmentFetch(t *testing.T) {
	server := fakeserver.New(fakeserver.Config{})
	if err := server.Seed(); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	var degraded atomic.Bool
	httpServer := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if degraded.Load() {
			switch {
			case request.Method == http.MethodGet && request.URL.Path == "/courses":
				writer.Header().Set("Content-Type", "application/json")
				writer.WriteHeader(http.StatusInternalServerError)
				writer.Write([]byte(`{"detail":"boom"}`))
				return
			case request.URL.Path == "/my-courses":
				time.Sleep(200 * time.Millisecond)
			}
		}
		server.ServeHTTP(writer, request)
	}))
	t.Cleanup(httpServer.Close)

	app := testApp(t, server, httpServer.URL, config.BackendFile)
	ctx := context.Background()
	if err := app.Session.Login(ctx, "sv.an", fakeserver.SamplePassword); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result, err := app.Enrollment.Register(ctx, "CO3001"); err != nil || !result.Success {
		t.Fatalf("Register: %+v, %v", result, err)
	}

	degraded.Store(true)
	restarted, err := OpenApp(AppOptions{Config: app.Config})
	if err != nil {
		t.Fatalf("OpenApp: %v", err)
	}
	defer restarted.Close()

	state, err := restarted.Start(ctx, Load{Catalog: true, Enrollment: true})
	if state != session.Authenticated {
		t.Errorf("state = %s, want authenticated", state)
	}
	if !tutorapi.IsStatus(err, http.StatusInternalServerError) {
		t.Errorf("Start error = %v, want the catalog's 500", err)
	}
	if restarted.Catalog.Status() != catalog.Failed {
		t.Errorf("catalog status = %s, want failed", restarted.Catalog.Status())
	}
	if !restarted.Enrollment.IsRegistered("CO3001") {
		t.Error("enrollment fetch did not complete after the catalog fetch failed")
	}
}

func TestApp_ConcurrentMutations(t *testing.T) {
	server, url := seededServer(t)
	app := testApp(t, server, url, config.BackendMemory)
	ctx := context.Background()

	if err := app.Session.Login(ctx, "sv.an", fakeserver.SamplePassword); err != nil {
		t.Fatalf("Login: %v", err)
	}

	codes := []string{"CO3001", "CO2013", "LA3025", "MA1001"}
	var wg sync.WaitGroup
	errs := make(chan error, len(codes))
	for _, code := range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := app.Enrollment.Register(ctx, code)
			if err != nil {
				errs <- err
				return
			}
			if !result.Success && !result.Suppressed {
				errs <- errors.New(code + ": " + result.Message)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("register: %v", err)
	}

	set, err := app.Enrollment.MyCourses(ctx)
	if err != nil {
		t.Fatalf("MyCourses: %v", err)
	}
	if set.Len() != len(codes) {
		t.Errorf("enrolled in %d courses, want %d", set.Len(), len(codes))
	}

	// CO2003 shares a slot with CO3001.
	result, err := app.Enrollment.Register(ctx, "CO2003")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.Success || result.Message == "" {
		t.Errorf("expected schedule conflict refusal, got %+v", result)
	}
	if app.Enrollment.IsRegistered("CO2003") {
		t.Error("refused course marked as registered")
	}
	if app.Enrollment.InFlight("CO2003") {
		t.Error("lock held after refusal")
	}
}

func TestApp_CreateCourseRequiresRole(t *testing.T) {
	server, url := seededServer(t)
	app := testApp(t, server, url, config.BackendMemory)
	ctx := context.Background()

	if err := app.Session.Login(ctx, "gv.huy", fakeserver.SamplePassword); err != nil {
		t.Fatalf("Login: %v", err)
	}
	result, err := app.Enrollment.CreateCourse(ctx, tutorapi.CourseDraft{Code: "CO4029", Name: "Đồ án Chuyên ngành"})
	if err != nil || !result.Success {
		t.Fatalf("CreateCourse as teacher: %+v, %v", result, err)
	}
	if err := app.Catalog.Fetch(ctx); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if _, ok := app.Catalog.Lookup("CO4029"); !ok {
		t.Error("created course missing from catalog")
	}

	app.Session.Logout()
	if err := app.Session.Login(ctx, "sv.an", fakeserver.SamplePassword); err != nil {
		t.Fatalf("Login: %v", err)
	}
	before := server.Calls("create")
	_, err = app.Enrollment.CreateCourse(ctx, tutorapi.CourseDraft{Code: "CO4030", Name: "x"})
	if err == nil {
		t.Fatal("student created a course")
	}
	if server.Calls("create") != before {
		t.Error("request sent for a role that may not create courses")
	}
}
