// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package fakeserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bktutor/bktutor/lib/clock"
	"github.com/bktutor/bktutor/tutorapi"
)

type fixedToken string

func (f fixedToken) AccessToken() string { return string(f) }

// startSeeded mounts a seeded Server on httptest and returns a client
// for it.
func startSeeded(t *testing.T, config Config) (*Server, *tutorapi.Client) {
	t.Helper()
	server := New(config)
	if err := server.Seed(); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	httpServer := httptest.NewServer(server)
	t.Cleanup(httpServer.Close)

	client, err := tutorapi.NewClient(tutorapi.ClientConfig{BaseURL: httpServer.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return server, client
}

func login(t *testing.T, client *tutorapi.Client, username string) *tutorapi.Session {
	t.Helper()
	response, err := client.Login(context.Background(), username, SamplePassword)
	if err != nil {
		t.Fatalf("Login(%s): %v", username, err)
	}
	return client.Authorized(fixedToken(response.AccessToken))
}

func TestLogin(t *testing.T) {
	_, client := startSeeded(t, Config{})
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		session := login(t, client, "sv.an")
		user, err := session.CurrentUser(ctx)
		if err != nil {
			t.Fatalf("CurrentUser: %v", err)
		}
		if user.Username != "sv.an" || user.Role != tutorapi.RoleStudent {
			t.Errorf("unexpected user: %+v", user)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := client.Login(ctx, "sv.an", "nope")
		if !tutorapi.IsUnauthorized(err) {
			t.Fatalf("expected 401, got %v", err)
		}
	})

	t.Run("inactive account", func(t *testing.T) {
		_, err := client.Login(ctx, "sv.khoa", SamplePassword)
		if !tutorapi.IsStatus(err, http.StatusBadRequest) {
			t.Fatalf("expected 400, got %v", err)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := client.CurrentUser(ctx, "not-a-jwt")
		if !tutorapi.IsUnauthorized(err) {
			t.Fatalf("expected 401, got %v", err)
		}
	})
}

func TestTokenLifetime(t *testing.T) {
	fake := clock.Fake(time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC))
	server, client := startSeeded(t, Config{Clock: fake, TokenTTL: 10 * time.Minute})
	ctx := context.Background()

	t.Run("expiry", func(t *testing.T) {
		session := login(t, client, "gv.huy")
		fake.Advance(11 * time.Minute)
		if _, err := session.CurrentUser(ctx); !tutorapi.IsUnauthorized(err) {
			t.Fatalf("expected 401 after expiry, got %v", err)
		}
	})

	t.Run("revocation", func(t *testing.T) {
		session := login(t, client, "sv.an")
		if _, err := session.MyCourses(ctx); err != nil {
			t.Fatalf("MyCourses before revocation: %v", err)
		}
		server.RevokeTokens("sv.an")
		if _, err := session.MyCourses(ctx); !tutorapi.IsUnauthorized(err) {
			t.Fatalf("expected 401 after revocation, got %v", err)
		}
		// A new login works again.
		if _, err := login(t, client, "sv.an").MyCourses(ctx); err != nil {
			t.Fatalf("MyCourses after new login: %v", err)
		}
	})
}

func TestCatalog(t *testing.T) {
	server, client := startSeeded(t, Config{})
	ctx := context.Background()

	anonymous := client.Authorized(nil)
	courses, err := anonymous.Courses(ctx)
	if err != nil {
		t.Fatalf("Courses: %v", err)
	}
	sample := SampleCourses()
	if len(courses) != len(sample) {
		t.Fatalf("got %d courses, want %d", len(courses), len(sample))
	}
	for i := range sample {
		if courses[i].Code != sample[i].Code {
			t.Errorf("courses[%d] = %s, want %s (server order)", i, courses[i].Code, sample[i].Code)
		}
	}

	course, err := anonymous.Course(ctx, "LA3025")
	if err != nil {
		t.Fatalf("Course: %v", err)
	}
	if course.Tutor != "Tô Nguyễn Khoa" {
		t.Errorf("tutor = %q", course.Tutor)
	}

	if _, err := anonymous.Course(ctx, "XX9999"); !tutorapi.IsStatus(err, http.StatusNotFound) {
		t.Errorf("expected 404, got %v", err)
	}

	if _, err := login(t, client, "sv.an").Register(ctx, "LA3025"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	statistics, err := anonymous.CourseStatistics(ctx, "LA3025")
	if err != nil {
		t.Fatalf("CourseStatistics: %v", err)
	}
	var enrolled, available int
	json.Unmarshal(statistics["enrolled_count"], &enrolled)
	json.Unmarshal(statistics["available_slots"], &available)
	if enrolled != 1 || available != 24 {
		t.Errorf("statistics = %v", statistics)
	}

	if server.Calls("courses") != 1 {
		t.Errorf("courses route served %d requests", server.Calls("courses"))
	}
}

func TestRegistration(t *testing.T) {
	server, client := startSeeded(t, Config{})
	ctx := context.Background()
	student := login(t, client, "sv.an")

	tests := []struct {
		name        string
		call        func() (*tutorapi.RegistrationResponse, error)
		wantSuccess bool
		wantMessage string
	}{
		{
			name:        "register",
			call:        func() (*tutorapi.RegistrationResponse, error) { return student.Register(ctx, "CO3001") },
			wantSuccess: true,
		},
		{
			name:        "already registered",
			call:        func() (*tutorapi.RegistrationResponse, error) { return student.Register(ctx, "CO3001") },
			wantMessage: "Already registered for this course",
		},
		{
			name:        "schedule conflict",
			call:        func() (*tutorapi.RegistrationResponse, error) { return student.Register(ctx, "CO2003") },
			wantMessage: "Schedule conflict with CO3001 (Thứ 3 20h-22h)",
		},
		{
			name:        "unregister",
			call:        func() (*tutorapi.RegistrationResponse, error) { return student.Unregister(ctx, "CO3001") },
			wantSuccess: true,
			wantMessage: "Unregistered",
		},
		{
			name:        "unregister twice",
			call:        func() (*tutorapi.RegistrationResponse, error) { return student.Unregister(ctx, "CO3001") },
			wantMessage: "Not registered for this course",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			response, err := test.call()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if response.Success != test.wantSuccess {
				t.Errorf("success = %v, want %v (%q)", response.Success, test.wantSuccess, response.Message)
			}
			if test.wantMessage != "" && response.Message != test.wantMessage {
				t.Errorf("message = %q, want %q", response.Message, test.wantMessage)
			}
		})
	}

	t.Run("course full", func(t *testing.T) {
		for _, username := range []string{"gv.huy", "admin"} {
			response, err := login(t, client, username).Register(ctx, "CO1005")
			if err != nil || !response.Success {
				t.Fatalf("Register(%s): %+v, %v", username, response, err)
			}
		}
		response, err := student.Register(ctx, "CO1005")
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if response.Success || response.Message != "Course is full" {
			t.Errorf("expected full refusal, got %+v", response)
		}
	})

	t.Run("unknown course", func(t *testing.T) {
		if _, err := student.Register(ctx, "XX0000"); !tutorapi.IsStatus(err, http.StatusNotFound) {
			t.Errorf("expected 404, got %v", err)
		}
	})

	t.Run("my courses", func(t *testing.T) {
		if _, err := student.Register(ctx, "MA1001"); err != nil {
			t.Fatalf("Register: %v", err)
		}
		mine, err := student.MyCourses(ctx)
		if err != nil {
			t.Fatalf("MyCourses: %v", err)
		}
		if len(mine) != 1 || mine[0].Code != "MA1001" {
			t.Errorf("my courses = %+v", mine)
		}
		if got := server.Registrations("sv.an"); len(got) != 1 || got[0] != "MA1001" {
			t.Errorf("Registrations = %v", got)
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		if _, err := client.Authorized(nil).Register(ctx, "MA1001"); !tutorapi.IsUnauthorized(err) {
			t.Errorf("expected 401, got %v", err)
		}
	})
}

func TestCreateCourse(t *testing.T) {
	server, client := startSeeded(t, Config{})
	ctx := context.Background()
	draft := tutorapi.CourseDraft{Code: "CO4029", Name: "Đồ án Chuyên ngành", Time: "Thứ 7 8h-10h"}

	t.Run("student forbidden", func(t *testing.T) {
		_, err := login(t, client, "sv.an").CreateCourse(ctx, draft)
		if !tutorapi.IsStatus(err, http.StatusForbidden) {
			t.Fatalf("expected 403, got %v", err)
		}
	})

	teacher := login(t, client, "gv.huy")

	t.Run("teacher creates", func(t *testing.T) {
		course, err := teacher.CreateCourse(ctx, draft)
		if err != nil {
			t.Fatalf("CreateCourse: %v", err)
		}
		if course.Code != "CO4029" || course.Tutor != "Đỗ Minh Huy" {
			t.Errorf("created course = %+v", course)
		}
		if _, ok := findCourse(server, "CO4029"); !ok {
			t.Error("created course not in catalog")
		}
	})

	t.Run("duplicate code", func(t *testing.T) {
		_, err := teacher.CreateCourse(ctx, draft)
		if !tutorapi.IsStatus(err, http.StatusBadRequest) {
			t.Fatalf("expected 400, got %v", err)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := teacher.CreateCourse(ctx, tutorapi.CourseDraft{Code: "CO4030"})
		if !tutorapi.IsStatus(err, http.StatusUnprocessableEntity) {
			t.Fatalf("expected 422, got %v", err)
		}
	})

	t.Run("role change takes effect", func(t *testing.T) {
		student := login(t, client, "sv.an")
		server.SetRole("sv.an", tutorapi.RoleTeacher)
		if _, err := student.CreateCourse(ctx, tutorapi.CourseDraft{Code: "CO4031", Name: "Thực tập"}); err != nil {
			t.Fatalf("CreateCourse after promotion: %v", err)
		}
	})
}

func findCourse(server *Server, code string) (tutorapi.Course, bool) {
	server.mu.Lock()
	defer server.mu.Unlock()
	index := server.courseIndexLocked(code)
	if index < 0 {
		return tutorapi.Course{}, false
	}
	return server.courses[index], true
}

func TestUnknownRoute(t *testing.T) {
	server := New(Config{})
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if recorder.Code != http.StatusNotFound {
		t.Errorf("status = %d", recorder.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil || body["detail"] != "Not Found" {
		t.Errorf("body = %s", recorder.Body.String())
	}
}
