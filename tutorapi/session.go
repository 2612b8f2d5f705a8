// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package tutorapi

import (
	"context"
	"net/http"
	"net/url"
)

// TokenSource supplies the bearer token for authorized requests. An
// empty string sends the request without credentials.
type TokenSource interface {
	AccessToken() string
}

// Session issues authorized requests using whatever token its
// TokenSource holds at the moment each request starts. Sessions are
// cheap; the Client behind them carries the transport and hooks.
type Session struct {
	client *Client
	tokens TokenSource
}

func (s *Session) token() string {
	if s.tokens == nil {
		return ""
	}
	return s.tokens.AccessToken()
}

// CurrentUser fetches the identity of the session's token.
func (s *Session) CurrentUser(ctx context.Context) (*User, error) {
	return s.client.CurrentUser(ctx, s.token())
}

// Courses fetches the full catalog in server order.
func (s *Session) Courses(ctx context.Context) ([]Course, error) {
	var courses []Course
	if err := s.client.do(ctx, http.MethodGet, "/courses", s.token(), nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// Course fetches a single course by code.
func (s *Session) Course(ctx context.Context, code string) (*Course, error) {
	var course Course
	if err := s.client.do(ctx, http.MethodGet, coursePath(code, ""), s.token(), nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// CourseStatistics fetches the server's statistics object for a course.
func (s *Session) CourseStatistics(ctx context.Context, code string) (CourseStatistics, error) {
	var statistics CourseStatistics
	if err := s.client.do(ctx, http.MethodGet, coursePath(code, "/statistics"), s.token(), nil, &statistics); err != nil {
		return nil, err
	}
	return statistics, nil
}

// MyCourses fetches the courses the session's user is registered for.
func (s *Session) MyCourses(ctx context.Context) ([]Course, error) {
	var courses []Course
	if err := s.client.do(ctx, http.MethodGet, "/my-courses", s.token(), nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// Register asks the server to register the session's user for code.
// A refusal arrives as Success false, not as an error.
func (s *Session) Register(ctx context.Context, code string) (*RegistrationResponse, error) {
	var response RegistrationResponse
	if err := s.client.do(ctx, http.MethodPost, coursePath(code, "/register"), s.token(), nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Unregister asks the server to drop the session's user from code.
func (s *Session) Unregister(ctx context.Context, code string) (*RegistrationResponse, error) {
	var response RegistrationResponse
	if err := s.client.do(ctx, http.MethodDelete, coursePath(code, "/unregister"), s.token(), nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// CreateCourse creates a new course. Only teacher and admin accounts are
// accepted by the server.
func (s *Session) CreateCourse(ctx context.Context, draft CourseDraft) (*Course, error) {
	var course Course
	if err := s.client.do(ctx, http.MethodPost, "/courses", s.token(), draft, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func coursePath(code, suffix string) string {
	return "/courses/" + url.PathEscape(code) + suffix
}
