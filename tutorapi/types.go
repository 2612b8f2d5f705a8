// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package tutorapi

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role is the closed set of account roles the server assigns. The zero
// value is RoleStudent, which carries no privileges.
type Role int

const (
	RoleStudent Role = iota
	RoleTeacher
	RoleAdmin
)

// String returns the wire name of the role.
func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleTeacher:
		return "teacher"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// ParseRole converts a wire role name to a Role. An empty string is a
// student: older servers omit the field entirely.
func ParseRole(name string) (Role, error) {
	switch name {
	case "", "student":
		return RoleStudent, nil
	case "teacher":
		return RoleTeacher, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleStudent, fmt.Errorf("tutorapi: unknown role %q", name)
	}
}

// CanCreateCourse reports whether accounts with this role may create
// new courses.
func (r Role) CanCreateCourse() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// User is the identity returned by GET /auth/me. A User is never edited
// in place; a refresh replaces it.
type User struct {
	ID        int64     `json:"id" cbor:"id"`
	Username  string    `json:"username" cbor:"username"`
	Email     string    `json:"email" cbor:"email"`
	FullName  string    `json:"full_name" cbor:"full_name"`
	Role      Role      `json:"role" cbor:"role"`
	IsActive  bool      `json:"is_active" cbor:"is_active"`
	CreatedAt time.Time `json:"created_at,omitzero" cbor:"created_at,omitempty"`
}

// DisplayName returns the full name, falling back to the username.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Course is one entry of the catalog. Code is the identity; two Course
// values with the same Code describe the same course.
type Course struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Tutor         string `json:"tutor"`
	Time          string `json:"time,omitempty"`
	Mode          string `json:"mode,omitempty"`
	ClassCode     string `json:"class_code,omitempty"`
	Content       string `json:"content,omitempty"`
	MaxStudents   *int   `json:"max_students,omitempty"`
	EnrolledCount *int   `json:"enrolled_count,omitempty"`
}

// UnmarshalJSON accepts the legacy field names "title" and "clazz" that
// earlier catalog servers used for Name and ClassCode.
func (c *Course) UnmarshalJSON(data []byte) error {
	type plain Course
	var wire struct {
		plain
		Title string `json:"title"`
		Clazz string `json:"clazz"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*c = Course(wire.plain)
	if c.Name == "" {
		c.Name = wire.Title
	}
	if c.ClassCode == "" {
		c.ClassCode = wire.Clazz
	}
	return nil
}

// CourseDraft is the request body for POST /courses. The client does not
// validate field content; the server decides what is acceptable.
type CourseDraft struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Tutor       string `json:"tutor,omitempty"`
	Time        string `json:"time,omitempty"`
	Mode        string `json:"mode,omitempty"`
	ClassCode   string `json:"class_code,omitempty"`
	Content     string `json:"content,omitempty"`
	MaxStudents *int   `json:"max_students,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned by POST /auth/login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegistrationResponse is returned by the register and unregister
// endpoints. Success false with a Message is a refusal by the server
// (schedule conflict, course full, not registered); the message is free
// text with no reason code.
type RegistrationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CourseStatistics is the free-form object returned by
// GET /courses/{code}/statistics. The server does not publish a schema,
// so the values are kept as raw JSON.
type CourseStatistics map[string]json.RawMessage
