// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package enrollment

import (
	"slices"
	"time"

	"github.com/bktutor/bktutor/tutorapi"
)

// Set is an immutable snapshot of the courses the user is registered
// for, in server order, indexed by code. A new Set is built from every
// /my-courses response; Sets are never patched.
type Set struct {
	courses   []tutorapi.Course
	index     map[string]int
	fetchedAt time.Time
}

// NewSet builds a Set from a server response. When a code appears more
// than once the first occurrence wins.
func NewSet(courses []tutorapi.Course, fetchedAt time.Time) Set {
	set := Set{
		courses:   make([]tutorapi.Course, 0, len(courses)),
		index:     make(map[string]int, len(courses)),
		fetchedAt: fetchedAt,
	}
	for _, course := range courses {
		if _, seen := set.index[course.Code]; seen {
			continue
		}
		set.index[course.Code] = len(set.courses)
		set.courses = append(set.courses, course)
	}
	return set
}

// Contains reports whether code is in the set.
func (s Set) Contains(code string) bool {
	_, ok := s.index[code]
	return ok
}

// Get returns the course with the given code.
func (s Set) Get(code string) (tutorapi.Course, bool) {
	position, ok := s.index[code]
	if !ok {
		return tutorapi.Course{}, false
	}
	return s.courses[position], true
}

// Courses returns the registered courses in server order.
func (s Set) Courses() []tutorapi.Course {
	return slices.Clone(s.courses)
}

// Len returns the number of registered courses.
func (s Set) Len() int { return len(s.courses) }

// FetchedAt returns when the response behind this set arrived. Zero for
// a set that was never fetched.
func (s Set) FetchedAt() time.Time { return s.fetchedAt }
