// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/bktutor/bktutor/tutorapi"
)

// Normalize folds s for search: canonical decomposition, combining
// marks removed, everything other than letters, digits, and whitespace
// removed, then lowercased. "Hệ cơ sở Dữ liệu" becomes
// "he co so du lieu".
//
// Letters without a decomposition are kept as they are: "Đ" folds to
// "đ", not "d".
func Normalize(s string) string {
	folder := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
		})),
	)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		// The transformers above cannot fail on valid UTF-8; invalid
		// input is matched as-is.
		folded = s
	}
	return strings.ToLower(folded)
}

// Matches reports whether course matches query: the normalized query is
// a substring of the normalized name or the normalized tutor. An empty
// query matches everything.
func Matches(course tutorapi.Course, query string) bool {
	return matchNormalized(course, Normalize(query))
}

func matchNormalized(course tutorapi.Course, normalizedQuery string) bool {
	if normalizedQuery == "" {
		return true
	}
	return strings.Contains(Normalize(course.Name), normalizedQuery) ||
		strings.Contains(Normalize(course.Tutor), normalizedQuery)
}

// Filter returns the courses matching query, preserving order.
func Filter(courses []tutorapi.Course, query string) []tutorapi.Course {
	normalizedQuery := Normalize(query)
	if normalizedQuery == "" {
		return courses
	}
	matched := make([]tutorapi.Course, 0, len(courses))
	for _, course := range courses {
		if matchNormalized(course, normalizedQuery) {
			matched = append(matched, course)
		}
	}
	return matched
}
