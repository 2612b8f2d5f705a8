// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"testing"

	"github.com/bktutor/bktutor/tutorapi"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hệ cơ sở Dữ liệu", "he co so du lieu"},
		{"CO3001", "co3001"},
		{"Công nghệ Phần mềm", "cong nghe phan mem"},
		{"Toán rời rạc (CS)", "toan roi rac cs"},
		{"Đỗ Minh Huy", "đo minh huy"},
		{"  spaced\tout ", "  spaced\tout "},
		{"", ""},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			if got := Normalize(test.input); got != test.want {
				t.Errorf("Normalize(%q) = %q, want %q", test.input, got, test.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	database := tutorapi.Course{Code: "CO2013", Name: "Hệ cơ sở Dữ liệu", Tutor: "Trần Văn Duy"}
	code := tutorapi.Course{Code: "CO3001", Name: "CO3001", Tutor: "Đỗ Minh Huy"}

	tests := []struct {
		name   string
		course tutorapi.Course
		query  string
		want   bool
	}{
		{"diacritics folded", database, "co so du lieu", true},
		{"query with diacritics", database, "CƠ SỞ", true},
		{"tutor match", database, "tran van", true},
		{"code as name is case-insensitive", code, "co3001", true},
		{"empty query", database, "", true},
		{"punctuation-only query", database, "?!", true},
		{"no match", database, "phan mem", false},
		{"course code is not searched", database, "co2013", false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Matches(test.course, test.query); got != test.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", test.course.Name, test.query, got, test.want)
			}
		})
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	courses := []tutorapi.Course{
		{Code: "A", Name: "Giải tích 1"},
		{Code: "B", Name: "Vật lý"},
		{Code: "C", Name: "Giải tích 2"},
	}
	filtered := Filter(courses, "giai tich")
	if len(filtered) != 2 || filtered[0].Code != "A" || filtered[1].Code != "C" {
		t.Errorf("Filter = %+v", filtered)
	}
}
