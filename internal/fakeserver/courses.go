// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package fakeserver

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/gorilla/mux"

	"github.com/bktutor/bktutor/lib/netutil"
	"github.com/bktutor/bktutor/tutorapi"
)

func (s *Server) handleCourses(writer http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	courses := make([]tutorapi.Course, len(s.courses))
	for i, course := range s.courses {
		courses[i] = s.withCountsLocked(course)
	}
	s.mu.Unlock()
	writeJSON(writer, http.StatusOK, courses)
}

func (s *Server) handleCourse(writer http.ResponseWriter, request *http.Request) {
	code := mux.Vars(request)["code"]
	s.mu.Lock()
	index := s.courseIndexLocked(code)
	var course tutorapi.Course
	if index >= 0 {
		course = s.withCountsLocked(s.courses[index])
	}
	s.mu.Unlock()

	if index < 0 {
		writeDetail(writer, http.StatusNotFound, "Course not found")
		return
	}
	writeJSON(writer, http.StatusOK, course)
}

func (s *Server) handleStatistics(writer http.ResponseWriter, request *http.Request) {
	code := mux.Vars(request)["code"]
	s.mu.Lock()
	index := s.courseIndexLocked(code)
	var statistics map[string]any
	if index >= 0 {
		course := s.courses[index]
		enrolled := s.enrolledCountLocked(code)
		statistics = map[string]any{
			"code":           course.Code,
			"enrolled_count": enrolled,
		}
		if course.MaxStudents != nil {
			statistics["max_students"] = *course.MaxStudents
			statistics["available_slots"] = max(*course.MaxStudents-enrolled, 0)
		}
	}
	s.mu.Unlock()

	if index < 0 {
		writeDetail(writer, http.StatusNotFound, "Course not found")
		return
	}
	writeJSON(writer, http.StatusOK, statistics)
}

func (s *Server) handleMyCourses(writer http.ResponseWriter, _ *http.Request, user tutorapi.User) {
	s.mu.Lock()
	codes := s.registrations[user.Username]
	courses := make([]tutorapi.Course, 0, len(codes))
	for _, code := range codes {
		if index := s.courseIndexLocked(code); index >= 0 {
			courses = append(courses, s.withCountsLocked(s.courses[index]))
		}
	}
	s.mu.Unlock()
	writeJSON(writer, http.StatusOK, courses)
}

func (s *Server) handleRegister(writer http.ResponseWriter, request *http.Request, user tutorapi.User) {
	code := mux.Vars(request)["code"]

	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.courseIndexLocked(code)
	if index < 0 {
		writeDetail(writer, http.StatusNotFound, "Course not found")
		return
	}
	course := s.courses[index]
	registered := s.registrations[user.Username]

	if slices.Contains(registered, code) {
		writeJSON(writer, http.StatusOK, tutorapi.RegistrationResponse{Success: false, Message: "Already registered for this course"})
		return
	}
	if course.MaxStudents != nil && s.enrolledCountLocked(code) >= *course.MaxStudents {
		writeJSON(writer, http.StatusOK, tutorapi.RegistrationResponse{Success: false, Message: "Course is full"})
		return
	}
	if course.Time != "" {
		for _, other := range registered {
			otherIndex := s.courseIndexLocked(other)
			if otherIndex >= 0 && s.courses[otherIndex].Time == course.Time {
				writeJSON(writer, http.StatusOK, tutorapi.RegistrationResponse{
					Success: false,
					Message: fmt.Sprintf("Schedule conflict with %s (%s)", other, course.Time),
				})
				return
			}
		}
	}

	s.registrations[user.Username] = append(registered, code)
	writeJSON(writer, http.StatusOK, tutorapi.RegistrationResponse{
		Success: true,
		Message: fmt.Sprintf("Registered for %s", course.Name),
	})
}

func (s *Server) handleUnregister(writer http.ResponseWriter, request *http.Request, user tutorapi.User) {
	code := mux.Vars(request)["code"]

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.courseIndexLocked(code) < 0 {
		writeDetail(writer, http.StatusNotFound, "Course not found")
		return
	}
	registered := s.registrations[user.Username]
	position := slices.Index(registered, code)
	if position < 0 {
		writeJSON(writer, http.StatusOK, tutorapi.RegistrationResponse{Success: false, Message: "Not registered for this course"})
		return
	}
	s.registrations[user.Username] = slices.Delete(slices.Clone(registered), position, position+1)
	writeJSON(writer, http.StatusOK, tutorapi.RegistrationResponse{Success: true, Message: "Unregistered"})
}

func (s *Server) handleCreateCourse(writer http.ResponseWriter, request *http.Request, user tutorapi.User) {
	if !user.Role.CanCreateCourse() {
		writeDetail(writer, http.StatusForbidden, "Not enough permissions")
		return
	}

	var draft tutorapi.CourseDraft
	if err := netutil.DecodeRequest(request.Body, &draft); err != nil {
		writeDetail(writer, http.StatusUnprocessableEntity, []map[string]any{
			{"loc": []string{"body"}, "msg": "invalid JSON body", "type": "value_error"},
		})
		return
	}
	var missing []map[string]any
	if draft.Code == "" {
		missing = append(missing, map[string]any{"loc": []string{"body", "code"}, "msg": "field required", "type": "value_error.missing"})
	}
	if draft.Name == "" {
		missing = append(missing, map[string]any{"loc": []string{"body", "name"}, "msg": "field required", "type": "value_error.missing"})
	}
	if len(missing) > 0 {
		writeDetail(writer, http.StatusUnprocessableEntity, missing)
		return
	}

	course := tutorapi.Course{
		Code:        draft.Code,
		Name:        draft.Name,
		Tutor:       draft.Tutor,
		Time:        draft.Time,
		Mode:        draft.Mode,
		ClassCode:   draft.ClassCode,
		Content:     draft.Content,
		MaxStudents: draft.MaxStudents,
	}
	if course.Tutor == "" {
		course.Tutor = user.DisplayName()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.courseIndexLocked(course.Code) >= 0 {
		writeDetail(writer, http.StatusBadRequest, "Course code already exists")
		return
	}
	s.courses = append(s.courses, course)
	writeJSON(writer, http.StatusCreated, s.withCountsLocked(course))
}
