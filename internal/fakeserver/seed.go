// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package fakeserver

import "github.com/bktutor/bktutor/tutorapi"

// SamplePassword is the password of every seeded account.
const SamplePassword = "bktutor"

// SampleCourses is the catalog Seed installs.
func SampleCourses() []tutorapi.Course {
	capacity := func(n int) *int { return &n }
	return []tutorapi.Course{
		{Code: "CO3001", Name: "Công nghệ Phần mềm", Tutor: "Đỗ Minh Huy", Time: "Thứ 3 20h-22h", Mode: "Online", ClassCode: "CN01", MaxStudents: capacity(40)},
		{Code: "CO2013", Name: "Hệ cơ sở Dữ liệu", Tutor: "Trần Văn Duy", Time: "Thứ 3 10h-11h50", Mode: "Offline", ClassCode: "CN01", MaxStudents: capacity(40)},
		{Code: "LA3025", Name: "Tiếng Nhật 5", Tutor: "Tô Nguyễn Khoa", Time: "Thứ 4 15h-16h50", Mode: "Online", ClassCode: "CN01", MaxStudents: capacity(25)},
		{Code: "MA1001", Name: "Toán rời rạc", Tutor: "Nguyễn Văn A", Time: "Thứ 2 8h-10h", Mode: "Offline", ClassCode: "CN02", MaxStudents: capacity(60)},
		{Code: "CO1005", Name: "Nhập môn Điện toán", Tutor: "Lê Thị Bích", Time: "Thứ 5 13h-15h", Mode: "Offline", ClassCode: "CN03", MaxStudents: capacity(2)},
		{Code: "CO2003", Name: "Cấu trúc Dữ liệu và Giải thuật", Tutor: "Phạm Quốc Khánh", Time: "Thứ 3 20h-22h", Mode: "Online", ClassCode: "CN02"},
		{Code: "PH1003", Name: "Vật lý 1", Tutor: "Hoàng Minh Tâm", Time: "Thứ 6 7h-9h", Mode: "Offline", ClassCode: "CN04", MaxStudents: capacity(80)},
		{Code: "CH1003", Name: "Hóa đại cương", Tutor: "Vũ Thanh Hà", Time: "Thứ 6 9h-11h", Mode: "Offline", ClassCode: "CN04", MaxStudents: capacity(80)},
	}
}

// SampleUsers are the accounts Seed installs, one per role.
func SampleUsers() []tutorapi.User {
	return []tutorapi.User{
		{Username: "sv.an", Email: "an.nguyen@hcmut.edu.vn", FullName: "Nguyễn Văn An", Role: tutorapi.RoleStudent, IsActive: true},
		{Username: "gv.huy", Email: "huy.do@hcmut.edu.vn", FullName: "Đỗ Minh Huy", Role: tutorapi.RoleTeacher, IsActive: true},
		{Username: "admin", Email: "admin@hcmut.edu.vn", FullName: "Quản trị viên", Role: tutorapi.RoleAdmin, IsActive: true},
		{Username: "sv.khoa", Email: "khoa.to@hcmut.edu.vn", FullName: "Tô Minh Khoa", Role: tutorapi.RoleStudent, IsActive: false},
	}
}

// Seed installs SampleUsers (password SamplePassword) and
// SampleCourses.
func (s *Server) Seed() error {
	for _, user := range SampleUsers() {
		if _, err := s.AddUser(user, SamplePassword); err != nil {
			return err
		}
	}
	for _, course := range SampleCourses() {
		s.AddCourse(course)
	}
	return nil
}
