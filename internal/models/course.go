package models

import (
	"bytes"
	"encoding/json"
)

// Lecturer describes a course's lecturer of record.
type Lecturer struct {
	ID       int64  `json:"id"`
	UserID   *int64 `json:"user_id,omitempty"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// UnmarshalJSON accepts both isActive and is_active; a missing flag means active.
func (l *Lecturer) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        int64  `json:"id"`
		UserID    *int64 `json:"user_id"`
		User      *int64 `json:"user"`
		Name      string `json:"name"`
		FullName  string `json:"full_name"`
		IsActive  *bool  `json:"isActive"`
		IsActive2 *bool  `json:"is_active"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.ID = raw.ID
	l.UserID = raw.UserID
	if l.UserID == nil {
		l.UserID = raw.User
	}
	l.Name = firstNonEmpty(raw.Name, raw.FullName)
	l.IsActive = true
	if raw.IsActive != nil {
		l.IsActive = *raw.IsActive
	} else if raw.IsActive2 != nil {
		l.IsActive = *raw.IsActive2
	}
	return nil
}

// Course is the client's read-mostly projection of a remote course.
type Course struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Code         string       `json:"code"`
	Credit       int          `json:"credit"`
	Lecturer     *Lecturer    `json:"lecturer,omitempty"`
	ResultStatus ResultStatus `json:"resultStatus,omitempty"`
	Students     []StudentRef `json:"students,omitempty"`
}

// LecturerActive reports whether the lecturer of record may act. A course
// without a lecturer descriptor counts as active.
func (c *Course) LecturerActive() bool {
	if c == nil || c.Lecturer == nil {
		return true
	}
	return c.Lecturer.IsActive
}

// IsCourseLecturer reports whether user is this course's own lecturer. When
// the service does not expose the lecturer's account id the course list is
// already scoped to the caller, so a lecturer is assumed to own it.
func (c *Course) IsCourseLecturer(user *User) bool {
	if c == nil || user == nil || !user.IsLecturer {
		return false
	}
	if c.Lecturer == nil || c.Lecturer.UserID == nil {
		return true
	}
	return *c.Lecturer.UserID == user.ID
}

// UnmarshalJSON collects the enrolment list from whichever key the service used.
func (c *Course) UnmarshalJSON(data []byte) error {
	type plain Course
	var raw struct {
		plain
		EnrolledStudents []StudentRef `json:"enrolled_students"`
		StudentList      []StudentRef `json:"student_list"`
		CourseStudents   []StudentRef `json:"course_students"`
		CreditUnits      *int         `json:"credit_units"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(data), &raw); err != nil {
		return err
	}
	*c = Course(raw.plain)
	switch {
	case len(c.Students) > 0:
	case len(raw.EnrolledStudents) > 0:
		c.Students = raw.EnrolledStudents
	case len(raw.StudentList) > 0:
		c.Students = raw.StudentList
	case len(raw.CourseStudents) > 0:
		c.Students = raw.CourseStudents
	}
	if c.Credit == 0 && raw.CreditUnits != nil {
		c.Credit = *raw.CreditUnits
	}
	return nil
}
