package models

import "time"

// SubmittedResult is the reviewer-facing projection of a result.
type SubmittedResult struct {
	ID          int64        `json:"id"`
	CourseID    int64        `json:"course_id"`
	CourseName  string       `json:"course_name,omitempty"`
	CourseCode  string       `json:"course_code,omitempty"`
	Status      ResultStatus `json:"status"`
	SubmittedAt *time.Time   `json:"submitted_at,omitempty"`
	LecturerID  *int64       `json:"lecturer_id,omitempty"`
	Lecturer    *Lecturer    `json:"lecturer,omitempty"`
}

// SubmittedResultFilter narrows reviewer listings.
type SubmittedResultFilter struct {
	IncludeDrafts bool
	Status        ResultStatus
}

// StatusCounts tallies submitted results per status for the dashboard.
type StatusCounts map[ResultStatus]int

// ReviewDecision is either approve or reject.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionReject  ReviewDecision = "reject"
)
