package models

import (
	"encoding/json"
	"time"
)

// ResultStatus is the lifecycle code of a result. The codes are a wire
// contract and are never translated.
type ResultStatus string

const (
	// StatusNone means no result row exists for the course yet.
	StatusNone              ResultStatus = ""
	StatusDraft             ResultStatus = "D"
	StatusCorrection        ResultStatus = "C"
	StatusPendingDepartment ResultStatus = "P_D"
	StatusPendingFaculty    ResultStatus = "P_F"
	StatusApproved          ResultStatus = "A"
	StatusRejected          ResultStatus = "R"
)

var statusLabels = map[ResultStatus]string{
	StatusNone:              "No result",
	StatusDraft:             "Draft",
	StatusCorrection:        "Correction",
	StatusPendingDepartment: "Pending Department",
	StatusPendingFaculty:    "Pending Faculty",
	StatusApproved:          "Approved",
	StatusRejected:          "Rejected",
}

// Known reports whether s is one of the wire codes.
func (s ResultStatus) Known() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the human readable name of the status.
func (s ResultStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Locked reports whether the course is waiting on reviewers, in which case
// the course list does not open the editor.
func (s ResultStatus) Locked() bool {
	return s == StatusPendingDepartment || s == StatusPendingFaculty || s == StatusApproved
}

// Result is one course's result-submission cycle.
type Result struct {
	ID               int64        `json:"id"`
	CourseID         int64        `json:"course_id"`
	Status           ResultStatus `json:"status"`
	SubmittedAt      *time.Time   `json:"submitted_at,omitempty"`
	CorrectionReason *string      `json:"correction_reason,omitempty"`
}

// PreviouslySubmitted reports whether the result has been submitted at least once.
func (r *Result) PreviouslySubmitted() bool {
	return r != nil && r.SubmittedAt != nil && !r.SubmittedAt.IsZero()
}

// UnmarshalJSON accepts status under either `status` or `result_status` and a
// course given as an id or an object.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID               int64           `json:"id"`
		CourseID         int64           `json:"course_id"`
		Course           json.RawMessage `json:"course"`
		Status           ResultStatus    `json:"status"`
		ResultStatus     ResultStatus    `json:"result_status"`
		SubmittedAt      *time.Time      `json:"submitted_at"`
		CorrectionReason *string         `json:"correction_reason"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Result{
		ID:               raw.ID,
		CourseID:         raw.CourseID,
		Status:           raw.Status,
		SubmittedAt:      raw.SubmittedAt,
		CorrectionReason: raw.CorrectionReason,
	}
	if r.Status == "" {
		r.Status = raw.ResultStatus
	}
	if r.CourseID == 0 && len(raw.Course) > 0 {
		r.CourseID = courseIDFrom(raw.Course)
	}
	return nil
}

func courseIDFrom(raw json.RawMessage) int64 {
	var id int64
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}
	return 0
}

// ResultAction names a lifecycle action.
type ResultAction string

const (
	ActionCreate        ResultAction = "create"
	ActionSaveDraft     ResultAction = "save_draft"
	ActionSubmit        ResultAction = "submit"
	ActionResubmit      ResultAction = "resubmit"
	ActionApprove       ResultAction = "approve"
	ActionReject        ResultAction = "reject"
	ActionProcess       ResultAction = "process"
	ActionSetCorrection ResultAction = "set_correction"
)
