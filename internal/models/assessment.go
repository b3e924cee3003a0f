package models

// Scores are the editable marks of one student.
type Scores struct {
	CA1  Mark `json:"ca_slot1"`
	CA2  Mark `json:"ca_slot2"`
	CA3  Mark `json:"ca_slot3"`
	CA4  Mark `json:"ca_slot4"`
	Exam Mark `json:"exam_mark"`
}

// CA returns the four continuous assessment slots in order.
func (s Scores) CA() [4]Mark {
	return [4]Mark{s.CA1, s.CA2, s.CA3, s.CA4}
}

// Assessment is one student's row on a result.
type Assessment struct {
	ID               int64      `json:"id"`
	Student          StudentRef `json:"student"`
	Scores
	CorrectionReason string `json:"correction_reason,omitempty"`
	TotalScore       Mark   `json:"total_score"`
	Grade            string `json:"grade,omitempty"`
}

// AssessmentUpdate is the PATCH body for an assessment or score row.
type AssessmentUpdate struct {
	Scores
	CorrectionReason string `json:"correction_reason,omitempty"`
}

// ScoreRow is an assessment together with its derived fields and validation
// message as presented to the editor.
type ScoreRow struct {
	Assessment
	CATotal Mark   `json:"ca_total"`
	Error   string `json:"error,omitempty"`
	Dirty   bool   `json:"dirty"`
}
