package dto

import "github.com/noah-isme/sma-result-desk/internal/models"

// ScoreUpdateRequest is one student's edited marks. Marks may be numbers,
// numeric strings, null or "" (absent).
type ScoreUpdateRequest struct {
	CA1  models.Mark `json:"ca_slot1"`
	CA2  models.Mark `json:"ca_slot2"`
	CA3  models.Mark `json:"ca_slot3"`
	CA4  models.Mark `json:"ca_slot4"`
	Exam models.Mark `json:"exam_mark"`
}

// Scores converts the request.
func (r ScoreUpdateRequest) Scores() models.Scores {
	return models.Scores{CA1: r.CA1, CA2: r.CA2, CA3: r.CA3, CA4: r.CA4, Exam: r.Exam}
}

// DraftRequest saves the editor's rows. Reason is needed once the result has
// been submitted before.
type DraftRequest struct {
	Reason string `json:"reason"`
}
