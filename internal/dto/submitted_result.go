package dto

import "github.com/noah-isme/sma-result-desk/internal/models"

// ReviewRequest is a reviewer's decision on a pending result.
type ReviewRequest struct {
	Decision models.ReviewDecision `json:"decision" binding:"required,oneof=approve reject"`
}

// CorrectionRow is one corrected score.
type CorrectionRow struct {
	ScoreID int64 `json:"score_id" binding:"required"`
	ScoreUpdateRequest
}

// CorrectionsRequest saves corrected scores on a result in correction.
type CorrectionsRequest struct {
	Reason string          `json:"reason"`
	Rows   []CorrectionRow `json:"rows" binding:"required,min=1,dive"`
}

// SubmittedResultList is the reviewer dashboard payload.
type SubmittedResultList struct {
	Items  []models.SubmittedResult `json:"items"`
	Counts models.StatusCounts      `json:"counts"`
}
