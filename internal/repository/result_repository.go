package repository

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/sma-result-desk/internal/models"
	"github.com/noah-isme/sma-result-desk/pkg/httpclient"
)

// ResultRepository covers results and their assessments under a course.
type ResultRepository struct {
	client *httpclient.Client
}

// NewResultRepository constructs the repository.
func NewResultRepository(client *httpclient.Client) *ResultRepository {
	return &ResultRepository{client: client}
}

// ListForCourse returns the course's results; the first is treated as current.
func (r *ResultRepository) ListForCourse(ctx context.Context, courseID int64) ([]models.Result, error) {
	results, err := collect[models.Result](ctx, r.client, coursePath(courseID)+"results/")
	if err != nil {
		return nil, fmt.Errorf("list results for course %d: %w", courseID, err)
	}
	for i := range results {
		if results[i].CourseID == 0 {
			results[i].CourseID = courseID
		}
	}
	return results, nil
}

// Create opens a new result for the course.
func (r *ResultRepository) Create(ctx context.Context, courseID int64) (*models.Result, error) {
	body := map[string]int64{"course_id": courseID}
	var result models.Result
	if err := r.client.Do(ctx, http.MethodPost, coursePath(courseID)+"results/", body, &result); err != nil {
		return nil, fmt.Errorf("create result for course %d: %w", courseID, err)
	}
	if result.CourseID == 0 {
		result.CourseID = courseID
	}
	return &result, nil
}

// ListAssessments returns every assessment row, following pagination.
func (r *ResultRepository) ListAssessments(ctx context.Context, courseID, resultID int64) ([]models.Assessment, error) {
	rows, err := collect[models.Assessment](ctx, r.client, resultPath(courseID, resultID)+"assessments/")
	if err != nil {
		return nil, fmt.Errorf("list assessments for result %d: %w", resultID, err)
	}
	return rows, nil
}

// UpdateAssessment patches one student's marks.
func (r *ResultRepository) UpdateAssessment(ctx context.Context, courseID, resultID, assessmentID int64, update models.AssessmentUpdate) error {
	path := fmt.Sprintf("%sassessments/%d/", resultPath(courseID, resultID), assessmentID)
	if err := r.client.Do(ctx, http.MethodPatch, path, update, nil); err != nil {
		return fmt.Errorf("update assessment %d: %w", assessmentID, err)
	}
	return nil
}

// Transition calls the action endpoint of a result. Set-correction is a
// PATCH; the other actions are PUTs.
func (r *ResultRepository) Transition(ctx context.Context, courseID, resultID int64, action models.ResultAction) error {
	method, segment, err := transitionEndpoint(action)
	if err != nil {
		return err
	}
	if err := r.client.Do(ctx, method, resultPath(courseID, resultID)+segment, nil, nil); err != nil {
		return fmt.Errorf("%s result %d: %w", action, resultID, err)
	}
	return nil
}

func transitionEndpoint(action models.ResultAction) (string, string, error) {
	switch action {
	case models.ActionSubmit, models.ActionResubmit:
		return http.MethodPut, "submit/", nil
	case models.ActionApprove:
		return http.MethodPut, "approve/", nil
	case models.ActionReject:
		return http.MethodPut, "reject/", nil
	case models.ActionProcess:
		return http.MethodPut, "process/", nil
	case models.ActionSetCorrection:
		return http.MethodPatch, "set_correction/", nil
	}
	return "", "", fmt.Errorf("no endpoint for action %q", action)
}
