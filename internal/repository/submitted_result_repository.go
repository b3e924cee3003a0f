package repository

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/sma-result-desk/internal/models"
	"github.com/noah-isme/sma-result-desk/pkg/httpclient"
)

// SubmittedResultRepository serves the reviewer-facing result endpoints.
type SubmittedResultRepository struct {
	client *httpclient.Client
}

// NewSubmittedResultRepository constructs the repository.
func NewSubmittedResultRepository(client *httpclient.Client) *SubmittedResultRepository {
	return &SubmittedResultRepository{client: client}
}

// List returns submitted results. With IncludeDrafts the draft-inclusive
// listing is tried first and the plain results listing is the fallback.
func (r *SubmittedResultRepository) List(ctx context.Context, filter models.SubmittedResultFilter) ([]models.SubmittedResult, error) {
	if !filter.IncludeDrafts {
		items, err := collect[models.SubmittedResult](ctx, r.client, resultSystemPrefix+"/submitted-results/")
		if err != nil {
			return nil, fmt.Errorf("list submitted results: %w", err)
		}
		return items, nil
	}

	items, err := collect[models.SubmittedResult](ctx, r.client, resultSystemPrefix+"/submitted-results/?include_drafts=true")
	if err == nil {
		return items, nil
	}
	if _, ok := httpclient.AsAPIError(err); !ok {
		return nil, fmt.Errorf("list submitted results with drafts: %w", err)
	}
	items, fallbackErr := collect[models.SubmittedResult](ctx, r.client, resultSystemPrefix+"/results/")
	if fallbackErr != nil {
		return nil, fmt.Errorf("list results: %w", fallbackErr)
	}
	return items, nil
}

// Get fetches one submitted result.
func (r *SubmittedResultRepository) Get(ctx context.Context, id int64) (*models.SubmittedResult, error) {
	var item models.SubmittedResult
	if err := r.client.Do(ctx, http.MethodGet, submittedPath(id), nil, &item); err != nil {
		return nil, fmt.Errorf("get submitted result %d: %w", id, err)
	}
	return &item, nil
}

// UpdateStatus patches the status of a submitted result directly.
func (r *SubmittedResultRepository) UpdateStatus(ctx context.Context, id int64, status models.ResultStatus) error {
	body := map[string]models.ResultStatus{"status": status}
	if err := r.client.Do(ctx, http.MethodPatch, submittedPath(id), body, nil); err != nil {
		return fmt.Errorf("update submitted result %d status: %w", id, err)
	}
	return nil
}

// Transition calls an action endpoint on a submitted result.
func (r *SubmittedResultRepository) Transition(ctx context.Context, id int64, action models.ResultAction) error {
	method, segment, err := transitionEndpoint(action)
	if err != nil {
		return err
	}
	if err := r.client.Do(ctx, method, submittedPath(id)+segment, nil, nil); err != nil {
		return fmt.Errorf("%s submitted result %d: %w", action, id, err)
	}
	return nil
}

// ListScores returns every score row, following `next` links to the end.
func (r *SubmittedResultRepository) ListScores(ctx context.Context, id int64) ([]models.Assessment, error) {
	rows, err := collect[models.Assessment](ctx, r.client, submittedPath(id)+"scores/")
	if err != nil {
		return nil, fmt.Errorf("list scores for submitted result %d: %w", id, err)
	}
	return rows, nil
}

// UpdateScore patches one score row with its correction reason.
func (r *SubmittedResultRepository) UpdateScore(ctx context.Context, id, scoreID int64, update models.AssessmentUpdate) error {
	path := fmt.Sprintf("%sscores/%d/", submittedPath(id), scoreID)
	if err := r.client.Do(ctx, http.MethodPatch, path, update, nil); err != nil {
		return fmt.Errorf("update score %d: %w", scoreID, err)
	}
	return nil
}

func submittedPath(id int64) string {
	return fmt.Sprintf("%s/submitted-results/%d/", resultSystemPrefix, id)
}
