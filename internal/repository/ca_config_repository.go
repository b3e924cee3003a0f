package repository

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/sma-result-desk/internal/models"
	"github.com/noah-isme/sma-result-desk/pkg/httpclient"
)

// CAConfigRepository reads and updates the ca_max record.
type CAConfigRepository struct {
	client *httpclient.Client
}

// NewCAConfigRepository constructs the repository.
func NewCAConfigRepository(client *httpclient.Client) *CAConfigRepository {
	return &CAConfigRepository{client: client}
}

// First returns the first available configuration, or nil when none exists.
func (r *CAConfigRepository) First(ctx context.Context) (*models.CAConfigRecord, error) {
	records, err := collect[models.CAConfigRecord](ctx, r.client, resultSystemPrefix+"/ca_max/")
	if err != nil {
		return nil, fmt.Errorf("fetch ca configuration: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Update persists the four maxima on an existing record.
func (r *CAConfigRepository) Update(ctx context.Context, id int64, limits models.CALimits) error {
	path := fmt.Sprintf("%s/ca_max/%d/", resultSystemPrefix, id)
	if err := r.client.Do(ctx, http.MethodPatch, path, limits, nil); err != nil {
		return fmt.Errorf("update ca configuration %d: %w", id, err)
	}
	return nil
}
