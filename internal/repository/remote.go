package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/noah-isme/sma-result-desk/pkg/httpclient"
)

const resultSystemPrefix = "/result-system"

// collect drains every page of a list endpoint into a slice of T.
func collect[T any](ctx context.Context, client *httpclient.Client, path string) ([]T, error) {
	var items []T
	err := client.GetAll(ctx, path, func(raw json.RawMessage) error {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return fmt.Errorf("decode %T: %w", item, err)
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func coursePath(courseID int64) string {
	return fmt.Sprintf("%s/courses/%d/", resultSystemPrefix, courseID)
}

func resultPath(courseID, resultID int64) string {
	return fmt.Sprintf("%s/courses/%d/results/%d/", resultSystemPrefix, courseID, resultID)
}
