package api

import (
	"context"
	"fmt"

	"github.com/nakachan-ing/dtl-cli/internal/model"
)

func (c *Client) ListTaskTypes(ctx context.Context) ([]model.TaskType, error) {
	var types []model.TaskType
	if err := c.getJSON(ctx, "ListTaskTypes", c.endpoint("task-types"), &types); err != nil {
		return nil, err
	}
	for _, t := range types {
		if t.ID <= 0 || t.Name == "" {
			return nil, fmt.Errorf("ListTaskTypes: %w: task type %d %q", model.ErrInvalidPayload, t.ID, t.Name)
		}
	}
	return types, nil
}
