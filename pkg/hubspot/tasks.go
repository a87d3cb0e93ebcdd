package hubspot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Default task properties. CreateTask applies these unless the caller
// overrides them through extra.
const (
	TaskTypeTodo         = "TODO"
	TaskPriorityHigh     = "HIGH"
	TaskStatusNotStarted = "NOT_STARTED"
)

// taskSearchLimit caps how many candidate tasks a withdrawal looks at.
const taskSearchLimit = 10

// CreateTask creates a follow-up task assigned to ownerID. extra may
// override any of the default properties.
func (c *Client) CreateTask(ctx context.Context, ownerID, subject, body string, extra map[string]string) (*Task, error) {
	opContext := "createTask-" + ownerID

	properties := map[string]string{
		"hs_task_subject":  subject,
		"hs_task_body":     body,
		"hs_task_type":     TaskTypeTodo,
		"hs_task_priority": TaskPriorityHigh,
		"hs_task_status":   TaskStatusNotStarted,
		"hs_timestamp":     c.now().UTC().Format(time.RFC3339),
		"hubspot_owner_id": ownerID,
	}

	for key, value := range extra {
		properties[key] = value
	}

	raw, err := c.Do(ctx, http.MethodPost, c.config.CRMBaseURL+"/tasks", map[string]any{
		"properties": properties,
	}, opContext)
	if err != nil {
		return nil, err
	}

	var task Task

	err = json.Unmarshal(raw, &task)
	if err != nil {
		return nil, fmt.Errorf("failed to decode created task: %w", err)
	}

	return &task, nil
}

// SearchTasksByOwnerAndDeal returns the tasks assigned to ownerID that are
// associated with dealID, newest first, capped at taskSearchLimit. Zero
// matches is a normal outcome.
func (c *Client) SearchTasksByOwnerAndDeal(ctx context.Context, ownerID, dealID string) ([]Task, error) {
	opContext := fmt.Sprintf("searchTasks-%s-%s", ownerID, dealID)

	request := searchRequest{
		FilterGroups: []searchFilterGroup{{
			Filters: []searchFilter{
				{PropertyName: "hubspot_owner_id", Operator: "EQ", Value: ownerID},
				{PropertyName: "associations.deal", Operator: "EQ", Value: dealID},
			},
		}},
		Properties: []string{"hs_task_subject", "hs_task_status", "hubspot_owner_id"},
		Sorts: []searchSort{{
			PropertyName: "hs_createdate",
			Direction:    "DESCENDING",
		}},
		Limit: taskSearchLimit,
	}

	raw, err := c.Do(ctx, http.MethodPost, c.config.CRMBaseURL+"/tasks/search", request, opContext)
	if err != nil {
		return nil, err
	}

	var response searchResponse[Task]

	err = json.Unmarshal(raw, &response)
	if err != nil {
		return nil, fmt.Errorf("failed to decode task search response: %w", err)
	}

	return response.Results, nil
}

// DeleteTask removes a task by id.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	opContext := "deleteTask-" + taskID

	_, err := c.Do(ctx, http.MethodDelete, c.config.CRMBaseURL+"/tasks/"+taskID, nil, opContext)

	return err
}
