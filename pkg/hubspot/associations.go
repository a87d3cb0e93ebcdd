package hubspot

import (
	"context"
	"fmt"
	"net/http"
)

// AssociationTypeDefault selects the unlabeled association between two
// object types.
const AssociationTypeDefault = "default"

// taskToDealAssociationType is the HubSpot-defined association type id for
// task -> deal edges.
const taskToDealAssociationType = "216"

// ArchiveInput identifies the association edges to remove from one source
// object.
type ArchiveInput struct {
	FromID string
	ToIDs  []string
}

type associationID struct {
	ID string `json:"id"`
}

type archiveItem struct {
	From associationID   `json:"from"`
	To   []associationID `json:"to"`
}

// CreateAssociation creates one typed edge between two CRM objects. The body
// is empty; everything is addressed through the path. The call is safe to
// repeat: HubSpot treats a duplicate create as a no-op.
func (c *Client) CreateAssociation(ctx context.Context, fromType, fromID, toType, toID, assocType string) error {
	opContext := fmt.Sprintf("createAssociation-%s-%s", fromType, toType)

	requestURL := fmt.Sprintf("%s/objects/%s/%s/associations/%s/%s/%s",
		c.config.CRMV4BaseURL, fromType, fromID, assocType, toType, toID)

	_, err := c.Do(ctx, http.MethodPut, requestURL, nil, opContext)

	return err
}

// ArchiveAssociations removes edges between fromType and toType objects in
// one batch. The batch is all-or-nothing: one failing item fails the call
// and no partial result is reported.
func (c *Client) ArchiveAssociations(ctx context.Context, fromType, toType string, inputs []ArchiveInput) error {
	opContext := fmt.Sprintf("archiveAssociations-%s-%s", fromType, toType)

	items := make([]archiveItem, 0, len(inputs))

	for _, input := range inputs {
		item := archiveItem{From: associationID{ID: input.FromID}}

		for _, toID := range input.ToIDs {
			item.To = append(item.To, associationID{ID: toID})
		}

		items = append(items, item)
	}

	requestURL := fmt.Sprintf("%s/associations/%s/%s/batch/archive",
		c.config.CRMV4BaseURL, fromType, toType)

	_, err := c.Do(ctx, http.MethodPost, requestURL, map[string]any{"inputs": items}, opContext)

	return err
}

// AssociateTaskWithDeal links a follow-up task to the deal it concerns.
func (c *Client) AssociateTaskWithDeal(ctx context.Context, taskID, dealID string) error {
	return c.CreateAssociation(ctx, ObjectTypeTasks, taskID, ObjectTypeDeals, dealID, taskToDealAssociationType)
}
