package hubspot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// SearchContactsByEmail returns the contacts whose email property equals
// email. Zero matches is a normal outcome, not an error.
func (c *Client) SearchContactsByEmail(ctx context.Context, email string) ([]Contact, error) {
	opContext := "searchContactByEmail"

	request := searchRequest{
		FilterGroups: []searchFilterGroup{{
			Filters: []searchFilter{{
				PropertyName: "email",
				Operator:     "EQ",
				Value:        email,
			}},
		}},
		Properties: []string{"email", "firstname", "lastname"},
	}

	raw, err := c.Do(ctx, http.MethodPost, c.config.CRMBaseURL+"/contacts/search", request, opContext)
	if err != nil {
		return nil, err
	}

	var response searchResponse[Contact]

	err = json.Unmarshal(raw, &response)
	if err != nil {
		return nil, fmt.Errorf("failed to decode contact search response: %w", err)
	}

	return response.Results, nil
}
