package hubspot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultPageLimit is the page size requested when the caller does not
// override it.
const DefaultPageLimit = 100

// maxPages bounds the pagination loop so a cursor that never terminates
// cannot spin forever.
const maxPages = 1000

// ErrTooManyPages is returned when the remote cursor keeps yielding pages
// past maxPages.
var ErrTooManyPages = errors.New("pagination did not terminate")

type paginatedPage[T any] struct {
	Results []T     `json:"results"`
	Paging  *Paging `json:"paging,omitempty"`
}

// Paging is the cursor envelope HubSpot attaches to list responses.
type Paging struct {
	Next *PagingNext `json:"next,omitempty"`
}

// PagingNext carries the opaque token for the next page. Absence means the
// listing is exhausted.
type PagingNext struct {
	After string `json:"after,omitempty"`
}

// FetchAll follows the after-cursor of a paginated listing and returns every
// result eagerly. A page with a missing results field contributes zero items.
// properties, when non-empty, is passed through as the properties filter.
// A limit <= 0 selects DefaultPageLimit.
func FetchAll[T any](ctx context.Context, client *Client, baseURL, properties, resource string, limit int) ([]T, error) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url for %s listing: %w", resource, err)
	}

	var (
		all   []T
		after string
	)

	for pageCount := 1; ; pageCount++ {
		if pageCount > maxPages {
			return nil, fmt.Errorf("fetching %s: %w", resource, ErrTooManyPages)
		}

		query := parsed.Query()
		if after != "" {
			query.Set("after", after)
		}

		if properties != "" {
			query.Set("properties", properties)
		}

		query.Set("limit", strconv.Itoa(limit))
		parsed.RawQuery = query.Encode()

		opContext := fmt.Sprintf("fetchPaginated-%s-page%d", resource, pageCount)

		raw, err := client.Do(ctx, http.MethodGet, parsed.String(), nil, opContext)
		if err != nil {
			return nil, err
		}

		var page paginatedPage[T]

		if raw != nil {
			err = json.Unmarshal(raw, &page)
			if err != nil {
				return nil, fmt.Errorf("failed to decode %s page %d: %w", resource, pageCount, err)
			}
		}

		all = append(all, page.Results...)

		if page.Paging == nil || page.Paging.Next == nil || page.Paging.Next.After == "" {
			break
		}

		after = page.Paging.Next.After
	}

	return all, nil
}
