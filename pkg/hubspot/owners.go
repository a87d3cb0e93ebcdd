package hubspot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	ownersCacheKey = "hubspot:owners"
	ownersCacheTTL = 5 * time.Minute
)

// ErrOwnerNotResolved is returned when neither the live owner directory nor
// the caller-supplied hint yields an owner id.
var ErrOwnerNotResolved = errors.New("owner could not be resolved")

// DirectoryCache is an optional read-through cache for the owner directory.
// Implemented by pkg/cache. A nil cache means every resolution fetches the
// directory from the API.
type DirectoryCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// OwnerResolver maps the acting user to a HubSpot owner. A live email match
// against the owner directory wins over the deal-record hint, which may be
// stale or differently formatted.
type OwnerResolver struct {
	client *Client
	cache  DirectoryCache
	logger *slog.Logger
}

// NewOwnerResolver creates an OwnerResolver. cache may be nil.
func NewOwnerResolver(client *Client, cache DirectoryCache, logger *slog.Logger) *OwnerResolver {
	if logger == nil {
		logger = slog.Default()
	}

	return &OwnerResolver{
		client: client,
		cache:  cache,
		logger: logger.With("module", "owner_resolver"),
	}
}

// ListOwners returns the full owner directory, reading through the cache
// when one is configured. Cache failures are logged and ignored; the
// directory fetch is the source of truth.
func (r *OwnerResolver) ListOwners(ctx context.Context) ([]Owner, error) {
	if r.cache != nil {
		cached, found, err := r.cache.Get(ctx, ownersCacheKey)
		if err != nil {
			r.logger.WarnContext(ctx, "Owner cache read failed", "error", err)
		} else if found {
			var owners []Owner

			err = json.Unmarshal(cached, &owners)
			if err == nil {
				return owners, nil
			}

			r.logger.WarnContext(ctx, "Owner cache entry is corrupt, refetching", "error", err)
		}
	}

	owners, err := FetchAll[Owner](ctx, r.client, r.client.CRMBaseURL()+"/owners", "", "owners", 0)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		payload, err := json.Marshal(owners)
		if err == nil {
			err = r.cache.Set(ctx, ownersCacheKey, payload, ownersCacheTTL)
		}

		if err != nil {
			r.logger.WarnContext(ctx, "Owner cache write failed", "error", err)
		}
	}

	return owners, nil
}

// Resolve returns the owner id for the acting user: the first directory
// owner whose email equals userEmail, falling back to ownerHint when no
// match exists.
func (r *OwnerResolver) Resolve(ctx context.Context, ownerHint, userEmail string) (string, error) {
	if userEmail != "" {
		owners, err := r.ListOwners(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list owners: %w", err)
		}

		for _, owner := range owners {
			if owner.Email == userEmail {
				return owner.ID, nil
			}
		}
	}

	if ownerHint == "" {
		return "", ErrOwnerNotResolved
	}

	return ownerHint, nil
}

// FetchOwner retrieves a single owner by id.
func (c *Client) FetchOwner(ctx context.Context, ownerID string) (*Owner, error) {
	opContext := "fetchOwnerDetails-" + ownerID

	raw, err := c.Do(ctx, http.MethodGet, c.config.CRMBaseURL+"/owners/"+ownerID, nil, opContext)
	if err != nil {
		return nil, err
	}

	var owner Owner

	err = json.Unmarshal(raw, &owner)
	if err != nil {
		return nil, fmt.Errorf("failed to decode owner %s: %w", ownerID, err)
	}

	return &owner, nil
}
