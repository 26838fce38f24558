package fetch

import (
	"context"

	"github.com/scoutlabs/brandscout/internal/models"
)

// Fetcher is the profile/content collaborator for one platform. Implementations
// normalize whatever field names the upstream provider uses into the canonical
// models shapes; raw provider fields never leak past this boundary.
type Fetcher interface {
	Platform() models.Platform

	// FetchProfile returns models.ErrProfileNotFound when the handle does not
	// resolve. Any other error is transient.
	FetchProfile(ctx context.Context, handle string) (models.Profile, error)

	// FetchRelatedProfiles returns the platform's suggested similar accounts
	// for a handle, up to limit. An empty result is not an error.
	FetchRelatedProfiles(ctx context.Context, handle string, limit int) ([]models.Profile, error)

	// FetchRecentContent returns up to limit recent posts or videos.
	FetchRecentContent(ctx context.Context, handle string, limit int) ([]models.ContentItem, error)
}
