package repositories

import (
	"context"

	"github.com/rios0rios0/repoaudit/internal/domain/entities"
)

// ProviderRepository abstracts a repository hosting service (a GitLab instance,
// a local checkout) with the three read-only operations a sweep needs.
type ProviderRepository interface {
	// Name returns the provider identifier (e.g. "gitlab", "local").
	Name() string

	// DiscoverRepositories lists every repository the credentials can see.
	DiscoverRepositories(ctx context.Context) ([]entities.Repository, error)

	// ListFiles returns the full recursive tree of a repository at ref.
	// Directory-like entries are returned with IsDir set.
	ListFiles(ctx context.Context, repo entities.Repository, ref string) ([]entities.File, error)

	// GetFileContent reads at most maxBytes of a file at ref. Reading stops
	// once the cap is reached; truncation is not an error.
	GetFileContent(
		ctx context.Context,
		repo entities.Repository,
		path, ref string,
		maxBytes int64,
	) ([]byte, error)
}
