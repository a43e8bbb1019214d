//go:build unit

package report

import (
	"io"

	"github.com/rios0rios0/repoaudit/internal/domain/repositories"
)

// NewMarkdownHitRepositoryWithCreate swaps the file opener used on Close.
func NewMarkdownHitRepositoryWithCreate(
	path string,
	create func(name string) (io.WriteCloser, error),
) repositories.HitRepository {
	return &MarkdownHitRepository{path: path, create: create}
}
