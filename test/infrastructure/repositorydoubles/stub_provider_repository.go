//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations, no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"

	"github.com/rios0rios0/repoaudit/internal/domain/entities"
	"github.com/rios0rios0/repoaudit/internal/domain/repositories"
)

// SpyProviderRepository implements repositories.ProviderRepository as a configurable spy.
type SpyProviderRepository struct {
	// --- identity ---
	ProviderName string

	// --- DiscoverRepositories ---
	Repositories []entities.Repository
	DiscoverErr  error

	// --- ListFiles ---
	// FilesByRef is shared by every repository.
	FilesByRef map[string][]entities.File
	// ListErrs is keyed by "repoID@ref" or by "repoID" for every ref.
	ListErrs  map[string]error
	ListCalls []string

	// --- GetFileContent ---
	FileContents map[string]string // path -> content
	FileErrs     map[string]error  // path -> error
	FetchedPaths []string
	LastMaxBytes int64
	// OnFetch runs before a fetch resolves, e.g. to cancel the caller's context.
	OnFetch func(path string)
}

var _ repositories.ProviderRepository = (*SpyProviderRepository)(nil)

func (p *SpyProviderRepository) Name() string {
	if p.ProviderName == "" {
		return "spy"
	}
	return p.ProviderName
}

func (p *SpyProviderRepository) DiscoverRepositories(_ context.Context) ([]entities.Repository, error) {
	return p.Repositories, p.DiscoverErr
}

func (p *SpyProviderRepository) ListFiles(
	ctx context.Context, repo entities.Repository, ref string,
) ([]entities.File, error) {
	key := repo.ID + "@" + ref
	p.ListCalls = append(p.ListCalls, key)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := p.ListErrs[key]; ok {
		return nil, err
	}
	if err, ok := p.ListErrs[repo.ID]; ok {
		return nil, err
	}
	files, ok := p.FilesByRef[ref]
	if !ok {
		return nil, fmt.Errorf("ref not found: %s", ref)
	}
	return files, nil
}

func (p *SpyProviderRepository) GetFileContent(
	ctx context.Context, _ entities.Repository, path, _ string, maxBytes int64,
) ([]byte, error) {
	p.FetchedPaths = append(p.FetchedPaths, path)
	p.LastMaxBytes = maxBytes

	if p.OnFetch != nil {
		p.OnFetch(path)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := p.FileErrs[path]; ok {
		return nil, err
	}
	content, ok := p.FileContents[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	data := []byte(content)
	if int64(len(data)) > maxBytes {
		data = data[:maxBytes]
	}
	return data, nil
}
