package local

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/repoaudit/internal/domain/entities"
	"github.com/rios0rios0/repoaudit/internal/domain/repositories"
)

const providerName = "local"

// LocalProviderRepository exposes a single on-disk git repository. Files are
// read from the committed tree at the requested ref, never from the worktree.
type LocalProviderRepository struct {
	path   string
	branch string
	repo   *git.Repository
}

// NewLocalProviderRepository opens the repository at settings.Provider.Path.
func NewLocalProviderRepository(settings *entities.Settings) (repositories.ProviderRepository, error) {
	absPath, err := filepath.Abs(settings.Provider.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %q: %w", settings.Provider.Path, err)
	}

	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %q: %w", absPath, err)
	}

	return &LocalProviderRepository{
		path:   absPath,
		branch: settings.Provider.Branch,
		repo:   repo,
	}, nil
}

func (p *LocalProviderRepository) Name() string { return providerName }

// DiscoverRepositories returns the opened repository as the only result.
func (p *LocalProviderRepository) DiscoverRepositories(_ context.Context) ([]entities.Repository, error) {
	branch := p.branch
	if branch == "" {
		head, err := p.repo.Head()
		if err != nil {
			logger.Debugf("Cannot resolve HEAD of %q: %v", p.path, err)
		} else {
			branch = head.Name().Short()
		}
	}

	return []entities.Repository{{
		ID:            p.path,
		Name:          filepath.Base(p.path),
		DefaultBranch: branch,
		RemoteURL:     p.path,
		ProviderName:  providerName,
	}}, nil
}

// ListFiles walks every blob of the tree at ref.
func (p *LocalProviderRepository) ListFiles(
	_ context.Context,
	_ entities.Repository,
	ref string,
) ([]entities.File, error) {
	tree, err := p.treeAt(ref)
	if err != nil {
		return nil, err
	}

	var files []entities.File
	err = tree.Files().ForEach(func(f *object.File) error {
		files = append(files, entities.File{
			Path:     f.Name,
			ObjectID: f.Hash.String(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk tree at %q: %w", ref, err)
	}
	return files, nil
}

// GetFileContent reads at most maxBytes of the blob at path.
func (p *LocalProviderRepository) GetFileContent(
	_ context.Context,
	_ entities.Repository,
	path, ref string,
	maxBytes int64,
) ([]byte, error) {
	tree, err := p.treeAt(ref)
	if err != nil {
		return nil, err
	}

	file, err := tree.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to find file %q at %q: %w", path, ref, err)
	}
	reader, err := file.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", path, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(io.LimitReader(reader, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", path, err)
	}
	return data, nil
}

func (p *LocalProviderRepository) treeAt(ref string) (*object.Tree, error) {
	hash, err := p.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ref %q: %w", ref, err)
	}
	commit, err := p.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree of %s: %w", hash, err)
	}
	return tree, nil
}
