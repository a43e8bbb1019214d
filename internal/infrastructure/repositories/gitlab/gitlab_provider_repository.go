package gitlab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	logger "github.com/sirupsen/logrus"
	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/rios0rios0/repoaudit/internal/domain/entities"
	"github.com/rios0rios0/repoaudit/internal/domain/repositories"
)

const (
	providerName = "gitlab"
	apiPath      = "/api/v4"
	treeTypeBlob = "blob"
)

var errClientNotInitialized = errors.New("gitlab client not initialized")

// GitLabProviderRepository implements repositories.ProviderRepository for a
// GitLab instance. Listing goes through the official client; raw file reads
// use a bare retryable client so the body can be capped while streaming.
type GitLabProviderRepository struct {
	client   *gl.Client
	raw      *retryablehttp.Client
	baseURL  string
	token    string
	authMode string
	perPage  int
}

// NewGitLabProviderRepository creates a GitLab provider from the run settings.
func NewGitLabProviderRepository(settings *entities.Settings) (repositories.ProviderRepository, error) {
	baseURL := strings.TrimSuffix(strings.TrimRight(settings.Provider.URL, "/"), apiPath)
	policy := NewRetryPolicy(settings.Retry.MaxAttempts, settings.Retry.Delay)
	leveled := newLeveledLogger()

	options := []gl.ClientOptionFunc{
		gl.WithBaseURL(baseURL),
		gl.WithCustomRetry(policy.CheckRetry),
		gl.WithCustomBackoff(policy.Backoff),
		gl.WithCustomRetryMax(policy.RetryMax()),
		gl.WithCustomLeveledLogger(leveled),
	}

	var (
		client *gl.Client
		err    error
	)
	if settings.Provider.AuthMode == entities.AuthModeBearer {
		client, err = gl.NewOAuthClient(settings.Provider.Token, options...)
	} else {
		client, err = gl.NewClient(settings.Provider.Token, options...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab client: %w", err)
	}

	raw := retryablehttp.NewClient()
	raw.Logger = leveled
	policy.Apply(raw)

	return &GitLabProviderRepository{
		client:   client,
		raw:      raw,
		baseURL:  baseURL,
		token:    settings.Provider.Token,
		authMode: settings.Provider.AuthMode,
		perPage:  settings.Scan.PerPage,
	}, nil
}

func (p *GitLabProviderRepository) Name() string { return providerName }

// DiscoverRepositories lists every non-archived project visible to the token.
func (p *GitLabProviderRepository) DiscoverRepositories(ctx context.Context) ([]entities.Repository, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	var allRepos []entities.Repository
	opts := &gl.ListProjectsOptions{
		ListOptions: gl.ListOptions{Page: 1},
		Archived:    gl.Ptr(false),
		Membership:  gl.Ptr(false),
		Simple:      gl.Ptr(true),
		OrderBy:     gl.Ptr("id"),
		Sort:        gl.Ptr("asc"),
	}
	setInt(&opts.PerPage, p.perPage)

	for {
		projects, resp, err := p.client.Projects.ListProjects(opts, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list projects (page %v): %w", opts.Page, err)
		}
		if len(projects) == 0 {
			break
		}

		for _, proj := range projects {
			allRepos = append(allRepos, toRepository(proj))
		}
		logger.Debugf("Listed %d projects so far", len(allRepos))

		if resp != nil && resp.NextPage != 0 {
			opts.Page = resp.NextPage
		} else {
			opts.Page++
		}
	}

	return allRepos, nil
}

// ListFiles returns the full recursive tree of the project at ref.
func (p *GitLabProviderRepository) ListFiles(
	ctx context.Context,
	repo entities.Repository,
	ref string,
) ([]entities.File, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	var allFiles []entities.File
	opts := &gl.ListTreeOptions{
		ListOptions: gl.ListOptions{Page: 1},
		Ref:         gl.Ptr(ref),
		Recursive:   gl.Ptr(true),
	}
	setInt(&opts.PerPage, p.perPage)

	for {
		nodes, resp, err := p.client.Repositories.ListTree(repo.ID, opts, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list tree of %s: %w", entities.RepositoryFullName(repo), err)
		}
		if len(nodes) == 0 {
			break
		}

		for _, node := range nodes {
			allFiles = append(allFiles, entities.File{
				Path:     node.Path,
				ObjectID: node.ID,
				IsDir:    node.Type != treeTypeBlob,
			})
		}

		if resp != nil && resp.NextPage != 0 {
			opts.Page = resp.NextPage
		} else {
			opts.Page++
		}
	}

	return allFiles, nil
}

// GetFileContent streams the raw file and stops reading after maxBytes.
func (p *GitLabProviderRepository) GetFileContent(
	ctx context.Context,
	repo entities.Repository,
	path, ref string,
	maxBytes int64,
) ([]byte, error) {
	if p.raw == nil {
		return nil, errClientNotInitialized
	}

	endpoint := fmt.Sprintf(
		"%s%s/projects/%s/repository/files/%s/raw?ref=%s",
		p.baseURL, apiPath,
		url.PathEscape(repo.ID), url.PathEscape(path), url.QueryEscape(ref),
	)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %q: %w", path, err)
	}
	if p.authMode == entities.AuthModeBearer {
		req.Header.Set("Authorization", "Bearer "+p.token)
	} else {
		req.Header.Set("PRIVATE-TOKEN", p.token)
	}

	resp, err := p.raw.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get file %q: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("failed to get file %q: unexpected status %d", path, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", path, err)
	}
	return data, nil
}

func toRepository(proj *gl.Project) entities.Repository {
	organization := ""
	if idx := strings.LastIndex(proj.PathWithNamespace, "/"); idx >= 0 {
		organization = proj.PathWithNamespace[:idx]
	}
	return entities.Repository{
		ID:            strconv.FormatInt(proj.ID, 10),
		Name:          proj.Path,
		Organization:  organization,
		DefaultBranch: proj.DefaultBranch,
		RemoteURL:     proj.HTTPURLToRepo,
		SSHURL:        proj.SSHURLToRepo,
		ProviderName:  providerName,
	}
}

// setInt assigns n to a pagination field regardless of its integer width.
func setInt[T ~int | ~int64](dst *T, n int) {
	*dst = T(n)
}
