//go:build unit

package gitlab_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/repoaudit/internal/domain/entities"
	"github.com/rios0rios0/repoaudit/internal/domain/repositories"
	"github.com/rios0rios0/repoaudit/internal/infrastructure/repositories/gitlab"
)

func newProvider(t *testing.T, serverURL string, mutate ...func(*entities.Settings)) repositories.ProviderRepository {
	t.Helper()

	settings := entities.DefaultSettings()
	settings.Provider.URL = serverURL
	settings.Provider.Token = "test-token"
	settings.Retry.Delay = 0
	for _, fn := range mutate {
		fn(settings)
	}

	provider, err := gitlab.NewGitLabProviderRepository(settings)
	require.NoError(t, err)
	return provider
}

func TestGitLabProviderRepository_DiscoverRepositories(t *testing.T) {
	t.Parallel()

	t.Run("should follow pages until an empty page is returned", func(t *testing.T) {
		t.Parallel()

		// given
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			require.Equal(t, "/api/v4/projects", r.URL.Path)
			assert.Equal(t, "test-token", r.Header.Get("PRIVATE-TOKEN"))
			assert.Equal(t, "false", r.URL.Query().Get("archived"))
			assert.Equal(t, "false", r.URL.Query().Get("membership"))

			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Query().Get("page") {
			case "1":
				_, _ = fmt.Fprint(w, `[{"id":1,"path":"api","path_with_namespace":"team/api","default_branch":"main"},`+
					`{"id":2,"path":"web","path_with_namespace":"team/sub/web","default_branch":""}]`)
			case "2":
				_, _ = fmt.Fprint(w, `[{"id":3,"path":"ops","path_with_namespace":"ops","default_branch":"develop"}]`)
			default:
				_, _ = fmt.Fprint(w, `[]`)
			}
		}))
		defer server.Close()
		provider := newProvider(t, server.URL)

		// when
		repos, err := provider.DiscoverRepositories(context.Background())

		// then
		require.NoError(t, err)
		require.Len(t, repos, 3)
		assert.Equal(t, "1", repos[0].ID)
		assert.Equal(t, "team/api", entities.RepositoryFullName(repos[0]))
		assert.Equal(t, "team/sub/web", entities.RepositoryFullName(repos[1]))
		assert.Equal(t, entities.DefaultBranchName, entities.RepositoryBranch(repos[1]))
		assert.Equal(t, "ops", entities.RepositoryFullName(repos[2]))
		assert.Equal(t, "develop", repos[2].DefaultBranch)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("should retry a throttled listing and then succeed", func(t *testing.T) {
		t.Parallel()

		// given
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := calls.Add(1)
			if n == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			if r.URL.Query().Get("page") == "1" {
				_, _ = fmt.Fprint(w, `[{"id":7,"path":"x","path_with_namespace":"g/x"}]`)
				return
			}
			_, _ = fmt.Fprint(w, `[]`)
		}))
		defer server.Close()
		provider := newProvider(t, server.URL)

		// when
		repos, err := provider.DiscoverRepositories(context.Background())

		// then
		require.NoError(t, err)
		assert.Len(t, repos, 1)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("should fail when the listing keeps failing", func(t *testing.T) {
		t.Parallel()

		// given
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()
		provider := newProvider(t, server.URL)

		// when
		repos, err := provider.DiscoverRepositories(context.Background())

		// then
		require.Error(t, err)
		assert.Empty(t, repos)
		assert.Equal(t, int32(3), calls.Load())
	})
}

func TestGitLabProviderRepository_ListFiles(t *testing.T) {
	t.Parallel()

	t.Run("should return blobs and mark every other entry as a directory", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/v4/projects/42/repository/tree", r.URL.Path)
			assert.Equal(t, "main", r.URL.Query().Get("ref"))
			assert.Equal(t, "true", r.URL.Query().Get("recursive"))

			w.Header().Set("Content-Type", "application/json")
			if r.URL.Query().Get("page") == "1" {
				_, _ = fmt.Fprint(w, `[{"id":"a","name":"src","type":"tree","path":"src"},`+
					`{"id":"b","name":"main.go","type":"blob","path":"src/main.go"},`+
					`{"id":"c","name":"lib","type":"commit","path":"lib"}]`)
				return
			}
			_, _ = fmt.Fprint(w, `[]`)
		}))
		defer server.Close()
		provider := newProvider(t, server.URL)
		repo := entities.Repository{ID: "42", Name: "api", Organization: "team"}

		// when
		files, err := provider.ListFiles(context.Background(), repo, "main")

		// then
		require.NoError(t, err)
		require.Len(t, files, 3)
		assert.True(t, files[0].IsDir)
		assert.False(t, files[1].IsDir)
		assert.Equal(t, "src/main.go", files[1].Path)
		assert.True(t, files[2].IsDir)
	})

	t.Run("should not retry a missing ref", func(t *testing.T) {
		t.Parallel()

		// given
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = fmt.Fprint(w, `{"message":"404 Tree Not Found"}`)
		}))
		defer server.Close()
		provider := newProvider(t, server.URL)

		// when
		_, err := provider.ListFiles(context.Background(), entities.Repository{ID: "42"}, "main")

		// then
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestGitLabProviderRepository_GetFileContent(t *testing.T) {
	t.Parallel()

	t.Run("should escape the path and stop reading at the byte cap", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v4/projects/42/repository/files/src%2Fmain.go/raw", r.URL.EscapedPath())
			assert.Equal(t, "feature/x", r.URL.Query().Get("ref"))
			assert.Equal(t, "test-token", r.Header.Get("PRIVATE-TOKEN"))
			_, _ = fmt.Fprint(w, "0123456789")
		}))
		defer server.Close()
		provider := newProvider(t, server.URL)

		// when
		data, err := provider.GetFileContent(
			context.Background(), entities.Repository{ID: "42"}, "src/main.go", "feature/x", 4,
		)

		// then
		require.NoError(t, err)
		assert.Equal(t, "0123", string(data))
	})

	t.Run("should send a bearer header when configured", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			assert.Empty(t, r.Header.Get("PRIVATE-TOKEN"))
			_, _ = fmt.Fprint(w, "# hello")
		}))
		defer server.Close()
		provider := newProvider(t, server.URL+"/api/v4", func(s *entities.Settings) {
			s.Provider.AuthMode = entities.AuthModeBearer
		})

		// when
		data, err := provider.GetFileContent(context.Background(), entities.Repository{ID: "1"}, "a.py", "main", 100)

		// then
		require.NoError(t, err)
		assert.Equal(t, "# hello", string(data))
	})

	t.Run("should retry server errors up to the attempt limit", func(t *testing.T) {
		t.Parallel()

		// given
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()
		provider := newProvider(t, server.URL)

		// when
		_, err := provider.GetFileContent(context.Background(), entities.Repository{ID: "1"}, "a.py", "main", 100)

		// then
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "503"))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("should return an error without retrying a not found file", func(t *testing.T) {
		t.Parallel()

		// given
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()
		provider := newProvider(t, server.URL)

		// when
		_, err := provider.GetFileContent(context.Background(), entities.Repository{ID: "1"}, "a.py", "main", 100)

		// then
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})
}
