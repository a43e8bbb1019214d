//go:build unit

package commands_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/repoaudit/internal/domain/commands"
	"github.com/rios0rios0/repoaudit/internal/domain/entities"
	"github.com/rios0rios0/repoaudit/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/repoaudit/internal/infrastructure/repositories"
	builders "github.com/rios0rios0/repoaudit/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/repoaudit/test/infrastructure/repositorydoubles"
)

type runFixture struct {
	provider *doubles.SpyProviderRepository
	sink     *doubles.SpyHitRepository
	metrics  *doubles.SpyMetricsRepository
	settings *entities.Settings
	command  *commands.RunCommand
}

func newRunFixture(provider *doubles.SpyProviderRepository) *runFixture {
	fixture := &runFixture{
		provider: provider,
		sink:     &doubles.SpyHitRepository{},
		metrics:  doubles.NewSpyMetricsRepository(),
		settings: entities.DefaultSettings(),
	}
	fixture.settings.Provider.Type = "spy"
	fixture.settings.Scan.Pause = 0
	fixture.settings.Output.MetricsFile = filepath.Join("out", "repoaudit.prom")

	providerRegistry := infraRepos.NewProviderRegistry()
	providerRegistry.Register("spy", func(_ *entities.Settings) (repositories.ProviderRepository, error) {
		return fixture.provider, nil
	})
	hitRegistry := infraRepos.NewHitRepositoryRegistry()
	hitRegistry.Register("spy", func(_ entities.OutputSettings) repositories.HitRepository {
		return fixture.sink
	})

	fixture.command = commands.NewRunCommand(providerRegistry, hitRegistry, fixture.metrics)
	return fixture
}

func TestRunCommandExecute(t *testing.T) {
	t.Parallel()

	t.Run("should scan every repository and flush hits per repository", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newRunFixture(&doubles.SpyProviderRepository{
			Repositories: []entities.Repository{
				builders.NewRepositoryBuilder().WithID("1").WithName("api").BuildRepository(),
				builders.NewRepositoryBuilder().WithID("2").WithName("web").BuildRepository(),
			},
			FilesByRef: map[string][]entities.File{
				"main": builders.NewFileBuilder().BuildFiles("a.zip", "b.pdf", "run.sh"),
			},
			FileContents: map[string]string{"run.sh": "#!/bin/sh\n# 密码 reset\n"},
		})

		// when
		summary, err := fixture.command.Execute(context.Background(), fixture.settings, commands.RunOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, summary.RepositoriesTotal)
		assert.Equal(t, 2, summary.RepositoriesScanned)
		assert.Equal(t, 0, summary.RepositoriesAbandoned)
		assert.Equal(t, 4, summary.BinaryHits)
		assert.Equal(t, 2, summary.SensitiveHits)
		assert.NotEmpty(t, summary.RunID)
		assert.False(t, summary.FinishedAt.Before(summary.StartedAt))

		require.Len(t, fixture.sink.OpenedRuns, 1)
		assert.Equal(t, summary.RunID, fixture.sink.OpenedRuns[0].ID)
		assert.Equal(t, []int{2, 2}, fixture.sink.BinaryBatches)
		assert.Len(t, fixture.sink.SensitiveHits, 2)
		assert.Equal(t, "密码", fixture.sink.SensitiveHits[0].Term)
		assert.Equal(t, []entities.RunSummary{summary}, fixture.sink.ClosedWith)

		assert.Equal(t, 2, fixture.metrics.Repositories[entities.RepositoryOutcomeScanned])
		assert.Equal(t, 4, fixture.metrics.Hits[entities.HitKindBinary])
		assert.Equal(t, 2, fixture.metrics.Hits[entities.HitKindComment])
		assert.Equal(t, []string{fixture.settings.Output.MetricsFile}, fixture.metrics.ExportedTo)
	})

	t.Run("should count an abandoned repository and keep going", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newRunFixture(&doubles.SpyProviderRepository{
			Repositories: []entities.Repository{
				builders.NewRepositoryBuilder().WithID("1").BuildRepository(),
				builders.NewRepositoryBuilder().WithID("2").BuildRepository(),
			},
			FilesByRef: map[string][]entities.File{"main": builders.NewFileBuilder().BuildFiles("x.7z")},
			ListErrs:   map[string]error{"1": errors.New("404 tree not found")},
		})

		// when
		summary, err := fixture.command.Execute(context.Background(), fixture.settings, commands.RunOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, summary.RepositoriesAbandoned)
		assert.Equal(t, 1, summary.RepositoriesScanned)
		assert.Equal(t, 1, summary.BinaryHits)
		assert.Equal(t, 1, fixture.metrics.Repositories[entities.RepositoryOutcomeAbandoned])
		require.Len(t, fixture.sink.BinaryHits, 1)
		assert.Equal(t, "2", fixture.sink.BinaryHits[0].RepositoryID)
	})

	t.Run("should fail and still close outputs when discovery fails", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newRunFixture(&doubles.SpyProviderRepository{DiscoverErr: errors.New("401 unauthorized")})

		// when
		_, err := fixture.command.Execute(context.Background(), fixture.settings, commands.RunOptions{})

		// then
		require.Error(t, err)
		assert.Len(t, fixture.sink.ClosedWith, 1)
	})

	t.Run("should abort when a sink cannot be written", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newRunFixture(&doubles.SpyProviderRepository{
			Repositories: []entities.Repository{builders.NewRepositoryBuilder().BuildRepository()},
			FilesByRef:   map[string][]entities.File{"main": nil},
		})
		fixture.sink.AppendErr = errors.New("disk full")

		// when
		_, err := fixture.command.Execute(context.Background(), fixture.settings, commands.RunOptions{})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})

	t.Run("should not start when outputs cannot be opened", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newRunFixture(&doubles.SpyProviderRepository{})
		fixture.sink.OpenErr = errors.New("permission denied")

		// when
		_, err := fixture.command.Execute(context.Background(), fixture.settings, commands.RunOptions{})

		// then
		require.Error(t, err)
		assert.Empty(t, fixture.sink.ClosedWith)
	})

	t.Run("should reject an unknown provider type", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newRunFixture(&doubles.SpyProviderRepository{})
		fixture.settings.Provider.Type = "bitbucket"

		// when
		_, err := fixture.command.Execute(context.Background(), fixture.settings, commands.RunOptions{})

		// then
		require.ErrorIs(t, err, infraRepos.ErrUnknownProvider)
		assert.Empty(t, fixture.sink.OpenedRuns)
	})

	t.Run("should stop pausing when the context is cancelled", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newRunFixture(&doubles.SpyProviderRepository{
			Repositories: []entities.Repository{
				builders.NewRepositoryBuilder().WithID("1").BuildRepository(),
				builders.NewRepositoryBuilder().WithID("2").BuildRepository(),
			},
			FilesByRef: map[string][]entities.File{"main": nil},
		})
		fixture.settings.Scan.Pause = time.Hour
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		fixture.sink.OnAppendSensitive = cancel

		// when
		summary, err := fixture.command.Execute(ctx, fixture.settings, commands.RunOptions{})

		// then
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, summary.RepositoriesScanned)
		assert.Equal(t, []string{"1@main"}, fixture.provider.ListCalls)
		assert.Len(t, fixture.sink.ClosedWith, 1)
	})

	t.Run("should discard the repository in progress when the run is interrupted", func(t *testing.T) {
		t.Parallel()

		// given
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		fetches := 0
		fixture := newRunFixture(&doubles.SpyProviderRepository{
			Repositories: []entities.Repository{
				builders.NewRepositoryBuilder().WithID("1").BuildRepository(),
				builders.NewRepositoryBuilder().WithID("2").BuildRepository(),
			},
			FilesByRef: map[string][]entities.File{
				"main": builders.NewFileBuilder().BuildFiles("a.sh", "b.sh", "c.sh"),
			},
			FileContents: map[string]string{
				"a.sh": "# secret one\n",
				"b.sh": "# secret two\n",
				"c.sh": "# secret three\n",
			},
			OnFetch: func(_ string) {
				fetches++
				if fetches == 4 {
					cancel()
				}
			},
		})

		// when
		summary, err := fixture.command.Execute(ctx, fixture.settings, commands.RunOptions{})

		// then
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, summary.RepositoriesScanned)
		assert.Equal(t, 0, summary.RepositoriesAbandoned)
		assert.Equal(t, 3, summary.SensitiveHits)
		require.Len(t, fixture.sink.SensitiveHits, 3)
		for _, hit := range fixture.sink.SensitiveHits {
			assert.Equal(t, "1", hit.RepositoryID)
		}
		assert.Equal(t, 1, fixture.metrics.Repositories[entities.RepositoryOutcomeScanned])
		assert.Equal(t, 0, fixture.metrics.Repositories[entities.RepositoryOutcomeAbandoned])
		assert.Equal(t, []entities.RunSummary{summary}, fixture.sink.ClosedWith)
	})

	t.Run("should not count an interrupted listing as abandoned", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newRunFixture(&doubles.SpyProviderRepository{
			Repositories: []entities.Repository{builders.NewRepositoryBuilder().WithID("1").BuildRepository()},
			FilesByRef:   map[string][]entities.File{"main": builders.NewFileBuilder().BuildFiles("a.zip")},
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// when
		summary, err := fixture.command.Execute(ctx, fixture.settings, commands.RunOptions{})

		// then
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, summary.RepositoriesAbandoned)
		assert.Equal(t, 0, summary.RepositoriesScanned)
		assert.Equal(t, []string{"1@main"}, fixture.provider.ListCalls)
		assert.Empty(t, fixture.sink.BinaryBatches)
		assert.Equal(t, 0, fixture.metrics.Repositories[entities.RepositoryOutcomeAbandoned])
		assert.Len(t, fixture.sink.ClosedWith, 1)
	})
}
