package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/repoaudit/internal/domain/entities"
	"github.com/rios0rios0/repoaudit/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/repoaudit/internal/infrastructure/repositories"
)

// Run is the interface for the run command (full sweep).
type Run interface {
	Execute(ctx context.Context, settings *entities.Settings, opts RunOptions) (entities.RunSummary, error)
}

// RunOptions holds runtime options for a single run.
type RunOptions struct {
	Verbose bool
}

// RunCommand orchestrates a full sweep:
// discover repositories -> scan each one -> flush its hits.
type RunCommand struct {
	providerRegistry *infraRepos.ProviderRegistry
	hitRegistry      *infraRepos.HitRepositoryRegistry
	metrics          repositories.MetricsRepository
}

// NewRunCommand creates a new RunCommand with the given registries.
func NewRunCommand(
	providerRegistry *infraRepos.ProviderRegistry,
	hitRegistry *infraRepos.HitRepositoryRegistry,
	metrics repositories.MetricsRepository,
) *RunCommand {
	return &RunCommand{
		providerRegistry: providerRegistry,
		hitRegistry:      hitRegistry,
		metrics:          metrics,
	}
}

// Execute scans every repository the configured provider exposes. Repositories
// that cannot be listed are abandoned and counted; only provider, discovery and
// sink failures abort the run. When ctx ends, the repository in progress is
// dropped and the sinks keep only the repositories completed before it.
func (it *RunCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	runOpts RunOptions,
) (entities.RunSummary, error) {
	if runOpts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	provider, err := it.providerRegistry.Get(settings)
	if err != nil {
		return entities.RunSummary{}, fmt.Errorf("failed to initialize provider %q: %w", settings.Provider.Type, err)
	}

	sink, err := it.hitRegistry.Build(settings.Output)
	if err != nil {
		return entities.RunSummary{}, fmt.Errorf("failed to initialize outputs: %w", err)
	}

	run := entities.NewRun()
	summary := entities.RunSummary{RunID: run.ID, StartedAt: run.StartedAt}
	if openErr := sink.Open(ctx, run); openErr != nil {
		return summary, fmt.Errorf("failed to open outputs: %w", openErr)
	}

	sweepErr := it.sweep(ctx, provider, sink, settings, &summary)

	summary.FinishedAt = time.Now().UTC()
	logger.Infof(
		"Run complete: %d/%d repositories scanned, %d abandoned",
		summary.RepositoriesScanned, summary.RepositoriesTotal, summary.RepositoriesAbandoned,
	)
	logger.Infof("Total binary files found: %d", summary.BinaryHits)
	logger.Infof("Total sensitive comments found: %d", summary.SensitiveHits)

	closeErr := sink.Close(context.WithoutCancel(ctx), summary)
	if closeErr != nil {
		closeErr = fmt.Errorf("failed to close outputs: %w", closeErr)
	}
	if exportErr := it.metrics.Export(settings.Output.MetricsFile); exportErr != nil {
		logger.Warnf("Failed to export metrics to %q: %v", settings.Output.MetricsFile, exportErr)
	}

	return summary, errors.Join(sweepErr, closeErr)
}

func (it *RunCommand) sweep(
	ctx context.Context,
	provider repositories.ProviderRepository,
	sink repositories.HitRepository,
	settings *entities.Settings,
	summary *entities.RunSummary,
) error {
	logger.Infof("Discovering repositories through %s...", provider.Name())
	repos, err := provider.DiscoverRepositories(ctx)
	if err != nil {
		return fmt.Errorf("failed to discover repositories: %w", err)
	}

	summary.RepositoriesTotal = len(repos)
	logger.Infof("Found %d repositories, starting scan...", len(repos))

	scanner := NewRepositoryScanner(
		provider,
		entities.NewSensitiveMatcher(settings.Scan.SensitiveWords),
		it.metrics,
		settings.Scan.MaxBytes,
	)

	for idx, repo := range repos {
		name := entities.RepositoryFullName(repo)
		logger.Infof("[%d/%d] Scanning repository: %s", idx+1, len(repos), name)

		result, scanErr := scanner.ScanWithFallback(ctx, repo, settings.Scan.FallbackBranch)
		if ctxErr := ctx.Err(); ctxErr != nil {
			logger.Warnf("  [stop] %s: interrupted, partial results discarded", name)
			return ctxErr
		}
		if scanErr != nil {
			logger.Warnf("  [skip] %s: %v", name, scanErr)
			summary.RepositoriesAbandoned++
			it.metrics.ObserveRepository(entities.RepositoryOutcomeAbandoned)
		} else {
			if flushErr := it.flush(ctx, sink, result); flushErr != nil {
				return flushErr
			}
			summary.RepositoriesScanned++
			summary.BinaryHits += len(result.BinaryHits)
			summary.SensitiveHits += len(result.SensitiveHits)
			it.metrics.ObserveRepository(entities.RepositoryOutcomeScanned)
			logResult(result)
		}

		if idx < len(repos)-1 {
			if pauseErr := pause(ctx, settings.Scan.Pause); pauseErr != nil {
				return pauseErr
			}
		}
	}

	return nil
}

// flush hands one repository's hits to the sinks before the next repository starts.
func (it *RunCommand) flush(
	ctx context.Context,
	sink repositories.HitRepository,
	result entities.ScanResult,
) error {
	if err := sink.AppendBinaryHits(ctx, result.BinaryHits); err != nil {
		return fmt.Errorf("failed to write binary hits: %w", err)
	}
	if err := sink.AppendSensitiveHits(ctx, result.SensitiveHits); err != nil {
		return fmt.Errorf("failed to write sensitive hits: %w", err)
	}
	it.metrics.ObserveHits(entities.HitKindBinary, len(result.BinaryHits))
	it.metrics.ObserveHits(entities.HitKindComment, len(result.SensitiveHits))
	return nil
}

func logResult(result entities.ScanResult) {
	if len(result.BinaryHits) == 0 && len(result.SensitiveHits) == 0 {
		logger.Infof("  -> nothing found on %q", result.Branch)
		return
	}
	logger.Infof(
		"  -> found on %q: %d binary files, %d sensitive comments",
		result.Branch, len(result.BinaryHits), len(result.SensitiveHits),
	)
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
