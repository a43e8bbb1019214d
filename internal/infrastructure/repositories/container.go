package repositories

import (
	prom "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"github.com/rios0rios0/repoaudit/internal/domain/entities"
	domainRepos "github.com/rios0rios0/repoaudit/internal/domain/repositories"
	csvRepo "github.com/rios0rios0/repoaudit/internal/infrastructure/repositories/csvfile"
	glRepo "github.com/rios0rios0/repoaudit/internal/infrastructure/repositories/gitlab"
	localRepo "github.com/rios0rios0/repoaudit/internal/infrastructure/repositories/local"
	metricsRepo "github.com/rios0rios0/repoaudit/internal/infrastructure/repositories/metrics"
	reportRepo "github.com/rios0rios0/repoaudit/internal/infrastructure/repositories/report"
	sqliteRepo "github.com/rios0rios0/repoaudit/internal/infrastructure/repositories/sqlite"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register provider registry with all provider factories
	if err := container.Provide(func() *ProviderRegistry {
		reg := NewProviderRegistry()
		reg.Register(entities.ProviderGitLab, glRepo.NewGitLabProviderRepository)
		reg.Register(entities.ProviderLocal, localRepo.NewLocalProviderRepository)
		return reg
	}); err != nil {
		return err
	}

	// Register hit sinks; optional ones are skipped when their path is empty
	if err := container.Provide(func() *HitRepositoryRegistry {
		reg := NewHitRepositoryRegistry()
		reg.Register("csv", func(output entities.OutputSettings) domainRepos.HitRepository {
			return csvRepo.NewCSVHitRepository(output.BinaryCSV, output.CommentCSV)
		})
		reg.Register("sqlite", func(output entities.OutputSettings) domainRepos.HitRepository {
			if output.SQLite == "" {
				return nil
			}
			return sqliteRepo.NewSQLiteHitRepository(output.SQLite)
		})
		reg.Register("markdown", func(output entities.OutputSettings) domainRepos.HitRepository {
			if output.Markdown == "" {
				return nil
			}
			return reportRepo.NewMarkdownHitRepository(output.Markdown)
		})
		return reg
	}); err != nil {
		return err
	}

	// Register metrics
	if err := container.Provide(func() domainRepos.MetricsRepository {
		return metricsRepo.NewPrometheusMetricsRepository(prom.NewRegistry())
	}); err != nil {
		return err
	}

	return nil
}
