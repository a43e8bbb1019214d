//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/repoaudit/internal/domain/repositories"
)

// SpyMetricsRepository counts observations in plain maps.
type SpyMetricsRepository struct {
	Repositories map[string]int
	Files        map[string]int
	Hits         map[string]int
	ExportedTo   []string
	ExportErr    error
}

var _ repositories.MetricsRepository = (*SpyMetricsRepository)(nil)

// NewSpyMetricsRepository returns a spy with initialized maps.
func NewSpyMetricsRepository() *SpyMetricsRepository {
	return &SpyMetricsRepository{
		Repositories: make(map[string]int),
		Files:        make(map[string]int),
		Hits:         make(map[string]int),
	}
}

func (s *SpyMetricsRepository) ObserveRepository(outcome string) {
	s.Repositories[outcome]++
}

func (s *SpyMetricsRepository) ObserveFile(outcome string) {
	s.Files[outcome]++
}

func (s *SpyMetricsRepository) ObserveHits(kind string, count int) {
	s.Hits[kind] += count
}

func (s *SpyMetricsRepository) Export(path string) error {
	s.ExportedTo = append(s.ExportedTo, path)
	return s.ExportErr
}
