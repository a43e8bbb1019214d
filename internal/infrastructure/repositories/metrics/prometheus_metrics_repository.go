package metrics

import (
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/rios0rios0/repoaudit/internal/domain/repositories"
)

const namespace = "repoaudit"

// PrometheusMetricsRepository counts sweep outcomes in a private registry.
// There is no scrape endpoint; Export writes a node_exporter textfile.
type PrometheusMetricsRepository struct {
	registry     *prom.Registry
	repositories *prom.CounterVec
	files        *prom.CounterVec
	hits         *prom.CounterVec
}

// NewPrometheusMetricsRepository constructs and registers the counters.
func NewPrometheusMetricsRepository(reg *prom.Registry) *PrometheusMetricsRepository {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	p := &PrometheusMetricsRepository{
		registry: reg,
		repositories: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "repositories_total",
			Help:      "Repositories processed by outcome",
		}, []string{"outcome"}),
		files: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Tree entries processed by outcome",
		}, []string{"outcome"}),
		hits: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "hits_total",
			Help:      "Findings recorded by kind",
		}, []string{"kind"}),
	}
	reg.MustRegister(p.repositories, p.files, p.hits)
	return p
}

var _ repositories.MetricsRepository = (*PrometheusMetricsRepository)(nil)

func (p *PrometheusMetricsRepository) ObserveRepository(outcome string) {
	p.repositories.WithLabelValues(outcome).Inc()
}

func (p *PrometheusMetricsRepository) ObserveFile(outcome string) {
	p.files.WithLabelValues(outcome).Inc()
}

func (p *PrometheusMetricsRepository) ObserveHits(kind string, count int) {
	if count <= 0 {
		return
	}
	p.hits.WithLabelValues(kind).Add(float64(count))
}

// Export writes the registry in text format to path. An empty path is a no-op.
func (p *PrometheusMetricsRepository) Export(path string) error {
	if path == "" {
		return nil
	}
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %q: %w", path, err)
	}
	return nil
}
