package repositories

import (
	"context"
	"errors"

	"github.com/rios0rios0/repoaudit/internal/domain/entities"
	domainRepos "github.com/rios0rios0/repoaudit/internal/domain/repositories"
)

// HitRepositoryFactory builds one sink from the output settings. It returns
// nil when the sink is not configured.
type HitRepositoryFactory func(output entities.OutputSettings) domainRepos.HitRepository

// HitRepositoryRegistry manages all registered hit sinks.
type HitRepositoryRegistry struct {
	names     []string
	factories map[string]HitRepositoryFactory
}

// NewHitRepositoryRegistry creates an empty sink registry.
func NewHitRepositoryRegistry() *HitRepositoryRegistry {
	return &HitRepositoryRegistry{
		factories: make(map[string]HitRepositoryFactory),
	}
}

// Register adds a sink factory under the given name (e.g. "csv").
// Sinks are opened and written in registration order.
func (r *HitRepositoryRegistry) Register(name string, factory HitRepositoryFactory) {
	if _, exists := r.factories[name]; !exists {
		r.names = append(r.names, name)
	}
	r.factories[name] = factory
}

// Build returns one HitRepository fanning out to every configured sink.
func (r *HitRepositoryRegistry) Build(output entities.OutputSettings) (domainRepos.HitRepository, error) {
	sinks := make([]domainRepos.HitRepository, 0, len(r.names))
	for _, name := range r.names {
		if sink := r.factories[name](output); sink != nil {
			sinks = append(sinks, sink)
		}
	}
	if len(sinks) == 0 {
		return nil, errors.New("no output is configured")
	}
	return NewMultiHitRepository(sinks...), nil
}

// Names returns the registered sink names in registration order.
func (r *HitRepositoryRegistry) Names() []string {
	return append([]string(nil), r.names...)
}

// MultiHitRepository forwards every call to each of its sinks in order.
// Appends stop at the first failing sink; Close reaches every sink.
type MultiHitRepository struct {
	sinks []domainRepos.HitRepository
}

// NewMultiHitRepository combines the given sinks.
func NewMultiHitRepository(sinks ...domainRepos.HitRepository) *MultiHitRepository {
	return &MultiHitRepository{sinks: sinks}
}

func (m *MultiHitRepository) Open(ctx context.Context, run entities.Run) error {
	for i, sink := range m.sinks {
		if err := sink.Open(ctx, run); err != nil {
			for _, opened := range m.sinks[:i] {
				_ = opened.Close(ctx, entities.RunSummary{RunID: run.ID})
			}
			return err
		}
	}
	return nil
}

func (m *MultiHitRepository) AppendBinaryHits(ctx context.Context, hits []entities.BinaryHit) error {
	for _, sink := range m.sinks {
		if err := sink.AppendBinaryHits(ctx, hits); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiHitRepository) AppendSensitiveHits(ctx context.Context, hits []entities.SensitiveHit) error {
	for _, sink := range m.sinks {
		if err := sink.AppendSensitiveHits(ctx, hits); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiHitRepository) Close(ctx context.Context, summary entities.RunSummary) error {
	errs := make([]error, 0, len(m.sinks))
	for _, sink := range m.sinks {
		errs = append(errs, sink.Close(ctx, summary))
	}
	return errors.Join(errs...)
}
