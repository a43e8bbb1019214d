package repositories

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rios0rios0/repoaudit/internal/domain/entities"
	domainRepos "github.com/rios0rios0/repoaudit/internal/domain/repositories"
)

// ErrUnknownProvider is returned for a provider type nobody registered.
var ErrUnknownProvider = errors.New("unknown provider type")

// ProviderFactory is a constructor function that creates a ProviderRepository from the run settings.
type ProviderFactory func(settings *entities.Settings) (domainRepos.ProviderRepository, error)

// ProviderRegistry manages all registered repository provider implementations.
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates an empty provider registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register adds a provider factory under the given name (e.g. "gitlab").
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// Get returns a configured provider instance for settings.Provider.Type.
func (r *ProviderRegistry) Get(settings *entities.Settings) (domainRepos.ProviderRepository, error) {
	factory, ok := r.providers[settings.Provider.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, settings.Provider.Type)
	}
	return factory(settings)
}

// Names returns the sorted list of registered provider names.
func (r *ProviderRegistry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
