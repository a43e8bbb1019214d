//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/repoaudit/internal/domain/entities"
	"github.com/rios0rios0/repoaudit/internal/domain/repositories"
)

// SpyHitRepository records everything written to it.
type SpyHitRepository struct {
	OpenErr   error
	AppendErr error
	CloseErr  error

	OpenedRuns    []entities.Run
	BinaryHits    []entities.BinaryHit
	SensitiveHits []entities.SensitiveHit
	// BinaryBatches holds the size of every AppendBinaryHits call.
	BinaryBatches []int
	ClosedWith    []entities.RunSummary
	// OnAppendSensitive runs after every successful AppendSensitiveHits call.
	OnAppendSensitive func()
}

var _ repositories.HitRepository = (*SpyHitRepository)(nil)

func (s *SpyHitRepository) Open(_ context.Context, run entities.Run) error {
	s.OpenedRuns = append(s.OpenedRuns, run)
	return s.OpenErr
}

func (s *SpyHitRepository) AppendBinaryHits(_ context.Context, hits []entities.BinaryHit) error {
	if s.AppendErr != nil {
		return s.AppendErr
	}
	s.BinaryBatches = append(s.BinaryBatches, len(hits))
	s.BinaryHits = append(s.BinaryHits, hits...)
	return nil
}

func (s *SpyHitRepository) AppendSensitiveHits(_ context.Context, hits []entities.SensitiveHit) error {
	if s.AppendErr != nil {
		return s.AppendErr
	}
	s.SensitiveHits = append(s.SensitiveHits, hits...)
	if s.OnAppendSensitive != nil {
		s.OnAppendSensitive()
	}
	return nil
}

func (s *SpyHitRepository) Close(_ context.Context, summary entities.RunSummary) error {
	s.ClosedWith = append(s.ClosedWith, summary)
	return s.CloseErr
}
