package repositories

import (
	"context"

	"github.com/rios0rios0/repoaudit/internal/domain/entities"
)

// HitRepository is an append-only destination for scan findings.
// Open is called once before the first append, Close once after the last.
type HitRepository interface {
	Open(ctx context.Context, run entities.Run) error
	AppendBinaryHits(ctx context.Context, hits []entities.BinaryHit) error
	AppendSensitiveHits(ctx context.Context, hits []entities.SensitiveHit) error
	Close(ctx context.Context, summary entities.RunSummary) error
}
