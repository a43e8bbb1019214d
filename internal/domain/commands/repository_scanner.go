package commands

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/repoaudit/internal/domain/entities"
	"github.com/rios0rios0/repoaudit/internal/domain/repositories"
)

// RepositoryScanner walks one repository tree and turns it into hits.
type RepositoryScanner struct {
	provider repositories.ProviderRepository
	matcher  *entities.SensitiveMatcher
	metrics  repositories.MetricsRepository
	maxBytes int64
}

// NewRepositoryScanner creates a scanner reading through provider.
func NewRepositoryScanner(
	provider repositories.ProviderRepository,
	matcher *entities.SensitiveMatcher,
	metrics repositories.MetricsRepository,
	maxBytes int64,
) *RepositoryScanner {
	return &RepositoryScanner{
		provider: provider,
		matcher:  matcher,
		metrics:  metrics,
		maxBytes: maxBytes,
	}
}

// ScanWithFallback scans the repository's default branch and, if its tree
// cannot be listed, tries fallbackBranch once. An error means neither branch
// could be listed, or ctx ended mid-scan; the result is empty in both cases.
func (it *RepositoryScanner) ScanWithFallback(
	ctx context.Context,
	repo entities.Repository,
	fallbackBranch string,
) (entities.ScanResult, error) {
	branch := entities.RepositoryBranch(repo)
	files, err := it.provider.ListFiles(ctx, repo, branch)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return entities.ScanResult{}, ctxErr
		}
		if fallbackBranch == "" || fallbackBranch == branch {
			return entities.ScanResult{}, fmt.Errorf("failed to list tree at %q: %w", branch, err)
		}
		logger.Debugf("Cannot list %s at %q (%v), trying %q",
			entities.RepositoryFullName(repo), branch, err, fallbackBranch)

		branch = fallbackBranch
		files, err = it.provider.ListFiles(ctx, repo, branch)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return entities.ScanResult{}, ctxErr
			}
			return entities.ScanResult{}, fmt.Errorf("failed to list tree at %q: %w", branch, err)
		}
	}

	return it.scanFiles(ctx, repo, branch, files)
}

func (it *RepositoryScanner) scanFiles(
	ctx context.Context,
	repo entities.Repository,
	branch string,
	files []entities.File,
) (entities.ScanResult, error) {
	result := entities.ScanResult{
		Repository:   repo,
		Branch:       branch,
		FileOutcomes: make(map[string]int),
	}
	repoName := entities.RepositoryFullName(repo)

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return entities.ScanResult{}, err
		}
		if file.IsDir {
			continue
		}

		var outcome string
		class, family := entities.Classify(file.Path)
		switch class {
		case entities.ClassSkippedDirectory:
			outcome = entities.FileOutcomeSkippedDirectory
		case entities.ClassBinaryArtifact:
			outcome = entities.FileOutcomeBinaryArtifact
			result.BinaryHits = append(result.BinaryHits, entities.BinaryHit{
				RepositoryID:   repo.ID,
				RepositoryName: repoName,
				Branch:         branch,
				Path:           file.Path,
			})
		case entities.ClassUnrecognized:
			outcome = entities.FileOutcomeUnrecognized
		case entities.ClassCommentCandidate:
			var hits []entities.SensitiveHit
			hits, outcome = it.scanFile(ctx, repo, branch, file.Path, family)
			if err := ctx.Err(); err != nil {
				return entities.ScanResult{}, err
			}
			result.SensitiveHits = append(result.SensitiveHits, hits...)
		}

		result.FileOutcomes[outcome]++
		it.metrics.ObserveFile(outcome)
	}

	return result, nil
}

// scanFile fetches one text candidate and matches its comments. Every failure
// is absorbed and reported only through the returned outcome.
func (it *RepositoryScanner) scanFile(
	ctx context.Context,
	repo entities.Repository,
	branch, path string,
	family entities.SyntaxFamily,
) ([]entities.SensitiveHit, string) {
	fields := logger.Fields{"repository": entities.RepositoryFullName(repo), "path": path}

	raw, err := it.provider.GetFileContent(ctx, repo, path, branch, it.maxBytes)
	if err != nil {
		logger.WithFields(fields).Debugf("Skipping file: %v", err)
		return nil, entities.FileOutcomeFetchFailed
	}
	if len(raw) == 0 {
		return nil, entities.FileOutcomeEmpty
	}
	if entities.LooksBinary(raw) {
		logger.WithFields(fields).Debug("Skipping file with binary content")
		return nil, entities.FileOutcomeBinaryContent
	}

	text, err := entities.DecodeText(raw)
	if err != nil {
		logger.WithFields(fields).Debugf("Skipping file: %v", err)
		return nil, entities.FileOutcomeDecodeFailed
	}

	var hits []entities.SensitiveHit
	for _, segment := range entities.ExtractComments(family, text) {
		match, ok := it.matcher.Match(segment.Text)
		if !ok {
			continue
		}
		hits = append(hits, entities.SensitiveHit{
			RepositoryID:   repo.ID,
			RepositoryName: entities.RepositoryFullName(repo),
			Branch:         branch,
			Path:           path,
			Line:           segment.Line,
			Term:           match.Term,
			Excerpt:        match.Excerpt,
		})
	}
	return hits, entities.FileOutcomeScanned
}
