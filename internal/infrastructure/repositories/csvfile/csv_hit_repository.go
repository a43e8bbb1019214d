package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/repoaudit/internal/domain/entities"
	"github.com/rios0rios0/repoaudit/internal/domain/repositories"
)

//nolint:gochecknoglobals // fixed column order
var (
	BinaryHeader  = []string{"project_id", "project", "branch", "file_path"}
	CommentHeader = []string{"project_id", "project", "branch", "file_path", "line", "keyword", "comment_excerpt"}
)

var errNotOpen = errors.New("csv outputs are not open")

// CSVHitRepository writes the two hit streams as CSV files. Both files are
// truncated with a header on Open; every append is flushed before returning.
type CSVHitRepository struct {
	binaryPath  string
	commentPath string

	binaryFile    *os.File
	commentFile   *os.File
	binaryWriter  *csv.Writer
	commentWriter *csv.Writer
}

// NewCSVHitRepository creates a sink writing to the given paths.
func NewCSVHitRepository(binaryPath, commentPath string) repositories.HitRepository {
	return &CSVHitRepository{binaryPath: binaryPath, commentPath: commentPath}
}

func (r *CSVHitRepository) Open(_ context.Context, _ entities.Run) error {
	var err error
	r.binaryFile, r.binaryWriter, err = create(r.binaryPath, BinaryHeader)
	if err != nil {
		return err
	}
	r.commentFile, r.commentWriter, err = create(r.commentPath, CommentHeader)
	if err != nil {
		_ = r.binaryFile.Close()
		r.binaryFile, r.binaryWriter = nil, nil
		return err
	}
	logger.Debugf("Writing hits to %q and %q", r.binaryPath, r.commentPath)
	return nil
}

func (r *CSVHitRepository) AppendBinaryHits(_ context.Context, hits []entities.BinaryHit) error {
	if r.binaryWriter == nil {
		return errNotOpen
	}
	for _, hit := range hits {
		if err := r.binaryWriter.Write([]string{
			hit.RepositoryID, hit.RepositoryName, hit.Branch, hit.Path,
		}); err != nil {
			return fmt.Errorf("failed to write %q: %w", r.binaryPath, err)
		}
	}
	return flush(r.binaryWriter, r.binaryPath)
}

func (r *CSVHitRepository) AppendSensitiveHits(_ context.Context, hits []entities.SensitiveHit) error {
	if r.commentWriter == nil {
		return errNotOpen
	}
	for _, hit := range hits {
		if err := r.commentWriter.Write([]string{
			hit.RepositoryID, hit.RepositoryName, hit.Branch, hit.Path,
			strconv.Itoa(hit.Line), hit.Term, hit.Excerpt,
		}); err != nil {
			return fmt.Errorf("failed to write %q: %w", r.commentPath, err)
		}
	}
	return flush(r.commentWriter, r.commentPath)
}

func (r *CSVHitRepository) Close(_ context.Context, _ entities.RunSummary) error {
	var errs []error
	if r.binaryFile != nil {
		errs = append(errs, flush(r.binaryWriter, r.binaryPath), r.binaryFile.Close())
	}
	if r.commentFile != nil {
		errs = append(errs, flush(r.commentWriter, r.commentPath), r.commentFile.Close())
	}
	r.binaryFile, r.binaryWriter = nil, nil
	r.commentFile, r.commentWriter = nil, nil
	return errors.Join(errs...)
}

func create(path string, header []string) (*os.File, *csv.Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %q: %w", path, err)
	}
	writer := csv.NewWriter(file)
	if writeErr := writer.Write(header); writeErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("failed to write header of %q: %w", path, writeErr)
	}
	if flushErr := flush(writer, path); flushErr != nil {
		_ = file.Close()
		return nil, nil, flushErr
	}
	return file, writer, nil
}

func flush(writer *csv.Writer, path string) error {
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %q: %w", path, err)
	}
	return nil
}
