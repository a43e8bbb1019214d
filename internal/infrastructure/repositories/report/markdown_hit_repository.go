package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/rios0rios0/repoaudit/internal/domain/entities"
	"github.com/rios0rios0/repoaudit/internal/domain/repositories"
)

const timeLayout = "2006-01-02 15:04:05 MST"

type repositoryTally struct {
	name     string
	branch   string
	binary   int
	comments int
}

// MarkdownHitRepository aggregates hits in memory and renders a summary
// report when the run is closed. Individual hits stay in the CSV streams.
type MarkdownHitRepository struct {
	path   string
	create func(name string) (io.WriteCloser, error)
	run    entities.Run
	repos  map[string]*repositoryTally
	order  []string
	terms  map[string]int
}

// NewMarkdownHitRepository creates a report sink writing to path on Close.
func NewMarkdownHitRepository(path string) repositories.HitRepository {
	return &MarkdownHitRepository{path: path, create: createFile}
}

func createFile(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

func (r *MarkdownHitRepository) Open(_ context.Context, run entities.Run) error {
	r.run = run
	r.repos = make(map[string]*repositoryTally)
	r.order = nil
	r.terms = make(map[string]int)
	return nil
}

func (r *MarkdownHitRepository) AppendBinaryHits(_ context.Context, hits []entities.BinaryHit) error {
	for _, hit := range hits {
		r.tally(hit.RepositoryName, hit.Branch).binary++
	}
	return nil
}

func (r *MarkdownHitRepository) AppendSensitiveHits(_ context.Context, hits []entities.SensitiveHit) error {
	for _, hit := range hits {
		r.tally(hit.RepositoryName, hit.Branch).comments++
		r.terms[hit.Term]++
	}
	return nil
}

// Close renders the report.
func (r *MarkdownHitRepository) Close(_ context.Context, summary entities.RunSummary) (err error) {
	file, err := r.create(r.path)
	if err != nil {
		return fmt.Errorf("failed to create report %q: %w", r.path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close report %q: %w", r.path, closeErr))
		}
	}()

	md := markdown.NewMarkdown(file)
	r.writeHeader(md, summary)
	r.writeRepositories(md)
	r.writeTerms(md)
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by repoaudit at %s*", time.Now().UTC().Format(timeLayout))

	if buildErr := md.Build(); buildErr != nil {
		return fmt.Errorf("failed to write report %q: %w", r.path, buildErr)
	}
	return nil
}

func (r *MarkdownHitRepository) tally(name, branch string) *repositoryTally {
	entry, ok := r.repos[name]
	if !ok {
		entry = &repositoryTally{name: name, branch: branch}
		r.repos[name] = entry
		r.order = append(r.order, name)
	}
	return entry
}

func (r *MarkdownHitRepository) writeHeader(md *markdown.Markdown, summary entities.RunSummary) {
	md.H1("Repository Audit Report")
	md.PlainText("")

	finished := "-"
	if !summary.FinishedAt.IsZero() {
		finished = summary.FinishedAt.Format(timeLayout)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + r.run.ID + "`"},
			{"Started", r.run.StartedAt.Format(timeLayout)},
			{"Finished", finished},
			{"Repositories", strconv.Itoa(summary.RepositoriesTotal)},
			{"Scanned", strconv.Itoa(summary.RepositoriesScanned)},
			{"Abandoned", strconv.Itoa(summary.RepositoriesAbandoned)},
			{"Binary files", strconv.Itoa(summary.BinaryHits)},
			{"Sensitive comments", strconv.Itoa(summary.SensitiveHits)},
		},
	})
	md.PlainText("")

	switch {
	case summary.RepositoriesAbandoned > 0:
		md.Warningf("%d repositories could not be listed and were not scanned.", summary.RepositoriesAbandoned)
	case summary.BinaryHits == 0 && summary.SensitiveHits == 0:
		md.Tip("No committed binaries or sensitive comments were found.")
	default:
		md.Note("See the CSV outputs for every individual finding.")
	}
	md.PlainText("")
}

func (r *MarkdownHitRepository) writeRepositories(md *markdown.Markdown) {
	md.H2("Repositories With Findings")
	md.PlainText("")

	if len(r.order) == 0 {
		md.PlainText("None.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(r.order))
	for _, name := range r.order {
		entry := r.repos[name]
		rows = append(rows, []string{
			entry.name, entry.branch, strconv.Itoa(entry.binary), strconv.Itoa(entry.comments),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Repository", "Branch", "Binary files", "Sensitive comments"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (r *MarkdownHitRepository) writeTerms(md *markdown.Markdown) {
	md.H2("Matched Terms")
	md.PlainText("")

	if len(r.terms) == 0 {
		md.PlainText("None.")
		md.PlainText("")
		return
	}

	terms := make([]string, 0, len(r.terms))
	for term := range r.terms {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if r.terms[terms[i]] != r.terms[terms[j]] {
			return r.terms[terms[i]] > r.terms[terms[j]]
		}
		return terms[i] < terms[j]
	})

	rows := make([][]string, 0, len(terms))
	for _, term := range terms {
		rows = append(rows, []string{term, strconv.Itoa(r.terms[term])})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Term", "Comments"},
		Rows:   rows,
	})
	md.PlainText("")
}
