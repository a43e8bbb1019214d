//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/repoaudit/internal/domain/entities"
)

// FileBuilder helps create tree entries with a fluent interface.
type FileBuilder struct {
	*testkit.BaseBuilder
	path  string
	isDir bool
}

// NewFileBuilder creates a new tree entry builder for a plain blob.
func NewFileBuilder() *FileBuilder {
	return &FileBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		path:        "main.go",
	}
}

// WithPath sets the repository-relative path.
func (b *FileBuilder) WithPath(path string) *FileBuilder {
	b.path = path
	return b
}

// AsDirectory marks the entry as a directory-like node.
func (b *FileBuilder) AsDirectory() *FileBuilder {
	b.isDir = true
	return b
}

// Build creates the entry (satisfies testkit.Builder interface).
func (b *FileBuilder) Build() interface{} {
	return b.BuildFile()
}

// BuildFile creates the entry with a concrete return type.
func (b *FileBuilder) BuildFile() entities.File {
	return entities.File{Path: b.path, IsDir: b.isDir}
}

// BuildFiles creates one blob per path.
func (b *FileBuilder) BuildFiles(paths ...string) []entities.File {
	files := make([]entities.File, 0, len(paths))
	for _, p := range paths {
		files = append(files, b.WithPath(p).BuildFile())
	}
	return files
}

// Reset clears the builder state, allowing it to be reused.
func (b *FileBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.path = "main.go"
	b.isDir = false
	return b
}

// Clone creates a deep copy of the FileBuilder.
func (b *FileBuilder) Clone() testkit.Builder {
	return &FileBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		path:        b.path,
		isDir:       b.isDir,
	}
}
