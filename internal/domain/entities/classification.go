package entities

import (
	"path"
	"strings"
)

// SyntaxFamily groups file types that share comment delimiters.
type SyntaxFamily int

const (
	SyntaxUnrecognized SyntaxFamily = iota
	SyntaxHash
	SyntaxCLike
	SyntaxSQL
	SyntaxPlainText
)

func (f SyntaxFamily) String() string {
	switch f {
	case SyntaxHash:
		return "hash"
	case SyntaxCLike:
		return "c-like"
	case SyntaxSQL:
		return "sql"
	case SyntaxPlainText:
		return "plain-text"
	default:
		return "unrecognized"
	}
}

// Classification is the single outcome a tree entry can have. Both
// ClassSkippedDirectory and ClassUnrecognized mean the entry is ignored.
type Classification int

const (
	ClassSkippedDirectory Classification = iota
	ClassBinaryArtifact
	ClassUnrecognized
	ClassCommentCandidate
)

// dockerfileName has no conventional extension, so it stands in as its own.
const dockerfileName = "dockerfile"

//nolint:gochecknoglobals // fixed reference sets
var (
	cLikeExtensions = newSet(
		"c", "h", "hpp", "hh", "cpp", "cc", "cxx", "java", "js", "jsx", "ts", "tsx",
		"go", "php", "kt", "kts", "scala", "rs", "swift", "css", "scss",
	)
	hashExtensions = newSet(
		"py", "rb", "sh", "bash", "zsh", "pl", "pm", "ps1", "psm1", "yml", "yaml",
		"toml", "ini", "properties", "tf", dockerfileName, "makefile",
	)
	sqlExtensions       = newSet("sql")
	plainTextExtensions = newSet("md", "txt", "rst")

	binaryArtifactSuffixes = []string{
		".zip", ".doc", ".docx", ".gz", ".tar", ".rar", ".7z",
		".pdf", ".xls", ".xlsx", ".ppt", ".pptx", ".txt",
	}

	skippedDirectories = newSet(
		".git", "node_modules", "vendor", "dist", "build", ".next",
		".venv", "venv", "target", "out", "bin", "obj",
	)
)

func newSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// ExtensionOf returns the lowercased pseudo-extension used for syntax lookup.
func ExtensionOf(filePath string) string {
	lower := strings.ToLower(filePath)
	if strings.HasSuffix(lower, dockerfileName) {
		return dockerfileName
	}
	base := path.Base(lower)
	idx := strings.LastIndex(base, ".")
	if idx < 0 {
		return ""
	}
	return base[idx+1:]
}

// ClassifySyntax maps a path to its comment syntax family. It never fails;
// anything outside the reference sets is SyntaxUnrecognized.
func ClassifySyntax(filePath string) SyntaxFamily {
	ext := ExtensionOf(filePath)
	if ext == "" {
		return SyntaxUnrecognized
	}
	if _, ok := cLikeExtensions[ext]; ok {
		return SyntaxCLike
	}
	if _, ok := hashExtensions[ext]; ok {
		return SyntaxHash
	}
	if _, ok := sqlExtensions[ext]; ok {
		return SyntaxSQL
	}
	if _, ok := plainTextExtensions[ext]; ok {
		return SyntaxPlainText
	}
	return SyntaxUnrecognized
}

// IsBinaryArtifact reports whether the path carries a suffix recorded as a committed artifact.
// It is checked before ClassifySyntax, so ".txt" files never reach the comment scan.
func IsBinaryArtifact(filePath string) bool {
	lower := strings.ToLower(filePath)
	for _, suffix := range binaryArtifactSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// InSkippedDirectory reports whether any directory component of the path is excluded.
// The final component is the file name and is never checked.
func InSkippedDirectory(filePath string) bool {
	parts := strings.Split(filePath, "/")
	for _, part := range parts[:len(parts)-1] {
		if _, ok := skippedDirectories[strings.ToLower(part)]; ok {
			return true
		}
	}
	return false
}

// Classify applies the skip filter, then the binary suffix check, then the
// syntax lookup. The family is only meaningful for ClassCommentCandidate.
func Classify(filePath string) (Classification, SyntaxFamily) {
	if InSkippedDirectory(filePath) {
		return ClassSkippedDirectory, SyntaxUnrecognized
	}
	if IsBinaryArtifact(filePath) {
		return ClassBinaryArtifact, SyntaxUnrecognized
	}
	family := ClassifySyntax(filePath)
	if family == SyntaxUnrecognized {
		return ClassUnrecognized, family
	}
	return ClassCommentCandidate, family
}
