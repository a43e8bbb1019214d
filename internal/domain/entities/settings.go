package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Provider types understood by the provider registry.
const (
	ProviderGitLab = "gitlab"
	ProviderLocal  = "local"
)

// Authentication styles for the GitLab provider.
const (
	AuthModePrivateToken = "private-token"
	AuthModeBearer       = "bearer"
)

// Environment variables read on top of the configuration file.
const (
	EnvGitLabURL      = "GITLAB_URL"
	EnvGitLabToken    = "GITLAB_TOKEN"
	EnvSensitiveWords = "SENSITIVE_WORDS"
)

const (
	appName = "repoaudit"

	defaultMaxBytes       int64 = 1_000_000
	defaultFallbackBranch       = "master"
	defaultPause                = 100 * time.Millisecond
	defaultPerPage              = 100
	defaultRetryAttempts        = 3
	defaultRetryDelay           = 2 * time.Second
	defaultBinaryCSV            = "binary_hits.csv"
	defaultCommentCSV           = "comment_hits.csv"
)

var (
	ErrMissingEndpoint = errors.New("gitlab endpoint is not configured (set GITLAB_URL or provider.url)")
	ErrMissingToken    = errors.New("gitlab token is not configured (set GITLAB_TOKEN or provider.token)")
	ErrMissingPath     = errors.New("local provider requires provider.path")
)

// Settings is the top-level configuration for repoaudit.
type Settings struct {
	Provider ProviderSettings `yaml:"provider"`
	Scan     ScanSettings     `yaml:"scan"`
	Retry    RetrySettings    `yaml:"retry"`
	Output   OutputSettings   `yaml:"output"`
}

// ProviderSettings describes where repositories come from.
type ProviderSettings struct {
	Type     string `yaml:"type"`      // "gitlab", "local"
	URL      string `yaml:"url"`       // GitLab base URL
	Token    string `yaml:"token"`     // Inline, ${ENV_VAR}, or file path
	AuthMode string `yaml:"auth_mode"` // "private-token", "bearer"
	Path     string `yaml:"path"`      // Local checkout
	Branch   string `yaml:"branch"`    // Local checkout branch override
}

// ScanSettings tunes the repository traversal.
type ScanSettings struct {
	MaxBytes       int64         `yaml:"max_bytes"`
	FallbackBranch string        `yaml:"fallback_branch"`
	Pause          time.Duration `yaml:"pause"`
	PerPage        int           `yaml:"per_page"`
	SensitiveWords []string      `yaml:"sensitive_words"`
}

// RetrySettings bounds retries of transient HTTP failures.
type RetrySettings struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Delay       time.Duration `yaml:"delay"`
}

// OutputSettings lists the sinks a run writes to. Empty optional paths disable that sink.
type OutputSettings struct {
	BinaryCSV   string `yaml:"binary_csv"`
	CommentCSV  string `yaml:"comment_csv"`
	SQLite      string `yaml:"sqlite"`
	Markdown    string `yaml:"markdown"`
	MetricsFile string `yaml:"metrics_file"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() *Settings {
	return &Settings{
		Provider: ProviderSettings{
			Type:     ProviderGitLab,
			AuthMode: AuthModePrivateToken,
		},
		Scan: ScanSettings{
			MaxBytes:       defaultMaxBytes,
			FallbackBranch: defaultFallbackBranch,
			Pause:          defaultPause,
			PerPage:        defaultPerPage,
		},
		Retry: RetrySettings{
			MaxAttempts: defaultRetryAttempts,
			Delay:       defaultRetryDelay,
		},
		Output: OutputSettings{
			BinaryCSV:  defaultBinaryCSV,
			CommentCSV: defaultCommentCSV,
		},
	}
}

// NewSettings loads .env files, then the configuration file at path (if any),
// then applies environment overrides and defaults. It does not validate.
func NewSettings(path string) (*Settings, error) {
	loadEnvFiles()

	settings := DefaultSettings()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		if unmarshalErr := yaml.Unmarshal(data, settings); unmarshalErr != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
		}
	}

	settings.applyEnvironment()
	settings.Provider.URL = expandEnv(settings.Provider.URL)
	settings.Provider.Token = resolveToken(settings.Provider.Token)
	settings.applyDefaults()

	return settings, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
		filepath.Join(xdg.ConfigHome, appName),
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".repoaudit.yaml",
		".repoaudit.yml",
		"repoaudit.yaml",
		"repoaudit.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// Validate checks for required configuration values.
func (s *Settings) Validate() error {
	switch s.Provider.Type {
	case ProviderGitLab:
		if s.Provider.URL == "" {
			return ErrMissingEndpoint
		}
		if s.Provider.Token == "" {
			return ErrMissingToken
		}
		if s.Provider.AuthMode != AuthModePrivateToken && s.Provider.AuthMode != AuthModeBearer {
			return fmt.Errorf("provider.auth_mode %q is not one of %q, %q",
				s.Provider.AuthMode, AuthModePrivateToken, AuthModeBearer)
		}
	case ProviderLocal:
		if s.Provider.Path == "" {
			return ErrMissingPath
		}
	default:
		return fmt.Errorf("provider.type %q is not supported", s.Provider.Type)
	}

	if s.Output.BinaryCSV == "" || s.Output.CommentCSV == "" {
		return errors.New("output.binary_csv and output.comment_csv are required")
	}
	return nil
}

func (s *Settings) applyEnvironment() {
	if v := os.Getenv(EnvGitLabURL); v != "" {
		s.Provider.URL = v
	}
	if v := os.Getenv(EnvGitLabToken); v != "" {
		s.Provider.Token = v
	}
	if v := os.Getenv(EnvSensitiveWords); strings.TrimSpace(v) != "" {
		s.Scan.SensitiveWords = ParseTerms(v)
	}
}

func (s *Settings) applyDefaults() {
	defaults := DefaultSettings()
	if s.Provider.Type == "" {
		s.Provider.Type = defaults.Provider.Type
	}
	if s.Provider.AuthMode == "" {
		s.Provider.AuthMode = defaults.Provider.AuthMode
	}
	if s.Scan.MaxBytes <= 0 {
		s.Scan.MaxBytes = defaults.Scan.MaxBytes
	}
	if s.Scan.FallbackBranch == "" {
		s.Scan.FallbackBranch = defaults.Scan.FallbackBranch
	}
	if s.Scan.Pause < 0 {
		s.Scan.Pause = 0
	}
	if s.Scan.PerPage <= 0 {
		s.Scan.PerPage = defaults.Scan.PerPage
	}
	if s.Retry.MaxAttempts <= 0 {
		s.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if s.Retry.Delay < 0 {
		s.Retry.Delay = 0
	}
	if s.Output.BinaryCSV == "" {
		s.Output.BinaryCSV = defaults.Output.BinaryCSV
	}
	if s.Output.CommentCSV == "" {
		s.Output.CommentCSV = defaults.Output.CommentCSV
	}
}

// loadEnvFiles reads .env and .env.local without overriding the process environment.
func loadEnvFiles() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			logger.Warnf("Failed to load %s: %v", name, err)
			continue
		}
		logger.Debugf("Loaded environment variables from %s", name)
	}
}

func expandEnv(raw string) string {
	return envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := expandEnv(raw)

	if info, statErr := os.Stat(resolved); statErr == nil && !info.IsDir() {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}
