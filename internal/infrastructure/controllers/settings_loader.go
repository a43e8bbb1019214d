package controllers

import (
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/repoaudit/internal/domain/entities"
)

// addOutputFlags adds the flags shared by every scanning subcommand.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("words", "", "Comma-separated sensitive terms (overrides SENSITIVE_WORDS)")
	cmd.Flags().String("binary-csv", "", "Path of the binary artifact CSV output")
	cmd.Flags().String("comment-csv", "", "Path of the sensitive comment CSV output")
	cmd.Flags().String("sqlite", "", "Also record the run in this SQLite database")
	cmd.Flags().String("report", "", "Also write a Markdown summary report to this path")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics in text format to this path")
}

// loadSettings finds and reads the configuration, then applies flag overrides.
// A missing configuration file is not an error; the environment may be enough.
func loadSettings(cmd *cobra.Command) (*entities.Settings, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		found, err := entities.FindConfigFile()
		if err != nil {
			logger.Debugf("No config file found, using environment and defaults: %v", err)
		} else {
			configPath = found
		}
	}
	if configPath != "" {
		logger.Infof("Using config file: %s", configPath)
	}

	settings, err := entities.NewSettings(configPath)
	if err != nil {
		return nil, err
	}

	if words, _ := cmd.Flags().GetString("words"); strings.TrimSpace(words) != "" {
		settings.Scan.SensitiveWords = entities.ParseTerms(words)
	}
	overrideString(cmd, "binary-csv", &settings.Output.BinaryCSV)
	overrideString(cmd, "comment-csv", &settings.Output.CommentCSV)
	overrideString(cmd, "sqlite", &settings.Output.SQLite)
	overrideString(cmd, "report", &settings.Output.Markdown)
	overrideString(cmd, "metrics-file", &settings.Output.MetricsFile)

	return settings, nil
}

func overrideString(cmd *cobra.Command, flag string, target *string) {
	if value, _ := cmd.Flags().GetString(flag); value != "" {
		*target = value
	}
}
