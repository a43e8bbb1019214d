package controllers

import (
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/repoaudit/internal/domain/commands"
	"github.com/rios0rios0/repoaudit/internal/domain/entities"
)

// RunController handles the "run" subcommand (full sweep of a GitLab instance).
type RunController struct {
	command commands.Run
}

// NewRunController creates a new RunController.
func NewRunController(command commands.Run) *RunController {
	return &RunController{command: command}
}

// GetBind returns the Cobra command metadata for the run controller.
func (it *RunController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "run",
		Short: "Audit every repository the token can see",
		Long: `Discover every repository on the configured GitLab instance,
record committed archives and office documents, and find source
comments containing sensitive terms.

GITLAB_URL and GITLAB_TOKEN (or provider.url and provider.token in
the config file) are required. Results are appended to the CSV
outputs after each repository.`,
		Args: cobra.NoArgs,
	}
}

// Execute runs the full sweep.
func (it *RunController) Execute(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")

	settings, err := loadSettings(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if validateErr := settings.Validate(); validateErr != nil {
		return validateErr
	}

	logger.Info("Starting repoaudit run...")

	if _, runErr := it.command.Execute(cmd.Context(), settings, commands.RunOptions{
		Verbose: verbose,
	}); runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}
	return nil
}

// AddFlags adds the run-specific flags to the given Cobra command.
func (it *RunController) AddFlags(cmd *cobra.Command) {
	addOutputFlags(cmd)
}
