package controllers

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/repoaudit/internal/domain/commands"
	"github.com/rios0rios0/repoaudit/internal/domain/entities"
)

// LocalController handles the "local" subcommand (audit one on-disk repository).
type LocalController struct {
	command commands.Run
}

// NewLocalController creates a new LocalController.
func NewLocalController(command commands.Run) *LocalController {
	return &LocalController{command: command}
}

// GetBind returns the Cobra command metadata for the local controller.
func (it *LocalController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "local [path]",
		Short: "Audit a local git repository",
		Long: `Audit the committed tree of a local git repository with the same
rules as "run". Files are read from the branch's last commit, not
from the working tree. The path defaults to the current directory.`,
		Args: cobra.MaximumNArgs(1),
	}
}

// Execute runs the sweep against the local provider.
func (it *LocalController) Execute(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	branch, _ := cmd.Flags().GetString("branch")

	settings, err := loadSettings(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	settings.Provider.Type = entities.ProviderLocal
	settings.Provider.Path = "."
	if len(args) > 0 {
		settings.Provider.Path = args[0]
	}
	if branch != "" {
		settings.Provider.Branch = branch
	}
	if validateErr := settings.Validate(); validateErr != nil {
		return validateErr
	}

	if _, runErr := it.command.Execute(cmd.Context(), settings, commands.RunOptions{
		Verbose: verbose,
	}); runErr != nil {
		return fmt.Errorf("local audit failed: %w", runErr)
	}
	return nil
}

// AddFlags adds the local-specific flags to the given Cobra command.
func (it *LocalController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("branch", "", "Branch to audit (defaults to the checked-out branch)")
	addOutputFlags(cmd)
}
