package initialize

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/portward/sourcetrack/internal/marker"
	"github.com/portward/sourcetrack/internal/track/shared"
	"github.com/portward/sourcetrack/internal/utils"
)

const (
	commandUseConstant                 = "init <file>"
	commandShortDescriptionConstant    = "Start tracking a validation file"
	commandLongDescriptionConstant     = "init stamps an untracked validation file with a review marker recording the baseline upstream commit, review date, and reviewer initials."
	initialsFlagNameConstant           = "initials"
	initialsFlagDescriptionConstant    = "Reviewer initials recorded in the marker (defaults to git user.name initials)"
	initializedMessageTemplateConstant = "TRACKED: %s at %s\n"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the init command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	WorkspaceLoader              WorkspaceLoader
	MarkerStore                  MarkerStore
	HumanReadableLoggingProvider func() bool
	Clock                        shared.Clock
}

// Build constructs the init command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}

	command.Flags().String(initialsFlagNameConstant, "", initialsFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	reviewerInitials, initialsFlagError := command.Flags().GetString(initialsFlagNameConstant)
	if initialsFlagError != nil {
		return initialsFlagError
	}

	logger := builder.resolveLogger()
	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}

	gitExecutor, executorError := shared.ResolveGitExecutor(builder.GitExecutor, logger, humanReadableLogging)
	if executorError != nil {
		return executorError
	}
	gitClient, clientError := shared.ResolveGitClient(gitExecutor)
	if clientError != nil {
		return clientError
	}

	workspaceLoader := builder.WorkspaceLoader
	if workspaceLoader == nil {
		resolvedLoader, loaderError := shared.ResolveWorkspaceLoader(gitClient)
		if loaderError != nil {
			return loaderError
		}
		workspaceLoader = resolvedLoader
	}

	markerStore := builder.MarkerStore
	if markerStore == nil {
		markerStore = marker.NewStore(marker.DefaultConvention())
	}

	service, serviceError := NewService(Dependencies{
		GitInspector:    gitClient,
		WorkspaceLoader: workspaceLoader,
		MarkerStore:     markerStore,
		Clock:           builder.Clock,
	})
	if serviceError != nil {
		return serviceError
	}

	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return workingDirectoryError
	}

	configPath := ""
	contextAccessor := utils.NewCommandContextAccessor()
	if contextConfigPath, exists := contextAccessor.TrackingConfigPath(command.Context()); exists {
		configPath = contextConfigPath
	}

	initializationResult, initializationError := service.Initialize(command.Context(), Options{
		WorkingDirectory: workingDirectory,
		ConfigPath:       configPath,
		FilePath:         strings.TrimSpace(arguments[0]),
		ReviewerInitials: reviewerInitials,
	})
	if initializationError != nil {
		return initializationError
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	_, _ = fmt.Fprintf(outputWriter, initializedMessageTemplateConstant, initializationResult.RelativePath, initializationResult.CommitHash)
	return nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider != nil {
		if providedLogger := builder.LoggerProvider(); providedLogger != nil {
			return providedLogger
		}
	}
	return zap.NewNop()
}
