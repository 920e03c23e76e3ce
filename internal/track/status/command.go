package status

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/portward/sourcetrack/internal/marker"
	"github.com/portward/sourcetrack/internal/track/shared"
	"github.com/portward/sourcetrack/internal/utils"
	"github.com/portward/sourcetrack/internal/utils/flags"
)

const (
	commandUseConstant               = "status [path]"
	commandShortDescriptionConstant  = "Report the tracking state of every validation file"
	commandLongDescriptionConstant   = "status walks the validation tree and classifies each trackable file as up to date, stale, untracked, notrack, or failed. With a path argument only that file is classified."
	staleOnlyFlagNameConstant        = "stale-only"
	staleOnlyFlagDescriptionConstant = "Only list files with unreviewed upstream commits"

	currentLineTemplateConstant   = "OK      %s\n"
	staleLineTemplateConstant     = "OLD     %s (%d upstream commits since %s)\n"
	untrackedLineTemplateConstant = "--      %s\n"
	noTrackLineTemplateConstant   = "NOTRACK %s\n"
	errorLineTemplateConstant     = "ERR     %s (%s)\n"
	summaryTemplateConstant       = "%d files: %d ok, %d stale, %d untracked, %d notrack, %d errors\n"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the status command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	WorkspaceLoader              WorkspaceLoader
	MarkerReader                 MarkerReader
	HumanReadableLoggingProvider func() bool

	staleOnlyFlagValue bool
}

// Build constructs the status command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	flags.AddToggleFlag(command.Flags(), &builder.staleOnlyFlagValue, staleOnlyFlagNameConstant, "", false, staleOnlyFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
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

	markerReader := builder.MarkerReader
	if markerReader == nil {
		markerReader = marker.NewStore(marker.DefaultConvention())
	}

	service, serviceError := NewService(Dependencies{
		GitHistorian:    gitClient,
		WorkspaceLoader: workspaceLoader,
		MarkerReader:    markerReader,
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

	targetFilePath := ""
	if len(arguments) > 0 {
		targetFilePath = arguments[0]
	}

	statusResult, statusError := service.Status(command.Context(), Options{
		WorkingDirectory: workingDirectory,
		ConfigPath:       configPath,
		FilePath:         targetFilePath,
	})
	if statusError != nil {
		return statusError
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	for _, fileReport := range statusResult.Reports {
		if builder.staleOnlyFlagValue && fileReport.State != FileStateStale {
			continue
		}
		switch fileReport.State {
		case FileStateCurrent:
			_, _ = fmt.Fprintf(outputWriter, currentLineTemplateConstant, fileReport.RelativePath)
		case FileStateStale:
			_, _ = fmt.Fprintf(outputWriter, staleLineTemplateConstant, fileReport.RelativePath, fileReport.StaleCommitCount, fileReport.CommitHash)
		case FileStateUntracked:
			_, _ = fmt.Fprintf(outputWriter, untrackedLineTemplateConstant, fileReport.RelativePath)
		case FileStateNoTrack:
			_, _ = fmt.Fprintf(outputWriter, noTrackLineTemplateConstant, fileReport.RelativePath)
		case FileStateError:
			_, _ = fmt.Fprintf(outputWriter, errorLineTemplateConstant, fileReport.RelativePath, fileReport.FailureReason)
		}
	}
	_, _ = fmt.Fprintf(outputWriter, summaryTemplateConstant,
		statusResult.Summary.TotalCount,
		statusResult.Summary.CurrentCount,
		statusResult.Summary.StaleCount,
		statusResult.Summary.UntrackedCount,
		statusResult.Summary.NoTrackCount,
		statusResult.Summary.ErrorCount,
	)
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
