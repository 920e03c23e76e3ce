package review

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
	updateCommandUseConstant              = "update <file> [commit]"
	updateCommandShortDescriptionConstant = "Advance a file's review marker to a newer upstream commit"
	updateCommandLongDescriptionConstant  = "update rewrites the review marker of a tracked file to the given upstream commit, defaulting to the upstream head, after verifying the commit touches the file's upstream paths."
	initialsFlagNameConstant              = "initials"
	initialsFlagDescriptionConstant       = "Reviewer initials recorded in the marker (defaults to the existing marker's initials)"
	updatedMessageTemplateConstant        = "UPDATED: %s at %s (was %s)\n"

	noTrackCommandUseConstant              = "set-notrack <file>"
	noTrackCommandShortDescriptionConstant = "Exclude a file from upstream tracking"
	noTrackCommandLongDescriptionConstant  = "set-notrack stamps a validation file with a notrack marker so status and log skip it."
	noTrackOutputTemplateConstant          = "NOTRACK: %s\n"

	sourceCommandUseConstant              = "update-src <file> [upstream-path]"
	sourceCommandShortDescriptionConstant = "Re-point a marker whose upstream file moved"
	sourceCommandLongDescriptionConstant  = "update-src replaces the vanished upstream paths recorded in a file's review marker, either with the given upstream path or with the sole matching candidate found in the upstream tree."
	sourceMessageTemplateConstant         = "SOURCE: %s now tracks %s\n"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the update command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	WorkspaceLoader              WorkspaceLoader
	MarkerStore                  MarkerStore
	HumanReadableLoggingProvider func() bool
	Clock                        shared.Clock
}

// Build constructs the update command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   updateCommandUseConstant,
		Short: updateCommandShortDescriptionConstant,
		Long:  updateCommandLongDescriptionConstant,
		Args:  cobra.RangeArgs(1, 2),
		RunE:  builder.runUpdate,
	}

	command.Flags().String(initialsFlagNameConstant, "", initialsFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) runUpdate(command *cobra.Command, arguments []string) error {
	reviewerInitials, initialsFlagError := command.Flags().GetString(initialsFlagNameConstant)
	if initialsFlagError != nil {
		return initialsFlagError
	}

	service, serviceOptions, resolveError := builder.resolveService(command, arguments)
	if resolveError != nil {
		return resolveError
	}
	serviceOptions.ReviewerInitials = reviewerInitials
	if len(arguments) > 1 {
		serviceOptions.TargetReference = strings.TrimSpace(arguments[1])
	}

	updateResult, updateError := service.Update(command.Context(), serviceOptions)
	if updateError != nil {
		return updateError
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	_, _ = fmt.Fprintf(outputWriter, updatedMessageTemplateConstant, updateResult.RelativePath, updateResult.CommitHash, updateResult.PreviousCommit)
	return nil
}

// NoTrackCommandBuilder assembles the set-notrack command.
type NoTrackCommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	WorkspaceLoader              WorkspaceLoader
	MarkerStore                  MarkerStore
	HumanReadableLoggingProvider func() bool
}

// Build constructs the set-notrack command.
func (builder *NoTrackCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   noTrackCommandUseConstant,
		Short: noTrackCommandShortDescriptionConstant,
		Long:  noTrackCommandLongDescriptionConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.runSetNoTrack,
	}
	return command, nil
}

func (builder *NoTrackCommandBuilder) runSetNoTrack(command *cobra.Command, arguments []string) error {
	serviceBuilder := CommandBuilder{
		LoggerProvider:               builder.LoggerProvider,
		GitExecutor:                  builder.GitExecutor,
		WorkspaceLoader:              builder.WorkspaceLoader,
		MarkerStore:                  builder.MarkerStore,
		HumanReadableLoggingProvider: builder.HumanReadableLoggingProvider,
	}
	service, serviceOptions, resolveError := serviceBuilder.resolveService(command, arguments)
	if resolveError != nil {
		return resolveError
	}

	noTrackResult, noTrackError := service.SetNoTrack(command.Context(), serviceOptions)
	if noTrackError != nil {
		return noTrackError
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	_, _ = fmt.Fprintf(outputWriter, noTrackOutputTemplateConstant, noTrackResult.RelativePath)
	return nil
}

// SourceCommandBuilder assembles the update-src command.
type SourceCommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	WorkspaceLoader              WorkspaceLoader
	MarkerStore                  MarkerStore
	HumanReadableLoggingProvider func() bool
}

// Build constructs the update-src command.
func (builder *SourceCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   sourceCommandUseConstant,
		Short: sourceCommandShortDescriptionConstant,
		Long:  sourceCommandLongDescriptionConstant,
		Args:  cobra.RangeArgs(1, 2),
		RunE:  builder.runUpdateSource,
	}
	return command, nil
}

func (builder *SourceCommandBuilder) runUpdateSource(command *cobra.Command, arguments []string) error {
	serviceBuilder := CommandBuilder{
		LoggerProvider:               builder.LoggerProvider,
		GitExecutor:                  builder.GitExecutor,
		WorkspaceLoader:              builder.WorkspaceLoader,
		MarkerStore:                  builder.MarkerStore,
		HumanReadableLoggingProvider: builder.HumanReadableLoggingProvider,
	}
	service, serviceOptions, resolveError := serviceBuilder.resolveService(command, arguments)
	if resolveError != nil {
		return resolveError
	}
	if len(arguments) > 1 {
		serviceOptions.ReplacementPath = strings.TrimSpace(arguments[1])
	}

	sourceResult, sourceError := service.UpdateSource(command.Context(), serviceOptions)
	if sourceError != nil {
		return sourceError
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	_, _ = fmt.Fprintf(outputWriter, sourceMessageTemplateConstant, sourceResult.RelativePath, strings.Join(sourceResult.UpstreamPaths, " "))
	return nil
}

func (builder *CommandBuilder) resolveService(command *cobra.Command, arguments []string) (*Service, Options, error) {
	logger := builder.resolveLogger()
	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}

	gitExecutor, executorError := shared.ResolveGitExecutor(builder.GitExecutor, logger, humanReadableLogging)
	if executorError != nil {
		return nil, Options{}, executorError
	}
	gitClient, clientError := shared.ResolveGitClient(gitExecutor)
	if clientError != nil {
		return nil, Options{}, clientError
	}

	workspaceLoader := builder.WorkspaceLoader
	if workspaceLoader == nil {
		resolvedLoader, loaderError := shared.ResolveWorkspaceLoader(gitClient)
		if loaderError != nil {
			return nil, Options{}, loaderError
		}
		workspaceLoader = resolvedLoader
	}

	markerStore := builder.MarkerStore
	if markerStore == nil {
		markerStore = marker.NewStore(marker.DefaultConvention())
	}

	service, serviceError := NewService(Dependencies{
		GitResolver:     gitClient,
		WorkspaceLoader: workspaceLoader,
		MarkerStore:     markerStore,
		Clock:           builder.Clock,
	})
	if serviceError != nil {
		return nil, Options{}, serviceError
	}

	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return nil, Options{}, workingDirectoryError
	}

	configPath := ""
	contextAccessor := utils.NewCommandContextAccessor()
	if contextConfigPath, exists := contextAccessor.TrackingConfigPath(command.Context()); exists {
		configPath = contextConfigPath
	}

	return service, Options{
		WorkingDirectory: workingDirectory,
		ConfigPath:       configPath,
		FilePath:         strings.TrimSpace(arguments[0]),
	}, nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider != nil {
		if providedLogger := builder.LoggerProvider(); providedLogger != nil {
			return providedLogger
		}
	}
	return zap.NewNop()
}
