package changes

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/portward/sourcetrack/internal/commitid"
	"github.com/portward/sourcetrack/internal/marker"
	"github.com/portward/sourcetrack/internal/track/shared"
	"github.com/portward/sourcetrack/internal/utils"
	"github.com/portward/sourcetrack/internal/utils/flags"
)

const (
	logCommandUseConstant              = "log <file>"
	logCommandAliasConstant            = "show-changes"
	logCommandShortDescriptionConstant = "Show upstream commits since the last review"
	logCommandLongDescriptionConstant  = "log lists the upstream commits touching a tracked file's upstream paths since the commit recorded in its review marker."
	patchFlagNameConstant              = "patch"
	patchFlagShorthandConstant         = "p"
	patchFlagDescriptionConstant       = "Include the full patch of each upstream commit"

	diffCommandUseConstant              = "diff <file>"
	diffCommandShortDescriptionConstant = "Diff upstream paths against the reviewed commit"
	diffCommandLongDescriptionConstant  = "diff lists the pending upstream commits and renders each upstream path's difference between the reviewed commit and the current upstream head."
	snapshotFlagNameConstant            = "snapshot"
	snapshotFlagDescriptionConstant     = "Compare file snapshots in-process instead of running git diff"

	showLogCommandUseConstant      = "show-log <file>"
	showLogCommandShortDescription = "Show the full upstream history of a file"
	showLogCommandLongDescription  = "show-log lists every upstream commit touching an upstream path. A vanished path is matched through base-name suggestions when exactly one candidate exists."
	showLogHeaderTemplateConstant  = "Upstream history of %s:\n"

	noTrackMessageTemplateConstant         = "NOTRACK: %s is excluded from tracking\n"
	upToDateMessageTemplateConstant        = "OK: %s is up to date with %s\n"
	changesHeaderTemplateConstant          = "Changes for %s since %s (upstream: %s):\n"
	commitLineTemplateConstant             = "  %s %s %s %s\n"
	excludedCommitsMessageTemplateConstant = "(%d excluded commits omitted)\n"
	diffUpToDateMessageTemplateConstant    = "OK: %s matches upstream at %s\n"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the log command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	WorkspaceLoader              WorkspaceLoader
	MarkerReader                 MarkerReader
	HumanReadableLoggingProvider func() bool

	showPatchFlagValue bool
}

// Build constructs the log command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     logCommandUseConstant,
		Aliases: []string{logCommandAliasConstant},
		Short:   logCommandShortDescriptionConstant,
		Long:    logCommandLongDescriptionConstant,
		Args:    cobra.ExactArgs(1),
		RunE:    builder.runLog,
	}

	flags.AddToggleFlag(command.Flags(), &builder.showPatchFlagValue, patchFlagNameConstant, patchFlagShorthandConstant, false, patchFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) runLog(command *cobra.Command, arguments []string) error {
	service, serviceOptions, resolveError := builder.resolveService(command, arguments)
	if resolveError != nil {
		return resolveError
	}
	serviceOptions.ShowPatch = builder.showPatchFlagValue

	changesResult, changesError := service.Changes(command.Context(), serviceOptions)
	if changesError != nil {
		return changesError
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	if changesResult.NoTrack {
		_, _ = fmt.Fprintf(outputWriter, noTrackMessageTemplateConstant, changesResult.RelativePath)
		return nil
	}
	if len(changesResult.Commits) == 0 {
		_, _ = fmt.Fprintf(outputWriter, upToDateMessageTemplateConstant, changesResult.RelativePath, changesResult.ReviewMarker.CommitHash)
		if changesResult.ExcludedCount > 0 {
			_, _ = fmt.Fprintf(outputWriter, excludedCommitsMessageTemplateConstant, changesResult.ExcludedCount)
		}
		return nil
	}

	_, _ = fmt.Fprintf(outputWriter, changesHeaderTemplateConstant, changesResult.RelativePath, changesResult.ReviewMarker.CommitHash, strings.Join(changesResult.UpstreamPaths, " "))
	for _, upstreamCommit := range changesResult.Commits {
		_, _ = fmt.Fprintf(outputWriter, commitLineTemplateConstant, commitid.Shorten(upstreamCommit.Hash), upstreamCommit.Date, upstreamCommit.Author, upstreamCommit.Subject)
	}
	if changesResult.ExcludedCount > 0 {
		_, _ = fmt.Fprintf(outputWriter, excludedCommitsMessageTemplateConstant, changesResult.ExcludedCount)
	}
	for _, commitPatch := range changesResult.Patches {
		_, _ = fmt.Fprintln(outputWriter, commitPatch)
	}
	return nil
}

// DiffCommandBuilder assembles the diff command.
type DiffCommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	WorkspaceLoader              WorkspaceLoader
	MarkerReader                 MarkerReader
	HumanReadableLoggingProvider func() bool

	snapshotFlagValue bool
}

// Build constructs the diff command.
func (builder *DiffCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   diffCommandUseConstant,
		Short: diffCommandShortDescriptionConstant,
		Long:  diffCommandLongDescriptionConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.runDiff,
	}

	flags.AddToggleFlag(command.Flags(), &builder.snapshotFlagValue, snapshotFlagNameConstant, "", false, snapshotFlagDescriptionConstant)

	return command, nil
}

func (builder *DiffCommandBuilder) runDiff(command *cobra.Command, arguments []string) error {
	logBuilder := CommandBuilder{
		LoggerProvider:               builder.LoggerProvider,
		GitExecutor:                  builder.GitExecutor,
		WorkspaceLoader:              builder.WorkspaceLoader,
		MarkerReader:                 builder.MarkerReader,
		HumanReadableLoggingProvider: builder.HumanReadableLoggingProvider,
	}
	service, serviceOptions, resolveError := logBuilder.resolveService(command, arguments)
	if resolveError != nil {
		return resolveError
	}
	serviceOptions.Snapshot = builder.snapshotFlagValue

	diffResult, diffError := service.Diff(command.Context(), serviceOptions)
	if diffError != nil {
		return diffError
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	if diffResult.NoTrack {
		_, _ = fmt.Fprintf(outputWriter, noTrackMessageTemplateConstant, diffResult.RelativePath)
		return nil
	}
	if len(diffResult.Commits) == 0 && len(diffResult.FileDiffs) == 0 {
		_, _ = fmt.Fprintf(outputWriter, diffUpToDateMessageTemplateConstant, diffResult.RelativePath, diffResult.CommitHash)
		return nil
	}
	for _, upstreamCommit := range diffResult.Commits {
		_, _ = fmt.Fprintf(outputWriter, commitLineTemplateConstant, commitid.Shorten(upstreamCommit.Hash), upstreamCommit.Date, upstreamCommit.Author, upstreamCommit.Subject)
	}
	if diffResult.ExcludedCount > 0 {
		_, _ = fmt.Fprintf(outputWriter, excludedCommitsMessageTemplateConstant, diffResult.ExcludedCount)
	}
	for _, fileDiff := range diffResult.FileDiffs {
		_, _ = fmt.Fprint(outputWriter, fileDiff.UnifiedDiff)
	}
	return nil
}

// ShowLogCommandBuilder assembles the show-log command.
type ShowLogCommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	WorkspaceLoader              WorkspaceLoader
	MarkerReader                 MarkerReader
	HumanReadableLoggingProvider func() bool
}

// Build constructs the show-log command.
func (builder *ShowLogCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   showLogCommandUseConstant,
		Short: showLogCommandShortDescription,
		Long:  showLogCommandLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.runShowLog,
	}, nil
}

func (builder *ShowLogCommandBuilder) runShowLog(command *cobra.Command, arguments []string) error {
	logBuilder := CommandBuilder{
		LoggerProvider:               builder.LoggerProvider,
		GitExecutor:                  builder.GitExecutor,
		WorkspaceLoader:              builder.WorkspaceLoader,
		MarkerReader:                 builder.MarkerReader,
		HumanReadableLoggingProvider: builder.HumanReadableLoggingProvider,
	}
	service, serviceOptions, resolveError := logBuilder.resolveService(command, arguments)
	if resolveError != nil {
		return resolveError
	}

	showLogResult, showLogError := service.ShowLog(command.Context(), serviceOptions)
	if showLogError != nil {
		return showLogError
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	_, _ = fmt.Fprintf(outputWriter, showLogHeaderTemplateConstant, showLogResult.UpstreamPath)
	for _, upstreamCommit := range showLogResult.Commits {
		_, _ = fmt.Fprintf(outputWriter, commitLineTemplateConstant, commitid.Shorten(upstreamCommit.Hash), upstreamCommit.Date, upstreamCommit.Author, upstreamCommit.Subject)
	}
	if showLogResult.ExcludedCount > 0 {
		_, _ = fmt.Fprintf(outputWriter, excludedCommitsMessageTemplateConstant, showLogResult.ExcludedCount)
	}
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
