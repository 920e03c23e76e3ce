package upstream

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/portward/sourcetrack/internal/track/shared"
	"github.com/portward/sourcetrack/internal/utils"
)

const (
	checkoutCommandUseConstant              = "upstream-checkout"
	checkoutCommandShortDescriptionConstant = "Pin the upstream working tree to the recorded commit"
	checkoutCommandLongDescriptionConstant  = "upstream-checkout switches the upstream repository to the commit recorded in the tracking configuration."
	checkedOutMessageTemplateConstant       = "CHECKED OUT: %s at %s\n"

	pullCommandUseConstant              = "upstream-pull"
	pullCommandShortDescriptionConstant = "Pull the latest upstream changes and track the new head"
	pullCommandLongDescriptionConstant  = "upstream-pull fetches and merges the latest changes into the upstream repository, then records the new upstream head in the tracking configuration."
	pulledMessageTemplateConstant       = "PULLED: %s now tracking %s\n"

	trackCommandUseConstant              = "upstream-track [commit]"
	trackCommandShortDescriptionConstant = "Record the upstream commit the validation tree tracks"
	trackCommandLongDescriptionConstant  = "upstream-track records the given upstream commit, defaulting to the current upstream head, in the tracking configuration."
	trackedMessageTemplateConstant       = "TRACKING: %s at %s\n"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the upstream commands.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	WorkspaceLoader              WorkspaceLoader
	ConfigWriter                 ConfigWriter
	HumanReadableLoggingProvider func() bool
}

// BuildCheckout constructs the upstream-checkout command.
func (builder *CommandBuilder) BuildCheckout() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   checkoutCommandUseConstant,
		Short: checkoutCommandShortDescriptionConstant,
		Long:  checkoutCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runCheckout,
	}, nil
}

// BuildPull constructs the upstream-pull command.
func (builder *CommandBuilder) BuildPull() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   pullCommandUseConstant,
		Short: pullCommandShortDescriptionConstant,
		Long:  pullCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runPull,
	}, nil
}

// BuildTrack constructs the upstream-track command.
func (builder *CommandBuilder) BuildTrack() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   trackCommandUseConstant,
		Short: trackCommandShortDescriptionConstant,
		Long:  trackCommandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.runTrack,
	}, nil
}

func (builder *CommandBuilder) runCheckout(command *cobra.Command, arguments []string) error {
	service, serviceOptions, resolveError := builder.resolveService(command)
	if resolveError != nil {
		return resolveError
	}

	checkoutResult, checkoutError := service.Checkout(command.Context(), serviceOptions)
	if checkoutError != nil {
		return checkoutError
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	_, _ = fmt.Fprintf(outputWriter, checkedOutMessageTemplateConstant, checkoutResult.UpstreamRoot, checkoutResult.UpstreamCommit)
	return nil
}

func (builder *CommandBuilder) runPull(command *cobra.Command, arguments []string) error {
	service, serviceOptions, resolveError := builder.resolveService(command)
	if resolveError != nil {
		return resolveError
	}

	pullResult, pullError := service.Pull(command.Context(), serviceOptions)
	if pullError != nil {
		return pullError
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	_, _ = fmt.Fprintf(outputWriter, pulledMessageTemplateConstant, pullResult.UpstreamRoot, pullResult.UpstreamCommit)
	return nil
}

func (builder *CommandBuilder) runTrack(command *cobra.Command, arguments []string) error {
	service, serviceOptions, resolveError := builder.resolveService(command)
	if resolveError != nil {
		return resolveError
	}
	if len(arguments) > 0 {
		serviceOptions.TargetReference = strings.TrimSpace(arguments[0])
	}

	trackResult, trackError := service.Track(command.Context(), serviceOptions)
	if trackError != nil {
		return trackError
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	_, _ = fmt.Fprintf(outputWriter, trackedMessageTemplateConstant, trackResult.UpstreamRoot, trackResult.UpstreamCommit)
	return nil
}

func (builder *CommandBuilder) resolveService(command *cobra.Command) (*Service, Options, error) {
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

	service, serviceError := NewService(Dependencies{
		GitOperator:     gitClient,
		WorkspaceLoader: workspaceLoader,
		ConfigWriter:    builder.ConfigWriter,
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
