package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	errorDetailSuffixTemplateConstant       = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	flagArgumentPrefixConstant              = "-"
)

const (
	gitLogSubcommandNameConstant      = "log"
	gitShowSubcommandNameConstant     = "show"
	gitDiffSubcommandNameConstant     = "diff"
	gitRevParseSubcommandNameConstant = "rev-parse"
	gitConfigSubcommandNameConstant   = "config"
	gitCheckoutSubcommandNameConstant = "checkout"
	gitPullSubcommandNameConstant     = "pull"
	gitPathspecSeparatorConstant      = "--"
)

const (
	gitLogStartTemplateConstant             = "Reading history of %s in %s"
	gitLogSuccessTemplateConstant           = "Read history of %s in %s"
	gitLogFailureTemplateConstant           = "Failed to read history of %s in %s (exit code %d%s)"
	gitLogExecutionFailureTemplateConstant  = "Unable to read history of %s in %s: %s"
	gitShowStartTemplateConstant            = "Retrieving %s from %s"
	gitShowSuccessTemplateConstant          = "Retrieved %s from %s"
	gitShowFailureTemplateConstant          = "Failed to retrieve %s from %s (exit code %d%s)"
	gitShowExecutionFailureTemplateConstant = "Unable to retrieve %s from %s: %s"
	gitDiffStartTemplateConstant            = "Comparing %s in %s"
	gitDiffSuccessTemplateConstant          = "Compared %s in %s"
	gitDiffFailureTemplateConstant          = "Failed to compare %s in %s (exit code %d%s)"
	gitDiffExecutionFailureTemplateConstant = "Unable to compare %s in %s: %s"
	gitRevisionStartTemplateConstant        = "Resolving %s in %s"
	gitRevisionSuccessTemplateConstant      = "%s in %s resolved to %s"
	gitRevisionEmptySuccessTemplateConstant = "%s in %s did not resolve to a revision"
	gitRevisionFailureTemplateConstant      = "Failed to resolve %s in %s (exit code %d%s)"
	gitRevisionExecFailureTemplateConstant  = "Unable to resolve %s in %s: %s"
	gitConfigStartTemplateConstant          = "Reading git configuration %s in %s"
	gitConfigSuccessTemplateConstant        = "Read git configuration %s in %s"
	gitConfigFailureTemplateConstant        = "Failed to read git configuration %s in %s (exit code %d%s)"
	gitConfigExecFailureTemplateConstant    = "Unable to read git configuration %s in %s: %s"
	gitCheckoutStartTemplateConstant        = "Switching %s to %s"
	gitCheckoutSuccessTemplateConstant      = "%s now at %s"
	gitCheckoutFailureTemplateConstant      = "Failed to switch %s to %s (exit code %d%s)"
	gitCheckoutExecFailureTemplateConstant  = "Unable to switch %s to %s: %s"
	gitPullStartTemplateConstant            = "Pulling latest changes into %s"
	gitPullSuccessTemplateConstant          = "Pulled latest changes into %s"
	gitPullFailureTemplateConstant          = "Failed to pull latest changes into %s (exit code %d%s)"
	gitPullExecutionFailureTemplateConstant = "Unable to pull latest changes into %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a command that completed with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildSuccessMessageWithResult formats the success message using the captured execution result.
func (formatter CommandMessageFormatter) BuildSuccessMessageWithResult(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing a command that could not be executed.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommandName := strings.TrimSpace(command.Details.Arguments[0])
	switch subcommandName {
	case gitLogSubcommandNameConstant:
		return formatter.describePathScopedMessage(command, result, failure, stage,
			gitLogStartTemplateConstant, gitLogSuccessTemplateConstant, gitLogFailureTemplateConstant, gitLogExecutionFailureTemplateConstant)
	case gitShowSubcommandNameConstant:
		return formatter.describeTargetScopedMessage(command, result, failure, stage,
			gitShowStartTemplateConstant, gitShowSuccessTemplateConstant, gitShowFailureTemplateConstant, gitShowExecutionFailureTemplateConstant)
	case gitDiffSubcommandNameConstant:
		return formatter.describePathScopedMessage(command, result, failure, stage,
			gitDiffStartTemplateConstant, gitDiffSuccessTemplateConstant, gitDiffFailureTemplateConstant, gitDiffExecutionFailureTemplateConstant)
	case gitRevParseSubcommandNameConstant:
		return formatter.describeGitRevParseMessage(command, result, failure, stage)
	case gitConfigSubcommandNameConstant:
		return formatter.describeTargetScopedMessage(command, result, failure, stage,
			gitConfigStartTemplateConstant, gitConfigSuccessTemplateConstant, gitConfigFailureTemplateConstant, gitConfigExecFailureTemplateConstant)
	case gitCheckoutSubcommandNameConstant:
		return formatter.describeGitCheckoutMessage(command, result, failure, stage)
	case gitPullSubcommandNameConstant:
		return formatter.describeGitPullMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describePathScopedMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage, startTemplate string, successTemplate string, failureTemplate string, executionFailureTemplate string) string {
	workingDirectoryLabel := formatter.describeWorkingDirectory(command)
	targetLabel := formatter.ensureValue(formatter.extractPathspecTarget(command.Details.Arguments))

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplate, targetLabel, workingDirectoryLabel)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplate, targetLabel, workingDirectoryLabel)
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, targetLabel, workingDirectoryLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(executionFailureTemplate, targetLabel, workingDirectoryLabel, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeTargetScopedMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage, startTemplate string, successTemplate string, failureTemplate string, executionFailureTemplate string) string {
	workingDirectoryLabel := formatter.describeWorkingDirectory(command)
	targetLabel := formatter.ensureValue(formatter.extractLastNonFlagArgument(command.Details.Arguments[1:]))

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplate, targetLabel, workingDirectoryLabel)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplate, targetLabel, workingDirectoryLabel)
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, targetLabel, workingDirectoryLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(executionFailureTemplate, targetLabel, workingDirectoryLabel, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitRevParseMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectoryLabel := formatter.describeWorkingDirectory(command)
	referenceLabel := formatter.ensureValue(formatter.extractLastNonFlagArgument(command.Details.Arguments[1:]))

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitRevisionStartTemplateConstant, referenceLabel, workingDirectoryLabel)
	case messageStageSuccess:
		trimmedOutput := strings.TrimSpace(result.StandardOutput)
		if len(trimmedOutput) == 0 {
			return fmt.Sprintf(gitRevisionEmptySuccessTemplateConstant, referenceLabel, workingDirectoryLabel)
		}
		return fmt.Sprintf(gitRevisionSuccessTemplateConstant, referenceLabel, workingDirectoryLabel, trimmedOutput)
	case messageStageFailure:
		return fmt.Sprintf(gitRevisionFailureTemplateConstant, referenceLabel, workingDirectoryLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitRevisionExecFailureTemplateConstant, referenceLabel, workingDirectoryLabel, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitCheckoutMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectoryLabel := formatter.describeWorkingDirectory(command)
	referenceLabel := formatter.ensureValue(formatter.extractLastNonFlagArgument(command.Details.Arguments[1:]))

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitCheckoutStartTemplateConstant, workingDirectoryLabel, referenceLabel)
	case messageStageSuccess:
		return fmt.Sprintf(gitCheckoutSuccessTemplateConstant, workingDirectoryLabel, referenceLabel)
	case messageStageFailure:
		return fmt.Sprintf(gitCheckoutFailureTemplateConstant, workingDirectoryLabel, referenceLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitCheckoutExecFailureTemplateConstant, workingDirectoryLabel, referenceLabel, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitPullMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectoryLabel := formatter.describeWorkingDirectory(command)

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitPullStartTemplateConstant, workingDirectoryLabel)
	case messageStageSuccess:
		return fmt.Sprintf(gitPullSuccessTemplateConstant, workingDirectoryLabel)
	case messageStageFailure:
		return fmt.Sprintf(gitPullFailureTemplateConstant, workingDirectoryLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitPullExecutionFailureTemplateConstant, workingDirectoryLabel, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(errorDetailSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmedValue
}

// extractPathspecTarget returns the argument following the "--" separator when
// present, otherwise the final non-flag argument.
func (formatter CommandMessageFormatter) extractPathspecTarget(arguments []string) string {
	for argumentIndex, argument := range arguments {
		if strings.TrimSpace(argument) == gitPathspecSeparatorConstant && argumentIndex+1 < len(arguments) {
			return strings.TrimSpace(arguments[argumentIndex+1])
		}
	}
	if len(arguments) < 2 {
		return emptyStringConstant
	}
	return formatter.extractLastNonFlagArgument(arguments[1:])
}

func (formatter CommandMessageFormatter) extractLastNonFlagArgument(arguments []string) string {
	for argumentIndex := len(arguments) - 1; argumentIndex >= 0; argumentIndex-- {
		trimmedArgument := strings.TrimSpace(arguments[argumentIndex])
		if len(trimmedArgument) == 0 || trimmedArgument == gitPathspecSeparatorConstant {
			continue
		}
		if strings.HasPrefix(trimmedArgument, flagArgumentPrefixConstant) {
			continue
		}
		return trimmedArgument
	}
	return emptyStringConstant
}
