package gitcmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/portward/sourcetrack/internal/execshell"
)

const (
	executorNotConfiguredMessageConstant = "git executor not configured"
	logSubcommandConstant                = "log"
	showSubcommandConstant               = "show"
	diffSubcommandConstant               = "diff"
	revParseSubcommandConstant           = "rev-parse"
	configSubcommandConstant             = "config"
	checkoutSubcommandConstant           = "checkout"
	pullSubcommandConstant               = "pull"
	pullRemoteNameConstant               = "origin"
	pullBranchNameConstant               = "master"
	followFlagConstant                   = "--follow"
	patchFlagConstant                    = "--patch"
	verifyFlagConstant                   = "--verify"
	quietFlagConstant                    = "--quiet"
	getFlagConstant                      = "--get"
	showToplevelFlagConstant             = "--show-toplevel"
	pathspecSeparatorConstant            = "--"
	logPrettyFormatFlagConstant          = "--pretty=format:%H%x1f%ct%x1f%an%x1f%ad%x1f%s"
	logShortDateFlagConstant             = "--date=short"
	headReferenceConstant                = "HEAD"
	revisionRangeTemplateConstant        = "%s..%s"
	commitPathTemplateConstant           = "%s:%s"
	logFieldSeparatorConstant            = "\x1f"
	logRecordFieldCountConstant          = 5
	fileLogErrorTemplateConstant         = "failed to read history of %s: %w"
	filePatchErrorTemplateConstant       = "failed to read patches of %s: %w"
	showErrorTemplateConstant            = "failed to retrieve %s: %w"
	diffErrorTemplateConstant            = "failed to compare %s: %w"
	headErrorTemplateConstant            = "failed to resolve HEAD: %w"
	configErrorTemplateConstant          = "failed to read git configuration %s: %w"
	toplevelErrorTemplateConstant        = "failed to locate repository top level: %w"
	checkoutErrorTemplateConstant        = "failed to check out %s: %w"
	pullErrorTemplateConstant            = "failed to pull: %w"
	logRecordErrorTemplateConstant       = "malformed log record %q"
	unknownRevisionTemplateConstant      = "unknown revision %q"
	configUnsetExitCodeConstant          = 1
)

// ErrExecutorNotConfigured indicates the client was constructed without an executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// UnknownRevisionError reports a reference that does not resolve to a commit.
type UnknownRevisionError struct {
	Reference string
}

// Error describes the unresolved reference.
func (revisionError UnknownRevisionError) Error() string {
	return fmt.Sprintf(unknownRevisionTemplateConstant, revisionError.Reference)
}

// GitExecutor abstracts the shell executor used to run git.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client performs structured git operations against local repositories.
type Client struct {
	executor GitExecutor
}

// NewClient constructs a Client around the provided executor.
func NewClient(executor GitExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// FileLog lists the commits touching relativeFilePath, newest first, following
// renames. When sinceCommit is non-empty only commits after it are returned.
func (client *Client) FileLog(executionContext context.Context, repositoryPath string, relativeFilePath string, sinceCommit string) ([]CommitInfo, error) {
	arguments := []string{logSubcommandConstant, followFlagConstant, logPrettyFormatFlagConstant, logShortDateFlagConstant}
	if len(strings.TrimSpace(sinceCommit)) > 0 {
		arguments = append(arguments, fmt.Sprintf(revisionRangeTemplateConstant, sinceCommit, headReferenceConstant))
	}
	arguments = append(arguments, pathspecSeparatorConstant, relativeFilePath)

	executionResult, executionError := client.executor.ExecuteGit(executionContext, execshell.CommandDetails{Arguments: arguments, WorkingDirectory: repositoryPath})
	if executionError != nil {
		return nil, fmt.Errorf(fileLogErrorTemplateConstant, relativeFilePath, executionError)
	}

	return parseLogOutput(executionResult.StandardOutput)
}

// FilePatchLog returns the raw patch text for the commits touching
// relativeFilePath, newest first, optionally restricted to commits after sinceCommit.
func (client *Client) FilePatchLog(executionContext context.Context, repositoryPath string, relativeFilePath string, sinceCommit string) (string, error) {
	arguments := []string{logSubcommandConstant, followFlagConstant, patchFlagConstant, logShortDateFlagConstant}
	if len(strings.TrimSpace(sinceCommit)) > 0 {
		arguments = append(arguments, fmt.Sprintf(revisionRangeTemplateConstant, sinceCommit, headReferenceConstant))
	}
	arguments = append(arguments, pathspecSeparatorConstant, relativeFilePath)

	executionResult, executionError := client.executor.ExecuteGit(executionContext, execshell.CommandDetails{Arguments: arguments, WorkingDirectory: repositoryPath})
	if executionError != nil {
		return "", fmt.Errorf(filePatchErrorTemplateConstant, relativeFilePath, executionError)
	}

	return executionResult.StandardOutput, nil
}

// Show returns the contents of relativeFilePath at commitReference.
func (client *Client) Show(executionContext context.Context, repositoryPath string, commitReference string, relativeFilePath string) (string, error) {
	target := fmt.Sprintf(commitPathTemplateConstant, commitReference, relativeFilePath)
	executionResult, executionError := client.executor.ExecuteGit(executionContext, execshell.CommandDetails{Arguments: []string{showSubcommandConstant, target}, WorkingDirectory: repositoryPath})
	if executionError != nil {
		return "", fmt.Errorf(showErrorTemplateConstant, target, executionError)
	}
	return executionResult.StandardOutput, nil
}

// Diff returns the unified diff of relativeFilePath between two revisions.
func (client *Client) Diff(executionContext context.Context, repositoryPath string, oldReference string, newReference string, relativeFilePath string) (string, error) {
	revisionRange := fmt.Sprintf(revisionRangeTemplateConstant, oldReference, newReference)
	arguments := []string{diffSubcommandConstant, revisionRange, pathspecSeparatorConstant, relativeFilePath}
	executionResult, executionError := client.executor.ExecuteGit(executionContext, execshell.CommandDetails{Arguments: arguments, WorkingDirectory: repositoryPath})
	if executionError != nil {
		return "", fmt.Errorf(diffErrorTemplateConstant, relativeFilePath, executionError)
	}
	return executionResult.StandardOutput, nil
}

// Head resolves the full hash of the current HEAD commit.
func (client *Client) Head(executionContext context.Context, repositoryPath string) (string, error) {
	executionResult, executionError := client.executor.ExecuteGit(executionContext, execshell.CommandDetails{Arguments: []string{revParseSubcommandConstant, verifyFlagConstant, headReferenceConstant}, WorkingDirectory: repositoryPath})
	if executionError != nil {
		return "", fmt.Errorf(headErrorTemplateConstant, executionError)
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// ResolveCommit resolves a reference to a full commit hash. Unresolvable
// references yield UnknownRevisionError.
func (client *Client) ResolveCommit(executionContext context.Context, repositoryPath string, reference string) (string, error) {
	arguments := []string{revParseSubcommandConstant, verifyFlagConstant, quietFlagConstant, reference}
	executionResult, executionError := client.executor.ExecuteGit(executionContext, execshell.CommandDetails{Arguments: arguments, WorkingDirectory: repositoryPath})
	if executionError != nil {
		commandFailure := execshell.CommandFailedError{}
		if errors.As(executionError, &commandFailure) {
			return "", UnknownRevisionError{Reference: reference}
		}
		return "", executionError
	}

	resolvedHash := strings.TrimSpace(executionResult.StandardOutput)
	if len(resolvedHash) == 0 {
		return "", UnknownRevisionError{Reference: reference}
	}
	return resolvedHash, nil
}

// ConfigValue reads a git configuration value. Unset keys return an empty string.
func (client *Client) ConfigValue(executionContext context.Context, repositoryPath string, configurationKey string) (string, error) {
	arguments := []string{configSubcommandConstant, getFlagConstant, configurationKey}
	executionResult, executionError := client.executor.ExecuteGit(executionContext, execshell.CommandDetails{Arguments: arguments, WorkingDirectory: repositoryPath})
	if executionError != nil {
		commandFailure := execshell.CommandFailedError{}
		if errors.As(executionError, &commandFailure) && commandFailure.Result.ExitCode == configUnsetExitCodeConstant {
			return "", nil
		}
		return "", fmt.Errorf(configErrorTemplateConstant, configurationKey, executionError)
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// Toplevel resolves the repository top level directory containing directoryPath.
func (client *Client) Toplevel(executionContext context.Context, directoryPath string) (string, error) {
	arguments := []string{revParseSubcommandConstant, showToplevelFlagConstant}
	executionResult, executionError := client.executor.ExecuteGit(executionContext, execshell.CommandDetails{Arguments: arguments, WorkingDirectory: directoryPath})
	if executionError != nil {
		return "", fmt.Errorf(toplevelErrorTemplateConstant, executionError)
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// Checkout switches the repository working tree to the provided reference.
func (client *Client) Checkout(executionContext context.Context, repositoryPath string, reference string) error {
	arguments := []string{checkoutSubcommandConstant, reference}
	_, executionError := client.executor.ExecuteGit(executionContext, execshell.CommandDetails{Arguments: arguments, WorkingDirectory: repositoryPath})
	if executionError != nil {
		return fmt.Errorf(checkoutErrorTemplateConstant, reference, executionError)
	}
	return nil
}

// Pull fetches and integrates the origin master branch.
func (client *Client) Pull(executionContext context.Context, repositoryPath string) error {
	arguments := []string{pullSubcommandConstant, pullRemoteNameConstant, pullBranchNameConstant}
	_, executionError := client.executor.ExecuteGit(executionContext, execshell.CommandDetails{Arguments: arguments, WorkingDirectory: repositoryPath})
	if executionError != nil {
		return fmt.Errorf(pullErrorTemplateConstant, executionError)
	}
	return nil
}

func parseLogOutput(logOutput string) ([]CommitInfo, error) {
	trimmedOutput := strings.TrimSpace(logOutput)
	if len(trimmedOutput) == 0 {
		return nil, nil
	}

	logLines := strings.Split(trimmedOutput, "\n")
	commits := make([]CommitInfo, 0, len(logLines))
	for _, logLine := range logLines {
		trimmedLine := strings.TrimSpace(logLine)
		if len(trimmedLine) == 0 {
			continue
		}

		recordFields := strings.SplitN(trimmedLine, logFieldSeparatorConstant, logRecordFieldCountConstant)
		if len(recordFields) != logRecordFieldCountConstant {
			return nil, fmt.Errorf(logRecordErrorTemplateConstant, trimmedLine)
		}

		commitTimestamp, timestampError := strconv.ParseInt(recordFields[1], 10, 64)
		if timestampError != nil {
			return nil, fmt.Errorf(logRecordErrorTemplateConstant, trimmedLine)
		}

		commits = append(commits, CommitInfo{
			Hash:      recordFields[0],
			Timestamp: commitTimestamp,
			Author:    recordFields[2],
			Date:      recordFields[3],
			Subject:   recordFields[4],
		})
	}

	return commits, nil
}
