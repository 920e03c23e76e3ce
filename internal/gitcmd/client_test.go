package gitcmd_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/portward/sourcetrack/internal/execshell"
	"github.com/portward/sourcetrack/internal/gitcmd"
)

const (
	testRepositoryPathConstant   = "/workspace/upstream"
	testTrackedFilePathConstant  = "wpilib/drive.py"
	testSinceCommitConstant      = "a1b2c3d4e5f6"
	testHeadCommitHashConstant   = "9f8e7d6c5b4a39281706f5e4d3c2b1a098765432"
	testLogFieldSeparatorLiteral = "\x1f"
)

type scriptedGitExecutor struct {
	resultsByResponseIndex []execshell.ExecutionResult
	errorsByResponseIndex  []error
	recordedDetails        []execshell.CommandDetails
}

func (executor *scriptedGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	responseIndex := len(executor.recordedDetails)
	executor.recordedDetails = append(executor.recordedDetails, details)

	var executionError error
	if responseIndex < len(executor.errorsByResponseIndex) {
		executionError = executor.errorsByResponseIndex[responseIndex]
	}
	var executionResult execshell.ExecutionResult
	if responseIndex < len(executor.resultsByResponseIndex) {
		executionResult = executor.resultsByResponseIndex[responseIndex]
	}
	return executionResult, executionError
}

func buildLogRecord(hash string, timestamp string, author string, date string, subject string) string {
	return strings.Join([]string{hash, timestamp, author, date, subject}, testLogFieldSeparatorLiteral)
}

func TestNewClientRequiresExecutor(testInstance *testing.T) {
	client, creationError := gitcmd.NewClient(nil)
	require.Nil(testInstance, client)
	require.ErrorIs(testInstance, creationError, gitcmd.ErrExecutorNotConfigured)
}

func TestFileLogParsesCommitsNewestFirst(testInstance *testing.T) {
	logOutput := strings.Join([]string{
		buildLogRecord("c3c3c3c3c3c3c3c3c3c3c3c3c3c3c3c3c3c3c3c3", "1700000300", "Dustin Spicuzza", "2023-11-14", "fix deadband handling"),
		buildLogRecord("c2c2c2c2c2c2c2c2c2c2c2c2c2c2c2c2c2c2c2c2", "1700000200", "Dustin Spicuzza", "2023-11-14", "add curvature drive"),
	}, "\n")

	scriptedExecutor := &scriptedGitExecutor{
		resultsByResponseIndex: []execshell.ExecutionResult{{StandardOutput: logOutput}},
	}
	client, creationError := gitcmd.NewClient(scriptedExecutor)
	require.NoError(testInstance, creationError)

	commits, logError := client.FileLog(context.Background(), testRepositoryPathConstant, testTrackedFilePathConstant, testSinceCommitConstant)
	require.NoError(testInstance, logError)
	require.Len(testInstance, commits, 2)
	require.Equal(testInstance, "c3c3c3c3c3c3c3c3c3c3c3c3c3c3c3c3c3c3c3c3", commits[0].Hash)
	require.Equal(testInstance, int64(1700000300), commits[0].Timestamp)
	require.Equal(testInstance, "fix deadband handling", commits[0].Subject)
	require.Equal(testInstance, "2023-11-14", commits[0].Date)
	require.Equal(testInstance, "Dustin Spicuzza", commits[1].Author)

	require.Len(testInstance, scriptedExecutor.recordedDetails, 1)
	recordedArguments := scriptedExecutor.recordedDetails[0].Arguments
	require.Equal(testInstance, "log", recordedArguments[0])
	require.Contains(testInstance, recordedArguments, "--follow")
	require.Contains(testInstance, recordedArguments, testSinceCommitConstant+"..HEAD")
	require.Equal(testInstance, testTrackedFilePathConstant, recordedArguments[len(recordedArguments)-1])
	require.Equal(testInstance, testRepositoryPathConstant, scriptedExecutor.recordedDetails[0].WorkingDirectory)
}

func TestFileLogWithoutSinceCommitOmitsRange(testInstance *testing.T) {
	scriptedExecutor := &scriptedGitExecutor{
		resultsByResponseIndex: []execshell.ExecutionResult{{StandardOutput: ""}},
	}
	client, creationError := gitcmd.NewClient(scriptedExecutor)
	require.NoError(testInstance, creationError)

	commits, logError := client.FileLog(context.Background(), testRepositoryPathConstant, testTrackedFilePathConstant, "")
	require.NoError(testInstance, logError)
	require.Empty(testInstance, commits)

	recordedArguments := scriptedExecutor.recordedDetails[0].Arguments
	for _, recordedArgument := range recordedArguments {
		require.NotContains(testInstance, recordedArgument, "..HEAD")
	}
}

func TestFileLogRejectsMalformedRecords(testInstance *testing.T) {
	scriptedExecutor := &scriptedGitExecutor{
		resultsByResponseIndex: []execshell.ExecutionResult{{StandardOutput: "not-a-log-record"}},
	}
	client, creationError := gitcmd.NewClient(scriptedExecutor)
	require.NoError(testInstance, creationError)

	commits, logError := client.FileLog(context.Background(), testRepositoryPathConstant, testTrackedFilePathConstant, "")
	require.Error(testInstance, logError)
	require.Nil(testInstance, commits)
}

func TestShowFormatsCommitPathTarget(testInstance *testing.T) {
	scriptedExecutor := &scriptedGitExecutor{
		resultsByResponseIndex: []execshell.ExecutionResult{{StandardOutput: "file contents\n"}},
	}
	client, creationError := gitcmd.NewClient(scriptedExecutor)
	require.NoError(testInstance, creationError)

	snapshot, showError := client.Show(context.Background(), testRepositoryPathConstant, testSinceCommitConstant, testTrackedFilePathConstant)
	require.NoError(testInstance, showError)
	require.Equal(testInstance, "file contents\n", snapshot)
	require.Equal(testInstance, []string{"show", testSinceCommitConstant + ":" + testTrackedFilePathConstant}, scriptedExecutor.recordedDetails[0].Arguments)
}

func TestHeadTrimsResolvedHash(testInstance *testing.T) {
	scriptedExecutor := &scriptedGitExecutor{
		resultsByResponseIndex: []execshell.ExecutionResult{{StandardOutput: testHeadCommitHashConstant + "\n"}},
	}
	client, creationError := gitcmd.NewClient(scriptedExecutor)
	require.NoError(testInstance, creationError)

	headHash, headError := client.Head(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, headError)
	require.Equal(testInstance, testHeadCommitHashConstant, headHash)
}

func TestResolveCommitReportsUnknownRevision(testInstance *testing.T) {
	failedCommand := execshell.ShellCommand{Name: execshell.CommandGit}
	scriptedExecutor := &scriptedGitExecutor{
		errorsByResponseIndex: []error{execshell.CommandFailedError{Command: failedCommand, Result: execshell.ExecutionResult{ExitCode: 1}}},
	}
	client, creationError := gitcmd.NewClient(scriptedExecutor)
	require.NoError(testInstance, creationError)

	resolvedHash, resolveError := client.ResolveCommit(context.Background(), testRepositoryPathConstant, "does-not-exist")
	require.Empty(testInstance, resolvedHash)
	unknownRevision := gitcmd.UnknownRevisionError{}
	require.ErrorAs(testInstance, resolveError, &unknownRevision)
	require.Equal(testInstance, "does-not-exist", unknownRevision.Reference)
}

func TestConfigValueTreatsUnsetKeyAsEmpty(testInstance *testing.T) {
	failedCommand := execshell.ShellCommand{Name: execshell.CommandGit}
	scriptedExecutor := &scriptedGitExecutor{
		errorsByResponseIndex: []error{execshell.CommandFailedError{Command: failedCommand, Result: execshell.ExecutionResult{ExitCode: 1}}},
	}
	client, creationError := gitcmd.NewClient(scriptedExecutor)
	require.NoError(testInstance, creationError)

	configurationValue, configError := client.ConfigValue(context.Background(), testRepositoryPathConstant, "user.name")
	require.NoError(testInstance, configError)
	require.Empty(testInstance, configurationValue)
}

func TestCheckoutAndPullForwardWorkingDirectory(testInstance *testing.T) {
	scriptedExecutor := &scriptedGitExecutor{
		resultsByResponseIndex: []execshell.ExecutionResult{{}, {}},
	}
	client, creationError := gitcmd.NewClient(scriptedExecutor)
	require.NoError(testInstance, creationError)

	checkoutError := client.Checkout(context.Background(), testRepositoryPathConstant, testSinceCommitConstant)
	require.NoError(testInstance, checkoutError)
	pullError := client.Pull(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, pullError)

	require.Equal(testInstance, []string{"checkout", testSinceCommitConstant}, scriptedExecutor.recordedDetails[0].Arguments)
	require.Equal(testInstance, []string{"pull", "origin", "master"}, scriptedExecutor.recordedDetails[1].Arguments)
	require.Equal(testInstance, testRepositoryPathConstant, scriptedExecutor.recordedDetails[1].WorkingDirectory)
}
