package shared

import (
	"context"

	"go.uber.org/zap"

	"github.com/portward/sourcetrack/internal/execshell"
	"github.com/portward/sourcetrack/internal/gitcmd"
	"github.com/portward/sourcetrack/internal/ui"
	"github.com/portward/sourcetrack/internal/workspace"
)

// GitExecutor abstracts the shell executor used by the tracking commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ResolveGitExecutor returns the provided executor or constructs the default
// shell executor, attaching a console event logger when human readable
// logging is requested.
func ResolveGitExecutor(existingExecutor GitExecutor, logger *zap.Logger, humanReadableLogging bool) (GitExecutor, error) {
	if existingExecutor != nil {
		return existingExecutor, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	commandRunner := execshell.NewOSCommandRunner()
	var observers []execshell.CommandEventObserver
	if humanReadableLogging {
		observers = append(observers, ui.NewConsoleCommandEventLogger(logger))
	}

	return execshell.NewShellExecutor(logger, commandRunner, observers...)
}

// ResolveGitClient wraps the executor in a typed git client.
func ResolveGitClient(executor GitExecutor) (*gitcmd.Client, error) {
	return gitcmd.NewClient(executor)
}

// ResolveWorkspaceLoader builds a workspace loader over the git client.
func ResolveWorkspaceLoader(gitClient *gitcmd.Client) (*workspace.Loader, error) {
	return workspace.NewLoader(gitClient)
}
