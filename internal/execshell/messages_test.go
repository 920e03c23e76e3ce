package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildStartedMessageForLogNamesTrackedPath(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"log", "--pretty=%H", "c2..HEAD", "--", "wpilib/drive.py"},
			WorkingDirectory: "/workspace/upstream",
		},
	}

	message := formatter.BuildStartedMessage(command)

	require.Equal(t, "Reading history of wpilib/drive.py in /workspace/upstream", message)
}

func TestBuildSuccessMessageForRevParseIncludesResolvedRevision(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"rev-parse", "--verify", "HEAD"},
			WorkingDirectory: "/workspace/upstream",
		},
	}
	result := ExecutionResult{StandardOutput: "a1b2c3d4e5f6\n"}

	message := formatter.BuildSuccessMessageWithResult(command, result)

	require.Equal(t, "HEAD in /workspace/upstream resolved to a1b2c3d4e5f6", message)
}

func TestBuildFailureMessageForShowIncludesStandardError(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"show", "a1b2c3:wpilib/drive.py"},
			WorkingDirectory: "/workspace/upstream",
		},
	}
	result := ExecutionResult{ExitCode: 128, StandardError: "fatal: path does not exist"}

	message := formatter.BuildFailureMessage(command, result)

	require.Equal(t, "Failed to retrieve a1b2c3:wpilib/drive.py from /workspace/upstream (exit code 128: fatal: path does not exist)", message)
}

func TestBuildStartedMessageForPullNamesWorkingDirectory(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"pull"},
			WorkingDirectory: "/workspace/upstream",
		},
	}

	message := formatter.BuildStartedMessage(command)

	require.Equal(t, "Pulling latest changes into /workspace/upstream", message)
}

func TestBuildStartedMessageForCheckoutNamesReference(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"checkout", "a1b2c3d4e5f6"},
			WorkingDirectory: "/workspace/upstream",
		},
	}

	message := formatter.BuildStartedMessage(command)

	require.Equal(t, "Switching /workspace/upstream to a1b2c3d4e5f6", message)
}

func TestBuildExecutionFailureMessageForUnknownSubcommandUsesGenericLabel(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments: []string{"gc"},
		},
	}

	message := formatter.BuildExecutionFailureMessage(command, errors.New("executable not found"))

	require.Equal(t, "git gc failed: executable not found", message)
}
