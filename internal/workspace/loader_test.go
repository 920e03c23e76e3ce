package workspace_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/portward/sourcetrack/internal/trackcfg"
	"github.com/portward/sourcetrack/internal/workspace"
)

const (
	testRecordedUpstreamCommitConstant = "a1b2c3d4e5f6"
	testMatchingHeadCommitConstant     = "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0"
	testDriftedHeadCommitConstant      = "ffffffffffffffffffffffffffffffffffffffff"
)

type stubGitLocator struct {
	toplevelPath string
	headCommit   string
	headError    error
}

func (locator *stubGitLocator) Toplevel(executionContext context.Context, directoryPath string) (string, error) {
	return locator.toplevelPath, nil
}

func (locator *stubGitLocator) Head(executionContext context.Context, repositoryPath string) (string, error) {
	return locator.headCommit, locator.headError
}

func writeWorkspaceFixture(testInstance *testing.T) (string, string) {
	testInstance.Helper()
	baseDirectory := testInstance.TempDir()
	upstreamRoot := filepath.Join(baseDirectory, "upstream")
	validationRoot := filepath.Join(baseDirectory, "validation")
	require.NoError(testInstance, os.MkdirAll(upstreamRoot, 0o755))
	require.NoError(testInstance, os.MkdirAll(filepath.Join(validationRoot, "wpilib"), 0o755))

	configContent := "[git-source-track]\nupstream_root = ../upstream\nupstream_commit = " + testRecordedUpstreamCommitConstant + "\nvalidation_root = .\n"
	require.NoError(testInstance, os.WriteFile(filepath.Join(validationRoot, trackcfg.ConfigFileName), []byte(configContent), 0o644))

	return upstreamRoot, validationRoot
}

func TestNewLoaderRequiresGitClient(testInstance *testing.T) {
	loader, creationError := workspace.NewLoader(nil)
	require.Nil(testInstance, loader)
	require.ErrorIs(testInstance, creationError, workspace.ErrGitClientNotConfigured)
}

func TestLoadDiscoversConfigurationFromNestedDirectory(testInstance *testing.T) {
	upstreamRoot, validationRoot := writeWorkspaceFixture(testInstance)

	loader, creationError := workspace.NewLoader(&stubGitLocator{toplevelPath: validationRoot})
	require.NoError(testInstance, creationError)

	trackingWorkspace, loadError := loader.Load(context.Background(), filepath.Join(validationRoot, "wpilib"), "")
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, upstreamRoot, trackingWorkspace.Configuration.UpstreamRoot)
	require.Equal(testInstance, validationRoot, trackingWorkspace.Configuration.ValidationRoot)
	require.NotNil(testInstance, trackingWorkspace.Resolver)
	require.Equal(testInstance, 0, trackingWorkspace.Excludes.Size())
}

func TestLoadHonorsExplicitConfigPath(testInstance *testing.T) {
	_, validationRoot := writeWorkspaceFixture(testInstance)

	loader, creationError := workspace.NewLoader(&stubGitLocator{toplevelPath: testInstance.TempDir()})
	require.NoError(testInstance, creationError)

	trackingWorkspace, loadError := loader.Load(context.Background(), testInstance.TempDir(), filepath.Join(validationRoot, trackcfg.ConfigFileName))
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, validationRoot, trackingWorkspace.Configuration.ValidationRoot)
}

func TestLoadReportsMissingConfiguration(testInstance *testing.T) {
	emptyDirectory := testInstance.TempDir()
	loader, creationError := workspace.NewLoader(&stubGitLocator{toplevelPath: emptyDirectory})
	require.NoError(testInstance, creationError)

	_, loadError := loader.Load(context.Background(), emptyDirectory, "")
	require.ErrorIs(testInstance, loadError, trackcfg.ErrConfigMissing)
}

func TestEnsureUpstreamPinned(testInstance *testing.T) {
	_, validationRoot := writeWorkspaceFixture(testInstance)

	testCases := []struct {
		name        string
		headCommit  string
		expectDrift bool
	}{
		{name: "pinned", headCommit: testMatchingHeadCommitConstant, expectDrift: false},
		{name: "drifted", headCommit: testDriftedHeadCommitConstant, expectDrift: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			gitLocator := &stubGitLocator{toplevelPath: validationRoot, headCommit: testCase.headCommit}
			loader, creationError := workspace.NewLoader(gitLocator)
			require.NoError(testInstance, creationError)

			trackingWorkspace, loadError := loader.Load(context.Background(), validationRoot, "")
			require.NoError(testInstance, loadError)

			pinError := loader.EnsureUpstreamPinned(context.Background(), trackingWorkspace)
			if testCase.expectDrift {
				driftError := workspace.UpstreamNotPinnedError{}
				require.ErrorAs(testInstance, pinError, &driftError)
				require.Equal(testInstance, testRecordedUpstreamCommitConstant, driftError.ExpectedCommit)
			} else {
				require.NoError(testInstance, pinError)
			}
		})
	}
}

func TestEnsureUpstreamPinnedSkipsUnpinnedConfiguration(testInstance *testing.T) {
	_, validationRoot := writeWorkspaceFixture(testInstance)
	configPath := filepath.Join(validationRoot, trackcfg.ConfigFileName)
	unpinnedContent := "[git-source-track]\nupstream_root = ../upstream\nvalidation_root = .\n"
	require.NoError(testInstance, os.WriteFile(configPath, []byte(unpinnedContent), 0o644))

	loader, creationError := workspace.NewLoader(&stubGitLocator{toplevelPath: validationRoot, headCommit: testDriftedHeadCommitConstant})
	require.NoError(testInstance, creationError)

	trackingWorkspace, loadError := loader.Load(context.Background(), validationRoot, "")
	require.NoError(testInstance, loadError)
	require.NoError(testInstance, loader.EnsureUpstreamPinned(context.Background(), trackingWorkspace))
}
