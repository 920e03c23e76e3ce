package pairing_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/portward/sourcetrack/internal/pairing"
)

func writePairedTrees(testInstance *testing.T) (string, string) {
	testInstance.Helper()
	baseDirectory := testInstance.TempDir()
	upstreamRoot := filepath.Join(baseDirectory, "upstream")
	validationRoot := filepath.Join(baseDirectory, "validation")

	upstreamFiles := []string{
		"wpilib/drive.py",
		"wpilib/command/trigger.py",
		"wpilib/robot_drive.py",
		"wpilib/RobotDrive.java",
	}
	for _, upstreamFile := range upstreamFiles {
		fullPath := filepath.Join(upstreamRoot, filepath.FromSlash(upstreamFile))
		require.NoError(testInstance, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(testInstance, os.WriteFile(fullPath, []byte("pass\n"), 0o644))
	}

	validationFiles := []string{
		"wpilib/drive.py",
		"wpilib/command/trigger.py",
		"wpilib/__init__.py",
		"README.md",
	}
	for _, validationFile := range validationFiles {
		fullPath := filepath.Join(validationRoot, filepath.FromSlash(validationFile))
		require.NoError(testInstance, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(testInstance, os.WriteFile(fullPath, []byte("pass\n"), 0o644))
	}
	hiddenFilePath := filepath.Join(validationRoot, ".tox", "generated.py")
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(hiddenFilePath), 0o755))
	require.NoError(testInstance, os.WriteFile(hiddenFilePath, []byte("pass\n"), 0o644))

	return upstreamRoot, validationRoot
}

func TestRelativeValidationPathResolvesInsideTree(testInstance *testing.T) {
	upstreamRoot, validationRoot := writePairedTrees(testInstance)
	resolver := pairing.NewResolver(upstreamRoot, validationRoot)

	relativePath, resolveError := resolver.RelativeValidationPath(filepath.Join(validationRoot, "wpilib", "drive.py"))
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, "wpilib/drive.py", relativePath)
}

func TestRelativeValidationPathRejectsOutsideAndMissingPaths(testInstance *testing.T) {
	upstreamRoot, validationRoot := writePairedTrees(testInstance)
	resolver := pairing.NewResolver(upstreamRoot, validationRoot)

	_, outsideError := resolver.RelativeValidationPath(filepath.Join(upstreamRoot, "wpilib", "drive.py"))
	resolutionError := pairing.ResolutionError{}
	require.ErrorAs(testInstance, outsideError, &resolutionError)

	_, missingError := resolver.RelativeValidationPath(filepath.Join(validationRoot, "wpilib", "absent.py"))
	require.ErrorAs(testInstance, missingError, &resolutionError)
}

func TestRelativeValidationPathAcceptsRootRelativeInput(testInstance *testing.T) {
	upstreamRoot, validationRoot := writePairedTrees(testInstance)
	resolver := pairing.NewResolver(upstreamRoot, validationRoot)

	relativePath, resolveError := resolver.RelativeValidationPath("wpilib/drive.py")
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, "wpilib/drive.py", relativePath)

	require.Equal(testInstance,
		filepath.Join(validationRoot, "wpilib", "drive.py"),
		resolver.ValidationFilePath("wpilib/drive.py"))
}

func TestUpstreamPathsPreferRecordedMarkerPaths(testInstance *testing.T) {
	upstreamRoot, validationRoot := writePairedTrees(testInstance)
	resolver := pairing.NewResolver(upstreamRoot, validationRoot)

	recordedPaths := resolver.UpstreamPaths("wpilib/drive.py", []string{"wpilib/command/trigger.py"})
	require.Equal(testInstance, []string{"wpilib/command/trigger.py"}, recordedPaths)

	mirroredPaths := resolver.UpstreamPaths("wpilib/drive.py", nil)
	require.Equal(testInstance, []string{"wpilib/drive.py"}, mirroredPaths)
}

func TestUpstreamPathExists(testInstance *testing.T) {
	upstreamRoot, validationRoot := writePairedTrees(testInstance)
	resolver := pairing.NewResolver(upstreamRoot, validationRoot)

	require.True(testInstance, resolver.UpstreamPathExists("wpilib/drive.py"))
	require.False(testInstance, resolver.UpstreamPathExists("wpilib/moved.py"))
	require.False(testInstance, resolver.UpstreamPathExists("wpilib"))
}

func TestSuggestionsMatchNormalizedBaseNames(testInstance *testing.T) {
	upstreamRoot, validationRoot := writePairedTrees(testInstance)
	resolver := pairing.NewResolver(upstreamRoot, validationRoot)

	suggestions, suggestionError := resolver.Suggestions("old/robotdrive.py")
	require.NoError(testInstance, suggestionError)
	require.Equal(testInstance, []string{"wpilib/RobotDrive.java", "wpilib/robot_drive.py"}, suggestions)

	emptySuggestions, emptyError := resolver.Suggestions("old/gyro.py")
	require.NoError(testInstance, emptyError)
	require.Empty(testInstance, emptySuggestions)
}

func TestIsTrackableSkipsPackageMarkers(testInstance *testing.T) {
	require.True(testInstance, pairing.IsTrackable("wpilib/drive.py"))
	require.False(testInstance, pairing.IsTrackable("wpilib/__init__.py"))
	require.False(testInstance, pairing.IsTrackable("README.md"))
}

func TestEnumerateTrackableFilesSkipsHiddenAndUntrackable(testInstance *testing.T) {
	upstreamRoot, validationRoot := writePairedTrees(testInstance)
	resolver := pairing.NewResolver(upstreamRoot, validationRoot)

	trackableFiles, enumerateError := resolver.EnumerateTrackableFiles()
	require.NoError(testInstance, enumerateError)
	require.Equal(testInstance, []string{"wpilib/command/trigger.py", "wpilib/drive.py"}, trackableFiles)
}
