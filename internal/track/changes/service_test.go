package changes_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/portward/sourcetrack/internal/gitcmd"
	"github.com/portward/sourcetrack/internal/marker"
	"github.com/portward/sourcetrack/internal/pairing"
	"github.com/portward/sourcetrack/internal/track/changes"
	"github.com/portward/sourcetrack/internal/trackcfg"
	"github.com/portward/sourcetrack/internal/workspace"
)

const (
	testReviewedCommitConstant       = "a1b2c3d4e5f6"
	testNewerCommitHashConstant      = "1111111111111111111111111111111111111111"
	testOlderCommitHashConstant      = "2222222222222222222222222222222222222222"
	testExcludedCommitHashConstant   = "3333333333333333333333333333333333333333"
	testTrackedRelativePathConstant  = "wpilib/drive.py"
	testRecordedUpstreamPathConstant = "wpilib/_impl/drive.py"
)

type stubGitHistorian struct {
	commitsByPath      map[string][]gitcmd.CommitInfo
	patchesByPath      map[string]string
	contentByReference map[string]string
	rangeDiffsByPath   map[string]string
	recordedSince      []string
	recordedDiffRanges []string
}

func (historian *stubGitHistorian) FileLog(executionContext context.Context, repositoryPath string, relativeFilePath string, sinceCommit string) ([]gitcmd.CommitInfo, error) {
	historian.recordedSince = append(historian.recordedSince, sinceCommit)
	return historian.commitsByPath[relativeFilePath], nil
}

func (historian *stubGitHistorian) FilePatchLog(executionContext context.Context, repositoryPath string, relativeFilePath string, sinceCommit string) (string, error) {
	return historian.patchesByPath[relativeFilePath], nil
}

func (historian *stubGitHistorian) Show(executionContext context.Context, repositoryPath string, commitReference string, relativeFilePath string) (string, error) {
	return historian.contentByReference[commitReference+":"+relativeFilePath], nil
}

func (historian *stubGitHistorian) Diff(executionContext context.Context, repositoryPath string, oldReference string, newReference string, relativeFilePath string) (string, error) {
	historian.recordedDiffRanges = append(historian.recordedDiffRanges, oldReference+".."+newReference)
	return historian.rangeDiffsByPath[relativeFilePath], nil
}

type fixtureWorkspaceLoader struct {
	trackingWorkspace *workspace.Workspace
	pinError          error
	pinCheckCount     int
}

func (loader *fixtureWorkspaceLoader) Load(executionContext context.Context, workingDirectory string, explicitConfigPath string) (*workspace.Workspace, error) {
	return loader.trackingWorkspace, nil
}

func (loader *fixtureWorkspaceLoader) EnsureUpstreamPinned(executionContext context.Context, trackingWorkspace *workspace.Workspace) error {
	loader.pinCheckCount++
	return loader.pinError
}

func buildChangesFixture(testInstance *testing.T, reviewMarker *marker.Marker) (*workspace.Workspace, string) {
	testInstance.Helper()
	baseDirectory := testInstance.TempDir()
	upstreamRoot := filepath.Join(baseDirectory, "upstream")
	validationRoot := filepath.Join(baseDirectory, "validation")

	for _, relativePath := range []string{testTrackedRelativePathConstant, testRecordedUpstreamPathConstant} {
		upstreamFilePath := filepath.Join(upstreamRoot, filepath.FromSlash(relativePath))
		require.NoError(testInstance, os.MkdirAll(filepath.Dir(upstreamFilePath), 0o755))
		require.NoError(testInstance, os.WriteFile(upstreamFilePath, []byte("pass\n"), 0o644))
	}

	validationFilePath := filepath.Join(validationRoot, filepath.FromSlash(testTrackedRelativePathConstant))
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(validationFilePath), 0o755))
	require.NoError(testInstance, os.WriteFile(validationFilePath, []byte("pass\n"), 0o644))

	if reviewMarker != nil {
		markerStore := marker.NewStore(marker.DefaultConvention())
		require.NoError(testInstance, markerStore.Write(validationFilePath, *reviewMarker))
	}

	excludeFilePath := filepath.Join(baseDirectory, "exclude_commits.txt")
	require.NoError(testInstance, os.WriteFile(excludeFilePath, []byte(testExcludedCommitHashConstant+"\n"), 0o644))

	configuration := trackcfg.Configuration{
		UpstreamRoot:       upstreamRoot,
		UpstreamCommit:     testReviewedCommitConstant,
		ValidationRoot:     validationRoot,
		ExcludeCommitsFile: excludeFilePath,
	}
	excludeSet, excludeError := trackcfg.LoadExcludeSet(configuration)
	require.NoError(testInstance, excludeError)

	trackingWorkspace := &workspace.Workspace{
		Configuration: configuration,
		Excludes:      excludeSet,
		Resolver:      pairing.NewResolver(upstreamRoot, validationRoot),
	}
	return trackingWorkspace, validationFilePath
}

func buildChangesService(testInstance *testing.T, trackingWorkspace *workspace.Workspace, historian *stubGitHistorian, loader *fixtureWorkspaceLoader) *changes.Service {
	testInstance.Helper()
	if loader == nil {
		loader = &fixtureWorkspaceLoader{trackingWorkspace: trackingWorkspace}
	}
	service, serviceError := changes.NewService(changes.Dependencies{
		GitHistorian:    historian,
		WorkspaceLoader: loader,
		MarkerReader:    marker.NewStore(marker.DefaultConvention()),
	})
	require.NoError(testInstance, serviceError)
	return service
}

func reviewedMarker() *marker.Marker {
	return &marker.Marker{ReviewDate: "2015-12-24", ReviewerInitials: "DS", CommitHash: testReviewedCommitConstant}
}

func TestChangesMergesCommitsNewestFirstAndFiltersExcluded(testInstance *testing.T) {
	trackingWorkspace, validationFilePath := buildChangesFixture(testInstance, reviewedMarker())
	historian := &stubGitHistorian{commitsByPath: map[string][]gitcmd.CommitInfo{
		testTrackedRelativePathConstant: {
			{Hash: testOlderCommitHashConstant, Timestamp: 100, Author: "Dustin Spicuzza", Date: "2016-01-02", Subject: "Tune deadband"},
			{Hash: testNewerCommitHashConstant, Timestamp: 200, Author: "Dustin Spicuzza", Date: "2016-01-05", Subject: "Fix arcade drive"},
			{Hash: testExcludedCommitHashConstant, Timestamp: 150, Author: "Dustin Spicuzza", Date: "2016-01-03", Subject: "Reformat sources"},
		},
	}}
	service := buildChangesService(testInstance, trackingWorkspace, historian, nil)

	changesResult, changesError := service.Changes(context.Background(), changes.Options{FilePath: validationFilePath})
	require.NoError(testInstance, changesError)
	require.Equal(testInstance, testTrackedRelativePathConstant, changesResult.RelativePath)
	require.Equal(testInstance, []string{testTrackedRelativePathConstant}, changesResult.UpstreamPaths)
	require.Len(testInstance, changesResult.Commits, 2)
	require.Equal(testInstance, testNewerCommitHashConstant, changesResult.Commits[0].Hash)
	require.Equal(testInstance, testOlderCommitHashConstant, changesResult.Commits[1].Hash)
	require.Equal(testInstance, 1, changesResult.ExcludedCount)
	require.Equal(testInstance, []string{testReviewedCommitConstant}, historian.recordedSince)
}

func TestChangesUsesRecordedUpstreamPaths(testInstance *testing.T) {
	recordedMarker := reviewedMarker()
	recordedMarker.UpstreamPaths = []string{testRecordedUpstreamPathConstant}
	trackingWorkspace, validationFilePath := buildChangesFixture(testInstance, recordedMarker)
	historian := &stubGitHistorian{commitsByPath: map[string][]gitcmd.CommitInfo{
		testRecordedUpstreamPathConstant: {
			{Hash: testNewerCommitHashConstant, Timestamp: 200, Author: "Dustin Spicuzza", Date: "2016-01-05", Subject: "Move drive implementation"},
		},
	}}
	service := buildChangesService(testInstance, trackingWorkspace, historian, nil)

	changesResult, changesError := service.Changes(context.Background(), changes.Options{FilePath: validationFilePath})
	require.NoError(testInstance, changesError)
	require.Equal(testInstance, []string{testRecordedUpstreamPathConstant}, changesResult.UpstreamPaths)
	require.Len(testInstance, changesResult.Commits, 1)
}

func TestChangesCollectsPatchesWhenRequested(testInstance *testing.T) {
	trackingWorkspace, validationFilePath := buildChangesFixture(testInstance, reviewedMarker())
	historian := &stubGitHistorian{
		commitsByPath: map[string][]gitcmd.CommitInfo{},
		patchesByPath: map[string]string{testTrackedRelativePathConstant: "diff --git a/wpilib/drive.py b/wpilib/drive.py\n"},
	}
	service := buildChangesService(testInstance, trackingWorkspace, historian, nil)

	changesResult, changesError := service.Changes(context.Background(), changes.Options{FilePath: validationFilePath, ShowPatch: true})
	require.NoError(testInstance, changesError)
	require.Len(testInstance, changesResult.Patches, 1)
}

func TestChangesReportsNoTrackFiles(testInstance *testing.T) {
	trackingWorkspace, validationFilePath := buildChangesFixture(testInstance, &marker.Marker{NoTrack: true})
	service := buildChangesService(testInstance, trackingWorkspace, &stubGitHistorian{}, nil)

	changesResult, changesError := service.Changes(context.Background(), changes.Options{FilePath: validationFilePath})
	require.NoError(testInstance, changesError)
	require.True(testInstance, changesResult.NoTrack)
}

func TestChangesRejectsUntrackedFiles(testInstance *testing.T) {
	trackingWorkspace, validationFilePath := buildChangesFixture(testInstance, nil)
	service := buildChangesService(testInstance, trackingWorkspace, &stubGitHistorian{}, nil)

	_, changesError := service.Changes(context.Background(), changes.Options{FilePath: validationFilePath})
	notTracked := changes.NotTrackedError{}
	require.ErrorAs(testInstance, changesError, &notTracked)
	require.Equal(testInstance, testTrackedRelativePathConstant, notTracked.RelativePath)
}

func TestChangesEnforcesUpstreamPin(testInstance *testing.T) {
	trackingWorkspace, validationFilePath := buildChangesFixture(testInstance, reviewedMarker())
	loader := &fixtureWorkspaceLoader{
		trackingWorkspace: trackingWorkspace,
		pinError:          workspace.UpstreamNotPinnedError{ExpectedCommit: testReviewedCommitConstant, ActualCommit: testNewerCommitHashConstant},
	}
	service := buildChangesService(testInstance, trackingWorkspace, &stubGitHistorian{}, loader)

	_, changesError := service.Changes(context.Background(), changes.Options{FilePath: validationFilePath})
	pinDrift := workspace.UpstreamNotPinnedError{}
	require.ErrorAs(testInstance, changesError, &pinDrift)
	require.Equal(testInstance, 1, loader.pinCheckCount)
}

func TestShowLogListsFullUpstreamHistory(testInstance *testing.T) {
	trackingWorkspace, _ := buildChangesFixture(testInstance, reviewedMarker())
	historian := &stubGitHistorian{commitsByPath: map[string][]gitcmd.CommitInfo{
		testTrackedRelativePathConstant: {
			{Hash: testNewerCommitHashConstant, Timestamp: 200, Author: "Dustin Spicuzza", Date: "2016-01-05", Subject: "Fix arcade drive"},
			{Hash: testExcludedCommitHashConstant, Timestamp: 150, Author: "Dustin Spicuzza", Date: "2016-01-03", Subject: "Reformat sources"},
			{Hash: testOlderCommitHashConstant, Timestamp: 100, Author: "Dustin Spicuzza", Date: "2016-01-02", Subject: "Tune deadband"},
		},
	}}
	service := buildChangesService(testInstance, trackingWorkspace, historian, nil)

	showLogResult, showLogError := service.ShowLog(context.Background(), changes.Options{FilePath: testTrackedRelativePathConstant})
	require.NoError(testInstance, showLogError)
	require.Equal(testInstance, testTrackedRelativePathConstant, showLogResult.UpstreamPath)
	require.Len(testInstance, showLogResult.Commits, 2)
	require.Equal(testInstance, 1, showLogResult.ExcludedCount)
	require.Equal(testInstance, []string{""}, historian.recordedSince)
}

func TestShowLogResolvesVanishedPathThroughSuggestions(testInstance *testing.T) {
	trackingWorkspace, _ := buildChangesFixture(testInstance, reviewedMarker())
	renamedUpstreamPath := filepath.Join(trackingWorkspace.Configuration.UpstreamRoot, "wpilib", "robot_drive.py")
	require.NoError(testInstance, os.WriteFile(renamedUpstreamPath, []byte("pass\n"), 0o644))
	historian := &stubGitHistorian{commitsByPath: map[string][]gitcmd.CommitInfo{
		"wpilib/robot_drive.py": {
			{Hash: testNewerCommitHashConstant, Timestamp: 200, Author: "Dustin Spicuzza", Date: "2016-01-05", Subject: "Rename drive implementation"},
		},
	}}
	service := buildChangesService(testInstance, trackingWorkspace, historian, nil)

	showLogResult, showLogError := service.ShowLog(context.Background(), changes.Options{FilePath: "old/robotdrive.py"})
	require.NoError(testInstance, showLogError)
	require.Equal(testInstance, "wpilib/robot_drive.py", showLogResult.UpstreamPath)
	require.Len(testInstance, showLogResult.Commits, 1)
}

func TestShowLogRejectsUnresolvablePaths(testInstance *testing.T) {
	trackingWorkspace, _ := buildChangesFixture(testInstance, reviewedMarker())
	service := buildChangesService(testInstance, trackingWorkspace, &stubGitHistorian{}, nil)

	_, missingError := service.ShowLog(context.Background(), changes.Options{FilePath: "old/gyro.py"})
	matchError := changes.UpstreamMatchError{}
	require.ErrorAs(testInstance, missingError, &matchError)
	require.Empty(testInstance, matchError.Suggestions)

	_, ambiguousError := service.ShowLog(context.Background(), changes.Options{FilePath: "old/drive.py"})
	require.ErrorAs(testInstance, ambiguousError, &matchError)
	require.Equal(testInstance, []string{testRecordedUpstreamPathConstant, testTrackedRelativePathConstant}, matchError.Suggestions)
}

func TestDiffRunsGitRangeDiffWithPendingCommits(testInstance *testing.T) {
	trackingWorkspace, validationFilePath := buildChangesFixture(testInstance, reviewedMarker())
	historian := &stubGitHistorian{
		commitsByPath: map[string][]gitcmd.CommitInfo{
			testTrackedRelativePathConstant: {
				{Hash: testNewerCommitHashConstant, Timestamp: 200, Author: "Dustin Spicuzza", Date: "2016-01-05", Subject: "Fix arcade drive"},
			},
		},
		rangeDiffsByPath: map[string]string{
			testTrackedRelativePathConstant: "diff --git a/wpilib/drive.py b/wpilib/drive.py\n",
		},
	}
	service := buildChangesService(testInstance, trackingWorkspace, historian, nil)

	diffResult, diffError := service.Diff(context.Background(), changes.Options{FilePath: validationFilePath})
	require.NoError(testInstance, diffError)
	require.Len(testInstance, diffResult.Commits, 1)
	require.Len(testInstance, diffResult.FileDiffs, 1)
	require.Equal(testInstance, []string{testReviewedCommitConstant + "..HEAD"}, historian.recordedDiffRanges)
}

func TestDiffSnapshotRendersUnifiedDiffPerUpstreamPath(testInstance *testing.T) {
	trackingWorkspace, validationFilePath := buildChangesFixture(testInstance, reviewedMarker())
	historian := &stubGitHistorian{contentByReference: map[string]string{
		testReviewedCommitConstant + ":" + testTrackedRelativePathConstant: "def drive():\n    pass\n",
		"HEAD:" + testTrackedRelativePathConstant:                         "def drive():\n    return None\n",
	}}
	service := buildChangesService(testInstance, trackingWorkspace, historian, nil)

	diffResult, diffError := service.Diff(context.Background(), changes.Options{FilePath: validationFilePath, Snapshot: true})
	require.NoError(testInstance, diffError)
	require.Empty(testInstance, historian.recordedDiffRanges)
	require.Len(testInstance, diffResult.FileDiffs, 1)
	require.Equal(testInstance, testTrackedRelativePathConstant, diffResult.FileDiffs[0].UpstreamPath)
	require.Contains(testInstance, diffResult.FileDiffs[0].UnifiedDiff, "-    pass")
	require.Contains(testInstance, diffResult.FileDiffs[0].UnifiedDiff, "+    return None")
	require.Contains(testInstance, diffResult.FileDiffs[0].UnifiedDiff, testTrackedRelativePathConstant+"@"+testReviewedCommitConstant)
}

func TestDiffSnapshotSkipsIdenticalContent(testInstance *testing.T) {
	trackingWorkspace, validationFilePath := buildChangesFixture(testInstance, reviewedMarker())
	historian := &stubGitHistorian{contentByReference: map[string]string{
		testReviewedCommitConstant + ":" + testTrackedRelativePathConstant: "pass\n",
		"HEAD:" + testTrackedRelativePathConstant:                         "pass\n",
	}}
	service := buildChangesService(testInstance, trackingWorkspace, historian, nil)

	diffResult, diffError := service.Diff(context.Background(), changes.Options{FilePath: validationFilePath, Snapshot: true})
	require.NoError(testInstance, diffError)
	require.Empty(testInstance, diffResult.FileDiffs)
}
