package changes

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ianbruene/go-difflib/difflib"

	"github.com/portward/sourcetrack/internal/gitcmd"
	"github.com/portward/sourcetrack/internal/marker"
	"github.com/portward/sourcetrack/internal/workspace"
)

const (
	missingDependenciesMessageConstant = "changes service requires a git historian, workspace loader, and marker reader"
	notTrackedMessageTemplateConstant  = "%s is not currently tracked; run 'git source-track init %s' to start tracking it"
	noUpstreamMatchTemplateConstant    = "%s does not match any upstream file"
	ambiguousUpstreamMatchTemplate     = "%s matches multiple upstream files; candidates: %s"
	upstreamCandidateSeparatorConstant = ", "
	diffContextLineCountConstant       = 3
	diffLabelTemplateConstant          = "%s@%s"
	headReferenceConstant              = "HEAD"
)

// ErrMissingDependencies indicates the service was constructed without required collaborators.
var ErrMissingDependencies = fmt.Errorf(missingDependenciesMessageConstant)

// NotTrackedError reports a file that carries no review marker.
type NotTrackedError struct {
	RelativePath string
}

// Error describes the untracked file and the remedy.
func (trackedError NotTrackedError) Error() string {
	return fmt.Sprintf(notTrackedMessageTemplateConstant, trackedError.RelativePath, trackedError.RelativePath)
}

// UpstreamMatchError reports a path that could not be resolved to exactly one
// upstream file.
type UpstreamMatchError struct {
	UpstreamPath string
	Suggestions  []string
}

// Error names the unmatched path and any competing candidates.
func (matchError UpstreamMatchError) Error() string {
	if len(matchError.Suggestions) == 0 {
		return fmt.Sprintf(noUpstreamMatchTemplateConstant, matchError.UpstreamPath)
	}
	return fmt.Sprintf(ambiguousUpstreamMatchTemplate, matchError.UpstreamPath, strings.Join(matchError.Suggestions, upstreamCandidateSeparatorConstant))
}

// Dependencies wires the collaborators used by the service.
type Dependencies struct {
	GitHistorian    GitHistorian
	WorkspaceLoader WorkspaceLoader
	MarkerReader    MarkerReader
}

// Options describe one changes or diff invocation.
type Options struct {
	WorkingDirectory string
	ConfigPath       string
	FilePath         string
	ShowPatch        bool
	Snapshot         bool
}

// Result carries the upstream commits recorded since the file's last review.
type Result struct {
	RelativePath  string
	NoTrack       bool
	ReviewMarker  marker.Marker
	UpstreamPaths []string
	Commits       []gitcmd.CommitInfo
	Patches       []string
	ExcludedCount int
}

// FileDiff holds the unified diff of one upstream path between the reviewed
// commit and the current upstream head.
type FileDiff struct {
	UpstreamPath string
	UnifiedDiff  string
}

// DiffResult carries the pending commits and per-path diffs for one tracked file.
type DiffResult struct {
	RelativePath  string
	NoTrack       bool
	CommitHash    string
	Commits       []gitcmd.CommitInfo
	ExcludedCount int
	FileDiffs     []FileDiff
}

// ShowLogResult carries the full upstream history of one upstream path.
type ShowLogResult struct {
	UpstreamPath  string
	Commits       []gitcmd.CommitInfo
	ExcludedCount int
}

// Service reports what changed upstream since a file was last reviewed.
type Service struct {
	gitHistorian    GitHistorian
	workspaceLoader WorkspaceLoader
	markerReader    MarkerReader
}

// NewService validates dependencies and constructs the service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.GitHistorian == nil || dependencies.WorkspaceLoader == nil || dependencies.MarkerReader == nil {
		return nil, ErrMissingDependencies
	}
	return &Service{
		gitHistorian:    dependencies.GitHistorian,
		workspaceLoader: dependencies.WorkspaceLoader,
		markerReader:    dependencies.MarkerReader,
	}, nil
}

// Changes lists the upstream commits touching the file's upstream paths since
// the reviewed commit, newest first, with excluded commits filtered out.
func (service *Service) Changes(executionContext context.Context, options Options) (Result, error) {
	trackingWorkspace, relativePath, reviewMarker, resolveError := service.resolveTrackedFile(executionContext, options)
	if resolveError != nil {
		return Result{}, resolveError
	}
	if reviewMarker.NoTrack {
		return Result{RelativePath: relativePath, NoTrack: true}, nil
	}

	upstreamPaths := trackingWorkspace.Resolver.UpstreamPaths(relativePath, reviewMarker.UpstreamPaths)

	mergedCommits, excludedCount, collectError := service.collectPendingCommits(executionContext, trackingWorkspace, reviewMarker.CommitHash, upstreamPaths)
	if collectError != nil {
		return Result{}, collectError
	}

	patches := []string{}
	if options.ShowPatch {
		for _, upstreamPath := range upstreamPaths {
			pathPatch, patchError := service.gitHistorian.FilePatchLog(executionContext, trackingWorkspace.Configuration.UpstreamRoot, upstreamPath, reviewMarker.CommitHash)
			if patchError != nil {
				return Result{}, patchError
			}
			if strings.TrimSpace(pathPatch) != "" {
				patches = append(patches, pathPatch)
			}
		}
	}

	return Result{
		RelativePath:  relativePath,
		ReviewMarker:  *reviewMarker,
		UpstreamPaths: upstreamPaths,
		Commits:       mergedCommits,
		Patches:       patches,
		ExcludedCount: excludedCount,
	}, nil
}

// Diff lists the pending upstream commits and renders each upstream path's
// difference between the reviewed commit and the current upstream head: a git
// range diff by default, or an in-process snapshot comparison when requested.
func (service *Service) Diff(executionContext context.Context, options Options) (DiffResult, error) {
	trackingWorkspace, relativePath, reviewMarker, resolveError := service.resolveTrackedFile(executionContext, options)
	if resolveError != nil {
		return DiffResult{}, resolveError
	}
	if reviewMarker.NoTrack {
		return DiffResult{RelativePath: relativePath, NoTrack: true}, nil
	}

	upstreamPaths := trackingWorkspace.Resolver.UpstreamPaths(relativePath, reviewMarker.UpstreamPaths)

	pendingCommits, excludedCount, collectError := service.collectPendingCommits(executionContext, trackingWorkspace, reviewMarker.CommitHash, upstreamPaths)
	if collectError != nil {
		return DiffResult{}, collectError
	}

	fileDiffs := []FileDiff{}
	for _, upstreamPath := range upstreamPaths {
		var unifiedDiff string
		var diffError error
		if options.Snapshot {
			unifiedDiff, diffError = service.snapshotDiff(executionContext, trackingWorkspace, reviewMarker.CommitHash, upstreamPath)
		} else {
			unifiedDiff, diffError = service.gitHistorian.Diff(executionContext, trackingWorkspace.Configuration.UpstreamRoot, reviewMarker.CommitHash, headReferenceConstant, upstreamPath)
		}
		if diffError != nil {
			return DiffResult{}, diffError
		}
		if strings.TrimSpace(unifiedDiff) == "" {
			continue
		}
		fileDiffs = append(fileDiffs, FileDiff{UpstreamPath: upstreamPath, UnifiedDiff: unifiedDiff})
	}

	return DiffResult{
		RelativePath:  relativePath,
		CommitHash:    reviewMarker.CommitHash,
		Commits:       pendingCommits,
		ExcludedCount: excludedCount,
		FileDiffs:     fileDiffs,
	}, nil
}

// ShowLog renders the full upstream history of an upstream path. A path that
// no longer exists upstream is matched through base-name suggestions and must
// resolve to exactly one candidate.
func (service *Service) ShowLog(executionContext context.Context, options Options) (ShowLogResult, error) {
	trackingWorkspace, loadError := service.workspaceLoader.Load(executionContext, options.WorkingDirectory, options.ConfigPath)
	if loadError != nil {
		return ShowLogResult{}, loadError
	}

	upstreamPath := options.FilePath
	if !trackingWorkspace.Resolver.UpstreamPathExists(upstreamPath) {
		suggestions, suggestionError := trackingWorkspace.Resolver.Suggestions(upstreamPath)
		if suggestionError != nil {
			return ShowLogResult{}, suggestionError
		}
		if len(suggestions) != 1 {
			return ShowLogResult{}, UpstreamMatchError{UpstreamPath: upstreamPath, Suggestions: suggestions}
		}
		upstreamPath = suggestions[0]
	}

	historyCommits, excludedCount, collectError := service.collectPendingCommits(executionContext, trackingWorkspace, "", []string{upstreamPath})
	if collectError != nil {
		return ShowLogResult{}, collectError
	}

	return ShowLogResult{
		UpstreamPath:  upstreamPath,
		Commits:       historyCommits,
		ExcludedCount: excludedCount,
	}, nil
}

func (service *Service) snapshotDiff(executionContext context.Context, trackingWorkspace *workspace.Workspace, reviewedCommit string, upstreamPath string) (string, error) {
	reviewedContent, reviewedError := service.gitHistorian.Show(executionContext, trackingWorkspace.Configuration.UpstreamRoot, reviewedCommit, upstreamPath)
	if reviewedError != nil {
		return "", reviewedError
	}
	currentContent, currentError := service.gitHistorian.Show(executionContext, trackingWorkspace.Configuration.UpstreamRoot, headReferenceConstant, upstreamPath)
	if currentError != nil {
		return "", currentError
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(reviewedContent),
		B:        difflib.SplitLines(currentContent),
		FromFile: fmt.Sprintf(diffLabelTemplateConstant, upstreamPath, reviewedCommit),
		ToFile:   fmt.Sprintf(diffLabelTemplateConstant, upstreamPath, headReferenceConstant),
		Context:  diffContextLineCountConstant,
	})
}

func (service *Service) collectPendingCommits(executionContext context.Context, trackingWorkspace *workspace.Workspace, reviewedCommit string, upstreamPaths []string) ([]gitcmd.CommitInfo, int, error) {
	seenCommitHashes := map[string]bool{}
	mergedCommits := []gitcmd.CommitInfo{}
	excludedCount := 0
	for _, upstreamPath := range upstreamPaths {
		pathCommits, logError := service.gitHistorian.FileLog(executionContext, trackingWorkspace.Configuration.UpstreamRoot, upstreamPath, reviewedCommit)
		if logError != nil {
			return nil, 0, logError
		}
		for _, pathCommit := range pathCommits {
			if seenCommitHashes[pathCommit.Hash] {
				continue
			}
			seenCommitHashes[pathCommit.Hash] = true
			if trackingWorkspace.Excludes.Contains(pathCommit.Hash) {
				excludedCount++
				continue
			}
			mergedCommits = append(mergedCommits, pathCommit)
		}
	}

	sort.SliceStable(mergedCommits, func(firstIndex int, secondIndex int) bool {
		return mergedCommits[firstIndex].Timestamp > mergedCommits[secondIndex].Timestamp
	})
	return mergedCommits, excludedCount, nil
}

func (service *Service) resolveTrackedFile(executionContext context.Context, options Options) (*workspace.Workspace, string, *marker.Marker, error) {
	trackingWorkspace, loadError := service.workspaceLoader.Load(executionContext, options.WorkingDirectory, options.ConfigPath)
	if loadError != nil {
		return nil, "", nil, loadError
	}
	if pinError := service.workspaceLoader.EnsureUpstreamPinned(executionContext, trackingWorkspace); pinError != nil {
		return nil, "", nil, pinError
	}

	relativePath, pathError := trackingWorkspace.Resolver.RelativeValidationPath(options.FilePath)
	if pathError != nil {
		return nil, "", nil, pathError
	}

	reviewMarker, readError := service.markerReader.Read(trackingWorkspace.Resolver.ValidationFilePath(relativePath))
	if readError != nil {
		return nil, "", nil, readError
	}
	if reviewMarker == nil {
		return nil, "", nil, NotTrackedError{RelativePath: relativePath}
	}
	return trackingWorkspace, relativePath, reviewMarker, nil
}
