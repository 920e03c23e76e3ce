package status

import (
	"context"
	"fmt"

	"github.com/portward/sourcetrack/internal/workspace"
)

const (
	missingDependenciesMessageConstant  = "status service requires a git historian, workspace loader, and marker reader"
	upstreamPathMissingTemplateConstant = "upstream path %s does not exist"
)

// ErrMissingDependencies indicates the service was constructed without required collaborators.
var ErrMissingDependencies = fmt.Errorf(missingDependenciesMessageConstant)

// FileState classifies one trackable file.
type FileState string

const (
	// FileStateCurrent marks files whose upstream paths carry no new commits.
	FileStateCurrent FileState = "ok"
	// FileStateStale marks files with upstream commits newer than the reviewed one.
	FileStateStale FileState = "stale"
	// FileStateUntracked marks trackable files without a review marker.
	FileStateUntracked FileState = "untracked"
	// FileStateNoTrack marks files carrying a notrack marker.
	FileStateNoTrack FileState = "notrack"
	// FileStateError marks files whose classification failed.
	FileStateError FileState = "error"
)

// FileReport describes the tracking state of one validation file.
type FileReport struct {
	RelativePath     string
	State            FileState
	CommitHash       string
	StaleCommitCount int
	FailureReason    string
}

// Summary aggregates per-state counts across the validation tree.
type Summary struct {
	TotalCount     int
	CurrentCount   int
	StaleCount     int
	UntrackedCount int
	NoTrackCount   int
	ErrorCount     int
}

// Result carries the per-file reports and the aggregate summary.
type Result struct {
	Reports []FileReport
	Summary Summary
}

// Dependencies wires the collaborators used by the service.
type Dependencies struct {
	GitHistorian    GitHistorian
	WorkspaceLoader WorkspaceLoader
	MarkerReader    MarkerReader
}

// Options describe one status invocation. FilePath narrows the report to a
// single validation file when set.
type Options struct {
	WorkingDirectory string
	ConfigPath       string
	FilePath         string
}

// Service classifies every trackable validation file against upstream history.
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

// Status walks the validation tree and reports every trackable file's state.
// A failure classifying one file is recorded on that file's report and does
// not abort the walk.
func (service *Service) Status(executionContext context.Context, options Options) (Result, error) {
	trackingWorkspace, loadError := service.workspaceLoader.Load(executionContext, options.WorkingDirectory, options.ConfigPath)
	if loadError != nil {
		return Result{}, loadError
	}
	if pinError := service.workspaceLoader.EnsureUpstreamPinned(executionContext, trackingWorkspace); pinError != nil {
		return Result{}, pinError
	}

	var trackableFiles []string
	if options.FilePath != "" {
		relativePath, relativePathError := trackingWorkspace.Resolver.RelativeValidationPath(options.FilePath)
		if relativePathError != nil {
			return Result{}, relativePathError
		}
		trackableFiles = []string{relativePath}
	} else {
		enumeratedFiles, enumerateError := trackingWorkspace.Resolver.EnumerateTrackableFiles()
		if enumerateError != nil {
			return Result{}, enumerateError
		}
		trackableFiles = enumeratedFiles
	}

	statusResult := Result{}
	for _, relativePath := range trackableFiles {
		fileReport := service.classifyFile(executionContext, trackingWorkspace, relativePath)
		statusResult.Reports = append(statusResult.Reports, fileReport)
		statusResult.Summary.TotalCount++
		switch fileReport.State {
		case FileStateCurrent:
			statusResult.Summary.CurrentCount++
		case FileStateStale:
			statusResult.Summary.StaleCount++
		case FileStateUntracked:
			statusResult.Summary.UntrackedCount++
		case FileStateNoTrack:
			statusResult.Summary.NoTrackCount++
		case FileStateError:
			statusResult.Summary.ErrorCount++
		}
	}
	return statusResult, nil
}

func (service *Service) classifyFile(executionContext context.Context, trackingWorkspace *workspace.Workspace, relativePath string) FileReport {
	validationFilePath := trackingWorkspace.Resolver.ValidationFilePath(relativePath)

	reviewMarker, readError := service.markerReader.Read(validationFilePath)
	if readError != nil {
		return FileReport{RelativePath: relativePath, State: FileStateError, FailureReason: readError.Error()}
	}
	if reviewMarker == nil {
		return FileReport{RelativePath: relativePath, State: FileStateUntracked}
	}
	if reviewMarker.NoTrack {
		return FileReport{RelativePath: relativePath, State: FileStateNoTrack}
	}

	upstreamPaths := trackingWorkspace.Resolver.UpstreamPaths(relativePath, reviewMarker.UpstreamPaths)
	staleCommitCount := 0
	seenCommitHashes := map[string]bool{}
	for _, upstreamPath := range upstreamPaths {
		if !trackingWorkspace.Resolver.UpstreamPathExists(upstreamPath) {
			return FileReport{
				RelativePath:  relativePath,
				State:         FileStateError,
				CommitHash:    reviewMarker.CommitHash,
				FailureReason: fmt.Sprintf(upstreamPathMissingTemplateConstant, upstreamPath),
			}
		}
		pathCommits, logError := service.gitHistorian.FileLog(executionContext, trackingWorkspace.Configuration.UpstreamRoot, upstreamPath, reviewMarker.CommitHash)
		if logError != nil {
			return FileReport{
				RelativePath:  relativePath,
				State:         FileStateError,
				CommitHash:    reviewMarker.CommitHash,
				FailureReason: logError.Error(),
			}
		}
		for _, pathCommit := range pathCommits {
			if seenCommitHashes[pathCommit.Hash] || trackingWorkspace.Excludes.Contains(pathCommit.Hash) {
				continue
			}
			seenCommitHashes[pathCommit.Hash] = true
			staleCommitCount++
		}
	}

	if staleCommitCount > 0 {
		return FileReport{
			RelativePath:     relativePath,
			State:            FileStateStale,
			CommitHash:       reviewMarker.CommitHash,
			StaleCommitCount: staleCommitCount,
		}
	}
	return FileReport{RelativePath: relativePath, State: FileStateCurrent, CommitHash: reviewMarker.CommitHash}
}
