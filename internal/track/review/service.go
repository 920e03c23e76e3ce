package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/portward/sourcetrack/internal/commitid"
	"github.com/portward/sourcetrack/internal/marker"
	"github.com/portward/sourcetrack/internal/track/shared"
	"github.com/portward/sourcetrack/internal/workspace"
)

const (
	missingDependenciesMessageConstant = "review service requires a git resolver, workspace loader, and marker store"
	notTrackedMessageTemplateConstant  = "%s is not currently tracked; run 'git source-track init %s' to start tracking it"
	noTrackMessageTemplateConstant     = "%s is marked notrack; remove the marker before updating its review"
	commitNotFoundTemplateConstant     = "commit %s does not touch upstream path %s"
	sourceMissingTemplateConstant      = "upstream path %s does not exist"
	sourcesIntactTemplateConstant      = "all upstream paths for %s still exist; nothing to re-point"
	noCandidatesTemplateConstant       = "upstream path %s is gone and no replacement candidates were found"
	ambiguousSourceTemplateConstant    = "upstream path %s is gone; pass one of the candidates explicitly: %s"
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

// NoTrackError reports an update attempt against a notrack file.
type NoTrackError struct {
	RelativePath string
}

// Error describes the notrack conflict.
func (noTrackError NoTrackError) Error() string {
	return fmt.Sprintf(noTrackMessageTemplateConstant, noTrackError.RelativePath)
}

// CommitNotFoundError reports a target commit absent from the upstream file history.
type CommitNotFoundError struct {
	Reference     string
	UpstreamPaths []string
}

// Error names the commit and the upstream paths it was checked against.
func (notFoundError CommitNotFoundError) Error() string {
	return fmt.Sprintf(commitNotFoundTemplateConstant, notFoundError.Reference, strings.Join(notFoundError.UpstreamPaths, " "))
}

// SourceMissingError reports an explicit replacement path absent from the
// upstream tree.
type SourceMissingError struct {
	UpstreamPath string
}

// Error names the missing upstream path.
func (missingError SourceMissingError) Error() string {
	return fmt.Sprintf(sourceMissingTemplateConstant, missingError.UpstreamPath)
}

// SourcesIntactError reports an update-src call against a file whose upstream
// paths all still exist.
type SourcesIntactError struct {
	RelativePath string
}

// Error names the file whose sources need no re-pointing.
func (intactError SourcesIntactError) Error() string {
	return fmt.Sprintf(sourcesIntactTemplateConstant, intactError.RelativePath)
}

// AmbiguousSourceError reports a vanished upstream path with zero or multiple
// replacement candidates.
type AmbiguousSourceError struct {
	MissingPath string
	Suggestions []string
}

// Error lists the candidates or states that none were found.
func (ambiguousError AmbiguousSourceError) Error() string {
	if len(ambiguousError.Suggestions) == 0 {
		return fmt.Sprintf(noCandidatesTemplateConstant, ambiguousError.MissingPath)
	}
	return fmt.Sprintf(ambiguousSourceTemplateConstant, ambiguousError.MissingPath, strings.Join(ambiguousError.Suggestions, " "))
}

// Dependencies wires the collaborators used by the service.
type Dependencies struct {
	GitResolver     GitResolver
	WorkspaceLoader WorkspaceLoader
	MarkerStore     MarkerStore
	Clock           shared.Clock
}

// Options describe one update, set-notrack, or update-src invocation.
type Options struct {
	WorkingDirectory string
	ConfigPath       string
	FilePath         string
	TargetReference  string
	ReviewerInitials string
	ReplacementPath  string
}

// Result describes the marker that was rewritten.
type Result struct {
	RelativePath     string
	PreviousCommit   string
	CommitHash       string
	ReviewDate       string
	ReviewerInitials string
	UpstreamPaths    []string
}

// Service advances a file's review marker to a newer upstream commit.
type Service struct {
	gitResolver     GitResolver
	workspaceLoader WorkspaceLoader
	markerStore     MarkerStore
	clock           shared.Clock
}

// NewService validates dependencies and constructs the service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.GitResolver == nil || dependencies.WorkspaceLoader == nil || dependencies.MarkerStore == nil {
		return nil, ErrMissingDependencies
	}
	return &Service{
		gitResolver:     dependencies.GitResolver,
		workspaceLoader: dependencies.WorkspaceLoader,
		markerStore:     dependencies.MarkerStore,
		clock:           shared.ResolveClock(dependencies.Clock),
	}, nil
}

// Update moves the review marker to the target upstream commit. An explicit
// target must touch the file's upstream paths; without one the marker is
// pinned at the upstream head.
func (service *Service) Update(executionContext context.Context, options Options) (Result, error) {
	trackingWorkspace, loadError := service.workspaceLoader.Load(executionContext, options.WorkingDirectory, options.ConfigPath)
	if loadError != nil {
		return Result{}, loadError
	}
	if pinError := service.workspaceLoader.EnsureUpstreamPinned(executionContext, trackingWorkspace); pinError != nil {
		return Result{}, pinError
	}

	relativePath, pathError := trackingWorkspace.Resolver.RelativeValidationPath(options.FilePath)
	if pathError != nil {
		return Result{}, pathError
	}
	validationFilePath := trackingWorkspace.Resolver.ValidationFilePath(relativePath)

	existingMarker, readError := service.markerStore.Read(validationFilePath)
	if readError != nil {
		return Result{}, readError
	}
	if existingMarker == nil {
		return Result{}, NotTrackedError{RelativePath: relativePath}
	}
	if existingMarker.NoTrack {
		return Result{}, NoTrackError{RelativePath: relativePath}
	}

	targetReference := options.TargetReference
	explicitTarget := targetReference != ""
	if !explicitTarget {
		targetReference = headReferenceConstant
	}
	resolvedCommit, resolveError := service.gitResolver.ResolveCommit(executionContext, trackingWorkspace.Configuration.UpstreamRoot, targetReference)
	if resolveError != nil {
		return Result{}, resolveError
	}

	// Without an explicit target the file is pinned at the upstream head,
	// whether or not the head commit touched it.
	if explicitTarget {
		upstreamPaths := trackingWorkspace.Resolver.UpstreamPaths(relativePath, existingMarker.UpstreamPaths)
		commitTouchesFile, historyError := service.commitTouchesUpstreamPaths(executionContext, trackingWorkspace, upstreamPaths, resolvedCommit)
		if historyError != nil {
			return Result{}, historyError
		}
		if !commitTouchesFile {
			return Result{}, CommitNotFoundError{Reference: targetReference, UpstreamPaths: upstreamPaths}
		}
	}

	reviewerInitials := options.ReviewerInitials
	if reviewerInitials == "" {
		reviewerInitials = existingMarker.ReviewerInitials
	}

	updatedMarker := marker.Marker{
		ReviewDate:       shared.FormatReviewDate(service.clock),
		ReviewerInitials: reviewerInitials,
		CommitHash:       commitid.Shorten(resolvedCommit),
		UpstreamPaths:    existingMarker.UpstreamPaths,
	}
	if writeError := service.markerStore.Write(validationFilePath, updatedMarker); writeError != nil {
		return Result{}, writeError
	}

	return Result{
		RelativePath:     relativePath,
		PreviousCommit:   existingMarker.CommitHash,
		CommitHash:       updatedMarker.CommitHash,
		ReviewDate:       updatedMarker.ReviewDate,
		ReviewerInitials: updatedMarker.ReviewerInitials,
	}, nil
}

// SetNoTrack stamps the file with a notrack marker, replacing any existing
// review marker.
func (service *Service) SetNoTrack(executionContext context.Context, options Options) (Result, error) {
	trackingWorkspace, loadError := service.workspaceLoader.Load(executionContext, options.WorkingDirectory, options.ConfigPath)
	if loadError != nil {
		return Result{}, loadError
	}
	if pinError := service.workspaceLoader.EnsureUpstreamPinned(executionContext, trackingWorkspace); pinError != nil {
		return Result{}, pinError
	}

	relativePath, pathError := trackingWorkspace.Resolver.RelativeValidationPath(options.FilePath)
	if pathError != nil {
		return Result{}, pathError
	}

	if writeError := service.markerStore.Write(trackingWorkspace.Resolver.ValidationFilePath(relativePath), marker.Marker{NoTrack: true}); writeError != nil {
		return Result{}, writeError
	}
	return Result{RelativePath: relativePath}, nil
}

// UpdateSource re-points the marker's upstream paths after an upstream file
// moved. With an explicit replacement path the marker records that path;
// otherwise each vanished path is replaced by its sole suggestion, and zero or
// multiple candidates abort with the candidate list. Review date, initials,
// and commit hash stay untouched.
func (service *Service) UpdateSource(executionContext context.Context, options Options) (Result, error) {
	trackingWorkspace, loadError := service.workspaceLoader.Load(executionContext, options.WorkingDirectory, options.ConfigPath)
	if loadError != nil {
		return Result{}, loadError
	}
	if pinError := service.workspaceLoader.EnsureUpstreamPinned(executionContext, trackingWorkspace); pinError != nil {
		return Result{}, pinError
	}

	relativePath, pathError := trackingWorkspace.Resolver.RelativeValidationPath(options.FilePath)
	if pathError != nil {
		return Result{}, pathError
	}
	validationFilePath := trackingWorkspace.Resolver.ValidationFilePath(relativePath)

	existingMarker, readError := service.markerStore.Read(validationFilePath)
	if readError != nil {
		return Result{}, readError
	}
	if existingMarker == nil {
		return Result{}, NotTrackedError{RelativePath: relativePath}
	}
	if existingMarker.NoTrack {
		return Result{}, NoTrackError{RelativePath: relativePath}
	}

	currentPaths := trackingWorkspace.Resolver.UpstreamPaths(relativePath, existingMarker.UpstreamPaths)

	var replacementPaths []string
	if options.ReplacementPath != "" {
		if !trackingWorkspace.Resolver.UpstreamPathExists(options.ReplacementPath) {
			return Result{}, SourceMissingError{UpstreamPath: options.ReplacementPath}
		}
		replacementPaths = []string{options.ReplacementPath}
	} else {
		vanishedCount := 0
		for _, upstreamPath := range currentPaths {
			if trackingWorkspace.Resolver.UpstreamPathExists(upstreamPath) {
				replacementPaths = append(replacementPaths, upstreamPath)
				continue
			}
			vanishedCount++
			candidatePaths, suggestionError := trackingWorkspace.Resolver.Suggestions(upstreamPath)
			if suggestionError != nil {
				return Result{}, suggestionError
			}
			if len(candidatePaths) != 1 {
				return Result{}, AmbiguousSourceError{MissingPath: upstreamPath, Suggestions: candidatePaths}
			}
			replacementPaths = append(replacementPaths, candidatePaths[0])
		}
		if vanishedCount == 0 {
			return Result{}, SourcesIntactError{RelativePath: relativePath}
		}
	}

	updatedMarker := marker.Marker{
		ReviewDate:       existingMarker.ReviewDate,
		ReviewerInitials: existingMarker.ReviewerInitials,
		CommitHash:       existingMarker.CommitHash,
		UpstreamPaths:    replacementPaths,
	}
	if writeError := service.markerStore.Write(validationFilePath, updatedMarker); writeError != nil {
		return Result{}, writeError
	}

	return Result{
		RelativePath:     relativePath,
		CommitHash:       updatedMarker.CommitHash,
		ReviewDate:       updatedMarker.ReviewDate,
		ReviewerInitials: updatedMarker.ReviewerInitials,
		UpstreamPaths:    replacementPaths,
	}, nil
}

func (service *Service) commitTouchesUpstreamPaths(executionContext context.Context, trackingWorkspace *workspace.Workspace, upstreamPaths []string, resolvedCommit string) (bool, error) {
	for _, upstreamPath := range upstreamPaths {
		pathCommits, logError := service.gitResolver.FileLog(executionContext, trackingWorkspace.Configuration.UpstreamRoot, upstreamPath, "")
		if logError != nil {
			return false, logError
		}
		for _, pathCommit := range pathCommits {
			if commitid.Equal(pathCommit.Hash, resolvedCommit) {
				return true, nil
			}
		}
	}
	return false, nil
}
