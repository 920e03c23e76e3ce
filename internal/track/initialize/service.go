package initialize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/portward/sourcetrack/internal/commitid"
	"github.com/portward/sourcetrack/internal/marker"
	"github.com/portward/sourcetrack/internal/track/shared"
)

const (
	gitUserNameConfigurationKeyConstant = "user.name"
	missingDependencyMessageConstant    = "initialize service missing dependencies"
	missingInitialsMessageConstant      = "reviewer initials unavailable; supply --initials or set git user.name"
	alreadyTrackedTemplateConstant      = "%s already carries a review marker"
	missingUpstreamTemplateConstant     = "%s has no upstream counterpart"
	missingUpstreamSuggestionTemplate   = "%s has no upstream counterpart; candidates: %s"
	suggestionListSeparatorConstant     = ", "
)

// ErrMissingDependencies indicates the service was constructed incompletely.
var ErrMissingDependencies = errors.New(missingDependencyMessageConstant)

// ErrInitialsUnavailable indicates reviewer initials could not be determined.
var ErrInitialsUnavailable = errors.New(missingInitialsMessageConstant)

// AlreadyTrackedError reports an init attempt against a file that is already marked.
type AlreadyTrackedError struct {
	RelativePath string
}

// Error names the already tracked file.
func (trackedError AlreadyTrackedError) Error() string {
	return fmt.Sprintf(alreadyTrackedTemplateConstant, trackedError.RelativePath)
}

// MissingUpstreamError reports a file whose assumed upstream counterpart is absent.
type MissingUpstreamError struct {
	RelativePath string
	Suggestions  []string
}

// Error names the missing counterpart and any rename candidates.
func (upstreamError MissingUpstreamError) Error() string {
	if len(upstreamError.Suggestions) == 0 {
		return fmt.Sprintf(missingUpstreamTemplateConstant, upstreamError.RelativePath)
	}
	return fmt.Sprintf(missingUpstreamSuggestionTemplate, upstreamError.RelativePath, strings.Join(upstreamError.Suggestions, suggestionListSeparatorConstant))
}

// Dependencies wires the collaborators used by the service.
type Dependencies struct {
	GitInspector    GitInspector
	WorkspaceLoader WorkspaceLoader
	MarkerStore     MarkerStore
	Clock           shared.Clock
}

// Options describe one init invocation.
type Options struct {
	WorkingDirectory string
	ConfigPath       string
	FilePath         string
	ReviewerInitials string
}

// Result describes the marker that was written.
type Result struct {
	RelativePath     string
	CommitHash       string
	ReviewDate       string
	ReviewerInitials string
	UpstreamPaths    []string
}

// Service stamps untracked files with their first review marker.
type Service struct {
	gitInspector    GitInspector
	workspaceLoader WorkspaceLoader
	markerStore     MarkerStore
	clock           shared.Clock
}

// NewService validates dependencies and constructs the service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.GitInspector == nil || dependencies.WorkspaceLoader == nil || dependencies.MarkerStore == nil {
		return nil, ErrMissingDependencies
	}
	return &Service{
		gitInspector:    dependencies.GitInspector,
		workspaceLoader: dependencies.WorkspaceLoader,
		markerStore:     dependencies.MarkerStore,
		clock:           shared.ResolveClock(dependencies.Clock),
	}, nil
}

// Initialize records the baseline review marker for an untracked file.
func (service *Service) Initialize(executionContext context.Context, options Options) (Result, error) {
	trackingWorkspace, loadError := service.workspaceLoader.Load(executionContext, options.WorkingDirectory, options.ConfigPath)
	if loadError != nil {
		return Result{}, loadError
	}
	if pinError := service.workspaceLoader.EnsureUpstreamPinned(executionContext, trackingWorkspace); pinError != nil {
		return Result{}, pinError
	}

	relativePath, resolveError := trackingWorkspace.Resolver.RelativeValidationPath(options.FilePath)
	if resolveError != nil {
		return Result{}, resolveError
	}
	absolutePath := trackingWorkspace.Resolver.ValidationFilePath(relativePath)

	existingMarker, readError := service.markerStore.Read(absolutePath)
	if readError != nil {
		return Result{}, readError
	}
	if existingMarker != nil {
		return Result{}, AlreadyTrackedError{RelativePath: relativePath}
	}

	if !trackingWorkspace.Resolver.UpstreamPathExists(relativePath) {
		suggestions, suggestionError := trackingWorkspace.Resolver.Suggestions(relativePath)
		if suggestionError != nil {
			return Result{}, suggestionError
		}
		return Result{}, MissingUpstreamError{RelativePath: relativePath, Suggestions: suggestions}
	}

	baselineCommit := trackingWorkspace.Configuration.UpstreamCommit
	if len(baselineCommit) == 0 {
		headCommit, headError := service.gitInspector.Head(executionContext, trackingWorkspace.Configuration.UpstreamRoot)
		if headError != nil {
			return Result{}, headError
		}
		baselineCommit = headCommit
	}
	baselineCommit = commitid.Shorten(baselineCommit)

	reviewerInitials, initialsError := service.resolveInitials(executionContext, trackingWorkspace.Configuration.ValidationRoot, options.ReviewerInitials)
	if initialsError != nil {
		return Result{}, initialsError
	}

	reviewDate := shared.FormatReviewDate(service.clock)
	upstreamPaths := []string{relativePath}
	writeError := service.markerStore.Write(absolutePath, marker.Marker{
		ReviewDate:       reviewDate,
		ReviewerInitials: reviewerInitials,
		CommitHash:       baselineCommit,
		UpstreamPaths:    upstreamPaths,
	})
	if writeError != nil {
		return Result{}, writeError
	}

	return Result{
		RelativePath:     relativePath,
		CommitHash:       baselineCommit,
		ReviewDate:       reviewDate,
		ReviewerInitials: reviewerInitials,
		UpstreamPaths:    upstreamPaths,
	}, nil
}

func (service *Service) resolveInitials(executionContext context.Context, validationRoot string, requestedInitials string) (string, error) {
	trimmedInitials := strings.TrimSpace(requestedInitials)
	if len(trimmedInitials) > 0 {
		return trimmedInitials, nil
	}

	configuredName, configError := service.gitInspector.ConfigValue(executionContext, validationRoot, gitUserNameConfigurationKeyConstant)
	if configError != nil {
		return "", configError
	}
	derivedInitials := shared.DeriveInitials(configuredName)
	if len(derivedInitials) == 0 {
		return "", ErrInitialsUnavailable
	}
	return derivedInitials, nil
}
