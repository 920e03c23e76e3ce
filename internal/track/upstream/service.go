package upstream

import (
	"context"
	"fmt"

	"github.com/portward/sourcetrack/internal/commitid"
	"github.com/portward/sourcetrack/internal/workspace"
)

const (
	missingDependenciesMessageConstant = "upstream service requires a git operator and workspace loader"
	noRecordedCommitMessageConstant    = "no upstream commit is recorded; run 'git source-track upstream-track' to record one"
	headReferenceConstant              = "HEAD"
)

// ErrMissingDependencies indicates the service was constructed without required collaborators.
var ErrMissingDependencies = fmt.Errorf(missingDependenciesMessageConstant)

// ErrNoRecordedCommit indicates a checkout was requested with no recorded upstream commit.
var ErrNoRecordedCommit = fmt.Errorf(noRecordedCommitMessageConstant)

// Dependencies wires the collaborators used by the service.
type Dependencies struct {
	GitOperator     GitOperator
	WorkspaceLoader WorkspaceLoader
	ConfigWriter    ConfigWriter
}

// Options describe one upstream invocation.
type Options struct {
	WorkingDirectory string
	ConfigPath       string
	TargetReference  string
}

// Result reports the upstream commit an operation acted on.
type Result struct {
	UpstreamRoot   string
	UpstreamCommit string
}

// Service manages the upstream checkout recorded in the tracking configuration.
type Service struct {
	gitOperator     GitOperator
	workspaceLoader WorkspaceLoader
	configWriter    ConfigWriter
}

// NewService validates dependencies and constructs the service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.GitOperator == nil || dependencies.WorkspaceLoader == nil {
		return nil, ErrMissingDependencies
	}
	configWriter := dependencies.ConfigWriter
	if configWriter == nil {
		configWriter = func(trackingWorkspace *workspace.Workspace, upstreamCommit string) error {
			return trackingWorkspace.Configuration.SaveUpstreamCommit(upstreamCommit)
		}
	}
	return &Service{
		gitOperator:     dependencies.GitOperator,
		workspaceLoader: dependencies.WorkspaceLoader,
		configWriter:    configWriter,
	}, nil
}

// Checkout pins the upstream working tree to the recorded commit.
func (service *Service) Checkout(executionContext context.Context, options Options) (Result, error) {
	trackingWorkspace, loadError := service.workspaceLoader.Load(executionContext, options.WorkingDirectory, options.ConfigPath)
	if loadError != nil {
		return Result{}, loadError
	}
	recordedCommit := trackingWorkspace.Configuration.UpstreamCommit
	if recordedCommit == "" {
		return Result{}, ErrNoRecordedCommit
	}
	if checkoutError := service.gitOperator.Checkout(executionContext, trackingWorkspace.Configuration.UpstreamRoot, recordedCommit); checkoutError != nil {
		return Result{}, checkoutError
	}
	return Result{UpstreamRoot: trackingWorkspace.Configuration.UpstreamRoot, UpstreamCommit: recordedCommit}, nil
}

// Pull fetches and merges the latest upstream changes, then records the new
// upstream head as the tracked commit.
func (service *Service) Pull(executionContext context.Context, options Options) (Result, error) {
	trackingWorkspace, loadError := service.workspaceLoader.Load(executionContext, options.WorkingDirectory, options.ConfigPath)
	if loadError != nil {
		return Result{}, loadError
	}
	if pullError := service.gitOperator.Pull(executionContext, trackingWorkspace.Configuration.UpstreamRoot); pullError != nil {
		return Result{}, pullError
	}

	pulledHead, resolveError := service.gitOperator.ResolveCommit(executionContext, trackingWorkspace.Configuration.UpstreamRoot, headReferenceConstant)
	if resolveError != nil {
		return Result{}, resolveError
	}
	shortenedCommit := commitid.Shorten(pulledHead)
	if writeError := service.configWriter(trackingWorkspace, shortenedCommit); writeError != nil {
		return Result{}, writeError
	}
	return Result{UpstreamRoot: trackingWorkspace.Configuration.UpstreamRoot, UpstreamCommit: shortenedCommit}, nil
}

// Track records the given upstream commit, defaulting to the upstream head,
// in the tracking configuration.
func (service *Service) Track(executionContext context.Context, options Options) (Result, error) {
	trackingWorkspace, loadError := service.workspaceLoader.Load(executionContext, options.WorkingDirectory, options.ConfigPath)
	if loadError != nil {
		return Result{}, loadError
	}

	targetReference := options.TargetReference
	if targetReference == "" {
		targetReference = headReferenceConstant
	}
	resolvedCommit, resolveError := service.gitOperator.ResolveCommit(executionContext, trackingWorkspace.Configuration.UpstreamRoot, targetReference)
	if resolveError != nil {
		return Result{}, resolveError
	}

	shortenedCommit := commitid.Shorten(resolvedCommit)
	if writeError := service.configWriter(trackingWorkspace, shortenedCommit); writeError != nil {
		return Result{}, writeError
	}
	return Result{UpstreamRoot: trackingWorkspace.Configuration.UpstreamRoot, UpstreamCommit: shortenedCommit}, nil
}
