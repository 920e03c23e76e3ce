package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/portward/sourcetrack/internal/commitid"
	"github.com/portward/sourcetrack/internal/pairing"
	"github.com/portward/sourcetrack/internal/trackcfg"
)

const (
	loaderGitClientMessageConstant    = "workspace git client not configured"
	upstreamNotPinnedTemplateConstant = "upstream checkout is at %s but tracking expects %s; run 'git source-track upstream-checkout' to pin it or 'git source-track upstream-track' to record the current commit"
)

// ErrGitClientNotConfigured indicates the loader was constructed without a git client.
var ErrGitClientNotConfigured = errors.New(loaderGitClientMessageConstant)

// UpstreamNotPinnedError reports an upstream checkout that drifted from the
// commit recorded in the tracking configuration.
type UpstreamNotPinnedError struct {
	ExpectedCommit string
	ActualCommit   string
}

// Error describes the drift and how to resolve it.
func (pinError UpstreamNotPinnedError) Error() string {
	return fmt.Sprintf(upstreamNotPinnedTemplateConstant, commitid.Shorten(pinError.ActualCommit), commitid.Shorten(pinError.ExpectedCommit))
}

// GitLocator resolves repository locations and revisions for workspace loading.
type GitLocator interface {
	Toplevel(executionContext context.Context, directoryPath string) (string, error)
	Head(executionContext context.Context, repositoryPath string) (string, error)
}

// Workspace bundles the resolved tracking context for one invocation.
type Workspace struct {
	Configuration trackcfg.Configuration
	Excludes      trackcfg.ExcludeSet
	Resolver      *pairing.Resolver
}

// Loader locates and loads the tracking workspace for a working directory.
type Loader struct {
	gitLocator GitLocator
}

// NewLoader constructs a Loader around the provided git client.
func NewLoader(gitLocator GitLocator) (*Loader, error) {
	if gitLocator == nil {
		return nil, ErrGitClientNotConfigured
	}
	return &Loader{gitLocator: gitLocator}, nil
}

// Load resolves the workspace starting from workingDirectory. When
// explicitConfigPath is non-empty the discovery walk is skipped.
func (loader *Loader) Load(executionContext context.Context, workingDirectory string, explicitConfigPath string) (*Workspace, error) {
	configPath := explicitConfigPath
	if len(configPath) == 0 {
		repositoryTop, toplevelError := loader.gitLocator.Toplevel(executionContext, workingDirectory)
		if toplevelError != nil {
			return nil, toplevelError
		}
		locatedPath, locateError := trackcfg.Locate(workingDirectory, repositoryTop)
		if locateError != nil {
			return nil, locateError
		}
		configPath = locatedPath
	}

	configuration, loadError := trackcfg.Load(configPath)
	if loadError != nil {
		return nil, loadError
	}

	excludeSet, excludeError := trackcfg.LoadExcludeSet(configuration)
	if excludeError != nil {
		return nil, excludeError
	}

	return &Workspace{
		Configuration: configuration,
		Excludes:      excludeSet,
		Resolver:      pairing.NewResolver(configuration.UpstreamRoot, configuration.ValidationRoot),
	}, nil
}

// EnsureUpstreamPinned verifies the upstream checkout matches the recorded
// upstream commit. Configurations without a recorded commit pass.
func (loader *Loader) EnsureUpstreamPinned(executionContext context.Context, trackingWorkspace *Workspace) error {
	recordedCommit := trackingWorkspace.Configuration.UpstreamCommit
	if len(recordedCommit) == 0 {
		return nil
	}

	headCommit, headError := loader.gitLocator.Head(executionContext, trackingWorkspace.Configuration.UpstreamRoot)
	if headError != nil {
		return headError
	}

	if !commitid.Equal(headCommit, recordedCommit) {
		return UpstreamNotPinnedError{ExpectedCommit: recordedCommit, ActualCommit: headCommit}
	}
	return nil
}
