package upstream

import (
	"context"

	"github.com/portward/sourcetrack/internal/workspace"
)

// GitOperator runs the upstream checkout, pull, and revision operations.
type GitOperator interface {
	Checkout(executionContext context.Context, repositoryPath string, reference string) error
	Pull(executionContext context.Context, repositoryPath string) error
	ResolveCommit(executionContext context.Context, repositoryPath string, reference string) (string, error)
}

// WorkspaceLoader discovers tracking configuration.
type WorkspaceLoader interface {
	Load(executionContext context.Context, workingDirectory string, explicitConfigPath string) (*workspace.Workspace, error)
}

// ConfigWriter persists the recorded upstream commit.
type ConfigWriter func(trackingWorkspace *workspace.Workspace, upstreamCommit string) error
