package status

import (
	"context"

	"github.com/portward/sourcetrack/internal/gitcmd"
	"github.com/portward/sourcetrack/internal/marker"
	"github.com/portward/sourcetrack/internal/workspace"
)

// GitHistorian reads upstream file history.
type GitHistorian interface {
	FileLog(executionContext context.Context, repositoryPath string, relativeFilePath string, sinceCommit string) ([]gitcmd.CommitInfo, error)
}

// WorkspaceLoader discovers tracking configuration and guards the upstream pin.
type WorkspaceLoader interface {
	Load(executionContext context.Context, workingDirectory string, explicitConfigPath string) (*workspace.Workspace, error)
	EnsureUpstreamPinned(executionContext context.Context, trackingWorkspace *workspace.Workspace) error
}

// MarkerReader reads review markers from validation files.
type MarkerReader interface {
	Read(filePath string) (*marker.Marker, error)
}
