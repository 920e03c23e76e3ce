package review

import (
	"context"

	"github.com/portward/sourcetrack/internal/gitcmd"
	"github.com/portward/sourcetrack/internal/marker"
	"github.com/portward/sourcetrack/internal/workspace"
)

// GitResolver resolves revisions and reads upstream file history.
type GitResolver interface {
	ResolveCommit(executionContext context.Context, repositoryPath string, reference string) (string, error)
	FileLog(executionContext context.Context, repositoryPath string, relativeFilePath string, sinceCommit string) ([]gitcmd.CommitInfo, error)
}

// WorkspaceLoader discovers tracking configuration and guards the upstream pin.
type WorkspaceLoader interface {
	Load(executionContext context.Context, workingDirectory string, explicitConfigPath string) (*workspace.Workspace, error)
	EnsureUpstreamPinned(executionContext context.Context, trackingWorkspace *workspace.Workspace) error
}

// MarkerStore reads and rewrites review markers on validation files.
type MarkerStore interface {
	Read(filePath string) (*marker.Marker, error)
	Write(filePath string, reviewMarker marker.Marker) error
}
