package changes

import (
	"context"

	"github.com/portward/sourcetrack/internal/gitcmd"
	"github.com/portward/sourcetrack/internal/marker"
	"github.com/portward/sourcetrack/internal/workspace"
)

// GitHistorian reads upstream history and file contents.
type GitHistorian interface {
	FileLog(executionContext context.Context, repositoryPath string, relativeFilePath string, sinceCommit string) ([]gitcmd.CommitInfo, error)
	FilePatchLog(executionContext context.Context, repositoryPath string, relativeFilePath string, sinceCommit string) (string, error)
	Show(executionContext context.Context, repositoryPath string, commitReference string, relativeFilePath string) (string, error)
	Diff(executionContext context.Context, repositoryPath string, oldReference string, newReference string, relativeFilePath string) (string, error)
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
