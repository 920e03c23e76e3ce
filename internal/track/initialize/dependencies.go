package initialize

import (
	"context"

	"github.com/portward/sourcetrack/internal/marker"
	"github.com/portward/sourcetrack/internal/workspace"
)

// GitInspector reads repository state needed to seed a marker.
type GitInspector interface {
	Head(executionContext context.Context, repositoryPath string) (string, error)
	ConfigValue(executionContext context.Context, repositoryPath string, configurationKey string) (string, error)
}

// WorkspaceLoader resolves the tracking workspace for a working directory and
// guards the upstream pin.
type WorkspaceLoader interface {
	Load(executionContext context.Context, workingDirectory string, explicitConfigPath string) (*workspace.Workspace, error)
	EnsureUpstreamPinned(executionContext context.Context, trackingWorkspace *workspace.Workspace) error
}

// MarkerStore reads and writes review markers in source files.
type MarkerStore interface {
	Read(filePath string) (*marker.Marker, error)
	Write(filePath string, reviewMarker marker.Marker) error
}
