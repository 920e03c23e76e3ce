package pairing

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	trackableFileExtensionConstant      = ".py"
	packageMarkerFileNameConstant       = "__init__.py"
	hiddenEntryPrefixConstant           = "."
	pathOutsideRootReasonConstant       = "outside the validation tree"
	pathMissingReasonConstant           = "does not exist"
	resolutionErrorTemplateConstant     = "cannot pair %s: %s"
	upstreamWalkErrorTemplateConstant   = "failed to scan upstream tree: %w"
	validationWalkErrorTemplateConstant = "failed to scan validation tree: %w"
)

// ResolutionError reports a path that cannot be paired across the two trees.
type ResolutionError struct {
	Path   string
	Reason string
}

// Error describes the pairing failure.
func (resolutionError ResolutionError) Error() string {
	return fmt.Sprintf(resolutionErrorTemplateConstant, resolutionError.Path, resolutionError.Reason)
}

// Resolver pairs validation files with upstream files.
type Resolver struct {
	upstreamRoot   string
	validationRoot string
}

// NewResolver constructs a Resolver over the two tree roots.
func NewResolver(upstreamRoot string, validationRoot string) *Resolver {
	return &Resolver{upstreamRoot: upstreamRoot, validationRoot: validationRoot}
}

// IsTrackable reports whether the file participates in source tracking.
// Package marker files never do.
func IsTrackable(filePath string) bool {
	if filepath.Base(filePath) == packageMarkerFileNameConstant {
		return false
	}
	return strings.EqualFold(filepath.Ext(filePath), trackableFileExtensionConstant)
}

// RelativeValidationPath converts a user-supplied path into a path relative to
// the validation root. The path is resolved against the working directory
// first and against the validation root second, and must name an existing
// file inside the tree.
func (resolver *Resolver) RelativeValidationPath(candidatePath string) (string, error) {
	absoluteCandidate, absoluteError := filepath.Abs(candidatePath)
	if absoluteError != nil {
		return "", absoluteError
	}
	if _, statError := os.Stat(absoluteCandidate); statError != nil {
		rootedCandidate := filepath.Join(resolver.validationRoot, filepath.FromSlash(candidatePath))
		if _, rootedStatError := os.Stat(rootedCandidate); rootedStatError != nil {
			return "", ResolutionError{Path: candidatePath, Reason: pathMissingReasonConstant}
		}
		absoluteCandidate = rootedCandidate
	}

	relativePath, relativeError := filepath.Rel(resolver.validationRoot, absoluteCandidate)
	if relativeError != nil || strings.HasPrefix(relativePath, "..") {
		return "", ResolutionError{Path: candidatePath, Reason: pathOutsideRootReasonConstant}
	}

	return filepath.ToSlash(relativePath), nil
}

// ValidationFilePath returns the absolute location of a validation-root-relative file.
func (resolver *Resolver) ValidationFilePath(relativeValidationPath string) string {
	return filepath.Join(resolver.validationRoot, filepath.FromSlash(relativeValidationPath))
}

// UpstreamPaths resolves the upstream files reviewed for a validation file.
// Marker-recorded paths win; otherwise the same relative path is assumed.
func (resolver *Resolver) UpstreamPaths(relativeValidationPath string, recordedPaths []string) []string {
	if len(recordedPaths) > 0 {
		return append([]string{}, recordedPaths...)
	}
	return []string{relativeValidationPath}
}

// UpstreamPathExists reports whether the relative upstream path names a file.
func (resolver *Resolver) UpstreamPathExists(relativeUpstreamPath string) bool {
	fileInfo, statError := os.Stat(filepath.Join(resolver.upstreamRoot, filepath.FromSlash(relativeUpstreamPath)))
	return statError == nil && !fileInfo.IsDir()
}

// Suggestions lists upstream files whose normalized base name matches the
// missing path, sorted for stable output.
func (resolver *Resolver) Suggestions(relativeUpstreamPath string) ([]string, error) {
	wantedName := normalizeBaseName(filepath.Base(relativeUpstreamPath))

	var suggestions []string
	walkError := filepath.WalkDir(resolver.upstreamRoot, func(walkPath string, directoryEntry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return entryError
		}
		if directoryEntry.IsDir() {
			if strings.HasPrefix(directoryEntry.Name(), hiddenEntryPrefixConstant) && walkPath != resolver.upstreamRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if normalizeBaseName(directoryEntry.Name()) != wantedName {
			return nil
		}
		relativePath, relativeError := filepath.Rel(resolver.upstreamRoot, walkPath)
		if relativeError != nil {
			return relativeError
		}
		suggestions = append(suggestions, filepath.ToSlash(relativePath))
		return nil
	})
	if walkError != nil {
		return nil, fmt.Errorf(upstreamWalkErrorTemplateConstant, walkError)
	}

	sort.Strings(suggestions)
	return suggestions, nil
}

// EnumerateTrackableFiles walks the validation tree and lists trackable files
// relative to its root, sorted, skipping hidden directories.
func (resolver *Resolver) EnumerateTrackableFiles() ([]string, error) {
	var trackableFiles []string
	walkError := filepath.WalkDir(resolver.validationRoot, func(walkPath string, directoryEntry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return entryError
		}
		if directoryEntry.IsDir() {
			if strings.HasPrefix(directoryEntry.Name(), hiddenEntryPrefixConstant) && walkPath != resolver.validationRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsTrackable(walkPath) {
			return nil
		}
		relativePath, relativeError := filepath.Rel(resolver.validationRoot, walkPath)
		if relativeError != nil {
			return relativeError
		}
		trackableFiles = append(trackableFiles, filepath.ToSlash(relativePath))
		return nil
	})
	if walkError != nil {
		return nil, fmt.Errorf(validationWalkErrorTemplateConstant, walkError)
	}

	sort.Strings(trackableFiles)
	return trackableFiles, nil
}

// normalizeBaseName drops the extension, lowercases, and strips everything
// outside a-z0-9, so robot_drive.py, robotdrive.py, and RobotDrive.java all
// normalize to robotdrive.
func normalizeBaseName(baseName string) string {
	baseName = strings.TrimSuffix(baseName, filepath.Ext(baseName))
	var normalizedBuilder strings.Builder
	for _, baseNameRune := range strings.ToLower(baseName) {
		if (baseNameRune >= 'a' && baseNameRune <= 'z') || (baseNameRune >= '0' && baseNameRune <= '9') {
			normalizedBuilder.WriteRune(baseNameRune)
		}
	}
	return normalizedBuilder.String()
}
