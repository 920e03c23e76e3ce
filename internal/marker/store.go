package marker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	shebangPrefixConstant           = "#!"
	encodingMagicConstant           = "-*-"
	encodingKeywordConstant         = "coding"
	encodingScanLineLimitConstant   = 2
	lineSeparatorConstant           = "\n"
	temporaryFilePatternConstant    = ".sourcetrack-*"
	readErrorTemplateConstant       = "failed to read %s: %w"
	writeErrorTemplateConstant      = "failed to write %s: %w"
	markerLineIndexAbsentConstant   = -1
	defaultMarkerFilePermissionMode = 0o644
)

// Store reads and writes markers in source files following one comment convention.
type Store struct {
	convention Convention
}

// NewStore constructs a Store for the provided convention.
func NewStore(convention Convention) *Store {
	return &Store{convention: convention}
}

// Convention exposes the comment convention used by the store.
func (store *Store) Convention() Convention {
	return store.convention
}

// Read scans the leading comment block of the file for a review marker.
// Files without a marker return a nil marker and no error.
func (store *Store) Read(filePath string) (*Marker, error) {
	fileContents, readError := os.ReadFile(filePath)
	if readError != nil {
		return nil, fmt.Errorf(readErrorTemplateConstant, filePath, readError)
	}

	fileLines := strings.Split(string(fileContents), lineSeparatorConstant)
	foundMarker, _, scanError := store.scanLeadingBlock(filePath, fileLines)
	if scanError != nil {
		return nil, scanError
	}
	return foundMarker, nil
}

// Write places the marker in the file, replacing an existing marker line or
// inserting a new one after any shebang and encoding lines. The file is
// rewritten atomically and keeps its permissions.
func (store *Store) Write(filePath string, reviewMarker Marker) error {
	fileContents, readError := os.ReadFile(filePath)
	if readError != nil {
		return fmt.Errorf(readErrorTemplateConstant, filePath, readError)
	}

	fileLines := strings.Split(string(fileContents), lineSeparatorConstant)
	_, markerLineIndex, scanError := store.scanLeadingBlock(filePath, fileLines)
	if scanError != nil {
		return scanError
	}

	formattedMarkerLine := store.convention.Format(reviewMarker)
	if markerLineIndex != markerLineIndexAbsentConstant {
		fileLines[markerLineIndex] = formattedMarkerLine
	} else {
		insertionIndex := countSpecialPrefixLines(fileLines)
		insertedLines := make([]string, 0, len(fileLines)+1)
		insertedLines = append(insertedLines, fileLines[:insertionIndex]...)
		insertedLines = append(insertedLines, formattedMarkerLine)
		insertedLines = append(insertedLines, fileLines[insertionIndex:]...)
		fileLines = insertedLines
	}

	return store.writeAtomically(filePath, strings.Join(fileLines, lineSeparatorConstant))
}

// scanLeadingBlock returns the marker found in the leading comment block along
// with the line index it occupies, raising ConflictError on duplicates.
func (store *Store) scanLeadingBlock(filePath string, fileLines []string) (*Marker, int, error) {
	var foundMarker *Marker
	markerLineIndex := markerLineIndexAbsentConstant

	for lineIndex, fileLine := range fileLines {
		if lineIndex == 0 && strings.HasPrefix(fileLine, shebangPrefixConstant) {
			continue
		}
		if lineIndex < encodingScanLineLimitConstant && isEncodingLine(fileLine) {
			continue
		}

		trimmedLine := strings.TrimSpace(fileLine)
		if len(trimmedLine) == 0 {
			continue
		}
		if !strings.HasPrefix(trimmedLine, store.convention.commentToken()) {
			break
		}

		parsedMarker, isMarkerLine, parseError := store.convention.parseLine(fileLine)
		if parseError != nil {
			return nil, markerLineIndexAbsentConstant, MalformedError{FilePath: filePath, Line: strings.TrimSpace(fileLine)}
		}
		if !isMarkerLine {
			continue
		}
		if foundMarker != nil {
			return nil, markerLineIndexAbsentConstant, ConflictError{FilePath: filePath}
		}
		markerCopy := parsedMarker
		foundMarker = &markerCopy
		markerLineIndex = lineIndex
	}

	return foundMarker, markerLineIndex, nil
}

func (store *Store) writeAtomically(filePath string, fileContents string) error {
	var filePermissions os.FileMode = defaultMarkerFilePermissionMode
	if fileInfo, statError := os.Stat(filePath); statError == nil {
		filePermissions = fileInfo.Mode().Perm()
	}

	temporaryFile, createError := os.CreateTemp(filepath.Dir(filePath), temporaryFilePatternConstant)
	if createError != nil {
		return fmt.Errorf(writeErrorTemplateConstant, filePath, createError)
	}
	temporaryPath := temporaryFile.Name()

	if _, writeError := temporaryFile.WriteString(fileContents); writeError != nil {
		temporaryFile.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf(writeErrorTemplateConstant, filePath, writeError)
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf(writeErrorTemplateConstant, filePath, closeError)
	}
	if chmodError := os.Chmod(temporaryPath, filePermissions); chmodError != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf(writeErrorTemplateConstant, filePath, chmodError)
	}
	if renameError := os.Rename(temporaryPath, filePath); renameError != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf(writeErrorTemplateConstant, filePath, renameError)
	}
	return nil
}

func countSpecialPrefixLines(fileLines []string) int {
	prefixLineCount := 0
	for lineIndex, fileLine := range fileLines {
		if lineIndex == 0 && strings.HasPrefix(fileLine, shebangPrefixConstant) {
			prefixLineCount++
			continue
		}
		if lineIndex < encodingScanLineLimitConstant && isEncodingLine(fileLine) {
			prefixLineCount++
			continue
		}
		break
	}
	return prefixLineCount
}

func isEncodingLine(fileLine string) bool {
	return strings.Contains(fileLine, encodingMagicConstant) && strings.Contains(fileLine, encodingKeywordConstant)
}
