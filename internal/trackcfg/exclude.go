package trackcfg

import (
	"fmt"
	"os"
	"strings"

	"github.com/portward/sourcetrack/internal/commitid"
)

const (
	excludeCommentPrefixConstant     = "#"
	excludeReadErrorTemplateConstant = "failed to read excluded commits from %s: %w"
)

// ExcludeSet holds commit hashes whose upstream changes are ignored during review.
type ExcludeSet struct {
	commitHashes []string
}

// LoadExcludeSet reads the exclude commits file named by the configuration.
// A configuration without an exclude file yields an empty set.
func LoadExcludeSet(configuration Configuration) (ExcludeSet, error) {
	if len(configuration.ExcludeCommitsFile) == 0 {
		return ExcludeSet{}, nil
	}

	fileContents, readError := os.ReadFile(configuration.ExcludeCommitsFile)
	if readError != nil {
		if os.IsNotExist(readError) {
			return ExcludeSet{}, nil
		}
		return ExcludeSet{}, fmt.Errorf(excludeReadErrorTemplateConstant, configuration.ExcludeCommitsFile, readError)
	}

	excludeSet := ExcludeSet{}
	for _, fileLine := range strings.Split(string(fileContents), "\n") {
		candidateHash := strings.TrimSpace(fileLine)
		if commentIndex := strings.Index(candidateHash, excludeCommentPrefixConstant); commentIndex >= 0 {
			candidateHash = strings.TrimSpace(candidateHash[:commentIndex])
		}
		if len(candidateHash) == 0 {
			continue
		}
		if !commitid.IsPlausible(candidateHash) {
			continue
		}
		excludeSet.commitHashes = append(excludeSet.commitHashes, candidateHash)
	}

	return excludeSet, nil
}

// Contains reports whether the provided commit hash is excluded.
func (excludeSet ExcludeSet) Contains(commitHash string) bool {
	for _, excludedHash := range excludeSet.commitHashes {
		if commitid.Equal(excludedHash, commitHash) {
			return true
		}
	}
	return false
}

// Size reports the number of excluded commits.
func (excludeSet ExcludeSet) Size() int {
	return len(excludeSet.commitHashes)
}
