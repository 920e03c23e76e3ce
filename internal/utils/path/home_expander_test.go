package pathutils_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/portward/sourcetrack/internal/utils/path"
)

const (
	testHomeDirectoryConstant       = "/home/reviewer"
	testTildeRelativePathConstant   = "~/ports/robotpy"
	testAbsoluteCandidateConstant   = "/srv/ports/robotpy"
	testRelativeCandidateConstant   = "ports/robotpy"
	testBareTildeCandidateConstant  = "~"
	testExpandedRelativeSubpathName = "ports/robotpy"
)

func TestHomeExpanderExpand(testInstance *testing.T) {
	homeDirectoryProvider := func() (string, error) {
		return testHomeDirectoryConstant, nil
	}

	testCases := []struct {
		name          string
		candidatePath string
		expectedPath  string
	}{
		{
			name:          "tilde_relative_path",
			candidatePath: testTildeRelativePathConstant,
			expectedPath:  filepath.Join(testHomeDirectoryConstant, testExpandedRelativeSubpathName),
		},
		{
			name:          "bare_tilde",
			candidatePath: testBareTildeCandidateConstant,
			expectedPath:  testHomeDirectoryConstant,
		},
		{
			name:          "absolute_path_unchanged",
			candidatePath: testAbsoluteCandidateConstant,
			expectedPath:  testAbsoluteCandidateConstant,
		},
		{
			name:          "relative_path_unchanged",
			candidatePath: testRelativeCandidateConstant,
			expectedPath:  testRelativeCandidateConstant,
		},
		{
			name:          "empty_path_unchanged",
			candidatePath: "",
			expectedPath:  "",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			expander := pathutils.NewHomeExpanderWithProvider(homeDirectoryProvider)
			require.Equal(testInstance, testCase.expectedPath, expander.Expand(testCase.candidatePath))
		})
	}
}

func TestHomeExpanderKeepsPathWhenHomeLookupFails(testInstance *testing.T) {
	failingProvider := func() (string, error) {
		return "", errors.New("home directory unavailable")
	}

	expander := pathutils.NewHomeExpanderWithProvider(failingProvider)
	require.Equal(testInstance, testTildeRelativePathConstant, expander.Expand(testTildeRelativePathConstant))
}
