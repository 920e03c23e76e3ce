package trackcfg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	pathutils "github.com/portward/sourcetrack/internal/utils/path"
)

const (
	// ConfigFileName is the marker file linking a validation tree to its upstream.
	ConfigFileName = ".gittrack"

	configSectionNameConstant         = "git-source-track"
	upstreamRootKeyConstant           = "upstream_root"
	legacyUpstreamRootKeyConstant     = "original_root"
	upstreamCommitKeyConstant         = "upstream_commit"
	validationRootKeyConstant         = "validation_root"
	excludeCommitsFileKeyConstant     = "exclude_commits_file"
	configMissingMessageConstant      = "tracking configuration not found"
	configInvalidTemplateConstant     = "invalid tracking configuration %s: %s"
	configLoadErrorTemplateConstant   = "failed to load tracking configuration %s: %w"
	configSaveErrorTemplateConstant   = "failed to save tracking configuration %s: %w"
	missingKeyReasonTemplateConstant  = "missing required key %s"
	missingRootReasonTemplateConstant = "%s %q does not exist"
)

// ErrConfigMissing indicates no .gittrack file was found.
var ErrConfigMissing = errors.New(configMissingMessageConstant)

// ConfigInvalidError reports a .gittrack file whose contents cannot be used.
type ConfigInvalidError struct {
	ConfigPath string
	Reason     string
}

// Error describes the configuration defect.
func (configError ConfigInvalidError) Error() string {
	return fmt.Sprintf(configInvalidTemplateConstant, configError.ConfigPath, configError.Reason)
}

// Configuration captures the resolved contents of a .gittrack file.
type Configuration struct {
	ConfigPath         string
	UpstreamRoot       string
	UpstreamCommit     string
	ValidationRoot     string
	ExcludeCommitsFile string
}

// Locate walks up from startDirectory to stopDirectory looking for a
// .gittrack file and returns its absolute path.
func Locate(startDirectory string, stopDirectory string) (string, error) {
	absoluteStart, startError := filepath.Abs(startDirectory)
	if startError != nil {
		return "", startError
	}
	absoluteStop, stopError := filepath.Abs(stopDirectory)
	if stopError != nil {
		return "", stopError
	}

	currentDirectory := absoluteStart
	for {
		candidatePath := filepath.Join(currentDirectory, ConfigFileName)
		if fileInfo, statError := os.Stat(candidatePath); statError == nil && !fileInfo.IsDir() {
			return candidatePath, nil
		}
		if currentDirectory == absoluteStop {
			return "", ErrConfigMissing
		}
		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			return "", ErrConfigMissing
		}
		currentDirectory = parentDirectory
	}
}

// Load parses the .gittrack file at configFilePath and resolves its roots.
func Load(configFilePath string) (Configuration, error) {
	if _, statError := os.Stat(configFilePath); statError != nil {
		if os.IsNotExist(statError) {
			return Configuration{}, ErrConfigMissing
		}
		return Configuration{}, statError
	}

	iniFile, loadError := ini.Load(configFilePath)
	if loadError != nil {
		return Configuration{}, fmt.Errorf(configLoadErrorTemplateConstant, configFilePath, loadError)
	}

	section := iniFile.Section(configSectionNameConstant)
	homeExpander := pathutils.NewHomeExpander()
	configDirectory := filepath.Dir(configFilePath)

	upstreamRoot := section.Key(upstreamRootKeyConstant).String()
	if len(strings.TrimSpace(upstreamRoot)) == 0 {
		upstreamRoot = section.Key(legacyUpstreamRootKeyConstant).String()
	}
	if len(strings.TrimSpace(upstreamRoot)) == 0 {
		return Configuration{}, ConfigInvalidError{ConfigPath: configFilePath, Reason: fmt.Sprintf(missingKeyReasonTemplateConstant, upstreamRootKeyConstant)}
	}

	validationRoot := section.Key(validationRootKeyConstant).String()
	if len(strings.TrimSpace(validationRoot)) == 0 {
		return Configuration{}, ConfigInvalidError{ConfigPath: configFilePath, Reason: fmt.Sprintf(missingKeyReasonTemplateConstant, validationRootKeyConstant)}
	}

	configuration := Configuration{
		ConfigPath:     configFilePath,
		UpstreamRoot:   resolveConfiguredPath(configDirectory, homeExpander.Expand(upstreamRoot)),
		UpstreamCommit: strings.TrimSpace(section.Key(upstreamCommitKeyConstant).String()),
		ValidationRoot: resolveConfiguredPath(configDirectory, homeExpander.Expand(validationRoot)),
	}

	excludeCommitsFile := strings.TrimSpace(section.Key(excludeCommitsFileKeyConstant).String())
	if len(excludeCommitsFile) > 0 {
		configuration.ExcludeCommitsFile = resolveConfiguredPath(configDirectory, homeExpander.Expand(excludeCommitsFile))
	}

	if validationError := configuration.validateRoots(); validationError != nil {
		return Configuration{}, validationError
	}

	return configuration, nil
}

// Save writes the configuration to its ConfigPath, preserving unrelated keys
// already present in the file.
func (configuration Configuration) Save() error {
	iniFile := ini.Empty()
	if _, statError := os.Stat(configuration.ConfigPath); statError == nil {
		loadedFile, loadError := ini.Load(configuration.ConfigPath)
		if loadError != nil {
			return fmt.Errorf(configLoadErrorTemplateConstant, configuration.ConfigPath, loadError)
		}
		iniFile = loadedFile
	}

	section := iniFile.Section(configSectionNameConstant)
	section.Key(upstreamRootKeyConstant).SetValue(configuration.UpstreamRoot)
	section.Key(validationRootKeyConstant).SetValue(configuration.ValidationRoot)
	if len(configuration.UpstreamCommit) > 0 {
		section.Key(upstreamCommitKeyConstant).SetValue(configuration.UpstreamCommit)
	}
	if len(configuration.ExcludeCommitsFile) > 0 {
		section.Key(excludeCommitsFileKeyConstant).SetValue(configuration.ExcludeCommitsFile)
	}
	section.DeleteKey(legacyUpstreamRootKeyConstant)

	if saveError := iniFile.SaveTo(configuration.ConfigPath); saveError != nil {
		return fmt.Errorf(configSaveErrorTemplateConstant, configuration.ConfigPath, saveError)
	}
	return nil
}

// SaveUpstreamCommit rewrites only the recorded upstream commit in place.
func (configuration Configuration) SaveUpstreamCommit(upstreamCommit string) error {
	iniFile, loadError := ini.Load(configuration.ConfigPath)
	if loadError != nil {
		return fmt.Errorf(configLoadErrorTemplateConstant, configuration.ConfigPath, loadError)
	}

	iniFile.Section(configSectionNameConstant).Key(upstreamCommitKeyConstant).SetValue(upstreamCommit)

	if saveError := iniFile.SaveTo(configuration.ConfigPath); saveError != nil {
		return fmt.Errorf(configSaveErrorTemplateConstant, configuration.ConfigPath, saveError)
	}
	return nil
}

func (configuration Configuration) validateRoots() error {
	if !directoryExists(configuration.UpstreamRoot) {
		return ConfigInvalidError{ConfigPath: configuration.ConfigPath, Reason: fmt.Sprintf(missingRootReasonTemplateConstant, upstreamRootKeyConstant, configuration.UpstreamRoot)}
	}
	if !directoryExists(configuration.ValidationRoot) {
		return ConfigInvalidError{ConfigPath: configuration.ConfigPath, Reason: fmt.Sprintf(missingRootReasonTemplateConstant, validationRootKeyConstant, configuration.ValidationRoot)}
	}
	return nil
}

func resolveConfiguredPath(configDirectory string, configuredPath string) string {
	if filepath.IsAbs(configuredPath) {
		return filepath.Clean(configuredPath)
	}
	return filepath.Clean(filepath.Join(configDirectory, configuredPath))
}

func directoryExists(directoryPath string) bool {
	fileInfo, statError := os.Stat(directoryPath)
	return statError == nil && fileInfo.IsDir()
}
