package utils

import "context"

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	trackingConfigPathContextKeyConstant    = commandContextKey("trackingConfigPath")
)

type commandContextKey string

// CommandContextAccessor manages values stored in command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the configuration file path to the provided context.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath extracts the configuration file path from the provided context.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	configurationFilePath, configurationFilePathAvailable := executionContext.Value(configurationFilePathContextKeyConstant).(string)
	if !configurationFilePathAvailable {
		return "", false
	}
	return configurationFilePath, true
}

// WithTrackingConfigPath attaches an explicit tracking configuration path to
// the provided context. Tracking configuration is separate from the
// application configuration file.
func (accessor CommandContextAccessor) WithTrackingConfigPath(parentContext context.Context, trackingConfigPath string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, trackingConfigPathContextKeyConstant, trackingConfigPath)
}

// TrackingConfigPath extracts the explicit tracking configuration path from the provided context.
func (accessor CommandContextAccessor) TrackingConfigPath(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	trackingConfigPath, trackingConfigPathAvailable := executionContext.Value(trackingConfigPathContextKeyConstant).(string)
	if !trackingConfigPathAvailable {
		return "", false
	}
	return trackingConfigPath, true
}
