package utils_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/portward/sourcetrack/internal/utils"
)

func TestCommandContextAccessorKeepsConfigurationPathsSeparate(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	configuredContext := accessor.WithConfigurationFilePath(context.Background(), "config.yaml")

	configurationPath, configurationAvailable := accessor.ConfigurationFilePath(configuredContext)
	require.True(testInstance, configurationAvailable)
	require.Equal(testInstance, "config.yaml", configurationPath)

	_, trackingAvailable := accessor.TrackingConfigPath(configuredContext)
	require.False(testInstance, trackingAvailable)

	trackedContext := accessor.WithTrackingConfigPath(configuredContext, "project/.gittrack")
	trackingPath, trackingAvailable := accessor.TrackingConfigPath(trackedContext)
	require.True(testInstance, trackingAvailable)
	require.Equal(testInstance, "project/.gittrack", trackingPath)

	configurationPath, configurationAvailable = accessor.ConfigurationFilePath(trackedContext)
	require.True(testInstance, configurationAvailable)
	require.Equal(testInstance, "config.yaml", configurationPath)
}

func TestCommandContextAccessorHandlesNilContext(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	_, configurationAvailable := accessor.ConfigurationFilePath(nil)
	require.False(testInstance, configurationAvailable)

	_, trackingAvailable := accessor.TrackingConfigPath(nil)
	require.False(testInstance, trackingAvailable)
}
