package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/temirov/grit/cmd/cli/multirepo"
)

const (
	registeredCommandsTestNameConstant = "registers_all_multirepo_commands"
	embeddedDefaultsTestNameConstant   = "embedded_defaults_decode"
	flagOverridesTestNameConstant      = "changed_flags_override_run_configuration"
)

func TestNewApplicationRegistersCommands(testInstance *testing.T) {
	testInstance.Run(registeredCommandsTestNameConstant, func(subtestInstance *testing.T) {
		application := NewApplication()

		registeredCommandNames := map[string]struct{}{}
		for _, registeredCommand := range application.rootCommand.Commands() {
			registeredCommandNames[registeredCommand.Name()] = struct{}{}
		}

		expectedCommandNames := append([]string{"init", "clone"}, multirepo.PassthroughGitSubcommands...)
		for _, expectedCommandName := range expectedCommandNames {
			require.Contains(subtestInstance, registeredCommandNames, expectedCommandName)
		}
	})
}

func TestEmbeddedDefaultConfiguration(testInstance *testing.T) {
	testInstance.Run(embeddedDefaultsTestNameConstant, func(subtestInstance *testing.T) {
		configurationData, configurationType := EmbeddedDefaultConfiguration()

		embeddedViper := viper.New()
		embeddedViper.SetConfigType(configurationType)
		require.NoError(subtestInstance, embeddedViper.ReadConfig(bytes.NewReader(configurationData)))

		var decodedConfiguration ApplicationConfiguration
		require.NoError(subtestInstance, embeddedViper.Unmarshal(&decodedConfiguration))
		require.Equal(subtestInstance, "info", decodedConfiguration.Common.LogLevel)
		require.Equal(subtestInstance, 1, decodedConfiguration.Run.ParallelJobs)
		require.Equal(subtestInstance, "all", decodedConfiguration.Run.Groups)
		require.False(subtestInstance, decodedConfiguration.Run.ForceMode)
		require.False(subtestInstance, decodedConfiguration.Run.NoLog)
	})
}

func TestRunConfigurationFlagOverrides(testInstance *testing.T) {
	testInstance.Run(flagOverridesTestNameConstant, func(subtestInstance *testing.T) {
		application := NewApplication()
		application.configuration.Run = multirepo.RunConfiguration{ParallelJobs: 1, Groups: "all"}

		rootFlags := application.rootCommand.PersistentFlags()
		require.NoError(subtestInstance, rootFlags.Set("jobs", "4"))
		require.NoError(subtestInstance, rootFlags.Set("force", "true"))
		require.NoError(subtestInstance, rootFlags.Set("groups", "platform,tools"))

		resolvedConfiguration := application.runConfiguration()
		require.Equal(subtestInstance, 4, resolvedConfiguration.ParallelJobs)
		require.True(subtestInstance, resolvedConfiguration.ForceMode)
		require.Equal(subtestInstance, "platform,tools", resolvedConfiguration.Groups)
		require.False(subtestInstance, resolvedConfiguration.NoLog)
	})
}
