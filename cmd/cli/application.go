package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/grit/cmd/cli/multirepo"
	"github.com/temirov/grit/internal/utils"
)

const (
	applicationNameConstant                 = "grit"
	applicationShortDescriptionConstant     = "Manage many git repositories as one project"
	applicationLongDescriptionConstant      = "grit resolves layered manifests into an active manifest and runs git operations across every repository it names, in parallel when asked."
	configFileFlagNameConstant              = "config-file"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	jobsFlagNameConstant                    = "jobs"
	jobsFlagShorthandConstant               = "j"
	jobsFlagUsageConstant                   = "Number of parallel jobs to perform."
	forceFlagNameConstant                   = "force"
	forceFlagShorthandConstant              = "f"
	forceFlagUsageConstant                  = "Continue even if an error occurred."
	groupsFlagNameConstant                  = "groups"
	groupsFlagShorthandConstant             = "g"
	groupsFlagUsageConstant                 = "Only target repositories belonging to at least one of the comma separated groups."
	noLogFlagNameConstant                   = "no-log"
	noLogFlagUsageConstant                  = "Do not add command details to the log file."
	verboseFlagNameConstant                 = "verbose"
	verboseFlagShorthandConstant            = "v"
	verboseFlagUsageConstant                = "Increase output verbosity."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	runConfigurationKeyConstant             = "run"
	environmentPrefixConstant               = "GRIT"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	rootCommandInfoMessageConstant          = "grit CLI executed"
	rootCommandDebugMessageConstant         = "grit CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Run    multirepo.RunConfiguration     `mapstructure:"run"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	jobsFlagValue          int
	forceFlagValue         bool
	groupsFlagValue        string
	noLogFlagValue         bool
	verboseFlagValue       int
	commandContextAccessor utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	embeddedConfiguration, embeddedConfigurationType := EmbeddedDefaultConfiguration()
	configurationLoader.SetEmbeddedConfiguration(embeddedConfiguration, embeddedConfigurationType)

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().IntVarP(&application.jobsFlagValue, jobsFlagNameConstant, jobsFlagShorthandConstant, 1, jobsFlagUsageConstant)
	cobraCommand.PersistentFlags().BoolVarP(&application.forceFlagValue, forceFlagNameConstant, forceFlagShorthandConstant, false, forceFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVarP(&application.groupsFlagValue, groupsFlagNameConstant, groupsFlagShorthandConstant, "", groupsFlagUsageConstant)
	cobraCommand.PersistentFlags().BoolVar(&application.noLogFlagValue, noLogFlagNameConstant, false, noLogFlagUsageConstant)
	cobraCommand.PersistentFlags().CountVarP(&application.verboseFlagValue, verboseFlagNameConstant, verboseFlagShorthandConstant, verboseFlagUsageConstant)

	// Passthrough commands disable their own flag parsing, so root flags are
	// parsed while traversing to the subcommand.
	cobraCommand.TraverseChildren = true

	workingDirectory := ""
	if currentDirectory, workingDirectoryError := os.Getwd(); workingDirectoryError == nil {
		workingDirectory = currentDirectory
	}

	loggerProvider := func() *zap.Logger {
		return application.logger
	}
	runConfigurationProvider := func() multirepo.RunConfiguration {
		return application.runConfiguration()
	}

	initBuilder := multirepo.InitCommandBuilder{
		LoggerProvider:   loggerProvider,
		WorkingDirectory: workingDirectory,
	}
	initCommand, initBuildError := initBuilder.Build()
	if initBuildError == nil {
		cobraCommand.AddCommand(initCommand)
	}

	cloneBuilder := multirepo.CloneCommandBuilder{
		LoggerProvider:        loggerProvider,
		ConfigurationProvider: runConfigurationProvider,
		WorkingDirectory:      workingDirectory,
	}
	cloneCommand, cloneBuildError := cloneBuilder.Build()
	if cloneBuildError == nil {
		cobraCommand.AddCommand(cloneCommand)
	}

	for _, gitSubcommand := range multirepo.PassthroughGitSubcommands {
		genericBuilder := multirepo.GenericCommandBuilder{
			GitSubcommand:         gitSubcommand,
			LoggerProvider:        loggerProvider,
			ConfigurationProvider: runConfigurationProvider,
			VerbosityProvider: func() int {
				return application.verboseFlagValue
			},
			WorkingDirectory: workingDirectory,
		}
		genericCommand, genericBuildError := genericBuilder.Build()
		if genericBuildError == nil {
			cobraCommand.AddCommand(genericCommand)
		}
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

// runConfiguration merges the persisted run configuration with any changed
// persistent flags; flags win.
func (application *Application) runConfiguration() multirepo.RunConfiguration {
	resolvedConfiguration := application.configuration.Run
	rootFlags := application.rootCommand.PersistentFlags()
	if rootFlags.Changed(jobsFlagNameConstant) {
		resolvedConfiguration.ParallelJobs = application.jobsFlagValue
	}
	if rootFlags.Changed(forceFlagNameConstant) {
		resolvedConfiguration.ForceMode = application.forceFlagValue
	}
	if rootFlags.Changed(groupsFlagNameConstant) {
		resolvedConfiguration.Groups = application.groupsFlagValue
	}
	if rootFlags.Changed(noLogFlagNameConstant) {
		resolvedConfiguration.NoLog = application.noLogFlagValue
	}
	return resolvedConfiguration
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}
	for configurationKey, configurationValue := range multirepo.DefaultConfigurationValues(runConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	createdLogger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = createdLogger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	if len(arguments) == 0 {
		return command.Help()
	}

	return nil
}

func (application *Application) flushLogger() error {
	if syncError := application.syncLoggerInstance(application.logger); syncError != nil {
		return syncError
	}
	return nil
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
