package multirepo

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/grit/internal/engine"
	"github.com/temirov/grit/internal/execshell"
	"github.com/temirov/grit/internal/manifest"
	"github.com/temirov/grit/internal/ui"
	"github.com/temirov/grit/internal/utils"
	"github.com/temirov/grit/internal/workspace"
)

const (
	shellExecutorErrorTemplateConstant  = "unable to construct shell executor: %w"
	engineErrorTemplateConstant         = "unable to construct execution engine: %w"
	commandLogErrorTemplateConstant     = "unable to open command log: %w"
	configurationFileLogMessageConstant = "run configured from file"
	logFieldConfigurationFileConstant   = "config_file"
)

// LoggerProvider supplies the structured logger shared across commands.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the resolved run configuration.
type ConfigurationProvider func() RunConfiguration

func resolveLogger(loggerProvider LoggerProvider) *zap.Logger {
	if loggerProvider == nil {
		return zap.NewNop()
	}
	providedLogger := loggerProvider()
	if providedLogger == nil {
		return zap.NewNop()
	}
	return providedLogger
}

// runSession bundles everything one multi-repo run needs: the discovered
// workspace, its active manifest, the execution engine, and the command log.
type runSession struct {
	currentWorkspace *workspace.Workspace
	activeManifest   *manifest.Manifest
	orchestration    *engine.Engine
	commandLogStream io.WriteCloser
	consolePrinter   *ui.ConsolePrinter
	runConfiguration RunConfiguration
}

// openRunSession discovers the workspace upward from workingDirectory, loads
// the generated active manifest, and wires the execution engine.
func openRunSession(executionContext context.Context, logger *zap.Logger, runConfiguration RunConfiguration, outputWriter io.Writer, workingDirectory string) (*runSession, error) {
	if configurationFilePath, configurationFileDefined := utils.NewCommandContextAccessor().ConfigurationFilePath(executionContext); configurationFileDefined && len(configurationFilePath) > 0 {
		logger.Debug(configurationFileLogMessageConstant, zap.String(logFieldConfigurationFileConstant, configurationFilePath))
	}

	discoveredWorkspace, discoveryError := workspace.Discover(workingDirectory)
	if discoveryError != nil {
		return nil, discoveryError
	}

	activeManifest, manifestError := workspace.LoadActiveManifest(discoveredWorkspace)
	if manifestError != nil {
		return nil, manifestError
	}

	var commandLogStream io.WriteCloser
	if !runConfiguration.NoLog {
		openedLogStream, logOpenError := discoveredWorkspace.OpenCommandLog()
		if logOpenError != nil {
			return nil, fmt.Errorf(commandLogErrorTemplateConstant, logOpenError)
		}
		commandLogStream = openedLogStream
	}

	shellExecutor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
	if executorError != nil {
		closeCommandLog(commandLogStream)
		return nil, fmt.Errorf(shellExecutorErrorTemplateConstant, executorError)
	}

	consolePrinter := ui.NewConsolePrinter(outputWriter)
	engineOptions := engine.Options{
		WorkerCount:    runConfiguration.ParallelJobs,
		ForceMode:      runConfiguration.ForceMode,
		LoggingEnabled: !runConfiguration.NoLog,
	}
	var engineLogStream io.Writer
	if commandLogStream != nil {
		engineLogStream = utils.NewFlushingWriter(commandLogStream)
	}
	orchestration, engineError := engine.NewEngine(executionContext, engineOptions, shellExecutor, consolePrinter, engineLogStream, logger)
	if engineError != nil {
		closeCommandLog(commandLogStream)
		return nil, fmt.Errorf(engineErrorTemplateConstant, engineError)
	}

	return &runSession{
		currentWorkspace: discoveredWorkspace,
		activeManifest:   activeManifest,
		orchestration:    orchestration,
		commandLogStream: commandLogStream,
		consolePrinter:   consolePrinter,
		runConfiguration: runConfiguration,
	}, nil
}

// targetRepositories applies the configured group filter.
func (session *runSession) targetRepositories() []*manifest.Repository {
	return session.activeManifest.TargetRepositories(session.runConfiguration.Groups)
}

// finish drains outstanding jobs, stops the engine, and closes the command
// log. The execution error wins over a log close error.
func (session *runSession) finish() error {
	runError := session.orchestration.WaitAllAndStop()
	if closeError := session.closeLog(); closeError != nil && runError == nil {
		runError = closeError
	}
	return runError
}

// abort stops the engine and closes the command log after a mid-run failure.
// Outstanding results are still collected so their commands reach the log
// before the workers are joined.
func (session *runSession) abort() {
	_ = session.orchestration.WaitAllAndStop()
	_ = session.closeLog()
}

func (session *runSession) closeLog() error {
	logStream := session.commandLogStream
	session.commandLogStream = nil
	return closeCommandLog(logStream)
}

func closeCommandLog(commandLogStream io.WriteCloser) error {
	if commandLogStream == nil {
		return nil
	}
	return commandLogStream.Close()
}
