package multirepo

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/temirov/grit/internal/engine"
	"github.com/temirov/grit/internal/execshell"
	"github.com/temirov/grit/internal/gitcmd"
	"github.com/temirov/grit/internal/ui"
	"github.com/temirov/grit/internal/workspace"
)

const (
	initCommandUseConstant               = "init [manifest-url]"
	initCommandShortDescriptionConstant  = "Initialize a workspace from manifest repositories"
	initCommandLongDescriptionConstant   = "init creates the workspace control directory, optionally clones a manifest repository into it, and activates a configuration by folding its manifest layers into the active manifest."
	branchFlagNameConstant               = "branch"
	branchFlagShorthandConstant          = "b"
	branchFlagDescriptionConstant        = "Branch of the manifest repository to clone"
	directoryFlagNameConstant            = "directory"
	directoryFlagShorthandConstant       = "d"
	directoryFlagDescriptionConstant     = "Directory name for the manifest checkout inside the control directory"
	configNameFlagNameConstant           = "config"
	configNameFlagShorthandConstant      = "c"
	configNameFlagDescriptionConstant    = "Configuration to activate, as a path inside the control directory without extension"
	updateFlagNameConstant               = "update"
	updateFlagShorthandConstant          = "u"
	updateFlagDescriptionConstant        = "Update already fetched manifest repositories first"
	updatingManifestsMessageConstant     = "Updating all manifest and config file(s)..."
	fetchingManifestMessageConstant      = "Fetching specified manifest and config file(s)..."
	fetchingAdditionalMessageTemplate    = "Fetching additional manifest and config file(s) from %s..."
	loadingConfigurationMessageTemplate  = "Loading %s."
	activeManifestGeneratedMessage       = "Generated active manifest."
	manifestUpdateCommandConstant        = "git pull --rebase"
	gitMetadataDirectoryNameConstant     = ".git"
)

// InitCommandBuilder assembles the init command.
type InitCommandBuilder struct {
	LoggerProvider   LoggerProvider
	WorkingDirectory string
}

// Build constructs the init command.
func (builder *InitCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   initCommandUseConstant,
		Short: initCommandShortDescriptionConstant,
		Long:  initCommandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	command.Flags().StringP(branchFlagNameConstant, branchFlagShorthandConstant, "", branchFlagDescriptionConstant)
	command.Flags().StringP(directoryFlagNameConstant, directoryFlagShorthandConstant, "", directoryFlagDescriptionConstant)
	command.Flags().StringP(configNameFlagNameConstant, configNameFlagShorthandConstant, "", configNameFlagDescriptionConstant)
	command.Flags().BoolP(updateFlagNameConstant, updateFlagShorthandConstant, false, updateFlagDescriptionConstant)

	return command, nil
}

func (builder *InitCommandBuilder) run(command *cobra.Command, arguments []string) error {
	logger := resolveLogger(builder.LoggerProvider)
	consolePrinter := ui.NewConsolePrinter(command.OutOrStdout())

	workingDirectory := builder.WorkingDirectory
	if len(workingDirectory) == 0 {
		workingDirectory = "."
	}
	preparedWorkspace, prepareError := workspace.Prepare(workingDirectory)
	if prepareError != nil {
		return prepareError
	}

	shellExecutor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
	if executorError != nil {
		return executorError
	}

	if updateRequested, _ := command.Flags().GetBool(updateFlagNameConstant); updateRequested {
		consolePrinter.PrintLine(updatingManifestsMessageConstant)
		if updateError := builder.updateManifestCheckouts(command.Context(), preparedWorkspace, shellExecutor, consolePrinter); updateError != nil {
			return updateError
		}
	}

	if len(arguments) > 0 {
		branchName, _ := command.Flags().GetString(branchFlagNameConstant)
		directoryName, _ := command.Flags().GetString(directoryFlagNameConstant)
		cloneCommandLine := gitcmd.BuildManifestCloneCommandLine(gitcmd.ManifestCloneRequest{
			ControlDirectoryName: preparedWorkspace.ControlDirectoryPath(),
			CloneURL:             arguments[0],
			BranchName:           branchName,
			DirectoryName:        directoryName,
		})
		if cloneError := runDirectCommand(command.Context(), shellExecutor, consolePrinter, cloneCommandLine, fetchingManifestMessageConstant); cloneError != nil {
			return cloneError
		}
	}

	configName, _ := command.Flags().GetString(configNameFlagNameConstant)
	if len(configName) == 0 {
		return nil
	}

	consolePrinter.PrintFormattedLine(loadingConfigurationMessageTemplate, configName)
	loadedConfiguration, configurationError := workspace.LoadConfiguration(preparedWorkspace, configName)
	if configurationError != nil {
		return configurationError
	}

	if fetchError := builder.fetchAdditionalManifests(command.Context(), preparedWorkspace, loadedConfiguration, shellExecutor, consolePrinter); fetchError != nil {
		return fetchError
	}

	activeManifest, buildError := workspace.BuildActiveManifest(preparedWorkspace, loadedConfiguration)
	if buildError != nil {
		return buildError
	}
	if saveError := workspace.SaveActiveManifest(preparedWorkspace, activeManifest); saveError != nil {
		return saveError
	}
	consolePrinter.PrintLine(activeManifestGeneratedMessage)
	return nil
}

// fetchAdditionalManifests clones the manifest repositories named by the
// configuration. Checkouts that already exist are skipped so re-running init
// with an updated configuration only fetches new ones.
func (builder *InitCommandBuilder) fetchAdditionalManifests(executionContext context.Context, preparedWorkspace *workspace.Workspace, loadedConfiguration *workspace.Configuration, shellExecutor *execshell.ShellExecutor, consolePrinter *ui.ConsolePrinter) error {
	for _, fetchInstruction := range loadedConfiguration.FetchInstructions {
		checkoutPath := filepath.Join(preparedWorkspace.ControlDirectoryPath(), filepath.FromSlash(fetchInstruction.LocalPath()))
		if _, statError := os.Stat(checkoutPath); statError == nil {
			continue
		}

		cloneCommandLine := gitcmd.BuildManifestCloneCommandLine(gitcmd.ManifestCloneRequest{
			ControlDirectoryName: preparedWorkspace.ControlDirectoryPath(),
			CloneURL:             fetchInstruction.CloneURL(),
			BranchName:           fetchInstruction.Branch,
			DirectoryName:        fetchInstruction.Directory,
		})
		consolePrinter.PrintFormattedLine(fetchingAdditionalMessageTemplate, fetchInstruction.Repository)
		if cloneError := runDirectCommand(executionContext, shellExecutor, consolePrinter, cloneCommandLine, ""); cloneError != nil {
			return cloneError
		}
	}
	return nil
}

// updateManifestCheckouts rebases every git checkout inside the control
// directory onto its upstream.
func (builder *InitCommandBuilder) updateManifestCheckouts(executionContext context.Context, preparedWorkspace *workspace.Workspace, shellExecutor *execshell.ShellExecutor, consolePrinter *ui.ConsolePrinter) error {
	controlEntries, readError := os.ReadDir(preparedWorkspace.ControlDirectoryPath())
	if readError != nil {
		return readError
	}

	for _, controlEntry := range controlEntries {
		if !controlEntry.IsDir() {
			continue
		}
		checkoutPath := filepath.Join(preparedWorkspace.ControlDirectoryPath(), controlEntry.Name())
		if _, statError := os.Stat(filepath.Join(checkoutPath, gitMetadataDirectoryNameConstant)); statError != nil {
			continue
		}

		updateCommandLine := inControlDirectory(checkoutPath, manifestUpdateCommandConstant)
		if updateError := runDirectCommand(executionContext, shellExecutor, consolePrinter, updateCommandLine, ""); updateError != nil {
			return updateError
		}
	}
	return nil
}

func inControlDirectory(directoryPath string, commandLine string) string {
	return "cd " + directoryPath + " && " + commandLine
}

// runDirectCommand executes one command synchronously outside the engine.
func runDirectCommand(executionContext context.Context, shellExecutor *execshell.ShellExecutor, consolePrinter *ui.ConsolePrinter, commandLine string, initDisplayLine string) error {
	directCommand := engine.NewCommand(commandLine)
	if len(initDisplayLine) > 0 {
		directCommand.WithDisplayLines(initDisplayLine, "")
	}
	directCommand.Execute(executionContext, shellExecutor, consolePrinter)
	if !directCommand.Succeeded() {
		return engine.CommandFailedError{CommandLine: commandLine, ExitCode: directCommand.ResultCode}
	}
	return nil
}
