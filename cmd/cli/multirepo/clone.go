package multirepo

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/temirov/grit/internal/engine"
	"github.com/temirov/grit/internal/gitcmd"
)

const (
	cloneCommandUseConstant              = "clone"
	cloneCommandShortDescriptionConstant = "Clone every repository of the active manifest"
	cloneCommandLongDescriptionConstant  = "clone creates a working copy for each selected repository, configures push URLs and tracking branches, and runs any post-clone commands. Repositories that already exist locally are skipped."
	referenceFlagNameConstant            = "reference"
	referenceFlagDescriptionConstant     = "Root of another checkout tree to borrow objects from"
	dissociateFlagNameConstant           = "dissociate"
	dissociateFlagDescriptionConstant    = "Copy borrowed objects instead of sharing them"
	bareFlagNameConstant                 = "bare"
	bareFlagDescriptionConstant          = "Create bare repositories"
	mirrorFlagNameConstant               = "mirror"
	mirrorFlagDescriptionConstant        = "Create mirror repositories"
)

// CloneCommandBuilder assembles the clone command.
type CloneCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	WorkingDirectory      string
}

// Build constructs the clone command.
func (builder *CloneCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   cloneCommandUseConstant,
		Short: cloneCommandShortDescriptionConstant,
		Long:  cloneCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	command.Flags().String(referenceFlagNameConstant, "", referenceFlagDescriptionConstant)
	command.Flags().Bool(dissociateFlagNameConstant, false, dissociateFlagDescriptionConstant)
	command.Flags().Bool(bareFlagNameConstant, false, bareFlagDescriptionConstant)
	command.Flags().Bool(mirrorFlagNameConstant, false, mirrorFlagDescriptionConstant)

	return command, nil
}

func (builder *CloneCommandBuilder) run(command *cobra.Command, arguments []string) error {
	cloneOptions := gitcmd.CloneOptions{}
	cloneOptions.ReferenceRootPath, _ = command.Flags().GetString(referenceFlagNameConstant)
	cloneOptions.Dissociate, _ = command.Flags().GetBool(dissociateFlagNameConstant)
	cloneOptions.Bare, _ = command.Flags().GetBool(bareFlagNameConstant)
	cloneOptions.Mirror, _ = command.Flags().GetBool(mirrorFlagNameConstant)

	logger := resolveLogger(builder.LoggerProvider)
	runConfiguration := RunConfiguration{ParallelJobs: defaultParallelJobCountConstant, Groups: defaultGroupsSelectorConstant}
	if builder.ConfigurationProvider != nil {
		runConfiguration = builder.ConfigurationProvider()
	}

	session, sessionError := openRunSession(command.Context(), logger, runConfiguration, command.OutOrStdout(), builder.workingDirectory())
	if sessionError != nil {
		return sessionError
	}

	cloneBuilder := gitcmd.CloneCommandBuilder{ActiveManifest: session.activeManifest, Options: cloneOptions}
	for _, targetRepository := range session.targetRepositories() {
		if builder.localPathExists(targetRepository.LocalPath()) {
			// Re-running clone skips repositories that are already present.
			continue
		}
		clonePlan, planError := cloneBuilder.Build(targetRepository)
		if planError != nil {
			session.abort()
			return planError
		}

		cloneCommand := engine.NewCommand(clonePlan.CloneCommandLine).
			WithDisplayLines(clonePlan.CloneStartedDisplay, clonePlan.CloneCompletedDisplay)
		cloneJob := engine.NewJob(clonePlan.RepositoryName, cloneCommand)
		for _, followUpCommandLine := range clonePlan.FollowUpCommandLines {
			cloneJob.AppendCommand(engine.NewCommand(followUpCommandLine))
		}

		if submitError := session.orchestration.SubmitJob(cloneJob); submitError != nil {
			session.abort()
			return submitError
		}
	}

	return session.finish()
}

func (builder *CloneCommandBuilder) workingDirectory() string {
	if len(builder.WorkingDirectory) > 0 {
		return builder.WorkingDirectory
	}
	return "."
}

func (builder *CloneCommandBuilder) localPathExists(localPath string) bool {
	_, statError := os.Stat(filepath.Join(builder.workingDirectory(), localPath))
	return statError == nil
}
