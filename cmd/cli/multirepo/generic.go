package multirepo

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/grit/internal/engine"
	"github.com/temirov/grit/internal/gitcmd"
)

const (
	genericCommandUseTemplateConstant       = "%s [git arguments]"
	genericCommandShortTemplateConstant     = "Run git %s in every repository"
	genericCommandLongTemplateConstant      = "%s runs git %s inside each selected repository and prints the grouped output per repository. Extra arguments are forwarded to git unchanged."
	repositoryHeaderRulerConstant           = "--------------------------------------------------------------------------------"
	repositoryHeaderTemplateConstant        = "- %s"
	repositoryCommandHeaderTemplateConstant = "- Command: %s"
)

// PassthroughGitSubcommands lists the git subcommands exposed as multi-repo
// commands. Arguments after the subcommand are forwarded to git verbatim.
var PassthroughGitSubcommands = []string{
	"remote", "rebase", "fetch", "pull", "push", "merge", "branch", "status", "stash", "tag",
}

// GenericCommandBuilder assembles one passthrough git command.
type GenericCommandBuilder struct {
	GitSubcommand         string
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	VerbosityProvider     func() int
	WorkingDirectory      string
}

// Build constructs the passthrough command.
func (builder *GenericCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:                fmt.Sprintf(genericCommandUseTemplateConstant, builder.GitSubcommand),
		Short:              fmt.Sprintf(genericCommandShortTemplateConstant, builder.GitSubcommand),
		Long:               fmt.Sprintf(genericCommandLongTemplateConstant, builder.GitSubcommand, builder.GitSubcommand),
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE:               builder.run,
	}
	return command, nil
}

func (builder *GenericCommandBuilder) run(command *cobra.Command, arguments []string) error {
	logger := resolveLogger(builder.LoggerProvider)
	runConfiguration := RunConfiguration{ParallelJobs: defaultParallelJobCountConstant, Groups: defaultGroupsSelectorConstant}
	if builder.ConfigurationProvider != nil {
		runConfiguration = builder.ConfigurationProvider()
	}

	session, sessionError := openRunSession(command.Context(), logger, runConfiguration, command.OutOrStdout(), builder.workingDirectory())
	if sessionError != nil {
		return sessionError
	}

	verbosity := 0
	if builder.VerbosityProvider != nil {
		verbosity = builder.VerbosityProvider()
	}

	for _, targetRepository := range session.targetRepositories() {
		genericPlan := gitcmd.BuildGenericCommand(targetRepository.Name(), targetRepository.LocalPath(), builder.GitSubcommand, arguments)
		repositoryCommand := engine.NewCommand(genericPlan.CommandLine).
			WithResultHandler(builder.printGroupedResult(session, verbosity), genericPlan.DisplayLabel)

		if submitError := session.orchestration.SubmitJob(engine.NewJob(genericPlan.DisplayLabel, repositoryCommand)); submitError != nil {
			session.abort()
			return submitError
		}
	}

	return session.finish()
}

// printGroupedResult renders one repository's output under a ruler header so
// parallel runs stay readable.
func (builder *GenericCommandBuilder) printGroupedResult(session *runSession, verbosity int) func(completedCommand *engine.Command) {
	return func(completedCommand *engine.Command) {
		headerLines := []string{
			repositoryHeaderRulerConstant,
			fmt.Sprintf(repositoryHeaderTemplateConstant, completedCommand.ClientData),
		}
		if verbosity > 0 {
			headerLines = append(headerLines, fmt.Sprintf(repositoryCommandHeaderTemplateConstant, completedCommand.CommandLine))
		}
		headerLines = append(headerLines, repositoryHeaderRulerConstant)

		outputBlock := strings.Join(headerLines, "\n") + "\n" + completedCommand.ResultOutput
		session.consolePrinter.PrintBlock(outputBlock)
	}
}

func (builder *GenericCommandBuilder) workingDirectory() string {
	if len(builder.WorkingDirectory) > 0 {
		return builder.WorkingDirectory
	}
	return "."
}
