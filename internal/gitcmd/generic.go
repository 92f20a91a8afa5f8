package gitcmd

import (
	"fmt"
	"strings"
)

const (
	genericCommandTemplateConstant   = "git %s"
	argumentJoinSeparatorConstant    = " "
	remoteNameSuffixTemplateConstant = " (remote: %s)"
)

// GenericPlan is one passthrough git invocation inside a repository working
// tree. DisplayLabel identifies the repository in grouped console output.
type GenericPlan struct {
	LocalPath    string
	CommandLine  string
	DisplayLabel string
}

// BuildGenericCommand assembles the command line for a passthrough git
// subcommand running inside the repository at localPath. Extra arguments are
// forwarded verbatim.
func BuildGenericCommand(repositoryName string, localPath string, gitSubcommand string, extraArguments []string) GenericPlan {
	commandLine := fmt.Sprintf(genericCommandTemplateConstant, gitSubcommand)
	if len(extraArguments) > 0 {
		commandLine += argumentJoinSeparatorConstant + strings.Join(extraArguments, argumentJoinSeparatorConstant)
	}

	displayLabel := localPath
	if localPath != repositoryName {
		displayLabel += fmt.Sprintf(remoteNameSuffixTemplateConstant, repositoryName)
	}

	return GenericPlan{
		LocalPath:    localPath,
		CommandLine:  inDirectory(localPath, commandLine),
		DisplayLabel: displayLabel,
	}
}

// ManifestCloneRequest describes one clone into the workspace control
// directory, used for both the initial manifest checkout and additional
// manifest fetches.
type ManifestCloneRequest struct {
	ControlDirectoryName string
	CloneURL             string
	BranchName           string
	DirectoryName        string
}

// BuildManifestCloneCommandLine renders the clone command for a manifest
// repository inside the control directory.
func BuildManifestCloneCommandLine(request ManifestCloneRequest) string {
	cloneCommandLine := cloneCommandPrefixConstant
	if len(request.BranchName) > 0 {
		cloneCommandLine += fmt.Sprintf(branchOptionTemplateConstant, request.BranchName)
	}
	cloneCommandLine += argumentJoinSeparatorConstant + request.CloneURL
	if len(request.DirectoryName) > 0 {
		cloneCommandLine += fmt.Sprintf(targetDirectoryTemplateConstant, request.DirectoryName)
	}
	return inDirectory(request.ControlDirectoryName, cloneCommandLine)
}
