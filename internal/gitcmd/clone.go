package gitcmd

import (
	"fmt"
	"path/filepath"

	"github.com/temirov/grit/internal/manifest"
)

const (
	defaultRemoteNameConstant             = "origin"
	cloneCommandPrefixConstant            = "git clone"
	originOptionTemplateConstant          = " --origin %s"
	branchOptionTemplateConstant          = " --branch %s"
	singleBranchOptionConstant            = " --single-branch"
	singleBranchEnabledValueConstant      = "yes"
	referenceOptionTemplateConstant       = " --reference %s"
	dissociateOptionConstant              = " --dissociate"
	bareOptionConstant                    = " --bare"
	mirrorOptionConstant                  = " --mirror"
	remoteRepositoryTemplateConstant      = " %s/%s.git"
	targetDirectoryTemplateConstant       = " %s"
	changeDirectoryTemplateConstant       = "cd %s && %s"
	setPushURLCommandTemplateConstant     = "git remote set-url --add --push %s %s/%s.git"
	checkoutRemoteBranchTemplateConstant  = "git checkout -B %s %s/%s"
	cloneStartedDisplayTemplateConstant   = "Started to clone %s"
	cloneCompletedDisplayTemplateConstant = "Completed %s"
)

// CloneOptions carries the command-line flags that apply to every clone in a
// run.
type CloneOptions struct {
	// ReferenceRootPath points at the root of another checkout tree; each
	// repository references its counterpart under that root.
	ReferenceRootPath string
	Dissociate        bool
	Bare              bool
	Mirror            bool
}

// ClonePlan is the ordered command sequence that materializes one repository.
// The clone command comes first; follow-up commands configure the push URL,
// check out the tracking branch, and run any post-clone commands inside the
// fresh working tree.
type ClonePlan struct {
	RepositoryName        string
	LocalPath             string
	CloneCommandLine      string
	CloneStartedDisplay   string
	CloneCompletedDisplay string
	FollowUpCommandLines  []string
}

// CloneCommandBuilder derives clone plans from the active manifest.
type CloneCommandBuilder struct {
	ActiveManifest *manifest.Manifest
	Options        CloneOptions
}

// Build assembles the clone plan for one repository. Bare and mirror clones
// have no working tree, so push URL configuration, branch checkout, and
// post-clone commands are skipped for them.
func (builder CloneCommandBuilder) Build(targetRepository *manifest.Repository) (ClonePlan, error) {
	localPath := targetRepository.LocalPath()

	cloneCommandLine := cloneCommandPrefixConstant
	remoteName, remoteNameDefined, remoteNameError := builder.ActiveManifest.ResolveOptionalString(targetRepository, manifest.SettingKeyRemoteName)
	if remoteNameError != nil {
		return ClonePlan{}, remoteNameError
	}
	if !remoteNameDefined {
		remoteName = defaultRemoteNameConstant
	}
	if remoteName != defaultRemoteNameConstant && !builder.Options.Bare && !builder.Options.Mirror {
		cloneCommandLine += fmt.Sprintf(originOptionTemplateConstant, remoteName)
	}

	remoteBranchName, remoteBranchDefined, remoteBranchError := builder.ActiveManifest.ResolveOptionalString(targetRepository, manifest.SettingKeyRemoteBranch)
	if remoteBranchError != nil {
		return ClonePlan{}, remoteBranchError
	}
	if !remoteBranchDefined {
		checkoutReference, referenceError := builder.cloneCheckoutReference(targetRepository)
		if referenceError != nil {
			return ClonePlan{}, referenceError
		}
		cloneCommandLine += fmt.Sprintf(branchOptionTemplateConstant, checkoutReference)
	}

	singleBranchValue, _, singleBranchError := builder.ActiveManifest.ResolveOptionalString(targetRepository, manifest.SettingKeySingleBranch)
	if singleBranchError != nil {
		return ClonePlan{}, singleBranchError
	}
	if singleBranchValue == singleBranchEnabledValueConstant {
		cloneCommandLine += singleBranchOptionConstant
	}

	if len(builder.Options.ReferenceRootPath) > 0 {
		cloneCommandLine += fmt.Sprintf(referenceOptionTemplateConstant, filepath.Join(builder.Options.ReferenceRootPath, localPath))
	}
	if builder.Options.Dissociate {
		cloneCommandLine += dissociateOptionConstant
	}
	if builder.Options.Bare {
		cloneCommandLine += bareOptionConstant
	}
	if builder.Options.Mirror {
		cloneCommandLine += mirrorOptionConstant
	}

	remoteURL, remoteURLError := builder.ActiveManifest.ResolveMandatoryString(targetRepository, manifest.SettingKeyRemoteURL)
	if remoteURLError != nil {
		return ClonePlan{}, remoteURLError
	}
	cloneCommandLine += fmt.Sprintf(remoteRepositoryTemplateConstant, remoteURL, targetRepository.Name())

	if directoryValue, directoryDefined := targetRepository.StringSetting(manifest.SettingKeyDirectory); directoryDefined {
		cloneCommandLine += fmt.Sprintf(targetDirectoryTemplateConstant, directoryValue)
	}

	clonePlan := ClonePlan{
		RepositoryName:        targetRepository.Name(),
		LocalPath:             localPath,
		CloneCommandLine:      cloneCommandLine,
		CloneStartedDisplay:   fmt.Sprintf(cloneStartedDisplayTemplateConstant, targetRepository.Name()),
		CloneCompletedDisplay: fmt.Sprintf(cloneCompletedDisplayTemplateConstant, targetRepository.Name()),
	}

	if builder.Options.Bare || builder.Options.Mirror {
		return clonePlan, nil
	}

	remotePushURL, pushURLDefined, pushURLError := builder.ActiveManifest.ResolveOptionalString(targetRepository, manifest.SettingKeyRemotePushURL)
	if pushURLError != nil {
		return ClonePlan{}, pushURLError
	}
	if pushURLDefined {
		pushURLCommand := fmt.Sprintf(setPushURLCommandTemplateConstant, remoteName, remotePushURL, targetRepository.Name())
		clonePlan.FollowUpCommandLines = append(clonePlan.FollowUpCommandLines, inDirectory(localPath, pushURLCommand))
	}

	if remoteBranchDefined {
		// Capital -B force-creates the branch; the clone above may already
		// have created it, as happens for the default branch.
		localBranchName, branchError := builder.ActiveManifest.ResolveMandatoryString(targetRepository, manifest.SettingKeyBranch)
		if branchError != nil {
			return ClonePlan{}, branchError
		}
		checkoutCommand := fmt.Sprintf(checkoutRemoteBranchTemplateConstant, localBranchName, remoteName, remoteBranchName)
		clonePlan.FollowUpCommandLines = append(clonePlan.FollowUpCommandLines, inDirectory(localPath, checkoutCommand))
	}

	for _, postCloneCommand := range builder.ActiveManifest.RunAfterCloneCommands() {
		clonePlan.FollowUpCommandLines = append(clonePlan.FollowUpCommandLines, inDirectory(localPath, postCloneCommand))
	}

	return clonePlan, nil
}

// cloneCheckoutReference picks the ref that git clone checks out directly. A
// branch wins over a tag; a repository pinned to a tag simply omits the
// branch setting.
func (builder CloneCommandBuilder) cloneCheckoutReference(targetRepository *manifest.Repository) (string, error) {
	branchName, branchDefined, branchError := builder.ActiveManifest.ResolveOptionalString(targetRepository, manifest.SettingKeyBranch)
	if branchError != nil {
		return "", branchError
	}
	if branchDefined {
		return branchName, nil
	}
	tagName, tagDefined, tagError := builder.ActiveManifest.ResolveOptionalString(targetRepository, manifest.SettingKeyTag)
	if tagError != nil {
		return "", tagError
	}
	if tagDefined {
		return tagName, nil
	}
	return builder.ActiveManifest.ResolveMandatoryString(targetRepository, manifest.SettingKeyBranch)
}

func inDirectory(directoryPath string, commandLine string) string {
	return fmt.Sprintf(changeDirectoryTemplateConstant, directoryPath, commandLine)
}
