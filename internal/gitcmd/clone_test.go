package gitcmd_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/grit/internal/gitcmd"
	"github.com/temirov/grit/internal/manifest"
)

const (
	plainCloneCaseNameConstant           = "plain_clone_uses_branch_and_single_branch"
	customRemoteCloneCaseNameConstant    = "custom_remote_adds_origin_option"
	remoteBranchCloneCaseNameConstant    = "remote_branch_defers_checkout_to_follow_up"
	pushURLCloneCaseNameConstant         = "push_url_adds_set_url_follow_up"
	mirrorCloneCaseNameConstant          = "mirror_clone_skips_working_tree_follow_ups"
	referenceCloneCaseNameConstant       = "reference_points_into_other_tree"
	directoryCloneCaseNameConstant       = "directory_setting_overrides_target"
	tagCloneCaseNameConstant             = "tag_substitutes_for_missing_branch"
	missingBranchCloneCaseNameConstant   = "missing_branch_and_tag_fail"
	runAfterCloneCaseNameConstant        = "run_after_clone_commands_follow_in_repo_directory"
	testRepositoryNameConstant           = "team/alpha"
	testRemoteURLConstant                = "https://git.example.com"
)

func buildCloneTestManifest(testInstance *testing.T, profileSettings map[string]any, repositorySettings map[string]any) (*manifest.Manifest, *manifest.Repository) {
	testInstance.Helper()

	defaultProfile := manifest.NewProfile("defaults")
	require.NoError(testInstance, defaultProfile.ApplySettings(profileSettings))

	targetRepository := manifest.NewRepository(testRepositoryNameConstant)
	require.NoError(testInstance, targetRepository.ApplySettings(repositorySettings))

	builtManifest := manifest.NewManifest()
	require.NoError(testInstance, builtManifest.AddProfile(defaultProfile))
	require.NoError(testInstance, builtManifest.AddRepository(targetRepository))
	builtManifest.SetDefaultProfileName(defaultProfile.Name())
	return builtManifest, targetRepository
}

func TestCloneCommandBuilder(testInstance *testing.T) {
	testCases := []struct {
		name                      string
		profileSettings           map[string]any
		repositorySettings        map[string]any
		options                   gitcmd.CloneOptions
		runAfterCloneCommands     []string
		expectedCloneCommandLine  string
		expectedFollowUpCommands  []string
		expectedLocalPath         string
		expectResolutionFailure   bool
	}{
		{
			name: plainCloneCaseNameConstant,
			profileSettings: map[string]any{
				"remote-url":    testRemoteURLConstant,
				"branch":        "main",
				"single-branch": "yes",
			},
			repositorySettings:       map[string]any{},
			expectedCloneCommandLine: "git clone --branch main --single-branch https://git.example.com/team/alpha.git",
			expectedLocalPath:        "alpha",
		},
		{
			name: customRemoteCloneCaseNameConstant,
			profileSettings: map[string]any{
				"remote-url":  testRemoteURLConstant,
				"branch":      "main",
				"remote-name": "upstream",
			},
			repositorySettings:       map[string]any{},
			expectedCloneCommandLine: "git clone --origin upstream --branch main https://git.example.com/team/alpha.git",
			expectedLocalPath:        "alpha",
		},
		{
			name: remoteBranchCloneCaseNameConstant,
			profileSettings: map[string]any{
				"remote-url":    testRemoteURLConstant,
				"branch":        "integration",
				"remote-branch": "develop",
			},
			repositorySettings:       map[string]any{},
			expectedCloneCommandLine: "git clone https://git.example.com/team/alpha.git",
			expectedFollowUpCommands: []string{
				"cd alpha && git checkout -B integration origin/develop",
			},
			expectedLocalPath: "alpha",
		},
		{
			name: pushURLCloneCaseNameConstant,
			profileSettings: map[string]any{
				"remote-url":      testRemoteURLConstant,
				"branch":          "main",
				"remote-push-url": "ssh://push.example.com",
			},
			repositorySettings:       map[string]any{},
			expectedCloneCommandLine: "git clone --branch main https://git.example.com/team/alpha.git",
			expectedFollowUpCommands: []string{
				"cd alpha && git remote set-url --add --push origin ssh://push.example.com/team/alpha.git",
			},
			expectedLocalPath: "alpha",
		},
		{
			name: mirrorCloneCaseNameConstant,
			profileSettings: map[string]any{
				"remote-url":      testRemoteURLConstant,
				"branch":          "main",
				"remote-name":     "upstream",
				"remote-push-url": "ssh://push.example.com",
			},
			repositorySettings:       map[string]any{},
			options:                  gitcmd.CloneOptions{Mirror: true},
			expectedCloneCommandLine: "git clone --branch main --mirror https://git.example.com/team/alpha.git",
			expectedLocalPath:        "alpha",
		},
		{
			name: referenceCloneCaseNameConstant,
			profileSettings: map[string]any{
				"remote-url": testRemoteURLConstant,
				"branch":     "main",
			},
			repositorySettings:       map[string]any{},
			options:                  gitcmd.CloneOptions{ReferenceRootPath: "/mirrors/project", Dissociate: true},
			expectedCloneCommandLine: "git clone --branch main --reference /mirrors/project/alpha --dissociate https://git.example.com/team/alpha.git",
			expectedLocalPath:        "alpha",
		},
		{
			name: directoryCloneCaseNameConstant,
			profileSettings: map[string]any{
				"remote-url": testRemoteURLConstant,
				"branch":     "main",
			},
			repositorySettings: map[string]any{
				"directory": "vendor/alpha",
			},
			expectedCloneCommandLine: "git clone --branch main https://git.example.com/team/alpha.git vendor/alpha",
			expectedLocalPath:        "vendor/alpha",
		},
		{
			name: tagCloneCaseNameConstant,
			profileSettings: map[string]any{
				"remote-url": testRemoteURLConstant,
			},
			repositorySettings: map[string]any{
				"tag": "v2.4.0",
			},
			expectedCloneCommandLine: "git clone --branch v2.4.0 https://git.example.com/team/alpha.git",
			expectedLocalPath:        "alpha",
		},
		{
			name: missingBranchCloneCaseNameConstant,
			profileSettings: map[string]any{
				"remote-url": testRemoteURLConstant,
			},
			repositorySettings:      map[string]any{},
			expectResolutionFailure: true,
		},
		{
			name: runAfterCloneCaseNameConstant,
			profileSettings: map[string]any{
				"remote-url": testRemoteURLConstant,
				"branch":     "main",
			},
			repositorySettings:       map[string]any{},
			runAfterCloneCommands:    []string{"git lfs install", "./scripts/bootstrap.sh"},
			expectedCloneCommandLine: "git clone --branch main https://git.example.com/team/alpha.git",
			expectedFollowUpCommands: []string{
				"cd alpha && git lfs install",
				"cd alpha && ./scripts/bootstrap.sh",
			},
			expectedLocalPath: "alpha",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			activeManifest, targetRepository := buildCloneTestManifest(subtestInstance, testCase.profileSettings, testCase.repositorySettings)
			activeManifest.AppendRunAfterCloneCommands(testCase.runAfterCloneCommands)

			cloneBuilder := gitcmd.CloneCommandBuilder{ActiveManifest: activeManifest, Options: testCase.options}
			clonePlan, buildError := cloneBuilder.Build(targetRepository)

			if testCase.expectResolutionFailure {
				var missingSetting manifest.MissingSettingError
				require.ErrorAs(subtestInstance, buildError, &missingSetting)
				return
			}

			require.NoError(subtestInstance, buildError)
			require.Equal(subtestInstance, testRepositoryNameConstant, clonePlan.RepositoryName)
			require.Equal(subtestInstance, testCase.expectedLocalPath, clonePlan.LocalPath)
			require.Equal(subtestInstance, testCase.expectedCloneCommandLine, clonePlan.CloneCommandLine)
			require.Equal(subtestInstance, testCase.expectedFollowUpCommands, clonePlan.FollowUpCommandLines)
			require.Equal(subtestInstance, "Started to clone team/alpha", clonePlan.CloneStartedDisplay)
			require.Equal(subtestInstance, "Completed team/alpha", clonePlan.CloneCompletedDisplay)
		})
	}
}
