package workspace_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/grit/internal/manifest"
	"github.com/temirov/grit/internal/workspace"
)

const (
	loadConfigurationCaseNameConstant       = "configuration_with_layers_and_fetches"
	extensionKeySkippedCaseNameConstant     = "extension_keys_in_fetch_entries_are_ignored"
	unknownFetchKeyCaseNameConstant         = "unknown_fetch_key_is_rejected"
	unsupportedMethodCaseNameConstant       = "unsupported_fetch_method_is_rejected"
	rootedLayerPathCaseNameConstant         = "rooted_layer_path_resolves_from_control_directory"
	relativeLayerPathCaseNameConstant       = "relative_layer_path_resolves_from_config_directory"
	activeManifestLifecycleCaseNameConstant = "active_manifest_builds_saves_and_reloads"
	brokenLayerCaseNameConstant             = "broken_layer_reports_file_path"
)

func writeControlFile(testInstance *testing.T, currentWorkspace *workspace.Workspace, relativePath string, contents string) {
	testInstance.Helper()
	filePath := filepath.Join(currentWorkspace.ControlDirectoryPath(), filepath.FromSlash(relativePath))
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(testInstance, os.WriteFile(filePath, []byte(contents), 0o644))
}

func TestLoadConfiguration(testInstance *testing.T) {
	testInstance.Run(loadConfigurationCaseNameConstant, func(subtestInstance *testing.T) {
		preparedWorkspace, prepareError := workspace.Prepare(subtestInstance.TempDir())
		require.NoError(subtestInstance, prepareError)
		writeControlFile(subtestInstance, preparedWorkspace, "configs/team.json", `{
    "manifest-layers": ["/common/base", "overrides"],
    "fetch-manifests": [
        {
            "method": "git",
            "remote-url": "https://git.example.com",
            "repository": "meta/manifests",
            "branch": "release",
            "directory": "extra"
        }
    ]
}`)

		loadedConfiguration, loadError := workspace.LoadConfiguration(preparedWorkspace, "configs/team")
		require.NoError(subtestInstance, loadError)
		require.Equal(subtestInstance, []string{"/common/base", "overrides"}, loadedConfiguration.ManifestLayerPaths)
		require.Len(subtestInstance, loadedConfiguration.FetchInstructions, 1)

		fetchInstruction := loadedConfiguration.FetchInstructions[0]
		require.Equal(subtestInstance, workspace.FetchMethodGitConstant, fetchInstruction.Method)
		require.Equal(subtestInstance, "extra", fetchInstruction.LocalPath())
		require.Equal(subtestInstance, "https://git.example.com/meta/manifests.git", fetchInstruction.CloneURL())
	})

	testInstance.Run(extensionKeySkippedCaseNameConstant, func(subtestInstance *testing.T) {
		preparedWorkspace, prepareError := workspace.Prepare(subtestInstance.TempDir())
		require.NoError(subtestInstance, prepareError)
		writeControlFile(subtestInstance, preparedWorkspace, "team.json", `{
    "manifest-layers": ["base"],
    "fetch-manifests": [
        {"method": "git", "remote-url": "https://git.example.com", "repository": "meta/manifests", "x-owner": "infra"}
    ]
}`)

		loadedConfiguration, loadError := workspace.LoadConfiguration(preparedWorkspace, "team")
		require.NoError(subtestInstance, loadError)
		require.Equal(subtestInstance, "manifests", loadedConfiguration.FetchInstructions[0].LocalPath())
	})

	testInstance.Run(unknownFetchKeyCaseNameConstant, func(subtestInstance *testing.T) {
		preparedWorkspace, prepareError := workspace.Prepare(subtestInstance.TempDir())
		require.NoError(subtestInstance, prepareError)
		writeControlFile(subtestInstance, preparedWorkspace, "team.json", `{
    "manifest-layers": ["base"],
    "fetch-manifests": [
        {"method": "git", "remote-url": "https://git.example.com", "repository": "meta/manifests", "mirorr": true}
    ]
}`)

		_, loadError := workspace.LoadConfiguration(preparedWorkspace, "team")
		require.Error(subtestInstance, loadError)
		require.Contains(subtestInstance, loadError.Error(), "team.json")
	})

	testInstance.Run(unsupportedMethodCaseNameConstant, func(subtestInstance *testing.T) {
		preparedWorkspace, prepareError := workspace.Prepare(subtestInstance.TempDir())
		require.NoError(subtestInstance, prepareError)
		writeControlFile(subtestInstance, preparedWorkspace, "team.json", `{
    "manifest-layers": ["base"],
    "fetch-manifests": [
        {"method": "ftp", "remote-url": "ftp://files.example.com", "repository": "meta/manifests"}
    ]
}`)

		_, loadError := workspace.LoadConfiguration(preparedWorkspace, "team")
		var unsupportedMethod workspace.UnsupportedFetchMethodError
		require.ErrorAs(subtestInstance, loadError, &unsupportedMethod)
		require.Equal(subtestInstance, "ftp", unsupportedMethod.Method)
	})
}

func TestResolveManifestLayerPath(testInstance *testing.T) {
	preparedWorkspace, prepareError := workspace.Prepare(testInstance.TempDir())
	require.NoError(testInstance, prepareError)
	writeControlFile(testInstance, preparedWorkspace, "configs/team.json", `{"manifest-layers": []}`)

	loadedConfiguration, loadError := workspace.LoadConfiguration(preparedWorkspace, "configs/team")
	require.NoError(testInstance, loadError)

	testCases := []struct {
		name             string
		layerPath        string
		expectedFilePath string
	}{
		{
			name:             rootedLayerPathCaseNameConstant,
			layerPath:        "/common/base",
			expectedFilePath: filepath.Join(preparedWorkspace.ControlDirectoryPath(), "common", "base.json"),
		},
		{
			name:             relativeLayerPathCaseNameConstant,
			layerPath:        "overrides",
			expectedFilePath: filepath.Join(preparedWorkspace.ControlDirectoryPath(), "configs", "overrides.json"),
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			require.Equal(subtestInstance, testCase.expectedFilePath, loadedConfiguration.ResolveManifestLayerPath(preparedWorkspace, testCase.layerPath))
		})
	}
}

func TestActiveManifestLifecycle(testInstance *testing.T) {
	testInstance.Run(activeManifestLifecycleCaseNameConstant, func(subtestInstance *testing.T) {
		preparedWorkspace, prepareError := workspace.Prepare(subtestInstance.TempDir())
		require.NoError(subtestInstance, prepareError)
		writeControlFile(subtestInstance, preparedWorkspace, "config.json", `{"manifest-layers": ["/base", "site"]}`)
		writeControlFile(subtestInstance, preparedWorkspace, "base.json", `{
    "default-profile": "defaults",
    "profiles": [
        {"profile": "defaults", "remote-url": "https://git.example.com", "branch": "main"}
    ],
    "repositories": [
        {"repository": "team/alpha"},
        {"repository": "team/beta"}
    ]
}`)
		writeControlFile(subtestInstance, preparedWorkspace, "site.json", `{
    "remove-repositories": ["team/beta"],
    "repositories": [
        {"repository": "team/gamma", "branch": "develop"}
    ]
}`)

		loadedConfiguration, loadError := workspace.LoadConfiguration(preparedWorkspace, "config")
		require.NoError(subtestInstance, loadError)

		activeManifest, buildError := workspace.BuildActiveManifest(preparedWorkspace, loadedConfiguration)
		require.NoError(subtestInstance, buildError)
		require.NoError(subtestInstance, workspace.SaveActiveManifest(preparedWorkspace, activeManifest))

		reloadedManifest, reloadError := workspace.LoadActiveManifest(preparedWorkspace)
		require.NoError(subtestInstance, reloadError)

		repositoryNames := []string{}
		for _, currentRepository := range reloadedManifest.Repositories() {
			repositoryNames = append(repositoryNames, currentRepository.Name())
		}
		require.ElementsMatch(subtestInstance, []string{"team/alpha", "team/gamma"}, repositoryNames)

		gammaRepository, repositoryError := reloadedManifest.Repository("team/gamma")
		require.NoError(subtestInstance, repositoryError)
		branchValue, branchError := reloadedManifest.ResolveMandatoryString(gammaRepository, manifest.SettingKeyBranch)
		require.NoError(subtestInstance, branchError)
		require.Equal(subtestInstance, "develop", branchValue)
	})

	testInstance.Run(brokenLayerCaseNameConstant, func(subtestInstance *testing.T) {
		preparedWorkspace, prepareError := workspace.Prepare(subtestInstance.TempDir())
		require.NoError(subtestInstance, prepareError)
		writeControlFile(subtestInstance, preparedWorkspace, "config.json", `{"manifest-layers": ["/broken"]}`)
		writeControlFile(subtestInstance, preparedWorkspace, "broken.json", `{"profiles": [{"profile": "defaults", "unknown-setting": 1}]}`)

		loadedConfiguration, loadError := workspace.LoadConfiguration(preparedWorkspace, "config")
		require.NoError(subtestInstance, loadError)

		_, buildError := workspace.BuildActiveManifest(preparedWorkspace, loadedConfiguration)
		var parseFailure manifest.ParseError
		require.ErrorAs(subtestInstance, buildError, &parseFailure)
		require.Contains(subtestInstance, parseFailure.FilePath, "broken.json")
	})
}
