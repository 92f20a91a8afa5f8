package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/temirov/grit/internal/manifest"
)

const (
	configurationFileExtensionConstant = ".json"
	configurationPathSeparatorConstant = "/"
	FetchMethodGitConstant             = "git"
	repositoryNameSeparatorConstant    = "/"
	remoteRepositorySuffixConstant     = ".git"
	unsupportedMethodMessageTemplate   = "method %s is not supported"
	configurationDecodeMessageTemplate = "configuration %s: %w"
	rootedLayerPathPrefixConstant      = "/"
)

// FetchInstruction describes one additional manifest repository to fetch
// into the control directory before the active manifest is generated.
type FetchInstruction struct {
	Method     string `mapstructure:"method"`
	RemoteURL  string `mapstructure:"remote-url"`
	Repository string `mapstructure:"repository"`
	Directory  string `mapstructure:"directory"`
	Branch     string `mapstructure:"branch"`
}

// LocalPath returns the checkout directory of the fetched manifest
// repository, relative to the control directory.
func (instruction FetchInstruction) LocalPath() string {
	if len(instruction.Directory) > 0 {
		return instruction.Directory
	}
	repositoryNameParts := strings.Split(instruction.Repository, repositoryNameSeparatorConstant)
	return repositoryNameParts[len(repositoryNameParts)-1]
}

// CloneURL returns the full remote URL of the fetched manifest repository.
func (instruction FetchInstruction) CloneURL() string {
	return instruction.RemoteURL + repositoryNameSeparatorConstant + instruction.Repository + remoteRepositorySuffixConstant
}

// UnsupportedFetchMethodError reports a fetch instruction whose method the
// tool does not implement.
type UnsupportedFetchMethodError struct {
	Method string
}

// Error describes the unsupported method.
func (methodError UnsupportedFetchMethodError) Error() string {
	return fmt.Sprintf(unsupportedMethodMessageTemplate, methodError.Method)
}

// configurationDocument is the raw shape of a configuration file.
type configurationDocument struct {
	ManifestLayerPaths []string         `mapstructure:"manifest-layers"`
	FetchInstructions  []map[string]any `mapstructure:"fetch-manifests"`
}

// Configuration selects the manifest layers that form the active manifest
// plus any additional manifest repositories to fetch first. Configuration
// paths use forward slashes regardless of the operating system and omit the
// file extension.
type Configuration struct {
	configPath         string
	ManifestLayerPaths []string
	FetchInstructions  []FetchInstruction
}

// LoadConfiguration reads the configuration stored at configPath inside the
// control directory.
func LoadConfiguration(currentWorkspace *Workspace, configPath string) (*Configuration, error) {
	filePath := joinControlPath(currentWorkspace, configPath+configurationFileExtensionConstant)
	documentPayload, readError := os.ReadFile(filePath)
	if readError != nil {
		return nil, readError
	}

	var rawDocument map[string]any
	if unmarshalError := yaml.Unmarshal(documentPayload, &rawDocument); unmarshalError != nil {
		return nil, manifest.ParseError{FilePath: filePath, Cause: unmarshalError}
	}

	var decodedDocument configurationDocument
	if decodeError := decodeStrict(rawDocument, &decodedDocument); decodeError != nil {
		return nil, fmt.Errorf(configurationDecodeMessageTemplate, filePath, decodeError)
	}

	loadedConfiguration := &Configuration{
		configPath:         configPath,
		ManifestLayerPaths: decodedDocument.ManifestLayerPaths,
	}
	for _, rawInstruction := range decodedDocument.FetchInstructions {
		var decodedInstruction FetchInstruction
		if decodeError := decodeStrict(withoutExtensionKeys(rawInstruction), &decodedInstruction); decodeError != nil {
			return nil, fmt.Errorf(configurationDecodeMessageTemplate, filePath, decodeError)
		}
		if decodedInstruction.Method != FetchMethodGitConstant {
			return nil, UnsupportedFetchMethodError{Method: decodedInstruction.Method}
		}
		loadedConfiguration.FetchInstructions = append(loadedConfiguration.FetchInstructions, decodedInstruction)
	}
	return loadedConfiguration, nil
}

// ResolveManifestLayerPath maps a layer path from the configuration to an
// absolute file path. Paths starting with a slash are rooted at the control
// directory; relative paths resolve against the configuration file's own
// directory.
func (configuration *Configuration) ResolveManifestLayerPath(currentWorkspace *Workspace, layerPath string) string {
	if strings.HasPrefix(layerPath, rootedLayerPathPrefixConstant) {
		return joinControlPath(currentWorkspace, layerPath+configurationFileExtensionConstant)
	}
	configDirectoryParts := strings.Split(configuration.configPath, configurationPathSeparatorConstant)
	configDirectoryParts = configDirectoryParts[:len(configDirectoryParts)-1]
	relativePath := strings.Join(append(configDirectoryParts, layerPath), configurationPathSeparatorConstant)
	return joinControlPath(currentWorkspace, relativePath+configurationFileExtensionConstant)
}

func joinControlPath(currentWorkspace *Workspace, slashSeparatedPath string) string {
	pathParts := strings.Split(strings.TrimPrefix(slashSeparatedPath, rootedLayerPathPrefixConstant), configurationPathSeparatorConstant)
	return filepath.Join(append([]string{currentWorkspace.ControlDirectoryPath()}, pathParts...)...)
}

func decodeStrict(rawInput any, decodeTarget any) error {
	strictDecoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      decodeTarget,
		ErrorUnused: true,
	})
	if decoderError != nil {
		return decoderError
	}
	return strictDecoder.Decode(rawInput)
}

func withoutExtensionKeys(rawSettings map[string]any) map[string]any {
	filteredSettings := map[string]any{}
	for settingKey, settingValue := range rawSettings {
		if strings.HasPrefix(settingKey, manifest.ExtensionKeyPrefixConstant) {
			continue
		}
		filteredSettings[settingKey] = settingValue
	}
	return filteredSettings
}
