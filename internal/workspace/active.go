package workspace

import (
	"github.com/temirov/grit/internal/manifest"
)

// BuildActiveManifest loads every manifest layer named by the configuration,
// folds them bottom-up into a single manifest, and validates the result. The
// validation is a sanity check; final validation happens when commands
// resolve the settings they actually need.
func BuildActiveManifest(currentWorkspace *Workspace, configuration *Configuration) (*manifest.Manifest, error) {
	manifestLayers := make([]*manifest.Manifest, 0, len(configuration.ManifestLayerPaths))
	for _, layerPath := range configuration.ManifestLayerPaths {
		layerManifest, loadError := manifest.LoadManifestFile(configuration.ResolveManifestLayerPath(currentWorkspace, layerPath))
		if loadError != nil {
			return nil, loadError
		}
		manifestLayers = append(manifestLayers, layerManifest)
	}

	activeManifest := manifest.FoldLayers(manifestLayers)
	if validationError := activeManifest.ValidateProfiles(); validationError != nil {
		return nil, validationError
	}
	if validationError := activeManifest.ValidateRepositories(); validationError != nil {
		return nil, validationError
	}
	return activeManifest, nil
}

// SaveActiveManifest persists the generated manifest into the control
// directory.
func SaveActiveManifest(currentWorkspace *Workspace, activeManifest *manifest.Manifest) error {
	return manifest.SaveManifestFile(activeManifest, currentWorkspace.ActiveManifestPath())
}

// LoadActiveManifest reads back the manifest generated by a previous init.
func LoadActiveManifest(currentWorkspace *Workspace) (*manifest.Manifest, error) {
	return manifest.LoadManifestFile(currentWorkspace.ActiveManifestPath())
}
