package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ProfileDiscriminatorKeyConstant marks a document object as a profile.
	ProfileDiscriminatorKeyConstant = "profile"
	// RepositoryDiscriminatorKeyConstant marks a document object as a repository.
	RepositoryDiscriminatorKeyConstant = "repository"

	documentProfilesFieldNameConstant           = "profiles"
	documentRepositoriesFieldNameConstant       = "repositories"
	documentDefaultProfileFieldNameConstant     = "default-profile"
	documentRemoveProfilesFieldNameConstant     = "remove-profiles"
	documentRemoveRepositoriesFieldNameConstant = "remove-repositories"
	documentRunAfterCloneFieldNameConstant      = "run-after-clone"

	documentDecodeErrorTemplateConstant         = "failed to decode manifest document: %w"
	documentTopLevelKeyErrorTemplateConstant    = "invalid manifest key %s"
	documentEntryShapeErrorTemplateConstant     = "manifest %s entry must be an object"
	documentDiscriminatorErrorTemplateConstant  = "manifest %s entry missing %s discriminator"
	documentNameShapeErrorTemplateConstant      = "manifest %s name must be a string"
	documentStringListErrorTemplateConstant     = "manifest key %s must be a list of strings"
	documentStringErrorTemplateConstant         = "manifest key %s must be a string"
	manifestFileReadErrorTemplateConstant       = "failed to read manifest file: %w"
	manifestFileWriteErrorTemplateConstant      = "failed to write manifest file: %w"
	manifestEncodeErrorTemplateConstant         = "failed to encode manifest: %w"
	activeManifestIndentConstant                = "    "
	manifestDocumentTrailingNewlineConstant     = "\n"
)

// DecodeManifest parses one manifest layer document. The document format is
// YAML, which also accepts the JSON the active manifest is persisted in.
// Objects are parsed into generic maps first and constructed by inspecting
// the profile/repository discriminator key against each type's fixed schema.
func DecodeManifest(documentBytes []byte) (*Manifest, error) {
	var documentRoot map[string]any
	if unmarshalError := yaml.Unmarshal(documentBytes, &documentRoot); unmarshalError != nil {
		return nil, fmt.Errorf(documentDecodeErrorTemplateConstant, unmarshalError)
	}

	decodedManifest := NewManifest()
	for documentKey, documentValue := range documentRoot {
		switch documentKey {
		case documentProfilesFieldNameConstant:
			if profilesError := decodeProfileEntries(decodedManifest, documentValue); profilesError != nil {
				return nil, profilesError
			}
		case documentRepositoriesFieldNameConstant:
			if repositoriesError := decodeRepositoryEntries(decodedManifest, documentValue); repositoriesError != nil {
				return nil, repositoriesError
			}
		case documentDefaultProfileFieldNameConstant:
			defaultProfileName, isString := documentValue.(string)
			if !isString {
				return nil, fmt.Errorf(documentStringErrorTemplateConstant, documentKey)
			}
			decodedManifest.SetDefaultProfileName(defaultProfileName)
		case documentRemoveProfilesFieldNameConstant:
			removedProfileNames, listError := decodeStringList(documentKey, documentValue)
			if listError != nil {
				return nil, listError
			}
			decodedManifest.SetRemoveProfileNames(removedProfileNames)
		case documentRemoveRepositoriesFieldNameConstant:
			removedRepositoryNames, listError := decodeStringList(documentKey, documentValue)
			if listError != nil {
				return nil, listError
			}
			decodedManifest.SetRemoveRepositoryNames(removedRepositoryNames)
		case documentRunAfterCloneFieldNameConstant:
			afterCloneCommands, listError := decodeStringList(documentKey, documentValue)
			if listError != nil {
				return nil, listError
			}
			decodedManifest.AppendRunAfterCloneCommands(afterCloneCommands)
		default:
			if strings.HasPrefix(documentKey, ExtensionKeyPrefixConstant) {
				continue
			}
			return nil, fmt.Errorf(documentTopLevelKeyErrorTemplateConstant, documentKey)
		}
	}

	return decodedManifest, nil
}

func decodeProfileEntries(targetManifest *Manifest, entriesValue any) error {
	profileEntries, entriesError := decodeEntryMaps(documentProfilesFieldNameConstant, entriesValue)
	if entriesError != nil {
		return entriesError
	}
	for _, profileEntry := range profileEntries {
		profileName, nameError := takeDiscriminatorName(profileEntry, documentProfilesFieldNameConstant, ProfileDiscriminatorKeyConstant)
		if nameError != nil {
			return nameError
		}
		decodedProfile := NewProfile(profileName)
		if settingsError := decodedProfile.ApplySettings(profileEntry); settingsError != nil {
			return settingsError
		}
		if addError := targetManifest.AddProfile(decodedProfile); addError != nil {
			return addError
		}
	}
	return nil
}

func decodeRepositoryEntries(targetManifest *Manifest, entriesValue any) error {
	repositoryEntries, entriesError := decodeEntryMaps(documentRepositoriesFieldNameConstant, entriesValue)
	if entriesError != nil {
		return entriesError
	}
	for _, repositoryEntry := range repositoryEntries {
		repositoryName, nameError := takeDiscriminatorName(repositoryEntry, documentRepositoriesFieldNameConstant, RepositoryDiscriminatorKeyConstant)
		if nameError != nil {
			return nameError
		}
		decodedRepository := NewRepository(repositoryName)
		if settingsError := decodedRepository.ApplySettings(repositoryEntry); settingsError != nil {
			return settingsError
		}
		if addError := targetManifest.AddRepository(decodedRepository); addError != nil {
			return addError
		}
	}
	return nil
}

func decodeEntryMaps(documentSection string, entriesValue any) ([]map[string]any, error) {
	entriesList, isList := entriesValue.([]any)
	if !isList {
		return nil, fmt.Errorf(documentEntryShapeErrorTemplateConstant, documentSection)
	}
	entryMaps := make([]map[string]any, 0, len(entriesList))
	for _, entryValue := range entriesList {
		entryMap, isMap := entryValue.(map[string]any)
		if !isMap {
			return nil, fmt.Errorf(documentEntryShapeErrorTemplateConstant, documentSection)
		}
		entryMaps = append(entryMaps, entryMap)
	}
	return entryMaps, nil
}

// takeDiscriminatorName extracts and removes the discriminator key from the
// entry map. The discriminator carries the entity name, not a setting.
func takeDiscriminatorName(entryMap map[string]any, documentSection string, discriminatorKey string) (string, error) {
	discriminatorValue, discriminatorExists := entryMap[discriminatorKey]
	if !discriminatorExists {
		return "", fmt.Errorf(documentDiscriminatorErrorTemplateConstant, documentSection, discriminatorKey)
	}
	entityName, isString := discriminatorValue.(string)
	if !isString {
		return "", fmt.Errorf(documentNameShapeErrorTemplateConstant, documentSection)
	}
	delete(entryMap, discriminatorKey)
	return entityName, nil
}

func decodeStringList(documentKey string, listValue any) ([]string, error) {
	entriesList, isList := listValue.([]any)
	if !isList {
		return nil, fmt.Errorf(documentStringListErrorTemplateConstant, documentKey)
	}
	stringEntries := make([]string, 0, len(entriesList))
	for _, entryValue := range entriesList {
		stringEntry, isString := entryValue.(string)
		if !isString {
			return nil, fmt.Errorf(documentStringListErrorTemplateConstant, documentKey)
		}
		stringEntries = append(stringEntries, stringEntry)
	}
	return stringEntries, nil
}

// LoadManifestFile reads and decodes one manifest layer, attaching the file
// path to any failure.
func LoadManifestFile(filePath string) (*Manifest, error) {
	documentBytes, readError := os.ReadFile(filePath)
	if readError != nil {
		return nil, fmt.Errorf(manifestFileReadErrorTemplateConstant, readError)
	}
	decodedManifest, decodeError := DecodeManifest(documentBytes)
	if decodeError != nil {
		return nil, ParseError{FilePath: filePath, Cause: decodeError}
	}
	return decodedManifest, nil
}

// EncodeManifestJSON serializes the manifest as indented JSON with sorted
// keys, the on-disk format of the active manifest.
func EncodeManifestJSON(sourceManifest *Manifest) ([]byte, error) {
	documentRoot := map[string]any{}

	if defaultProfileName, defaultProfileDefined := sourceManifest.DefaultProfileName(); defaultProfileDefined {
		documentRoot[documentDefaultProfileFieldNameConstant] = defaultProfileName
	}
	if len(sourceManifest.RemoveProfileNames()) > 0 {
		documentRoot[documentRemoveProfilesFieldNameConstant] = sourceManifest.RemoveProfileNames()
	}
	if len(sourceManifest.RemoveRepositoryNames()) > 0 {
		documentRoot[documentRemoveRepositoriesFieldNameConstant] = sourceManifest.RemoveRepositoryNames()
	}
	if len(sourceManifest.RunAfterCloneCommands()) > 0 {
		documentRoot[documentRunAfterCloneFieldNameConstant] = sourceManifest.RunAfterCloneCommands()
	}

	profileDocuments := make([]map[string]any, 0, len(sourceManifest.Profiles()))
	for _, declaredProfile := range sourceManifest.Profiles() {
		profileDocument := declaredProfile.SettingsSnapshot()
		profileDocument[ProfileDiscriminatorKeyConstant] = declaredProfile.Name()
		profileDocuments = append(profileDocuments, profileDocument)
	}
	if len(profileDocuments) > 0 {
		documentRoot[documentProfilesFieldNameConstant] = profileDocuments
	}

	repositoryDocuments := make([]map[string]any, 0, len(sourceManifest.Repositories()))
	for _, declaredRepository := range sourceManifest.Repositories() {
		repositoryDocument := declaredRepository.SettingsSnapshot()
		repositoryDocument[RepositoryDiscriminatorKeyConstant] = declaredRepository.Name()
		repositoryDocuments = append(repositoryDocuments, repositoryDocument)
	}
	if len(repositoryDocuments) > 0 {
		documentRoot[documentRepositoriesFieldNameConstant] = repositoryDocuments
	}

	encodedDocument, encodeError := json.MarshalIndent(documentRoot, "", activeManifestIndentConstant)
	if encodeError != nil {
		return nil, fmt.Errorf(manifestEncodeErrorTemplateConstant, encodeError)
	}
	return append(encodedDocument, []byte(manifestDocumentTrailingNewlineConstant)...), nil
}

// SaveManifestFile writes the manifest to disk in the active manifest format.
func SaveManifestFile(sourceManifest *Manifest, filePath string) error {
	encodedDocument, encodeError := EncodeManifestJSON(sourceManifest)
	if encodeError != nil {
		return encodeError
	}
	if writeError := os.WriteFile(filePath, encodedDocument, 0o644); writeError != nil {
		return fmt.Errorf(manifestFileWriteErrorTemplateConstant, writeError)
	}
	return nil
}
