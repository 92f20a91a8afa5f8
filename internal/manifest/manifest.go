package manifest

import (
	"fmt"
	"strings"
)

const (
	// AllGroupsSelectorConstant selects every repository regardless of groups.
	AllGroupsSelectorConstant  = "all"
	groupListSeparatorConstant = ","
)

// Manifest holds the profiles, repositories, and global options that govern
// one orchestration run. Profiles and repositories keep declaration order
// while remaining addressable by name.
type Manifest struct {
	profilesByName     map[string]*Profile
	profileNames       []string
	repositoriesByName map[string]*Repository
	repositoryNames    []string

	defaultProfileName    string
	defaultProfileDefined bool

	removeProfileNames    []string
	removeRepositoryNames []string
	runAfterCloneCommands []string
}

// NewManifest constructs an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		profilesByName:     map[string]*Profile{},
		repositoriesByName: map[string]*Repository{},
	}
}

// Profiles lists the profiles in declaration order.
func (manifest *Manifest) Profiles() []*Profile {
	orderedProfiles := make([]*Profile, 0, len(manifest.profileNames))
	for _, profileName := range manifest.profileNames {
		orderedProfiles = append(orderedProfiles, manifest.profilesByName[profileName])
	}
	return orderedProfiles
}

// Repositories lists the repositories in declaration order.
func (manifest *Manifest) Repositories() []*Repository {
	orderedRepositories := make([]*Repository, 0, len(manifest.repositoryNames))
	for _, repositoryName := range manifest.repositoryNames {
		orderedRepositories = append(orderedRepositories, manifest.repositoriesByName[repositoryName])
	}
	return orderedRepositories
}

// Profile returns the named profile or an UndefinedReferenceError.
func (manifest *Manifest) Profile(profileName string) (*Profile, error) {
	namedProfile, profileExists := manifest.profilesByName[profileName]
	if !profileExists {
		return nil, UndefinedReferenceError{Kind: ReferenceKindProfile, Name: profileName}
	}
	return namedProfile, nil
}

// Repository returns the named repository or an UndefinedReferenceError.
func (manifest *Manifest) Repository(repositoryName string) (*Repository, error) {
	namedRepository, repositoryExists := manifest.repositoriesByName[repositoryName]
	if !repositoryExists {
		return nil, UndefinedReferenceError{Kind: ReferenceKindRepository, Name: repositoryName}
	}
	return namedRepository, nil
}

// AddProfile appends a new profile, rejecting duplicate names.
func (manifest *Manifest) AddProfile(newProfile *Profile) error {
	if _, profileExists := manifest.profilesByName[newProfile.Name()]; profileExists {
		return DuplicateNameError{Kind: ReferenceKindProfile, Name: newProfile.Name()}
	}
	manifest.profilesByName[newProfile.Name()] = newProfile
	manifest.profileNames = append(manifest.profileNames, newProfile.Name())
	return nil
}

// AddRepository appends a new repository, rejecting duplicate names.
func (manifest *Manifest) AddRepository(newRepository *Repository) error {
	if _, repositoryExists := manifest.repositoriesByName[newRepository.Name()]; repositoryExists {
		return DuplicateNameError{Kind: ReferenceKindRepository, Name: newRepository.Name()}
	}
	manifest.repositoriesByName[newRepository.Name()] = newRepository
	manifest.repositoryNames = append(manifest.repositoryNames, newRepository.Name())
	return nil
}

// RemoveProfile deletes the named profile. Unknown names are a no-op.
func (manifest *Manifest) RemoveProfile(profileName string) {
	if _, profileExists := manifest.profilesByName[profileName]; !profileExists {
		return
	}
	delete(manifest.profilesByName, profileName)
	manifest.profileNames = removeNameFromOrderedList(manifest.profileNames, profileName)
}

// RemoveRepository deletes the named repository. Unknown names are a no-op.
func (manifest *Manifest) RemoveRepository(repositoryName string) {
	if _, repositoryExists := manifest.repositoriesByName[repositoryName]; !repositoryExists {
		return
	}
	delete(manifest.repositoriesByName, repositoryName)
	manifest.repositoryNames = removeNameFromOrderedList(manifest.repositoryNames, repositoryName)
}

func removeNameFromOrderedList(orderedNames []string, removedName string) []string {
	remainingNames := orderedNames[:0]
	for _, existingName := range orderedNames {
		if existingName != removedName {
			remainingNames = append(remainingNames, existingName)
		}
	}
	return remainingNames
}

// DefaultProfileName returns the configured default profile name when defined.
func (manifest *Manifest) DefaultProfileName() (string, bool) {
	return manifest.defaultProfileName, manifest.defaultProfileDefined
}

// SetDefaultProfileName records the default profile used by repositories
// without an explicit use-profile setting.
func (manifest *Manifest) SetDefaultProfileName(profileName string) {
	manifest.defaultProfileName = profileName
	manifest.defaultProfileDefined = true
}

// RemoveProfileNames lists the profile names this layer removes from its base.
func (manifest *Manifest) RemoveProfileNames() []string {
	return manifest.removeProfileNames
}

// SetRemoveProfileNames records the profile names this layer removes.
func (manifest *Manifest) SetRemoveProfileNames(profileNames []string) {
	manifest.removeProfileNames = append([]string{}, profileNames...)
}

// RemoveRepositoryNames lists the repository names this layer removes from its base.
func (manifest *Manifest) RemoveRepositoryNames() []string {
	return manifest.removeRepositoryNames
}

// SetRemoveRepositoryNames records the repository names this layer removes.
func (manifest *Manifest) SetRemoveRepositoryNames(repositoryNames []string) {
	manifest.removeRepositoryNames = append([]string{}, repositoryNames...)
}

// RunAfterCloneCommands lists the shell commands executed inside each freshly
// cloned repository.
func (manifest *Manifest) RunAfterCloneCommands() []string {
	return manifest.runAfterCloneCommands
}

// AppendRunAfterCloneCommands extends the run-after-clone command list.
// Overlays only ever extend this list, never replace it.
func (manifest *Manifest) AppendRunAfterCloneCommands(commandLines []string) {
	manifest.runAfterCloneCommands = append(manifest.runAfterCloneCommands, commandLines...)
}

// usedProfile resolves the profile a repository draws defaults from: the
// explicit use-profile reference, or the manifest default profile.
func (manifest *Manifest) usedProfile(repository *Repository) (*Profile, error) {
	profileName, profileNameExists := repository.UsedProfileName()
	if !profileNameExists {
		defaultProfileName, defaultProfileDefined := manifest.DefaultProfileName()
		if !defaultProfileDefined {
			return nil, ErrImplicitDefaultProfileUndefined
		}
		profileName = defaultProfileName
	}
	return manifest.Profile(profileName)
}

// ResolveOptional resolves a setting for a repository following the priority
// chain: repository, referenced profile, then the inherit chain. The supplied
// default is returned when the key is absent at every level.
func (manifest *Manifest) ResolveOptional(repository *Repository, settingKey string, defaultValue any) (any, error) {
	if ownValue := repository.OptionalSetting(settingKey, nil); ownValue != nil {
		return ownValue, nil
	}

	currentProfile, profileError := manifest.usedProfile(repository)
	if profileError != nil {
		return nil, profileError
	}

	visitedProfileNames := map[string]struct{}{currentProfile.Name(): {}}
	for {
		if profileValue := currentProfile.OptionalSetting(settingKey, nil); profileValue != nil {
			return profileValue, nil
		}
		parentProfileName, parentExists := currentProfile.InheritedProfileName()
		if !parentExists {
			return defaultValue, nil
		}
		if _, alreadyVisited := visitedProfileNames[parentProfileName]; alreadyVisited {
			return nil, InheritanceCycleError{ProfileName: parentProfileName}
		}
		visitedProfileNames[parentProfileName] = struct{}{}

		parentProfile, parentError := manifest.Profile(parentProfileName)
		if parentError != nil {
			return nil, parentError
		}
		currentProfile = parentProfile
	}
}

// ResolveMandatory resolves a setting like ResolveOptional but fails with a
// MissingSettingError when the key is absent at every level.
func (manifest *Manifest) ResolveMandatory(repository *Repository, settingKey string) (any, error) {
	resolvedValue, resolveError := manifest.ResolveOptional(repository, settingKey, nil)
	if resolveError != nil {
		return nil, resolveError
	}
	if resolvedValue == nil {
		return nil, MissingSettingError{Key: settingKey}
	}
	return resolvedValue, nil
}

// ResolveMandatoryString resolves a mandatory setting and renders it as a string.
func (manifest *Manifest) ResolveMandatoryString(repository *Repository, settingKey string) (string, error) {
	resolvedValue, resolveError := manifest.ResolveMandatory(repository, settingKey)
	if resolveError != nil {
		return "", resolveError
	}
	return fmt.Sprintf("%v", resolvedValue), nil
}

// ResolveOptionalString resolves an optional setting as a string, reporting
// presence alongside the value.
func (manifest *Manifest) ResolveOptionalString(repository *Repository, settingKey string) (string, bool, error) {
	resolvedValue, resolveError := manifest.ResolveOptional(repository, settingKey, nil)
	if resolveError != nil {
		return "", false, resolveError
	}
	if resolvedValue == nil {
		return "", false, nil
	}
	return fmt.Sprintf("%v", resolvedValue), true, nil
}

// Overlay applies the layer manifest on top of the receiver. Removals run
// first, then the default profile replacement, then the run-after-clone
// extension, then profile and repository overlays, so later layers always win.
func (manifest *Manifest) Overlay(layerManifest *Manifest) {
	for _, removedProfileName := range layerManifest.RemoveProfileNames() {
		manifest.RemoveProfile(removedProfileName)
	}
	for _, removedRepositoryName := range layerManifest.RemoveRepositoryNames() {
		manifest.RemoveRepository(removedRepositoryName)
	}

	if layerDefaultProfileName, layerDefinesDefault := layerManifest.DefaultProfileName(); layerDefinesDefault {
		manifest.SetDefaultProfileName(layerDefaultProfileName)
	}

	manifest.AppendRunAfterCloneCommands(layerManifest.RunAfterCloneCommands())

	for _, layerProfile := range layerManifest.Profiles() {
		if existingProfile, profileExists := manifest.profilesByName[layerProfile.Name()]; profileExists {
			existingProfile.Overlay(layerProfile)
			continue
		}
		manifest.profilesByName[layerProfile.Name()] = layerProfile
		manifest.profileNames = append(manifest.profileNames, layerProfile.Name())
	}

	for _, layerRepository := range layerManifest.Repositories() {
		if existingRepository, repositoryExists := manifest.repositoriesByName[layerRepository.Name()]; repositoryExists {
			existingRepository.Overlay(layerRepository)
			continue
		}
		manifest.repositoriesByName[layerRepository.Name()] = layerRepository
		manifest.repositoryNames = append(manifest.repositoryNames, layerRepository.Name())
	}
}

// FoldLayers folds the manifest layers left to right into a fresh manifest.
func FoldLayers(layerManifests []*Manifest) *Manifest {
	foldedManifest := NewManifest()
	for _, layerManifest := range layerManifests {
		foldedManifest.Overlay(layerManifest)
	}
	return foldedManifest
}

// ValidateProfiles checks that the default profile, explicit profile
// references, and inheritance chains are well formed.
func (manifest *Manifest) ValidateProfiles() error {
	if defaultProfileName, defaultProfileDefined := manifest.DefaultProfileName(); defaultProfileDefined {
		if _, profileError := manifest.Profile(defaultProfileName); profileError != nil {
			return fmt.Errorf(undefinedDefaultProfileTemplateConstant, defaultProfileName)
		}
	}

	for _, declaredProfile := range manifest.Profiles() {
		if cycleError := manifest.validateInheritanceChain(declaredProfile); cycleError != nil {
			return cycleError
		}
	}
	return nil
}

func (manifest *Manifest) validateInheritanceChain(startProfile *Profile) error {
	visitedProfileNames := map[string]struct{}{startProfile.Name(): {}}
	currentProfile := startProfile
	for {
		parentProfileName, parentExists := currentProfile.InheritedProfileName()
		if !parentExists {
			return nil
		}
		if _, alreadyVisited := visitedProfileNames[parentProfileName]; alreadyVisited {
			return InheritanceCycleError{ProfileName: parentProfileName}
		}
		visitedProfileNames[parentProfileName] = struct{}{}

		parentProfile, parentError := manifest.Profile(parentProfileName)
		if parentError != nil {
			return parentError
		}
		currentProfile = parentProfile
	}
}

// ValidateRepositories checks that at least one repository exists and that
// every repository resolves to a defined profile. These are sanity checks;
// the final validation happens when settings are resolved for a command.
func (manifest *Manifest) ValidateRepositories() error {
	if len(manifest.repositoryNames) == 0 {
		return ErrNoRepositories
	}
	for _, declaredRepository := range manifest.Repositories() {
		if _, profileError := manifest.usedProfile(declaredRepository); profileError != nil {
			return profileError
		}
	}
	return nil
}

// TargetRepositories selects the repositories matching the comma-separated
// group filter. The "all" selector returns every repository.
func (manifest *Manifest) TargetRepositories(groupsFilter string) []*Repository {
	if groupsFilter == AllGroupsSelectorConstant || len(strings.TrimSpace(groupsFilter)) == 0 {
		return manifest.Repositories()
	}

	requestedGroups := strings.Split(groupsFilter, groupListSeparatorConstant)
	targetRepositories := make([]*Repository, 0, len(manifest.repositoryNames))
	for _, candidateRepository := range manifest.Repositories() {
		if candidateRepository.BelongsToAnyGroup(requestedGroups) {
			targetRepositories = append(targetRepositories, candidateRepository)
		}
	}
	return targetRepositories
}
