package manifest

import "strings"

// Settings keys specific to repositories.
const (
	SettingKeyUseProfile = "use-profile"
	SettingKeyDirectory  = "directory"
	SettingKeyGroups     = "groups"
)

const repositoryNameSeparatorConstant = "/"

var repositoryValidSettingKeys = append(
	[]string{SettingKeyUseProfile, SettingKeyDirectory, SettingKeyGroups},
	profileValidSettingKeys...,
)

// Repository describes one clone target with its own settings and an optional
// profile reference.
type Repository struct {
	Settings
	repositoryName string
}

// NewRepository constructs an empty repository entry with the given name.
func NewRepository(repositoryName string) *Repository {
	return &Repository{Settings: newSettings(repositoryValidSettingKeys), repositoryName: repositoryName}
}

// Name returns the repository name as declared in the manifest.
func (repository *Repository) Name() string {
	return repository.repositoryName
}

// UsedProfileName returns the explicitly referenced profile name when configured.
func (repository *Repository) UsedProfileName() (string, bool) {
	return repository.StringSetting(SettingKeyUseProfile)
}

// LocalPath returns the checkout directory for the repository: the directory
// setting when present, otherwise the last segment of the repository name,
// which is the directory git itself would pick.
func (repository *Repository) LocalPath() string {
	if directoryValue, directoryExists := repository.StringSetting(SettingKeyDirectory); directoryExists {
		return directoryValue
	}
	nameSegments := strings.Split(repository.repositoryName, repositoryNameSeparatorConstant)
	return nameSegments[len(nameSegments)-1]
}

// Groups normalizes the groups setting, which the document format allows as a
// single string or a list of strings.
func (repository *Repository) Groups() []string {
	groupsValue := repository.OptionalSetting(SettingKeyGroups, nil)
	switch typedGroups := groupsValue.(type) {
	case nil:
		return nil
	case string:
		return []string{typedGroups}
	case []string:
		return typedGroups
	case []any:
		groupNames := make([]string, 0, len(typedGroups))
		for _, groupEntry := range typedGroups {
			if groupName, isString := groupEntry.(string); isString {
				groupNames = append(groupNames, groupName)
			}
		}
		return groupNames
	default:
		return nil
	}
}

// BelongsToAnyGroup reports whether the repository belongs to at least one of
// the provided groups.
func (repository *Repository) BelongsToAnyGroup(groupNames []string) bool {
	repositoryGroups := repository.Groups()
	for _, requestedGroup := range groupNames {
		for _, repositoryGroup := range repositoryGroups {
			if requestedGroup == repositoryGroup {
				return true
			}
		}
	}
	return false
}

// Overlay applies the other repository's settings on top of the receiver.
func (repository *Repository) Overlay(overlayRepository *Repository) {
	repository.Settings.Overlay(overlayRepository.Settings)
}
