package manifest

// Settings keys shared by profiles and repositories.
const (
	SettingKeyInherit       = "inherit"
	SettingKeyRemoteName    = "remote-name"
	SettingKeyRemoteURL     = "remote-url"
	SettingKeyRemotePushURL = "remote-push-url"
	SettingKeyBranch        = "branch"
	SettingKeyRemoteBranch  = "remote-branch"
	SettingKeySingleBranch  = "single-branch"
	SettingKeyTag           = "tag"
)

var profileValidSettingKeys = []string{
	SettingKeyInherit,
	SettingKeyRemoteName,
	SettingKeyRemoteURL,
	SettingKeyRemotePushURL,
	SettingKeyBranch,
	SettingKeyRemoteBranch,
	SettingKeySingleBranch,
	SettingKeyTag,
}

// Profile bundles default settings under a name. Profiles may inherit from a
// parent profile through the inherit setting.
type Profile struct {
	Settings
	profileName string
}

// NewProfile constructs an empty profile with the given name.
func NewProfile(profileName string) *Profile {
	return &Profile{Settings: newSettings(profileValidSettingKeys), profileName: profileName}
}

// Name returns the profile name.
func (profile *Profile) Name() string {
	return profile.profileName
}

// InheritedProfileName returns the parent profile name when configured.
func (profile *Profile) InheritedProfileName() (string, bool) {
	return profile.StringSetting(SettingKeyInherit)
}

// Overlay applies the other profile's settings on top of the receiver.
func (profile *Profile) Overlay(overlayProfile *Profile) {
	profile.Settings.Overlay(overlayProfile.Settings)
}
