package manifest

import (
	"sort"
	"strings"
)

// ExtensionKeyPrefixConstant marks settings keys reserved for data extension.
// Keys carrying the prefix are ignored silently on both read and write.
const ExtensionKeyPrefixConstant = "x-"

// Settings stores validated key/value pairs shared by profiles, repositories,
// and fetch instructions. A nil value marks a key as unset; overlaying a nil
// value removes the key from the base (null in the document format).
type Settings struct {
	validKeys map[string]struct{}
	values    map[string]any
}

func newSettings(validKeys []string) Settings {
	keySet := make(map[string]struct{}, len(validKeys))
	for _, validKey := range validKeys {
		keySet[validKey] = struct{}{}
	}
	return Settings{validKeys: keySet, values: map[string]any{}}
}

// ApplySettings stores every entry of the provided map, rejecting keys outside
// the valid key set unless they carry the extension prefix.
func (settings *Settings) ApplySettings(settingValues map[string]any) error {
	for settingKey, settingValue := range settingValues {
		if _, keyIsValid := settings.validKeys[settingKey]; keyIsValid {
			settings.values[settingKey] = settingValue
			continue
		}
		if strings.HasPrefix(settingKey, ExtensionKeyPrefixConstant) {
			continue
		}
		return UnknownSettingError{Key: settingKey}
	}
	return nil
}

// OptionalSetting returns the stored value for the key, or the supplied
// default when the key is absent or explicitly unset.
func (settings *Settings) OptionalSetting(settingKey string, defaultValue any) any {
	storedValue, keyExists := settings.values[settingKey]
	if !keyExists || storedValue == nil {
		return defaultValue
	}
	return storedValue
}

// MandatorySetting returns the stored value for the key or a MissingSettingError.
func (settings *Settings) MandatorySetting(settingKey string) (any, error) {
	storedValue, keyExists := settings.values[settingKey]
	if !keyExists || storedValue == nil {
		return nil, MissingSettingError{Key: settingKey}
	}
	return storedValue, nil
}

// StringSetting returns the stored value rendered as a string alongside a
// presence flag. Unset keys and non-string values report absence.
func (settings *Settings) StringSetting(settingKey string) (string, bool) {
	storedValue, keyExists := settings.values[settingKey]
	if !keyExists || storedValue == nil {
		return "", false
	}
	stringValue, isString := storedValue.(string)
	if !isString {
		return "", false
	}
	return stringValue, true
}

// Overlay applies the other settings on top of the receiver. Values in the
// overlay win; a nil overlay value deletes the key from the receiver.
func (settings *Settings) Overlay(overlaySettings Settings) {
	for overlayKey, overlayValue := range overlaySettings.values {
		if overlayValue == nil {
			delete(settings.values, overlayKey)
			continue
		}
		settings.values[overlayKey] = overlayValue
	}
}

// SettingKeys lists the stored keys in lexical order.
func (settings *Settings) SettingKeys() []string {
	settingKeys := make([]string, 0, len(settings.values))
	for settingKey := range settings.values {
		settingKeys = append(settingKeys, settingKey)
	}
	sort.Strings(settingKeys)
	return settingKeys
}

// SettingsSnapshot copies the stored key/value pairs into a fresh map.
func (settings *Settings) SettingsSnapshot() map[string]any {
	snapshot := make(map[string]any, len(settings.values))
	for settingKey, settingValue := range settings.values {
		snapshot[settingKey] = settingValue
	}
	return snapshot
}
