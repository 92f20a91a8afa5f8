package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/grit/internal/manifest"
)

const (
	testBranchSettingValueConstant        = "main"
	testOverlayBranchSettingValueConstant = "develop"
	testExtensionSettingKeyConstant       = "x-team"
	testUnknownSettingKeyConstant         = "unexpected-key"
	testRemoteURLSettingValueConstant     = "ssh://git@example.com"
)

func TestSettingsApplyAndRead(testInstance *testing.T) {
	testCases := []struct {
		name             string
		appliedSettings  map[string]any
		expectApplyError bool
		readKey          string
		expectedValue    any
	}{
		{
			name:            "valid_key_round_trips",
			appliedSettings: map[string]any{manifest.SettingKeyBranch: testBranchSettingValueConstant},
			readKey:         manifest.SettingKeyBranch,
			expectedValue:   testBranchSettingValueConstant,
		},
		{
			name:            "extension_key_is_ignored",
			appliedSettings: map[string]any{testExtensionSettingKeyConstant: testBranchSettingValueConstant},
			readKey:         testExtensionSettingKeyConstant,
			expectedValue:   nil,
		},
		{
			name:             "unknown_key_is_rejected",
			appliedSettings:  map[string]any{testUnknownSettingKeyConstant: testBranchSettingValueConstant},
			expectApplyError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			declaredProfile := manifest.NewProfile("settings-profile")
			applyError := declaredProfile.ApplySettings(testCase.appliedSettings)

			if testCase.expectApplyError {
				require.Error(testInstance, applyError)
				require.IsType(testInstance, manifest.UnknownSettingError{}, applyError)
				return
			}

			require.NoError(testInstance, applyError)
			require.Equal(testInstance, testCase.expectedValue, declaredProfile.OptionalSetting(testCase.readKey, nil))
		})
	}
}

func TestSettingsMandatoryLookup(testInstance *testing.T) {
	declaredProfile := manifest.NewProfile("mandatory-profile")
	require.NoError(testInstance, declaredProfile.ApplySettings(map[string]any{manifest.SettingKeyRemoteURL: testRemoteURLSettingValueConstant}))

	remoteURLValue, remoteURLError := declaredProfile.MandatorySetting(manifest.SettingKeyRemoteURL)
	require.NoError(testInstance, remoteURLError)
	require.Equal(testInstance, testRemoteURLSettingValueConstant, remoteURLValue)

	_, missingError := declaredProfile.MandatorySetting(manifest.SettingKeyBranch)
	require.Error(testInstance, missingError)
	require.IsType(testInstance, manifest.MissingSettingError{}, missingError)
}

func TestSettingsOverlayReplacesAndDeletes(testInstance *testing.T) {
	baseProfile := manifest.NewProfile("base-profile")
	require.NoError(testInstance, baseProfile.ApplySettings(map[string]any{
		manifest.SettingKeyBranch:    testBranchSettingValueConstant,
		manifest.SettingKeyRemoteURL: testRemoteURLSettingValueConstant,
	}))

	overlayProfile := manifest.NewProfile("base-profile")
	require.NoError(testInstance, overlayProfile.ApplySettings(map[string]any{
		manifest.SettingKeyBranch:    testOverlayBranchSettingValueConstant,
		manifest.SettingKeyRemoteURL: nil,
	}))

	baseProfile.Overlay(overlayProfile)

	require.Equal(testInstance, testOverlayBranchSettingValueConstant, baseProfile.OptionalSetting(manifest.SettingKeyBranch, nil))
	require.Nil(testInstance, baseProfile.OptionalSetting(manifest.SettingKeyRemoteURL, nil))
	require.Equal(testInstance, []string{manifest.SettingKeyBranch}, baseProfile.SettingKeys())
}
