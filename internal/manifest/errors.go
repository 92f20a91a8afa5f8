package manifest

import (
	"errors"
	"fmt"
)

const (
	unknownSettingKeyTemplateConstant        = "invalid settings key %s"
	missingSettingKeyTemplateConstant        = "settings key %s is expected, but missing"
	undefinedReferenceTemplateConstant       = "%s %s is referenced, but is undefined"
	undefinedDefaultProfileTemplateConstant  = "the default profile %s is not defined"
	duplicateNameTemplateConstant            = "%s %s already exists"
	inheritanceCycleTemplateConstant         = "profile inheritance cycle detected at %s"
	manifestParseErrorTemplateConstant       = "%v in file %s"
	noRepositoriesMessageConstant            = "no repositories are specified"
	implicitDefaultProfileMessageConstant    = "default profile is implicitly referenced, but is undefined"
	profileReferenceKindNameConstant         = "profile"
	repositoryReferenceKindNameConstant      = "repository"
)

// ErrNoRepositories reports a folded manifest without any repository.
var ErrNoRepositories = errors.New(noRepositoriesMessageConstant)

// ErrImplicitDefaultProfileUndefined reports a repository that relies on the
// default profile while the manifest defines none.
var ErrImplicitDefaultProfileUndefined = errors.New(implicitDefaultProfileMessageConstant)

// ReferenceKind distinguishes the entity kinds that can be referenced by name.
type ReferenceKind string

// Supported reference kinds.
const (
	ReferenceKindProfile    ReferenceKind = ReferenceKind(profileReferenceKindNameConstant)
	ReferenceKindRepository ReferenceKind = ReferenceKind(repositoryReferenceKindNameConstant)
)

// UnknownSettingError reports a settings key outside the valid key set.
type UnknownSettingError struct {
	Key string
}

// Error describes the invalid settings key.
func (settingError UnknownSettingError) Error() string {
	return fmt.Sprintf(unknownSettingKeyTemplateConstant, settingError.Key)
}

// MissingSettingError reports a mandatory setting absent from the entire resolution chain.
type MissingSettingError struct {
	Key string
}

// Error describes the missing settings key.
func (settingError MissingSettingError) Error() string {
	return fmt.Sprintf(missingSettingKeyTemplateConstant, settingError.Key)
}

// UndefinedReferenceError reports a named profile or repository that does not exist.
type UndefinedReferenceError struct {
	Kind ReferenceKind
	Name string
}

// Error describes the dangling reference.
func (referenceError UndefinedReferenceError) Error() string {
	return fmt.Sprintf(undefinedReferenceTemplateConstant, string(referenceError.Kind), referenceError.Name)
}

// DuplicateNameError reports a profile or repository added under an existing name.
type DuplicateNameError struct {
	Kind ReferenceKind
	Name string
}

// Error describes the duplicated name.
func (duplicateError DuplicateNameError) Error() string {
	return fmt.Sprintf(duplicateNameTemplateConstant, string(duplicateError.Kind), duplicateError.Name)
}

// InheritanceCycleError reports a profile inheritance chain that revisits a profile.
type InheritanceCycleError struct {
	ProfileName string
}

// Error names the profile at which the cycle was detected.
func (cycleError InheritanceCycleError) Error() string {
	return fmt.Sprintf(inheritanceCycleTemplateConstant, cycleError.ProfileName)
}

// ParseError reports a malformed manifest or configuration document alongside its file path.
type ParseError struct {
	FilePath string
	Cause    error
}

// Error combines the underlying decode failure with the offending file path.
func (parseError ParseError) Error() string {
	return fmt.Sprintf(manifestParseErrorTemplateConstant, parseError.Cause, parseError.FilePath)
}

// Unwrap exposes the underlying decode failure.
func (parseError ParseError) Unwrap() error {
	return parseError.Cause
}
