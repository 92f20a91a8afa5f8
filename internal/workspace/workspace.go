package workspace

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

const (
	// ControlDirectoryNameConstant is the directory that anchors a workspace.
	ControlDirectoryNameConstant   = ".grit"
	activeManifestFileNameConstant = "_active_manifest.json"
	commandLogFileNameConstant     = "_commands.log"
	controlDirectoryPermissions    = 0o755
	commandLogPermissions          = 0o644
)

// ErrControlDirectoryNotFound indicates that no ancestor of the start
// directory contains a control directory.
var ErrControlDirectoryNotFound = errors.New("cannot find the " + ControlDirectoryNameConstant + " directory")

// Workspace is a checkout tree rooted at the directory that contains the
// control directory.
type Workspace struct {
	rootPath string
}

// Discover walks up from startPath until it finds a directory containing the
// control directory.
func Discover(startPath string) (*Workspace, error) {
	currentPath, absoluteError := filepath.Abs(startPath)
	if absoluteError != nil {
		return nil, absoluteError
	}
	for {
		controlPath := filepath.Join(currentPath, ControlDirectoryNameConstant)
		if directoryInfo, statError := os.Stat(controlPath); statError == nil && directoryInfo.IsDir() {
			return &Workspace{rootPath: currentPath}, nil
		}
		parentPath := filepath.Dir(currentPath)
		if parentPath == currentPath {
			return nil, ErrControlDirectoryNotFound
		}
		currentPath = parentPath
	}
}

// Prepare returns the workspace rooted at rootPath, creating the control
// directory when it does not exist yet.
func Prepare(rootPath string) (*Workspace, error) {
	absoluteRootPath, absoluteError := filepath.Abs(rootPath)
	if absoluteError != nil {
		return nil, absoluteError
	}
	controlPath := filepath.Join(absoluteRootPath, ControlDirectoryNameConstant)
	if mkdirError := os.MkdirAll(controlPath, controlDirectoryPermissions); mkdirError != nil {
		return nil, mkdirError
	}
	return &Workspace{rootPath: absoluteRootPath}, nil
}

// RootPath returns the workspace root, the parent of the control directory.
func (currentWorkspace *Workspace) RootPath() string {
	return currentWorkspace.rootPath
}

// ControlDirectoryPath returns the absolute path of the control directory.
func (currentWorkspace *Workspace) ControlDirectoryPath() string {
	return filepath.Join(currentWorkspace.rootPath, ControlDirectoryNameConstant)
}

// ActiveManifestPath returns the location of the generated active manifest.
func (currentWorkspace *Workspace) ActiveManifestPath() string {
	return filepath.Join(currentWorkspace.ControlDirectoryPath(), activeManifestFileNameConstant)
}

// CommandLogPath returns the location of the append-only command log.
func (currentWorkspace *Workspace) CommandLogPath() string {
	return filepath.Join(currentWorkspace.ControlDirectoryPath(), commandLogFileNameConstant)
}

// OpenCommandLog opens the command log for appending, creating it on first
// use.
func (currentWorkspace *Workspace) OpenCommandLog() (io.WriteCloser, error) {
	return os.OpenFile(currentWorkspace.CommandLogPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, commandLogPermissions)
}
