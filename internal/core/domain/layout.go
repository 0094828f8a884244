package domain

import "path/filepath"

const (
	// SlimDirName is the name of the internal workspace directory.
	SlimDirName = ".slim"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// DepsDirName is the name of the dependency tree cache directory.
	DepsDirName = "deps"

	// StoreDirName is the name of the build info store directory.
	StoreDirName = "store"

	// WorkDirName is the name of the directory holding stage workspaces.
	WorkDirName = "work"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "slim.yaml"

	// ImageConfigFileName is the name of the exported runtime configuration.
	ImageConfigFileName = "image.json"

	// TreeDirName is the name of the directory holding a cached dependency tree.
	TreeDirName = "tree"

	// EntryFileName is the name of the cache entry metadata file.
	EntryFileName = "entry.json"

	// InitPath is the location of the supervisor inside the runtime artifact.
	InitPath = "/sbin/slim-init"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultSlimPath returns the default root directory for slim metadata.
func DefaultSlimPath() string {
	return SlimDirName
}

// DefaultCachePath returns the default root of the dependency cache.
// It joins .slim, cache, and deps.
func DefaultCachePath() string {
	return filepath.Join(SlimDirName, CacheDirName, DepsDirName)
}

// DefaultStorePath returns the default path for the build info store.
func DefaultStorePath() string {
	return filepath.Join(SlimDirName, StoreDirName)
}

// DefaultWorkPath returns the default directory for stage workspaces.
func DefaultWorkPath() string {
	return filepath.Join(SlimDirName, WorkDirName)
}
