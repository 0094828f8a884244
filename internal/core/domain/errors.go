package domain

import "go.trai.ch/zerr"

var (
	// ErrConfigNotFound is returned when no slim.yaml can be found.
	ErrConfigNotFound = zerr.New("could not find slim.yaml")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when the config file is syntactically valid but semantically wrong.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrManifestReadFailed is returned when a manifest file cannot be read.
	ErrManifestReadFailed = zerr.New("failed to read dependency manifest")

	// ErrManifestParseFailed is returned when a manifest file cannot be parsed.
	ErrManifestParseFailed = zerr.New("failed to parse dependency manifest")

	// ErrManifestNotPinned is returned when the manifest does not resolve every dependency to an exact version.
	ErrManifestNotPinned = zerr.New("dependency manifest is not fully pinned")

	// ErrNoManifest is returned when an operation needs a manifest the project does not declare.
	ErrNoManifest = zerr.New("project declares no dependency manifest")

	// ErrInvalidSubset is returned for an unknown dependency subset.
	ErrInvalidSubset = zerr.New("invalid dependency subset, expected 'full', 'production' or 'none'")

	// ErrCacheCreateFailed is returned when the dependency cache directory cannot be created.
	ErrCacheCreateFailed = zerr.New("failed to create dependency cache directory")

	// ErrCacheReadFailed is returned when a cache entry cannot be read.
	ErrCacheReadFailed = zerr.New("failed to read dependency cache entry")

	// ErrCacheWriteFailed is returned when a cache entry cannot be published.
	ErrCacheWriteFailed = zerr.New("failed to write dependency cache entry")

	// ErrCacheLockFailed is returned when the per-key cache lock cannot be acquired.
	ErrCacheLockFailed = zerr.New("failed to lock dependency cache entry")

	// ErrCacheEntryCorrupt is returned when a stored tree no longer matches its recorded digest.
	ErrCacheEntryCorrupt = zerr.New("dependency cache entry is corrupt")

	// ErrInstallFailed is returned when the package installer fails.
	ErrInstallFailed = zerr.New("dependency installation failed")

	// ErrPackageNotInMirror is returned when a pinned package is missing from the offline mirror.
	ErrPackageNotInMirror = zerr.New("package not found in mirror")

	// ErrIntegrityMismatch is returned when package content does not match its recorded integrity.
	ErrIntegrityMismatch = zerr.New("package integrity mismatch")

	// ErrBaseNotPinned is returned when a stage base is not referenced by digest.
	ErrBaseNotPinned = zerr.New("base reference must be pinned by digest, expected name@sha256:<hex>")

	// ErrBaseNotFound is returned when a pinned base is not present in the base catalog.
	ErrBaseNotFound = zerr.New("base not found")

	// ErrBaseDigestMismatch is returned when a base tree does not match its pinned digest.
	ErrBaseDigestMismatch = zerr.New("base digest mismatch")

	// ErrStageAlreadyExists is returned when adding a stage whose name is taken.
	ErrStageAlreadyExists = zerr.New("stage already exists")

	// ErrInvalidStageName is returned when a stage name contains invalid characters.
	ErrInvalidStageName = zerr.New("stage name can only contain alphanumeric characters, hyphens and underscores")

	// ErrInvalidRole is returned for an unknown stage role.
	ErrInvalidRole = zerr.New("invalid stage role, expected 'builder', 'installer' or 'final'")

	// ErrMissingDependency is returned when a stage imports from a stage that does not exist.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrSelfImport is returned when a stage imports from itself.
	ErrSelfImport = zerr.New("stage cannot import from itself")

	// ErrCycleDetected is returned when a cycle is detected in the stage graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrFinalStageCount is returned when the graph does not have exactly one final stage.
	ErrFinalStageCount = zerr.New("stage graph must contain exactly one final stage")

	// ErrFinalStageNotSink is returned when another stage imports from the final stage.
	ErrFinalStageNotSink = zerr.New("final stage cannot be imported by other stages")

	// ErrFinalStageNotMinimal is returned when the final stage runs commands or installs dependencies.
	ErrFinalStageNotMinimal = zerr.New("final stage may only import artifacts")

	// ErrMissingRuntimeUser is returned when the final stage does not declare a runtime user.
	ErrMissingRuntimeUser = zerr.New("final stage must declare a runtime user")

	// ErrPathNotExported is returned when a copy-in names a path the source stage does not declare as output.
	ErrPathNotExported = zerr.New("path is not a declared output of the source stage")

	// ErrInstallerInheritsBuilder is returned when an installer stage imports from a builder stage.
	ErrInstallerInheritsBuilder = zerr.New("installer stage cannot import from a builder stage")

	// ErrInstallerSubset is returned when an installer stage does not install the production subset.
	ErrInstallerSubset = zerr.New("installer stage must install the production dependency subset")

	// ErrBuildToolingLeak is returned when the final stage imports the full dependency tree of a builder.
	ErrBuildToolingLeak = zerr.New("final stage cannot import the dependency tree of a builder stage")

	// ErrInvalidPath is returned when a declared path is empty or escapes the stage root.
	ErrInvalidPath = zerr.New("invalid path, must be a non-empty path inside the stage root")

	// ErrContextInputNotFound is returned when a build-context path does not exist in the source tree.
	ErrContextInputNotFound = zerr.New("build context input not found")

	// ErrOutputNotProduced is returned when a stage finishes without producing a declared output.
	ErrOutputNotProduced = zerr.New("declared output was not produced")

	// ErrCommandFailed is returned when a stage command exits unsuccessfully.
	ErrCommandFailed = zerr.New("command failed")

	// ErrStageFailed is returned when a stage fails.
	ErrStageFailed = zerr.New("stage failed")

	// ErrBuildFailed is returned when the stage graph execution fails.
	ErrBuildFailed = zerr.New("build failed")

	// ErrRootRuntimeUser is returned when the final runtime identity resolves to uid 0.
	ErrRootRuntimeUser = zerr.New("runtime user must not be root")

	// ErrRuntimeUserNotFound is returned when the final runtime user is absent from the imported passwd table.
	ErrRuntimeUserNotFound = zerr.New("runtime user not found in imported passwd table")

	// ErrWorkspaceCreateFailed is returned when a stage workspace cannot be created.
	ErrWorkspaceCreateFailed = zerr.New("failed to create stage workspace")

	// ErrMaterializeFailed is returned when files cannot be materialized into a stage root.
	ErrMaterializeFailed = zerr.New("failed to materialize files")

	// ErrHarvestFailed is returned when declared outputs cannot be collected.
	ErrHarvestFailed = zerr.New("failed to harvest outputs")

	// ErrExportFailed is returned when the final artifact set cannot be exported.
	ErrExportFailed = zerr.New("failed to export artifacts")

	// ErrStoreCreateFailed is returned when the build info store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create build info store directory")

	// ErrStoreReadFailed is returned when the build info cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read build info")

	// ErrStoreUnmarshalFailed is returned when the build info cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal build info")

	// ErrStoreMarshalFailed is returned when the build info cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal build info")

	// ErrStoreWriteFailed is returned when the build info cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write build info")

	// ErrIdentityTableRead is returned when an account table cannot be read.
	ErrIdentityTableRead = zerr.New("failed to read account table")

	// ErrIdentityTableParse is returned when an account table cannot be parsed.
	ErrIdentityTableParse = zerr.New("failed to parse account table")

	// ErrIdentityTableWrite is returned when an account table cannot be written.
	ErrIdentityTableWrite = zerr.New("failed to write account table")

	// ErrAdministrativeIdentity is returned when the service identity would be root or uid 0.
	ErrAdministrativeIdentity = zerr.New("service identity cannot be an administrative account")

	// ErrIdentityConflict is returned when the requested uid or name is already taken.
	ErrIdentityConflict = zerr.New("service identity conflicts with an existing account")

	// ErrIdentityExhausted is returned when no free system id is left.
	ErrIdentityExhausted = zerr.New("no free system id available")

	// ErrNoCommand is returned when the supervisor is started without a child command.
	ErrNoCommand = zerr.New("no command specified")

	// ErrSpawnFailed is returned when the supervised child cannot be started.
	ErrSpawnFailed = zerr.New("failed to start child process")

	// ErrReapFailed is returned when waiting for children fails unexpectedly.
	ErrReapFailed = zerr.New("failed to reap children")

	// ErrSubreaperFailed is returned when the supervisor cannot register as child subreaper.
	ErrSubreaperFailed = zerr.New("failed to register as child subreaper")
)
