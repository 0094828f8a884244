package domain

import "strconv"

const (
	// NoLoginShell is the shell given to the service identity.
	NoLoginShell = "/sbin/nologin"

	// SystemIDMin is the lowest uid/gid of the system account class.
	SystemIDMin = 100

	// SystemIDMax is the highest uid/gid of the system account class.
	SystemIDMax = 999

	// HomeDirPerm is the permission of the service identity home directory.
	HomeDirPerm = 0o750
)

// NonInteractiveShells are shells that do not grant an interactive session.
var NonInteractiveShells = []string{
	"/sbin/nologin",
	"/usr/sbin/nologin",
	"/bin/false",
	"/usr/bin/false",
	"/bin/sync",
	"/sbin/shutdown",
	"/sbin/halt",
}

// IdentitySpec requests a service identity. A nil UID selects a free system id.
type IdentitySpec struct {
	Name string
	UID  *int
	Home string
}

// HomeDir returns the requested home directory or /home/<name>.
func (s IdentitySpec) HomeDir() string {
	if s.Home != "" {
		return s.Home
	}
	return "/home/" + s.Name
}

// ServiceIdentity is the dedicated non-administrative account the runtime executes as.
type ServiceIdentity struct {
	Name  string
	UID   int
	GID   int
	Home  string
	Shell string
}

// Owner returns the "uid:gid" form used in the runtime configuration.
func (id ServiceIdentity) Owner() string {
	return strconv.Itoa(id.UID) + ":" + strconv.Itoa(id.GID)
}
