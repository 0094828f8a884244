package domain

import (
	"path"
	"regexp"
	"strings"

	"github.com/opencontainers/go-digest"
	"go.trai.ch/zerr"
)

// Role classifies what a stage is allowed to do.
type Role string

const (
	// RoleBuilder compiles the application and may install the full dependency set.
	RoleBuilder Role = "builder"
	// RoleInstaller installs the production dependency subset and prepares the runtime identity.
	RoleInstaller Role = "installer"
	// RoleFinal assembles the runtime artifact set from imported files only.
	RoleFinal Role = "final"
)

// ParseRole converts a configuration value into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleBuilder, RoleInstaller, RoleFinal:
		return Role(s), nil
	default:
		return "", zerr.With(ErrInvalidRole, "role", s)
	}
}

// ScratchBase is the name of the empty base.
const ScratchBase = "scratch"

// BaseRef is a digest-pinned reference to a base filesystem.
type BaseRef struct {
	Name   string
	Digest digest.Digest
}

// ParseBaseRef parses "name@sha256:<hex>" or "scratch".
// Tag-only references are rejected so that every stage rebuild starts from the same bytes.
func ParseBaseRef(s string) (BaseRef, error) {
	if s == ScratchBase {
		return BaseRef{Name: ScratchBase}, nil
	}

	name, dgst, ok := strings.Cut(s, "@")
	if !ok || name == "" {
		return BaseRef{}, zerr.With(ErrBaseNotPinned, "base", s)
	}

	d, err := digest.Parse(dgst)
	if err != nil {
		return BaseRef{}, zerr.With(zerr.Wrap(err, ErrBaseNotPinned.Error()), "base", s)
	}

	return BaseRef{Name: name, Digest: d}, nil
}

// IsScratch reports whether the reference names the empty base.
func (b BaseRef) IsScratch() bool {
	return b.Name == ScratchBase
}

func (b BaseRef) String() string {
	if b.IsScratch() || b.Digest == "" {
		return b.Name
	}
	return b.Name + "@" + b.Digest.String()
}

// CopyIn imports an allow-listed set of paths from a completed stage.
type CopyIn struct {
	From  string
	Paths []string
}

// Stage is a single isolated step of the build.
type Stage struct {
	Name     string
	Role     Role
	Base     BaseRef
	Workdir  string
	Context  []string
	Copy     []CopyIn
	Install  Subset
	Identity *IdentitySpec
	Commands [][]string
	Env      map[string]string
	Outputs  []string
	TTY      bool

	// User and Entrypoint only apply to the final stage.
	User       string
	Entrypoint []string
}

// Sources returns the distinct stages this stage imports from, in declaration order.
func (s *Stage) Sources() []string {
	seen := make(map[string]bool, len(s.Copy))
	var out []string
	for _, c := range s.Copy {
		if !seen[c.From] {
			seen[c.From] = true
			out = append(out, c.From)
		}
	}
	return out
}

// DepsPath returns the rootfs-relative location of the installed dependency tree.
func (s *Stage) DepsPath(target string) string {
	return path.Join(s.Workdir, target)
}

var validStageNameRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// ValidateStageName checks that a stage name is usable as a graph node and artifact prefix.
func ValidateStageName(name string) error {
	if !validStageNameRegex.MatchString(name) {
		return zerr.With(ErrInvalidStageName, "stage", name)
	}
	return nil
}

// CleanPath normalizes a rootfs path to a clean relative form without a leading slash.
// Paths that resolve to the root itself are rejected.
func CleanPath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", zerr.With(ErrInvalidPath, "path", p)
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+p), "/")
	if cleaned == "" {
		return "", zerr.With(ErrInvalidPath, "path", p)
	}
	return cleaned, nil
}

// PathWithin reports whether p equals parent or lies below it.
// Both paths must be clean.
func PathWithin(p, parent string) bool {
	return p == parent || strings.HasPrefix(p, parent+"/")
}
