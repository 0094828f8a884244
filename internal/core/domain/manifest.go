package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"

	"github.com/opencontainers/go-digest"
	"go.trai.ch/zerr"
)

// Subset selects which part of a resolved dependency set is installed.
type Subset string

const (
	// SubsetFull installs every resolved package, including development tooling.
	SubsetFull Subset = "full"
	// SubsetProduction installs only packages needed at runtime.
	SubsetProduction Subset = "production"
	// SubsetNone installs nothing. It is the zero value, so a stage that never
	// sets Install installs nothing.
	SubsetNone Subset = ""
)

// ParseSubset converts a configuration value into a Subset.
// Both the empty string and "none" map to SubsetNone.
func ParseSubset(s string) (Subset, error) {
	switch s {
	case "", "none":
		return SubsetNone, nil
	case string(SubsetFull), string(SubsetProduction):
		return Subset(s), nil
	default:
		return "", zerr.With(ErrInvalidSubset, "subset", s)
	}
}

// DeclaredDependency is a dependency as written by the project author.
type DeclaredDependency struct {
	Name       string
	Constraint string
	Dev        bool
}

// ResolvedPackage is a dependency pinned by the lock file.
type ResolvedPackage struct {
	Name      string
	Version   string
	Integrity digest.Digest
	Dev       bool
}

// Manifest is the declared dependency list together with its fully pinned resolution.
// A Manifest is treated as immutable once loaded.
type Manifest struct {
	Declared map[string]DeclaredDependency
	Resolved map[string]ResolvedPackage
}

// CacheKey is the content identity of a Manifest.
type CacheKey string

// String returns the hex form of the key.
func (k CacheKey) String() string {
	return string(k)
}

// Short returns an abbreviated key for display.
func (k CacheKey) Short() string {
	if len(k) <= 12 {
		return string(k)
	}
	return string(k[:12])
}

// ComputeKey returns the identity of the manifest content.
// It depends only on the declared and resolved entries, never on their order
// or on any file metadata.
func ComputeKey(m *Manifest) CacheKey {
	hash := sha256.Sum256(m.Canonical())
	return CacheKey(hex.EncodeToString(hash[:]))
}

// Canonical returns the order-independent encoding of the manifest used for hashing.
func (m *Manifest) Canonical() []byte {
	var b strings.Builder

	for _, name := range sortedKeys(m.Declared) {
		d := m.Declared[name]
		b.WriteString("declared\x00")
		b.WriteString(name)
		b.WriteByte(0)
		b.WriteString(d.Constraint)
		b.WriteByte(0)
		b.WriteString(strconv.FormatBool(d.Dev))
		b.WriteByte('\n')
	}

	for _, name := range sortedKeys(m.Resolved) {
		p := m.Resolved[name]
		b.WriteString("resolved\x00")
		b.WriteString(name)
		b.WriteByte(0)
		b.WriteString(p.Version)
		b.WriteByte(0)
		b.WriteString(p.Integrity.String())
		b.WriteByte(0)
		b.WriteString(strconv.FormatBool(p.Dev))
		b.WriteByte('\n')
	}

	return []byte(b.String())
}

// Packages returns the resolved packages belonging to the subset, sorted by name.
// SubsetNone yields no packages.
func (m *Manifest) Packages(subset Subset) []ResolvedPackage {
	if subset == SubsetNone {
		return nil
	}

	pkgs := make([]ResolvedPackage, 0, len(m.Resolved))
	for _, name := range sortedKeys(m.Resolved) {
		p := m.Resolved[name]
		if subset == SubsetProduction && p.Dev {
			continue
		}
		pkgs = append(pkgs, p)
	}
	return pkgs
}

// Validate checks that the manifest is fully pinned: every declared dependency
// is resolved, and every resolved package has an exact version and a valid
// integrity digest.
func (m *Manifest) Validate() error {
	for _, name := range sortedKeys(m.Declared) {
		if err := checkCanonical(name, "constraint", m.Declared[name].Constraint); err != nil {
			return err
		}
		if _, ok := m.Resolved[name]; !ok {
			return zerr.With(zerr.With(ErrManifestNotPinned, "package", name), "reason", "unresolved")
		}
	}

	for _, name := range sortedKeys(m.Resolved) {
		p := m.Resolved[name]
		if err := checkCanonical(name, "version", p.Version); err != nil {
			return err
		}
		if !IsExactVersion(p.Version) {
			err := zerr.With(ErrManifestNotPinned, "package", name)
			return zerr.With(err, "version", p.Version)
		}
		if err := p.Integrity.Validate(); err != nil {
			err := zerr.With(ErrManifestNotPinned, "package", name)
			return zerr.With(err, "integrity", p.Integrity.String())
		}
	}

	return nil
}

// canonicalSeparators delimit the fields of the canonical encoding and may not
// appear inside a field.
const canonicalSeparators = "\x00\n"

// checkCanonical rejects a package whose name or field value contains a separator.
func checkCanonical(pkg, field, value string) error {
	reason := ""
	switch {
	case strings.ContainsAny(pkg, canonicalSeparators):
		reason = "invalid character in package name"
	case strings.ContainsAny(value, canonicalSeparators):
		reason = "invalid character in " + field
	default:
		return nil
	}
	return zerr.With(zerr.With(ErrManifestNotPinned, "package", pkg), "reason", reason)
}

// IsExactVersion reports whether v names a single version rather than a range or tag.
func IsExactVersion(v string) bool {
	if v == "" || v == "latest" || v == "*" {
		return false
	}
	if strings.ContainsAny(v, "^~<>=*| ") {
		return false
	}
	for _, part := range strings.Split(v, ".") {
		if part == "x" || part == "X" || part == "" {
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
