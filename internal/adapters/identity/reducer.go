// Package identity rewrites the account tables of a stage root so that only
// non-interactive accounts remain and a single service identity is provisioned.
package identity

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/moby/sys/user"
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	passwdPath = "etc/passwd"
	groupPath  = "etc/group"
	shadowPath = "etc/shadow"

	tablePerm  = 0o644
	shadowPerm = 0o640
)

// Reducer implements ports.PrivilegeReducer on a stage root.
type Reducer struct {
	logger ports.Logger
	chown  bool
}

// NewReducer creates a new Reducer. Home directories are chowned when running as root.
func NewReducer(logger ports.Logger) *Reducer {
	return &Reducer{logger: logger, chown: os.Geteuid() == 0}
}

// tables is the parsed account database of one root.
type tables struct {
	users  []user.User
	groups []user.Group
	shadow []shadowEntry
}

type shadowEntry struct {
	name string
	line string
}

// Reduce removes interactive accounts under root and provisions the service identity.
func (r *Reducer) Reduce(ctx context.Context, root string, spec domain.IdentitySpec) (domain.ServiceIdentity, error) {
	if err := ctx.Err(); err != nil {
		return domain.ServiceIdentity{}, err
	}
	if err := validateSpec(spec); err != nil {
		return domain.ServiceIdentity{}, err
	}

	rootDir, err := os.OpenRoot(root)
	if err != nil {
		return domain.ServiceIdentity{}, zerr.Wrap(err, domain.ErrIdentityTableRead.Error())
	}
	defer func() { _ = rootDir.Close() }()

	t, err := readTables(rootDir)
	if err != nil {
		return domain.ServiceIdentity{}, err
	}

	removed := t.removeInteractive()
	for _, u := range removed {
		r.logger.Debug("removed interactive account " + u.Name)
		if err := removeHome(rootDir, u.Home, t.users); err != nil {
			return domain.ServiceIdentity{}, err
		}
	}

	id, err := t.provision(spec)
	if err != nil {
		return domain.ServiceIdentity{}, err
	}

	if err := r.createHome(rootDir, id); err != nil {
		return domain.ServiceIdentity{}, err
	}

	if err := t.write(rootDir); err != nil {
		return domain.ServiceIdentity{}, err
	}

	return id, nil
}

// Lookup resolves name against raw passwd and group tables.
func (r *Reducer) Lookup(passwd, group []byte, name string) (domain.ServiceIdentity, error) {
	users, err := user.ParsePasswd(bytes.NewReader(passwd))
	if err != nil {
		return domain.ServiceIdentity{}, zerr.With(zerr.Wrap(err, domain.ErrIdentityTableParse.Error()), "table", passwdPath)
	}

	idx := slices.IndexFunc(users, func(u user.User) bool { return u.Name == name })
	if idx < 0 {
		return domain.ServiceIdentity{}, zerr.With(domain.ErrRuntimeUserNotFound, "user", name)
	}
	u := users[idx]

	if len(group) > 0 {
		groups, err := user.ParseGroup(bytes.NewReader(group))
		if err != nil {
			return domain.ServiceIdentity{}, zerr.With(zerr.Wrap(err, domain.ErrIdentityTableParse.Error()), "table", groupPath)
		}
		if !slices.ContainsFunc(groups, func(g user.Group) bool { return g.Gid == u.Gid }) {
			err := zerr.With(domain.ErrIdentityTableParse, "user", name)
			return domain.ServiceIdentity{}, zerr.With(err, "missing_gid", u.Gid)
		}
	}

	return domain.ServiceIdentity{Name: u.Name, UID: u.Uid, GID: u.Gid, Home: u.Home, Shell: u.Shell}, nil
}

func validateSpec(spec domain.IdentitySpec) error {
	if spec.Name == "root" || (spec.UID != nil && *spec.UID == 0) {
		return zerr.With(domain.ErrAdministrativeIdentity, "user", spec.Name)
	}
	if spec.Name == "" || strings.ContainsAny(spec.Name, ":\n/") {
		return zerr.With(domain.ErrInvalidConfig, "user", spec.Name)
	}
	if spec.UID != nil && (*spec.UID < 0 || *spec.UID > domain.SystemIDMax) {
		err := zerr.With(domain.ErrInvalidConfig, "user", spec.Name)
		return zerr.With(err, "uid", *spec.UID)
	}
	return nil
}

func readTables(r *os.Root) (*tables, error) {
	passwd, err := readTable(r, passwdPath)
	if err != nil {
		return nil, err
	}
	group, err := readTable(r, groupPath)
	if err != nil {
		return nil, err
	}
	shadow, err := readTable(r, shadowPath)
	if err != nil {
		return nil, err
	}

	t := &tables{}
	if t.users, err = user.ParsePasswd(bytes.NewReader(passwd)); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrIdentityTableParse.Error()), "table", passwdPath)
	}
	if t.groups, err = user.ParseGroup(bytes.NewReader(group)); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrIdentityTableParse.Error()), "table", groupPath)
	}
	t.shadow = parseShadow(shadow)

	return t, nil
}

// readTable returns the table contents, or nothing when the base has no such table.
func readTable(r *os.Root, name string) ([]byte, error) {
	data, err := r.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrIdentityTableRead.Error()), "table", name)
	}
	return data, nil
}

func parseShadow(data []byte) []shadowEntry {
	var entries []shadowEntry
	s := bufio.NewScanner(bytes.NewReader(data))
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, _, _ := strings.Cut(line, ":")
		entries = append(entries, shadowEntry{name: name, line: line})
	}
	return entries
}

func isInteractive(u user.User) bool {
	return u.Uid != 0 && !slices.Contains(domain.NonInteractiveShells, u.Shell)
}

// removeInteractive drops every interactive account with its shadow entry,
// group memberships and same-named private group. It returns the removed accounts.
func (t *tables) removeInteractive() []user.User {
	var removed []user.User
	t.users = slices.DeleteFunc(t.users, func(u user.User) bool {
		if isInteractive(u) {
			removed = append(removed, u)
			return true
		}
		return false
	})
	if len(removed) == 0 {
		return nil
	}

	names := make(map[string]bool, len(removed))
	for _, u := range removed {
		names[u.Name] = true
	}

	t.shadow = slices.DeleteFunc(t.shadow, func(e shadowEntry) bool { return names[e.name] })

	t.groups = slices.DeleteFunc(t.groups, func(g user.Group) bool {
		return names[g.Name] && !t.primaryGroupInUse(g.Gid)
	})
	for i := range t.groups {
		t.groups[i].List = slices.DeleteFunc(t.groups[i].List, func(m string) bool { return names[m] })
	}

	return removed
}

func (t *tables) primaryGroupInUse(gid int) bool {
	return slices.ContainsFunc(t.users, func(u user.User) bool { return u.Gid == gid })
}

func (t *tables) uidTaken(id int) bool {
	return slices.ContainsFunc(t.users, func(u user.User) bool { return u.Uid == id })
}

func (t *tables) gidTaken(id int) bool {
	return slices.ContainsFunc(t.groups, func(g user.Group) bool { return g.Gid == id })
}

// provision appends the service identity. The uid doubles as the gid of its private group.
func (t *tables) provision(spec domain.IdentitySpec) (domain.ServiceIdentity, error) {
	if slices.ContainsFunc(t.users, func(u user.User) bool { return u.Name == spec.Name }) ||
		slices.ContainsFunc(t.groups, func(g user.Group) bool { return g.Name == spec.Name }) {
		return domain.ServiceIdentity{}, zerr.With(domain.ErrIdentityConflict, "user", spec.Name)
	}

	id := -1
	if spec.UID != nil {
		if t.uidTaken(*spec.UID) || t.gidTaken(*spec.UID) {
			err := zerr.With(domain.ErrIdentityConflict, "user", spec.Name)
			return domain.ServiceIdentity{}, zerr.With(err, "uid", *spec.UID)
		}
		id = *spec.UID
	} else {
		for candidate := domain.SystemIDMax; candidate >= domain.SystemIDMin; candidate-- {
			if !t.uidTaken(candidate) && !t.gidTaken(candidate) {
				id = candidate
				break
			}
		}
		if id < 0 {
			return domain.ServiceIdentity{}, zerr.With(domain.ErrIdentityExhausted, "user", spec.Name)
		}
	}

	svc := domain.ServiceIdentity{
		Name:  spec.Name,
		UID:   id,
		GID:   id,
		Home:  spec.HomeDir(),
		Shell: domain.NoLoginShell,
	}

	t.users = append(t.users, user.User{
		Name:  svc.Name,
		Pass:  "x",
		Uid:   svc.UID,
		Gid:   svc.GID,
		Gecos: svc.Name,
		Home:  svc.Home,
		Shell: svc.Shell,
	})
	t.groups = append(t.groups, user.Group{Name: svc.Name, Pass: "x", Gid: svc.GID})
	t.shadow = append(t.shadow, shadowEntry{name: svc.Name, line: svc.Name + ":!:::::::"})

	return svc, nil
}

// removeHome deletes a removed account's home unless a remaining account shares it.
// Top-level directories such as /bin or /tmp are shared system paths and are kept.
func removeHome(r *os.Root, home string, remaining []user.User) error {
	rel, err := domain.CleanPath(home)
	if err != nil || !strings.Contains(rel, "/") {
		return nil
	}
	if slices.ContainsFunc(remaining, func(u user.User) bool {
		kept, err := domain.CleanPath(u.Home)
		return err == nil && domain.PathWithin(kept, rel)
	}) {
		return nil
	}
	if err := r.RemoveAll(rel); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrIdentityTableWrite.Error()), "home", home)
	}
	return nil
}

func (r *Reducer) createHome(root *os.Root, id domain.ServiceIdentity) error {
	rel, err := domain.CleanPath(id.Home)
	if err != nil {
		return err
	}
	if err := root.MkdirAll(rel, domain.HomeDirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrIdentityTableWrite.Error()), "home", id.Home)
	}
	if err := root.Chmod(rel, domain.HomeDirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrIdentityTableWrite.Error()), "home", id.Home)
	}
	if r.chown {
		if err := root.Lchown(rel, id.UID, id.GID); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrIdentityTableWrite.Error()), "home", id.Home)
		}
	}
	return nil
}

func (t *tables) write(r *os.Root) error {
	if err := r.MkdirAll("etc", 0o755); err != nil {
		return zerr.Wrap(err, domain.ErrIdentityTableWrite.Error())
	}

	files := []struct {
		name string
		data []byte
		perm os.FileMode
	}{
		{passwdPath, renderPasswd(t.users), tablePerm},
		{groupPath, renderGroup(t.groups), tablePerm},
		{shadowPath, renderShadow(t.shadow), shadowPerm},
	}

	for _, f := range files {
		if err := r.WriteFile(f.name, f.data, f.perm); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrIdentityTableWrite.Error()), "table", f.name)
		}
		if err := r.Chmod(f.name, f.perm); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrIdentityTableWrite.Error()), "table", f.name)
		}
	}
	return nil
}

func renderPasswd(users []user.User) []byte {
	var b bytes.Buffer
	for _, u := range users {
		b.WriteString(strings.Join([]string{
			u.Name, u.Pass, strconv.Itoa(u.Uid), strconv.Itoa(u.Gid), u.Gecos, u.Home, u.Shell,
		}, ":"))
		b.WriteByte('\n')
	}
	return b.Bytes()
}

func renderGroup(groups []user.Group) []byte {
	var b bytes.Buffer
	for _, g := range groups {
		b.WriteString(strings.Join([]string{
			g.Name, g.Pass, strconv.Itoa(g.Gid), strings.Join(g.List, ","),
		}, ":"))
		b.WriteByte('\n')
	}
	return b.Bytes()
}

func renderShadow(entries []shadowEntry) []byte {
	var b bytes.Buffer
	for _, e := range entries {
		b.WriteString(e.line)
		b.WriteByte('\n')
	}
	return b.Bytes()
}
