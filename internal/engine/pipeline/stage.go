package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	passwdPath = "etc/passwd"
	groupPath  = "etc/group"
)

// binDirs are the directories of a stage root whose executables shadow the host's.
var binDirs = []string{"usr/local/sbin", "usr/local/bin", "usr/sbin", "usr/bin", "sbin", "bin"}

// stageRun carries the state of one stage execution.
type stageRun struct {
	e       *Executor
	stage   *domain.Stage
	opts    Options
	target  string
	imports map[string]domain.ArtifactSet
	span    ports.Span

	root      string
	inputHash string
	cacheKey  domain.CacheKey
	identity  *domain.ServiceIdentity
}

// execute runs the stage in a fresh workspace and returns its declared outputs.
func (r *stageRun) execute(ctx context.Context) (domain.ArtifactSet, error) {
	s := r.stage

	root, err := r.e.Filesystem.NewRoot(r.opts.WorkDir, s.Name)
	if err != nil {
		return nil, err
	}
	r.root = root
	if !r.opts.KeepWorkspaces {
		defer func() {
			if err := r.e.Filesystem.RemoveRoot(root); err != nil {
				r.e.Logger.Warn("failed to remove workspace of stage " + s.Name + ": " + err.Error())
			}
		}()
	}

	if err := r.e.Bases.Materialize(ctx, s.Base, root); err != nil {
		return nil, err
	}

	inputs, err := r.copyContext()
	if err != nil {
		return nil, err
	}

	imported, importDigests, err := r.importArtifacts()
	if err != nil {
		return nil, err
	}

	r.inputHash, err = r.e.Hasher.ComputeInputHash(s, r.opts.SourceRoot, inputs, importDigests)
	if err != nil {
		return nil, err
	}
	r.span.SetAttribute("input_hash", r.inputHash)

	if s.Role == domain.RoleFinal {
		return r.assembleFinal(imported)
	}

	if err := r.installDependencies(ctx); err != nil {
		return nil, err
	}

	if s.Identity != nil {
		id, err := r.e.Reducer.Reduce(ctx, root, *s.Identity)
		if err != nil {
			return nil, err
		}
		r.e.Logger.Info("stage " + s.Name + " provisioned service identity " + id.Name + " (" + id.Owner() + ")")
	}

	if err := r.runCommands(ctx); err != nil {
		return nil, err
	}

	return r.e.Filesystem.Harvest(root, s.Name, s.Outputs)
}

// copyContext copies the allow-listed build-context paths from the source tree into the workdir.
func (r *stageRun) copyContext() ([]string, error) {
	if len(r.stage.Context) == 0 {
		return nil, nil
	}

	inputs, err := r.e.Resolver.ResolveInputs(r.stage.Context, r.opts.SourceRoot)
	if err != nil {
		return nil, zerr.With(err, "stage", r.stage.Name)
	}

	for _, rel := range inputs {
		src := filepath.Join(r.opts.SourceRoot, filepath.FromSlash(rel))
		if err := r.e.Filesystem.CopyTree(src, r.root, path.Join(r.stage.Workdir, rel)); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrMaterializeFailed.Error()), "stage", r.stage.Name)
		}
	}

	return inputs, nil
}

// importArtifacts materializes exactly the allow-listed paths of completed source stages.
func (r *stageRun) importArtifacts() (domain.ArtifactSet, []string, error) {
	var (
		set     domain.ArtifactSet
		files   []domain.ArtifactFile
		digests []string
	)

	for _, c := range r.stage.Copy {
		for _, p := range c.Paths {
			a, ok := r.imports[c.From].Lookup(p)
			if !ok {
				err := zerr.With(domain.ErrPathNotExported, "stage", r.stage.Name)
				return nil, nil, zerr.With(zerr.With(err, "source", c.From), "path", p)
			}

			sub := a.Subtree(r.stage.Name, p)
			set = append(set, sub)
			files = append(files, sub.Files...)
			digests = append(digests, c.From+":"+p+"@"+sub.Digest.String())
		}
	}

	if len(files) == 0 {
		return set, digests, nil
	}

	if err := r.e.Filesystem.Materialize(r.root, files); err != nil {
		return nil, nil, zerr.With(err, "stage", r.stage.Name)
	}
	return set, digests, nil
}

func (r *stageRun) installDependencies(ctx context.Context) error {
	s := r.stage
	if s.Install == domain.SubsetNone {
		return nil
	}
	if r.opts.Manifest == nil {
		return zerr.With(zerr.With(domain.ErrInstallFailed, "stage", s.Name), "reason", "no dependency manifest loaded")
	}

	entry, hit, err := r.e.Cache.Ensure(ctx, r.opts.Manifest, s.Install)
	if err != nil {
		return err
	}
	r.cacheKey = entry.Key
	r.span.SetAttribute("cache_hit", hit)

	if err := r.e.Filesystem.CopyTree(entry.TreePath, r.root, s.DepsPath(r.target)); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMaterializeFailed.Error()), "stage", s.Name)
	}
	return nil
}

func (r *stageRun) runCommands(ctx context.Context) error {
	s := r.stage
	if len(s.Commands) == 0 {
		return nil
	}

	if s.Workdir != "" {
		workdir := domain.ArtifactFile{Path: s.Workdir, Mode: fs.ModeDir | 0o755}
		if err := r.e.Filesystem.Materialize(r.root, []domain.ArtifactFile{workdir}); err != nil {
			return err
		}
	}

	prefix := make([]string, len(binDirs))
	for i, d := range binDirs {
		prefix[i] = filepath.Join(r.root, d)
	}

	for _, args := range s.Commands {
		cmd := &domain.Command{
			Args:       args,
			Dir:        filepath.Join(r.root, filepath.FromSlash(s.Workdir)),
			Env:        s.Env,
			PathPrefix: prefix,
			TTY:        s.TTY,
		}
		if err := r.e.Executor.Execute(ctx, cmd, r.span, r.span); err != nil {
			return zerr.With(err, "stage", s.Name)
		}
	}
	return nil
}

// assembleFinal resolves the runtime user against the imported account tables.
// The final artifact set is exactly what was imported.
func (r *stageRun) assembleFinal(imported domain.ArtifactSet) (domain.ArtifactSet, error) {
	passwd, err := r.table(imported, passwdPath)
	if err != nil {
		return nil, err
	}
	group, err := r.table(imported, groupPath)
	if err != nil {
		return nil, err
	}

	id, err := r.e.Reducer.Lookup(passwd, group, r.stage.User)
	if err != nil {
		return nil, zerr.With(err, "stage", r.stage.Name)
	}
	if id.UID == 0 {
		return nil, zerr.With(zerr.With(domain.ErrRootRuntimeUser, "stage", r.stage.Name), "user", r.stage.User)
	}

	r.identity = &id
	return imported, nil
}

// table returns an account table from the imports, falling back to the base.
func (r *stageRun) table(imported domain.ArtifactSet, name string) ([]byte, error) {
	for _, a := range imported {
		for _, f := range a.Files {
			if f.Path == name && f.Mode.IsRegular() {
				return f.Data, nil
			}
		}
	}

	root, err := os.OpenRoot(r.root)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrIdentityTableRead.Error())
	}
	defer func() { _ = root.Close() }()

	data, err := root.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrIdentityTableRead.Error()), "table", name)
	}
	return data, nil
}
