// Package discover builds the package tree of a module from its backing directory.
package discover

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/markdocs/internal/lang"
	"github.com/phobologic/markdocs/internal/model"
	"github.com/phobologic/markdocs/internal/provider"
)

var skipDirs = map[string]struct{}{
	"__pycache__":   {},
	"node_modules":  {},
	"venv":          {},
	"egg-info":      {},
	".tox":          {},
	".mypy_cache":   {},
	".ruff_cache":   {},
	".pytest_cache": {},
}

// Options controls which directory entries become tree entries.
type Options struct {
	// Exclude holds gitignore-style patterns relative to the package directory.
	Exclude []string
	Logger  *slog.Logger
}

type builder struct {
	p    provider.Provider
	lang *lang.Language
	root string
	gi   *ignore.GitIgnore
	log  *slog.Logger
}

// BuildTree resolves name and walks its package directory. Subdirectories
// become nested trees named "name.dir", source files become leaf entries
// named "name.stem". A module without a backing directory yields an empty
// tree; an unresolvable child becomes an empty subtree.
func BuildTree(p provider.Provider, name string, opts Options) (*model.Tree, error) {
	mod, err := p.Resolve(name)
	if err != nil {
		return nil, err
	}
	if !mod.IsPackage() {
		return &model.Tree{}, nil
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	b := &builder{
		p:    p,
		lang: lang.Languages["python"],
		root: mod.Dir,
		gi:   loadIgnore(mod.Dir, opts.Exclude),
		log:  log,
	}
	return b.build(name, mod.Dir), nil
}

func (b *builder) build(name, dir string) *model.Tree {
	tree := &model.Tree{}

	// os.ReadDir returns entries sorted by filename, so repeated runs over an
	// unchanged directory produce the same tree.
	entries, err := os.ReadDir(dir)
	if err != nil {
		b.log.Warn("cannot list package directory", "module", name, "dir", dir, "err", err)
		return tree
	}

	var files []string
	var subdirs []os.DirEntry
	for _, e := range entries {
		entryName := e.Name()
		if strings.HasPrefix(entryName, ".") || model.IsPrivate(entryName) {
			continue
		}
		if e.Type()&os.ModeSymlink != 0 {
			continue
		}
		if b.ignored(filepath.Join(dir, entryName), e.IsDir()) {
			continue
		}
		if e.IsDir() {
			if _, skip := skipDirs[entryName]; skip {
				continue
			}
			subdirs = append(subdirs, e)
			continue
		}
		if b.lang.IsSource(entryName) {
			files = append(files, name+"."+b.lang.TrimSource(entryName))
		}
	}

	resolved := make(map[string]*model.Symbol, len(subdirs))
	for _, e := range subdirs {
		child := name + "." + e.Name()
		if mod, err := b.p.Resolve(child); err == nil {
			resolved[child] = mod
		} else {
			b.log.Warn("treating unresolved submodule as empty", "module", child, "err", err)
		}
	}

	for _, f := range files {
		// A package directory shadows a module file of the same name on import.
		if mod := resolved[f]; mod != nil && mod.IsPackage() {
			b.log.Warn("package shadows module file", "module", f, "dir", mod.Dir)
			continue
		}
		tree.Add(f, nil)
	}

	for _, e := range subdirs {
		child := name + "." + e.Name()
		mod := resolved[child]
		if mod == nil || !mod.IsPackage() {
			tree.Add(child, &model.Tree{})
			continue
		}
		tree.Add(child, b.build(child, mod.Dir))
	}
	return tree
}

func (b *builder) ignored(path string, isDir bool) bool {
	if b.gi == nil {
		return false
	}
	rel, err := filepath.Rel(b.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if isDir && b.gi.MatchesPath(rel+"/") {
		return true
	}
	return b.gi.MatchesPath(rel)
}

// loadIgnore combines the package's .gitignore with extra patterns.
func loadIgnore(dir string, extra []string) *ignore.GitIgnore {
	var lines []string
	if data, err := os.ReadFile(filepath.Join(dir, ".gitignore")); err == nil {
		lines = append(lines, strings.Split(string(data), "\n")...)
	}
	lines = append(lines, extra...)
	if len(lines) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(lines...)
}
