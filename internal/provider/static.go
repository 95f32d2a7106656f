package provider

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/smacker/go-tree-sitter"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/markdocs/internal/lang"
	"github.com/phobologic/markdocs/internal/model"
	"github.com/phobologic/markdocs/internal/parse"
)

// ErrForeign marks a compiled extension module.
var ErrForeign = errors.Base("compiled extension module")

const defaultCacheSize = 256

// Options configures a Static provider.
type Options struct {
	SearchPath []string // directories searched in order, default "."
	CacheSize  int
	Logger     *slog.Logger
}

// Static resolves modules from source files found on a search path.
// Resolve is not safe for concurrent use; Warm is.
type Static struct {
	roots  []string
	lang   *lang.Language
	query  *sitter.Query
	parser *sitter.Parser
	cache  *lru.Cache[string, *model.Symbol]
	log    *slog.Logger
}

var _ Provider = (*Static)(nil)

// NewStatic creates a provider for Python sources.
func NewStatic(opts Options) (*Static, error) {
	l := lang.Languages["python"]
	q, err := l.GetTagQuery()
	if err != nil {
		return nil, errors.Errorf("loading python query: %w", err)
	}

	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, *model.Symbol](size)
	if err != nil {
		return nil, errors.Errorf("creating module cache: %w", err)
	}

	roots := opts.SearchPath
	if len(roots) == 0 {
		roots = []string{"."}
	}
	abs := make([]string, 0, len(roots))
	for _, r := range roots {
		a, err := filepath.Abs(r)
		if err != nil {
			return nil, errors.Errorf("resolving search path %s: %w", r, err)
		}
		abs = append(abs, a)
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Static{
		roots:  abs,
		lang:   l,
		query:  q,
		parser: l.NewParser(),
		cache:  cache,
		log:    log,
	}, nil
}

type location struct {
	file      string // source or extension file, empty for namespace packages
	dir       string // package directory
	extension bool
}

// locate finds a module on the search path. Regular packages and modules win
// over namespace directories found on an earlier root.
func (s *Static) locate(name string) (location, bool) {
	parts := strings.Split(name, ".")
	for _, p := range parts {
		if p == "" {
			return location{}, false
		}
	}

	var namespace string
	for _, root := range s.roots {
		base := filepath.Join(append([]string{root}, parts...)...)

		if isDir(base) {
			initFile := filepath.Join(base, s.lang.PackageInit)
			if isFile(initFile) {
				return location{file: initFile, dir: base}, true
			}
		}
		for _, ext := range s.lang.Extensions {
			if isFile(base + ext) {
				return location{file: base + ext}, true
			}
		}
		if ext := s.findExtension(base); ext != "" {
			return location{file: ext, extension: true}, true
		}
		if namespace == "" && isDir(base) {
			namespace = base
		}
	}
	if namespace != "" {
		return location{dir: namespace}, true
	}
	return location{}, false
}

// findExtension matches "name.so" as well as tagged forms like
// "name.cpython-312-x86_64-linux-gnu.so".
func (s *Static) findExtension(base string) string {
	entries, err := os.ReadDir(filepath.Dir(base))
	if err != nil {
		return ""
	}
	stem := filepath.Base(base) + "."
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasPrefix(n, stem) {
			continue
		}
		for _, ext := range s.lang.ExtensionModules {
			if strings.HasSuffix(n, ext) {
				return filepath.Join(filepath.Dir(base), n)
			}
		}
	}
	return ""
}

// Resolve loads a module by dotted name.
func (s *Static) Resolve(name string) (*model.Symbol, error) {
	if mod, ok := s.cache.Get(name); ok {
		return mod, nil
	}
	mod, err := s.load(name, s.parser)
	if err != nil {
		return nil, err
	}
	s.cache.Add(name, mod)
	return mod, nil
}

func (s *Static) load(name string, parser *sitter.Parser) (*model.Symbol, error) {
	loc, ok := s.locate(name)
	if !ok {
		return nil, Unresolved(name)
	}

	empty := &model.Symbol{
		Name:     model.LastSegment(name),
		QualName: name,
		Kind:     model.KindModule,
		Module:   name,
		Path:     loc.file,
		Dir:      loc.dir,
	}

	switch {
	case loc.extension:
		empty.Err = errors.WithDetails(ErrForeign, "path", loc.file)
		return empty, nil
	case loc.file == "":
		return empty, nil
	}

	source, err := os.ReadFile(loc.file)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", loc.file, err)
	}
	mod, err := parse.ExtractModule(s.lang, parser, s.query, source, name, loc.dir != "")
	if err != nil {
		return nil, err
	}
	mod.Path = loc.file
	mod.Dir = loc.dir

	s.log.Debug("parsed module", "module", name, "path", loc.file, "members", len(mod.Members))
	return mod, nil
}

// Warm parses the named modules concurrently and stores them in the cache so
// the synchronous walk that follows hits memory. Unresolvable names are
// skipped; only context cancellation is reported.
func (s *Static) Warm(ctx context.Context, names []string, jobs int) error {
	if jobs < 1 {
		jobs = 1
	}

	work := make(chan string)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < jobs; i++ {
		g.Go(func() error {
			// Each goroutine gets its own parser
			parser := s.lang.NewParser()
			for name := range work {
				if s.cache.Contains(name) {
					continue
				}
				mod, err := s.load(name, parser)
				if err != nil {
					s.log.Debug("warm-up skipped module", "module", name, "err", err)
					continue
				}
				s.cache.Add(name, mod)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(work)
		for _, name := range names {
			select {
			case work <- name:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	return g.Wait()
}

// Members returns container members of the requested kind sorted by simple name.
func (s *Static) Members(container *model.Symbol, kind model.Kind) ([]*model.Symbol, error) {
	return members(s.Resolve, container, kind)
}

// Signature returns a routine's parameter list or ErrOpaque.
func (s *Static) Signature(sym *model.Symbol) (model.Signature, error) {
	if sym.Kind != model.KindRoutine || sym.Signature == nil {
		return model.Signature{}, Opaque(sym)
	}
	return *sym.Signature, nil
}

// LeadingComment returns the raw comment lines above the symbol.
func (s *Static) LeadingComment(sym *model.Symbol) (string, bool) {
	return sym.Comment, sym.Comment != ""
}

// Docstring returns the cleaned docstring.
func (s *Static) Docstring(sym *model.Symbol) (string, bool) {
	return sym.Doc, sym.Doc != ""
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
