// Package site writes the documentation pages and navigation descriptor of
// one package to an output directory.
package site

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"gitlab.com/tozd/go/errors"

	"github.com/phobologic/markdocs/internal/config"
	"github.com/phobologic/markdocs/internal/discover"
	"github.com/phobologic/markdocs/internal/model"
	"github.com/phobologic/markdocs/internal/nav"
	"github.com/phobologic/markdocs/internal/provider"
	"github.com/phobologic/markdocs/internal/render"
	"github.com/phobologic/markdocs/internal/synth"
)

// ErrUnwritten is returned when the descriptor would link a page that was
// not written.
var ErrUnwritten = errors.Base("navigation links an unwritten page")

// warmer is implemented by providers that can parse modules ahead of the walk.
type warmer interface {
	Warm(ctx context.Context, names []string, jobs int) error
}

// Report summarizes a generation run.
type Report struct {
	Root       string
	Pages      []string // written page paths, root page first
	Descriptor string
	Bytes      uint64
}

// Generate documents cfg.Module into cfg.Output. An unresolvable root aborts
// before anything is written. Existing directories are reused and existing
// files overwritten.
func Generate(ctx context.Context, p provider.Provider, cfg *config.Config, log *slog.Logger) (*Report, error) {
	if log == nil {
		log = slog.Default()
	}
	root := cfg.Module

	if _, err := p.Resolve(root); err != nil {
		return nil, errors.Errorf("resolving root module: %w", err)
	}

	tree, err := discover.BuildTree(p, root, discover.Options{Exclude: cfg.Exclude, Logger: log})
	if err != nil {
		return nil, errors.Errorf("building package tree: %w", err)
	}
	log.Debug("mapped package tree", "module", root, "modules", len(tree.Names()))

	if w, ok := p.(warmer); ok {
		if err := w.Warm(ctx, append([]string{root}, tree.Names()...), cfg.Jobs); err != nil {
			return nil, errors.Errorf("parsing modules: %w", err)
		}
	}

	g := &generator{
		s:      synth.New(p, log),
		log:    log,
		out:    cfg.Output,
		indent: cfg.Indent,
		report: &Report{Root: root},
	}
	g.s.Claim(tree.Names()...)

	if err := g.page(ctx, root, 0); err != nil {
		return nil, err
	}
	if err := g.pages(ctx, tree, 0); err != nil {
		return nil, err
	}

	entries := nav.Entries(tree, cfg.Output)
	if err := checkLinks(entries, g.report.Pages); err != nil {
		return nil, err
	}
	descriptor := filepath.Join(cfg.Output, cfg.ConfigName)
	body := nav.Encode(nav.Site{Name: root, OutputDir: cfg.Output}, entries)
	if err := g.write(descriptor, body); err != nil {
		return nil, err
	}
	g.report.Descriptor = descriptor

	log.Info("wrote documentation",
		"module", root,
		"pages", len(g.report.Pages),
		"size", humanize.Bytes(g.report.Bytes),
		"descriptor", descriptor,
	)
	return g.report, nil
}

// Preview returns the whole package documented as a single document,
// recursing into every contained module.
func Preview(p provider.Provider, name string, log *slog.Logger) (string, error) {
	return synth.New(p, log).Document(name)
}

type generator struct {
	s      *synth.Synthesizer
	log    *slog.Logger
	out    string
	indent int
	report *Report
}

func (g *generator) pages(ctx context.Context, tree *model.Tree, depth int) error {
	if tree == nil {
		return nil
	}
	for _, e := range tree.Entries {
		if err := g.page(ctx, e.Name, depth); err != nil {
			return err
		}
		if err := g.pages(ctx, e.Children, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// page writes the documentation of one module. A module that no longer
// resolves still gets a heading-only page so its navigation link holds.
func (g *generator) page(ctx context.Context, name string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.log.Debug("generating docs", "module", name)
	docs, err := g.s.Synthesize(name)
	if err != nil {
		if !errors.Is(err, provider.ErrUnresolved) {
			return errors.Errorf("documenting %s: %w", name, err)
		}
		g.log.Warn("module did not resolve", "module", name, "err", err)
		docs = render.ModuleHeading(name) + "\n"
	}

	path := nav.PagePath(g.out, name)
	if err := g.write(path, render.Indent(docs, depth*g.indent)); err != nil {
		return err
	}
	g.report.Pages = append(g.report.Pages, path)
	return nil
}

func (g *generator) write(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Errorf("writing %s: %w", path, err)
	}
	g.report.Bytes += uint64(len(content))
	return nil
}

func checkLinks(entries []model.NavEntry, written []string) error {
	have := make(map[string]bool, len(written))
	for _, path := range written {
		have[path] = true
	}
	for _, link := range nav.Links(entries) {
		if !have[link] {
			return errors.WithDetails(ErrUnwritten, "page", link)
		}
	}
	return nil
}
