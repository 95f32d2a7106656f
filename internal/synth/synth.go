// Package synth walks modules and produces their deep Markdown documentation.
package synth

import (
	"log/slog"
	"strings"

	"github.com/phobologic/markdocs/internal/classify"
	"github.com/phobologic/markdocs/internal/model"
	"github.com/phobologic/markdocs/internal/provider"
	"github.com/phobologic/markdocs/internal/render"
)

// Synthesizer emits module documentation. A single Synthesizer spans one run:
// it remembers every module it has emitted or that was claimed by a page of
// its own, so no module is documented twice.
type Synthesizer struct {
	p       provider.Provider
	r       *render.Renderer
	log     *slog.Logger
	visited map[string]bool
}

// New creates a Synthesizer.
func New(p provider.Provider, log *slog.Logger) *Synthesizer {
	if log == nil {
		log = slog.Default()
	}
	return &Synthesizer{
		p:       p,
		r:       render.New(p, log),
		log:     log,
		visited: make(map[string]bool),
	}
}

// Claim marks modules that are documented by their own page. Containment
// recursion from other modules skips them.
func (s *Synthesizer) Claim(names ...string) {
	for _, n := range names {
		s.visited[n] = true
	}
}

// Synthesize resolves name and returns its module heading and docstring,
// its classes and routines, followed by the documentation of every unvisited
// child module it contains.
func (s *Synthesizer) Synthesize(name string) (string, error) {
	mod, err := s.p.Resolve(name)
	if err != nil {
		return "", err
	}
	s.visited[mod.QualName] = true

	var b strings.Builder
	s.deep(mod, &b)
	return b.String(), nil
}

// Document is Synthesize under a package title.
func (s *Synthesizer) Document(name string) (string, error) {
	docs, err := s.Synthesize(name)
	if err != nil {
		return "", err
	}
	return render.PackageTitle(name) + "\n\n" + docs, nil
}

func (s *Synthesizer) deep(mod *model.Symbol, b *strings.Builder) {
	var f render.Fragment
	f.Add(render.ModuleHeading(mod.QualName))
	if doc, ok := s.p.Docstring(mod); ok {
		f.Add(doc)
	}
	f.Append(s.r.Classes(mod))
	f.Append(s.r.Routines(mod, false))
	b.WriteString(f.String())

	res, err := classify.Classify(s.p, mod, model.KindModule)
	if err != nil {
		s.log.Warn("skipping submodules", "module", mod.QualName, "err", err)
		return
	}
	for _, child := range res.Members {
		if s.visited[child.QualName] {
			continue
		}
		s.visited[child.QualName] = true
		b.WriteString("\n")
		s.deep(child, b)
	}
}
