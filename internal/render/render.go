// Package render turns symbol facts into Markdown fragments.
package render

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/phobologic/markdocs/internal/classify"
	"github.com/phobologic/markdocs/internal/model"
	"github.com/phobologic/markdocs/internal/provider"
)

// NotesLabel introduces the leading-comment block of a routine.
const NotesLabel = "NOTES:"

// Fragment is an ordered sequence of Markdown blocks.
type Fragment struct {
	Blocks []string
}

// Add appends non-empty blocks.
func (f *Fragment) Add(blocks ...string) {
	for _, b := range blocks {
		if b != "" {
			f.Blocks = append(f.Blocks, b)
		}
	}
}

// Append adds the blocks of other after the blocks of f.
func (f *Fragment) Append(other Fragment) {
	f.Blocks = append(f.Blocks, other.Blocks...)
}

// String joins blocks with blank lines and terminates with a newline.
func (f Fragment) String() string {
	if len(f.Blocks) == 0 {
		return ""
	}
	return strings.Join(f.Blocks, "\n\n") + "\n"
}

// PackageTitle is the top-level heading of a whole-package document.
func PackageTitle(name string) string {
	return fmt.Sprintf("# Package %s Documentation", name)
}

// ModuleHeading is the heading of one module section.
func ModuleHeading(name string) string {
	return fmt.Sprintf("## Module %s", name)
}

// Renderer renders classes and routines using facts from a provider.
type Renderer struct {
	p   provider.Provider
	log *slog.Logger
}

// New creates a Renderer.
func New(p provider.Provider, log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{p: p, log: log}
}

// Classes renders every documentable class of container.
func (r *Renderer) Classes(container *model.Symbol) Fragment {
	return r.classes(container, map[string]bool{})
}

func (r *Renderer) classes(container *model.Symbol, ancestors map[string]bool) Fragment {
	var f Fragment
	res, err := classify.Classify(r.p, container, model.KindClass)
	if err != nil {
		r.log.Warn("skipping classes", "container", container.QualName, "err", err)
		return f
	}
	for _, cls := range res.Members {
		if ancestors[cls.QualName] {
			continue
		}
		ancestors[cls.QualName] = true
		f.Append(r.class(cls, ancestors))
		delete(ancestors, cls.QualName)
	}
	return f
}

// Class renders one class: heading, docstring, methods, then nested classes.
func (r *Renderer) Class(cls *model.Symbol) Fragment {
	return r.class(cls, map[string]bool{cls.QualName: true})
}

func (r *Renderer) class(cls *model.Symbol, ancestors map[string]bool) Fragment {
	var f Fragment
	f.Add("### " + cls.Name)
	if doc, ok := r.p.Docstring(cls); ok {
		f.Add(doc)
	}
	f.Append(r.Routines(cls, true))
	f.Append(r.classes(cls, ancestors))
	return f
}

// Routines renders the documentable routines of container. Methods drop
// their bound first parameter.
func (r *Renderer) Routines(container *model.Symbol, methods bool) Fragment {
	var f Fragment
	res, err := classify.Classify(r.p, container, model.KindRoutine)
	if err != nil {
		r.log.Warn("skipping routines", "container", container.QualName, "err", err)
		return f
	}
	for _, s := range res.Skipped {
		r.log.Debug("skipping opaque member", "symbol", s.Symbol.QualName, "err", s.Err)
	}
	for _, fn := range res.Members {
		rf, ok := r.Routine(fn, methods)
		if ok {
			f.Append(rf)
		}
	}
	return f
}

// Routine renders one routine. ok is false for routines without an
// inspectable signature.
func (r *Renderer) Routine(fn *model.Symbol, method bool) (Fragment, bool) {
	sig, err := r.p.Signature(fn)
	if err != nil {
		return Fragment{}, false
	}
	if method && !fn.Static {
		sig = bind(sig)
	}

	var f Fragment
	f.Add("#### " + EscapeName(fn.Name))
	f.Add("```\ndef " + fn.Name + sig.String() + "\n```")
	if comment, ok := r.p.LeadingComment(fn); ok {
		if notes := CleanComment(comment); notes != "" {
			f.Add(NotesLabel + "\n" + notes)
		}
	}
	if doc, ok := r.p.Docstring(fn); ok {
		f.Add(Paragraphs(doc))
	}
	return f, true
}

// bind drops the receiver parameter, the way a bound method's signature
// reads. Methods whose first parameter is variadic keep it.
func bind(sig model.Signature) model.Signature {
	if len(sig.Params) == 0 || sig.Params[0].Style != model.ParamPlain {
		return sig
	}
	sig.Params = sig.Params[1:]
	if len(sig.Params) > 0 && sig.Params[0].Style == model.ParamPositionalEnd {
		sig.Params = sig.Params[1:]
	}
	return sig
}

// EscapeName escapes underscores so Markdown does not read them as emphasis.
func EscapeName(name string) string {
	return strings.ReplaceAll(name, "_", `\_`)
}

// CleanComment strips comment markers and surrounding whitespace.
func CleanComment(comment string) string {
	lines := strings.Split(comment, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "#")
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Paragraphs separates every docstring line with a blank line so each one
// renders as its own paragraph.
func Paragraphs(doc string) string {
	return strings.Join(strings.Split(doc, "\n"), "\n\n")
}

// Indent prefixes every line with n spaces, except headings and notes labels.
func Indent(text string, n int) string {
	if n <= 0 {
		return text
	}
	pad := strings.Repeat(" ", n)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, NotesLabel) {
			continue
		}
		lines[i] = pad + line
	}
	return strings.Join(lines, "\n")
}
