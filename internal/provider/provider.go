// Package provider resolves dotted module names to symbol facts.
//
// Walkers never touch source files directly: they go through the Provider
// interface, which normalizes lookup of modules, members, signatures,
// leading comments and docstrings. Static implements it by parsing Python
// sources with tree-sitter.
package provider

import (
	"gitlab.com/tozd/go/errors"

	"github.com/phobologic/markdocs/internal/model"
)

var (
	// ErrUnresolved reports a module name that cannot be loaded.
	ErrUnresolved = errors.Base("module not found")
	// ErrOpaque reports a member whose signature or origin cannot be inspected.
	ErrOpaque = errors.Base("no inspectable signature")
	// ErrAmbiguous reports a container whose members cannot be enumerated.
	ErrAmbiguous = errors.Base("members cannot be enumerated")
)

// Provider yields structured facts about symbols.
type Provider interface {
	// Resolve loads the module with the given dotted name.
	Resolve(name string) (*model.Symbol, error)
	// Members returns the members of container matching kind, ordered by simple name.
	Members(container *model.Symbol, kind model.Kind) ([]*model.Symbol, error)
	// Signature returns the parameter list of a routine.
	Signature(sym *model.Symbol) (model.Signature, error)
	// LeadingComment returns the comment block written above the symbol.
	LeadingComment(sym *model.Symbol) (string, bool)
	// Docstring returns the symbol's docstring.
	Docstring(sym *model.Symbol) (string, bool)
}

// Unresolved wraps ErrUnresolved with the module name.
func Unresolved(name string) error {
	return errors.Errorf("%w: %s", ErrUnresolved, name)
}

// Opaque wraps ErrOpaque with the symbol's qualified name.
func Opaque(sym *model.Symbol) error {
	return errors.Errorf("%s: %w", sym.QualName, ErrOpaque)
}

// Ambiguous wraps ErrAmbiguous with the container name and underlying cause.
func Ambiguous(container *model.Symbol, cause error) error {
	return errors.Errorf("%s: %w: %v", container.QualName, ErrAmbiguous, cause)
}
