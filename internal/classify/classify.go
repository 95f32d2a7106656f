// Package classify selects the documentable members of a container.
package classify

import (
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/phobologic/markdocs/internal/model"
	"github.com/phobologic/markdocs/internal/provider"
)

// classAttr is the synthetic member every class exposes for its own type.
const classAttr = "__class__"

// Skip records a member that was left out because it could not be inspected.
type Skip struct {
	Symbol *model.Symbol
	Err    error
}

// Result is the outcome of one classification pass.
type Result struct {
	Members []*model.Symbol
	Skipped []Skip
}

// Classify returns the members of container with the requested kind that
// are public, declared by container's own module and, for routines, carry an
// inspectable signature. Module members must additionally live inside
// container's namespace. A container whose members cannot be enumerated
// yields an error wrapping provider.ErrAmbiguous.
func Classify(p provider.Provider, container *model.Symbol, kind model.Kind) (Result, error) {
	candidates, err := p.Members(container, kind)
	if err != nil {
		if !errors.Is(err, provider.ErrAmbiguous) {
			err = provider.Ambiguous(container, err)
		}
		return Result{}, err
	}

	var res Result
	for _, sym := range candidates {
		if sym.Name == classAttr || model.IsPrivate(sym.Name) {
			continue
		}

		if kind == model.KindModule {
			if Contains(container.QualName, sym.QualName) {
				res.Members = append(res.Members, sym)
			}
			continue
		}

		if sym.Module != container.Module {
			continue
		}
		if kind == model.KindRoutine {
			if _, err := p.Signature(sym); err != nil {
				res.Skipped = append(res.Skipped, Skip{Symbol: sym, Err: err})
				continue
			}
		}
		res.Members = append(res.Members, sym)
	}
	return res, nil
}

// Contains reports whether child is a distinct module inside parent's namespace.
func Contains(parent, child string) bool {
	return child != parent && strings.HasPrefix(child, parent+".")
}
