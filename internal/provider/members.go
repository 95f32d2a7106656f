package provider

import (
	"sort"

	"github.com/phobologic/markdocs/internal/model"
)

type resolveFunc func(name string) (*model.Symbol, error)

// members filters container members by kind. Import bindings are followed to
// the symbol they name, which keeps its own declaring module.
func members(resolve resolveFunc, container *model.Symbol, kind model.Kind) ([]*model.Symbol, error) {
	if container.Err != nil {
		return nil, Ambiguous(container, container.Err)
	}

	var out []*model.Symbol
	for _, m := range container.Members {
		sym := m
		if m.Kind == model.KindImport {
			sym = follow(resolve, m, kind, map[string]bool{})
			if sym == nil {
				continue
			}
		}
		if sym.Kind == kind {
			out = append(out, sym)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// follow resolves an import binding. The returned symbol is a shallow copy
// carrying the bound name. nil means the target is outside the search path
// or the chain loops.
func follow(resolve resolveFunc, binding *model.Symbol, kind model.Kind, seen map[string]bool) *model.Symbol {
	if seen[binding.QualName] {
		return nil
	}
	seen[binding.QualName] = true

	if mod, err := resolve(binding.QualName); err == nil {
		cp := *mod
		cp.Name = binding.Name
		return &cp
	}
	if kind == model.KindModule {
		return nil
	}

	source, err := resolve(binding.Module)
	if err != nil {
		return nil
	}
	want := model.LastSegment(binding.QualName)
	for _, m := range source.Members {
		if m.Name != want {
			continue
		}
		target := m
		if m.Kind == model.KindImport {
			if target = follow(resolve, m, kind, seen); target == nil {
				return nil
			}
		}
		cp := *target
		cp.Name = binding.Name
		return &cp
	}
	return nil
}
