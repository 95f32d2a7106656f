package provider

import (
	"github.com/phobologic/markdocs/internal/model"
)

// Memory serves a fixed set of module symbols. It backs tests and the
// stdout preview of a single already-parsed module.
type Memory struct {
	modules map[string]*model.Symbol
}

var _ Provider = (*Memory)(nil)

// NewMemory indexes modules by qualified name.
func NewMemory(modules ...*model.Symbol) *Memory {
	m := &Memory{modules: make(map[string]*model.Symbol, len(modules))}
	for _, mod := range modules {
		m.modules[mod.QualName] = mod
	}
	return m
}

func (m *Memory) Resolve(name string) (*model.Symbol, error) {
	mod, ok := m.modules[name]
	if !ok {
		return nil, Unresolved(name)
	}
	return mod, nil
}

func (m *Memory) Members(container *model.Symbol, kind model.Kind) ([]*model.Symbol, error) {
	return members(m.Resolve, container, kind)
}

func (m *Memory) Signature(sym *model.Symbol) (model.Signature, error) {
	if sym.Kind != model.KindRoutine || sym.Signature == nil {
		return model.Signature{}, Opaque(sym)
	}
	return *sym.Signature, nil
}

func (m *Memory) LeadingComment(sym *model.Symbol) (string, bool) {
	return sym.Comment, sym.Comment != ""
}

func (m *Memory) Docstring(sym *model.Symbol) (string, bool) {
	return sym.Doc, sym.Doc != ""
}
