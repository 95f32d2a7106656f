// Package model defines core data structures for markdocs.
package model

import (
	"strings"
)

// PrivateMarker prefixes names that are never documented.
const PrivateMarker = "_"

// IsPrivate reports whether name starts with the private marker.
func IsPrivate(name string) bool {
	return strings.HasPrefix(name, PrivateMarker)
}

// Kind indicates the syntactic kind of a symbol.
type Kind string

const (
	KindModule  Kind = "module"
	KindClass   Kind = "class"
	KindRoutine Kind = "routine"
	// KindImport is a name bound by an import statement whose target kind is
	// not known without resolving the source module.
	KindImport Kind = "import"
)

// ParamStyle distinguishes the shapes a parameter can take.
type ParamStyle int

const (
	ParamPlain ParamStyle = iota
	ParamVarArgs
	ParamKwArgs
	ParamKeywordOnly   // bare "*" separator
	ParamPositionalEnd // "/" separator
)

// Param is one entry of a routine's parameter list.
type Param struct {
	Name       string
	Annotation string
	Default    string
	Style      ParamStyle
}

func (p Param) String() string {
	switch p.Style {
	case ParamKeywordOnly:
		return "*"
	case ParamPositionalEnd:
		return "/"
	}

	var b strings.Builder
	switch p.Style {
	case ParamVarArgs:
		b.WriteString("*")
	case ParamKwArgs:
		b.WriteString("**")
	}
	b.WriteString(p.Name)
	if p.Annotation != "" {
		b.WriteString(": ")
		b.WriteString(p.Annotation)
	}
	if p.Default != "" {
		if p.Annotation != "" {
			b.WriteString(" = ")
		} else {
			b.WriteString("=")
		}
		b.WriteString(p.Default)
	}
	return b.String()
}

// Signature is an ordered parameter list with an optional return annotation.
type Signature struct {
	Params  []Param
	Returns string
}

func (s Signature) String() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.String()
	}
	out := "(" + strings.Join(parts, ", ") + ")"
	if s.Returns != "" {
		out += " -> " + s.Returns
	}
	return out
}

// Symbol is a named program entity: a module, a class or a routine.
// Containers (modules and classes) carry their raw members in discovery order.
type Symbol struct {
	Name     string // simple name
	QualName string // dotted name including the declaring module
	Kind     Kind
	Module   string // declaring-module identity
	Line     int

	Signature *Signature // nil when the routine cannot be introspected
	Static    bool       // routine decorated with @staticmethod
	Comment   string
	Doc       string

	Members []*Symbol

	// Err records a partial introspection failure of this container.
	Err error

	// Module-only fields.
	Path string // backing source file, empty for namespace packages
	Dir  string // package directory, empty for non-package modules
}

// IsPackage reports whether a module symbol is backed by a directory.
func (s *Symbol) IsPackage() bool {
	return s.Kind == KindModule && s.Dir != ""
}

// Tree is one level of the package hierarchy. Entries keep insertion order.
type Tree struct {
	Entries []TreeEntry
}

// TreeEntry maps a dotted module name to its subtree. Children is nil for a
// leaf file module.
type TreeEntry struct {
	Name     string
	Children *Tree
}

// Add appends an entry. Duplicate names and private leaf segments are ignored.
func (t *Tree) Add(name string, children *Tree) bool {
	if IsPrivate(LastSegment(name)) {
		return false
	}
	for _, e := range t.Entries {
		if e.Name == name {
			return false
		}
	}
	t.Entries = append(t.Entries, TreeEntry{Name: name, Children: children})
	return true
}

// Len returns the number of entries at this level.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Entries)
}

// Walk visits every entry depth-first in order. A group entry is visited
// before its children.
func (t *Tree) Walk(fn func(e TreeEntry, depth int)) {
	t.walk(fn, 0)
}

func (t *Tree) walk(fn func(e TreeEntry, depth int), depth int) {
	if t == nil {
		return
	}
	for _, e := range t.Entries {
		fn(e, depth)
		e.Children.walk(fn, depth+1)
	}
}

// Names returns every dotted name in the tree in walk order.
func (t *Tree) Names() []string {
	var names []string
	t.Walk(func(e TreeEntry, _ int) {
		names = append(names, e.Name)
	})
	return names
}

// NavEntry mirrors one tree entry in the navigation descriptor.
type NavEntry struct {
	Title    string // last dotted segment
	Name     string // dotted module name
	Path     string // output file path
	Depth    int
	Children []NavEntry // non-nil for groups
}

// IsGroup reports whether the entry mirrors a subpackage.
func (n NavEntry) IsGroup() bool {
	return n.Children != nil
}

// LastSegment returns the final component of a dotted name.
func LastSegment(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
