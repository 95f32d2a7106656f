// Package parse extracts documentation facts from source files using tree-sitter.
package parse

import (
	"context"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"gitlab.com/tozd/go/errors"

	"github.com/phobologic/markdocs/internal/lang"
	"github.com/phobologic/markdocs/internal/model"
)

// ErrSyntax marks a container whose body tree-sitter could not parse cleanly.
var ErrSyntax = errors.Base("syntax error")

// opaqueDecorators turn a routine into a descriptor object that exposes no
// callable signature.
var opaqueDecorators = []string{"property", "functools.cached_property", "cached_property"}

type definition struct {
	capture string
	name    string
	node    *sitter.Node
}

// ExtractModule parses a module's source and returns its module symbol with
// classes, routines and import bindings as members in source order.
// name is the module's dotted name; isPackage selects how relative imports resolve.
func ExtractModule(l *lang.Language, parser *sitter.Parser, query *sitter.Query, source []byte, name string, isPackage bool) (*model.Symbol, error) {
	mod := &model.Symbol{
		Name:     model.LastSegment(name),
		QualName: name,
		Kind:     model.KindModule,
		Module:   name,
	}
	if len(source) == 0 {
		return mod, nil
	}

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", name, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	mod.Doc = l.Docstring(root, source)

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, root)

	var defs []definition
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		var d definition
		for _, c := range match.Captures {
			cname := query.CaptureNameForId(c.Index)
			switch {
			case cname == "name":
				d.name = lang.NodeText(c.Node, source)
			case strings.HasPrefix(cname, "definition.") || strings.HasPrefix(cname, "reference."):
				d.capture = cname
				d.node = c.Node
			}
		}
		if d.node != nil {
			defs = append(defs, d)
		}
	}

	x := &extractor{
		lang:      l,
		source:    source,
		mod:       mod,
		isPackage: isPackage,
		classes:   make(map[uint32]*model.Symbol),
		imports:   make(map[string]*model.Symbol),
	}

	// Classes first so that members can find their owner regardless of match order.
	for _, d := range defs {
		if d.capture == "definition.class" {
			x.classes[d.node.StartByte()] = x.class(d)
		}
	}
	for _, d := range defs {
		switch d.capture {
		case "reference.import":
			x.importStatement(d.node)
		case "reference.import_from":
			x.importFrom(d.node)
		}
	}
	for _, d := range defs {
		switch d.capture {
		case "definition.class":
			x.attach(d.node, x.classes[d.node.StartByte()])
		case "definition.function":
			x.attach(d.node, x.routine(d.name, d.node, d.node))
		case "definition.lambda":
			if right := d.node.ChildByFieldName("right"); right != nil {
				x.attach(d.node, x.routine(d.name, d.node, right))
			}
		case "reference.alias":
			if sym := x.alias(d); sym != nil {
				x.attach(d.node, sym)
			}
		}
	}

	return mod, nil
}

type extractor struct {
	lang      *lang.Language
	source    []byte
	mod       *model.Symbol
	isPackage bool
	classes   map[uint32]*model.Symbol
	imports   map[string]*model.Symbol // module-level bound name -> binding
}

func (x *extractor) class(d definition) *model.Symbol {
	sym := &model.Symbol{
		Name:    d.name,
		Kind:    model.KindClass,
		Module:  x.mod.QualName,
		Line:    int(d.node.StartPoint().Row) + 1,
		Comment: x.lang.LeadingComment(d.node, x.source),
		Doc:     x.lang.Docstring(d.node, x.source),
	}
	if body := d.node.ChildByFieldName("body"); body == nil || body.HasError() {
		sym.Err = errors.WithDetails(ErrSyntax, "class", d.name, "line", sym.Line)
	}
	return sym
}

func (x *extractor) routine(name string, def, impl *sitter.Node) *model.Symbol {
	sym := &model.Symbol{
		Name:    name,
		Kind:    model.KindRoutine,
		Module:  x.mod.QualName,
		Line:    int(def.StartPoint().Row) + 1,
		Comment: x.lang.LeadingComment(def, x.source),
	}
	if impl.Type() == "function_definition" {
		sym.Doc = x.lang.Docstring(impl, x.source)
	}

	decorators := x.lang.Decorators(def, x.source)
	sym.Static = slices.Contains(decorators, "staticmethod")
	for _, dec := range decorators {
		if slices.Contains(opaqueDecorators, dec) || strings.HasSuffix(dec, ".setter") ||
			strings.HasSuffix(dec, ".getter") || strings.HasSuffix(dec, ".deleter") {
			return sym
		}
	}

	if sig, ok := x.lang.ExtractSignature(impl, x.source); ok {
		sym.Signature = sig
	}
	return sym
}

// alias handles "name = other" bindings. Only names re-bound from an import
// are kept; they carry the imported module as their declaring identity.
func (x *extractor) alias(d definition) *model.Symbol {
	right := d.node.ChildByFieldName("right")
	if right == nil {
		return nil
	}
	target := lang.NodeText(right, x.source)
	head, rest, _ := strings.Cut(target, ".")
	binding, ok := x.imports[head]
	if !ok {
		return nil
	}

	source := binding.Module
	if rest != "" {
		base := binding.QualName
		if i := strings.LastIndex(rest, "."); i >= 0 {
			base += "." + rest[:i]
		}
		source = base
	}
	return &model.Symbol{
		Name:     d.name,
		QualName: source + "." + model.LastSegment(target),
		Kind:     model.KindImport,
		Module:   source,
		Line:     int(d.node.StartPoint().Row) + 1,
	}
}

// attach adds sym to the class or module that owns node. Function-local
// definitions are dropped. A later binding of the same name replaces the
// earlier one in place.
func (x *extractor) attach(node *sitter.Node, sym *model.Symbol) {
	if sym == nil {
		return
	}

	owner := x.mod
	if cls := x.lang.FindEnclosingClass(node); cls != nil {
		owner = x.classes[cls.StartByte()]
		if owner == nil {
			return
		}
	} else if !x.lang.IsModuleLevel(node) {
		return
	}

	sym.QualName = qualify(owner, sym)
	for i, m := range owner.Members {
		if m.Name == sym.Name {
			owner.Members[i] = sym
			return
		}
	}
	owner.Members = append(owner.Members, sym)
}

func qualify(owner, sym *model.Symbol) string {
	if sym.Kind == model.KindImport {
		return sym.QualName
	}
	return owner.QualName + "." + sym.Name
}

// importStatement handles "import a.b.c" and "import a.b as c".
func (x *extractor) importStatement(node *sitter.Node) {
	if !x.lang.IsModuleLevel(node) {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			target := lang.NodeText(child, x.source)
			head, _, _ := strings.Cut(target, ".")
			x.bind(head, head, head, child)
			x.bindSubmodule(target, child)
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode == nil || aliasNode == nil {
				continue
			}
			target := lang.NodeText(nameNode, x.source)
			x.bind(lang.NodeText(aliasNode, x.source), target, target, child)
			x.bindSubmodule(target, child)
		}
	}
}

// importFrom handles "from m import a, b as c" including relative forms.
func (x *extractor) importFrom(node *sitter.Node) {
	if !x.lang.IsModuleLevel(node) {
		return
	}
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return
	}
	source := x.resolveImport(moduleNode)
	if source == "" {
		return
	}
	x.bindSubmodule(source, node)

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.StartByte() == moduleNode.StartByte() {
			continue
		}
		var name, bound string
		switch child.Type() {
		case "dotted_name":
			name = lang.NodeText(child, x.source)
			bound = name
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode == nil || aliasNode == nil {
				continue
			}
			name = lang.NodeText(nameNode, x.source)
			bound = lang.NodeText(aliasNode, x.source)
		default:
			continue
		}
		target := source + "." + name
		x.bind(bound, target, source, child)
		x.bindSubmodule(target, child)
	}
}

// resolveImport turns the module part of a from-import into an absolute dotted name.
func (x *extractor) resolveImport(node *sitter.Node) string {
	if node.Type() != "relative_import" {
		return lang.NodeText(node, x.source)
	}

	var dots int
	var rest string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "import_prefix":
			dots = strings.Count(lang.NodeText(child, x.source), ".")
		case "dotted_name":
			rest = lang.NodeText(child, x.source)
		}
	}

	parts := strings.Split(x.mod.QualName, ".")
	if !x.isPackage {
		parts = parts[:len(parts)-1]
	}
	up := dots - 1
	if up > len(parts) || (up == len(parts) && rest == "") {
		return ""
	}
	base := strings.Join(parts[:len(parts)-up], ".")
	if rest == "" {
		return base
	}
	if base == "" {
		return rest
	}
	return base + "." + rest
}

func (x *extractor) bind(name, target, source string, node *sitter.Node) {
	sym := &model.Symbol{
		Name:     name,
		QualName: target,
		Kind:     model.KindImport,
		Module:   source,
		Line:     int(node.StartPoint().Row) + 1,
	}
	x.imports[name] = sym
	x.attach(node, sym)
}

// bindSubmodule records that importing target makes the direct child of a
// package available as an attribute of the package itself.
func (x *extractor) bindSubmodule(target string, node *sitter.Node) {
	if !x.isPackage {
		return
	}
	prefix := x.mod.QualName + "."
	if !strings.HasPrefix(target, prefix) {
		return
	}
	child, _, _ := strings.Cut(strings.TrimPrefix(target, prefix), ".")
	if child == "" {
		return
	}
	if _, bound := x.imports[child]; bound {
		return
	}
	x.bind(child, prefix+child, prefix+child, node)
}
