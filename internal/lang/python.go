package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/phobologic/markdocs/internal/model"
)

func init() {
	Languages["python"] = &Language{
		Name:               "python",
		Extensions:         []string{".py"},
		ExtensionModules:   []string{".so", ".pyd"},
		PackageInit:        "__init__.py",
		lang:               python.GetLanguage(),
		FindEnclosingClass: pythonFindEnclosingClass,
		IsModuleLevel:      pythonIsModuleLevel,
		ExtractSignature:   pythonExtractSignature,
		Docstring:          pythonDocstring,
		LeadingComment:     pythonLeadingComment,
		Decorators:         pythonDecorators,
	}
}

// pythonAnchor returns the statement node that occupies a slot in the
// enclosing block: the decorated_definition wrapping a decorated def, or the
// expression_statement wrapping an assignment.
func pythonAnchor(node *sitter.Node) *sitter.Node {
	parent := node.Parent()
	if parent == nil {
		return node
	}
	switch parent.Type() {
	case "decorated_definition", "expression_statement":
		return parent
	}
	return node
}

// pythonScope walks up from a definition through compound statements and
// returns the first module, class_definition or function_definition node.
func pythonScope(node *sitter.Node) *sitter.Node {
	current := pythonAnchor(node).Parent()
	for current != nil {
		switch current.Type() {
		case "module", "class_definition", "function_definition":
			return current
		}
		current = current.Parent()
	}
	return nil
}

func pythonFindEnclosingClass(node *sitter.Node) *sitter.Node {
	scope := pythonScope(node)
	if scope != nil && scope.Type() == "class_definition" {
		return scope
	}
	return nil
}

func pythonIsModuleLevel(node *sitter.Node) bool {
	scope := pythonScope(node)
	return scope != nil && scope.Type() == "module"
}

func pythonDecorators(node *sitter.Node, source []byte) []string {
	parent := node.Parent()
	if parent == nil || parent.Type() != "decorated_definition" {
		return nil
	}
	var names []string
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		child := parent.NamedChild(i)
		if child.Type() != "decorator" {
			continue
		}
		text := strings.TrimPrefix(CollapseWhitespace(NodeText(child, source)), "@")
		if j := strings.IndexByte(text, '('); j >= 0 {
			text = text[:j]
		}
		names = append(names, strings.TrimSpace(text))
	}
	return names
}

// pythonLeadingComment collects the contiguous block of comment lines that
// ends on the line right above the definition (above its decorators). Only
// whole-line comments at the definition's own indentation count.
func pythonLeadingComment(node *sitter.Node, source []byte) string {
	anchor := pythonAnchor(node)
	row := anchor.StartPoint().Row
	column := anchor.StartPoint().Column

	var lines []string
	collect := func(sib *sitter.Node) bool {
		for sib != nil {
			if sib.Type() != "comment" || sib.EndPoint().Row+1 != row ||
				sib.StartPoint().Column != column || !startsLine(sib, source) {
				return false
			}
			lines = append([]string{NodeText(sib, source)}, lines...)
			row = sib.StartPoint().Row
			sib = sib.PrevSibling()
		}
		return true
	}

	// A comment above the first statement of a block can be attached to the
	// block's parent rather than the block itself.
	if collect(anchor.PrevSibling()) {
		if parent := anchor.Parent(); parent != nil && parent.Type() == "block" {
			collect(parent.PrevSibling())
		}
	}
	return strings.Join(lines, "\n")
}

// startsLine reports whether only whitespace precedes node on its line.
func startsLine(node *sitter.Node, source []byte) bool {
	for i := int(node.StartByte()) - 1; i >= 0 && source[i] != '\n'; i-- {
		if source[i] != ' ' && source[i] != '\t' {
			return false
		}
	}
	return true
}

func pythonDocstring(node *sitter.Node, source []byte) string {
	container := node
	if node.Type() != "module" {
		container = node.ChildByFieldName("body")
		if container == nil {
			return ""
		}
	}

	for i := 0; i < int(container.NamedChildCount()); i++ {
		stmt := container.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() != 1 {
			return ""
		}
		lit := stmt.NamedChild(0)
		if lit.Type() != "string" {
			return ""
		}
		doc, ok := decodeStringLiteral(NodeText(lit, source))
		if !ok {
			return ""
		}
		return CleanDoc(doc)
	}
	return ""
}

// decodeStringLiteral strips the prefix and quotes of a Python string
// literal. Bytes and f-strings never count as docstrings.
func decodeStringLiteral(text string) (string, bool) {
	i := strings.IndexAny(text, `"'`)
	if i < 0 {
		return "", false
	}
	prefix := strings.ToLower(text[:i])
	if strings.ContainsAny(prefix, "bf") {
		return "", false
	}
	raw := strings.Contains(prefix, "r")
	body := text[i:]

	var quote string
	switch {
	case strings.HasPrefix(body, `"""`), strings.HasPrefix(body, `'''`):
		quote = body[:3]
	default:
		quote = body[:1]
	}
	if len(body) < 2*len(quote) || !strings.HasSuffix(body, quote) {
		return "", false
	}
	body = body[len(quote) : len(body)-len(quote)]
	if raw {
		return body, true
	}
	return unescape(body), true
}

var escapes = strings.NewReplacer(
	`\\`, `\`,
	`\n`, "\n",
	`\t`, "\t",
	`\"`, `"`,
	`\'`, `'`,
	"\\\n", "",
)

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return escapes.Replace(s)
}

func pythonExtractSignature(node *sitter.Node, source []byte) (*model.Signature, bool) {
	if node.HasError() {
		return nil, false
	}

	params := node.ChildByFieldName("parameters")
	sig := &model.Signature{}
	if node.Type() == "function_definition" {
		if params == nil {
			return nil, false
		}
		if ret := node.ChildByFieldName("return_type"); ret != nil {
			sig.Returns = CollapseWhitespace(NodeText(ret, source))
		}
	}
	if params == nil {
		// lambda without parameters
		return sig, true
	}

	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		p, ok := pythonParam(child, source)
		if !ok {
			return nil, false
		}
		sig.Params = append(sig.Params, p)
	}
	return sig, true
}

func pythonParam(node *sitter.Node, source []byte) (model.Param, bool) {
	text := func(field string) string {
		if n := node.ChildByFieldName(field); n != nil {
			return CollapseWhitespace(NodeText(n, source))
		}
		return ""
	}

	switch node.Type() {
	case "identifier":
		return model.Param{Name: NodeText(node, source)}, true
	case "keyword_separator":
		return model.Param{Style: model.ParamKeywordOnly}, true
	case "positional_separator":
		return model.Param{Style: model.ParamPositionalEnd}, true
	case "list_splat_pattern", "dictionary_splat_pattern":
		return pythonSplat(node, source)
	case "default_parameter":
		return model.Param{Name: text("name"), Default: text("value")}, true
	case "typed_default_parameter":
		return model.Param{Name: text("name"), Annotation: text("type"), Default: text("value")}, true
	case "typed_parameter":
		if node.NamedChildCount() == 0 {
			return model.Param{}, false
		}
		first := node.NamedChild(0)
		var p model.Param
		switch first.Type() {
		case "identifier":
			p = model.Param{Name: NodeText(first, source)}
		case "list_splat_pattern", "dictionary_splat_pattern":
			var ok bool
			if p, ok = pythonSplat(first, source); !ok {
				return p, false
			}
		default:
			return model.Param{}, false
		}
		p.Annotation = text("type")
		return p, true
	}
	return model.Param{}, false
}

func pythonSplat(node *sitter.Node, source []byte) (model.Param, bool) {
	style := model.ParamVarArgs
	if node.Type() == "dictionary_splat_pattern" {
		style = model.ParamKwArgs
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "identifier" {
			return model.Param{Name: NodeText(child, source), Style: style}, true
		}
	}
	return model.Param{}, false
}
