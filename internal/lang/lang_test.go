package lang

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguagesRegistered(t *testing.T) {
	t.Parallel()

	py, ok := Languages["python"]
	require.True(t, ok, "python language not registered")
	assert.NotNil(t, py.NewParser())
	assert.Equal(t, "__init__.py", py.PackageInit)
	assert.True(t, py.IsSource("mod.py"))
	assert.False(t, py.IsSource("mod.pyc"))
	assert.Equal(t, "mod", py.TrimSource("mod.py"))
}

func TestGetTagQuery(t *testing.T) {
	t.Parallel()

	q, err := Languages["python"].GetTagQuery()
	require.NoError(t, err)
	assert.NotNil(t, q)
}

func TestCleanDoc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"one line", "Summary.", "Summary."},
		{"common indent", "Summary.\n\n    Details.\n      nested\n    ", "Summary.\n\nDetails.\n  nested"},
		{"leading blank lines", "\n    First.\n    Second.\n", "First.\nSecond."},
		{"first line trimmed", "   Padded.", "Padded."},
		{"tabs", "Top.\n\tbody", "Top.\nbody"},
		{"blank only", "\n   \n", ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CleanDoc(tt.in))
		})
	}
}

func TestDecodeStringLiteral(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`"""doc"""`, "doc", true},
		{`'''doc'''`, "doc", true},
		{`"x\ty"`, "x\ty", true},
		{`r"""a\nb"""`, `a\nb`, true},
		{`u'text'`, "text", true},
		{`'it\'s'`, "it's", true},
		{`b"bytes"`, "", false},
		{`f"{x}"`, "", false},
		{`"`, "", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, ok := decodeStringLiteral(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func parsePython(t *testing.T, src string) (*sitter.Node, []byte) {
	t.Helper()
	source := []byte(src)
	tree, err := Languages["python"].NewParser().ParseCtx(context.Background(), nil, source)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree.RootNode(), source
}

// find returns the first node of the given type named name in document order.
func find(t *testing.T, root *sitter.Node, source []byte, typ, name string) *sitter.Node {
	t.Helper()
	var walk func(n *sitter.Node) *sitter.Node
	walk = func(n *sitter.Node) *sitter.Node {
		if n.Type() == typ {
			if nameNode := n.ChildByFieldName("name"); nameNode != nil && NodeText(nameNode, source) == name {
				return n
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if found := walk(n.NamedChild(i)); found != nil {
				return found
			}
		}
		return nil
	}
	n := walk(root)
	require.NotNil(t, n, "no %s named %s", typ, name)
	return n
}

func TestPythonSignature(t *testing.T) {
	t.Parallel()

	root, source := parsePython(t, `def full(a, b: int, c=1, d: str = "x", *args, e, **kw) -> bool:
    pass

def separators(x, /, y, *, z):
    pass

def bare():
    pass
`)
	py := Languages["python"]

	tests := []struct {
		name string
		want string
	}{
		{"full", `(a, b: int, c=1, d: str = "x", *args, e, **kw) -> bool`},
		{"separators", "(x, /, y, *, z)"},
		{"bare", "()"},
	}
	for _, tt := range tests {
		sig, ok := py.ExtractSignature(find(t, root, source, "function_definition", tt.name), source)
		require.True(t, ok, tt.name)
		assert.Equal(t, tt.want, sig.String(), tt.name)
	}
}

func TestPythonLambdaSignature(t *testing.T) {
	t.Parallel()

	root, source := parsePython(t, "scale = lambda x, factor=2: x * factor\n")
	assign := root.NamedChild(0).NamedChild(0)
	require.Equal(t, "assignment", assign.Type())

	sig, ok := Languages["python"].ExtractSignature(assign.ChildByFieldName("right"), source)
	require.True(t, ok)
	assert.Equal(t, "(x, factor=2)", sig.String())
}

func TestPythonDocstring(t *testing.T) {
	t.Parallel()

	root, source := parsePython(t, `"""Module summary."""

class Shape:
    """A shape.

    With details.
    """

def area():
    x = 1
    "not a docstring"

def raw():
    r"""Raw \d docs."""
`)
	py := Languages["python"]

	assert.Equal(t, "Module summary.", py.Docstring(root, source))
	assert.Equal(t, "A shape.\n\nWith details.", py.Docstring(find(t, root, source, "class_definition", "Shape"), source))
	assert.Empty(t, py.Docstring(find(t, root, source, "function_definition", "area"), source))
	assert.Equal(t, `Raw \d docs.`, py.Docstring(find(t, root, source, "function_definition", "raw"), source))
}

func TestPythonLeadingComment(t *testing.T) {
	t.Parallel()

	root, source := parsePython(t, `import functools

# Caches results.
# Thread safe.
@functools.lru_cache(maxsize=None)
def cached():
    pass

# detached

def lonely():
    pass

class Box:
    # Opens the box.
    def open(self):
        pass
`)
	py := Languages["python"]

	assert.Equal(t, "# Caches results.\n# Thread safe.",
		py.LeadingComment(find(t, root, source, "function_definition", "cached"), source))
	assert.Empty(t, py.LeadingComment(find(t, root, source, "function_definition", "lonely"), source))
	assert.Equal(t, "# Opens the box.",
		py.LeadingComment(find(t, root, source, "function_definition", "open"), source))
}

func TestPythonLeadingCommentOwnLineOnly(t *testing.T) {
	t.Parallel()

	root, source := parsePython(t, `LIMIT = 10  # max retries
def run(x):
    pass

class A:  # base thing
    def go(self):
        pass

class B:
    def stop(self):
        pass

    # Halts.
    def halt(self):
        pass
`)
	py := Languages["python"]

	assert.Empty(t, py.LeadingComment(find(t, root, source, "function_definition", "run"), source),
		"trailing comments after code are not notes")
	assert.Empty(t, py.LeadingComment(find(t, root, source, "function_definition", "go"), source),
		"comments on the class header are not notes")
	assert.Equal(t, "# Halts.",
		py.LeadingComment(find(t, root, source, "function_definition", "halt"), source))
}

func TestPythonScope(t *testing.T) {
	t.Parallel()

	root, source := parsePython(t, `class Outer:
    @staticmethod
    def method():
        def local():
            pass

    class Inner:
        pass

def top():
    pass
`)
	py := Languages["python"]

	method := find(t, root, source, "function_definition", "method")
	assert.Equal(t, []string{"staticmethod"}, py.Decorators(method, source))
	require.NotNil(t, py.FindEnclosingClass(method))
	assert.False(t, py.IsModuleLevel(method))

	local := find(t, root, source, "function_definition", "local")
	assert.Nil(t, py.FindEnclosingClass(local))
	assert.False(t, py.IsModuleLevel(local))

	inner := find(t, root, source, "class_definition", "Inner")
	owner := py.FindEnclosingClass(inner)
	require.NotNil(t, owner)
	assert.Equal(t, "Outer", NodeText(owner.ChildByFieldName("name"), source))

	assert.True(t, py.IsModuleLevel(find(t, root, source, "function_definition", "top")))
}
