package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/phobologic/markdocs/internal/model"
	"github.com/phobologic/markdocs/internal/provider"
)

func fixture() (*provider.Memory, *model.Symbol) {
	method := &model.Symbol{
		Name: "do_it", QualName: "app.Worker.do_it", Kind: model.KindRoutine, Module: "app",
		Signature: &model.Signature{
			Params:  []model.Param{{Name: "self"}, {Name: "x", Annotation: "int"}},
			Returns: "str",
		},
		Comment: "# Does it.\n#   carefully",
		Doc:     "Line one.\nLine two.",
	}
	factory := &model.Symbol{
		Name: "make", QualName: "app.Worker.make", Kind: model.KindRoutine, Module: "app", Static: true,
		Signature: &model.Signature{Params: []model.Param{{Name: "size"}}},
	}
	prop := &model.Symbol{Name: "size", QualName: "app.Worker.size", Kind: model.KindRoutine, Module: "app"}
	nested := &model.Symbol{Name: "Config", QualName: "app.Worker.Config", Kind: model.KindClass, Module: "app", Doc: "Settings."}
	worker := &model.Symbol{
		Name: "Worker", QualName: "app.Worker", Kind: model.KindClass, Module: "app",
		Doc:     "Does work.",
		Members: []*model.Symbol{method, factory, prop, nested},
	}
	app := &model.Symbol{Name: "app", QualName: "app", Kind: model.KindModule, Module: "app", Members: []*model.Symbol{worker}}
	return provider.NewMemory(app), app
}

func TestRoutineMethod(t *testing.T) {
	t.Parallel()

	p, app := fixture()
	r := New(p, nil)
	worker := app.Members[0]

	f, ok := r.Routine(worker.Members[0], true)
	require.True(t, ok)
	assert.Equal(t, "#### do\\_it\n\n"+
		"```\ndef do_it(x: int) -> str\n```\n\n"+
		"NOTES:\nDoes it.\ncarefully\n\n"+
		"Line one.\n\nLine two.\n", f.String())

	static, ok := r.Routine(worker.Members[1], true)
	require.True(t, ok)
	assert.Contains(t, static.String(), "def make(size)", "static methods keep their first parameter")

	_, ok = r.Routine(worker.Members[2], true)
	assert.False(t, ok)
}

func TestRoutineMethodReceiver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params []model.Param
		want   string
	}{
		{"variadic first", []model.Param{{Name: "args", Style: model.ParamVarArgs}}, "def many(*args)"},
		{"keywords only", []model.Param{{Name: "kw", Style: model.ParamKwArgs}}, "def many(**kw)"},
		{"receiver only", []model.Param{{Name: "self"}}, "def many()"},
		{"positional receiver", []model.Param{{Name: "self"}, {Style: model.ParamPositionalEnd}, {Name: "x"}}, "def many(x)"},
		{"no params", nil, "def many()"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fn := &model.Symbol{
				Name: "many", QualName: "app.A.many", Kind: model.KindRoutine, Module: "app",
				Signature: &model.Signature{Params: tt.params},
			}
			f, ok := New(provider.NewMemory(), nil).Routine(fn, true)
			require.True(t, ok)
			assert.Contains(t, f.String(), "```\n"+tt.want+"\n```")
		})
	}
}

func TestRoutineFunctionKeepsFirstParam(t *testing.T) {
	t.Parallel()

	fn := &model.Symbol{
		Name: "area", QualName: "geo.area", Kind: model.KindRoutine, Module: "geo",
		Signature: &model.Signature{Params: []model.Param{{Name: "w"}, {Name: "h"}}},
	}
	r := New(provider.NewMemory(), nil)
	f, ok := r.Routine(fn, false)
	require.True(t, ok)
	assert.Equal(t, "#### area\n\n```\ndef area(w, h)\n```\n", f.String())
}

func TestClasses(t *testing.T) {
	t.Parallel()

	p, app := fixture()
	got := New(p, nil).Classes(app).String()

	assert.Equal(t, "### Worker\n\n"+
		"Does work.\n\n"+
		"#### do\\_it\n\n"+
		"```\ndef do_it(x: int) -> str\n```\n\n"+
		"NOTES:\nDoes it.\ncarefully\n\n"+
		"Line one.\n\nLine two.\n\n"+
		"#### make\n\n"+
		"```\ndef make(size)\n```\n\n"+
		"### Config\n\n"+
		"Settings.\n", got)
}

func TestClassesAmbiguousContainer(t *testing.T) {
	t.Parallel()

	p, app := fixture()
	worker := *app.Members[0]
	worker.Err = errors.New("broken body")

	f := New(p, nil).Class(&worker)
	assert.Equal(t, "### Worker\n\nDoes work.\n", f.String(), "only heading and docstring remain")
}

func TestEmptyFragment(t *testing.T) {
	t.Parallel()

	var f Fragment
	f.Add("", "")
	assert.Empty(t, f.Blocks)
	assert.Equal(t, "", f.String())
}

func TestHeadings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "# Package pkg Documentation", PackageTitle("pkg"))
	assert.Equal(t, "## Module pkg.sub", ModuleHeading("pkg.sub"))
}

func TestEscapeName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `\_\_init\_\_`, EscapeName("__init__"))
	assert.Equal(t, "plain", EscapeName("plain"))
}

func TestCleanComment(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "first\nsecond", CleanComment("  # first\n## second  "))
	assert.Equal(t, "", CleanComment("#\n#"))
}

func TestParagraphs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a\n\nb\n\n\n\nc", Paragraphs("a\nb\n\nc"))
}

func TestIndent(t *testing.T) {
	t.Parallel()

	in := "## Module pkg.sub\n\nDoc line\nNOTES:\nnote\n#### f\n```\ndef f()\n```\n"
	want := "## Module pkg.sub\n\n  Doc line\nNOTES:\n  note\n#### f\n  ```\n  def f()\n  ```\n"
	assert.Equal(t, want, Indent(in, 2))
	assert.Equal(t, in, Indent(in, 0))
}
