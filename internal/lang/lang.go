// Package lang provides a language registry mapping file extensions to
// tree-sitter languages, their embedded query files and the hooks used to
// pull documentation facts out of a syntax tree.
package lang

import (
	"embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/markdocs/internal/model"
)

//go:embed queries/*.scm
var queryFS embed.FS

var whitespaceRe = regexp.MustCompile(`\s+`)

// Language holds tree-sitter configuration for a supported language.
type Language struct {
	Name       string
	Extensions []string
	// ExtensionModules lists suffixes of compiled modules that resolve but
	// cannot be inspected.
	ExtensionModules []string
	// PackageInit is the file that turns a directory into a regular package.
	PackageInit string

	lang      *sitter.Language
	queryOnce sync.Once
	query     *sitter.Query
	queryErr  error

	// FindEnclosingClass returns the class definition that directly owns a
	// definition node, or nil for module-level and function-local definitions.
	FindEnclosingClass func(node *sitter.Node) *sitter.Node

	// IsModuleLevel reports whether a definition node sits directly in the
	// module body (possibly behind decorators).
	IsModuleLevel func(node *sitter.Node) bool

	// ExtractSignature parses the parameter list and return annotation of a
	// routine definition. ok is false when the node cannot be introspected.
	ExtractSignature func(node *sitter.Node, source []byte) (sig *model.Signature, ok bool)

	// Docstring returns the cleaned docstring of a module, class or routine node.
	Docstring func(node *sitter.Node, source []byte) string

	// LeadingComment returns the comment block directly above a definition.
	LeadingComment func(node *sitter.Node, source []byte) string

	// Decorators returns the decorator names attached to a definition.
	Decorators func(node *sitter.Node, source []byte) []string
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// GetTagQuery returns the compiled tree-sitter query (safe to share across goroutines).
func (l *Language) GetTagQuery() (*sitter.Query, error) {
	l.queryOnce.Do(func() {
		data, err := queryFS.ReadFile(fmt.Sprintf("queries/%s.scm", l.Name))
		if err != nil {
			l.queryErr = fmt.Errorf("reading query file: %w", err)
			return
		}
		q, err := sitter.NewQuery(data, l.lang)
		if err != nil {
			l.queryErr = fmt.Errorf("compiling query: %w", err)
			return
		}
		l.query = q
	})
	return l.query, l.queryErr
}

// IsSource reports whether a file name carries one of the language's source extensions.
func (l *Language) IsSource(name string) bool {
	for _, ext := range l.Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// TrimSource strips the source extension from a file name.
func (l *Language) TrimSource(name string) string {
	for _, ext := range l.Extensions {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// CleanDoc normalizes docstring indentation: tabs are expanded, the common
// indentation of every line after the first is removed, the first line is
// left-trimmed, and leading and trailing blank lines are dropped.
func CleanDoc(doc string) string {
	lines := strings.Split(expandTabs(doc, 8), "\n")

	margin := -1
	for _, line := range lines[1:] {
		content := strings.TrimLeft(line, " ")
		if content == "" {
			continue
		}
		indent := len(line) - len(content)
		if margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimLeft(lines[0], " ")
	if margin > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= margin {
				lines[i] = lines[i][margin:]
			} else {
				lines[i] = strings.TrimLeft(lines[i], " ")
			}
		}
	}

	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

func expandTabs(s string, size int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := size - col%size
			b.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n':
			b.WriteRune(r)
			col = 0
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}
