// Package nav encodes the package tree as a pydocmd navigation descriptor.
package nav

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/phobologic/markdocs/internal/model"
)

// DefaultFileName is the descriptor written next to the generated pages.
const DefaultFileName = "pydocmd.yml"

var (
	// Plain scalars that would change meaning when read back.
	needsQuoting  = regexp.MustCompile(`: |\s#|^[-?:,\[\]{}#&*!|>'"%@` + "`" + `]`)
	// YAML 1.1 readers such as PyYAML resolve these words to booleans or null.
	reserved      = regexp.MustCompile(`^(?i:y|n|yes|no|true|false|on|off|null|~)$`)
	indentPerStep = "  "
)

// Site holds the descriptor header values.
type Site struct {
	Name      string // root package name
	OutputDir string // directory the pages are written to
}

// PagePath is the file that holds the documentation of a dotted module name:
// every segment becomes a directory and the page is named after the last one.
// The writer and the descriptor both use it so every link resolves.
func PagePath(outputDir, name string) string {
	parts := strings.Split(name, ".")
	elems := append([]string{outputDir}, parts...)
	elems = append(elems, parts[len(parts)-1]+".md")
	return filepath.Join(elems...)
}

// Entries mirrors a package tree as navigation entries. Depth counts
// nesting levels below the root package, starting at zero.
func Entries(tree *model.Tree, outputDir string) []model.NavEntry {
	return entries(tree, outputDir, 0)
}

func entries(tree *model.Tree, outputDir string, depth int) []model.NavEntry {
	if tree == nil {
		return nil
	}
	out := make([]model.NavEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		n := model.NavEntry{
			Title: model.LastSegment(e.Name),
			Name:  e.Name,
			Path:  PagePath(outputDir, e.Name),
			Depth: depth,
		}
		if e.Children != nil {
			n.Children = entries(e.Children, outputDir, depth+1)
		}
		out = append(out, n)
	}
	return out
}

// Encode renders the descriptor: header lines, the Home page and the nested
// page tree. Groups get a title line followed by their own page one level deeper.
func Encode(site Site, pages []model.NavEntry) string {
	parent := filepath.ToSlash(filepath.Dir(filepath.Clean(site.OutputDir)))

	var b strings.Builder
	fmt.Fprintf(&b, "site_name: %s\n", scalar(site.Name))
	b.WriteString("generate:\n")
	fmt.Fprintf(&b, "gens_dir: %s\n", scalar(path.Join(parent, "_build/pydocmd")))
	fmt.Fprintf(&b, "site_dir: %s\n", scalar(path.Join(parent, "_build/site")))
	b.WriteString("pages:\n")
	fmt.Fprintf(&b, "- Home: %s\n", scalar("index.md << "+path.Join(parent, "readme.md")))
	encodeEntries(&b, pages)
	return b.String()
}

func encodeEntries(b *strings.Builder, entries []model.NavEntry) {
	for _, e := range entries {
		indent := strings.Repeat(indentPerStep, e.Depth)
		if e.IsGroup() {
			fmt.Fprintf(b, "%s- %s:\n", indent, scalar(e.Title))
			fmt.Fprintf(b, "%s%s- %s: %s\n", indent, indentPerStep, scalar(e.Title), link(e))
			encodeEntries(b, e.Children)
			continue
		}
		fmt.Fprintf(b, "%s- %s: %s\n", indent, scalar(e.Title), link(e))
	}
}

func link(e model.NavEntry) string {
	return scalar(e.Name + ".md << " + filepath.ToSlash(e.Path))
}

// Links returns every page path referenced by the entries in walk order.
func Links(entries []model.NavEntry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Path)
		out = append(out, Links(e.Children)...)
	}
	return out
}

func scalar(value string) string {
	if value == "" {
		return `""`
	}
	if value != strings.TrimSpace(value) || needsQuoting.MatchString(value) || reserved.MatchString(value) {
		return quote(value)
	}
	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
