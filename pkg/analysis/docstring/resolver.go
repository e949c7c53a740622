package docstring

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/smith-xyz/pyhealth/pkg/syntax"
	"github.com/smith-xyz/pyhealth/pkg/utils"
)

// moduleScan is what one module's top-level statements declare
type moduleScan struct {
	constants map[string]string       // NAME = "literal"
	overrides map[string]string       // func.__doc__ = NAME
	imports   map[string]importedName // local name -> where it was imported from
}

// importedName is the origin of a name bound by a from-import
type importedName struct {
	module string // dotted path without leading dots, e.g. app.shared.docs
	level  int    // number of leading dots; 0 for an absolute import
	name   string // the name inside that module, before any alias
}

func scanModule(root syntax.Node) moduleScan {
	scan := moduleScan{
		constants: make(map[string]string),
		overrides: make(map[string]string),
		imports:   make(map[string]importedName),
	}
	for _, stmt := range root.Statements() {
		switch stmt.Kind() {
		case syntax.KindExprStatement:
			for _, expr := range stmt.NamedChildren() {
				if expr.Kind() == syntax.KindAssignment {
					scan.assignment(expr)
				}
			}
		case syntax.KindImportFrom:
			scan.importFrom(stmt)
		}
	}
	return scan
}

// assignment records a = b = value chains, which nest to the right.
func (m moduleScan) assignment(assign syntax.Node) {
	var targets []syntax.Node
	value := assign
	for value.Kind() == syntax.KindAssignment {
		targets = append(targets, value.Field("left"))
		value = value.Field("right")
	}
	literal, isLiteral := syntax.StringValue(value)
	for _, target := range targets {
		switch target.Kind() {
		case syntax.KindIdentifier:
			if isLiteral {
				m.constants[target.Text()] = literal
			}
		case syntax.KindAttribute:
			object := target.Field("object")
			if target.Field("attribute").Text() == "__doc__" && object.Kind() == syntax.KindIdentifier && value.Kind() == syntax.KindIdentifier {
				m.overrides[object.Text()] = value.Text()
			}
		}
	}
}

func (m moduleScan) importFrom(stmt syntax.Node) {
	moduleNode := stmt.Field("module_name")
	module := moduleNode.Text()
	trimmed := strings.TrimLeft(module, ".")
	level := len(module) - len(trimmed)
	if trimmed == "" {
		// from . import x binds a module, not a constant.
		return
	}
	for _, c := range stmt.NamedChildren() {
		if c.Same(moduleNode) {
			continue
		}
		switch c.Type() {
		case "dotted_name":
			m.imports[c.Text()] = importedName{module: trimmed, level: level, name: c.Text()}
		case "aliased_import":
			m.imports[c.Field("alias").Text()] = importedName{module: trimmed, level: level, name: c.Field("name").Text()}
		}
	}
}

// candidates lists the files an import may refer to, nearest first. Relative
// imports resolve against the importing file's package. Absolute imports
// resolve against roots, or against every ancestor of the importing file
// when no roots are known.
func (imp importedName) candidates(absPath string, roots []string) []string {
	rel := filepath.Join(strings.Split(imp.module, ".")...)
	var bases []string
	switch {
	case imp.level > 0:
		base := filepath.Dir(absPath)
		for i := 1; i < imp.level; i++ {
			base = filepath.Dir(base)
		}
		bases = []string{base}
	case len(roots) > 0:
		bases = roots
	default:
		for dir := filepath.Dir(absPath); ; dir = filepath.Dir(dir) {
			bases = append(bases, dir)
			if parent := filepath.Dir(dir); parent == dir {
				break
			}
		}
	}
	paths := make([]string, 0, 2*len(bases))
	for _, base := range bases {
		paths = append(paths, filepath.Join(base, rel+".py"), filepath.Join(base, rel, "__init__.py"))
	}
	return paths
}

// resolveOverrides maps each function with a func.__doc__ = NAME assignment to
// the text NAME holds. NAME is looked up among the module's own constants, then
// among the constants of the module it was imported from. Anything unresolved
// is left out.
func resolveOverrides(ctx context.Context, root syntax.Node, absPath string, importRoots []string) map[string]string {
	scan := scanModule(root)
	if len(scan.overrides) == 0 {
		return nil
	}

	loaded := make(map[string]map[string]string)
	constantsOf := func(path string) (map[string]string, bool) {
		consts, ok := loaded[path]
		if !ok {
			consts, ok = moduleConstants(ctx, path)
			if ok {
				loaded[path] = consts
			}
		}
		return consts, ok
	}

	resolved := make(map[string]string, len(scan.overrides))
	for function, name := range scan.overrides {
		if text, ok := scan.constants[name]; ok {
			resolved[function] = text
			continue
		}
		imp, ok := scan.imports[name]
		if !ok || absPath == "" {
			continue
		}
		for _, path := range imp.candidates(absPath, importRoots) {
			consts, found := constantsOf(path)
			if !found {
				continue
			}
			if text, ok := consts[imp.name]; ok {
				resolved[function] = text
			}
			break
		}
	}
	return resolved
}

// moduleConstants parses a module file and returns its top-level string
// constants. ok is false when the file is missing or unparsable.
func moduleConstants(ctx context.Context, path string) (map[string]string, bool) {
	if !utils.FileExists(path) {
		return nil, false
	}
	content, err := utils.ReadSourceFile(path)
	if err != nil {
		return nil, false
	}
	tree, err := syntax.Parse(ctx, content)
	if err != nil {
		return nil, false
	}
	defer tree.Close()
	return scanModule(tree.Root()).constants, true
}
