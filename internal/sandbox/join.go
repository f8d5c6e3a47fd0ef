package sandbox

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

// File is one named source of a program.
type File struct {
	Name string
	Src  string
}

// Join merges package main sources into a single source with one import
// block. The interpreter rejects an import repeated across evaluations, so
// files that share imports must be evaluated together. Line directives keep
// error positions pointing at the original file names.
func Join(files ...File) (string, error) {
	var (
		imports []string
		seen    = make(map[string]bool)
		body    strings.Builder
	)

	for _, f := range files {
		fset := token.NewFileSet()
		af, err := parser.ParseFile(fset, f.Name, f.Src, parser.ImportsOnly)
		if err != nil {
			return "", fmt.Errorf("sandbox: parse %s: %w", f.Name, err)
		}
		if af.Name.Name != "main" {
			return "", fmt.Errorf("sandbox: %s: package %s, expected main", f.Name, af.Name.Name)
		}

		for _, is := range af.Imports {
			imp := is.Path.Value
			if is.Name != nil {
				imp = is.Name.Name + " " + imp
			}
			if !seen[imp] {
				seen[imp] = true
				imports = append(imports, imp)
			}
		}

		end := af.Name.End()
		for _, d := range af.Decls {
			if gd, ok := d.(*ast.GenDecl); ok && gd.Tok == token.IMPORT {
				end = gd.End()
			}
		}
		tf := fset.File(end)
		rest := f.Src[tf.Offset(end):]

		fmt.Fprintf(&body, "//line %s:%d\n", f.Name, tf.Line(end))
		body.WriteString(rest)
		if !strings.HasSuffix(rest, "\n") {
			body.WriteByte('\n')
		}
	}

	var out strings.Builder
	out.WriteString("package main\n")
	if len(imports) > 0 {
		out.WriteString("\nimport (\n")
		for _, imp := range imports {
			out.WriteString("\t" + imp + "\n")
		}
		out.WriteString(")\n")
	}
	out.WriteByte('\n')
	out.WriteString(body.String())
	return out.String(), nil
}
