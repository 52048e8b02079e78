package tools

import (
	"bytes"
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"strconv"
	"strings"
)

type goTypeInfo struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Methods []string `json:"methods"`
	Line    int      `json:"lineno"`
}

type goFuncInfo struct {
	Name     string   `json:"name"`
	Receiver string   `json:"receiver,omitempty"`
	Params   []string `json:"args"`
	Results  []string `json:"results,omitempty"`
	Line     int      `json:"lineno"`
}

type goFileInfo struct {
	Package   string       `json:"package"`
	Imports   []string     `json:"imports"`
	Types     []goTypeInfo `json:"types"`
	Functions []goFuncInfo `json:"functions"`
}

// ReceiverName returns the base type name of a method receiver, without pointer or type parameters
func ReceiverName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	expr := fn.Recv.List[0].Type
	for {
		switch t := expr.(type) {
		case *ast.StarExpr:
			expr = t.X
		case *ast.IndexExpr:
			expr = t.X
		case *ast.IndexListExpr:
			expr = t.X
		case *ast.Ident:
			return t.Name
		default:
			return ""
		}
	}
}

// QualifiedName returns Name or Receiver.Name for a function declaration
func QualifiedName(fn *ast.FuncDecl) string {
	if recv := ReceiverName(fn); recv != "" {
		return recv + "." + fn.Name.Name
	}
	return fn.Name.Name
}

func exprString(fset *token.FileSet, expr ast.Expr) string {
	var buf bytes.Buffer
	_ = printer.Fprint(&buf, fset, expr)
	return buf.String()
}

func fieldList(fset *token.FileSet, fields *ast.FieldList) []string {
	if fields == nil {
		return nil
	}
	var out []string
	for _, f := range fields.List {
		typ := exprString(fset, f.Type)
		if len(f.Names) == 0 {
			out = append(out, typ)
			continue
		}
		for _, n := range f.Names {
			out = append(out, n.Name+" "+typ)
		}
	}
	return out
}

func (l *Library) parseGoAST(_ context.Context, args readFileArgs) (string, error) {
	if err := CheckPath(args.Filepath); err != nil {
		return "Error: " + err.Error(), nil
	}
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, l.resolve(args.Filepath), nil, parser.SkipObjectResolution)
	if err != nil {
		return fmt.Sprintf("Error parsing AST: %v", err), nil
	}

	info := goFileInfo{
		Package:   file.Name.Name,
		Imports:   []string{},
		Types:     []goTypeInfo{},
		Functions: []goFuncInfo{},
	}
	for _, imp := range file.Imports {
		path, _ := strconv.Unquote(imp.Path.Value)
		info.Imports = append(info.Imports, path)
	}

	typeIndex := make(map[string]int)
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts := spec.(*ast.TypeSpec)
			kind := "type"
			switch ts.Type.(type) {
			case *ast.StructType:
				kind = "struct"
			case *ast.InterfaceType:
				kind = "interface"
			}
			typeIndex[ts.Name.Name] = len(info.Types)
			info.Types = append(info.Types, goTypeInfo{
				Name:    ts.Name.Name,
				Kind:    kind,
				Methods: []string{},
				Line:    fset.Position(ts.Pos()).Line,
			})
		}
	}

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		recv := ReceiverName(fn)
		if idx, ok := typeIndex[recv]; ok {
			info.Types[idx].Methods = append(info.Types[idx].Methods, fn.Name.Name)
		}
		params := fieldList(fset, fn.Type.Params)
		if params == nil {
			params = []string{}
		}
		info.Functions = append(info.Functions, goFuncInfo{
			Name:     fn.Name.Name,
			Receiver: recv,
			Params:   params,
			Results:  fieldList(fset, fn.Type.Results),
			Line:     fset.Position(fn.Pos()).Line,
		})
	}
	return toIndentedJSON(info), nil
}

func (l *Library) functionCode(_ context.Context, args functionArgs) (string, error) {
	if err := CheckPath(args.Filepath); err != nil {
		return "Error: " + err.Error(), nil
	}
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, l.resolve(args.Filepath), nil, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return fmt.Sprintf("Error extracting function: %v", err), nil
	}

	want := args.FunctionName
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if fn.Name.Name != want && QualifiedName(fn) != want {
			continue
		}
		var buf bytes.Buffer
		if err := printer.Fprint(&buf, fset, &printer.CommentedNode{Node: fn, Comments: file.Comments}); err != nil {
			return fmt.Sprintf("Error extracting function: %v", err), nil
		}
		return strings.TrimSpace(buf.String()), nil
	}
	return fmt.Sprintf("Function '%s' not found in %s", want, args.Filepath), nil
}
