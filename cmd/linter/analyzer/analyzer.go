package analyzer

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

const (
	analyzerName = "forbiddencalls"
	analyzerDoc  = "reports panic, log.Fatal and os.Exit outside main, and unauthenticated net/http helpers outside the API client"

	clientPkgSuffix = "/internal/client"
)

// Analyzer checks for calls that either end the process outside main or
// reach the URL-map API without the Authorization header.
var Analyzer = &analysis.Analyzer{
	Name:     analyzerName,
	Doc:      analyzerDoc,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var exitFuncs = map[string]map[string]bool{
	"log": {"Fatal": true, "Fatalf": true, "Fatalln": true},
	"os":  {"Exit": true},
}

var httpHelpers = map[string]bool{
	"Get":      true,
	"Post":     true,
	"Head":     true,
	"PostForm": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	inClient := strings.HasSuffix(pass.Pkg.Path(), clientPkgSuffix)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
		(*ast.SelectorExpr)(nil),
	}

	insp.WithStack(nodeFilter, func(node ast.Node, push bool, stack []ast.Node) bool {
		if !push {
			return true
		}

		switch n := node.(type) {
		case *ast.CallExpr:
			checkCall(pass, n, inMain(stack), inClient)
		case *ast.SelectorExpr:
			if !inClient && isPkgMember(pass, n, "net/http", "DefaultClient") {
				pass.Reportf(n.Pos(), "http.DefaultClient is forbidden outside the API client")
			}
		}
		return true
	})

	return nil, nil
}

func checkCall(pass *analysis.Pass, callExpr *ast.CallExpr, inMain, inClient bool) {
	switch fn := callExpr.Fun.(type) {
	case *ast.Ident:
		if fn.Name == "panic" && isBuiltin(pass, fn) {
			pass.Reportf(callExpr.Pos(), "panic is forbidden")
		}
	case *ast.SelectorExpr:
		pkgPath, ok := importedPkg(pass, fn)
		if !ok {
			return
		}

		name := fn.Sel.Name
		switch {
		case exitFuncs[pkgPath][name] && !inMain:
			pass.Reportf(callExpr.Pos(), "%s.%s is forbidden outside main function", pkgPath, name)
		case pkgPath == "net/http" && httpHelpers[name] && !inClient:
			pass.Reportf(callExpr.Pos(), "http.%s is forbidden outside the API client", name)
		}
	}
}

// inMain reports whether the innermost enclosing function declaration is main.
func inMain(stack []ast.Node) bool {
	for i := len(stack) - 1; i >= 0; i-- {
		if funcDecl, ok := stack[i].(*ast.FuncDecl); ok {
			return funcDecl.Recv == nil && funcDecl.Name.Name == "main"
		}
	}
	return false
}

func isBuiltin(pass *analysis.Pass, ident *ast.Ident) bool {
	if pass.TypesInfo == nil {
		return true
	}
	_, ok := pass.TypesInfo.Uses[ident].(*types.Builtin)
	return ok
}

func isPkgMember(pass *analysis.Pass, sel *ast.SelectorExpr, pkgPath, name string) bool {
	path, ok := importedPkg(pass, sel)
	return ok && path == pkgPath && sel.Sel.Name == name
}

func importedPkg(pass *analysis.Pass, sel *ast.SelectorExpr) (string, bool) {
	ident, ok := sel.X.(*ast.Ident)
	if !ok || pass.TypesInfo == nil {
		return "", false
	}

	pkgName, ok := pass.TypesInfo.Uses[ident].(*types.PkgName)
	if !ok {
		return "", false
	}
	return pkgName.Imported().Path(), true
}
