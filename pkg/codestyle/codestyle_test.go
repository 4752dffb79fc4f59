package codestyle_test

import (
	"bufio"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode"
)

// repoRoot walks up from the working directory until it finds go.mod.
func repoRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	for {
		_, statErr := os.Stat(filepath.Join(dir, "go.mod"))
		if statErr == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("no go.mod found above the working directory")
		}

		dir = parent
	}
}

// skipDir mirrors the Go toolchain: directories starting with "." or "_"
// are not part of the module, and vendored trees are not ours to police.
func skipDir(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return true
	}

	switch name {
	case "vendor", "third_party", "testdata", "node_modules":
		return true
	default:
		return false
	}
}

// isGenerated reports whether the file carries the conventional
// "Code generated ... DO NOT EDIT" marker near the top.
func isGenerated(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for line := 0; line < 20 && scanner.Scan(); line++ {
		text := scanner.Text()
		if strings.Contains(text, "Code generated") && strings.Contains(text, "DO NOT EDIT") {
			return true
		}
	}

	return false
}

func isGoSource(path string) bool {
	return strings.HasSuffix(path, ".go") &&
		!strings.HasSuffix(path, "_test.go") &&
		!isGenerated(path)
}

// walkSource parses every non-test, non-generated Go file under root and
// hands the AST to fn together with the root-relative path.
func walkSource(t *testing.T, root string, fn func(rel string, file *ast.File)) {
	t.Helper()

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if skipDir(filepath.Base(path)) {
				return filepath.SkipDir
			}

			return nil
		}

		if !isGoSource(path) {
			return nil
		}

		fset := token.NewFileSet()

		parsed, parseErr := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if parseErr != nil {
			return fmt.Errorf("parsing %s: %w", path, parseErr)
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return fmt.Errorf("relative path for %s: %w", path, relErr)
		}

		fn(rel, parsed)

		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
}

// bannedFilenames maps grab-bag basenames to the rule they break. Symbols
// belong in the file that owns their domain, not in a kind-sorted bucket.
var bannedFilenames = map[string]string{
	"types.go":     "types belong next to the code that uses them, not in a kind-sorted bucket",
	"utils.go":     "every function has a domain; put it in the file that owns that domain",
	"helpers.go":   "same problem as utils.go: a helper belongs with the code it helps",
	"common.go":    "if everything is common, nothing is; name the owning concept",
	"constants.go": "constants belong next to the code that reads them",
	"errors.go":    "sentinel errors belong next to the functions that return them",
}

func TestNoBannedFilenames(t *testing.T) {
	t.Parallel()

	root := repoRoot(t)

	var violations []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if skipDir(filepath.Base(path)) {
				return filepath.SkipDir
			}

			return nil
		}

		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		reason, banned := bannedFilenames[filepath.Base(path)]
		if !banned {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return fmt.Errorf("relative path for %s: %w", path, relErr)
		}

		violations = append(violations, fmt.Sprintf("%s: %s", rel, reason))

		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}

	if len(violations) > 0 {
		t.Errorf("banned filenames:\n%s", strings.Join(violations, "\n"))
	}
}

// interfaceDecl is one interface declaration found in the tree.
type interfaceDecl struct {
	Name    string
	File    string
	Methods int
}

func collectInterfaces(t *testing.T, root string) []interfaceDecl {
	t.Helper()

	var decls []interfaceDecl

	walkSource(t, root, func(rel string, file *ast.File) {
		for _, decl := range file.Decls {
			genDecl, isGenDecl := decl.(*ast.GenDecl)
			if !isGenDecl || genDecl.Tok != token.TYPE {
				continue
			}

			for _, spec := range genDecl.Specs {
				typeSpec, isTypeSpec := spec.(*ast.TypeSpec)
				if !isTypeSpec {
					continue
				}

				ifaceType, isIface := typeSpec.Type.(*ast.InterfaceType)
				if !isIface {
					continue
				}

				decls = append(decls, interfaceDecl{
					Name:    typeSpec.Name.Name,
					File:    rel,
					Methods: countMethods(ifaceType),
				})
			}
		}
	})

	return decls
}

// countMethods counts declared methods, not embedded interfaces.
func countMethods(iface *ast.InterfaceType) int {
	count := 0

	for _, method := range iface.Methods.List {
		if _, ok := method.Type.(*ast.FuncType); ok {
			count++
		}
	}

	return count
}

// TestNoInterfacesInTypesFiles enforces that interfaces live where they are
// consumed. An interface in a types.go file is declared next to producers.
func TestNoInterfacesInTypesFiles(t *testing.T) {
	t.Parallel()

	root := repoRoot(t)

	var violations []string

	for _, decl := range collectInterfaces(t, root) {
		if filepath.Base(decl.File) == "types.go" {
			violations = append(violations, fmt.Sprintf(
				"%s: interface %q must move to the file that consumes it",
				decl.File, decl.Name))
		}
	}

	if len(violations) > 0 {
		t.Errorf("interfaces in types.go:\n%s", strings.Join(violations, "\n"))
	}
}

// maxInterfaceMethods bounds interface width. The bigger the interface,
// the weaker the abstraction.
const maxInterfaceMethods = 5

func TestNoFatInterfaces(t *testing.T) {
	t.Parallel()

	root := repoRoot(t)

	var violations []string

	for _, decl := range collectInterfaces(t, root) {
		if decl.Methods > maxInterfaceMethods {
			violations = append(violations, fmt.Sprintf(
				"%s: interface %q has %d methods (max %d); split it",
				decl.File, decl.Name, decl.Methods, maxInterfaceMethods))
		}
	}

	if len(violations) > 0 {
		t.Errorf("fat interfaces:\n%s", strings.Join(violations, "\n"))
	}
}

// TestNoGrabBagPackages rejects package directories whose names promise
// nothing about their contents.
func TestNoGrabBagPackages(t *testing.T) {
	t.Parallel()

	root := repoRoot(t)

	banned := map[string]bool{
		"util":    true,
		"utils":   true,
		"misc":    true,
		"shared":  true,
		"base":    true,
		"generic": true,
	}

	var violations []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			return nil
		}

		name := filepath.Base(path)
		if skipDir(name) {
			return filepath.SkipDir
		}

		if !banned[name] {
			return nil
		}

		goFiles, globErr := filepath.Glob(filepath.Join(path, "*.go"))
		if globErr != nil {
			return fmt.Errorf("globbing %s: %w", path, globErr)
		}

		if len(goFiles) > 0 {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return fmt.Errorf("relative path for %s: %w", path, relErr)
			}

			violations = append(violations, fmt.Sprintf(
				"%s: package name %q says nothing about its domain", rel, name))
		}

		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}

	if len(violations) > 0 {
		t.Errorf("grab-bag packages:\n%s", strings.Join(violations, "\n"))
	}
}

// stutters reports whether an exported name repeats the package name as a
// CamelCase prefix with a word boundary after it:
//
//	walker.WalkerOptions → ("Options", true)
//	parse.Parser         → ("", false)  "r" is no word boundary
//	config.Config        → ("", false)  exact match is the package's own name
func stutters(pkgName, exported string) (string, bool) {
	titled := strings.ToUpper(pkgName[:1]) + pkgName[1:]

	if !strings.HasPrefix(exported, titled) {
		return "", false
	}

	rest := exported[len(titled):]
	if rest == "" {
		return "", false
	}

	first := rune(rest[0])
	if !unicode.IsUpper(first) && !unicode.IsDigit(first) {
		return "", false
	}

	return rest, true
}

func TestNoStutteringExports(t *testing.T) {
	t.Parallel()

	root := repoRoot(t)

	var violations []string

	walkSource(t, root, func(rel string, file *ast.File) {
		pkgName := strings.ToLower(file.Name.Name)

		for _, decl := range file.Decls {
			genDecl, isGenDecl := decl.(*ast.GenDecl)
			if !isGenDecl || genDecl.Tok != token.TYPE {
				continue
			}

			for _, spec := range genDecl.Specs {
				typeSpec, isTypeSpec := spec.(*ast.TypeSpec)
				if !isTypeSpec || !ast.IsExported(typeSpec.Name.Name) {
					continue
				}

				name := typeSpec.Name.Name
				if trimmed, isStutter := stutters(pkgName, name); isStutter {
					violations = append(violations, fmt.Sprintf(
						"%s: %s.%s repeats the package name; rename to %q",
						rel, file.Name.Name, name, trimmed))
				}
			}
		}
	})

	if len(violations) > 0 {
		t.Errorf("stuttering exports:\n%s", strings.Join(violations, "\n"))
	}
}
