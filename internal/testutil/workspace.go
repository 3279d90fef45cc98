package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Workspace is an on-disk project laid out the way cairokit expects by default.
type Workspace struct {
	Root       string
	LibraryDir string
	Toolchain  string
	CorelibDir string
	RootModule string
}

// DefaultRootModule is the corelib root module content written by SetupWorkspace.
const DefaultRootModule = "mod core;\n// TEMPFIX\nmod stale;\n"

// SetupWorkspace creates a temporary project with two local libraries
// ("oz" as a directory, "anotherlib" as a single file) and a corelib tree
// holding a stale copy of "oz".
func SetupWorkspace(t testing.TB) *Workspace {
	t.Helper()

	root := t.TempDir()
	ws := &Workspace{
		Root:       root,
		LibraryDir: filepath.Join(root, "src", "lib"),
		Toolchain:  filepath.Join(root, "cairo"),
		CorelibDir: filepath.Join(root, "cairo", "corelib", "src"),
	}
	ws.RootModule = filepath.Join(ws.CorelibDir, "lib.cairo")

	WriteFile(t, filepath.Join(ws.LibraryDir, "oz", "token.cairo"), "fn transfer() {}\n")
	WriteFile(t, filepath.Join(ws.LibraryDir, "oz", "access", "ownable.cairo"), "fn owner() {}\n")
	WriteFile(t, filepath.Join(ws.LibraryDir, "anotherlib.cairo"), "fn helper() {}\n")

	WriteFile(t, ws.RootModule, DefaultRootModule)
	WriteFile(t, filepath.Join(ws.CorelibDir, "oz", "removed.cairo"), "fn gone() {}\n")
	WriteFile(t, filepath.Join(ws.CorelibDir, "array.cairo"), "fn len() {}\n")

	return ws
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// ReadFile returns the content of path, failing the test on error.
func ReadFile(t testing.TB, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(b)
}
