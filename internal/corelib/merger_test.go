package corelib

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/leapstack-labs/cairokit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMarker = "// TEMPFIX"

func layoutFor(ws *testutil.Workspace) Layout {
	return Layout{
		LibraryDir: ws.LibraryDir,
		CorelibDir: ws.CorelibDir,
		RootModule: ws.RootModule,
		Marker:     testMarker,
		SourceExt:  ".cairo",
	}
}

func newTestMerger(t *testing.T, ws *testutil.Workspace, libs LibrarySet, opts Options) *Merger {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = testutil.NewTestLogger(t)
	}
	m, err := NewMerger(layoutFor(ws), libs, opts)
	require.NoError(t, err)
	return m
}

func TestMerger_Scenario(t *testing.T) {
	ws := testutil.SetupWorkspace(t)
	m := newTestMerger(t, ws, LibrarySet{"oz", "anotherlib"}, Options{})

	res, err := m.Merge(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "mod core;\n// TEMPFIX\nmod oz;\nmod anotherlib;", testutil.ReadFile(t, ws.RootModule))
	assert.True(t, res.MarkerFound)
	assert.Empty(t, res.Missing)
	assert.Equal(t, LibrarySet{"oz", "anotherlib"}, res.Libraries)
}

func TestMerger_Completeness(t *testing.T) {
	ws := testutil.SetupWorkspace(t)
	m := newTestMerger(t, ws, LibrarySet{"oz", "anotherlib"}, Options{})

	_, err := m.Merge(context.Background())
	require.NoError(t, err)

	for _, rel := range []string{
		filepath.Join("oz", "token.cairo"),
		filepath.Join("oz", "access", "ownable.cairo"),
		"anotherlib.cairo",
	} {
		want := testutil.ReadFile(t, filepath.Join(ws.LibraryDir, rel))
		got := testutil.ReadFile(t, filepath.Join(ws.CorelibDir, rel))
		assert.Equal(t, want, got, rel)
	}

	// stale files from a previous merge are gone
	assert.NoFileExists(t, filepath.Join(ws.CorelibDir, "oz", "removed.cairo"))
	// unrelated corelib content is untouched
	assert.Equal(t, "fn len() {}\n", testutil.ReadFile(t, filepath.Join(ws.CorelibDir, "array.cairo")))
}

func TestMerger_CleanupOutcomes(t *testing.T) {
	ws := testutil.SetupWorkspace(t)
	m := newTestMerger(t, ws, LibrarySet{"oz", "anotherlib"}, Options{})

	res, err := m.Merge(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Cleanup, 2)

	assert.Equal(t, CleanupResult{Library: "oz", Dir: RemoveRemoved, File: RemoveNotFound}, res.Cleanup[0])
	assert.Equal(t, CleanupResult{Library: "anotherlib", Dir: RemoveNotFound, File: RemoveNotFound}, res.Cleanup[1])

	// second run finds both forms left by the first
	res, err = m.Merge(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Cleanup[0].Removed())
	assert.Equal(t, RemoveRemoved, res.Cleanup[1].File)
}

func TestMerger_Idempotent(t *testing.T) {
	ws := testutil.SetupWorkspace(t)
	m := newTestMerger(t, ws, LibrarySet{"oz", "anotherlib"}, Options{})

	_, err := m.Merge(context.Background())
	require.NoError(t, err)
	first := testutil.ReadFile(t, ws.RootModule)

	_, err = m.Merge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, testutil.ReadFile(t, ws.RootModule))
}

func TestMerger_PreservesPrefix(t *testing.T) {
	ws := testutil.SetupWorkspace(t)
	prefix := "use core::array;\n\nmod core;\nmod starknet;\n"
	testutil.WriteFile(t, ws.RootModule, prefix+testMarker+"\nmod old;\nmod older;\n")

	m := newTestMerger(t, ws, LibrarySet{"oz"}, Options{})
	_, err := m.Merge(context.Background())
	require.NoError(t, err)

	assert.Equal(t, prefix+"// TEMPFIX\nmod oz;", testutil.ReadFile(t, ws.RootModule))
}

func TestMerger_GracefulAbsence(t *testing.T) {
	ws := testutil.SetupWorkspace(t)
	require.NoError(t, os.RemoveAll(filepath.Join(ws.CorelibDir, "oz")))

	m := newTestMerger(t, ws, LibrarySet{"oz", "anotherlib"}, Options{})
	res, err := m.Merge(context.Background())
	require.NoError(t, err)
	for _, c := range res.Cleanup {
		assert.False(t, c.Removed(), c.Library)
	}
}

func TestMerger_MissingLibraryReported(t *testing.T) {
	ws := testutil.SetupWorkspace(t)
	logger, logs := testutil.NewCaptureLogger(t)

	m := newTestMerger(t, ws, LibrarySet{"oz", "ghost"}, Options{Logger: logger})
	res, err := m.Merge(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"ghost"}, res.Missing)
	assert.Contains(t, testutil.ReadFile(t, ws.RootModule), "mod ghost;")
	assert.Contains(t, logs.String(), "ghost")
}

func TestMerger_MissingMarker(t *testing.T) {
	t.Run("lenient appends section", func(t *testing.T) {
		ws := testutil.SetupWorkspace(t)
		testutil.WriteFile(t, ws.RootModule, "mod core;\n")
		logger, logs := testutil.NewCaptureLogger(t)

		m := newTestMerger(t, ws, LibrarySet{"oz"}, Options{Logger: logger})
		res, err := m.Merge(context.Background())
		require.NoError(t, err)

		assert.False(t, res.MarkerFound)
		assert.Equal(t, "mod core;\n// TEMPFIX\nmod oz;", testutil.ReadFile(t, ws.RootModule))
		assert.Contains(t, logs.String(), "marker missing")
	})

	t.Run("strict fails before touching corelib", func(t *testing.T) {
		ws := testutil.SetupWorkspace(t)
		testutil.WriteFile(t, ws.RootModule, "mod core;\n")

		m := newTestMerger(t, ws, LibrarySet{"oz"}, Options{StrictMarker: true})
		_, err := m.Merge(context.Background())
		require.Error(t, err)

		assert.True(t, IsKind(err, KindMissingMarker))
		assert.ErrorIs(t, err, ErrMissingMarker)
		assert.Equal(t, "mod core;\n", testutil.ReadFile(t, ws.RootModule))
		assert.FileExists(t, filepath.Join(ws.CorelibDir, "oz", "removed.cairo"))
	})
}

func TestMerger_LibraryDirMissing(t *testing.T) {
	ws := testutil.SetupWorkspace(t)
	require.NoError(t, os.RemoveAll(ws.LibraryDir))

	m := newTestMerger(t, ws, LibrarySet{"oz"}, Options{})
	_, err := m.Merge(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
	assert.Equal(t, testutil.DefaultRootModule, testutil.ReadFile(t, ws.RootModule))
}

func TestMerger_RootModuleMissing(t *testing.T) {
	ws := testutil.SetupWorkspace(t)
	require.NoError(t, os.Remove(ws.RootModule))

	m := newTestMerger(t, ws, LibrarySet{"oz"}, Options{})
	_, err := m.Merge(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindIO))
}

func TestMerger_CleanupPermissionErrorPropagates(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root bypasses directory permissions")
	}

	ws := testutil.SetupWorkspace(t)
	require.NoError(t, os.Chmod(ws.CorelibDir, 0500))
	t.Cleanup(func() { _ = os.Chmod(ws.CorelibDir, 0750) })

	m := newTestMerger(t, ws, LibrarySet{"oz"}, Options{})
	_, err := m.Merge(context.Background())
	require.Error(t, err)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "cleanup", opErr.Op)
	assert.Equal(t, KindIO, opErr.Kind)
}

func TestMerger_ContextCancelled(t *testing.T) {
	ws := testutil.SetupWorkspace(t)
	m := newTestMerger(t, ws, LibrarySet{"oz"}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Merge(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, testutil.DefaultRootModule, testutil.ReadFile(t, ws.RootModule))
}

func TestMerger_ConcurrentWithLock(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("merge lock is flock based")
	}
	ws := testutil.SetupWorkspace(t)
	lockPath := filepath.Join(ws.Root, ".cairokit", "merge.lock")
	m := newTestMerger(t, ws, LibrarySet{"oz", "anotherlib"}, Options{LockPath: lockPath})

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Merge(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, "mod core;\n// TEMPFIX\nmod oz;\nmod anotherlib;", testutil.ReadFile(t, ws.RootModule))
	assert.FileExists(t, lockPath)
}

func TestNewMerger_Validation(t *testing.T) {
	ws := testutil.SetupWorkspace(t)

	layout := layoutFor(ws)
	layout.Marker = ""
	_, err := NewMerger(layout, LibrarySet{"oz"}, Options{})
	assert.True(t, IsKind(err, KindInvalid))

	_, err = NewMerger(layoutFor(ws), LibrarySet{"oz", "oz"}, Options{})
	assert.ErrorIs(t, err, ErrInvalidLibrary)
}

func TestMerger_PreservesRootModuleMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}
	ws := testutil.SetupWorkspace(t)
	require.NoError(t, os.Chmod(ws.RootModule, 0640))

	m := newTestMerger(t, ws, LibrarySet{"oz"}, Options{})
	_, err := m.Merge(context.Background())
	require.NoError(t, err)

	info, err := os.Stat(ws.RootModule)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())
}

func TestMerger_ReplacesSymlinkedDestination(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	ws := testutil.SetupWorkspace(t)
	testutil.WriteFile(t, filepath.Join(ws.LibraryDir, "extra.cairo"), "fn extra() {}\n")

	outside := filepath.Join(t.TempDir(), "user.cairo")
	testutil.WriteFile(t, outside, "USER CONTENT")
	dst := filepath.Join(ws.CorelibDir, "extra.cairo")
	require.NoError(t, os.Symlink(outside, dst))

	m := newTestMerger(t, ws, LibrarySet{"oz"}, Options{})
	_, err := m.Merge(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "USER CONTENT", testutil.ReadFile(t, outside))

	info, err := os.Lstat(dst)
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular(), "destination should be a regular file, got %v", info.Mode())
	assert.Equal(t, "fn extra() {}\n", testutil.ReadFile(t, dst))
}

func TestMerger_ReplacesReadOnlyDestination(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}

	ws := testutil.SetupWorkspace(t)
	src := filepath.Join(ws.LibraryDir, "extra.cairo")
	testutil.WriteFile(t, src, "fn extra() {}\n")
	require.NoError(t, os.Chmod(src, 0o444))

	m := newTestMerger(t, ws, LibrarySet{"oz"}, Options{})
	_, err := m.Merge(context.Background())
	require.NoError(t, err)

	dst := filepath.Join(ws.CorelibDir, "extra.cairo")
	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o444), info.Mode().Perm())

	require.NoError(t, os.Chmod(src, 0o644))
	testutil.WriteFile(t, src, "fn extra() -> u8 { 1 }\n")
	require.NoError(t, os.Chmod(src, 0o444))

	_, err = m.Merge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fn extra() -> u8 { 1 }\n", testutil.ReadFile(t, dst))
}
