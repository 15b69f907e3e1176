package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAppendCreatesAndAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, Append(path, "first\n"))
	require.NoError(t, Append(path, "second\n"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "first\nsecond\n", string(content))
}

func TestAppendNoopWithoutPath(t *testing.T) {
	t.Parallel()

	require.NoError(t, Append("", "ignored\n"))
}

func TestTailReturnsLastLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.log")
	for i := 1; i <= 10; i++ {
		require.NoError(t, Append(path, fmt.Sprintf("line %d\n", i)))
	}

	require.Equal(t, "line 8\nline 9\nline 10", Tail(path, 3))
	require.Equal(t, "", Tail(path, 0))
	require.Equal(t, "", Tail(filepath.Join(t.TempDir(), "missing.log"), 5))
}

func TestTailShorterThanLimit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, Append(path, "only\n"))
	require.Equal(t, "only", Tail(path, 100))
}

func TestSweepRemovesOnlyOldUnprotectedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	old := filepath.Join(dir, "old.log")
	protected := filepath.Join(dir, "protected.log")
	fresh := filepath.Join(dir, "fresh.log")

	for _, p := range []string{old, protected, fresh} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, stale, stale))
	require.NoError(t, os.Chtimes(protected, stale, stale))

	Sweep(dir, 24*time.Hour, SkipSet(protected))

	require.NoFileExists(t, old)
	require.FileExists(t, protected)
	require.FileExists(t, fresh)
}

func TestSweepIgnoresDirectoriesAndMissingRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sub := filepath.Join(dir, "subdir")
	require.NoError(t, os.Mkdir(sub, 0o755))
	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(sub, stale, stale))

	Sweep(dir, time.Hour, nil)
	require.DirExists(t, sub)

	Sweep(filepath.Join(dir, "does-not-exist"), time.Hour, nil)
}

func TestLocalizeTranslatesKnownMarkers(t *testing.T) {
	t.Parallel()

	require.Equal(t, "分割数: 12", Localize("Segments: 12"))
	require.Equal(t, "[3/4] セグメント完了 segment_003", Localize("[3/4] Completed segment_003"))
	require.Equal(t, "unrelated line", Localize("unrelated line"))
	require.Equal(t, "", Localize(""))
}

func TestLocalizeTextHandlesMultipleLines(t *testing.T) {
	t.Parallel()

	in := "Segments: 2\nplain\n[4/4] Concatenating results..."
	want := "分割数: 2\nplain\n[4/4] 結果を結合中..."
	require.Equal(t, want, LocalizeText(in))
}
