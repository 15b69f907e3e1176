package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args []string) (stdout string, stderr string, err error) {
	t.Helper()

	cmd := NewRootCmd()
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

// isolateAppDirs points directory resolution at temp directories so commands
// that initialize the app never touch the real user cache. Tests using it
// must not run in parallel because of t.Setenv.
func isolateAppDirs(t *testing.T) {
	t.Helper()

	base := t.TempDir()
	t.Setenv("WHISPER_WORKFLOW_CACHE_DIR", filepath.Join(base, "cache"))
	t.Setenv("WHISPER_WORKFLOW_OUTPUT_DIR", filepath.Join(base, "outputs"))
}

func writeExecScript(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))
}
