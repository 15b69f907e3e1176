package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yujirofunabashi/whisper-workflow/internal/platform"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv(platform.EnvCacheDir, "/tmp/wf-cache")
	t.Setenv(platform.EnvOutputDir, "/tmp/wf-out")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/tmp/wf-cache", cfg.CacheDir)
	require.Equal(t, "/tmp/wf-out", cfg.OutputsDir)
	require.Equal(t, DefaultTranscribeExe, cfg.TranscribeExe)
	require.Equal(t, filepath.Join("/tmp/wf-cache", "uploads"), cfg.UploadsDir())
	require.Equal(t, filepath.Join("/tmp/wf-cache", "logs"), cfg.LogsDir())
	require.Equal(t, filepath.Join("/tmp/wf-cache", "models"), cfg.VADModelDir())
}

func TestLoadMergesYAMLFile(t *testing.T) {
	t.Setenv(platform.EnvCacheDir, "/tmp/wf-cache")
	t.Setenv(platform.EnvOutputDir, "/tmp/wf-out")

	path := filepath.Join(t.TempDir(), "workflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"outputs_dir: /srv/transcripts\ntranscribe_exe: /opt/whisper/run.sh\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/wf-cache", cfg.CacheDir)
	require.Equal(t, "/srv/transcripts", cfg.OutputsDir)
	require.Equal(t, "/opt/whisper/run.sh", cfg.TranscribeExe)
	require.Equal(t, DefaultPreflightExe, cfg.PreflightExe)
}

func TestLoadMissingFileIsFine(t *testing.T) {
	t.Setenv(platform.EnvCacheDir, "/tmp/wf-cache")
	t.Setenv(platform.EnvOutputDir, "/tmp/wf-out")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	t.Setenv(platform.EnvCacheDir, "/tmp/wf-cache")
	t.Setenv(platform.EnvOutputDir, "/tmp/wf-out")

	path := filepath.Join(t.TempDir(), "workflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("outputs_dir: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnsureDirs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfg := Config{CacheDir: filepath.Join(root, "cache"), OutputsDir: filepath.Join(root, "out")}
	require.NoError(t, cfg.EnsureDirs())
	require.DirExists(t, cfg.UploadsDir())
	require.DirExists(t, cfg.LogsDir())
	require.DirExists(t, cfg.VADModelDir())
	require.DirExists(t, cfg.OutputsDir)
}
