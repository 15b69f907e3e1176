package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "preflight.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestRunnerParsesReport(t *testing.T) {
	t.Parallel()

	exe := writeScript(t, `cat <<'EOF'
{
  "verdict": "NEEDS_CORRECTION",
  "input": {"duration_sec": 1823.5, "container": "mov", "codec": "aac", "sample_rate": 44100, "channels": 2, "mean_volume_db": -31.2, "silence_ratio": 0.42},
  "recommended_preset": "x8",
  "corrections": ["volume_normalize"],
  "reasons": ["mean volume is low"]
}
EOF`)

	result, err := NewRunner(exe, nil).Run(context.Background(), "/tmp/input.m4a", "balanced")
	require.NoError(t, err)
	require.Equal(t, VerdictNeedsCorrection, result.Verdict)
	require.InDelta(t, 1823.5, result.DurationSec(), 0.001)
	require.Equal(t, "x8", result.RecommendedPreset)
	require.True(t, result.HasCorrection(CorrectionVolumeNormalize))
	require.False(t, result.HasCorrection("resample"))
}

func TestRunnerNonZeroExitIsError(t *testing.T) {
	t.Parallel()

	exe := writeScript(t, `echo "probe failed: unsupported container" >&2
exit 3`)

	_, err := NewRunner(exe, nil).Run(context.Background(), "in.m4a", "speed")
	require.Error(t, err)
	require.Contains(t, err.Error(), "exit=3")
	require.Contains(t, err.Error(), "unsupported container")
}

func TestRunnerRejectsMalformedOutput(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{
		"empty":    `exit 0`,
		"not json": `echo "just text"`,
	} {
		body := body
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			exe := writeScript(t, body)
			_, err := NewRunner(exe, nil).Run(context.Background(), "in.m4a", "balanced")
			require.Error(t, err)
		})
	}
}

func TestRunnerTimesOut(t *testing.T) {
	t.Parallel()

	exe := writeScript(t, `sleep 5`)
	_, err := NewRunner(exe, nil).WithTimeout(100 * time.Millisecond).Run(context.Background(), "in.m4a", "balanced")
	require.Error(t, err)
	require.Contains(t, err.Error(), "timed out")
}

func TestRunnerMissingExecutable(t *testing.T) {
	t.Parallel()

	_, err := NewRunner(filepath.Join(t.TempDir(), "nope.sh"), nil).Run(context.Background(), "in.m4a", "balanced")
	require.Error(t, err)
}

func TestResultNilReceivers(t *testing.T) {
	t.Parallel()

	var r *Result
	require.False(t, r.HasCorrection(CorrectionVolumeNormalize))
	require.Zero(t, r.DurationSec())
}
