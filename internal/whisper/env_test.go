package whisper

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yujirofunabashi/whisper-workflow/internal/plan"
)

func TestRunEnvSegmented(t *testing.T) {
	t.Parallel()

	env := RunEnv{
		Preset:         plan.PresetX8,
		Mode:           plan.ModeSegmented,
		Jobs:           6,
		SegmentSeconds: 120,
		ForceCPU:       true,
	}.Environ([]string{"PATH=/usr/bin", "WHISPER_PRESET=x1", "WHISPER_USE_VAD=1"})

	require.Contains(t, env, "PATH=/usr/bin")
	require.Contains(t, env, "WHISPER_PRESET=x8")
	require.Contains(t, env, "WHISPER_MODE=segmented")
	require.Contains(t, env, "WHISPER_JOBS=6")
	require.Contains(t, env, "WHISPER_SEGMENT_TIME=120")
	require.Contains(t, env, "WHISPER_FORCE_CPU=1")
	require.NotContains(t, env, "WHISPER_PRESET=x1")
	require.NotContains(t, env, "WHISPER_USE_VAD=1")
}

func TestRunEnvSinglePassWithVAD(t *testing.T) {
	t.Parallel()

	env := RunEnv{
		Preset:             plan.PresetX4,
		Mode:               plan.ModeSinglePass,
		Jobs:               1,
		SegmentSeconds:     240,
		UseVAD:             true,
		VADModelPath:       "/models/ggml-silero-v5.1.2.bin",
		PreflightNormalize: true,
	}.Environ(nil)

	require.Contains(t, env, "WHISPER_MODE=single-pass")
	require.Contains(t, env, "WHISPER_USE_VAD=1")
	require.Contains(t, env, "WHISPER_VAD_MODEL=/models/ggml-silero-v5.1.2.bin")
	require.Contains(t, env, "WHISPER_PREFLIGHT_NORMALIZE=1")

	for _, kv := range env {
		require.NotContains(t, kv, "WHISPER_JOBS")
		require.NotContains(t, kv, "WHISPER_SEGMENT_TIME")
	}
}

func TestRecoveryEnv(t *testing.T) {
	t.Parallel()

	env := RecoveryEnv{RetryCount: 3, SegmentSeconds: 90, Preset: plan.PresetX16}.Environ(
		[]string{"HOME=/home/u", "WHISPER_MODE=segmented"})

	require.Contains(t, env, "HOME=/home/u")
	require.Contains(t, env, "WHISPER_RETRY_COUNT=3")
	require.Contains(t, env, "WHISPER_SEGMENT_TIME=90")
	require.Contains(t, env, "WHISPER_PRESET=x16")
	require.NotContains(t, env, "WHISPER_MODE=segmented")
}

func TestRecoveryEnvKeepPresetOmitsKey(t *testing.T) {
	t.Parallel()

	env := RecoveryEnv{RetryCount: 1}.Environ(nil)
	require.Contains(t, env, "WHISPER_RETRY_COUNT=1")
	for _, kv := range env {
		require.NotContains(t, kv, "WHISPER_PRESET")
		require.NotContains(t, kv, "WHISPER_SEGMENT_TIME")
	}
}
