package supervisor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyFailureMetalFault(t *testing.T) {
	t.Parallel()

	v := classifyFailure("ggml_metal_init: error in ggml-metal-device.m line 120")
	require.Contains(t, v.Reason, "VAD")
	require.True(t, v.ForceCPU)
}

func TestClassifyFailureVADWithoutMetal(t *testing.T) {
	t.Parallel()

	v := classifyFailure("whisper_full: failed to process audio (VAD stage)")
	require.Contains(t, v.Reason, "VAD")
	require.False(t, v.ForceCPU)
}

func TestClassifyFailurePrecedence(t *testing.T) {
	t.Parallel()

	// The driver-fault signature outranks everything that follows it.
	v := classifyFailure("ggml-metal-device.m crashed\nno space left on device")
	require.Contains(t, v.Reason, "VAD")
	require.True(t, v.ForceCPU)
}

func TestClassifyFailureMissingModel(t *testing.T) {
	t.Parallel()

	v := classifyFailure("Model file not found: ggml-large-v3.bin\ndownload example: ./install_models.sh")
	require.Contains(t, v.Reason, "model file")
	require.False(t, v.ForceCPU)
}

func TestClassifyFailureDiskFull(t *testing.T) {
	t.Parallel()

	v := classifyFailure("write /tmp/seg_004.wav: No space left on device")
	require.Contains(t, v.Reason, "disk")
}

func TestClassifyFailureRetriesExhausted(t *testing.T) {
	t.Parallel()

	v := classifyFailure("segment_012 failed after 3 attempts")
	require.Contains(t, v.Reason, "retries")
	require.Contains(t, v.Action, "x8/x16")
}

func TestClassifyFailureConversion(t *testing.T) {
	t.Parallel()

	v := classifyFailure("[1/4] Converting to 16kHz WAV...\nInvalid data found when processing input")
	require.Contains(t, v.Reason, "conversion")
}

func TestClassifyFailureGeneric(t *testing.T) {
	t.Parallel()

	v := classifyFailure("something unexpected happened")
	require.Equal(t, "the run failed", v.Reason)
	require.False(t, v.ForceCPU)
}

func TestFormatETA(t *testing.T) {
	t.Parallel()

	require.Equal(t, "45s", formatETA(45))
	require.Equal(t, "2m05s", formatETA(125))
	require.Equal(t, "1h01m", formatETA(3661))
	require.Equal(t, "0s", formatETA(-5))
}
