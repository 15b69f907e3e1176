// Package whisper is the single source of the environment-variable contract
// that steers the external pipeline executables, and of the VAD model
// assets those executables need.
package whisper

import (
	"strconv"
	"strings"

	"github.com/yujirofunabashi/whisper-workflow/internal/plan"
)

// Environment keys recognized by the transcription and recovery
// executables. Boundary contract; renaming any of these breaks the
// pipeline scripts.
const (
	EnvPreset             = "WHISPER_PRESET"
	EnvMode               = "WHISPER_MODE"
	EnvJobs               = "WHISPER_JOBS"
	EnvSegmentTime        = "WHISPER_SEGMENT_TIME"
	EnvUseVAD             = "WHISPER_USE_VAD"
	EnvVADModel           = "WHISPER_VAD_MODEL"
	EnvForceCPU           = "WHISPER_FORCE_CPU"
	EnvPreflightNormalize = "WHISPER_PREFLIGHT_NORMALIZE"
	EnvRetryCount         = "WHISPER_RETRY_COUNT"
)

var managedKeys = []string{
	EnvPreset, EnvMode, EnvJobs, EnvSegmentTime, EnvUseVAD,
	EnvVADModel, EnvForceCPU, EnvPreflightNormalize, EnvRetryCount,
}

// RunEnv steers one normal transcription run.
type RunEnv struct {
	Preset             plan.Preset
	Mode               plan.Mode
	Jobs               int
	SegmentSeconds     int
	UseVAD             bool
	VADModelPath       string
	ForceCPU           bool
	PreflightNormalize bool
}

// Environ layers the run's steering variables over base (normally
// os.Environ()). Previously-set WHISPER_* keys are dropped first so a
// stale shell environment can never leak into a run.
func (e RunEnv) Environ(base []string) []string {
	env := stripManaged(base)
	env = append(env,
		EnvPreset+"="+string(e.Preset),
		EnvMode+"="+string(e.Mode),
	)
	if e.Mode == plan.ModeSegmented {
		env = append(env,
			EnvJobs+"="+strconv.Itoa(e.Jobs),
			EnvSegmentTime+"="+strconv.Itoa(e.SegmentSeconds),
		)
	}
	if e.UseVAD {
		env = append(env,
			EnvUseVAD+"=1",
			EnvVADModel+"="+e.VADModelPath,
		)
	}
	if e.ForceCPU {
		env = append(env, EnvForceCPU+"=1")
	}
	if e.PreflightNormalize {
		env = append(env, EnvPreflightNormalize+"=1")
	}
	return env
}

// RecoveryEnv steers one recovery run. An empty Preset keeps whatever the
// recovery executable inherits from its own defaults.
type RecoveryEnv struct {
	RetryCount     int
	SegmentSeconds int
	Preset         plan.Preset
}

func (e RecoveryEnv) Environ(base []string) []string {
	env := stripManaged(base)
	env = append(env, EnvRetryCount+"="+strconv.Itoa(e.RetryCount))
	if e.SegmentSeconds > 0 {
		env = append(env, EnvSegmentTime+"="+strconv.Itoa(e.SegmentSeconds))
	}
	if e.Preset != "" {
		env = append(env, EnvPreset+"="+string(e.Preset))
	}
	return env
}

func stripManaged(base []string) []string {
	out := make([]string, 0, len(base))
	for _, kv := range base {
		if isManaged(kv) {
			continue
		}
		out = append(out, kv)
	}
	return out
}

func isManaged(kv string) bool {
	key, _, found := strings.Cut(kv, "=")
	if !found {
		return false
	}
	for _, managed := range managedKeys {
		if key == managed {
			return true
		}
	}
	return false
}
