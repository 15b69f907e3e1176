package supervisor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yujirofunabashi/whisper-workflow/internal/plan"
	"github.com/yujirofunabashi/whisper-workflow/internal/recovery"
	"github.com/yujirofunabashi/whisper-workflow/internal/state"
	"github.com/yujirofunabashi/whisper-workflow/internal/whisper"
)

// StartRecovery launches a prepared recovery plan. The run's mode is the
// recovery sentinel so consumers never mistake it for a normal run; VAD is
// always off here.
func (s *Supervisor) StartRecovery(p recovery.Plan) error {
	if s.store.IsRunning() {
		return state.ErrRunActive
	}

	env := whisper.RecoveryEnv{
		RetryCount:     p.RetryCount,
		SegmentSeconds: p.SegmentSeconds,
		Preset:         p.Preset,
	}.Environ(os.Environ())

	logPath := filepath.Join(s.cfg.LogsDir(), "retry_"+p.RunID+".log")
	sel := s.store.Selection()

	decision := plan.ModeDecision{
		Mode:           plan.ModeRecovery,
		Jobs:           1,
		SegmentSeconds: p.SegmentSeconds,
		Reason:         "re-transcribing failed segments",
	}

	run := state.Run{
		ID: p.RunID,
		Config: state.RunConfig{
			InputPath:  p.InputPath,
			InputName:  filepath.Base(p.InputPath),
			OutputPath: p.RecoveredOutputPath,
			OutputName: filepath.Base(p.RecoveredOutputPath),
			Preset:     sel.Preset,
			Priority:   sel.Priority,
		},
		Decision:  decision,
		Estimate:  p.Estimate,
		Estimated: p.Estimated,
		LogPath:   logPath,
		LogHeader: recoveryLogHeader(p),
		Message:   "recovery started",
		Recovery:  &p.Settings,
	}

	args := []string{p.InputPath, p.PartialOutputPath, p.TargetsPath, p.RecoveredOutputPath}
	return s.launch(run, s.cfg.RecoveryExe, args, env)
}

func recoveryLogHeader(p recovery.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] started\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "[recover] input: %s\n", p.InputPath)
	fmt.Fprintf(&b, "[recover] partial output: %s\n", p.PartialOutputPath)
	fmt.Fprintf(&b, "[recover] failed list: %s (%d targets)\n", p.TargetsPath, p.TargetCount)
	if p.SegmentSeconds > 0 {
		fmt.Fprintf(&b, "[recover] segment_time: %d\n", p.SegmentSeconds)
	}
	fmt.Fprintf(&b, "[recover] output: %s\n", p.RecoveredOutputPath)
	fmt.Fprintf(&b, "Retry count: %d\n", p.RetryCount)
	if p.Preset != "" {
		fmt.Fprintf(&b, "Preset: %s\n", p.Preset)
	}
	b.WriteString("-----------------------------\n")
	return b.String()
}
