package supervisor

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yujirofunabashi/whisper-workflow/internal/plan"
	"github.com/yujirofunabashi/whisper-workflow/internal/recovery"
	"github.com/yujirofunabashi/whisper-workflow/internal/runlog"
	"github.com/yujirofunabashi/whisper-workflow/internal/state"
)

// launch starts exe in its own process group, commits the run to the store,
// and spawns the pump, waiter, and heartbeat goroutines.
func (s *Supervisor) launch(run state.Run, exe string, args []string, env []string) error {
	cmd := exec.Command(exe, args...)
	cmd.Env = env
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("create output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return fmt.Errorf("start %s: %w", exe, err)
	}
	pw.Close()

	run.Cmd = cmd

	// Publish the exit channel before the run becomes cancelable, so a
	// cancel arriving right after Begin never arms its kill timer against a
	// previous run's already-closed channel.
	done := make(chan struct{})
	s.mu.Lock()
	s.done = done
	s.mu.Unlock()

	if err := s.store.Begin(run); err != nil {
		// Lost the start race; reap the process we just spawned.
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		go func() {
			_ = cmd.Wait()
			close(done)
		}()
		pr.Close()
		return err
	}

	go s.pumpOutput(cmd, pr)
	go s.waitForExit(cmd, done)
	go s.heartbeat(run.ID, run.Estimate.Center, run.Estimated)
	return nil
}

// pumpOutput feeds each combined-output line to the store until the pipe
// drains at process exit.
func (s *Supervisor) pumpOutput(cmd *exec.Cmd, pr *os.File) {
	defer pr.Close()

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		s.store.ObserveLine(cmd, scanner.Text())
	}
}

// waitForExit blocks on the process and performs the terminal transition.
func (s *Supervisor) waitForExit(cmd *exec.Cmd, done chan struct{}) {
	err := cmd.Wait()
	close(done)

	exitCtx, ok := s.store.DetachForExit(cmd)
	if !ok {
		return
	}

	switch {
	case exitCtx.Canceled:
		// Terminal state already recorded by the store.
	case err == nil:
		tail := strings.ToLower(runlog.Tail(exitCtx.LogPath, 200))
		s.store.FinishCompleted(strings.Contains(tail, "completed with warnings"))
	default:
		exitCode := -1
		if exitErr, isExit := err.(*exec.ExitError); isExit {
			exitCode = exitErr.ExitCode()
		}
		tail := runlog.Tail(exitCtx.LogPath, 800)
		verdict := classifyFailure(tail)
		s.store.FinishFailed(exitCode, fmt.Sprintf("exit=%d", exitCode),
			verdict.Reason, verdict.Action, verdict.ForceCPU)

		// A zero-byte transcript of a failed run is noise, not evidence.
		if info, statErr := os.Stat(exitCtx.OutputPath); statErr == nil && !info.IsDir() && info.Size() == 0 {
			_ = os.Remove(exitCtx.OutputPath)
		}
	}

	if !exitCtx.Recovery {
		s.writeRunMeta(exitCtx)
	}
	s.sweepAfterRun(exitCtx)
}

// writeRunMeta leaves the sidecar a later retry reads to rebuild the run
// context in a fresh process. Recovery runs keep the original sidecar.
func (s *Supervisor) writeRunMeta(exitCtx state.ExitContext) {
	info, err := os.Stat(exitCtx.OutputPath)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return
	}
	meta := recovery.RunMeta{
		InputPath:      exitCtx.InputPath,
		SegmentSeconds: exitCtx.SegmentSeconds,
		Preset:         exitCtx.Preset,
		Mode:           exitCtx.Mode,
	}
	if err := recovery.WriteRunMeta(exitCtx.OutputPath, meta); err != nil {
		s.logger.Warn("run metadata write failed",
			zap.String("path", exitCtx.OutputPath), zap.Error(err))
	}
}

// sweepAfterRun ages out stale uploads and logs, protecting everything the
// finished run still references.
func (s *Supervisor) sweepAfterRun(exitCtx state.ExitContext) {
	skip := runlog.SkipSet(exitCtx.InputPath, exitCtx.LogPath, exitCtx.OutputPath)
	runlog.Sweep(s.cfg.UploadsDir(), runlog.UploadRetention, skip)
	runlog.Sweep(s.cfg.LogsDir(), runlog.LogRetention, skip)
	s.logger.Debug("retention sweep done", zap.String("run_id", exitCtx.RunID))
}

// heartbeat periodically writes a progress line and refreshes the message.
// The run ID check makes a stale heartbeat from an earlier run exit silently
// instead of touching the live one.
func (s *Supervisor) heartbeat(runID string, estimateCenter int, estimated bool) {
	ticker := time.NewTicker(s.heartbeatEvery)
	defer ticker.Stop()

	var lastLine string
	for range ticker.C {
		hb := s.store.Heartbeat()
		if !hb.Running || hb.RunID != runID {
			return
		}

		elapsedSec := int(hb.Elapsed.Seconds())
		var msg, logLine string
		switch {
		case hb.Mode == plan.ModeSegmented && hb.SegmentsTotal > 0:
			done := hb.SegmentsCompleted
			total := hb.SegmentsTotal
			remaining := total - done
			etaText := "calculating"
			speedText := "-"
			if done > 0 && elapsedSec > 0 {
				speed := float64(done) / float64(elapsedSec)
				speedText = fmt.Sprintf("%.3f seg/s", speed)
				etaText = formatETA(int(float64(remaining)/speed + 0.5))
			}
			msg = fmt.Sprintf("processing... %ds elapsed / %d/%d done / ~%s remaining", elapsedSec, done, total, etaText)
			logLine = fmt.Sprintf("[progress] %ds elapsed: %d/%d done, %s, ~%s remaining", elapsedSec, done, total, speedText, etaText)
		case estimated && estimateCenter > 0:
			rem := estimateCenter - elapsedSec
			if rem < 0 {
				rem = 0
			}
			remText := formatETA(rem)
			msg = fmt.Sprintf("processing... %ds elapsed / ~%s remaining", elapsedSec, remText)
			logLine = fmt.Sprintf("[progress] %ds elapsed: ~%s remaining", elapsedSec, remText)
		default:
			msg = fmt.Sprintf("processing... %ds elapsed", elapsedSec)
			logLine = fmt.Sprintf("[progress] %ds elapsed: still running (single-pass runs log sparsely)", elapsedSec)
		}

		if logLine == lastLine {
			continue
		}
		lastLine = logLine
		s.store.SetRunningMessage(msg)
		s.store.AppendLog(logLine + "\n")
	}
}

// formatETA renders a duration in seconds the way operators read clocks.
func formatETA(sec int) string {
	if sec < 0 {
		sec = 0
	}
	switch {
	case sec < 60:
		return fmt.Sprintf("%ds", sec)
	case sec < 3600:
		return fmt.Sprintf("%dm%02ds", sec/60, sec%60)
	default:
		return fmt.Sprintf("%dh%02dm", sec/3600, (sec%3600)/60)
	}
}
