// Package supervisor owns the lifecycle of one external pipeline run:
// validation, mode resolution, launch in a dedicated process group, the
// three per-run goroutines (line pump, exit waiter, heartbeat), cooperative
// cancellation, and exit classification.
package supervisor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yujirofunabashi/whisper-workflow/internal/config"
	"github.com/yujirofunabashi/whisper-workflow/internal/diagnostics"
	"github.com/yujirofunabashi/whisper-workflow/internal/plan"
	"github.com/yujirofunabashi/whisper-workflow/internal/preflight"
	"github.com/yujirofunabashi/whisper-workflow/internal/state"
	"github.com/yujirofunabashi/whisper-workflow/internal/whisper"
)

const (
	heartbeatInterval = 10 * time.Second
	killGrace         = 5 * time.Second
)

// Supervisor drives the transcription and recovery executables against the
// job state store.
type Supervisor struct {
	store     *state.Store
	cfg       config.Config
	checker   *diagnostics.Checker
	preflight *preflight.Runner
	logger    *zap.Logger

	heartbeatEvery time.Duration
	grace          time.Duration
	cpuCount       int
	newRunID       func() string

	mu   sync.Mutex
	done chan struct{}
}

func New(store *state.Store, cfg config.Config, checker *diagnostics.Checker, pf *preflight.Runner, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		store:          store,
		cfg:            cfg,
		checker:        checker,
		preflight:      pf,
		logger:         logger,
		heartbeatEvery: heartbeatInterval,
		grace:          killGrace,
		cpuCount:       runtime.NumCPU(),
		newRunID:       uuid.NewString,
	}
}

// StartRequest is the operator's configuration for one normal run.
type StartRequest struct {
	InputPath            string
	OutputName           string
	Preset               plan.Preset
	Priority             plan.Priority
	ModeStrategy         plan.ModeStrategy
	CustomMode           plan.Mode
	CustomJobs           int
	CustomSegmentSeconds int
	UseVAD               bool
	AutoCorrection       bool
	ForceCPU             bool
}

// Diagnose runs the preflight executable against the input and records the
// outcome. A failed or timed-out preflight is recorded as skipped, never as
// a hard error. Diagnosis replaces the current input selection.
func (s *Supervisor) Diagnose(ctx context.Context, inputPath string, priority plan.Priority) error {
	if s.store.IsRunning() {
		return state.ErrRunActive
	}
	info, err := os.Stat(inputPath)
	if err != nil || info.IsDir() {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	s.store.SetSelection(state.Selection{
		InputPath: inputPath,
		InputName: filepath.Base(inputPath),
		Priority:  plan.NormalizePriority(string(priority)),
	})

	result, err := s.preflight.Run(ctx, inputPath, string(plan.NormalizePriority(string(priority))))
	if err != nil {
		s.logger.Warn("preflight failed, proceeding without diagnosis",
			zap.String("input", inputPath), zap.Error(err))
	}
	s.store.RecordPreflight(result, err)
	return nil
}

// SkipDiagnosis records that the operator chose to run without preflight.
func (s *Supervisor) SkipDiagnosis(inputPath string, priority plan.Priority) error {
	if s.store.IsRunning() {
		return state.ErrRunActive
	}
	info, err := os.Stat(inputPath)
	if err != nil || info.IsDir() {
		return fmt.Errorf("input file not found: %s", inputPath)
	}
	s.store.SetSelection(state.Selection{
		InputPath: inputPath,
		InputName: filepath.Base(inputPath),
		Priority:  plan.NormalizePriority(string(priority)),
	})
	s.store.MarkPreflightSkipped()
	return nil
}

// Start validates the request, resolves the execution plan, launches the
// transcription executable, and returns without waiting for completion.
func (s *Supervisor) Start(req StartRequest) error {
	if s.store.IsRunning() {
		return state.ErrRunActive
	}
	if missing := s.checker.Missing(); len(missing) > 0 {
		return fmt.Errorf("missing dependencies: %s", strings.Join(missing, ", "))
	}

	sel := s.store.Selection()
	inputPath := req.InputPath
	if inputPath == "" {
		inputPath = sel.InputPath
	}
	if inputPath == "" {
		return fmt.Errorf("no input file selected; diagnose one first")
	}
	if info, err := os.Stat(inputPath); err != nil || info.IsDir() {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	pfResult, _, pfSkipped := s.store.PreflightState()
	if pfResult == nil && !pfSkipped {
		return fmt.Errorf("input has not been diagnosed; run preflight first")
	}
	if pfResult != nil && pfResult.Verdict == preflight.VerdictNotRecommended {
		return fmt.Errorf("preflight marked this input NOT_RECOMMENDED; re-export it in another format")
	}

	preset := req.Preset
	if preset == "" {
		preset = sel.Preset
	}
	preset = plan.NormalizePreset(string(preset))
	priority := req.Priority
	if priority == "" {
		priority = sel.Priority
	}
	priority = plan.NormalizePriority(string(priority))

	decision := s.resolveDecision(req, pfResult, preset, priority)

	normalize := req.AutoCorrection && pfResult.HasCorrection(preflight.CorrectionVolumeNormalize)
	// A metal fault on a previous run pins CPU mode until the next restart;
	// the operator can also force it per run.
	forceCPU := req.ForceCPU || s.store.ForceCPU()

	estimate, estimated := plan.EstimateRuntimeWindow(
		pfResult.DurationSec(), preset, decision.Mode, decision.Jobs, decision.VADEffective, forceCPU)

	outputPath := plan.ResolveOutputPath(req.OutputName, config.DefaultOutputName, s.cfg.OutputsDir)
	runID := s.newRunID()
	logPath := filepath.Join(s.cfg.LogsDir(), "run_"+runID+".log")

	env := whisper.RunEnv{
		Preset:             preset,
		Mode:               decision.Mode,
		Jobs:               decision.Jobs,
		SegmentSeconds:     decision.SegmentSeconds,
		UseVAD:             decision.VADEffective,
		VADModelPath:       decision.VADModelPath,
		ForceCPU:           forceCPU,
		PreflightNormalize: normalize,
	}.Environ(os.Environ())

	cfgRun := state.RunConfig{
		InputPath:            inputPath,
		InputName:            filepath.Base(inputPath),
		OutputPath:           outputPath,
		OutputName:           filepath.Base(outputPath),
		Preset:               preset,
		Priority:             priority,
		ModeStrategy:         req.ModeStrategy,
		CustomMode:           req.CustomMode,
		CustomJobs:           req.CustomJobs,
		CustomSegmentSeconds: req.CustomSegmentSeconds,
		UseVAD:               req.UseVAD,
		AutoCorrection:       req.AutoCorrection,
		ForceCPU:             forceCPU,
	}

	var corrections []string
	if normalize {
		corrections = []string{preflight.CorrectionVolumeNormalize}
	}

	run := state.Run{
		ID:                 runID,
		Config:             cfgRun,
		Decision:           decision,
		Estimate:           estimate,
		Estimated:          estimated,
		LogPath:            logPath,
		LogHeader:          startLogHeader(cfgRun, decision, forceCPU, corrections, pfSkipped),
		Message:            "run started",
		AppliedCorrections: corrections,
	}

	return s.launch(run, s.cfg.TranscribeExe, []string{inputPath, outputPath}, env)
}

// resolveDecision turns the request into a fixed ModeDecision, recording
// every silent override in the rationale string.
func (s *Supervisor) resolveDecision(req StartRequest, pf *preflight.Result, preset plan.Preset, priority plan.Priority) plan.ModeDecision {
	var decision plan.ModeDecision

	if req.ModeStrategy == plan.StrategyCustom {
		if req.CustomMode == plan.ModeSegmented {
			jobs := plan.ClampInt(req.CustomJobs, 1, 8)
			seg := plan.ClampInt(req.CustomSegmentSeconds, 30, 600)
			decision = plan.ModeDecision{
				Mode:           plan.ModeSegmented,
				Jobs:           jobs,
				SegmentSeconds: seg,
				Reason:         fmt.Sprintf("custom: segmented (jobs=%d, %ds segments)", jobs, seg),
			}
		} else {
			decision = plan.ModeDecision{
				Mode:           plan.ModeSinglePass,
				Jobs:           1,
				SegmentSeconds: 240,
				Reason:         "custom: single pass",
			}
		}
	} else {
		decision = plan.RecommendAutoMode(pf.DurationSec(), preset, priority, s.cpuCount)
		decision.Reason = "auto: " + decision.Reason
	}

	if req.UseVAD {
		if decision.Mode == plan.ModeSinglePass {
			if path := whisper.FindVADModel(s.cfg.VADModelDir()); path != "" {
				decision.VADEffective = true
				decision.VADModelPath = path
			} else {
				decision.Reason += " / VAD disabled: no model installed"
			}
		} else {
			decision.Reason += " / VAD applies to single-pass runs only"
		}
	}
	return decision
}

// Cancel signals the whole process group and arms the unconditional-kill
// timer. It never blocks on the process itself.
func (s *Supervisor) Cancel() error {
	proc, err := s.store.MarkCanceled()
	if err != nil {
		return err
	}

	pgid := proc.Process.Pid
	if err := syscall.Kill(-pgid, syscall.SIGTERM); err != nil {
		s.store.RevertCancel()
		return fmt.Errorf("signal run: %w", err)
	}

	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	time.AfterFunc(s.grace, func() {
		if done != nil {
			select {
			case <-done:
				return
			default:
			}
		}
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
	})

	s.logger.Info("cancel requested", zap.Int("pgid", pgid))
	return nil
}

// Snapshot returns the current run view.
func (s *Supervisor) Snapshot() state.Snapshot {
	return s.store.Snapshot()
}

func startLogHeader(cfg state.RunConfig, decision plan.ModeDecision, forceCPU bool, corrections []string, pfSkipped bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] started\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Input: %s\n", cfg.InputPath)
	fmt.Fprintf(&b, "Output: %s\n", cfg.OutputPath)
	fmt.Fprintf(&b, "Preset: %s\n", cfg.Preset)
	fmt.Fprintf(&b, "Profile: %s\n", cfg.Priority)
	fmt.Fprintf(&b, "Mode: %s\n", decision.Mode)
	if decision.Mode == plan.ModeSegmented {
		fmt.Fprintf(&b, "Jobs: %d\n", decision.Jobs)
		fmt.Fprintf(&b, "Segment length: %ds\n", decision.SegmentSeconds)
	}
	fmt.Fprintf(&b, "Mode override: %s\n", decision.Reason)
	fmt.Fprintf(&b, "Force CPU mode: %t\n", forceCPU)
	if decision.VADEffective {
		fmt.Fprintf(&b, "VAD model: %s\n", decision.VADModelPath)
	}
	if len(corrections) > 0 {
		fmt.Fprintf(&b, "Applying loudnorm correction (%s)\n", strings.Join(corrections, ","))
	}
	if pfSkipped {
		b.WriteString("Preflight: skipped\n")
	}
	b.WriteString("-----------------------------\n")
	return b.String()
}
