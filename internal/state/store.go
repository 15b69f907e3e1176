package state

import (
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yujirofunabashi/whisper-workflow/internal/plan"
	"github.com/yujirofunabashi/whisper-workflow/internal/preflight"
	"github.com/yujirofunabashi/whisper-workflow/internal/progress"
	"github.com/yujirofunabashi/whisper-workflow/internal/runlog"
)

// DependencyProber enumerates missing external dependencies; snapshots
// attach the list so callers see readiness alongside run state.
type DependencyProber interface {
	Missing() []string
}

// Store is the single source of truth for the live run. All mutation goes
// through its lock; the lock is held only for field updates and log
// appends, never across process waits or tail reads.
type Store struct {
	mu     sync.Mutex
	logger *zap.Logger
	deps   DependencyProber
	now    func() time.Time

	proc   *exec.Cmd
	runID  string
	status Status

	startedAt  time.Time
	finishedAt time.Time
	lastError  string
	message    string

	// Current input selection, survives across runs until replaced.
	inputPath string
	inputName string
	priority  plan.Priority
	preset    plan.Preset

	config   RunConfig
	decision plan.ModeDecision
	tracker  *progress.Tracker

	estimate  plan.Window
	estimated bool

	failureReason string
	failureAction string
	corrections   []string

	// forceCPU persists across runs once a hardware fault is detected.
	forceCPU bool

	preflightResult  *preflight.Result
	preflightError   string
	preflightAt      time.Time
	preflightSkipped bool

	recovery   RecoverySettings
	isRecovery bool
	logPath    string
}

func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		logger:   logger,
		now:      time.Now,
		status:   StatusIdle,
		priority: plan.PriorityBalanced,
		preset:   plan.DefaultPreset,
		tracker:  progress.NewTracker(),
		recovery: RecoverySettings{Mode: RecoveryFromFailedList, RetryCount: 1, PresetOverride: "keep"},
	}
}

// SetDependencyProber attaches the prober consulted by Snapshot.
func (s *Store) SetDependencyProber(p DependencyProber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deps = p
}

// SetClock overrides time for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// IsRunning reports whether a run is live.
func (s *Store) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == StatusRunning
}

// Begin atomically commits a new run. It fails with ErrRunActive when a run
// is live, leaving existing state untouched.
func (s *Store) Begin(run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusRunning {
		return ErrRunActive
	}

	s.proc = run.Cmd
	s.runID = run.ID
	s.status = StatusRunning
	s.startedAt = s.now()
	s.finishedAt = time.Time{}
	s.lastError = ""
	s.message = run.Message

	s.inputPath = run.Config.InputPath
	s.inputName = run.Config.InputName
	s.priority = run.Config.Priority
	s.preset = run.Config.Preset

	s.config = run.Config
	s.decision = run.Decision
	s.tracker.Reset()
	s.estimate = run.Estimate
	s.estimated = run.Estimated

	s.failureReason = ""
	s.failureAction = ""
	s.corrections = append([]string(nil), run.AppliedCorrections...)
	s.isRecovery = run.Recovery != nil
	if run.Recovery != nil {
		s.recovery = *run.Recovery
	}
	s.logPath = run.LogPath

	if run.LogHeader != "" {
		s.appendLogLocked(run.LogHeader)
	}

	s.logger.Info("run started",
		zap.String("run_id", run.ID),
		zap.String("mode", string(run.Decision.Mode)),
		zap.String("input", run.Config.InputPath),
		zap.String("output", run.Config.OutputPath),
	)
	return nil
}

// ObserveLine feeds one pipeline output line to the log and the progress
// tracker, but only while proc is still the current process. A stale pump
// from an earlier run must never corrupt the live run's counters.
func (s *Store) ObserveLine(proc *exec.Cmd, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if proc == nil || proc != s.proc {
		return
	}
	s.appendLogLocked(line + "\n")
	s.tracker.Observe(line)
}

// AppendLog writes to the run log under the store lock so log order always
// matches state-transition order.
func (s *Store) AppendLog(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLogLocked(text)
}

// MarkCanceled flags the live run as canceled and returns its process for
// group signaling. The actual exit is observed later by the waiter.
func (s *Store) MarkCanceled() (*exec.Cmd, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc == nil || s.status != StatusRunning {
		return nil, ErrNoActiveRun
	}
	s.status = StatusCanceled
	s.message = "cancel requested"
	return s.proc, nil
}

// RevertCancel restores running status after a failed cancel signal.
func (s *Store) RevertCancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusCanceled && s.proc != nil {
		s.status = StatusRunning
	}
}

// ExitContext is the phase-one view the waiter detaches before it performs
// any I/O-heavy classification.
type ExitContext struct {
	RunID      string
	Canceled   bool
	Recovery   bool
	LogPath    string
	InputPath  string
	OutputPath string

	Mode           plan.Mode
	SegmentSeconds int
	Preset         plan.Preset
}

// DetachForExit is called by the waiter once the process has exited. It
// detaches the handle and stamps the finish time. When the run was already
// marked canceled it finalizes immediately and reports Canceled=true; in
// that case the caller has nothing left to do. Returns false when proc is
// not the current process (a stale waiter).
func (s *Store) DetachForExit(proc *exec.Cmd) (ExitContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if proc == nil || proc != s.proc {
		return ExitContext{}, false
	}

	s.proc = nil
	s.finishedAt = s.now()

	ctx := ExitContext{
		RunID:          s.runID,
		Recovery:       s.isRecovery,
		LogPath:        s.logPath,
		InputPath:      s.config.InputPath,
		OutputPath:     s.config.OutputPath,
		Mode:           s.decision.Mode,
		SegmentSeconds: s.decision.SegmentSeconds,
		Preset:         s.config.Preset,
	}

	if s.status == StatusCanceled {
		ctx.Canceled = true
		s.message = "canceled"
		s.appendLogLocked("[" + s.finishedAt.Format(timeLayout) + "] canceled\n")
		s.logger.Info("run canceled", zap.String("run_id", s.runID))
	}
	return ctx, true
}

// FinishCompleted records a successful exit. withWarnings demotes the
// message (partial success) without changing the terminal status.
func (s *Store) FinishCompleted(withWarnings bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusRunning {
		return
	}
	s.status = StatusCompleted
	if withWarnings {
		s.message = "completed with some failed segments"
	} else {
		s.message = "completed"
	}
	s.appendLogLocked("[" + s.finishedAt.Format(timeLayout) + "] completed\n")
	s.logger.Info("run completed", zap.String("run_id", s.runID), zap.Bool("warnings", withWarnings))
}

// FinishFailed records a failed exit with its classified guidance. forceCPU
// persists the hardware-fault preference consulted by future runs.
func (s *Store) FinishFailed(exitCode int, lastError, reason, action string, forceCPU bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusRunning {
		return
	}
	s.status = StatusFailed
	s.lastError = lastError
	s.failureReason = reason
	s.failureAction = action
	if forceCPU {
		s.forceCPU = true
	}
	s.message = "failed (" + lastError + ")"
	s.appendLogLocked("[" + s.finishedAt.Format(timeLayout) + "] failed (" + lastError + ")\n")
	s.logger.Warn("run failed",
		zap.String("run_id", s.runID),
		zap.Int("exit_code", exitCode),
		zap.String("reason", reason),
	)
}

const timeLayout = "2006-01-02 15:04:05"

func (s *Store) appendLogLocked(text string) {
	if err := runlog.Append(s.logPath, text); err != nil {
		s.logger.Warn("run log append failed", zap.String("path", s.logPath), zap.Error(err))
	}
}
