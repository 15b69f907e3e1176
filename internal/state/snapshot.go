package state

import (
	"time"

	"github.com/yujirofunabashi/whisper-workflow/internal/plan"
	"github.com/yujirofunabashi/whisper-workflow/internal/preflight"
	"github.com/yujirofunabashi/whisper-workflow/internal/runlog"
)

// snapshotTailLines bounds the log view handed to snapshots; the full log
// stays on disk.
const snapshotTailLines = 600

// Snapshot is a point-in-time copy of the run state, safe to read without
// the store lock. The log tail and dependency list are gathered after the
// lock is released.
type Snapshot struct {
	Status     Status
	RunID      string
	Message    string
	StartedAt  time.Time
	FinishedAt time.Time
	Elapsed    time.Duration

	InputPath  string
	InputName  string
	OutputPath string
	OutputName string
	Preset     plan.Preset
	Priority   plan.Priority

	Decision plan.ModeDecision

	SegmentsTotal     int
	SegmentsCompleted int

	Estimate  plan.Window
	Estimated bool

	FailureReason string
	FailureAction string
	Corrections   []string
	ForceCPU      bool

	PreflightResult  *preflight.Result
	PreflightError   string
	PreflightAt      time.Time
	PreflightSkipped bool

	Recovery RecoverySettings

	LogPath     string
	LogTail     string
	MissingDeps []string
}

// Snapshot copies every field under the lock, then reads the log tail and
// probes dependencies outside it.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()

	snap := Snapshot{
		Status:            s.status,
		RunID:             s.runID,
		Message:           s.message,
		StartedAt:         s.startedAt,
		FinishedAt:        s.finishedAt,
		InputPath:         s.inputPath,
		InputName:         s.inputName,
		OutputPath:        s.config.OutputPath,
		OutputName:        s.config.OutputName,
		Preset:            s.preset,
		Priority:          s.priority,
		Decision:          s.decision,
		SegmentsTotal:     s.tracker.Total(),
		SegmentsCompleted: s.tracker.CompletedCount(),
		Estimate:          s.estimate,
		Estimated:         s.estimated,
		FailureReason:     s.failureReason,
		FailureAction:     s.failureAction,
		Corrections:       append([]string(nil), s.corrections...),
		ForceCPU:          s.forceCPU,
		PreflightResult:   s.preflightResult,
		PreflightError:    s.preflightError,
		PreflightAt:       s.preflightAt,
		PreflightSkipped:  s.preflightSkipped,
		Recovery:          s.recovery,
		LogPath:           s.logPath,
	}

	now := s.now()
	deps := s.deps
	s.mu.Unlock()

	switch {
	case snap.Status == StatusRunning:
		snap.Elapsed = now.Sub(snap.StartedAt)
	case !snap.FinishedAt.IsZero() && !snap.StartedAt.IsZero():
		snap.Elapsed = snap.FinishedAt.Sub(snap.StartedAt)
	}

	snap.LogTail = runlog.LocalizeText(runlog.Tail(snap.LogPath, snapshotTailLines))
	if deps != nil {
		snap.MissingDeps = deps.Missing()
	}
	return snap
}

// HeartbeatView is the minimal state the heartbeat loop needs to compose
// its periodic log line.
type HeartbeatView struct {
	Running           bool
	RunID             string
	Mode              plan.Mode
	SegmentsTotal     int
	SegmentsCompleted int
	Elapsed           time.Duration
}

// Heartbeat returns the live-run counters, or Running=false when nothing is
// live.
func (s *Store) Heartbeat() HeartbeatView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusRunning {
		return HeartbeatView{}
	}
	return HeartbeatView{
		Running:           true,
		RunID:             s.runID,
		Mode:              s.decision.Mode,
		SegmentsTotal:     s.tracker.Total(),
		SegmentsCompleted: s.tracker.CompletedCount(),
		Elapsed:           s.now().Sub(s.startedAt),
	}
}

// SetRunningMessage updates the user-facing message of the live run only;
// the heartbeat loop uses it so terminal messages are never overwritten.
func (s *Store) SetRunningMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusRunning {
		s.message = msg
	}
}

// Selection is the current input and planning preference pair, independent
// of any run.
type Selection struct {
	InputPath string
	InputName string
	Preset    plan.Preset
	Priority  plan.Priority
}

// SetSelection records the operator's current input and preferences.
func (s *Store) SetSelection(sel Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputPath = sel.InputPath
	s.inputName = sel.InputName
	if sel.Preset != "" {
		s.preset = sel.Preset
	}
	if sel.Priority != "" {
		s.priority = sel.Priority
	}
}

// Selection returns the current input and preferences.
func (s *Store) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Selection{
		InputPath: s.inputPath,
		InputName: s.inputName,
		Preset:    s.preset,
		Priority:  s.priority,
	}
}

// RecordPreflight stores the outcome of an input diagnosis. When the report
// carries a recommended preset it becomes the current selection preset, so
// the next run adopts it without the operator re-picking.
func (s *Store) RecordPreflight(result *preflight.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.preflightAt = s.now()
	if err != nil {
		// A failed diagnosis degrades to skipped rather than blocking runs.
		s.preflightResult = nil
		s.preflightError = err.Error()
		s.preflightSkipped = true
		return
	}
	s.preflightResult = result
	s.preflightError = ""
	s.preflightSkipped = false
	if result != nil && plan.ValidPreset(result.RecommendedPreset) {
		s.preset = plan.Preset(result.RecommendedPreset)
	}
}

// MarkPreflightSkipped records that the run proceeded without diagnosis,
// typically because the preflight executable is not installed.
func (s *Store) MarkPreflightSkipped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preflightResult = nil
	s.preflightError = ""
	s.preflightAt = s.now()
	s.preflightSkipped = true
}

// PreflightState returns the last diagnosis outcome for the starting run to
// consult.
func (s *Store) PreflightState() (result *preflight.Result, errMsg string, skipped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preflightResult, s.preflightError, s.preflightSkipped
}

// ForceCPU reports whether a prior hardware fault pinned runs to CPU.
func (s *Store) ForceCPU() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forceCPU
}

// RecoveryDefaults returns the settings of the last recovery run so the next
// invocation can reuse them.
func (s *Store) RecoveryDefaults() RecoverySettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recovery
}

// LastOutputPath is the output of the most recent run, used as the default
// partial transcript for recovery.
func (s *Store) LastOutputPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.OutputPath
}

// ResolvedSegmentSeconds is the segment length the last run actually used,
// the final fallback when recovery cannot learn it from the sidecar.
func (s *Store) ResolvedSegmentSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decision.SegmentSeconds
}
