// Package state owns the single mutable RunState of the orchestrator. One
// exclusive lock guards every field, the external process handle, and run
// log appends, so readers always observe log contents consistent with the
// recorded status. The store is a constructed service object; nothing here
// is package-global.
package state

import (
	"errors"
	"os/exec"

	"github.com/yujirofunabashi/whisper-workflow/internal/plan"
)

// Status is the lifecycle state of the current (or most recent) run.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

var (
	// ErrRunActive is returned when a second run is started while one is live.
	ErrRunActive = errors.New("a run is already active")
	// ErrNoActiveRun is returned when cancel is requested with nothing running.
	ErrNoActiveRun = errors.New("no active run")
)

// RunConfig is the operator-supplied configuration of one run, immutable
// once the run starts.
type RunConfig struct {
	InputPath            string
	InputName            string
	OutputPath           string
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

// RecoveryMode selects how a recovery run picks its targets.
type RecoveryMode string

const (
	RecoveryFromFailedList RecoveryMode = "failed"
	RecoveryFromTimeRange  RecoveryMode = "time_range"
)

// RecoverySettings records the last recovery invocation so the next one can
// default to the same choices.
type RecoverySettings struct {
	Mode                RecoveryMode
	Ranges              string
	SegmentSecondsInput int
	RetryCount          int
	PresetOverride      string
	PartialOutputName   string
	RecoveredOutputName string
}

// Run is everything a starting run hands to the store in one atomic commit.
type Run struct {
	ID        string
	Cmd       *exec.Cmd
	Config    RunConfig
	Decision  plan.ModeDecision
	Estimate  plan.Window
	Estimated bool
	LogPath   string
	LogHeader string
	Message   string

	AppliedCorrections []string
	Recovery           *RecoverySettings
}
