// Package recovery validates and plans follow-up runs that re-transcribe
// failed segments of an earlier transcript. Preparation is strictly
// separated from launch: every error here surfaces before any process
// starts.
package recovery

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yujirofunabashi/whisper-workflow/internal/config"
	"github.com/yujirofunabashi/whisper-workflow/internal/diagnostics"
	"github.com/yujirofunabashi/whisper-workflow/internal/plan"
	"github.com/yujirofunabashi/whisper-workflow/internal/state"
)

// failedSegmentLine matches one well-formed identifier in the
// failed-segments sidecar.
var failedSegmentLine = regexp.MustCompile(`^\s*segment_[0-9]+\s*$`)

// Request is the operator's recovery configuration. Zero values fall back
// to the defaults remembered from the previous recovery run; an empty
// InputPath resolves through the current selection and then the sidecar
// written by the run that produced the partial output.
type Request struct {
	Mode                   state.RecoveryMode
	InputPath              string
	Ranges                 string
	SegmentSecondsOverride int
	RetryCount             int
	Preset                 string
	PartialOutputName      string
	RecoveredOutputName    string
}

// Plan is a fully validated recovery launch: executable arguments, env
// steering values, the runtime estimate, and the settings to remember.
type Plan struct {
	RunID               string
	InputPath           string
	PartialOutputPath   string
	TargetsPath         string
	RecoveredOutputPath string

	TargetCount    int
	SegmentSeconds int
	RetryCount     int
	Preset         plan.Preset

	Estimate  plan.Window
	Estimated bool

	Settings state.RecoverySettings
}

// Coordinator prepares recovery plans against the current store state.
type Coordinator struct {
	store   *state.Store
	cfg     config.Config
	checker *diagnostics.Checker
	logger  *zap.Logger
	newID   func() string
}

func NewCoordinator(store *state.Store, cfg config.Config, checker *diagnostics.Checker, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:   store,
		cfg:     cfg,
		checker: checker,
		logger:  logger,
		newID:   uuid.NewString,
	}
}

// Prepare validates the request and resolves every input the recovery
// executable needs. Nothing is launched here.
func (c *Coordinator) Prepare(req Request) (Plan, error) {
	if c.store.IsRunning() {
		return Plan{}, state.ErrRunActive
	}

	inputPath := strings.TrimSpace(req.InputPath)
	if inputPath == "" {
		inputPath = c.store.Selection().InputPath
	}

	if missing := c.checker.MissingRecovery(); len(missing) > 0 {
		return Plan{}, fmt.Errorf("missing dependencies: %s", strings.Join(missing, ", "))
	}

	defaults := c.store.RecoveryDefaults()

	mode := req.Mode
	if mode == "" {
		mode = defaults.Mode
	}
	if mode != state.RecoveryFromFailedList && mode != state.RecoveryFromTimeRange {
		mode = state.RecoveryFromFailedList
	}

	ranges := strings.TrimSpace(req.Ranges)
	if ranges == "" {
		ranges = defaults.Ranges
	}

	retryCount := req.RetryCount
	if retryCount == 0 {
		retryCount = defaults.RetryCount
	}
	retryCount = plan.ClampInt(retryCount, 1, 5)

	presetOpt := strings.TrimSpace(req.Preset)
	if presetOpt == "" {
		presetOpt = defaults.PresetOverride
	}
	if presetOpt != "keep" && !plan.ValidPreset(presetOpt) {
		presetOpt = "keep"
	}

	partialDefault := filepath.Base(c.store.LastOutputPath())
	if partialDefault == "" || partialDefault == "." {
		partialDefault = config.DefaultOutputName
	}
	partialName := strings.TrimSpace(req.PartialOutputName)
	if partialName == "" {
		partialName = defaults.PartialOutputName
	}
	if partialName == "" {
		partialName = partialDefault
	}
	partialPath := plan.ResolveOutputPath(partialName, partialDefault, c.cfg.OutputsDir)
	if info, err := os.Stat(partialPath); err != nil || info.IsDir() {
		return Plan{}, fmt.Errorf("partial output not found: %s", partialPath)
	}

	// The sidecar written at the end of a normal run lets a fresh process
	// plan a recovery without the original selection in memory.
	if inputPath == "" {
		inputPath = metaValue(partialPath, metaInputKey)
	}
	if inputPath == "" {
		return Plan{}, fmt.Errorf("no input on record; run a normal transcription first")
	}
	if info, err := os.Stat(inputPath); err != nil || info.IsDir() {
		return Plan{}, fmt.Errorf("original input no longer on disk: %s", inputPath)
	}

	recoveredDefault := plan.DefaultRecoveredOutputName(partialPath)
	recoveredName := strings.TrimSpace(req.RecoveredOutputName)
	if recoveredName == "" {
		recoveredName = defaults.RecoveredOutputName
	}
	if recoveredName == "" {
		recoveredName = recoveredDefault
	}
	recoveredPath := plan.ResolveOutputPath(recoveredName, recoveredDefault, c.cfg.OutputsDir)

	if req.SegmentSecondsOverride != 0 &&
		(req.SegmentSecondsOverride < 30 || req.SegmentSecondsOverride > 3600) {
		return Plan{}, fmt.Errorf("segment seconds must be within 30..3600, got %d", req.SegmentSecondsOverride)
	}

	// Segment length resolution order: explicit override, sidecar, then the
	// segment length of the run that produced the partial output.
	segmentSeconds := req.SegmentSecondsOverride
	if segmentSeconds == 0 {
		segmentSeconds = segmentSecondsFromMeta(partialPath)
	}
	if segmentSeconds == 0 {
		segmentSeconds = c.store.ResolvedSegmentSeconds()
	}

	runID := c.newID()
	var targetsPath string
	var targetCount int

	switch mode {
	case state.RecoveryFromFailedList:
		targetsPath = partialPath + ".failed_segments.txt"
		count, err := countFailedSegments(targetsPath)
		if err != nil {
			return Plan{}, err
		}
		if count == 0 {
			return Plan{}, fmt.Errorf("failed-segments list is empty: %s", targetsPath)
		}
		targetCount = count

	case state.RecoveryFromTimeRange:
		if ranges == "" {
			return Plan{}, fmt.Errorf("time ranges required, e.g. 00:10:00-00:12:30, 00:31:00")
		}
		if segmentSeconds <= 0 {
			return Plan{}, fmt.Errorf("segment length unknown; pass an explicit segment-seconds value")
		}
		ids, err := plan.BuildSegmentIDsFromRanges(ranges, segmentSeconds)
		if err != nil {
			return Plan{}, err
		}
		targetCount = len(ids)
		targetsPath = filepath.Join(c.cfg.LogsDir(), "retry_targets_"+runID+".txt")
		if err := writeTargets(targetsPath, ids); err != nil {
			return Plan{}, fmt.Errorf("persist target list: %w", err)
		}
	}

	estimate, estimated := plan.EstimateRecoveryWindow(targetCount, segmentSeconds)

	var presetOverride plan.Preset
	if presetOpt != "keep" {
		presetOverride = plan.Preset(presetOpt)
	}

	c.logger.Info("recovery plan prepared",
		zap.String("run_id", runID),
		zap.String("mode", string(mode)),
		zap.Int("targets", targetCount),
		zap.Int("segment_seconds", segmentSeconds),
	)

	return Plan{
		RunID:               runID,
		InputPath:           inputPath,
		PartialOutputPath:   partialPath,
		TargetsPath:         targetsPath,
		RecoveredOutputPath: recoveredPath,
		TargetCount:         targetCount,
		SegmentSeconds:      segmentSeconds,
		RetryCount:          retryCount,
		Preset:              presetOverride,
		Estimate:            estimate,
		Estimated:           estimated,
		Settings: state.RecoverySettings{
			Mode:                mode,
			Ranges:              ranges,
			SegmentSecondsInput: req.SegmentSecondsOverride,
			RetryCount:          retryCount,
			PresetOverride:      presetOpt,
			PartialOutputName:   filepath.Base(partialPath),
			RecoveredOutputName: filepath.Base(recoveredPath),
		},
	}, nil
}

// segmentSecondsFromMeta reads SEGMENT_TIME from the KEY=VALUE sidecar next
// to the partial output, zero when absent or unusable.
func segmentSecondsFromMeta(partialPath string) int {
	value := metaValue(partialPath, segmentTimeKey)
	if value == "" {
		return 0
	}
	n := 0
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
		if n > 3600 {
			return 0
		}
	}
	return n
}

// countFailedSegments counts well-formed identifiers in the sidecar list.
func countFailedSegments(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed-segments list not found: %s", path)
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if failedSegmentLine.MatchString(scanner.Text()) {
			count++
		}
	}
	return count, nil
}

func writeTargets(path string, ids []string) error {
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(id)
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
