// Package preflight runs the external diagnostic executable against an
// input file and parses its JSON report. Preflight failures are soft: the
// caller records the run as diagnosed-skipped and may proceed, but a
// successful diagnosis with a NOT_RECOMMENDED verdict hard-blocks starts.
package preflight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Timeout bounds one preflight invocation; long inputs are probed, not
// decoded, so anything beyond this indicates a wedged tool.
const Timeout = 120 * time.Second

// Verdict is the diagnostic outcome for an input file.
type Verdict string

const (
	VerdictOK              Verdict = "OK"
	VerdictNeedsCorrection Verdict = "NEEDS_CORRECTION"
	VerdictNotRecommended  Verdict = "NOT_RECOMMENDED"
)

// CorrectionVolumeNormalize is the suggested-correction token for loudnorm.
const CorrectionVolumeNormalize = "volume_normalize"

// InputInfo describes the probed characteristics of the media file.
type InputInfo struct {
	DurationSec  float64 `json:"duration_sec"`
	Container    string  `json:"container"`
	Codec        string  `json:"codec"`
	SampleRate   int     `json:"sample_rate"`
	Channels     int     `json:"channels"`
	MeanVolumeDB float64 `json:"mean_volume_db"`
	SilenceRatio float64 `json:"silence_ratio"`
}

// Result is the structured report of one preflight run. A stale result
// persists until the next diagnosis replaces it.
type Result struct {
	Verdict           Verdict   `json:"verdict"`
	Input             InputInfo `json:"input"`
	RecommendedPreset string    `json:"recommended_preset"`
	Corrections       []string  `json:"corrections"`
	Reasons           []string  `json:"reasons"`
}

// HasCorrection reports whether the diagnosis suggested the named fix.
func (r *Result) HasCorrection(name string) bool {
	if r == nil {
		return false
	}
	for _, c := range r.Corrections {
		if c == name {
			return true
		}
	}
	return false
}

// DurationSec returns the probed input duration, zero when unknown.
func (r *Result) DurationSec() float64 {
	if r == nil {
		return 0
	}
	return r.Input.DurationSec
}

// Runner invokes the preflight executable.
type Runner struct {
	exePath string
	timeout time.Duration
	logger  *zap.Logger
}

func NewRunner(exePath string, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{exePath: exePath, timeout: Timeout, logger: logger}
}

// WithTimeout overrides the wall-clock bound, mainly for tests.
func (r *Runner) WithTimeout(d time.Duration) *Runner {
	r.timeout = d
	return r
}

// Run executes `<exe> <input> <priority>` and decodes the single JSON
// object it must print on success. Timeouts, nonzero exits, and malformed
// output all surface as errors for the caller to degrade gracefully.
func (r *Runner) Run(ctx context.Context, inputPath, priority string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.exePath, inputPath, priority)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	r.logger.Debug("preflight finished",
		zap.String("input", inputPath),
		zap.Duration("elapsed", time.Since(started)),
		zap.Error(err),
	)

	if ctx.Err() != nil {
		return nil, fmt.Errorf("preflight timed out after %s", r.timeout)
	}
	if err != nil {
		detail := lastChars(strings.TrimSpace(stderr.String()), 300)
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("preflight failed (exit=%d): %s", exitErr.ExitCode(), detail)
		}
		return nil, fmt.Errorf("run preflight: %w", err)
	}

	raw := strings.TrimSpace(stdout.String())
	if raw == "" {
		return nil, errors.New("preflight returned empty output")
	}

	var result Result
	decoder := json.NewDecoder(strings.NewReader(raw))
	if err := decoder.Decode(&result); err != nil {
		return nil, fmt.Errorf("parse preflight JSON: %w", err)
	}

	return &result, nil
}

func lastChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
