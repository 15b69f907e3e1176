// Package diagnostics verifies the external collaborators the orchestrator
// drives: the three pipeline executables plus the media tools they shell
// out to. A start request is blocked while anything here is missing, with
// the full list reported rather than a single generic error.
package diagnostics

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/yujirofunabashi/whisper-workflow/internal/config"
)

// requiredTools are command-line programs the pipeline scripts depend on.
var requiredTools = []string{"ffmpeg", "ffprobe", "whisper-cli"}

// Checker probes for required executables and tools.
type Checker struct {
	cfg      config.Config
	lookPath func(string) (string, error)
	stat     func(string) (os.FileInfo, error)
}

func NewChecker(cfg config.Config) *Checker {
	return &Checker{
		cfg:      cfg,
		lookPath: exec.LookPath,
		stat:     os.Stat,
	}
}

// NewCheckerForTests creates a checker with injectable probes.
func NewCheckerForTests(cfg config.Config, lookPath func(string) (string, error), stat func(string) (os.FileInfo, error)) *Checker {
	return &Checker{cfg: cfg, lookPath: lookPath, stat: stat}
}

// Missing returns the sorted names of every absent dependency; empty means
// the environment is ready to run.
func (c *Checker) Missing() []string {
	var missing []string

	for _, exe := range []string{c.cfg.TranscribeExe, c.cfg.PreflightExe, c.cfg.RecoveryExe} {
		if exe == "" {
			continue
		}
		if !c.executableResolves(exe) {
			missing = append(missing, filepath.Base(exe))
		}
	}

	for _, tool := range requiredTools {
		if _, err := c.lookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}

	sort.Strings(missing)
	return missing
}

// MissingRecovery reports only what a recovery run needs.
func (c *Checker) MissingRecovery() []string {
	if c.executableResolves(c.cfg.RecoveryExe) {
		return nil
	}
	return []string{filepath.Base(c.cfg.RecoveryExe)}
}

// executableResolves accepts either a path (checked on disk) or a bare
// command name (checked on PATH).
func (c *Checker) executableResolves(exe string) bool {
	if filepath.Base(exe) != exe {
		info, err := c.stat(exe)
		return err == nil && !info.IsDir()
	}
	_, err := c.lookPath(exe)
	return err == nil
}
