// Package config assembles the workflow configuration from platform
// defaults, an optional YAML file, and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yujirofunabashi/whisper-workflow/internal/platform"
)

// Default executable names, resolved against PATH unless the config file
// pins absolute paths.
const (
	DefaultTranscribeExe = "transcribe-workflow"
	DefaultPreflightExe  = "whisper-preflight"
	DefaultRecoveryExe   = "recover-segments"
)

// DefaultOutputName is used when the operator does not name the transcript.
const DefaultOutputName = "transcription_result.txt"

// Config carries every path and executable the orchestrator needs. Zero
// values are filled by Load; invalid combinations fail there, not at use.
type Config struct {
	CacheDir   string `yaml:"cache_dir"`
	OutputsDir string `yaml:"outputs_dir"`

	TranscribeExe string `yaml:"transcribe_exe"`
	PreflightExe  string `yaml:"preflight_exe"`
	RecoveryExe   string `yaml:"recovery_exe"`
}

// UploadsDir is where selected input files are staged.
func (c Config) UploadsDir() string { return filepath.Join(c.CacheDir, "uploads") }

// LogsDir holds per-run logs and recovery target lists.
func (c Config) LogsDir() string { return filepath.Join(c.CacheDir, "logs") }

// VADModelDir holds downloaded voice-activity-detection models.
func (c Config) VADModelDir() string { return filepath.Join(c.CacheDir, "models") }

// Load builds the effective configuration. The YAML file is optional; a
// missing file is not an error, a malformed one is.
func Load(path string) (Config, error) {
	cfg, err := defaults()
	if err != nil {
		return Config{}, err
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				return Config{}, fmt.Errorf("decode config %s: %w", path, err)
			}
			cfg = merge(cfg, fileCfg)
		}
	}

	if cfg.CacheDir == "" || cfg.OutputsDir == "" {
		return Config{}, errors.New("cache and output directories must be set")
	}
	return cfg, nil
}

// EnsureDirs creates the working directories so a fresh install can run its
// first job without manual setup.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.CacheDir, c.UploadsDir(), c.LogsDir(), c.VADModelDir(), c.OutputsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func defaults() (Config, error) {
	cacheDir, err := platform.ResolveCacheDir()
	if err != nil {
		return Config{}, err
	}
	outputsDir, err := platform.ResolveOutputDir()
	if err != nil {
		return Config{}, err
	}

	return Config{
		CacheDir:      cacheDir,
		OutputsDir:    outputsDir,
		TranscribeExe: DefaultTranscribeExe,
		PreflightExe:  DefaultPreflightExe,
		RecoveryExe:   DefaultRecoveryExe,
	}, nil
}

func merge(base, override Config) Config {
	if override.CacheDir != "" {
		base.CacheDir = override.CacheDir
	}
	if override.OutputsDir != "" {
		base.OutputsDir = override.OutputsDir
	}
	if override.TranscribeExe != "" {
		base.TranscribeExe = override.TranscribeExe
	}
	if override.PreflightExe != "" {
		base.PreflightExe = override.PreflightExe
	}
	if override.RecoveryExe != "" {
		base.RecoveryExe = override.RecoveryExe
	}
	return base
}
