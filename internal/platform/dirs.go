// Package platform resolves the per-OS directories the workflow uses for
// its cache (uploads, logs) and transcript outputs.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "WhisperWorkflow"

// EnvCacheDir and EnvOutputDir override the platform defaults.
const (
	EnvCacheDir  = "WHISPER_WORKFLOW_CACHE_DIR"
	EnvOutputDir = "WHISPER_WORKFLOW_OUTPUT_DIR"
)

// DefaultCacheDirFor returns the cache root for the given OS without
// touching the real environment, so it is testable on any platform.
func DefaultCacheDirFor(goos, homeDir, xdgCacheHome string) (string, error) {
	if homeDir == "" {
		return "", errors.New("home directory is empty")
	}

	switch goos {
	case "linux":
		if xdgCacheHome != "" {
			return filepath.Join(xdgCacheHome, "whisper-workflow"), nil
		}
		return filepath.Join(homeDir, ".cache", "whisper-workflow"), nil
	case "darwin":
		return filepath.Join(homeDir, "Library", "Caches", appDirName), nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", goos)
	}
}

// DefaultOutputDirFor returns where finished transcripts land by default.
func DefaultOutputDirFor(goos, homeDir string) (string, error) {
	if homeDir == "" {
		return "", errors.New("home directory is empty")
	}

	switch goos {
	case "linux", "darwin":
		return filepath.Join(homeDir, "Downloads", appDirName), nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", goos)
	}
}

// ResolveCacheDir applies the env override, then the platform default.
func ResolveCacheDir() (string, error) {
	if override := os.Getenv(EnvCacheDir); override != "" {
		return filepath.Clean(override), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return DefaultCacheDirFor(runtime.GOOS, homeDir, os.Getenv("XDG_CACHE_HOME"))
}

// ResolveOutputDir applies the env override, then the platform default.
func ResolveOutputDir() (string, error) {
	if override := os.Getenv(EnvOutputDir); override != "" {
		return filepath.Clean(override), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return DefaultOutputDirFor(runtime.GOOS, homeDir)
}
