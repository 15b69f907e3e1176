// Package runlog handles the plain append-only log each run writes, plus
// retention sweeping for the upload and log directories.
package runlog

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Retention windows for swept directories.
const (
	UploadRetention = 24 * time.Hour
	LogRetention    = 7 * 24 * time.Hour
)

// Append writes one chunk of text to the run log, creating it on first use.
// Each write opens and closes the file so a crash never loses buffered
// lines.
func Append(path, text string) error {
	if path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(text); err != nil {
		return err
	}
	return nil
}

// Tail returns the last limit lines of the file joined by newlines, or ""
// when the file is missing or unreadable. Failed runs keep their full log on
// disk; this is only the view handed to snapshots.
func Tail(path string, limit int) string {
	if path == "" || limit <= 0 {
		return ""
	}

	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > limit {
			lines = lines[1:]
		}
	}
	return strings.Join(lines, "\n")
}

// Sweep removes regular files older than maxAge from dir. Files whose
// resolved real path appears in skip are never touched, so the live run's
// input and log survive any sweep. Removal failures are ignored: a stale
// file is harmless and will be retried on the next sweep.
func Sweep(dir string, maxAge time.Duration, skip map[string]struct{}) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		full := filepath.Join(dir, entry.Name())
		real, err := filepath.EvalSymlinks(full)
		if err != nil {
			real = full
		}
		if _, protected := skip[real]; protected {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= maxAge {
			continue
		}

		_ = os.Remove(full)
	}
}

// SkipSet builds the resolved-realpath set Sweep consults from the given
// paths, dropping empties.
func SkipSet(paths ...string) map[string]struct{} {
	skip := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		real, err := filepath.EvalSymlinks(p)
		if err != nil {
			real = p
		}
		skip[real] = struct{}{}
	}
	return skip
}
