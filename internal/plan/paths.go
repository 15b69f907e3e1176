package plan

import (
	"path/filepath"
	"regexp"
	"strings"
)

const maxFilenameLen = 120

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename reduces a caller-supplied name to a safe basename:
// directory components are stripped, disallowed characters collapse to
// underscores, and the result is bounded in length. fallback is used when
// nothing usable remains.
func SanitizeFilename(name, fallback string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	if base == "" {
		base = fallback
	}

	cleaned := unsafeFilenameChars.ReplaceAllString(base, "_")
	cleaned = strings.Trim(cleaned, "._")
	if cleaned == "" {
		cleaned = fallback
	}
	if len(cleaned) > maxFilenameLen {
		cleaned = cleaned[:maxFilenameLen]
	}
	return cleaned
}

// ResolveOutputPath maps an operator-supplied output name to a full path
// under outputsDir, enforcing sanitation and a .txt extension. An absolute
// path is trusted as-is: the operator is local and may target any location.
func ResolveOutputPath(nameOrPath, fallbackName, outputsDir string) string {
	raw := strings.TrimSpace(nameOrPath)
	if raw != "" && filepath.IsAbs(raw) {
		return raw
	}

	if raw == "" {
		raw = fallbackName
	}
	safe := SanitizeFilename(raw, fallbackName)
	if !strings.HasSuffix(safe, ".txt") {
		safe += ".txt"
	}
	return filepath.Join(outputsDir, safe)
}

// DefaultRecoveredOutputName derives the recovered-output filename from the
// partial output it merges into.
func DefaultRecoveredOutputName(partialOutputPath string) string {
	base := filepath.Base(strings.TrimSpace(partialOutputPath))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "transcription_result.txt"
	}
	if strings.HasSuffix(base, ".txt") {
		return strings.TrimSuffix(base, ".txt") + ".recovered.txt"
	}
	return base + ".recovered.txt"
}
