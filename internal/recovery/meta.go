package recovery

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/yujirofunabashi/whisper-workflow/internal/plan"
)

// Sidecar keys. SEGMENT_TIME is the key the external pipeline also
// understands; the rest let a fresh process plan a recovery without the
// in-memory state of the run that produced the partial output.
const (
	metaSuffix     = ".recovery_meta"
	metaInputKey   = "INPUT"
	segmentTimeKey = "SEGMENT_TIME"
	metaPresetKey  = "PRESET"
	metaModeKey    = "MODE"
)

// RunMeta is the KEY=VALUE record a finished normal run leaves next to its
// output file.
type RunMeta struct {
	InputPath      string
	SegmentSeconds int
	Preset         plan.Preset
	Mode           plan.Mode
}

// WriteRunMeta persists the sidecar next to outputPath, replacing any
// previous record.
func WriteRunMeta(outputPath string, meta RunMeta) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s=%s\n", metaInputKey, meta.InputPath)
	fmt.Fprintf(&b, "%s=%d\n", segmentTimeKey, meta.SegmentSeconds)
	fmt.Fprintf(&b, "%s=%s\n", metaPresetKey, meta.Preset)
	fmt.Fprintf(&b, "%s=%s\n", metaModeKey, meta.Mode)
	return os.WriteFile(outputPath+metaSuffix, []byte(b.String()), 0o644)
}

// metaValue reads one key from the sidecar next to partialPath, empty when
// the sidecar or the key is absent.
func metaValue(partialPath, key string) string {
	f, err := os.Open(partialPath + metaSuffix)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		k, v, found := strings.Cut(scanner.Text(), "=")
		if found && strings.TrimSpace(k) == key {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
