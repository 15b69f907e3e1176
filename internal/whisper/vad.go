package whisper

import (
	"os"
	"path/filepath"
	"sort"
)

// VADModel is a downloadable silero voice-activity-detection model usable
// by the single-pass pipeline. SHA256URL points at the git-lfs pointer for
// the file, whose "oid sha256:" line carries the digest to verify against.
type VADModel struct {
	Name      string
	FileName  string
	URL       string
	SHA256    string
	SHA256URL string
}

// Newer model versions come first; FindVADModel prefers them.
var vadRegistry = []VADModel{
	{
		Name:      "silero-v5.1.2",
		FileName:  "ggml-silero-v5.1.2.bin",
		URL:       "https://huggingface.co/ggml-org/whisper-vad/resolve/main/ggml-silero-v5.1.2.bin",
		SHA256URL: "https://huggingface.co/ggml-org/whisper-vad/raw/main/ggml-silero-v5.1.2.bin",
	},
}

// VADModelNames lists the downloadable models, sorted.
func VADModelNames() []string {
	names := make([]string, 0, len(vadRegistry))
	for _, m := range vadRegistry {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

// LookupVADModel finds a registry entry by name.
func LookupVADModel(name string) (VADModel, bool) {
	for _, m := range vadRegistry {
		if m.Name == name {
			return m, true
		}
	}
	return VADModel{}, false
}

// DefaultVADModel is what `setup` fetches when no name is given.
func DefaultVADModel() VADModel {
	return vadRegistry[0]
}

// FindVADModel returns the path of the first VAD model present in any of
// the candidate directories, or "" when none is installed. VAD is then
// forced off rather than failing the run.
func FindVADModel(dirs ...string) string {
	for _, m := range vadRegistry {
		for _, dir := range dirs {
			if dir == "" {
				continue
			}
			path := filepath.Join(dir, m.FileName)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}
