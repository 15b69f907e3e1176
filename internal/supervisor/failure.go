package supervisor

import "strings"

// FailureVerdict is the operator-facing diagnosis of a failed run.
type FailureVerdict struct {
	Reason   string
	Action   string
	ForceCPU bool
}

// metalFaultMarker in the log means the GPU backend crashed; future runs
// are pinned to CPU regardless of which signature produced the guidance.
const metalFaultMarker = "ggml-metal-device.m"

// classifyFailure scans the log tail against the ordered signature table.
// The first match wins; an unmatched tail gets the generic verdict.
func classifyFailure(tail string) FailureVerdict {
	lower := strings.ToLower(tail)

	verdict := guidanceFor(lower)
	verdict.ForceCPU = strings.Contains(lower, metalFaultMarker)
	return verdict
}

func guidanceFor(lower string) FailureVerdict {
	if strings.Contains(lower, metalFaultMarker) ||
		(strings.Contains(lower, "failed to process audio") && strings.Contains(lower, "vad")) {
		return FailureVerdict{
			Reason: "an internal error occurred during VAD execution",
			Action: "retry with VAD off; subsequent runs are pinned to CPU automatically",
		}
	}

	if strings.Contains(lower, "model file not found") || strings.Contains(lower, "download example:") {
		return FailureVerdict{
			Reason: "the model file is missing",
			Action: "run the model install script before retrying",
		}
	}

	if strings.Contains(lower, "no space left on device") {
		return FailureVerdict{
			Reason: "the disk is out of space",
			Action: "remove unneeded files and run again",
		}
	}

	if strings.Contains(lower, "failed after") && strings.Contains(lower, "attempt") {
		return FailureVerdict{
			Reason: "whisper-cli exhausted all of its retries",
			Action: "retry with a lighter preset (x8/x16)",
		}
	}

	if strings.Contains(lower, "converting to 16khz wav") &&
		(strings.Contains(lower, "invalid data") ||
			strings.Contains(lower, "error while") ||
			strings.Contains(lower, "could not") ||
			strings.Contains(lower, "failed")) {
		return FailureVerdict{
			Reason: "audio conversion failed",
			Action: "re-save the input as m4a/mp3/wav and run again",
		}
	}

	return FailureVerdict{
		Reason: "the run failed",
		Action: "check the log and retry with a lighter preset if needed",
	}
}
