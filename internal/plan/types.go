package plan

// Preset identifies an accuracy/speed operating point of the inference
// model, from x1 (slowest, most accurate) to x16 (fastest, lightest).
type Preset string

const (
	PresetX1  Preset = "x1"
	PresetX4  Preset = "x4"
	PresetX8  Preset = "x8"
	PresetX16 Preset = "x16"
)

const DefaultPreset = PresetX4

// Priority biases planning decisions toward accuracy or speed.
type Priority string

const (
	PriorityAccuracy Priority = "accuracy"
	PriorityBalanced Priority = "balanced"
	PrioritySpeed    Priority = "speed"
)

// Mode is the resolved execution mode of a run. Recovery is a sentinel for
// follow-up runs so consumers never conflate them with normal runs.
type Mode string

const (
	ModeSinglePass Mode = "single-pass"
	ModeSegmented  Mode = "segmented"
	ModeRecovery   Mode = "recovery"
)

// ModeStrategy selects between automatic planning and operator overrides.
type ModeStrategy string

const (
	StrategyAuto   ModeStrategy = "auto"
	StrategyCustom ModeStrategy = "custom"
)

// ModeDecision is the resolved plan for one run. It is fixed once the run
// starts and never mutated afterwards.
type ModeDecision struct {
	Mode           Mode
	Jobs           int
	SegmentSeconds int
	Reason         string
	VADEffective   bool
	VADModelPath   string
}

// ValidPreset reports whether value names a known preset tier.
func ValidPreset(value string) bool {
	switch Preset(value) {
	case PresetX1, PresetX4, PresetX8, PresetX16:
		return true
	default:
		return false
	}
}

// NormalizePreset maps unknown values to the default tier.
func NormalizePreset(value string) Preset {
	if ValidPreset(value) {
		return Preset(value)
	}
	return DefaultPreset
}

// NormalizePriority maps unknown values to balanced.
func NormalizePriority(value string) Priority {
	switch Priority(value) {
	case PriorityAccuracy, PriorityBalanced, PrioritySpeed:
		return Priority(value)
	default:
		return PriorityBalanced
	}
}

// ClampInt bounds n to [min, max].
func ClampInt(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
