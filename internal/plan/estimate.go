package plan

import "math"

// Window is an asymmetric runtime estimate in seconds. Real runs vary a lot
// with content and thermal state, so a point estimate would be false
// precision; the band is deliberately wide on the high side.
type Window struct {
	Center int
	Low    int
	High   int
}

// baseRTF is a rough real-time-factor model per preset tier (lower is
// faster). This is only a planning hint, never a guarantee.
var baseRTF = map[Preset]float64{
	PresetX1:  0.95,
	PresetX4:  0.55,
	PresetX8:  0.30,
	PresetX16: 0.18,
}

// EstimateRuntimeWindow projects how long a run will take. The second return
// is false when the input duration is unknown or nonsensical.
func EstimateRuntimeWindow(durationSec float64, preset Preset, mode Mode, jobs int, vadEffective, forceCPU bool) (Window, bool) {
	if durationSec <= 0 || math.IsNaN(durationSec) {
		return Window{}, false
	}

	rtf := baseRTF[NormalizePreset(string(preset))]
	if mode != ModeSegmented {
		mode = ModeSinglePass
	}
	jobs = ClampInt(jobs, 1, 8)

	if mode == ModeSegmented {
		// Diminishing returns: each extra job contributes 55% of a full
		// worker, and segmentation itself costs a little. The floor applies
		// to the overhead-inclusive rate.
		gain := 1.0 + float64(jobs-1)*0.55
		rtf = math.Max(0.08, rtf/gain+0.04)
	}

	if vadEffective {
		rtf *= 0.90
	}
	if forceCPU {
		rtf *= 1.15
	}

	transcribeSec := durationSec * rtf
	convertSec := clampFloat(durationSec*0.008, 2, 45)
	concatSec := 0.0
	if mode == ModeSegmented {
		concatSec = clampFloat(durationSec/600, 1, 20)
	}
	totalSec := transcribeSec + convertSec + concatSec

	low := int(math.Max(1, totalSec*0.8))
	high := int(math.Max(float64(low+1), totalSec*1.4))
	center := int(math.Max(1, math.Round(totalSec)))
	return Window{Center: center, Low: low, High: high}, true
}

// EstimateRecoveryWindow is the simpler model for recovery runs: a flat
// per-segment cost derived from the segment length plus fixed setup time.
func EstimateRecoveryWindow(targetCount, segmentSeconds int) (Window, bool) {
	if targetCount <= 0 || segmentSeconds <= 0 {
		return Window{}, false
	}

	perSegment := math.Max(8, math.Round(float64(segmentSeconds)*0.35))
	total := float64(targetCount)*perSegment + 10
	low := int(math.Max(1, math.Round(total*0.7)))
	high := int(math.Max(float64(low+1), math.Round(total*1.6)))
	return Window{Center: int(total), Low: low, High: high}, true
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
