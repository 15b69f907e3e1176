package plan

import "fmt"

// singlePassSegmentSeconds is recorded even for single-pass runs so a later
// time-range recovery has a segment length to fall back on.
const singlePassSegmentSeconds = 240

// RecommendAutoMode picks an execution mode, parallel job count, and segment
// length for the given input duration. The policy is aggressive about
// parallelism: anything of 15 minutes or more is segmented. Deterministic
// and side-effect-free.
func RecommendAutoMode(durationSec float64, preset Preset, priority Priority, cpuCount int) ModeDecision {
	if cpuCount <= 0 {
		cpuCount = 4
	}
	halfCPU := cpuCount / 2
	if halfCPU < 2 {
		halfCPU = 2
	}
	prio := NormalizePriority(string(priority))
	tier := NormalizePreset(string(preset))

	var jobs, jobsFloor, segSeconds int
	switch {
	case durationSec >= 120*60:
		jobs, jobsFloor, segSeconds = boundJobs(halfCPU, 4, 8), 4, 90
	case durationSec >= 60*60:
		jobs, jobsFloor, segSeconds = boundJobs(halfCPU, 4, 6), 4, 120
	case durationSec >= 30*60:
		jobs, jobsFloor, segSeconds = boundJobs(halfCPU, 3, 5), 3, 150
	case durationSec >= 15*60:
		jobs, jobsFloor, segSeconds = boundJobs(halfCPU, 2, 4), 2, 180
	default:
		return ModeDecision{
			Mode:           ModeSinglePass,
			Jobs:           1,
			SegmentSeconds: singlePassSegmentSeconds,
			Reason:         "input is under 15 minutes; a single pass is optimal",
		}
	}

	// Accuracy-leaning choices trade one job for longer segments; speed
	// does the inverse. The bucket floor keeps long inputs parallel enough.
	if prio == PriorityAccuracy {
		jobs, segSeconds = slower(jobs, segSeconds, jobsFloor)
	} else if prio == PrioritySpeed {
		jobs, segSeconds = faster(jobs, segSeconds)
	}
	if tier == PresetX1 {
		jobs, segSeconds = slower(jobs, segSeconds, jobsFloor)
	} else if tier == PresetX16 {
		jobs, segSeconds = faster(jobs, segSeconds)
	}

	return ModeDecision{
		Mode:           ModeSegmented,
		Jobs:           jobs,
		SegmentSeconds: segSeconds,
		Reason: fmt.Sprintf("%d-minute input favors segmented parallelism (%s priority, jobs=%d, %ds segments)",
			int(durationSec/60), prio, jobs, segSeconds),
	}
}

func boundJobs(halfCPU, floor, cap int) int {
	jobs := halfCPU
	if jobs < floor {
		jobs = floor
	}
	if jobs > cap {
		jobs = cap
	}
	return jobs
}

func slower(jobs, segSeconds, floor int) (int, int) {
	jobs--
	if jobs < floor {
		jobs = floor
	}
	segSeconds += 30
	if segSeconds > 300 {
		segSeconds = 300
	}
	return jobs, segSeconds
}

func faster(jobs, segSeconds int) (int, int) {
	jobs++
	if jobs > 8 {
		jobs = 8
	}
	segSeconds -= 30
	if segSeconds < 60 {
		segSeconds = 60
	}
	return jobs, segSeconds
}
