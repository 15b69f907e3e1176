package plan

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// maxTargetSegments bounds the size of a recovery target set so a typo in a
// range expression cannot schedule thousands of segment re-runs.
const maxTargetSegments = 5000

var (
	plainSecondsPattern = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
	rangeSplitPattern   = regexp.MustCompile(`[,\n]+`)
)

// ParseTimeToSeconds parses a timestamp written as plain seconds, mm:ss, or
// hh:mm:ss into whole seconds.
func ParseTimeToSeconds(value string) (int, error) {
	text := strings.TrimSpace(value)
	if text == "" {
		return 0, fmt.Errorf("empty timestamp")
	}

	if plainSecondsPattern.MatchString(text) {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, fmt.Errorf("parse timestamp %q: %w", text, err)
		}
		if f < 0 {
			return 0, fmt.Errorf("negative timestamp %q", text)
		}
		return int(f), nil
	}

	parts := strings.Split(text, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("malformed timestamp %q", text)
	}

	nums := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("malformed timestamp %q", text)
		}
		nums = append(nums, f)
	}

	if len(nums) == 2 {
		return int(nums[0]*60 + nums[1]), nil
	}
	return int(nums[0]*3600 + nums[1]*60 + nums[2]), nil
}

// BuildSegmentIDsFromRanges turns a comma/newline-delimited list of
// timestamps and start-end ranges into the sorted set of segment identifiers
// those moments fall into, given the segment length of the original run.
//
// A bare timestamp is treated as a 1-second point range. Swapped bounds are
// corrected rather than rejected. A range covers segment indices
// floor(start/seg) through floor((end-1)/seg) inclusive.
func BuildSegmentIDsFromRanges(rangesText string, segmentSeconds int) ([]string, error) {
	if segmentSeconds <= 0 {
		return nil, fmt.Errorf("segment duration must be positive, got %d", segmentSeconds)
	}

	var tokens []string
	for _, raw := range rangeSplitPattern.Split(rangesText, -1) {
		if t := strings.TrimSpace(raw); t != "" {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("no time ranges given")
	}

	indices := make(map[int]struct{})
	for _, token := range tokens {
		startSec, endSec, err := parseRangeToken(token)
		if err != nil {
			return nil, err
		}

		startIdx := startSec / segmentSeconds
		endIdx := (endSec - 1) / segmentSeconds
		if endIdx < startIdx {
			endIdx = startIdx
		}
		for idx := startIdx; idx <= endIdx; idx++ {
			indices[idx] = struct{}{}
		}
		if len(indices) > maxTargetSegments {
			return nil, fmt.Errorf("too many target segments (over %d); narrow the ranges", maxTargetSegments)
		}
	}

	if len(indices) == 0 {
		return nil, fmt.Errorf("could not derive any target segments")
	}

	sorted := make([]int, 0, len(indices))
	for idx := range indices {
		sorted = append(sorted, idx)
	}
	sort.Ints(sorted)

	ids := make([]string, 0, len(sorted))
	for _, idx := range sorted {
		ids = append(ids, SegmentID(idx))
	}
	return ids, nil
}

// SegmentID renders the zero-padded identifier the pipeline uses for one
// segment, e.g. segment_012.
func SegmentID(index int) string {
	return fmt.Sprintf("segment_%03d", index)
}

func parseRangeToken(token string) (startSec, endSec int, err error) {
	if left, right, found := strings.Cut(token, "-"); found {
		startSec, err = ParseTimeToSeconds(left)
		if err != nil {
			return 0, 0, fmt.Errorf("malformed time range %q", token)
		}
		endSec, err = ParseTimeToSeconds(right)
		if err != nil {
			return 0, 0, fmt.Errorf("malformed time range %q", token)
		}
		if endSec < startSec {
			startSec, endSec = endSec, startSec
		}
		if endSec == startSec {
			endSec = startSec + 1
		}
		return startSec, endSec, nil
	}

	startSec, err = ParseTimeToSeconds(token)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed time range %q", token)
	}
	return startSec, startSec + 1, nil
}
