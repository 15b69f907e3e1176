package plan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTimeToSeconds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
	}{
		{"0", 0},
		{"90", 90},
		{"90.7", 90},
		{"01:30", 90},
		{"1:30", 90},
		{"00:10:00", 600},
		{"2:00:05", 7205},
		{" 45 ", 45},
	}

	for _, tt := range tests {
		got, err := ParseTimeToSeconds(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		require.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestParseTimeToSecondsRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "abc", "1:2:3:4", "-5", "1:-30", "::"} {
		_, err := ParseTimeToSeconds(in)
		require.Error(t, err, "input %q", in)
	}
}

func TestBuildSegmentIDsFromRange(t *testing.T) {
	t.Parallel()

	// 600s..750s at 120s segments: floor(600/120)=5 .. floor(749/120)=6.
	ids, err := BuildSegmentIDsFromRanges("00:10:00-00:12:30", 120)
	require.NoError(t, err)
	require.Equal(t, []string{"segment_005", "segment_006"}, ids)
}

func TestBuildSegmentIDsFromPointTimestamp(t *testing.T) {
	t.Parallel()

	// A bare timestamp is a 1-second point range.
	ids, err := BuildSegmentIDsFromRanges("00:05:00", 60)
	require.NoError(t, err)
	require.Equal(t, []string{"segment_005"}, ids)
}

func TestBuildSegmentIDsSwappedBoundsAreCorrected(t *testing.T) {
	t.Parallel()

	swapped, err := BuildSegmentIDsFromRanges("00:12:30-00:10:00", 120)
	require.NoError(t, err)

	ordered, err := BuildSegmentIDsFromRanges("00:10:00-00:12:30", 120)
	require.NoError(t, err)
	require.Equal(t, ordered, swapped)
}

func TestBuildSegmentIDsEqualBoundsWidenToOneSecond(t *testing.T) {
	t.Parallel()

	ids, err := BuildSegmentIDsFromRanges("300-300", 60)
	require.NoError(t, err)
	require.Equal(t, []string{"segment_005"}, ids)
}

func TestBuildSegmentIDsMergesAndSortsTokens(t *testing.T) {
	t.Parallel()

	ids, err := BuildSegmentIDsFromRanges("00:31:00,\n00:10:00-00:12:30, 00:11:00", 120)
	require.NoError(t, err)
	require.Equal(t, []string{"segment_005", "segment_006", "segment_015"}, ids)
}

func TestBuildSegmentIDsValidation(t *testing.T) {
	t.Parallel()

	_, err := BuildSegmentIDsFromRanges("00:10:00", 0)
	require.Error(t, err)

	_, err = BuildSegmentIDsFromRanges("  \n  , ", 60)
	require.Error(t, err)

	_, err = BuildSegmentIDsFromRanges("00:10:00-banana", 60)
	require.Error(t, err)

	// 0..6000s at 1s segments is 6000 indices, over the cap.
	_, err = BuildSegmentIDsFromRanges("0-6000", 1)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "too many"))
}

func TestSegmentIDZeroPadding(t *testing.T) {
	t.Parallel()

	require.Equal(t, "segment_000", SegmentID(0))
	require.Equal(t, "segment_042", SegmentID(42))
	require.Equal(t, "segment_1234", SegmentID(1234))
}
