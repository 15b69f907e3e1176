package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yujirofunabashi/whisper-workflow/internal/recovery"
	"github.com/yujirofunabashi/whisper-workflow/internal/state"
)

func newRetryCmd(app *appState) *cobra.Command {
	var (
		modeFlag       string
		inputPath      string
		ranges         string
		segmentSeconds int
		retryCount     int
		presetFlag     string
		partialName    string
		outputName     string
	)

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Re-transcribe failed segments of the most recent run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if inputPath != "" {
				abs, err := filepath.Abs(inputPath)
				if err != nil {
					return fmt.Errorf("resolve input path: %w", err)
				}
				inputPath = abs
			}
			req := recovery.Request{
				InputPath:              inputPath,
				Ranges:                 ranges,
				SegmentSecondsOverride: segmentSeconds,
				RetryCount:             retryCount,
				Preset:                 presetFlag,
				PartialOutputName:      partialName,
				RecoveredOutputName:    outputName,
			}
			switch modeFlag {
			case "failed", "":
				req.Mode = state.RecoveryFromFailedList
			case "time-range":
				req.Mode = state.RecoveryFromTimeRange
			default:
				return fmt.Errorf("unknown recovery mode %q (failed|time-range)", modeFlag)
			}

			p, err := app.coord.Prepare(req)
			if err != nil {
				return err
			}

			out := app.outWriter()
			fmt.Fprintf(out, "Recovering %d segments from %s\n", p.TargetCount, p.PartialOutputPath)
			if p.Estimated {
				fmt.Fprintf(out, "Estimated time: ~%ds (%d-%ds)\n",
					p.Estimate.Center, p.Estimate.Low, p.Estimate.High)
			}

			if err := app.sup.StartRecovery(p); err != nil {
				return err
			}
			return app.watchRun(cmd)
		},
	}

	cmd.Flags().StringVar(&modeFlag, "mode", "failed", "Target selection: failed|time-range")
	cmd.Flags().StringVar(&inputPath, "input", "", "Original media file; defaults to the one recorded by the previous run")
	cmd.Flags().StringVar(&ranges, "ranges", "", "Time ranges for time-range mode, e.g. \"00:10:00-00:12:30, 00:31:00\"")
	cmd.Flags().IntVar(&segmentSeconds, "segment-time", 0, "Segment length override in seconds (30-3600); 0 resolves it automatically")
	cmd.Flags().IntVar(&retryCount, "retry-count", 0, "Per-segment retry count (1-5); 0 keeps the previous value")
	cmd.Flags().StringVar(&presetFlag, "preset", "", "Preset override for the recovery pass; empty keeps the original")
	cmd.Flags().StringVar(&partialName, "partial", "", "Partial transcript name; defaults to the last run's output")
	cmd.Flags().StringVarP(&outputName, "output", "o", "", "Recovered transcript name; defaults to <partial>.recovered.txt")

	return cmd
}
