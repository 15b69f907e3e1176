package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yujirofunabashi/whisper-workflow/internal/plan"
	"github.com/yujirofunabashi/whisper-workflow/internal/supervisor"
)

func newRunCmd(app *appState) *cobra.Command {
	var (
		presetFlag     string
		priorityFlag   string
		modeFlag       string
		outputName     string
		jobs           int
		segmentSeconds int
		useVAD         bool
		autoCorrection bool
		forceCPU       bool
		skipPreflight  bool
	)

	cmd := &cobra.Command{
		Use:   "run <input>",
		Short: "Diagnose and transcribe an audio file, watching until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve input path: %w", err)
			}

			if presetFlag != "" && !plan.ValidPreset(presetFlag) {
				return fmt.Errorf("unknown preset %q (x1|x4|x8|x16)", presetFlag)
			}
			priority := plan.NormalizePriority(priorityFlag)

			req := supervisor.StartRequest{
				Preset:         plan.Preset(presetFlag),
				Priority:       priority,
				OutputName:     outputName,
				UseVAD:         useVAD,
				AutoCorrection: autoCorrection,
				ForceCPU:       forceCPU,
			}
			switch modeFlag {
			case "auto":
				req.ModeStrategy = plan.StrategyAuto
			case "single-pass":
				req.ModeStrategy = plan.StrategyCustom
				req.CustomMode = plan.ModeSinglePass
			case "segmented":
				req.ModeStrategy = plan.StrategyCustom
				req.CustomMode = plan.ModeSegmented
				req.CustomJobs = jobs
				req.CustomSegmentSeconds = segmentSeconds
			default:
				return fmt.Errorf("unknown mode %q (auto|single-pass|segmented)", modeFlag)
			}

			if skipPreflight {
				if err := app.sup.SkipDiagnosis(input, priority); err != nil {
					return err
				}
			} else {
				stop := startSpinner(app.progressEnabled(), "diagnosing input")
				err := app.sup.Diagnose(cmd.Context(), input, priority)
				stop()
				if err != nil {
					return err
				}
				app.printDiagnosis()
			}

			if err := app.sup.Start(req); err != nil {
				return err
			}
			return app.watchRun(cmd)
		},
	}

	cmd.Flags().StringVar(&presetFlag, "preset", "", "Preset tier (x1|x4|x8|x16); empty adopts the diagnosis recommendation")
	cmd.Flags().StringVar(&priorityFlag, "priority", "balanced", "Planning bias: accuracy|balanced|speed")
	cmd.Flags().StringVar(&modeFlag, "mode", "auto", "Execution mode: auto|single-pass|segmented")
	cmd.Flags().StringVarP(&outputName, "output", "o", "", "Output transcript name or absolute path")
	cmd.Flags().IntVar(&jobs, "jobs", 4, "Parallel jobs for segmented mode (1-8)")
	cmd.Flags().IntVar(&segmentSeconds, "segment-time", 120, "Segment length in seconds for segmented mode (30-600)")
	cmd.Flags().BoolVar(&useVAD, "vad", false, "Enable voice-activity detection (single-pass only)")
	cmd.Flags().BoolVar(&autoCorrection, "auto-correction", false, "Apply corrections suggested by the diagnosis (e.g. loudnorm)")
	cmd.Flags().BoolVar(&forceCPU, "force-cpu", false, "Run whisper on the CPU even when a GPU backend is available")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start without diagnosing the input")

	return cmd
}

func (a *appState) printDiagnosis() {
	out := a.outWriter()
	snap := a.sup.Snapshot()

	if snap.PreflightSkipped {
		fmt.Fprintln(out, "Preflight: skipped")
		if snap.PreflightError != "" {
			fmt.Fprintf(out, "  (%s)\n", snap.PreflightError)
		}
		return
	}

	result := snap.PreflightResult
	if result == nil {
		return
	}

	fmt.Fprintf(out, "Preflight verdict: %s\n", result.Verdict)
	if result.Input.DurationSec > 0 {
		fmt.Fprintf(out, "  duration: %.0fs  container: %s  codec: %s\n",
			result.Input.DurationSec, result.Input.Container, result.Input.Codec)
	}
	if result.RecommendedPreset != "" {
		fmt.Fprintf(out, "  recommended preset: %s\n", result.RecommendedPreset)
	}
	if len(result.Corrections) > 0 {
		fmt.Fprintf(out, "  suggested corrections: %s\n", strings.Join(result.Corrections, ", "))
	}
	if len(result.Reasons) > 0 {
		fmt.Fprintf(out, "  notes: %s\n", strings.Join(result.Reasons, " / "))
	}
}
