package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yujirofunabashi/whisper-workflow/internal/state"
)

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// watchRun polls the run until it reaches a terminal state, rendering a
// segment progress bar where counts are available and forwarding Ctrl-C as
// a cancel request.
func (a *appState) watchRun(cmd *cobra.Command) error {
	out := a.outWriter()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	interactive := a.progressEnabled()
	var bar *progressbar.ProgressBar
	finishBar := func() {
		if bar != nil {
			_ = bar.Finish()
			bar = nil
		}
	}

	var lastMessage string
	ticker := time.NewTicker(a.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			fmt.Fprintln(out, "cancel requested, waiting for the run to stop...")
			if err := a.sup.Cancel(); err != nil && !errors.Is(err, state.ErrNoActiveRun) {
				return err
			}

		case <-ticker.C:
			snap := a.sup.Snapshot()

			switch snap.Status {
			case state.StatusRunning:
				if interactive && snap.SegmentsTotal > 0 {
					if bar == nil {
						bar = progressbar.NewOptions(
							snap.SegmentsTotal,
							progressbar.OptionSetDescription("transcribing"),
							progressbar.OptionSetWriter(os.Stderr),
							progressbar.OptionShowCount(),
							progressbar.OptionSetWidth(20),
							progressbar.OptionThrottle(65*time.Millisecond),
							progressbar.OptionClearOnFinish(),
						)
					}
					_ = bar.Set(snap.SegmentsCompleted)
				} else if !interactive && snap.Message != lastMessage {
					lastMessage = snap.Message
					fmt.Fprintln(out, snap.Message)
				}

			case state.StatusCompleted:
				finishBar()
				fmt.Fprintln(out, snap.Message)
				fmt.Fprintf(out, "Output: %s\n", snap.OutputPath)
				return nil

			case state.StatusCanceled:
				finishBar()
				return errors.New("run canceled")

			case state.StatusFailed:
				finishBar()
				fmt.Fprintf(out, "Reason: %s\n", snap.FailureReason)
				fmt.Fprintf(out, "Suggested action: %s\n", snap.FailureAction)
				fmt.Fprintf(out, "Log: %s\n", snap.LogPath)
				return errors.New(snap.Message)

			default:
				return errors.New("no active run to watch")
			}
		}
	}
}
