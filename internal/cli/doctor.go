package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDoctorCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that every external dependency is installed",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			out := app.outWriter()
			fmt.Fprintf(out, "Cache dir:      %s\n", app.cfg.CacheDir)
			fmt.Fprintf(out, "Outputs dir:    %s\n", app.cfg.OutputsDir)
			fmt.Fprintf(out, "Transcribe exe: %s\n", app.cfg.TranscribeExe)
			fmt.Fprintf(out, "Preflight exe:  %s\n", app.cfg.PreflightExe)
			fmt.Fprintf(out, "Recovery exe:   %s\n", app.cfg.RecoveryExe)

			missing := app.checker.Missing()
			if len(missing) == 0 {
				fmt.Fprintln(out, "All dependencies present.")
				return nil
			}

			for _, name := range missing {
				fmt.Fprintf(out, "missing: %s\n", name)
			}
			return fmt.Errorf("%d missing dependencies", len(missing))
		},
	}
}
