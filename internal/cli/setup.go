package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yujirofunabashi/whisper-workflow/internal/download"
	"github.com/yujirofunabashi/whisper-workflow/internal/whisper"
)

func newSetupCmd(app *appState) *cobra.Command {
	var modelName string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Download the VAD model assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			model := whisper.DefaultVADModel()
			if modelName != "" {
				found, ok := whisper.LookupVADModel(modelName)
				if !ok {
					return fmt.Errorf("unknown VAD model %q (known: %s)",
						modelName, strings.Join(whisper.VADModelNames(), ", "))
				}
				model = found
			}

			dest := filepath.Join(app.cfg.VADModelDir(), model.FileName)

			expected := model.SHA256
			if expected == "" && model.SHA256URL != "" {
				resolved, err := download.ResolveExpectedChecksum(
					cmd.Context(), model.SHA256URL, model.FileName, nil)
				if err != nil {
					return fmt.Errorf("resolve checksum for %s: %w", model.Name, err)
				}
				expected = resolved
			}

			if info, err := os.Stat(dest); err == nil && !info.IsDir() {
				if err := download.VerifyFileChecksum(dest, expected); err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "VAD model %s already present at %s\n", model.Name, dest)
					return nil
				}
				app.log().Warn("existing VAD model fails verification; downloading again",
					zap.String("model", model.Name), zap.String("path", dest))
			}

			app.log().Info("downloading VAD model",
				zap.String("model", model.Name), zap.String("path", dest))
			if err := download.DownloadFile(cmd.Context(), download.Options{
				URL:            model.URL,
				Destination:    dest,
				ExpectedSHA256: expected,
				NoProgress:     app.noProgress,
				Logger:         app.log(),
			}); err != nil {
				return fmt.Errorf("download VAD model %s: %w", model.Name, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "VAD model %s installed at %s\n", model.Name, dest)
			return nil
		},
	}

	cmd.Flags().StringVar(&modelName, "vad-model", "", "VAD model name; defaults to the newest known model")

	return cmd
}
