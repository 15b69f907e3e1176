package whisper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindVADModelPrefersFirstCandidate(t *testing.T) {
	t.Parallel()

	primary := t.TempDir()
	secondary := t.TempDir()
	installed := filepath.Join(secondary, DefaultVADModel().FileName)
	require.NoError(t, os.WriteFile(installed, []byte("model"), 0o644))

	require.Equal(t, installed, FindVADModel(primary, secondary))
}

func TestFindVADModelMissing(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", FindVADModel(t.TempDir(), ""))
	require.Equal(t, "", FindVADModel())
}

func TestFindVADModelIgnoresDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, DefaultVADModel().FileName), 0o755))
	require.Equal(t, "", FindVADModel(dir))
}

func TestLookupVADModel(t *testing.T) {
	t.Parallel()

	model, ok := LookupVADModel(DefaultVADModel().Name)
	require.True(t, ok)
	require.NotEmpty(t, model.URL)
	require.NotEmpty(t, model.FileName)

	_, ok = LookupVADModel("nope")
	require.False(t, ok)

	require.NotEmpty(t, VADModelNames())
}

func TestRegistryModelsCarryChecksumSource(t *testing.T) {
	t.Parallel()

	for _, name := range VADModelNames() {
		model, ok := LookupVADModel(name)
		require.True(t, ok)
		if model.SHA256 != "" {
			require.Len(t, model.SHA256, 64)
			continue
		}
		require.NotEmpty(t, model.SHA256URL, "model %s needs a digest or a digest source", name)
	}
}
