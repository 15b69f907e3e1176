package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseChecksumPrefersNamedLine(t *testing.T) {
	t.Parallel()

	content := strings.Join([]string{
		strings.Repeat("a", 64) + "  other-model.bin",
		strings.Repeat("b", 64) + "  ggml-silero-v5.1.2.bin",
	}, "\n")

	require.Equal(t, strings.Repeat("b", 64), ParseChecksum(content, "ggml-silero-v5.1.2.bin"))
	require.Equal(t, strings.Repeat("a", 64), ParseChecksum(content, "unlisted.bin"))
	require.Equal(t, "", ParseChecksum("no digests here\n", "model.bin"))
}

func TestParseChecksumReadsLFSPointer(t *testing.T) {
	t.Parallel()

	digest := strings.Repeat("c", 64)
	pointer := "version https://git-lfs.github.com/spec/v1\n" +
		"oid sha256:" + digest + "\n" +
		"size 885104\n"

	require.Equal(t, digest, ParseChecksum(pointer, "ggml-silero-v5.1.2.bin"))
}

func TestResolveExpectedChecksum(t *testing.T) {
	t.Parallel()

	digest := strings.Repeat("d", 64)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s  model.bin\n", digest)
	}))
	defer server.Close()

	sum, err := ResolveExpectedChecksum(context.Background(), server.URL, "model.bin", nil)
	require.NoError(t, err)
	require.Equal(t, digest, sum)

	_, err = ResolveExpectedChecksum(context.Background(), server.URL, "", nil)
	require.NoError(t, err)

	_, err = ResolveExpectedChecksum(context.Background(), "", "model.bin", nil)
	require.ErrorContains(t, err, "checksum URL")
}

func TestResolveExpectedChecksumServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := ResolveExpectedChecksum(context.Background(), server.URL, "model.bin", nil)
	require.ErrorContains(t, err, "unexpected status code")
}

func TestDownloadFileWithChecksumURL(t *testing.T) {
	t.Parallel()

	payload := []byte("verified-model")
	sum := sha256.Sum256(payload)

	mux := http.NewServeMux()
	mux.HandleFunc("/model.bin", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	})
	mux.HandleFunc("/checksums.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s  model.bin\n", hex.EncodeToString(sum[:]))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	destination := filepath.Join(t.TempDir(), "model.bin")
	err := DownloadFile(context.Background(), Options{
		URL:         server.URL + "/model.bin",
		Destination: destination,
		ChecksumURL: server.URL + "/checksums.txt",
		NoProgress:  true,
		Retries:     1,
	})
	require.NoError(t, err)

	onDisk, err := os.ReadFile(destination)
	require.NoError(t, err)
	require.Equal(t, payload, onDisk)
}

func TestDownloadFileChecksumURLMismatch(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/model.bin", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tampered"))
	})
	mux.HandleFunc("/checksums.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s  model.bin\n", strings.Repeat("e", 64))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	destination := filepath.Join(t.TempDir(), "model.bin")
	err := DownloadFile(context.Background(), Options{
		URL:         server.URL + "/model.bin",
		Destination: destination,
		ChecksumURL: server.URL + "/checksums.txt",
		NoProgress:  true,
		Retries:     1,
	})
	require.ErrorContains(t, err, "checksum mismatch")
	require.NoFileExists(t, destination)
}
