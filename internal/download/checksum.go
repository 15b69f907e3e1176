package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// sha256Hex matches a bare sha256 digest inside a checksum document line.
var sha256Hex = regexp.MustCompile(`(?i)\b([a-f0-9]{64})\b`)

// ResolveExpectedChecksum fetches checksumURL and extracts the sha256 digest
// for fileName from its body.
func ResolveExpectedChecksum(ctx context.Context, checksumURL, fileName string, client *http.Client) (string, error) {
	if checksumURL == "" {
		return "", errors.New("checksum URL is required")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checksumURL, nil)
	if err != nil {
		return "", fmt.Errorf("create checksum request: %w", err)
	}
	req.Header.Set("User-Agent", "whisperflow/1")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch checksum document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read checksum document: %w", err)
	}

	sum := ParseChecksum(string(body), fileName)
	if sum == "" {
		return "", fmt.Errorf("no sha256 for %s in checksum document", fileName)
	}
	return sum, nil
}

// ParseChecksum extracts the digest for fileName from a checksum document.
// A line naming the file wins; otherwise the first digest in the document is
// taken, which covers single-file documents and git-lfs pointers
// ("oid sha256:<hex>").
func ParseChecksum(content, fileName string) string {
	var fallback string
	for _, line := range strings.Split(content, "\n") {
		m := sha256Hex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if fileName != "" && strings.Contains(line, fileName) {
			return strings.ToLower(m[1])
		}
		if fallback == "" {
			fallback = strings.ToLower(m[1])
		}
	}
	return fallback
}
