package commands

import (
	"crypto/md5" //nolint:gosec // Glance and Swift report MD5 checksums
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fivetwenty-io/ostack/internal/constants"
)

// verifyMD5 compares data with an expected hex MD5. An empty expectation
// skips the check.
func verifyMD5(data []byte, expected string) error {
	expected = strings.ToLower(strings.Trim(expected, `"`))
	if expected == "" {
		return nil
	}

	sum := md5.Sum(data) //nolint:gosec // integrity check, not security
	actual := hex.EncodeToString(sum[:])

	if actual != expected {
		return fmt.Errorf("%w: expected %s, got %s", constants.ErrChecksumMismatch, expected, actual)
	}

	return nil
}

// readInput reads path, or stdin when path is "-".
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return data, nil
}

// writeOutput writes data to path, or to stdout when path is "" or "-".
func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)

		return err
	}

	err := os.WriteFile(path, data, 0o644) //nolint:gosec // downloads are ordinary user files
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
