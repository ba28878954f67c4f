// Package filesystem writes exported QR code images to disk.
package filesystem

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/qrforge/qrforge/internal/config"
)

// ErrEmptyName is returned when a file name sanitises to nothing.
var ErrEmptyName = errors.New("filesystem: empty file name")

// ExportDir returns dir, or the configured exports directory when dir is empty.
func ExportDir(dir string) string {
	if dir == "" {
		return config.GetExportsDir()
	}
	return dir
}

// SaveExport writes data to <dir>/<name><ext>, creating dir as needed, and
// returns the file path and its SHA-256 hash. An existing file is replaced.
func SaveExport(dir, name, ext string, data []byte) (string, string, error) {
	filename := SanitizeName(name)
	if filename == "" {
		return "", "", ErrEmptyName
	}

	dir = ExportDir(dir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", "", err
	}

	filePath := filepath.Join(dir, filename+ext)
	if err := os.WriteFile(filePath, data, 0o600); err != nil {
		return "", "", err
	}

	return filePath, calculateHash(data), nil
}

// readFile reads a file from disk.
func readFile(path string) ([]byte, error) {
	//nolint:gosec // G304: path is produced by SaveExport or given by the user
	return os.ReadFile(path)
}

// DeleteFile removes a file if it exists.
func DeleteFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.Remove(path)
}

// FileExists reports whether the given path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// VerifyFile ensures the file exists and its SHA-256 hash matches the expected hash.
func VerifyFile(path, expectedHash string) (bool, error) {
	if !FileExists(path) {
		return false, nil
	}

	content, err := readFile(path)
	if err != nil {
		return false, err
	}

	return calculateHash(content) == expectedHash, nil
}

// SanitizeName makes a record name usable as a file name: path separators
// and characters rejected by common filesystems become '-', and surrounding
// whitespace and dots are trimmed.
func SanitizeName(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-",
		"\"", "-", "<", "-", ">", "-", "|", "-",
	)
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, replacer.Replace(name))
	return strings.Trim(strings.TrimSpace(cleaned), ".")
}

func calculateHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
