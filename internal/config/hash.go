package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// ChecksumFileName is the manifest written next to the config file.
const ChecksumFileName = ".checksums"

// LockReport captures checksum generation details.
type LockReport struct {
	ChecksumPath string
	Written      bool
	Hashes       map[string]string
}

// ComputeBlake3Hash computes the BLAKE3 hash of a file.
func ComputeBlake3Hash(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// VerifyFileHash verifies a file against an expected BLAKE3 hash.
func VerifyFileHash(filePath, expectedHash string) error {
	actualHash, err := ComputeBlake3Hash(filePath)
	if err != nil {
		return fmt.Errorf("failed to compute hash: %w", err)
	}

	if actualHash != expectedHash {
		return fmt.Errorf("hash mismatch for %s: expected %s, got %s",
			filepath.Base(filePath), expectedHash, actualHash)
	}

	return nil
}

// Lock hashes files and writes the manifest into the directory of the first
// file. Manifest keys are base names. When dryRun is true nothing is written.
func Lock(files []string, dryRun bool) (*LockReport, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to lock")
	}

	dir := filepath.Dir(files[0])
	manifest := ChecksumManifest{
		Version:     1,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Hashes:      make(map[string]string, len(files)),
	}

	for _, path := range files {
		if filepath.Dir(path) != dir {
			return nil, fmt.Errorf("%s is not in %s", path, dir)
		}
		hash, err := ComputeBlake3Hash(path)
		if err != nil {
			return nil, fmt.Errorf("failed to hash %s: %w", filepath.Base(path), err)
		}
		manifest.Hashes[filepath.Base(path)] = hash
	}

	report := &LockReport{
		ChecksumPath: filepath.Join(dir, ChecksumFileName),
		Hashes:       manifest.Hashes,
	}
	if dryRun {
		return report, nil
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checksums: %w", err)
	}

	// Restrictive permissions: the manifest pins trusted content.
	if err := os.WriteFile(report.ChecksumPath, data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write checksums: %w", err)
	}
	report.Written = true

	return report, nil
}

// LoadChecksums reads the .checksums file from a config directory. A missing
// manifest yields an error wrapping os.ErrNotExist.
func LoadChecksums(configDir string) (*ChecksumManifest, error) {
	checksumPath := filepath.Join(configDir, ChecksumFileName)

	data, err := os.ReadFile(checksumPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read checksums: %w", err)
	}

	var manifest ChecksumManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse checksums: %w", err)
	}

	if manifest.Version != 1 {
		return nil, fmt.Errorf("unsupported checksums version: %d", manifest.Version)
	}

	return &manifest, nil
}

// VerifyFiles checks every file against the manifest. A file without an entry
// is a failure.
func VerifyFiles(manifest *ChecksumManifest, files []string) error {
	for _, path := range files {
		name := filepath.Base(path)
		expectedHash, ok := manifest.Hashes[name]
		if !ok {
			return fmt.Errorf("%s has no hash in checksums (run 'niftyapes-action config lock')", name)
		}

		if err := VerifyFileHash(path, expectedHash); err != nil {
			return fmt.Errorf("config verification failed: %w\n"+
				"If you edited this file intentionally, run: niftyapes-action config lock", err)
		}
	}

	return nil
}
