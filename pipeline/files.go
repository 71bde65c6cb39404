package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
)

// ListFiles resolves the include globs below root, drops exclude matches,
// and returns the surviving paths relative to root, slash-separated and
// sorted. Sorting fixes the merge order, so reports come out the same no
// matter how workers interleave.
func ListFiles(root string, include, exclude []string) ([]string, error) {
	if len(include) == 0 {
		include = []string{"**/*.ttl"}
	}

	seen := make(map[string]bool)
	var files []string
	for _, pattern := range include {
		matches, err := doublestar.FilepathGlob(filepath.Join(root, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}
			rel, err := filepath.Rel(root, match)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if seen[rel] || excluded(rel, exclude) {
				continue
			}
			seen[rel] = true
			files = append(files, rel)
		}
	}
	sort.Strings(files)
	return files, nil
}

func excluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// ReadCandidate reads a candidate file, classifying failures as unreadable.
func ReadCandidate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadableFile, path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s: not valid UTF-8", ErrUnreadableFile, path)
	}
	return string(data), nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place, so a crash mid-write never leaves a half-rewritten file. A
// failed attempt is retried once.
func WriteFileAtomic(path string, data []byte) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if lastErr = writeFileOnce(path, data); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrWriteFailed, path, lastErr)
}

func writeFileOnce(path string, data []byte) error {
	tmpPath := fmt.Sprintf("%s.tmp.%s", path, uuid.NewString()[:8])
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// ContentHash computes a SHA256 hash of the content.
func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
