// Package walker collects local files for import as a multi-file paste.
package walker

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxFileSize is the largest file collected when no limit is set (256 KB).
const DefaultMaxFileSize int64 = 256 << 10

// sniffLen is how much of a file is inspected for NUL bytes.
const sniffLen = 512

// Reasons a file is left out.
const (
	SkipTooLarge  = "too large"
	SkipBinary    = "binary"
	SkipDuplicate = "duplicate"
	SkipLimit     = "file limit reached"
	SkipUnread    = "unreadable"
)

// File is one collected file.
type File struct {
	Path        string // Path on disk.
	RelPath     string // Slash-separated name used as the paste filename.
	Size        int64
	Content     string
	ContentHash string // SHA-256 hex digest of Content.
}

// Skipped records a file that matched the filters but was not collected.
type Skipped struct {
	RelPath string
	Reason  string
}

// Config controls what Collect picks up.
type Config struct {
	Include     []string // Glob patterns; only matching files are collected.
	Exclude     []string // Glob patterns; matching files are left out.
	MaxFileSize int64    // Files larger than this are skipped (0 = use default).
	MaxFiles    int      // Stop after this many files (0 = no limit).
}

// Result is the outcome of a Collect call, files in walk order.
type Result struct {
	Files   []File
	Skipped []Skipped
}

// Collect gathers files from paths. A directory is walked recursively,
// honouring its .gitignore and the include/exclude patterns; a file named
// directly is collected under its base name without pattern checks.
// Files whose content repeats an earlier one are skipped.
func Collect(cfg Config, paths ...string) (*Result, error) {
	c := &collector{
		cfg:  cfg,
		seen: make(map[string]bool),
		res:  &Result{},
	}
	if c.cfg.MaxFileSize <= 0 {
		c.cfg.MaxFileSize = DefaultMaxFileSize
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("walker: %w", err)
		}
		if info.IsDir() {
			if err := c.walk(p); err != nil {
				return nil, err
			}
			continue
		}
		c.add(p, filepath.Base(p), info.Size())
	}
	return c.res, nil
}

type collector struct {
	cfg  Config
	seen map[string]bool
	res  *Result
}

func (c *collector) walk(dir string) error {
	root, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("walker: resolve root: %w", err)
	}
	ignore := loadGitignore(filepath.Join(root, ".gitignore"))

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}
		if d.IsDir() {
			if path != root && shouldExcludeDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if matchesGitignore(relPath, ignore) {
			return nil
		}
		if !MatchesInclude(relPath, c.cfg.Include) || MatchesExclude(relPath, c.cfg.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			c.skip(relPath, SkipUnread)
			return nil
		}
		c.add(path, relPath, info.Size())
		return nil
	})
	if err != nil {
		return fmt.Errorf("walker: traversal: %w", err)
	}
	return nil
}

func (c *collector) add(path, relPath string, size int64) {
	if c.cfg.MaxFiles > 0 && len(c.res.Files) >= c.cfg.MaxFiles {
		c.skip(relPath, SkipLimit)
		return
	}
	if size > c.cfg.MaxFileSize {
		c.skip(relPath, SkipTooLarge)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.skip(relPath, SkipUnread)
		return
	}
	if isBinary(data) {
		c.skip(relPath, SkipBinary)
		return
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	if c.seen[hash] {
		c.skip(relPath, SkipDuplicate)
		return
	}
	c.seen[hash] = true

	c.res.Files = append(c.res.Files, File{
		Path:        path,
		RelPath:     relPath,
		Size:        int64(len(data)),
		Content:     string(data),
		ContentHash: hash,
	})
}

func (c *collector) skip(relPath, reason string) {
	c.res.Skipped = append(c.res.Skipped, Skipped{RelPath: relPath, Reason: reason})
}

// isBinary checks the head of data for NUL bytes.
func isBinary(data []byte) bool {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

// loadGitignore reads a .gitignore file and returns its non-empty,
// non-comment lines as patterns.
func loadGitignore(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}
