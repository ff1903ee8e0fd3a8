package walker

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes are directory names never descended into.
var DefaultExcludes = []string{
	".git",
	".hg",
	".svn",
	"node_modules",
	"vendor",
	"__pycache__",
	".pastemark",
	".venv",
	".idea",
	".vscode",
}

// shouldExcludeDir checks whether a directory name matches any default
// exclusion. This is used during traversal to skip entire subtrees.
func shouldExcludeDir(name string) bool {
	for _, excl := range DefaultExcludes {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

// MatchesInclude returns true if the given slash-separated relative path
// matches any of the include patterns. If patterns is empty, everything
// is included.
func MatchesInclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	return matchesAny(relPath, patterns)
}

// MatchesExclude returns true if the given relative path matches any of the
// exclude patterns. If patterns is empty, nothing is excluded.
func MatchesExclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	return matchesAny(relPath, patterns)
}

// matchesAny checks relPath, then its base name, against each pattern.
func matchesAny(relPath string, patterns []string) bool {
	base := path.Base(relPath)
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}

// matchesGitignore checks relPath against .gitignore patterns. A pattern
// without a slash matches any path component; one with a slash is anchored
// at the root. A trailing slash limits the pattern to directories.
func matchesGitignore(relPath string, patterns []string) bool {
	parts := strings.Split(relPath, "/")
	dirs := parts[:len(parts)-1]

	for _, pattern := range patterns {
		dirOnly := strings.HasSuffix(pattern, "/")
		pattern = strings.TrimSuffix(pattern, "/")

		if strings.Contains(pattern, "/") {
			pattern = strings.TrimPrefix(pattern, "/")
			if !dirOnly {
				if matched, _ := doublestar.Match(pattern, relPath); matched {
					return true
				}
			}
			if matched, _ := doublestar.Match(pattern+"/**", relPath); matched {
				return true
			}
			continue
		}

		candidates := parts
		if dirOnly {
			candidates = dirs
		}
		for _, part := range candidates {
			if matched, _ := doublestar.Match(pattern, part); matched {
				return true
			}
		}
	}
	return false
}
