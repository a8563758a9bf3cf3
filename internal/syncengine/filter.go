package syncengine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileFilter defines the interface for filtering entries during a backup
type FileFilter interface {
	// ShouldInclude returns true if the entry at the given relative path should be backed up
	ShouldInclude(relativePath string) bool
}

// ExcludeFilter implements FileFilter using exclude glob patterns.
// A pattern containing "/" is matched against the whole relative path;
// any other pattern is matched against the entry's name alone, so "*.tmp"
// excludes temp files at every depth. Matching is case-insensitive.
type ExcludeFilter struct {
	pathPatterns []string
	namePatterns []string
}

// NewExcludeFilter validates and normalizes patterns. No patterns means
// nothing is excluded.
func NewExcludeFilter(patterns []string) (*ExcludeFilter, error) {
	filter := &ExcludeFilter{}

	for _, pattern := range patterns {
		normalized := strings.ToLower(filepath.ToSlash(strings.TrimSpace(pattern)))
		if normalized == "" {
			continue
		}

		if !doublestar.ValidatePattern(normalized) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}

		if strings.Contains(normalized, "/") {
			filter.pathPatterns = append(filter.pathPatterns, strings.TrimPrefix(normalized, "/"))
		} else {
			filter.namePatterns = append(filter.namePatterns, normalized)
		}
	}

	return filter, nil
}

// Excluded reports whether the entry at relativePath matches any pattern.
func (f *ExcludeFilter) Excluded(relativePath string) bool {
	if f == nil {
		return false
	}

	normalizedPath := strings.ToLower(filepath.ToSlash(relativePath))
	name := normalizedPath[strings.LastIndex(normalizedPath, "/")+1:]

	for _, pattern := range f.namePatterns {
		if matched, _ := doublestar.Match(pattern, name); matched {
			return true
		}
	}

	for _, pattern := range f.pathPatterns {
		if matched, _ := doublestar.Match(pattern, normalizedPath); matched {
			return true
		}
	}

	return false
}

// ShouldInclude returns true if the entry is not excluded.
func (f *ExcludeFilter) ShouldInclude(relativePath string) bool {
	return !f.Excluded(relativePath)
}
