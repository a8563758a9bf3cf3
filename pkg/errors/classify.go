package errors

import (
	"errors"
	"io/fs"
	"syscall"
)

//nolint:gochecknoglobals // Shared read-only fallback matcher
var defaultMatcher = NewPatternMatcher()

// Classify returns the category of err. Typed errors are inspected first
// (errors.Is against fs sentinels and errno values); the message patterns are
// only consulted when nothing typed matches.
func Classify(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}

	var actionable ActionableError
	if errors.As(err, &actionable) {
		return actionable.Category()
	}

	switch {
	case errors.Is(err, syscall.EBUSY),
		errors.Is(err, syscall.ETXTBSY),
		errors.Is(err, syscall.EAGAIN):
		return CategoryLocked
	case errors.Is(err, fs.ErrPermission):
		return CategoryPermission
	case errors.Is(err, syscall.ENOSPC),
		errors.Is(err, syscall.EDQUOT):
		return CategoryDiskSpace
	case errors.Is(err, fs.ErrNotExist),
		errors.Is(err, syscall.ENOTDIR),
		errors.Is(err, syscall.ENAMETOOLONG):
		return CategoryPath
	case errors.Is(err, syscall.EIO),
		errors.Is(err, syscall.EXDEV):
		return CategoryCopy
	}

	return defaultMatcher.Match(err.Error())
}

// IsRetryable reports whether err is a permission or lock failure, the only
// class the backup engine retries.
func IsRetryable(err error) bool {
	return err != nil && Classify(err).Retryable()
}
