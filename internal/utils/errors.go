package utils

import (
	"errors"
	"strings"
)

// IsRecoverableError reports whether err, or any error it wraps, signals a
// condition worth retrying by the caller.
func IsRecoverableError(err error) bool {
	recoverableErrors := []string{
		"model API returned status",
	}

	for ; err != nil; err = errors.Unwrap(err) {
		for _, recoverable := range recoverableErrors {
			if strings.HasPrefix(err.Error(), recoverable) {
				return true
			}
		}
	}
	return false
}
