//go:build !windows

package store

import (
	"os"

	"go.uber.org/zap"
)

// setSecurePermissions applies owner-only read/write to path. Failures are
// logged, never raised: permission hardening is best-effort.
func setSecurePermissions(path string, log *zap.Logger) {
	if err := os.Chmod(path, FileMode); err != nil {
		log.Warn("could not set secure permissions",
			zap.String("path", path), zap.Error(err))
	}
}

// checkFilePermissions reports whether path is inaccessible to group and
// others. A missing or unstattable file counts as acceptable.
func checkFilePermissions(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	return info.Mode().Perm()&0o066 == 0
}
