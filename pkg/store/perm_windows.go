//go:build windows

package store

import "go.uber.org/zap"

// setSecurePermissions is a no-op on Windows: there are no POSIX permission
// bits, and the default user-profile ACL already scopes access to the
// owner.
func setSecurePermissions(path string, log *zap.Logger) {
	log.Debug("skipping permission hardening", zap.String("path", path))
}

// checkFilePermissions always reports acceptable permissions on Windows;
// ACLs are not inspected.
func checkFilePermissions(string) bool {
	return true
}
