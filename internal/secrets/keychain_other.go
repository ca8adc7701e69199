//go:build !darwin

package secrets

func IsKeychainLockedError(string) bool { return false }

func loginKeychainPath() string { return "" }

func CheckKeychainLocked() bool { return false }

func UnlockKeychain() error { return nil }

func EnsureKeychainAccess() error { return nil }
