//go:build darwin

package secrets

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// IsKeychainLockedError reports whether errStr is the Security framework's
// "interaction not allowed" failure, which a locked keychain produces.
func IsKeychainLockedError(errStr string) bool {
	return isLockedMessage(errStr)
}

func loginKeychainPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "~"
	}
	return filepath.Join(home, "Library", "Keychains", "login.keychain-db")
}

// CheckKeychainLocked reports whether the login keychain is locked.
func CheckKeychainLocked() bool {
	cmd := exec.Command("security", "show-keychain-info", loginKeychainPath())
	return cmd.Run() != nil
}

// UnlockKeychain prompts for the login password via the security tool.
func UnlockKeychain() error {
	cmd := exec.Command("security", "unlock-keychain", loginKeychainPath())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("unlock keychain: %w", err)
	}
	return nil
}

// EnsureKeychainAccess unlocks the login keychain when it is locked.
func EnsureKeychainAccess() error {
	if !CheckKeychainLocked() {
		return nil
	}
	fmt.Fprintln(os.Stderr, "Your login keychain is locked.")
	return UnlockKeychain()
}
