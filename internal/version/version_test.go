package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	t.Run("custom values", func(t *testing.T) {
		origVersion, origCommit := Version, Commit
		defer func() {
			Version, Commit = origVersion, origCommit
		}()

		Version = "1.2.3"
		Commit = "abc1234"

		result := String()

		if !strings.HasPrefix(result, "partyclient 1.2.3 (abc1234, ") {
			t.Errorf("String() = %q, want prefix %q", result, "partyclient 1.2.3 (abc1234, ")
		}
	})

	t.Run("default values", func(t *testing.T) {
		origVersion := Version
		defer func() { Version = origVersion }()

		Version = "dev"

		if result := String(); !strings.Contains(result, "dev") {
			t.Errorf("String() = %q, should contain 'dev'", result)
		}
	})
}

func TestUserAgent(t *testing.T) {
	origVersion := Version
	defer func() { Version = origVersion }()

	Version = "0.4.0"
	if got := UserAgent(); got != "partyclient/0.4.0" {
		t.Errorf("UserAgent() = %q, want %q", got, "partyclient/0.4.0")
	}
}
