package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestFull(t *testing.T) {
	got := Full()
	if !strings.Contains(got, Version) || !strings.Contains(got, Commit) {
		t.Errorf("Full() = %q, want version and commit", got)
	}
}

func TestUserAgent(t *testing.T) {
	got := UserAgent()
	if !strings.HasPrefix(got, "bootmaster/") {
		t.Errorf("UserAgent() = %q, want bootmaster/ prefix", got)
	}
	if !strings.Contains(got, runtime.GOOS) {
		t.Errorf("UserAgent() = %q, want GOOS", got)
	}
}

func TestDefaultsPopulated(t *testing.T) {
	if Version == "" {
		t.Error("Version should never be empty after init")
	}
	if Commit == "" {
		t.Error("Commit should never be empty after init")
	}
}
