package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	Version, Commit, Date = "v1.2.3", "abc123", "2025-01-01"
	t.Cleanup(func() { Version, Commit, Date = "dev", "none", "unknown" })

	got := Template()
	for _, want := range []string{"version v1.2.3", "commit: abc123", "built: 2025-01-01"} {
		if !strings.Contains(got, want) {
			t.Errorf("Template() = %q, want it to contain %q", got, want)
		}
	}
	if got := UserAgent(); got != "strata/v1.2.3" {
		t.Errorf("UserAgent() = %q, want %q", got, "strata/v1.2.3")
	}
}
