package version

import (
	"strings"
	"testing"
)

func saveAndRestore() func() {
	origVersion, origCommit := Version, GitCommit
	return func() {
		Version = origVersion
		GitCommit = origCommit
	}
}

func TestUserAgent(t *testing.T) {
	defer saveAndRestore()()
	Version = "1.4.0"

	if got := UserAgent(); got != "payclient/1.4.0" {
		t.Errorf("expected payclient/1.4.0, got %q", got)
	}
}

func TestGetLinkTimeValues(t *testing.T) {
	defer saveAndRestore()()
	Version = "2.0.0"
	GitCommit = "abcdef1234567"

	info := Get()
	if info.Version != "2.0.0" {
		t.Errorf("expected version 2.0.0, got %q", info.Version)
	}
	if info.GitCommit != "abcdef1" {
		t.Errorf("expected commit truncated to 7 chars, got %q", info.GitCommit)
	}
}

func TestInfoShort(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.0.0", GitCommit: "abc1234"}, "1.0.0-abc1234"},
		{Info{Version: "1.0.0", GitCommit: "abc1234", IsDirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tt := range tests {
		if got := tt.info.Short(); got != tt.want {
			t.Errorf("Short() = %q, want %q", got, tt.want)
		}
	}
}

func TestUserAgentHasProductToken(t *testing.T) {
	if !strings.HasPrefix(UserAgent(), Product+"/") {
		t.Errorf("unexpected user agent %q", UserAgent())
	}
}
