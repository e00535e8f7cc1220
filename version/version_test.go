package version

import "testing"

func TestGet(t *testing.T) {
	info := Get()
	if info.Version == "" {
		t.Error("expected non-empty version")
	}
}

func TestString(t *testing.T) {
	i := Info{Version: "1.2.3", GitCommit: "abc123"}
	if got := i.String(); got != "1.2.3 (abc123)" {
		t.Errorf("unexpected string: %q", got)
	}
	i.GitCommit = ""
	if got := i.String(); got != "1.2.3" {
		t.Errorf("unexpected string: %q", got)
	}
}
