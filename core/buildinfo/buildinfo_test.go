package buildinfo

import "testing"

func TestInfoString(t *testing.T) {
	i := Info{Version: "v1.0.0", Commit: "0123456789abcdef", Date: "2026-01-02T03:04:05Z", Dirty: true}.withDefaults()
	want := "v1.0.0 (commit 0123456789ab, modified, built 2026-01-02T03:04:05Z)"
	if got := i.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if got := (Info{Version: "dev"}).withDefaults().String(); got != "dev (commit local)" {
		t.Fatalf("defaults = %q", got)
	}
}

func TestReadKeepsLinkerValues(t *testing.T) {
	Version, Commit = "v9", "abc"
	t.Cleanup(func() { Version, Commit = "dev", "" })
	i := Read()
	if i.Version != "v9" || i.Commit != "abc" {
		t.Fatalf("Read() = %+v", i)
	}
}
