package output

import (
	"strings"
	"testing"
	"time"

	"github.com/condanest/condanest/internal/conda"
	"github.com/condanest/condanest/internal/store"
)

func TestRenderEnvTable(t *testing.T) {
	envs := []*conda.Environment{
		{Name: "base", Path: "/opt/conda", IsActive: true, SizeBytes: 1 << 30},
		{Name: "ml", Path: "/opt/conda/envs/ml"},
		{Name: "gone", Path: "/opt/conda/envs/gone", Stale: true},
	}

	out := RenderEnvTable(envs)
	if !strings.Contains(out, "* base") {
		t.Error("active environment should be marked with *")
	}
	if !strings.Contains(out, "1.0 GiB") {
		t.Errorf("size not humanized:\n%s", out)
	}
	if !strings.Contains(out, "stale") {
		t.Error("stale environment not flagged")
	}
	if !strings.Contains(out, "/opt/conda/envs/ml") {
		t.Error("paths missing from table")
	}
}

func TestRenderEnvTable_Empty(t *testing.T) {
	if out := RenderEnvTable(nil); !strings.Contains(out, "No environments") {
		t.Errorf("empty table = %q", out)
	}
}

func TestRenderPackageTable(t *testing.T) {
	packages := []*conda.Package{
		{Name: "numpy", Version: "1.26.4", Channel: "conda-forge", Source: conda.SourceConda},
		{Name: "requests", Version: "2.31.0", Channel: "pypi", Source: conda.SourcePip},
	}

	out := RenderPackageTable(packages)
	for _, want := range []string{"numpy", "1.26.4", "conda-forge", "requests", "pypi"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderChannels(t *testing.T) {
	out := RenderChannels(&conda.ChannelConfig{
		Channels:     []string{"conda-forge", "defaults"},
		PriorityMode: conda.PriorityStrict,
	})
	if !strings.Contains(out, "strict") {
		t.Error("priority mode missing")
	}
	if !strings.Contains(out, "1. conda-forge") || !strings.Contains(out, "2. defaults") {
		t.Errorf("channel order missing:\n%s", out)
	}

	out = RenderChannels(&conda.ChannelConfig{PriorityMode: conda.PriorityFlexible})
	if !strings.Contains(out, "No channels configured") {
		t.Errorf("empty channel list = %q", out)
	}
}

func TestRenderDiskUsage(t *testing.T) {
	out := RenderDiskUsage(&conda.DiskUsageReport{PkgsCache: 512, Envs: 1024, Total: 1536})
	for _, want := range []string{"512 B", "1.0 KiB", "1.5 KiB"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderOperationTable(t *testing.T) {
	ops := []*store.Operation{
		{Kind: store.OpRename, EnvName: "ml", Status: store.StatusSucceeded, StartedAt: time.Now().Add(-2 * time.Hour)},
		{Kind: store.OpClean, Status: store.StatusFailed, Detail: "backend exited 1", StartedAt: time.Now()},
	}
	out := RenderOperationTable(ops)
	for _, want := range []string{"rename", "ml", "2h ago", "backend exited 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("journal table missing %q:\n%s", want, out)
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	cases := []struct {
		t    time.Time
		want string
	}{
		{time.Time{}, "never"},
		{time.Now().Add(-10 * time.Second), "just now"},
		{time.Now().Add(-5 * time.Minute), "5m ago"},
		{time.Now().Add(-3 * time.Hour), "3h ago"},
		{time.Now().Add(-49 * time.Hour), "2d ago"},
	}
	for _, c := range cases {
		if got := formatRelativeTime(c.t); got != c.want {
			t.Errorf("formatRelativeTime(%v) = %q, want %q", c.t, got, c.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short, 10) = %q", got)
	}
	if got := truncate("absolutely-too-long", 8); got != "absolut…" {
		t.Errorf("truncate = %q", got)
	}
}
