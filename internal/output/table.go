// Package output provides terminal output utilities for condanest.
//
// This package includes:
//   - Table rendering for environments, packages, channels, and the
//     operation journal
//   - A spinner for indeterminate operations
//   - Human-readable formatting for sizes and dates
//
// Tables use ASCII characters and ANSI color codes; color is gated on
// stdout being a TTY and NO_COLOR being unset.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/condanest/condanest/internal/conda"
	"github.com/condanest/condanest/internal/store"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func colorize(color, text string) string {
	if !IsColorEnabled() {
		return text
	}
	return color + text + colorReset
}

// RenderEnvTable renders environments with path, size and status markers.
// Active environments are marked with "*", stale ones flagged in red.
func RenderEnvTable(envs []*conda.Environment) string {
	if len(envs) == 0 {
		return "No environments found.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-22s %-9s %-8s %s\n", "Environment", "Size", "Status", "Path"))
	sb.WriteString(strings.Repeat("─", 78))
	sb.WriteString("\n")

	for _, env := range envs {
		name := env.Name
		if env.IsActive {
			name = "* " + name
		}

		size := "-"
		if env.SizeBytes > 0 {
			size = humanize.IBytes(uint64(env.SizeBytes))
		}

		status := colorize(colorGreen, "ok")
		if env.Stale {
			status = colorize(colorRed, "stale")
		}

		sb.WriteString(fmt.Sprintf("%-22s %-9s %-8s %s\n",
			truncate(name, 22), size, status, env.Path))
	}
	return sb.String()
}

// RenderPackageTable renders packages with version, channel and source.
// Pip-installed entries are dimmed to stand apart from conda-managed ones.
func RenderPackageTable(packages []*conda.Package) string {
	if len(packages) == 0 {
		return "No packages found.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-28s %-14s %-18s %-6s\n", "Package", "Version", "Channel", "Source"))
	sb.WriteString(strings.Repeat("─", 70))
	sb.WriteString("\n")

	for _, pkg := range packages {
		source := string(pkg.Source)
		if pkg.Source == conda.SourcePip {
			source = colorize(colorGray, source)
		}
		sb.WriteString(fmt.Sprintf("%-28s %-14s %-18s %-6s\n",
			truncate(pkg.Name, 28),
			truncate(pkg.Version, 14),
			truncate(pkg.Channel, 18),
			source))
	}
	return sb.String()
}

// RenderChannels renders the channel priority list, top first.
func RenderChannels(cfg *conda.ChannelConfig) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Channel priority mode: %s\n", cfg.PriorityMode))
	if len(cfg.Channels) == 0 {
		sb.WriteString("No channels configured.\n")
		return sb.String()
	}
	sb.WriteString("Channels (top = highest priority):\n")
	for i, ch := range cfg.Channels {
		sb.WriteString(fmt.Sprintf("  %2d. %s\n", i+1, ch))
	}
	return sb.String()
}

// RenderDiskUsage renders a disk usage report.
func RenderDiskUsage(report *conda.DiskUsageReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Package cache: %s\n", humanize.IBytes(uint64(report.PkgsCache))))
	sb.WriteString(fmt.Sprintf("Environments:  %s\n", humanize.IBytes(uint64(report.Envs))))
	sb.WriteString(fmt.Sprintf("Total:         %s\n", humanize.IBytes(uint64(report.Total))))
	return sb.String()
}

// RenderOperationTable renders the operation journal, newest first.
func RenderOperationTable(ops []*store.Operation) string {
	if len(ops) == 0 {
		return "No operations recorded.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-10s %-18s %-10s %-14s %s\n", "Operation", "Environment", "Status", "When", "Detail"))
	sb.WriteString(strings.Repeat("─", 76))
	sb.WriteString("\n")

	for _, op := range ops {
		status := op.Status
		switch op.Status {
		case store.StatusSucceeded:
			status = colorize(colorGreen, status)
		case store.StatusFailed:
			status = colorize(colorRed, status)
		case store.StatusRunning:
			status = colorize(colorYellow, status)
		}
		sb.WriteString(fmt.Sprintf("%-10s %-18s %-10s %-14s %s\n",
			op.Kind,
			truncate(op.EnvName, 18),
			status,
			formatRelativeTime(op.StartedAt),
			truncate(op.Detail, 40)))
	}
	return sb.String()
}

// formatRelativeTime renders t relative to now ("3d ago", "just now").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// truncate shortens s to maxLen runes, appending "…" when cut.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
