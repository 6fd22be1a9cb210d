package conda

// BackendKind identifies which executable family was detected.
type BackendKind string

const (
	BackendConda BackendKind = "conda"
	BackendMamba BackendKind = "mamba"
)

// BackendInfo describes the detected Conda/Mamba installation.
// It is resolved once per session and treated as immutable afterwards.
type BackendInfo struct {
	Kind       BackendKind
	Executable string
	Version    string
	BasePrefix string
}

// Environment represents a single Conda/Mamba environment.
type Environment struct {
	Name      string
	Path      string
	IsActive  bool
	Stale     bool  // path no longer exists on disk at listing time
	SizeBytes int64 // 0 until computed lazily; see janitor.EnvSize
}

// PackageSource distinguishes conda-managed packages from pip-installed ones.
type PackageSource string

const (
	SourceConda PackageSource = "conda"
	SourcePip   PackageSource = "pip"
)

// Package is a read-only snapshot of one installed package as reported
// by the backend. It is never mutated locally.
type Package struct {
	Name        string
	Version     string
	BuildString string
	Channel     string
	Source      PackageSource
}

// DiskUsageReport aggregates byte counts for Conda data on disk.
type DiskUsageReport struct {
	PkgsCache int64
	Envs      int64
	Total     int64
}

// ChannelConfig holds the backend's global channel ordering and the
// channel_priority mode ("strict" or "flexible").
type ChannelConfig struct {
	Channels     []string
	PriorityMode string
}
