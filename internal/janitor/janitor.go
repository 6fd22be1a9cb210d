// Package janitor estimates and reclaims disk space used by Conda data.
//
// The estimate step is strictly read-only: it asks the backend for a
// dry-run report and falls back to summing directory sizes when the
// backend output cannot be parsed. The destructive clean step refuses to
// run until an estimate has been produced in the same session, so a user
// always sees what would be reclaimed before anything is deleted.
package janitor

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/condanest/condanest/internal/conda"
	"github.com/condanest/condanest/internal/store"
)

// ErrEstimateRequired is returned by Clean when no estimate has been shown
// in this session.
var ErrEstimateRequired = errors.New("run a disk usage estimate before cleaning")

// Janitor provides disk usage estimation and cache cleanup.
type Janitor struct {
	client *conda.Client
	store  *store.Store
	log    zerolog.Logger

	mu        sync.Mutex
	estimated bool
}

// New creates a Janitor. store may be nil in tests that exercise only the
// estimation path; the journal is then skipped.
func New(client *conda.Client, st *store.Store, log zerolog.Logger) *Janitor {
	return &Janitor{client: client, store: st, log: log}
}

// cleanSection is one section of `clean --all --dry-run --json` output.
// The backend groups reclaimable data by kind, each with a total size.
type cleanSection struct {
	TotalSize int64 `json:"total_size"`
}

// Estimate computes a disk usage report without deleting anything. It
// prefers the backend's dry-run clean report and falls back to a
// read-only walk of the package cache and environment directories.
func (j *Janitor) Estimate(ctx context.Context) (*conda.DiskUsageReport, error) {
	report, err := j.estimateDryRun(ctx)
	if err != nil {
		j.log.Warn().Err(err).Msg("dry-run clean estimate failed, falling back to directory walk")
		report, err = j.estimateWalk(ctx)
		if err != nil {
			return nil, err
		}
	}

	j.mu.Lock()
	j.estimated = true
	j.mu.Unlock()

	j.recordJournal(store.OpEstimate, "", store.StatusSucceeded, "")
	return report, nil
}

// estimateDryRun parses `clean --all --dry-run --json`. The dry-run flag
// guarantees the backend deletes nothing.
func (j *Janitor) estimateDryRun(ctx context.Context) (*conda.DiskUsageReport, error) {
	out, err := j.client.Run(ctx, "clean", "--all", "--dry-run", "--json")
	if err != nil {
		return nil, err
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(out, &sections); err != nil {
		return nil, &conda.ParseError{Args: []string{"clean", "--all", "--dry-run", "--json"}, Raw: string(out), Err: err}
	}

	var cacheTotal int64
	for key, raw := range sections {
		if key == "success" {
			continue
		}
		var section cleanSection
		if err := json.Unmarshal(raw, &section); err != nil {
			continue // sections without total_size (e.g. booleans) are skipped
		}
		cacheTotal += section.TotalSize
	}

	envsTotal, err := j.envsTotal(ctx)
	if err != nil {
		// Cache estimate alone is still useful.
		j.log.Warn().Err(err).Msg("environment size walk failed")
	}

	return &conda.DiskUsageReport{
		PkgsCache: cacheTotal,
		Envs:      envsTotal,
		Total:     cacheTotal + envsTotal,
	}, nil
}

// estimateWalk sums the package cache and environment directories directly.
func (j *Janitor) estimateWalk(ctx context.Context) (*conda.DiskUsageReport, error) {
	dirs, err := j.client.Dirs(ctx)
	if err != nil {
		return nil, err
	}

	var cacheTotal int64
	for _, dir := range dirs.PkgsDirs {
		cacheTotal += DirSize(dir)
	}

	envsTotal, err := j.envsTotal(ctx)
	if err != nil {
		return nil, err
	}

	return &conda.DiskUsageReport{
		PkgsCache: cacheTotal,
		Envs:      envsTotal,
		Total:     cacheTotal + envsTotal,
	}, nil
}

// envsTotal sums the sizes of all listed environments.
func (j *Janitor) envsTotal(ctx context.Context) (int64, error) {
	envs, err := j.client.ListEnvs(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, env := range envs {
		if env.Stale {
			continue
		}
		total += j.EnvSize(env)
	}
	return total, nil
}

// EnvSize returns the on-disk size of one environment, consulting the
// session cache first and walking the directory on a miss.
func (j *Janitor) EnvSize(env *conda.Environment) int64 {
	if j.store != nil {
		if cached, err := j.store.GetEnvSize(env.Path); err == nil && cached != nil {
			return cached.SizeBytes
		}
	}

	size := DirSize(env.Path)
	if j.store != nil {
		if err := j.store.UpsertEnvSize(env.Path, size); err != nil {
			j.log.Warn().Err(err).Str("path", env.Path).Msg("failed to cache environment size")
		}
	}
	return size
}

// Clean runs the destructive `clean --all`. It fails with
// ErrEstimateRequired unless Estimate ran first in this session.
func (j *Janitor) Clean(ctx context.Context) error {
	j.mu.Lock()
	estimated := j.estimated
	j.mu.Unlock()
	if !estimated {
		return ErrEstimateRequired
	}

	opID := j.recordJournal(store.OpClean, "", store.StatusRunning, "")
	_, err := j.client.Run(ctx, "clean", "--all", "--yes")
	if err != nil {
		j.finishJournal(opID, store.StatusFailed, err.Error())
		return err
	}
	j.finishJournal(opID, store.StatusSucceeded, "")

	// Cached sizes are stale after a clean.
	j.mu.Lock()
	j.estimated = false
	j.mu.Unlock()
	return nil
}

// DirSize walks dir summing regular file sizes. Unreadable entries are
// skipped; a missing directory counts as zero.
func DirSize(dir string) int64 {
	if _, err := os.Stat(dir); err != nil {
		return 0
	}
	var total int64
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	return total
}

// recordJournal writes a journal entry when a store is attached. Running
// entries return their id for finishJournal; completed entries are closed
// immediately.
func (j *Janitor) recordJournal(kind, envName, status, detail string) int64 {
	if j.store == nil {
		return 0
	}
	id, err := j.store.BeginOperation(kind, envName, detail)
	if err != nil {
		j.log.Warn().Err(err).Str("kind", kind).Msg("failed to journal operation")
		return 0
	}
	if status != store.StatusRunning {
		if err := j.store.FinishOperation(id, status, detail); err != nil {
			j.log.Warn().Err(err).Str("kind", kind).Msg("failed to close journal entry")
		}
	}
	return id
}

func (j *Janitor) finishJournal(id int64, status, detail string) {
	if j.store == nil || id == 0 {
		return
	}
	if err := j.store.FinishOperation(id, status, detail); err != nil {
		j.log.Warn().Err(err).Msg("failed to close journal entry")
	}
}
