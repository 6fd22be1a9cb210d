package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/condanest/condanest/internal/conda"
	"github.com/condanest/condanest/internal/config"
	"github.com/condanest/condanest/internal/janitor"
	"github.com/condanest/condanest/internal/logging"
	"github.com/condanest/condanest/internal/store"
)

// runtime bundles everything a command needs: config, logger, detected
// backend, session guard, journal store and janitor. Commands build one
// per invocation and close it when done.
type runtime struct {
	cfg     *config.Config
	log     zerolog.Logger
	session *conda.Session
	store   *store.Store
	janitor *janitor.Janitor

	logCloser io.Closer
}

// initRuntime loads config, opens logging and the database, and detects
// the backend. The returned runtime must be closed.
func initRuntime(ctx context.Context) (*runtime, error) {
	cfgDir := flagConfigDir
	if cfgDir == "" {
		dir, err := config.Dir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config directory: %w", err)
		}
		cfgDir = dir
	}
	cfg, err := config.Load(cfgDir)
	if err != nil {
		return nil, err
	}

	logFile := flagLogFile
	if logFile == "" {
		logFile, err = logging.DefaultLogFile()
		if err != nil {
			return nil, err
		}
	}
	log, logCloser, err := logging.New(logFile, flagVerbose)
	if err != nil {
		return nil, err
	}

	backend, err := conda.Detect(ctx, cfg.CondaExecutable, log)
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	dbPath, err := getDBPath()
	if err != nil {
		logCloser.Close()
		return nil, err
	}
	st, err := store.New(dbPath)
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		logCloser.Close()
		return nil, err
	}

	runner := conda.NewRunner(backend.Executable, cfg.CommandTimeout(), log)
	client := conda.NewClient(backend, runner)
	session := conda.NewSession(client)

	return &runtime{
		cfg:       cfg,
		log:       log,
		session:   session,
		store:     st,
		janitor:   janitor.New(client, st, log),
		logCloser: logCloser,
	}, nil
}

func (rt *runtime) close() {
	if rt.store != nil {
		rt.store.Close()
	}
	if rt.logCloser != nil {
		rt.logCloser.Close()
	}
}

// client is a shorthand for read-only backend access.
func (rt *runtime) client() *conda.Client {
	return rt.session.Client()
}

// journal wraps fn in a journal entry under the per-env operation guard.
func (rt *runtime) journal(kind, envName string, fn func(*conda.Client) error) error {
	opID, err := rt.store.BeginOperation(kind, envName, "")
	if err != nil {
		rt.log.Warn().Err(err).Str("kind", kind).Msg("failed to journal operation")
	}
	runErr := rt.session.Do(envName, fn)
	if opID != 0 {
		status := store.StatusSucceeded
		detail := ""
		if runErr != nil {
			status = store.StatusFailed
			detail = runErr.Error()
		}
		if err := rt.store.FinishOperation(opID, status, detail); err != nil {
			rt.log.Warn().Err(err).Msg("failed to close journal entry")
		}
	}
	return runErr
}

// getDBPath returns the database path, using the flag value or default.
func getDBPath() (string, error) {
	if flagDBPath != "" {
		return flagDBPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	dataDir := filepath.Join(home, ".condanest")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return filepath.Join(dataDir, "condanest.db"), nil
}

// promptYesNo asks the user for confirmation on stdin.
func promptYesNo(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
