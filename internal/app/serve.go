package app

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/condanest/condanest/internal/watcher"
	"github.com/condanest/condanest/internal/web"
)

var (
	serveFlagAddr string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API",
		Long: `Run a local HTTP API exposing environments, packages, channels
and disk usage over JSON, with a websocket feed of change events. The
server binds to loopback only and is meant for desktop frontends.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveFlagAddr, "addr", "", "listen address (default from config)")
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := initRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	hub := web.NewHub(rt.log)

	watchDirs := []string{rt.cfg.EnvsRoot}
	if rt.cfg.EnvsRoot == "" {
		dirs, err := rt.client().Dirs(ctx)
		if err != nil {
			return err
		}
		watchDirs = dirs.EnvsDirs
	}
	w, err := watcher.New(watchDirs, rt.log)
	if err != nil {
		rt.log.Warn().Err(err).Msg("environment watching disabled")
	} else {
		w.Start()
		defer w.Stop()
		go hub.RelayWatcher(w.Subscribe())
		go invalidateSizes(rt, w.Subscribe())
	}

	addr := serveFlagAddr
	if addr == "" {
		addr = rt.cfg.Addr()
	}

	server := web.New(rt.session, rt.janitor, rt.store, hub, rt.log)
	fmt.Printf("Listening on http://%s\n", addr)
	return server.ListenAndServe(ctx, addr)
}

// invalidateSizes drops cached environment sizes when their directory
// changes on disk, so the next size query rescans.
func invalidateSizes(rt *runtime, events <-chan watcher.Event) {
	for ev := range events {
		if err := rt.store.DeleteEnvSizesUnder(ev.Dir); err != nil {
			rt.log.Warn().Err(err).Str("dir", ev.Dir).Msg("failed to invalidate size cache")
		}
	}
}
