package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/formalizer/fzcore/internal/config"
	"github.com/formalizer/fzcore/internal/daemon"
	"github.com/formalizer/fzcore/internal/lockfile"
	"github.com/formalizer/fzcore/internal/persist"
	"github.com/formalizer/fzcore/internal/rpc"
)

var (
	tpassSchedule string
	fzSchedule    string
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the resident daemon: load the store, serve the control protocol, tick the schedulers",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&tpassSchedule, "tpass-cron", "@every 1h", "cron schedule for the BATCH_TPASS tick")
	cmd.Flags().StringVar(&fzSchedule, "eps-cron", "@every 15m", "cron schedule for the EPS scheduler tick")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	dir := resolveStoreDir(storeDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}

	v := viper.New()
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = filepath.Join(dir, "fzcored.toml")
	}
	install, err := config.LoadInstallation(cfgPath, v)
	if err != nil {
		return err
	}

	logger := newLogger(install.LogLevel)

	lock, err := lockfile.TryDaemonLock(dir, Version)
	if err != nil {
		if lockfile.IsLocked(err) {
			return fmt.Errorf("another fzcored already holds the lock for %s", dir)
		}
		return fmt.Errorf("acquiring daemon lock: %w", err)
	}
	defer lock.Close()

	schedCfg, err := config.LoadSchedulerConfig(filepath.Join(dir, "fz.yaml"))
	if err != nil {
		return err
	}

	dbPath := install.PersistDSN
	if dbPath == "" {
		dbPath = filepath.Join(dir, "fzcore.db")
	}
	store, err := persist.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening persistence store: %w", err)
	}
	defer store.Close()

	g, err := store.Load()
	if err != nil {
		return fmt.Errorf("loading graph from store: %w", err)
	}
	if len(g.AllNodeIDs()) == 0 {
		logger.Info("persist: starting from an empty graph", "db_path", dbPath)
	}

	regionDir := filepath.Join(dir, "regions")
	handler := daemon.New(g, store, regionDir, schedCfg)
	handler.SetLogger(logger)

	addr := install.TCPAddr
	if addr == "" {
		addr = ":8090"
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	server := rpc.NewServer(listener, handler, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	watcher, err := persist.NewWatcher(dbPath, func() {
		reloaded, err := store.Load()
		if err != nil {
			logger.Error("persist: reload after external write failed", "error", err)
			return
		}
		handler.Reload(reloaded)
	}, logger)
	if err != nil {
		logger.Warn("persist: file watcher unavailable, external writes will not be picked up", "error", err)
	} else {
		defer watcher.Close()
	}

	c := cron.New()
	if _, err := c.AddFunc(tpassSchedule, func() {
		if err := handler.RunTPass(time.Now()); err != nil {
			logger.Error("tpass tick failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduling tpass cron: %w", err)
	}
	if _, err := c.AddFunc(fzSchedule, func() {
		if err := handler.RunTPass(time.Now()); err != nil {
			logger.Error("eps tick failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduling eps cron: %w", err)
	}
	c.Start()
	defer c.Stop()

	logger.Info("fzcored serving", "addr", addr, "store_dir", dir, "version", Version)

	// The control-protocol listener and the persistence watcher are the
	// daemon's two long-lived background loops; errgroup runs them
	// concurrently and surfaces whichever fails first, the same shape
	// the teacher's internal/daemon/daemon_event_loop.go uses to run its
	// accept loop alongside its file-watch loop.
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return server.Serve(gctx) })
	if watcher != nil {
		eg.Go(func() error { watcher.Run(gctx); return nil })
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	server.Stop()
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(h)
}
