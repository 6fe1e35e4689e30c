package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ftpfs/internal/config"
	"ftpfs/internal/ftpclient"
	"ftpfs/internal/ftperr"
	"ftpfs/internal/keepalive"
	"ftpfs/internal/pool"
	"ftpfs/internal/store"
	"ftpfs/internal/vfs"
)

func main() {
	cfgPath := flag.String("config", "", "path to ftpfs.yaml")
	host := flag.String("host", "", "FTP host (overrides config)")
	user := flag.String("user", "", "FTP user (overrides config)")
	debug := flag.Bool("debug", false, "verbose logging and protocol traces")
	flag.Usage = usage
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *user != "" {
		cfg.User = *user
	}
	if *debug {
		cfg.Debug = true
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	factory := ftpclient.NewFactory(cfg, logger)
	p, err := pool.New(pool.Config[vfs.Session]{
		MaxClients:     cfg.Pool.MaxClients,
		AcquireTimeout: cfg.AcquireTimeout(),
		Factory: func(ctx context.Context) (vfs.Session, error) {
			return factory(ctx)
		},
		Logger: logger,
	})
	if err != nil {
		logger.Error("create pool", "error", err)
		os.Exit(1)
	}

	go keepalive.New(p, cfg.KeepAliveInterval(), logger).Run(ctx)

	fsys := vfs.New(p, ftperr.NewDefaultTranslator(), logger, cfg.BufferBytes())

	cmdErr := runCommand(ctx, fsys, st, args)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	if err := p.Close(closeCtx); err != nil {
		logger.Warn("pool close", "error", err)
	}

	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "ftpfs: %v\n", cmdErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: ftpfs [flags] <command> [args]

Commands:
  ls [path]              list a directory (default /)
  stat <path>            show metadata for a path
  get <remote> <local>   download a file
  put <local> <remote>   upload a file
  rm <path>              remove a file or directory
  mkdir <path>           create a directory
  mv [-replace] <src> <dst>   rename on the server
  cp [-replace] <src> <dst>   copy via two sessions
  check <path>           verify a directory is accessible
  history [n]            show recent transfers from the local journal

Flags:
`)
	flag.PrintDefaults()
}
