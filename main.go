package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"git.sr.ht/~sircmpwn/getopt"
	"github.com/phsym/console-slog"
	"github.com/thejerf/suture/v4"
)

var version string

func usage() {
	fmt.Fprintf(os.Stderr, `usage: dim [-DV] [-d display] [-c config] [-f sloppy|click] [-l addr]
       dim -t SPEC      switch the tagset
       dim -q           ask the running manager to exit
       dim -r           ask the running manager to restart
       dim -e CMD ...   replace the manager with CMD
`)
	os.Exit(2)
}

func initLogger(level slog.Level) {
	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		Level: level,
	})))
}

func main() {
	opts, optind, err := getopt.Getopts(os.Args, "DVd:c:f:l:t:e:qr")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
	}

	var (
		display    string
		configPath = os.Getenv("HOME") + "/.dim.yaml"
		focusMode  string
		listenAddr string
		level      = slog.LevelWarn
		control    func() error
	)
	for _, opt := range opts {
		switch opt.Option {
		case 'D':
			level = slog.LevelDebug
		case 'V':
			level = slog.LevelInfo
		case 'd':
			display = opt.Value
		case 'c':
			configPath = opt.Value
		case 'f':
			focusMode = opt.Value
		case 'l':
			listenAddr = opt.Value
		case 't':
			spec := opt.Value
			control = func() error { return SendTagset(display, spec) }
		case 'q':
			control = func() error { return SendExit(display) }
		case 'r':
			control = func() error { return SendRestart(display) }
		case 'e':
			argv := append([]string{opt.Value}, os.Args[optind:]...)
			control = func() error { return SendExec(display, argv) }
		}
	}
	initLogger(level)
	if version != "" {
		slog.Info("dim", "version", version)
	}

	// Control sends talk to the running manager and exit immediately.
	if control != nil {
		if err := control(); err != nil {
			slog.Error("control message failed", "error", err)
			os.Exit(1)
		}
		return
	}

	store, err := NewConfigStore(FileDriver{Path: configPath})
	if err != nil {
		slog.Error("config store", "error", err)
		os.Exit(1)
	}
	cfg, err := store.Get()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	if focusMode != "" {
		cfg.FocusMode = focusMode
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}

	wm := NewWM(cfg, slog.Default())
	if err := wm.Init(display); err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer wm.Shutdown()

	// A fatal panic still attempts the reparent-to-root teardown; the
	// save-set is the backstop if even that fails.
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic", "value", r, "stack", string(debug.Stack()))
			wm.Shutdown()
			os.Exit(2)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.ListenAddr != "" {
		wm.api = NewAPIServer(wm, cfg.ListenAddr, slog.Default())
		sup := suture.New("dim", suture.Spec{EventHook: sutureEventHook()})
		sup.Add(wm.api)
		sup.ServeBackground(ctx)
	}

	// An interrupt takes the same graceful path as an exit message.
	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigC
		if err := SendExit(display); err != nil {
			slog.Warn("graceful exit failed, closing connection", "error", err)
			wm.xc.Close()
		}
	}()

	switch err := wm.Run(); err {
	case errQuit:
		cancel()
		wm.Shutdown()
		if wm.ExecInPlace() {
			return // only reached when exec failed
		}
	default:
		slog.Error("event loop", "error", err)
		wm.Shutdown()
		os.Exit(1)
	}
}

// sutureEventHook logs supervisor events through slog.
func sutureEventHook() suture.EventHook {
	return func(ei suture.Event) {
		switch e := ei.(type) {
		case suture.EventServicePanic:
			slog.Warn("service panic", "service", e.ServiceName)
			slog.Debug(e.Stacktrace, "panic", e.PanicMsg)
		case suture.EventServiceTerminate:
			slog.Error("service failed", "service", e.ServiceName, "error", e.Err)
		case suture.EventStopTimeout:
			slog.Info("service failed to stop in time", "service", e.ServiceName)
		case suture.EventBackoff:
			slog.Debug("supervisor entering backoff", "supervisor", e.SupervisorName)
		case suture.EventResume:
			slog.Debug("supervisor leaving backoff", "supervisor", e.SupervisorName)
		}
	}
}
