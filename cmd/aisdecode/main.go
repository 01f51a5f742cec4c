package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"aisdecode/internal/config"
	"aisdecode/internal/web"
)

func main() {
	var (
		configPath  string
		decodePath  string
		summaryOnly bool
		lenient     bool
	)
	flag.StringVar(&configPath, "config", "./aisdecode.yaml", "Path to YAML config")
	flag.StringVar(&decodePath, "decode", "", "Decode an NMEA file or capture log to JSON lines on stdout and exit")
	flag.BoolVar(&summaryOnly, "summary", false, "With -decode, print only the summary")
	flag.BoolVar(&lenient, "lenient", false, "With -decode, accept messages of unexpected bit length")
	flag.Parse()

	if decodePath != "" {
		var err error
		if summaryOnly {
			err = decodeFile(decodePath, !lenient, nil, os.Stdout)
		} else {
			err = decodeFile(decodePath, !lenient, os.Stdout, os.Stderr)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "decode: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logs := web.NewLogBuffer(1000)
	logCloser := setupLogging(cfg.Log, logs)
	defer logCloser.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logs); err != nil {
		log.Printf("aisdecode stopped: %v", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logs *web.LogBuffer) error {
	status := web.NewStatus()
	hub := web.NewHub()

	rt, err := newLiveRuntime(cfg, status, hub)
	if err != nil {
		return err
	}
	defer rt.Close()

	log.Printf("aisdecode starting sources=%d web=%s", len(rt.sources), cfg.Web.Listen)
	if err := rt.Start(ctx); err != nil {
		return err
	}

	handler := web.Handler(web.Deps{
		Status:  status,
		Vessels: rt.Vessels(),
		Logs:    logs,
		Hub:     hub,
	})
	err = web.Serve(ctx, cfg.Web.Listen, handler)
	// Hijacked websocket connections outlive Shutdown; closing the hub ends them.
	hub.Close()
	log.Printf("aisdecode stopping")
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("web: %w", err)
	}
	return nil
}
