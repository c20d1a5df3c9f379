package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/fanfan187/negotio"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "path to the JSON configuration file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger := negotio.NewStdLogger(os.Stderr, *debug)

	cfg, err := negotio.LoadConfig(*configPath)
	if err != nil {
		logger.Error("main", err)
		os.Exit(1)
	}

	sup, err := negotio.NewSupervisor(cfg, logger)
	if err != nil {
		logger.Error("main", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sup.Run(ctx); err != nil {
		logger.Error("main", err)
		os.Exit(1)
	}
}
