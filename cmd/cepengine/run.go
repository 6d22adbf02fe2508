/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"

	"cepengine/internal/engine"
	"cepengine/internal/logger"
	"cepengine/internal/metrics"
	"cepengine/internal/restapi"
	"cepengine/internal/storage"
)

// runCommand starts the engine and REST API, blocking until SIGINT/SIGTERM.
// Grounded on the teacher's DaemonCommand.Run (src/interfaces/cli/daemon_commands.go)
// — load config, wire storage, start the core, wait on a signal channel.
func runCommand(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	base, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer base.Close()

	log := logger.NewComponentLogger(base, "main")
	log.Info("starting cepengine", logger.String("instance", cfg.InstanceName))

	adapter, err := storage.New(cfg.Storage, logger.NewComponentLogger(base, "storage"))
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	reg := metrics.New(prometheus.NewRegistry())
	eng := engine.New(cfg, adapter, reg, base)
	if err := eng.Start(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	apiCfg := restapi.Config{Host: cfg.RestAPI.Host, Port: cfg.RestAPI.Port}
	server := restapi.New(apiCfg, eng, reg, logger.NewComponentLogger(base, "restapi"))
	if err := server.Start(); err != nil {
		return fmt.Errorf("start rest api: %w", err)
	}

	fmt.Printf("%s cepengine listening on %s:%d\n", color.GreenString("✓"), cfg.RestAPI.Host, cfg.RestAPI.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Warn("rest api shutdown error", logger.Err(err))
	}
	if err := eng.Stop(); err != nil {
		log.Warn("engine shutdown error", logger.Err(err))
	}

	return nil
}
