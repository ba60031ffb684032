package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/dispatch/internal/events/bus"
	"github.com/zeusync/dispatch/internal/events/feed"
	"github.com/zeusync/dispatch/internal/observability/log"
	"github.com/zeusync/dispatch/internal/server"
	"github.com/zeusync/dispatch/internal/sim/entity"
	"github.com/zeusync/dispatch/internal/sim/ops"
	"github.com/zeusync/dispatch/internal/sim/physics"
	"github.com/zeusync/dispatch/internal/sim/plugins"
	"github.com/zeusync/dispatch/pkg/vtable"
)

func main() {
	manifestPath := flag.String("manifest", "", "plugin manifest (YAML); empty enables everything")
	addr := flag.String("addr", ":8688", "introspection listen address")
	flag.Parse()

	logger := log.New(log.LevelInfo)

	var manifest *plugins.Manifest
	if *manifestPath != "" {
		f, err := os.Open(*manifestPath)
		if err != nil {
			logger.Fatal("open manifest", log.Error(err))
		}
		manifest, err = plugins.LoadYAML(f)
		_ = f.Close()
		if err != nil {
			logger.Fatal("parse manifest", log.Error(err))
		}
	}

	traces := bus.New()
	dispatcher := vtable.New(
		vtable.WithLogger(logger),
		vtable.WithObserver(feed.New(traces, logger, "simd")),
	)

	if err := plugins.Bootstrap(dispatcher, manifest, ops.Registrations(), logger); err != nil {
		logger.Fatal("bootstrap", log.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	srv := server.New(dispatcher, traces, logger)
	go func() {
		if err := srv.Start(ctx, *addr); err != nil {
			logger.Error("introspection server", log.Error(err))
		}
	}()

	world := []entity.Entity{
		entity.NewRobot(physics.Vec2{X: 1, Y: 2}),
		entity.NewRobot(physics.Vec2{X: -3, Y: 0.5}),
		entity.NewLight(physics.Vec2{X: 0, Y: 10}, 0),
		entity.NewObstacle(physics.Vec2{X: 5, Y: 5}, 2, 2),
	}
	for _, e := range world {
		if _, err := vtable.Call[ops.InitContext, entity.Entity, struct{}](dispatcher, e); err != nil &&
			!errors.Is(err, vtable.ErrUnregisteredSubtype) {
			logger.Error("init failed", log.String("entity", e.ID()), log.Error(err))
		}
		desc, err := vtable.Call[ops.DescribeContext, entity.Entity, string](dispatcher, e)
		if err != nil {
			logger.Error("describe failed", log.String("entity", e.ID()), log.Error(err))
			continue
		}
		logger.Info(desc)
	}

	<-stopCh
	cancel()
}
