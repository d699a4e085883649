package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ALEYI17/InfraSight_rocm/internal/collector"
	"github.com/ALEYI17/InfraSight_rocm/internal/config"
	"github.com/ALEYI17/InfraSight_rocm/internal/loaders"
	"github.com/ALEYI17/InfraSight_rocm/pkg/logutil"
	"github.com/ALEYI17/InfraSight_rocm/pkg/types"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	logutil.InitLogger()

	logger := logutil.GetLogger()
	defer logger.Sync()

	go func() {
		sigch := make(chan os.Signal, 1)
		signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigch
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	cfg := config.LoadConfig()

	stream := collector.NewStream()

	var lds []types.Gpu_loaders

	for _, program := range cfg.EnableProbes {
		loaderInstance, err := loaders.NewEbpfGpuLoaders(program, cfg.HipObjectPath, cfg.HipLibPath, stream)
		if err != nil {
			logger.Error("error to load tracer", zap.String("program", program), zap.Error(err))
			continue
		}
		defer loaderInstance.Close()
		lds = append(lds, loaderInstance)
		logger.Info("Load successfully loader:", zap.String("Loader", program))
	}

	if len(lds) == 0 {
		logger.Fatal("no loaders enabled, set ENABLE_PROBES")
	}

	logger.Info("Loader(s) created successfully")

	for _, l := range lds {
		l.Run(ctx)
	}

	for batch := range stream.Run(ctx, cfg.FlushInterval) {
		for _, ev := range batch {
			logger.Info("GPU event",
				zap.String("node", cfg.Nodename),
				zap.String("type", ev.Type.String()),
				zap.String("name", ev.Name),
				zap.String("annotation", ev.Annotation),
				zap.Uint64("start_ns", ev.StartTimeNs),
				zap.Uint64("end_ns", ev.EndTimeNs),
				zap.Int32("tid", ev.ThreadID))
		}
	}
	logger.Info("Client finished running")
}
