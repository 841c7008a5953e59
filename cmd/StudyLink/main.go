package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	https_server "StudyLink/api/http"
	"StudyLink/internal/config"
	"StudyLink/pkg/zlog"
)

func main() {
	conf := config.GetConfig()
	addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if https_server.IngestWorker != nil {
		go func() {
			if err := https_server.IngestWorker.Run(ctx); err != nil && ctx.Err() == nil {
				zlog.Error("ingest worker stopped: " + err.Error())
			}
		}()
	}

	go func() {
		zlog.Info("server listening on " + addr)
		if err := https_server.GE.Run(addr); err != nil {
			zlog.Fatal("server start failed: " + err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")
	cancel()
	zlog.Sync()
}
