package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/quadris-game/netcode/internal/analytics"
	"github.com/quadris-game/netcode/internal/config"
	"github.com/quadris-game/netcode/internal/httpapi"
	"github.com/quadris-game/netcode/internal/logger"
	"github.com/quadris-game/netcode/internal/server"
	"github.com/quadris-game/netcode/internal/transport"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	if err := godotenv.Load(".env.local"); err != nil {
		logger.Debug(".env.local not found, using system environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	var producer *analytics.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = analytics.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			logger.Warn("kafka producer init failed, continuing without analytics", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			logger.Info("kafka producer initialized")
			defer producer.Close()
		}
	}

	core := server.New(server.Options{
		SlotsPerRoom:  cfg.Game.SlotsPerRoom,
		DestroyPolicy: cfg.Game.DestroyPolicy,
		Producer:      producer,
	})
	go core.Run()

	listener, err := transport.Listen(cfg.Server.TCPAddr)
	if err != nil {
		return err
	}
	go core.Serve(listener)
	logger.Info("tcp listener started", map[string]interface{}{"addr": cfg.Server.TCPAddr})

	api := httpapi.New(core, cfg.Security)
	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: api.Router(),
	}
	go func() {
		logger.Info("http server started", map[string]interface{}{"addr": cfg.Server.HTTPAddr})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
	logger.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)
	listener.Close()
	core.Stop()
	logger.Info("server stopped")
	return nil
}
