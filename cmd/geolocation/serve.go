package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TomasB/geolocation/internal/config"
	"github.com/TomasB/geolocation/internal/data"
	"github.com/TomasB/geolocation/internal/geo"
	"github.com/TomasB/geolocation/internal/handler/geolocation"
	grpchandler "github.com/TomasB/geolocation/internal/handler/grpc"
	"github.com/TomasB/geolocation/internal/handler/health"
	"github.com/TomasB/geolocation/internal/metrics"
	"github.com/TomasB/geolocation/internal/watcher"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func newServeCmd(vip *viper.Viper, configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP (and optional gRPC) geolocation server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(vip, *configFile)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("port", "8080", "HTTP listen port")
	cmd.Flags().String("grpc-port", "", "gRPC listen port; empty disables gRPC")
	cmd.Flags().Bool("watch-database", false, "reload the database when its file changes")
	for key, flag := range map[string]string{
		"port":           "port",
		"grpc_port":      "grpc-port",
		"watch_database": "watch-database",
	} {
		if err := vip.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := setupLogger(os.Stdout, cfg.SlogLevel())
	slog.Info("service starting", "log_level", cfg.SlogLevel().String(), "engine", cfg.Engine)

	// Set Gin mode based on log level
	if cfg.SlogLevel() == slog.LevelDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	lookup, err := data.NewReloadable(data.FileOpener(cfg.Engine, cfg.DatabasePath()))
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DatabasePath(), "error", err)
		return err
	}
	defer lookup.Close()

	return run(ctx, cfg, logger, lookup)
}

// run serves HTTP (and gRPC when configured) over lookup until ctx is done.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger, lookup *data.Reloadable) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recorder := metrics.NewRecorder()

	if cfg.WatchDatabase {
		w, err := watcher.New(cfg.DatabasePath(), watcher.DefaultDebounce, func() error {
			err := lookup.Reload()
			recorder.ReloadCompleted(err)
			return err
		})
		if err != nil {
			slog.Error("failed to watch database", "path", cfg.DatabasePath(), "error", err)
			return err
		}
		watchDone := make(chan struct{})
		go func() {
			defer close(watchDone)
			w.Run(ctx)
		}()
		// Runs before lookup.Close so no reload can reopen the database.
		defer func() {
			stop()
			<-watchDone
		}()
		slog.Info("watching database for changes", "path", cfg.DatabasePath())
	}

	svc := geo.NewService(lookup, recorder)
	orchestrator := geo.NewOrchestrator(svc, recorder, cfg.BatchConcurrency)

	// Create Gin router
	router := gin.New()
	router.Use(ginLogger(logger))
	router.Use(gin.Recovery())

	health.NewHandler(lookup.Ready).Register(router)
	router.GET("/metrics", gin.WrapH(recorder.Handler()))
	geolocation.NewHandler(svc, orchestrator).Register(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	var (
		grpcSrv *grpc.Server
		grpcLis net.Listener
	)
	if cfg.GRPCPort != "" {
		var err error
		grpcLis, err = net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			slog.Error("failed to listen for gRPC", "port", cfg.GRPCPort, "error", err)
			return err
		}

		grpcSrv = grpc.NewServer()
		grpchandler.RegisterGeolocationServiceServer(grpcSrv, grpchandler.NewHandler(svc, orchestrator))
		healthSrv := grpchealth.NewServer()
		healthSrv.SetServingStatus(grpchandler.ServiceName, healthpb.HealthCheckResponse_SERVING)
		healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	}

	errCh := make(chan error, 2)

	go func() {
		slog.Info("service started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server failed: %w", err)
		}
	}()

	if grpcSrv != nil {
		go func() {
			slog.Info("grpc service started", "port", cfg.GRPCPort)
			if err := grpcSrv.Serve(grpcLis); err != nil {
				errCh <- fmt.Errorf("grpc server failed: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		slog.Error("server failed to start", "error", err)
		if grpcSrv != nil {
			grpcSrv.Stop()
			grpcLis.Close()
		}
		srv.Close()
		return err
	}

	slog.Info("service shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		return err
	}

	slog.Info("service stopped")
	return nil
}

// ginLogger creates a Gin middleware that logs using slog
func ginLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		// Process request
		c.Next()

		// Log request
		duration := time.Since(start)
		statusCode := c.Writer.Status()

		attrs := []any{
			"method", method,
			"path", path,
			"status", statusCode,
			"duration_ms", duration.Milliseconds(),
			"remote_addr", c.Request.RemoteAddr,
		}

		if len(c.Errors) > 0 {
			logger.Error("request completed with errors", append(attrs, "errors", c.Errors.String())...)
		} else if statusCode >= 500 {
			logger.Error("request completed", attrs...)
		} else if statusCode >= 400 {
			logger.Warn("request completed", attrs...)
		} else {
			logger.Info("request completed", attrs...)
		}
	}
}
