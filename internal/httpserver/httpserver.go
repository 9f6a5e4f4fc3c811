package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 15 * time.Second

// Run starts the HTTP server and all background services, then blocks until shutdown signal.
// This method manages the complete lifecycle of the realtime service:
//  1. Map HTTP handlers and routes (Initialize wiring)
//  2. Start the hub and the Redis subscriber
//  3. Start HTTP server
//  4. Wait for shutdown signal, then stop subscriber, hub and server in that order
func (srv *HTTPServer) Run() error {
	ctx := context.Background()

	// 1. Map handlers (initializes hub, subscriber, routes)
	if err := srv.mapHandlers(); err != nil {
		srv.logger.Errorf(ctx, "Failed to map handlers: %v", err)
		return err
	}

	// 2. Start background services
	go srv.hub.Run()
	srv.logger.Info(ctx, "Stream hub started")

	if err := srv.subscriber.Start(); err != nil {
		srv.logger.Errorf(ctx, "Failed to start Redis subscriber: %v", err)
		return err
	}

	// 3. Start HTTP server in background. Streams are long lived, so there is
	// no WriteTimeout; each write is bounded by the sink's deadline instead.
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", srv.host, srv.port),
		Handler:           srv.gin,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	srv.logger.Infof(ctx, "HTTP server started on %s", server.Addr)

	// 4. Wait for shutdown signal
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-ch:
		srv.logger.Infof(ctx, "Received signal %s", sig)
	case runErr = <-errCh:
		srv.logger.Errorf(ctx, "HTTP server error: %v", runErr)
	}
	srv.logger.Info(ctx, "Stopping realtime service...")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := srv.subscriber.Shutdown(shutdownCtx); err != nil {
		srv.logger.Errorf(ctx, "Redis subscriber shutdown error: %v", err)
	}
	if err := srv.hub.Shutdown(shutdownCtx); err != nil {
		srv.logger.Errorf(ctx, "Hub shutdown error: %v", err)
	}
	srv.tracker.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		srv.logger.Errorf(ctx, "HTTP server shutdown error: %v", err)
	}

	return runErr
}
