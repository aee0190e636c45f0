// Package httpserver runs the daemon's local HTTP API with graceful shutdown
// and provides a health-check handler.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("api server failed", logger.Error(err))
//	}
//
// Run returns once ctx is cancelled and in-flight requests have drained or
// the shutdown timeout has passed. Errors are wrapped with ErrStart and
// ErrShutdown.
package httpserver
