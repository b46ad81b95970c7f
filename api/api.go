package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownGrace = 5 * time.Second

// StatusServer is the optional HTTP surface: Prometheus metrics, a liveness
// probe and the latest snapshot.
type StatusServer struct {
	addr     string
	recorder *Recorder
	logger   *zap.Logger
}

func NewStatusServer(addr string, recorder *Recorder, logger *zap.Logger) *StatusServer {
	return &StatusServer{
		addr:     addr,
		recorder: recorder,
		logger:   logger,
	}
}

func (ss *StatusServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(ss.recorder.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("GET /system_metrics", NewSnapshotHandler(ss.recorder))
	mux.Handle("GET /process_metrics", NewProcessMetricsHandler(ss.recorder))
	return mux
}

// Run listens on the configured address until ctx is done, then shuts the
// server down within a short grace period.
func (ss *StatusServer) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", ss.addr)
	if err != nil {
		return fmt.Errorf("status server listen on %s: %w", ss.addr, err)
	}
	return ss.Serve(ctx, listener)
}

func (ss *StatusServer) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           ss.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	ss.logger.Info("status server listening", zap.String("addr", listener.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("status server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status server shutdown: %w", err)
	}
	ss.logger.Info("status server stopped")
	return nil
}
