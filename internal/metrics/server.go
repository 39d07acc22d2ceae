package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/postbot/core/logger"
)

// Server serves /metrics for a gatherer.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Listen binds addr and starts serving in the background.
func Listen(addr string, g prometheus.Gatherer) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.LogEvent(context.Background(), logger.Metrics, slog.LevelError, "metrics.listen",
			slog.String("status", "fail"),
			slog.String("listen", addr),
			slog.String("err", err.Error()),
		)
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s := &Server{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogEvent(context.Background(), logger.Metrics, slog.LevelError, "metrics.serve",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}()

	logger.LogEvent(context.Background(), logger.Metrics, slog.LevelInfo, "metrics.listen",
		slog.String("status", "ok"),
		slog.String("listen", ln.Addr().String()),
	)
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
