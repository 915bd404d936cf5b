package pprofserver

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/myrjola/mysteries/internal/errors"
)

func Handle(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
}

func newServer() *http.Server {
	mux := http.NewServeMux()
	Handle(mux)
	return &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: time.Second,
	}
}

// loopbackAddr binds a bare port such as ":6060" to the loopback interface so that pprof is not open to the world.
func loopbackAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

// Serve runs a pprof server until ctx is cancelled. Failing to bind is logged but does not stop the application.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	srv := newServer()
	listener, err := net.Listen("tcp", loopbackAddr(addr))
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, "pprof server disabled",
			errors.SlogError(errors.Wrap(err, "listen", slog.String("addr", addr))))
		return nil
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "starting pprof server", slog.String("pprof_addr", listener.Addr().String()))

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err = srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "pprof serve")
	}
	return nil
}
