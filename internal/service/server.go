package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	s := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return &Server{httpServer: s, logger: logger}
}

// Start 阻塞直到 Stop；正常关闭时返回 nil
func (s *Server) Start() error {
	s.logger.Info("Starting cxr-learning HTTP server", zap.String("addr", s.httpServer.Addr))
	return ignoreClosed(s.httpServer.ListenAndServe())
}

// Serve 在已有 listener 上提供服务（测试使用随机端口）
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("Starting cxr-learning HTTP server", zap.String("addr", l.Addr().String()))
	return ignoreClosed(s.httpServer.Serve(l))
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping cxr-learning HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
