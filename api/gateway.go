package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"CashbookRecon/internal/config"
	"CashbookRecon/internal/reportstore"
	"CashbookRecon/internal/serviceiface"
	"CashbookRecon/internal/workspace"

	"golang.org/x/time/rate"
)

type GatewayService struct {
	config map[string]interface{}
	deps   Deps
	server *http.Server
	addr   string
}

func NewGatewayService(cfg map[string]interface{}, store reportstore.Store, reg *workspace.Registry) serviceiface.Service {
	return &GatewayService{config: cfg, deps: Deps{Store: store, Registry: reg}}
}

func (s *GatewayService) Name() string {
	return "gateway"
}

// Addr is the address the gateway listens on once started.
func (s *GatewayService) Addr() string { return s.addr }

func (s *GatewayService) Start() error {
	port := config.Int(s.config, "port", config.DefaultGatewayPort)
	rps := config.Int(s.config, "rate_per_second", 1000/config.DefaultRateLimitEveryMs)
	burst := config.Int(s.config, "burst", config.DefaultRateLimitBurst)

	d := s.deps
	d.MaxUploadBytes = int64(config.Int(s.config, "max_upload_mb", config.DefaultMaxUploadMB)) << 20
	if rps > 0 {
		d.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	if origins := config.String(s.config, "allowed_origins", ""); origins != "" {
		d.AllowedOrigins = strings.Split(origins, ",")
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("gateway listen on :%d: %w", port, err)
	}
	s.addr = ln.Addr().String()
	s.server = &http.Server{
		Handler:      NewHandler(d),
		ReadTimeout:  time.Duration(config.Int(s.config, "read_timeout_sec", config.DefaultReadTimeoutSec)) * time.Second,
		WriteTimeout: time.Duration(config.Int(s.config, "write_timeout_sec", config.DefaultWriteTimeoutSec)) * time.Second,
	}

	go func() {
		log.Println("API Gateway started on", s.addr)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] Gateway server failed: %v", err)
		}
	}()
	return nil
}

func (s *GatewayService) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Println("API Gateway stopping")
	return s.server.Shutdown(ctx)
}
