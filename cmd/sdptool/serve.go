package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/caarlos0/env/v7"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xaionaro-go/sdp"
)

// ServeCmd serves records over L2CAP. Server limits come from SDP_*
// environment variables.
type ServeCmd struct {
	RecordsFlags `embed:""`

	RecvMTU     int    `name:"recv-mtu" help:"Largest request accepted (0 is the configured default MTU)"`
	MetricsAddr string `name:"metrics-addr" help:"Address to serve Prometheus metrics on, e.g. :9100"`
}

func (c *ServeCmd) Run(env *runEnv) error {
	ctx := env.ctx
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defs, err := c.load()
	if err != nil {
		return err
	}
	s, err := newServer(ctx, cfg, defs, sdp.WithMetrics(prometheus.DefaultRegisterer))
	if err != nil {
		return err
	}

	if c.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: c.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf(ctx, "metrics server: %v", err)
			}
		}()
		defer srv.Close()
	}

	l, err := sdp.ListenL2CAP(ctx, s, c.RecvMTU)
	if err != nil {
		return fmt.Errorf("unable to listen: %w", err)
	}
	defer l.Close()

	if err := s.Start(ctx); err != nil {
		return err
	}
	defer s.Stop()

	if err := l.Serve(ctx); err != nil {
		return err
	}
	logger.Infof(ctx, "serving %d records", len(defs))
	<-ctx.Done()
	return nil
}

func loadConfig() (sdp.Config, error) {
	cfg := sdp.DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return sdp.Config{}, fmt.Errorf("unable to read the configuration: %w", err)
	}
	return cfg, nil
}
