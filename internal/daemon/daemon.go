package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"statusd/internal/broadcast"
	"statusd/internal/logging"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

type Option func(*Daemon)

func WithLogger(logger logging.Logger) Option {
	return func(d *Daemon) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithPowerController(power PowerController) Option {
	return func(d *Daemon) {
		d.power = power
	}
}

// WithMetrics enables the broadcast observer and the /metrics route.
func WithMetrics(metrics *Metrics) Option {
	return func(d *Daemon) {
		d.metrics = metrics
	}
}

type Daemon struct {
	addr     string
	version  string
	sampler  broadcast.Sampler
	power    PowerController
	metrics  *Metrics
	logger   logging.Logger
	listener net.Listener
}

func New(addr, version string, sampler broadcast.Sampler, opts ...Option) *Daemon {
	d := &Daemon{
		addr:    addr,
		version: version,
		sampler: sampler,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	if d.power == nil {
		d.power = NewSystemctlPower(d.logger)
	}
	return d
}

// Listen binds the daemon address. Run calls it when it has not been called
// yet; calling it first exposes the bound address, e.g. for port 0.
func (d *Daemon) Listen() (net.Addr, error) {
	if d.listener != nil {
		return d.listener.Addr(), nil
	}
	listener, err := net.Listen("tcp", d.addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", d.addr, err)
	}
	d.listener = listener
	return listener.Addr(), nil
}

// Run serves HTTP and runs the broadcast loop until ctx is cancelled, the
// shutdown endpoint is called, or the server fails.
func (d *Daemon) Run(ctx context.Context) error {
	if d.sampler == nil {
		return errors.New("daemon: sampler is required")
	}
	addr, err := d.Listen()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bopts := []broadcast.Option{broadcast.WithLogger(d.logger)}
	if d.metrics != nil {
		bopts = append(bopts, broadcast.WithObserver(d.metrics))
	}
	broadcaster := broadcast.New(d.sampler, bopts...)

	api := &API{
		Version:     d.version,
		Broadcaster: broadcaster,
		Power:       d.power,
		Metrics:     d.metrics,
		Logger:      d.logger,
		Shutdown: func(context.Context) error {
			cancel()
			return nil
		},
	}
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	server := &http.Server{
		Handler:           LoggingMiddleware(d.logger, mux),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	server.RegisterOnShutdown(api.CloseStreams)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return broadcaster.Run(groupCtx)
	})
	group.Go(func() error {
		d.logger.Info("daemon_listening", logging.F("addr", addr.String()), logging.F("version", d.version))
		if err := server.Serve(d.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		d.logger.Info("daemon_stopped")
		return nil
	})
	return group.Wait()
}
