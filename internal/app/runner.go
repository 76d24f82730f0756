// internal/app/runner.go
// Package app wires configuration, wallets, the endpoint registry and the
// transfer pipeline into the runnable CLI commands.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spark-it/sparksol/internal/chain"
	"github.com/spark-it/sparksol/internal/config"
	"github.com/spark-it/sparksol/internal/logger"
	"github.com/spark-it/sparksol/internal/memo"
	"github.com/spark-it/sparksol/internal/transfer"
	"github.com/spark-it/sparksol/internal/vault"
	"github.com/spark-it/sparksol/internal/wallet"
)

// Runner holds the services shared by every command.
type Runner struct {
	cfg        *config.Config
	logger     *logger.Logger
	registry   *chain.Registry
	cluster    chain.Cluster
	wallets    map[string]*wallet.Wallet
	metrics    *transfer.Metrics
	memo       *memo.Service
	vault      vault.Program
	shutdownCh chan os.Signal
}

// NewRunner loads configuration and wallets and builds the shared services.
func NewRunner(configPath string) (*Runner, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(&logger.Config{
		LogFile:     cfg.LogFile,
		MaxSize:     100,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: cfg.DebugLogging,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	registry, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("build endpoint registry: %w", err)
	}
	cluster, err := chain.ParseCluster(cfg.Cluster)
	if err != nil {
		return nil, err
	}

	wallets := map[string]*wallet.Wallet{}
	if cfg.WalletsFile != "" {
		wallets, err = wallet.Load(cfg.WalletsFile)
		if err != nil {
			return nil, fmt.Errorf("load wallets: %w", err)
		}
	}

	vaultProgram, err := cfg.VaultProgram()
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:        cfg,
		logger:     log,
		registry:   registry,
		cluster:    cluster,
		wallets:    wallets,
		metrics:    transfer.NewMetrics(prometheus.DefaultRegisterer),
		memo:       memo.NewService(log.Logger),
		vault:      vaultProgram,
		shutdownCh: make(chan os.Signal, 1),
	}, nil
}

// Context returns a context cancelled on SIGINT or SIGTERM.
func (r *Runner) Context() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-r.shutdownCh
		r.logger.Info("Signal received", zap.String("signal", sig.String()))
		cancel()
	}()
	return ctx, cancel
}

// Wallet selects a named wallet, or the only one when name is empty.
func (r *Runner) Wallet(name string) (*wallet.Wallet, error) {
	if len(r.wallets) == 0 {
		return nil, fmt.Errorf("no wallets configured; set wallets_file")
	}
	if name == "" {
		if len(r.wallets) == 1 {
			for _, w := range r.wallets {
				return w, nil
			}
		}
		return nil, fmt.Errorf("multiple wallets configured; pass -wallet")
	}
	w, ok := r.wallets[name]
	if !ok {
		return nil, fmt.Errorf("unknown wallet %q", name)
	}
	return w, nil
}

// Client dials the configured cluster's endpoints and health checks them.
func (r *Runner) Client(ctx context.Context) (*chain.Client, error) {
	endpoints, err := r.registry.Endpoints(r.cluster)
	if err != nil {
		return nil, err
	}
	client, err := chain.NewClient(endpoints, r.logger.Logger)
	if err != nil {
		return nil, err
	}
	if err := client.HealthCheck(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// Sender builds the transfer pipeline for a signing wallet.
func (r *Runner) Sender(signer transfer.Signer) *transfer.Sender {
	return transfer.NewSender(r.registry, signer, r.logger.Logger, r.metrics, transfer.Config{
		AttemptTimeout:         time.Duration(r.cfg.AttemptTimeout) * time.Millisecond,
		SkipDecimalsValidation: !r.cfg.ValidateDecimals,
		AwaitConfirmation:      r.cfg.AwaitConfirmation,
		ConfirmationTimeout:    time.Duration(r.cfg.ConfirmationTimeout) * time.Millisecond,
	})
}

// ServeMetrics exposes the Prometheus registry over HTTP when configured.
// Returns immediately when no metrics address is set.
func (r *Runner) ServeMetrics(ctx context.Context) {
	if r.cfg.MetricsAddr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: r.cfg.MetricsAddr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	go func() {
		r.logger.Info("Serving metrics", zap.String("addr", r.cfg.MetricsAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.LogError("Metrics server failed", err)
		}
	}()
}

// Shutdown flushes logs.
func (r *Runner) Shutdown() {
	r.logger.Info("Shutting down")
	if err := r.logger.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to sync logger during shutdown: %v\n", err)
	}
}

// Logger exposes the shared logger for command implementations.
func (r *Runner) Logger() *logger.Logger { return r.logger }

// Cluster exposes the configured cluster.
func (r *Runner) Cluster() chain.Cluster { return r.cluster }
