package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sir_venger/filedrop/internal/app/resthttp"
	"github.com/sir_venger/filedrop/internal/config"
	"github.com/sir_venger/filedrop/internal/log"
	"github.com/sir_venger/filedrop/internal/metrics"
	"github.com/sir_venger/filedrop/internal/usecase/filesvc"
	"github.com/sir_venger/filedrop/internal/version"
)

// newRootCommand: без подкоманды бинарник запускает сервер.
func newRootCommand() *cobra.Command {
	var (
		addr    string
		folder  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:           "filedrop",
		Short:         "Single-instance file upload server",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			// CLI-флаги сильнее файла и ENV
			if cmd.Flags().Changed("server-address") {
				cfg.ListenAddr = addr
			}
			if cmd.Flags().Changed("folder") {
				cfg.StorageDir = folder
			}
			if cmd.Flags().Changed("verbose") {
				cfg.Verbose = verbose
			}
			if err = cfg.Validate(); err != nil {
				return err
			}

			logger := log.New(cfg.LogLevel)
			logger.SetVerbose(cfg.Verbose)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err = runServer(ctx, cfg, logger, nil); err != nil {
				logger.Error("Failed to start server on address %s", cfg.ListenAddr)
				logger.Cause(err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "server-address", "s", config.DefaultListenAddr, "address the server binds to")
	cmd.Flags().StringVarP(&folder, "folder", "f", config.DefaultStorageDir, "folder where uploads are stored")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log error causes")

	cmd.AddCommand(
		newUploadCommand(),
		newDownloadCommand(),
		newListCommand(),
		newInfoCommand(),
	)

	return cmd
}

// runServer захватывает каталог хранения, поднимает HTTP-сервер и ждёт отмены ctx.
// ready (если задан) вызывается с фактическим адресом после начала прослушивания.
func runServer(ctx context.Context, cfg *config.Config, logger *log.Logger, ready func(addr string)) error {
	m := metrics.New()

	files, err := filesvc.Open(cfg.StorageDir, filesvc.WithLogger(logger), filesvc.WithMetrics(m))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := files.Close(); cerr != nil {
			logger.Warn("release storage lock: %v", cerr)
		}
	}()

	handler, _, err := resthttp.NewServer(cfg, resthttp.Deps{
		Files:   files,
		Logger:  logger,
		Metrics: m,
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server listening on %s", ln.Addr())
	logger.Info("%s", files.Info())
	if ready != nil {
		ready(ln.Addr().String())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Сценарий graceful shutdown при получении SIGTERM/SIGINT.
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err = g.Wait(); err != nil {
		return err
	}

	logger.Info("%s", files.Info())
	return nil
}
