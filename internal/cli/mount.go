package cli

import (
	"context"
	"errors"
	"net/http"
	"os/exec"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/brettbedarf/vfs/internal/metrics"
	"github.com/brettbedarf/vfs/internal/util"
	"github.com/brettbedarf/vfs/server"
	"github.com/brettbedarf/vfs/store"
)

func mountCmd(o *rootOptions) *cobra.Command {
	var umount bool
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "mount <mountpoint>",
		Short: "Mount a read-only snapshot of the container",
		Long: `Mount a read-only snapshot of the container with FUSE. The mount serves
the tree as it was when the command started and stays up until interrupted.`,
		Example: `  vfs -c store.vfs mount /mnt/store
  vfs -c store.vfs mount /mnt/store --metrics-addr localhost:9090`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mountImpl(cmd.Context(), o, args[0], umount, metricsAddr)
		},
	}

	cmd.Flags().BoolVarP(&umount, "umount", "u", false,
		"unmount the mountpoint first if needed. Useful for debuggers that don't exit properly.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	return cmd
}

func mountImpl(ctx context.Context, o *rootOptions, mnt string, umount bool, metricsAddr string) error {
	logger := util.GetLogger("cli.mount")

	// Try unmount if requested
	if umount {
		// we ignore error here if not already mounted
		_ = exec.Command("fusermount", "-u", mnt).Run()
	}

	reg := prometheus.NewRegistry()
	s, err := o.open(store.WithMetrics(metrics.New(reg)))
	if err != nil {
		return err
	}
	defer s.Close()

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		srv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", metricsAddr).Msg("Metrics server failed")
			}
		}()
		defer srv.Close()
	}

	fs := server.New(s.Root(), o.cfg)
	if err := fs.Serve(mnt); err != nil {
		return err
	}
	logger.Info().Str("mountpoint", mnt).Str("container", s.Path()).Msg("Filesystem mounted successfully")

	unmounted := make(chan struct{})
	go func() {
		fs.Wait()
		close(unmounted)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Received signal, unmounting filesystem")
		if err := fs.Unmount(); err != nil {
			logger.Error().Err(err).Msg("Failed to unmount filesystem")
			return err
		}
		<-unmounted
	case <-unmounted:
	}
	logger.Info().Msg("Filesystem unmounted successfully")
	return nil
}
