package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"tierswap/pkg/logging"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		rf          regionFlags
		fill        uint8
		verify      bool
		writeBack   bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Plan and execute a swap against the configured stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, err := openSystem(cmd, opts)
			if err != nil {
				return err
			}
			defer sys.Close()

			from, to, region, err := rf.resolve(sys)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("fill") {
				if err := from.WriteRegion(region.Start, bytes.Repeat([]byte{fill}, int(region.Length))); err != nil {
					return err
				}
				logging.Debug("filled region", "state", from.Name(), "region", region.String(), "byte", fill)
			}

			start := time.Now()
			op, err := sys.Swap(cmd.Context(), region, from, to)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderOperation(op))
			fmt.Fprintln(out, successStyle.Render("done")+" "+mutedStyle.Render(fmt.Sprintf(
				"%d steps, %d fields moved in %s", op.Len(), op.FieldsMoved(), elapsed.Round(time.Microsecond))))

			if verify {
				src, err := sys.Digest(from, op.Window)
				if err != nil {
					return err
				}
				dst, err := sys.Digest(to, op.TargetWindow())
				if err != nil {
					return err
				}
				if src != dst {
					logging.Warn("digest mismatch", "operation", op.ID.String(), "source", src.String(), "target", dst.String())
					fmt.Fprintln(out, errorStyle.Render("mismatch")+" "+src.String()+" != "+dst.String())
					return fmt.Errorf("digest of %s %s differs from %s %s", from, op.Window, to, op.TargetWindow())
				}
				fmt.Fprintln(out, successStyle.Render("verified")+" "+mutedStyle.Render("blake3 "+src.String()))
			}

			if writeBack {
				back, err := sys.WriteBack(cmd.Context(), op)
				if err != nil {
					logging.Error("write-back failed", "operation", op.ID.String(), "error", err)
					return err
				}
				logging.Info("wrote back", "operation", back.ID.String(), "reverses", op.ID.String())
				fmt.Fprintln(out, renderOperation(back))
				fmt.Fprintln(out, successStyle.Render("written back")+" "+mutedStyle.Render(fmt.Sprintf(
					"%d fields to %s %s", back.FieldsMoved(), back.To, back.TargetWindow())))
			}

			if metricsAddr != "" {
				return serveMetrics(cmd.Context(), metricsAddr)
			}
			return nil
		},
	}

	rf.register(cmd)
	cmd.Flags().Uint8Var(&fill, "fill", 0, "write this byte over the region before swapping")
	cmd.Flags().BoolVar(&verify, "verify", false, "compare blake3 digests of the source and target windows")
	cmd.Flags().BoolVar(&writeBack, "write-back", false, "after swapping, return the target window to where it came from")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address until interrupted")
	return cmd
}

// serveMetrics exposes /metrics until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logging.WithComponent("swapctl").Info("serving metrics", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
