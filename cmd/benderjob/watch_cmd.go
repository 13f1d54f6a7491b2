// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/benderfarm/benderjob/internal/config"
	xglog "github.com/benderfarm/benderjob/internal/log"
	"github.com/benderfarm/benderjob/internal/watch"
)

func newWatchCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	var (
		metricsAddr string
		pipeline    bool
		chunkSize   int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the upload root and create descriptors for new uploads",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc := &watch.Service{
				Cfg:       cfg,
				Pipeline:  pipeline,
				ChunkSize: chunkSize,
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return svc.Run(ctx)
			})

			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				srv := &http.Server{
					Addr:              metricsAddr,
					Handler:           mux,
					ReadHeaderTimeout: 5 * time.Second,
				}
				g.Go(func() error {
					xglog.WithComponent("metrics").Info().Str("addr", metricsAddr).Msg("serving metrics")
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				})
				g.Go(func() error {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				})
			}

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address (empty = off)")
	cmd.Flags().BoolVar(&pipeline, "pipeline", false, "drive new descriptors through validate, scan and atomize")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 1, "frames per task when atomizing animations")
	return cmd
}
