package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/py-react/cloud-ops-sub002/internal/app"
	"github.com/py-react/cloud-ops-sub002/internal/config"
	"github.com/py-react/cloud-ops-sub002/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		sourceControl, err := app.SourceControl(cfg, log.Logger)
		if err != nil {
			return err
		}
		srvConfig := &server.Config{
			Port:          cfg.Port,
			DatabasePath:  cfg.DatabasePath,
			Logger:        log.Logger,
			PodDefaults:   app.PodDefaults(cfg),
			SourceControl: sourceControl,
		}
		dockerRunner, err := app.Runner(cfg)
		if err != nil {
			return err
		}
		if dockerRunner != nil {
			defer dockerRunner.Close()
			srvConfig.Runner = dockerRunner
		}

		srv := server.New(srvConfig)
		chSignal := make(chan os.Signal, 1)
		signal.Notify(chSignal, os.Interrupt, syscall.SIGTERM)

		wg := &sync.WaitGroup{}
		wg.Go(func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				srvConfig.Logger.Fatal().Err(err).Msg("server error")
			}
		})

		sig := <-chSignal
		srvConfig.Logger.Info().Str("signal", sig.String()).Msg("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			srvConfig.Logger.Error().Err(err).Msg("error during server shutdown")
		}

		wg.Wait()
		srvConfig.Logger.Info().Msg("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("database", "./cloudops.db", "SQLite database file")
	_ = v.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	_ = v.BindPFlag("database_path", serveCmd.Flags().Lookup("database"))
}
