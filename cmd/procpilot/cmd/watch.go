package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/voluzi/procpilot/internal/config"
	"github.com/voluzi/procpilot/pkg/procwatcher"
	"github.com/voluzi/procpilot/pkg/statsrecorder"
	"github.com/voluzi/procpilot/pkg/statusserver"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watches the process table and records metrics for configured processes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
			log.SetLevel(level)
		}

		sched := statsrecorder.NewScheduler(
			statsrecorder.WithSampleInterval(cfg.SampleInterval.Duration),
		)
		watcher := procwatcher.New(
			procwatcher.WithPollInterval(cfg.PollInterval.Duration),
		)

		rec := newRecorder(cfg, sched)
		watcher.Subscribe(rec)

		if !watcher.StartWatching() {
			return errors.New("watcher already running")
		}

		var server *statusserver.Server
		if cfg.StatusServer.Enabled {
			server = statusserver.New(watcher, sched,
				statusserver.WithHost(cfg.StatusServer.Host),
				statusserver.WithPort(cfg.StatusServer.Port),
			)
			go func() {
				if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.WithError(err).Error("status server failed")
				}
			}()
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		if configFile != "" {
			go func() {
				if err := config.Watch(ctx, configFile, rec.setConfig); err != nil {
					log.WithError(err).Warn("config watch stopped")
				}
			}()
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Infof("received signal: %v", sig)

		watcher.StopWatching()
		rec.drain()
		sched.Shutdown()

		if server != nil {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := server.Stop(shutdownCtx); err != nil {
				log.WithError(err).Error("failed to stop status server")
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
