/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"stakeregistry/domain/config"
	"stakeregistry/interface/exporter"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Starts the reward accrual scheduler",
	Long: `Starts the reward accrual scheduler and the metrics endpoint.
To stop it, run 'stop' command or send SIGINT/SIGTERM.`,
	Run: func(cmd *cobra.Command, args []string) {
		defaultDependencyInject()
		defer logger.Sync()

		if err := memoInteractor.ClearStop(); err != nil {
			logger.Fatal("🔴 unable to clear the stop flag", zap.Error(err))
		}

		server := &http.Server{
			Addr:              config.GetMetricsAddress(),
			Handler:           exporter.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("🔴 metrics server failed", zap.Error(err))
			}
		}()

		quit := make(chan bool)
		stopRequested := make(chan bool, 1)
		accrueTicker := schedule(func() { accrue(stopRequested) }, config.GetAccrualInterval(), quit)
		logger.Info("🟢 scheduler started",
			zap.Duration("interval", config.GetAccrualInterval()),
			zap.String("metrics", config.GetMetricsAddress()))

		signal.Ignore()
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-stop:
			logger.Info("got signal, stopping", zap.Stringer("signal", s))
		case <-stopRequested:
			logger.Info("stop requested, stopping")
		}

		accrueTicker.Stop()
		close(quit)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("⚠️ metrics server shutdown", zap.Error(err))
		}
	},
}

// schedule runs task every interval until done is closed. The interval is
// counted from the end of the previous run.
func schedule(task func(), interval time.Duration, done chan bool) *time.Ticker {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {

			case <-ticker.C:
				ticker.Stop()
				task()
				ticker.Reset(interval)

			case <-done:
				return
			}
		}
	}()
	return ticker
}

func accrue(stopRequested chan<- bool) {
	stop, err := memoInteractor.IsStopRequested()
	if err != nil {
		logger.Error("🔴 failed to read the scheduler memo", zap.Error(err))
		return
	}
	if stop {
		select {
		case stopRequested <- true:
		default:
		}
		return
	}

	accrued, err := registrarInteractor.AccrueAll()
	if err != nil {
		logger.Error("🔴 accrual finished with errors", zap.Int("accrued", accrued), zap.Error(err))
	}

	err = memoInteractor.RecordAccrual(time.Now().Unix(), accrued)
	if err != nil {
		logger.Error("🔴 failed to record the accrual", zap.Error(err))
		return
	}
	logger.Debug("🟢 accrual done", zap.Int("accrued", accrued))
}

func init() {
	rootCmd.AddCommand(startCmd)
}
