/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jobportal/apiserver/config"
	"github.com/jobportal/apiserver/internal/logger"
	"github.com/jobportal/apiserver/internal/mq"
	"github.com/jobportal/apiserver/internal/notify"
	"github.com/spf13/cobra"
)

var notifierSiteName string

// notifierCmd represents the notifier command
var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Consumes application events and emails applicants",
	Long: `Consumes application.submitted and application.status_changed events
from the configured message queue and sends the applicant emails. Usage:

	jobportal notifier
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger.InitLogger(cfg.LogLevel)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue, err := mq.NewFromConfig(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("notifier needs MQ_BACKEND set to rabbitmq or pubsub")
		}
		defer func() {
			if err := queue.Close(); err != nil {
				logger.Warningf("close mq: %v", err)
			}
		}()

		return notify.New(notify.LogMailer{}, notifierSiteName).Run(ctx, queue)
	},
}

func init() {
	rootCmd.AddCommand(notifierCmd)
	notifierCmd.Flags().StringVar(&notifierSiteName, "site-name", "JobPortal", "name used to sign emails")
}
