package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scylladb/go-set/strset"
	"github.com/spf13/cobra"

	"github.com/autobrr/tcm/pkg/config"
	"github.com/autobrr/tcm/pkg/healthcheck"
	"github.com/autobrr/tcm/pkg/logger"
	"github.com/autobrr/tcm/pkg/notification"
)

var flagInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [CLIENT]",
	Short: "Continuously check torrent client for forbidden and unwanted content",
	Long:  `This command polls a torrent clients queue on an interval, removing torrents containing forbidden files and flagging unwanted files to be skipped.`,

	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// init core
		if !initialized {
			initCore(true)
			initialized = true
		}

		// set log
		log := logger.GetLogger("watch")

		// load client and its profile
		clientName := args[0]
		c, cp, err := loadClient(clientName)
		if err != nil {
			log.WithError(err).Fatalf("Failed loading client: %q", clientName)
		}

		log.Infof("Initialized client %q, type: %s", clientName, c.Type())

		noti := notification.NewDiscordSender(log, config.Config.Notifications)

		interval := config.Config.Watch.Interval
		if cmd.Flags().Changed("interval") {
			interval = flagInterval
		}

		hc := healthcheck.New(config.Config.Watch.HealthcheckURL)
		if hc.Enabled() {
			log.Infof("Healthcheck pings enabled: %s", config.Config.Watch.HealthcheckURL)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// torrents already evaluated clean are not re-evaluated
		seen := strset.New()
		connected := false

		runCycle := func() {
			start := time.Now()

			if !connected {
				if err := c.Connect(ctx); err != nil {
					log.WithError(err).Error("Failed connecting, will retry next cycle")
					return
				}

				log.Debugf("Connected to client")
				connected = true
			}

			torrents, err := c.GetTorrents(ctx)
			if err != nil {
				log.WithError(err).Error("Failed retrieving torrents, abandoning cycle")
				connected = false
				return
			}

			log.Debugf("Retrieved %d torrents", len(torrents))

			summary := scrubEligibleTorrents(ctx, log, c, torrents, cp, noti, seen)

			if summary.Removed > 0 || summary.SkippedFiles > 0 || summary.Errors > 0 {
				logSummary(log, summary)
				sendSummary(log, noti, clientName, start, summary)
			}

			if hc.Enabled() {
				if err := hc.Ping(ctx); err != nil {
					log.WithError(err).Warn("Failed pinging healthcheck url")
				}
			}
		}

		log.Infof("Watching every %s", interval)

		runCycle()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("Shutdown requested, stopping...")
				return
			case <-ticker.C:
				runCycle()
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&flagInterval, "interval", 60*time.Second, "Interval between checks")
	watchCmd.Flags().StringVar(&flagProfileName, "profile", "", "Profile to use instead of the client configured profile")
}
