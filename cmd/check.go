package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/autobrr/tcm/pkg/config"
	"github.com/autobrr/tcm/pkg/logger"
	"github.com/autobrr/tcm/pkg/notification"
)

var checkCmd = &cobra.Command{
	Use:   "check [CLIENT]",
	Short: "Check torrent client for forbidden and unwanted content",
	Long:  `This command runs a single pass over a torrent clients queue, removing torrents containing forbidden files and flagging unwanted files to be skipped.`,

	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// init core
		if !initialized {
			initCore(true)
			initialized = true
		}

		// set log
		log := logger.GetLogger("check")

		ctx := cmd.Context()
		start := time.Now()

		// load client and its profile
		clientName := args[0]
		c, cp, err := loadClient(clientName)
		if err != nil {
			log.WithError(err).Fatalf("Failed loading client: %q", clientName)
		}

		log.Infof("Initialized client %q, type: %s", clientName, c.Type())

		noti := notification.NewDiscordSender(log, config.Config.Notifications)

		// connect to client
		if err := c.Connect(ctx); err != nil {
			log.WithError(err).Fatal("Failed connecting")
		} else {
			log.Debugf("Connected to client")
		}

		// retrieve torrents
		torrents, err := c.GetTorrents(ctx)
		if err != nil {
			log.WithError(err).Fatal("Failed retrieving torrents")
		} else {
			log.Infof("Retrieved %d torrents", len(torrents))
		}

		// evaluate torrents
		summary := scrubEligibleTorrents(ctx, log, c, torrents, cp, noti, nil)

		logSummary(log, summary)
		sendSummary(log, noti, clientName, start, summary)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&flagProfileName, "profile", "", "Profile to use instead of the client configured profile")
}
