package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/autobrr/tcm/pkg/config"
	"github.com/autobrr/tcm/pkg/logger"
	"github.com/autobrr/tcm/pkg/paths"
	"github.com/autobrr/tcm/pkg/runtime"
	"github.com/autobrr/tcm/pkg/stringutils"
)

var (
	// Global flags
	flagLogLevel    = 0
	flagConfigFile  = "config.yaml"
	flagLogFile     = "activity.log"
	flagProfileName string
	flagDryRun      bool

	initialized bool

	// Global logger
	log = logger.GetLogger("app")
)

var rootCmd = &cobra.Command{
	Use:   "tcm",
	Short: "A CLI torrent content monitor",
	Long: `A CLI tool to monitor the file lists of torrents in a remote torrent client,
removing torrents that contain forbidden files and flagging unwanted files to be skipped.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Parse persistent flags
	rootCmd.PersistentFlags().StringVarP(&flagConfigFile, "config", "c", "config.yaml", "Config file")
	rootCmd.PersistentFlags().StringVarP(&flagLogFile, "log", "l", "activity.log", "Log file")
	rootCmd.PersistentFlags().CountVarP(&flagLogLevel, "verbose", "v", "Verbose count (-v by itself is debug, -vv is trace)")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "Dry run mode")
}

func initCore(showAppInfo bool) {
	// Set core variables
	if !rootCmd.PersistentFlags().Changed("config") {
		flagConfigFile = filepath.Join(paths.GetCurrentBinaryPath(), flagConfigFile)
	}
	if !rootCmd.PersistentFlags().Changed("log") {
		flagLogFile = filepath.Join(paths.GetCurrentBinaryPath(), flagLogFile)
	}

	// Init Logging
	if err := logger.Init(flagLogLevel, flagLogFile); err != nil {
		log.WithError(err).Fatal("Failed initializing logger")
	}

	// Init Config
	if err := config.Init(flagConfigFile); err != nil {
		log.WithError(err).Fatal("Failed initializing config")
	}

	// Show app info
	if showAppInfo {
		showUsing()
	}
}

func showUsing() {
	log.Infof("Using %s = %s (%s@%s)", stringutils.LeftJust("VERSION", " ", 10),
		runtime.Version, runtime.GitCommit, runtime.Timestamp)
	logger.ShowUsing()
	config.ShowUsing()
}
