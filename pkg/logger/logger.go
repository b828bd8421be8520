package logger

import (
	"io"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/autobrr/tcm/pkg/stringutils"
)

var (
	log = logrus.StandardLogger()

	loggingFilePath string
)

func Init(logLevel int, logFilePath string) error {
	// set log level
	switch logLevel {
	case 0:
		log.SetLevel(logrus.InfoLevel)
	case 1:
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetLevel(logrus.TraceLevel)
	}

	// set log formatter
	log.SetFormatter(&prefixed.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	})

	// set log output
	if logFilePath != "" {
		loggingFilePath = logFilePath

		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   logFilePath,
			MaxSize:    5,
			MaxAge:     14,
			MaxBackups: 5,
		}))
	}

	return nil
}

func ShowUsing() {
	if loggingFilePath != "" {
		log.Infof("Using %s = %q", stringutils.LeftJust("LOG", " ", 10), loggingFilePath)
	}
}

func GetLogger(prefix string) *logrus.Entry {
	if len(prefix) == 0 {
		return logrus.NewEntry(log)
	}

	return log.WithField("prefix", prefix)
}
