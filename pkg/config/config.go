package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/autobrr/tcm/pkg/logger"
	"github.com/autobrr/tcm/pkg/stringutils"
)

type WatchConfig struct {
	Interval       time.Duration `yaml:"interval" koanf:"interval"`
	HealthcheckURL string        `yaml:"healthcheck_url" koanf:"healthcheck_url"`
}

type Configuration struct {
	Clients       map[string]map[string]interface{}
	Profiles      map[string]ProfileConfiguration
	Watch         WatchConfig
	Notifications NotificationsConfig
}

/* Vars */

var (
	cfgPath = ""

	Delimiter = "."
	Config    *Configuration
	K         = koanf.New(Delimiter)

	// Internal
	log = logger.GetLogger("cfg")
)

/* Public */

func Init(configFilePath string) error {
	// set package variables
	cfgPath = configFilePath

	// load config
	if err := K.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
		return fmt.Errorf("load file: %w", err)
	}

	// load environment variables
	if err := K.Load(env.Provider("TCM__", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "TCM__")), "_", ".", -1)
	}), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	// unmarshal config
	if err := K.Unmarshal("", &Config); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	// default to one pass a minute
	if Config.Watch.Interval <= 0 {
		Config.Watch.Interval = 60 * time.Second
	}

	return nil
}

func ShowUsing() {
	log.Infof("Using %s = %q", stringutils.LeftJust("CONFIG", " ", 10), cfgPath)
}
