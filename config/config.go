package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/angas/sacplot/logging"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type AppConfigPlot struct {
	// Training log, default: logs/train.csv
	TrainFile *string `mapstructure:"train_file"`
	// Evaluation log, default: logs/eval.csv
	EvalFile *string `mapstructure:"eval_file"`
	// Moving average window in rows, 1 or less disables smoothing, default: 1
	Smooth *int `mapstructure:"smooth"`
	// When set the chart is written to this HTML file instead of being served.
	Output string `mapstructure:"output"`
}

func (p AppConfigPlot) GetTrainFile() string {
	if p.TrainFile == nil || *p.TrainFile == "" {
		return "logs/train.csv"
	}
	return *p.TrainFile
}

func (p AppConfigPlot) GetEvalFile() string {
	if p.EvalFile == nil || *p.EvalFile == "" {
		return "logs/eval.csv"
	}
	return *p.EvalFile
}

func (p AppConfigPlot) GetSmooth() int {
	if p.Smooth == nil {
		return 1
	}
	return *p.Smooth
}

type AppConfigApi struct {
	Address *string
	Port    *int
	// If not assigned, the server will serve embedded templates.
	// If assigned, templates are read from the "templates" directory
	// below it and reloaded when they change.
	WwwDir *string `mapstructure:"www_dir"`
	// Key used to sign the session cookie, a random key is used if empty.
	SessionKey string `mapstructure:"session_key"`
}

func (a AppConfigApi) GetAddress() string {
	if a.Address == nil {
		return "127.0.0.1"
	}
	return *a.Address
}

func (a AppConfigApi) GetPort() int {
	if a.Port == nil {
		return 8090
	}
	return *a.Port
}

type AppConfigDatabase struct {
	// SQLite file for log entries and reload snapshots, disabled if empty.
	Path string
}

type AppConfigRefresh struct {
	// Cron spec for re-reading the log file, default: "@every 30s"
	RunAt *string `mapstructure:"run_at"`
	// Debounce for file change events in milliseconds, default: 250
	DebounceMs *int `mapstructure:"debounce_ms"`
}

func (r AppConfigRefresh) GetRunAt() string {
	if r.RunAt == nil {
		return "@every 30s"
	}
	return *r.RunAt
}

func (r AppConfigRefresh) GetDebounceMs() int {
	if r.DebounceMs == nil {
		return 250
	}
	return *r.DebounceMs
}

type AppConfigMqtt struct {
	// Broker host, publishing is disabled if empty.
	Host     string
	Port     int16
	Username string
	Password string
	// Summaries are published to <topic_prefix>/<kind>, default: "sacplot"
	TopicPrefix *string `mapstructure:"topic_prefix"`
}

func (m AppConfigMqtt) GetTopicPrefix() string {
	if m.TopicPrefix == nil {
		return "sacplot"
	}
	return *m.TopicPrefix
}

func (m AppConfigMqtt) GetPort() int16 {
	if m.Port == 0 {
		return 1883
	}
	return m.Port
}

type AppConfigLogging struct {
	// Min log level for database : "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Min log level for console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.LevelFromString(l.DbLevel)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat == nil {
		return logging.LogAttrFormatJSON
	}
	if strings.EqualFold(*l.DbAttrsFormat, "text") {
		return logging.LogAttrFormatText
	}
	return logging.LogAttrFormatJSON
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelFromString(l.ConsoleLevel)
}

type AppConfig struct {
	Plot     AppConfigPlot     `mapstructure:"plot"`
	Api      AppConfigApi      `mapstructure:"api"`
	Database AppConfigDatabase `mapstructure:"database"`
	Refresh  AppConfigRefresh  `mapstructure:"refresh"`
	Mqtt     AppConfigMqtt     `mapstructure:"mqtt"`
	Logging  AppConfigLogging  `mapstructure:"logging"`
}

// Flag names understood by Load. Flags that were not set on the command
// line do not override the config file or environment.
var flagKeys = map[string]string{
	"smooth":    "plot.smooth",
	"output":    "plot.output",
	"addr":      "api.address",
	"port":      "api.port",
	"db":        "database.path",
	"log-level": "logging.console_level",
}

var envKeys = []string{
	"plot.train_file",
	"plot.eval_file",
	"plot.smooth",
	"plot.output",
	"api.address",
	"api.port",
	"api.www_dir",
	"api.session_key",
	"database.path",
	"refresh.run_at",
	"refresh.debounce_ms",
	"mqtt.host",
	"mqtt.port",
	"mqtt.username",
	"mqtt.password",
	"mqtt.topic_prefix",
	"logging.db_level",
	"logging.db_attrs_format",
	"logging.db_max_entries",
	"logging.console_level",
}

// Load reads the config file at path, or config/config.yaml when path is
// empty and such a file exists. Environment variables such as
// SACPLOT_PLOT_SMOOTH and flags set on the command line take precedence.
func Load(path string, flags *pflag.FlagSet) (*AppConfig, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("sacplot")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// AutomaticEnv alone does not reach keys missing from the config file.
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("unable to bind env for %s: %w", key, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("unable to bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	var c AppConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}

	return &c, nil
}
