// Package config loads process configuration from file, environment and
// defaults through viper.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/mishradev1/Dev-PlotTest/helpers"
	"github.com/mishradev1/Dev-PlotTest/logging"
)

// Storage backends.
const (
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// EnvPrefix prefixes every environment override, e.g. PLOTDATA_STORAGE_PATH.
const EnvPrefix = "PLOTDATA"

type Storage struct {
	Backend   string `mapstructure:"backend"`
	Path      string `mapstructure:"path"`
	CacheSize int    `mapstructure:"cache_size"`
}

type Server struct {
	ListenAddress string        `mapstructure:"listen_address"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
}

type Ingest struct {
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
	NullTokens     []string `mapstructure:"null_tokens"`
}

// Cfg is the full process configuration.
type Cfg struct {
	Storage          Storage        `mapstructure:"storage"`
	Server           Server         `mapstructure:"server"`
	Ingest           Ingest         `mapstructure:"ingest"`
	Logger           logging.Config `mapstructure:"logger"`
	EnablePrometheus bool           `mapstructure:"enable_prometheus"`
}

// New returns a viper instance with defaults, search paths and env binding
// set up. Callers may bind flags on it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetConfigName("plotdata")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs/")
	v.AddConfigPath("/etc/plotdata/")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", BackendBolt)
	v.SetDefault("storage.path", "plotdata.db")
	v.SetDefault("storage.cache_size", 256)

	v.SetDefault("server.listen_address", ":8080")
	v.SetDefault("server.read_timeout", "30s")

	v.SetDefault("ingest.max_upload_bytes", 10<<20)
	v.SetDefault("ingest.null_tokens", helpers.DefaultNullTokens)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.disable_timestamp", false)

	v.SetDefault("enable_prometheus", true)
}

// Load reads the config file if one is found and decodes everything into
// Cfg. A missing file is not an error; defaults and env apply.
func Load(v *viper.Viper) (Cfg, error) {
	var cfg Cfg

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, errors.Wrap(err, "read config")
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values viper cannot type-check.
func (c Cfg) Validate() error {
	switch c.Storage.Backend {
	case BackendBolt:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the bolt backend")
		}
	case BackendMemory:
	default:
		return errors.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Server.ReadTimeout < 0 {
		return errors.New("server.read_timeout must not be negative")
	}
	return nil
}
