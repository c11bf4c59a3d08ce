// Package config loads command line settings from defaults, an optional
// randsample.yaml and RANDSAMPLE_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Gdal    GdalConfig    `mapstructure:"gdal"`
	Raster  RasterConfig  `mapstructure:"raster"`
	S3      S3Config      `mapstructure:"s3"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	PostGIS PostGISConfig `mapstructure:"postgis"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GdalConfig struct {
	Command string        `mapstructure:"command"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RasterConfig.NoData stays nil unless set, so the raster's own tag applies.
type RasterConfig struct {
	NoData *float64 `mapstructure:"nodata"`
}

type S3Config struct {
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type MetricsConfig struct {
	File string `mapstructure:"file"`
}

type PostGISConfig struct {
	Table string `mapstructure:"table"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")
	v.SetDefault("gdal.command", "gdallocationinfo")
	v.SetDefault("gdal.timeout", 30*time.Second)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("metrics.file", "")
	v.SetDefault("postgis.table", "random_sample")
}

// New returns a viper instance with defaults and environment binding. An empty
// path looks for randsample.yaml in the working directory and ignores a missing
// file; an explicit path must exist.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("randsample")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		_ = v.ReadInConfig() // OK if missing
	}

	// RANDSAMPLE_GDAL_COMMAND -> gdal.command
	v.SetEnvPrefix("RANDSAMPLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// keys without a default are only unmarshalled from the environment when bound
	if err := v.BindEnv("raster.nodata"); err != nil {
		return nil, err
	}
	return v, nil
}

// Decode unmarshals and validates the settings held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	v, err := New(path)
	if err != nil {
		return nil, err
	}
	return Decode(v)
}

func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Log.Format) {
	case "auto", "json", "console", "text", "":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be auto, json or console, got %q", c.Log.Format))
	}
	if c.Gdal.Command == "" {
		errs = append(errs, "gdal.command is required")
	}
	if c.Gdal.Timeout <= 0 {
		errs = append(errs, "gdal.timeout must be positive")
	}
	if (c.S3.AccessKey == "") != (c.S3.SecretKey == "") {
		errs = append(errs, "s3.access_key and s3.secret_key must be set together")
	}
	if c.PostGIS.Table == "" {
		errs = append(errs, "postgis.table is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
