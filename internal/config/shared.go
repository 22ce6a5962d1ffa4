package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port            string `mapstructure:"port"`
		TempDir         string `mapstructure:"temp_dir"`
		PollingInterval int    `mapstructure:"polling_interval_seconds"`
		MetricsPort     string `mapstructure:"metrics_port"`
		LogLevel        string `mapstructure:"log_level"`
	} `mapstructure:"server"`
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
	Storage struct {
		Provider      string `mapstructure:"provider"`
		LocalPath     string `mapstructure:"local_path"`
		KeyID         string `mapstructure:"key_id"`
		AppKey        string `mapstructure:"app_key"`
		Endpoint      string `mapstructure:"endpoint"`
		Region        string `mapstructure:"region"`
		BucketIngest  string `mapstructure:"bucket_ingest"`
		BucketArchive string `mapstructure:"bucket_archive"`
	} `mapstructure:"storage"`
	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"`
	} `mapstructure:"auth"`
	// Client settings are read by the player and by anything else that talks
	// to the API as a viewer.
	Client struct {
		APIURL              string `mapstructure:"api_url"`
		Token               string `mapstructure:"token"`
		CommentsPollSeconds int    `mapstructure:"comments_poll_seconds"`
		MeterInterval       int    `mapstructure:"meter_interval_seconds"`
		MeterRetries        int    `mapstructure:"meter_retries"`
		MeterTimeout        int    `mapstructure:"meter_timeout_seconds"`
		MeterKeepAlive      bool   `mapstructure:"meter_keep_alive"`
	} `mapstructure:"client"`
}

// MeterInterval returns the configured periodic sync interval.
func (c *Config) MeterInterval() time.Duration {
	return time.Duration(c.Client.MeterInterval) * time.Second
}

// MeterTimeout returns the per-attempt timeout for meter syncs.
func (c *Config) MeterTimeout() time.Duration {
	return time.Duration(c.Client.MeterTimeout) * time.Second
}

func (c *Config) CommentsPollInterval() time.Duration {
	return time.Duration(c.Client.CommentsPollSeconds) * time.Second
}

func Load() *Config {
	v := viper.New()
	cfg, err := load(v)
	if err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	if cfg.Storage.Provider == "s3" && cfg.Storage.KeyID == "" {
		log.Fatal("Critical: S3 KeyID is missing (MOMO_STORAGE_KEY_ID)")
	}

	return cfg
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("MOMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Register keys
	for _, key := range []string{
		"server.port",
		"server.temp_dir",
		"server.polling_interval_seconds",
		"server.metrics_port",
		"server.log_level",

		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.name",

		"storage.provider",
		"storage.local_path",
		"storage.key_id",
		"storage.app_key",
		"storage.endpoint",
		"storage.region",
		"storage.bucket_ingest",
		"storage.bucket_archive",

		"auth.jwt_secret",

		"client.api_url",
		"client.token",
		"client.comments_poll_seconds",
		"client.meter_interval_seconds",
		"client.meter_retries",
		"client.meter_timeout_seconds",
		"client.meter_keep_alive",
	} {
		v.BindEnv(key)
	}

	// Defaults
	v.SetDefault("server.port", ":8081")
	v.SetDefault("server.polling_interval_seconds", 10)
	v.SetDefault("server.temp_dir", "/tmp/")
	v.SetDefault("server.metrics_port", ":9091")
	v.SetDefault("server.log_level", "error")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")

	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.local_path", "./data")
	v.SetDefault("storage.bucket_ingest", "vod-ingest")
	v.SetDefault("storage.bucket_archive", "vod-archive")

	v.SetDefault("auth.jwt_secret", "super-secret-vod-key-change-me")

	// Client defaults mirror what the web player ships with
	v.SetDefault("client.api_url", "http://localhost:8081")
	v.SetDefault("client.comments_poll_seconds", 30)
	v.SetDefault("client.meter_interval_seconds", 10)
	v.SetDefault("client.meter_retries", 5)
	v.SetDefault("client.meter_timeout_seconds", 5)
	v.SetDefault("client.meter_keep_alive", true)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("../")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Config error: %s", err)
		} else {
			log.Println("Info: config.yaml not found, using Environment Variables only.")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
