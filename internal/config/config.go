package config

import (
	"log"

	"github.com/spf13/viper"
)

type Server struct {
	Port string `mapstructure:"port"`
}

type Provider struct {
	BaseURL     string `mapstructure:"base-url"`
	CallbackURL string `mapstructure:"callback-url"`
	TimeoutMs   int    `mapstructure:"timeout-ms"`
}

type Pricing struct {
	AmountCents int    `mapstructure:"amount-cents"`
	Currency    string `mapstructure:"currency"`
}

type Facebook struct {
	GraphBaseURL string `mapstructure:"graph-base-url"`
	PixelID      string `mapstructure:"pixel-id"`
	TimeoutMs    int    `mapstructure:"timeout-ms"`
}

type Reporter struct {
	Parallelism int `mapstructure:"parallelism"`
}

type Metrics struct {
	URL          string `mapstructure:"url"`
	IntervalMs   int    `mapstructure:"interval-ms"`
	CommonLabels string `mapstructure:"common-labels"`
}

type Logs struct {
	URL string `mapstructure:"url"`
}

type Config struct {
	Server   Server   `mapstructure:"server"`
	Provider Provider `mapstructure:"provider"`
	Pricing  Pricing  `mapstructure:"pricing"`
	Facebook Facebook `mapstructure:"facebook"`
	Reporter Reporter `mapstructure:"reporter"`
	Metrics  Metrics  `mapstructure:"metrics"`
	Logs     Logs     `mapstructure:"logs"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func MustLoadConfig(path string) *Config {
	config, err := LoadConfig(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return config
}
