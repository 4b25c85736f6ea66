package config

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Mapstructure tags are used to map environment variables and config file keys.
type Config struct {
	// Server Configuration
	ServerAddress string `mapstructure:"SERVER_ADDRESS"` // e.g., ":8080"
	// PublicBaseURL is the externally visible base URL for short links,
	// e.g. "https://go.example.com". Defaults to http://localhost + port.
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`

	// AI Configuration
	OpenAIKey string `mapstructure:"OPENAI_API_KEY"` // API key for OpenAI
	ModelID   string `mapstructure:"MODEL_ID"`       // e.g., "gpt-4o"

	// Hosting Provider Configuration
	ProviderAPIURL string `mapstructure:"PROVIDER_API_URL"` // Deployment API root, e.g. "https://api.provider.com/v1"
	ProviderToken  string `mapstructure:"PROVIDER_TOKEN"`   // Bearer credential for the deployment API
	ProviderSiteID string `mapstructure:"PROVIDER_SITE_ID"` // Site/account scope for all deployments

	// Short Link Store Configuration
	ShortlinkDBPath string `mapstructure:"SHORTLINK_DB_PATH"` // SQLite file path, e.g. "shortlinks.db"

	// Rate Limiting Configuration
	RateLimitMax           int `mapstructure:"RATE_LIMIT_MAX"`            // Requests per window per client
	RateLimitWindowSeconds int `mapstructure:"RATE_LIMIT_WINDOW_SECONDS"` // Window length in seconds

	// Deployment Polling Configuration
	DeployTimeoutSeconds int `mapstructure:"DEPLOY_TIMEOUT_SECONDS"` // Overall poll budget in seconds
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)     // Path to look for the config file in
	viper.SetConfigName("config") // Name of config file (without extension)
	viper.SetConfigType("yaml")

	viper.AutomaticEnv() // Read environment variables that match keys

	// Unmarshal only sees keys viper knows about, so bind the env-only
	// fields that have no default.
	for _, key := range []string{
		"OPENAI_API_KEY", "MODEL_ID",
		"PROVIDER_API_URL", "PROVIDER_TOKEN", "PROVIDER_SITE_ID",
		"PUBLIC_BASE_URL",
	} {
		_ = viper.BindEnv(key)
	}

	// Defaults for everything that has a sensible one.
	viper.SetDefault("SERVER_ADDRESS", ":8080")
	viper.SetDefault("SHORTLINK_DB_PATH", "shortlinks.db")
	viper.SetDefault("RATE_LIMIT_MAX", 10)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("DEPLOY_TIMEOUT_SECONDS", 90)

	// Attempt to read the config file
	err = viper.ReadInConfig()
	if err != nil {
		// If config file not found, continue on env vars alone.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file ('config.yaml') not found in specified path, relying solely on environment variables.")
		} else {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		log.Printf("Using configuration file: %s", viper.ConfigFileUsed())
	}

	// Unmarshal the configuration into the Config struct
	err = viper.Unmarshal(&config)
	if err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if config.PublicBaseURL == "" {
		config.PublicBaseURL = "http://localhost" + config.ServerAddress
	}

	// Validate required fields.
	if config.OpenAIKey == "" {
		return Config{}, errors.New("OPENAI_API_KEY is required")
	}
	if config.ProviderAPIURL == "" {
		return Config{}, errors.New("PROVIDER_API_URL is required")
	}
	if config.ProviderToken == "" {
		return Config{}, errors.New("PROVIDER_TOKEN is required")
	}
	if config.ProviderSiteID == "" {
		return Config{}, errors.New("PROVIDER_SITE_ID is required")
	}

	return
}
