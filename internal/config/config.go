package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Email    EmailConfig    `mapstructure:"email"`
	Reset    ResetConfig    `mapstructure:"reset"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// JWTConfig defines JWT specific configuration.
// Expiration must be a duration string in config ("1h", "60m").
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// LLMConfig defines the chat-completion provider settings.
type LLMConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	AppURL   string        `mapstructure:"app_url"`   // sent as HTTP-Referer
	AppTitle string        `mapstructure:"app_title"` // sent as X-Title
	Timeout  time.Duration `mapstructure:"timeout"`
}

// EmailConfig defines outbound SMTP settings. When Host or Username is empty
// the application falls back to a console mailer.
type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	UseSSL   bool   `mapstructure:"use_ssl"` // true for 465, false for 587/STARTTLS
}

// ResetConfig defines the password-reset flow settings.
type ResetConfig struct {
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	BaseURL  string        `mapstructure:"base_url"` // reset link prefix shown in the email
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Environment variable handling: nested keys map to underscored env vars,
	// e.g. server.address -> SERVER_ADDRESS, llm.api_key -> LLM_API_KEY.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	// Keys with no default are invisible to Unmarshal under AutomaticEnv
	// alone, so the secret-bearing keys are bound explicitly. Without this,
	// JWT_SECRET or LLM_API_KEY set in the environment would be ignored
	// unless a config file also mentioned them.
	for _, key := range []string{
		"jwt.secret",
		"llm.api_key",
		"email.host",
		"email.username",
		"email.password",
		"email.from",
	} {
		if err := viper.BindEnv(key); err != nil {
			return config, err
		}
	}

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "bmi_coach")
	viper.SetDefault("jwt.expiration", "1h")
	viper.SetDefault("llm.endpoint", "https://openrouter.ai/api/v1/chat/completions")
	viper.SetDefault("llm.model", "meta-llama/llama-3.1-8b-instruct")
	viper.SetDefault("llm.app_url", "http://localhost:8080")
	viper.SetDefault("llm.app_title", "BMI Coach")
	viper.SetDefault("llm.timeout", "45s")
	viper.SetDefault("email.port", 465)
	viper.SetDefault("email.use_ssl", true)
	viper.SetDefault("reset.token_ttl", "30m")
	viper.SetDefault("reset.base_url", "http://localhost:8080/reset")

	err = viper.ReadInConfig()
	// A missing config file is fine; env vars and defaults still apply.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}
