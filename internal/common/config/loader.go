package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like RECAPTCHA_SECRET_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored when absent
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.App.Environment == "" {
		cfg.App.Environment = env
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or the project root so
// the binary behaves the same whether run from the repo root or cmd/.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig pulls secrets straight from the environment when the
// yaml left them empty. Secrets never have hardcoded defaults.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Captcha.SecretKey == "" {
		if val := os.Getenv("RECAPTCHA_SECRET_KEY"); val != "" {
			cfg.Captcha.SecretKey = val
		}
	}

	if cfg.Email.APIKey == "" {
		if val := os.Getenv("EMAIL_API_KEY"); val != "" {
			cfg.Email.APIKey = val
		}
	}
	if cfg.Email.ContactEmail == "" {
		if val := os.Getenv("CONTACT_EMAIL"); val != "" {
			cfg.Email.ContactEmail = val
		}
	}
	if cfg.Email.FromEmail == "" {
		if val := os.Getenv("EMAIL_FROM"); val != "" {
			cfg.Email.FromEmail = val
		}
	}

	if len(cfg.Server.AllowedOrigins) == 0 {
		if val := os.Getenv("ALLOWED_ORIGIN"); val != "" {
			cfg.Server.AllowedOrigins = strings.Split(val, ",")
		}
	}

	if cfg.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Redis.Address = val
		}
	}
	if cfg.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Redis.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "quote-api"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.RateLimit.WindowMinutes == 0 {
		cfg.RateLimit.WindowMinutes = 10
	}
	if cfg.RateLimit.MaxRequests == 0 {
		cfg.RateLimit.MaxRequests = 5
	}

	if cfg.Captcha.VerifyURL == "" {
		cfg.Captcha.VerifyURL = "https://www.google.com/recaptcha/api/siteverify"
	}
	if cfg.Captcha.Timeout == 0 {
		cfg.Captcha.Timeout = 10000
	}

	if cfg.Email.Provider == "" {
		cfg.Email.Provider = "http"
	}
	if cfg.Email.Endpoint == "" {
		cfg.Email.Endpoint = "https://api.resend.com/emails"
	}
	if cfg.Email.Timeout == 0 {
		cfg.Email.Timeout = 10000
	}
	if cfg.Email.AWSRegion == "" {
		cfg.Email.AWSRegion = "eu-west-3"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// validateConfig validates critical configuration fields. Secrets are not
// validated here: an absent CAPTCHA secret disables enforcement and absent
// email credentials fail closed at dispatch time only.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid port, got %d", cfg.Server.Port)
	}
	if cfg.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("rate_limit.max_requests must be positive")
	}
	if cfg.RateLimit.WindowMinutes <= 0 {
		return fmt.Errorf("rate_limit.window_minutes must be positive")
	}
	if cfg.Email.Provider != "http" && cfg.Email.Provider != "ses" {
		return fmt.Errorf("email.provider must be \"http\" or \"ses\", got %q", cfg.Email.Provider)
	}
	return nil
}
