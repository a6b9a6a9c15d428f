// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	configPath        = pflag.String("config", ".", "Directory containing config.toml")
	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validEnvs         = []string{"development", "production", "test"}
	validStorageTypes = []string{"s3", "local"}
	validDrivers      = []string{"sqlite", "postgres"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// SetDefaults registers every default value. It's split from Setup so tests
// can get a working configuration without a config file.
func SetDefaults() {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.cors", []string{"http://localhost:5173"})
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "startupconnect.db")

	v.SetDefault("jwt.ttl_hours", 24*7)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "uploads")

	v.SetDefault("upload.max_size", 10)
	v.SetDefault("upload.allowed_types", []string{"application/pdf", "image/png", "image/jpeg"})

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)

	v.SetDefault("security.rate_limit", 20)

	v.SetDefault("notification.workers", 2)
	v.SetDefault("notification.buffer", 256)

	v.SetDefault("verification.resend_cooldown", "60s")
	v.SetDefault("verification.cleanup_schedule", "@daily")

	v.SetDefault("turnstile.enabled", false)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configPath)

	v.AutomaticEnv()

	//
	// ENVS
	//
	for _, key := range []string{
		"app.env", "app.log_level",
		"host.port", "host.domain", "host.cors",
		"host.ssl.enabled", "host.ssl.certificate_path", "host.ssl.certificate_key_path",
		"db.driver", "db.dsn",
		"jwt.secret", "jwt.ttl_hours",
		"storage.type", "storage.local_path",
		"aws.region", "aws.access_key", "aws.secret_access_key", "aws.bucket", "aws.endpoint", "aws.path_style",
		"upload.max_size", "upload.allowed_types",
		"mail.enabled", "mail.host", "mail.port", "mail.sender_address", "mail.password",
		"security.rate_limit",
		"notification.workers", "notification.buffer",
		"verification.resend_cooldown", "verification.cleanup_schedule",
		"turnstile.enabled", "turnstile.secret_token",
	} {
		v.BindEnv(key, envName(key))
	}

	SetDefaults()

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file, %w", err)
		}

		zap.L().Warn("config.toml not found, using defaults and environment")
	}

	if err := Validate(); err != nil {
		return err
	}

	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}

// Validate checks the loaded values. Upload size is still in megabytes here.
func Validate() error {
	if !slices.Contains(validEnvs, v.GetString("app.env")) {
		return errors.New("invalid app.env provided")
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetBool("host.ssl.enabled") {
		if v.GetString("host.ssl.certificate_path") == "" {
			return errors.New("no ssl certificate path provided")
		}

		if v.GetString("host.ssl.certificate_key_path") == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	if !slices.Contains(validDrivers, v.GetString("db.driver")) {
		return errors.New("invalid db.driver provided")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("db.dsn can't be empty")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	switch v.GetString("storage.type") {
	case "s3":
		if v.GetString("aws.access_key") == "" {
			return errors.New("aws access key can't be empty")
		}
		if v.GetString("aws.secret_access_key") == "" {
			return errors.New("aws secret access key can't be empty")
		}
		if v.GetString("aws.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
	case "local":
		if v.GetString("storage.local_path") == "" {
			return errors.New("storage.local_path can't be empty")
		}
	}

	if !slices.Contains(validStorageTypes, v.GetString("storage.type")) {
		return errors.New("invalid storage type provided")
	}

	if v.GetBool("mail.enabled") {
		if v.GetString("mail.host") == "" {
			return errors.New("mail.host can't be empty when mail is enabled")
		}
		if v.GetString("mail.sender_address") == "" {
			return errors.New("mail.sender_address can't be empty when mail is enabled")
		}
	}

	if v.GetInt("notification.workers") <= 0 {
		return errors.New("notification.workers must be bigger than 0")
	}

	if v.GetDuration("verification.resend_cooldown") < 0 {
		return errors.New("verification.resend_cooldown can't be negative")
	}

	if !v.GetBool("turnstile.enabled") {
		fmt.Println("[WARNING]: Cloudflare's turnstile is disabled. Registration won't be guarded against bots")
	} else if v.GetString("turnstile.secret_token") == "" {
		return errors.New("turnstile secret token is missing")
	}

	return nil
}

// envName turns host.ssl.enabled into host_ssl_enabled
func envName(key string) string {
	return strings.ReplaceAll(key, ".", "_")
}
