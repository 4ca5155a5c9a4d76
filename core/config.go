package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		RequestTimeout     time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	Config struct {
		AppName           string
		Env               string
		Build             string
		Debug             bool
		TestMode          bool
		WorkDir           string
		SecretKey         string
		FrontendBaseURL   string
		SendgridApiKey    string
		RollbarToken      string
		CertificatePrefix string
		Server            ServerConfig
		Database          DatabaseConfig

		defaultFromEmail string
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
	}
	if addr.Name == "" {
		addr.Name = c.AppName
	}
	return *addr
}

func (c DatabaseConfig) Address() string {
	if c.Port == "" {
		return c.Host
	}
	return net.JoinHostPort(c.Host, c.Port)
}

// IsMemory reports whether the in-memory store is used instead of postgres.
func (c DatabaseConfig) IsMemory() bool {
	return c.Engine == "memory"
}

// NewConfig loads the app configuration from the environment.
// Variables are prefixed by the env name, ie: DEV_SECRET_KEY, PROD_DATABASE_HOST
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("app_name", "Cheti")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("test_mode", false)
	v.SetDefault("secret_key", "r4m@z3-uq8!x1p(7l$hv2+w0k=ys9g#dn6c*jb5ot^fe&ia3z")
	v.SetDefault("default_from_email", "noreply@localhost")
	v.SetDefault("frontend_base_url", "http://localhost:3000")
	v.SetDefault("sendgrid_api_key", "")
	v.SetDefault("rollbar_token", "")
	v.SetDefault("certificate_prefix", "CHT")
	v.SetDefault("server_host", "0.0.0.0:8000")
	v.SetDefault("server_debug_host", "0.0.0.0:4000")
	v.SetDefault("server_shutdown_timeout", 5*time.Second)
	v.SetDefault("server_request_timeout", 10*time.Second)
	v.SetDefault("server_jwt_expiration_delta", 7*24*time.Hour)
	v.SetDefault("database_engine", "postgres")
	v.SetDefault("database_host", "localhost")
	v.SetDefault("database_port", "5432")
	v.SetDefault("database_name", "cheti")
	v.SetDefault("database_user", "cheti")
	v.SetDefault("database_password", "cheti")
	v.SetDefault("database_admin_user", "postgres")
	v.SetDefault("database_admin_password", "")
	v.SetDefault("database_disable_tls", true)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("test_mode", true)
		v.SetDefault("database_engine", "memory")
	}
	v.SetEnvPrefix(env)

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:           v.GetString("app_name"),
		Env:               env,
		Build:             v.GetString("build"),
		Debug:             v.GetBool("debug"),
		TestMode:          v.GetBool("test_mode"),
		WorkDir:           wd,
		SecretKey:         v.GetString("secret_key"),
		FrontendBaseURL:   strings.TrimRight(v.GetString("frontend_base_url"), "/"),
		SendgridApiKey:    v.GetString("sendgrid_api_key"),
		RollbarToken:      v.GetString("rollbar_token"),
		CertificatePrefix: strings.ToUpper(v.GetString("certificate_prefix")),
		Server: ServerConfig{
			Host:               v.GetString("server_host"),
			DebugHost:          v.GetString("server_debug_host"),
			ShutdownTimeout:    v.GetDuration("server_shutdown_timeout"),
			RequestTimeout:     v.GetDuration("server_request_timeout"),
			JWTExpirationDelta: v.GetDuration("server_jwt_expiration_delta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database_engine"),
			Host:          v.GetString("database_host"),
			Port:          v.GetString("database_port"),
			Name:          v.GetString("database_name"),
			User:          v.GetString("database_user"),
			Password:      v.GetString("database_password"),
			AdminUser:     v.GetString("database_admin_user"),
			AdminPassword: v.GetString("database_admin_password"),
			DisableTLS:    v.GetBool("database_disable_tls"),
		},
		defaultFromEmail: v.GetString("default_from_email"),
	}
}

// NewTestConfig returns the configuration used by tests.
func NewTestConfig() *Config {
	return &Config{
		AppName:           "Cheti",
		Env:               "TEST",
		Build:             "test",
		TestMode:          true,
		SecretKey:         "test-secret-key",
		FrontendBaseURL:   "http://cheti.test",
		CertificatePrefix: "CHT",
		Server: ServerConfig{
			ShutdownTimeout:    time.Second,
			RequestTimeout:     5 * time.Second,
			JWTExpirationDelta: time.Hour,
		},
		Database:         DatabaseConfig{Engine: "memory"},
		defaultFromEmail: "noreply@cheti.test",
	}
}
