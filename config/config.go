package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingConfig is returned by Load when required variables are unset.
var ErrMissingConfig = errors.New("missing required configuration")

// StoreConfig holds the Postgres connection settings.
type StoreConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
	Schema   string
	SSLMode  string
	Timeout  time.Duration
}

// DSN builds a lib/pq connection URL. The schema is set as search_path so
// unqualified table names resolve inside it.
func (c StoreConfig) DSN() string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	if c.Schema != "" {
		q.Set("search_path", c.Schema)
	}
	if c.Timeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(c.Timeout.Seconds())))
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// MailConfig holds the outgoing mail settings. Token is the provider secret.
type MailConfig struct {
	Provider    string
	Token       string
	FromAddress string
	FromName    string
	Region      string
	AccessKeyID string
}

// Config holds all configuration for the application
type Config struct {
	Environment   string
	Store         StoreConfig
	Mail          MailConfig
	SessionSecret string
	SessionTTL    time.Duration
	BcryptCost    int
}

var required = []string{
	"STORE_HOST",
	"STORE_PORT",
	"STORE_DATABASE",
	"STORE_USER",
	"STORE_PASSWORD",
	"STORE_SCHEMA",
	"MAIL_TOKEN",
	"MAIL_FROM_ADDRESS",
}

// Load loads configuration from environment variables
// It attempts to load from .env file if not in production
func Load() (*Config, error) {
	if os.Getenv("GO_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found or couldn't be loaded: %v", err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, reporting every missing required variable at once.
func FromEnv(getenv func(string) string) (*Config, error) {
	var missing []string
	for _, key := range required {
		if strings.TrimSpace(getenv(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	cfg := &Config{
		Environment: withDefault(getenv("GO_ENV"), "development"),
		Store: StoreConfig{
			Host:     getenv("STORE_HOST"),
			Port:     getenv("STORE_PORT"),
			Database: getenv("STORE_DATABASE"),
			User:     getenv("STORE_USER"),
			Password: getenv("STORE_PASSWORD"),
			Schema:   getenv("STORE_SCHEMA"),
			SSLMode:  withDefault(getenv("STORE_SSLMODE"), "disable"),
		},
		Mail: MailConfig{
			Provider:    withDefault(getenv("MAIL_PROVIDER"), "ses"),
			Token:       getenv("MAIL_TOKEN"),
			FromAddress: getenv("MAIL_FROM_ADDRESS"),
			FromName:    getenv("MAIL_FROM_NAME"),
			Region:      withDefault(getenv("MAIL_REGION"), "eu-west-3"),
			AccessKeyID: getenv("MAIL_ACCESS_KEY_ID"),
		},
		SessionSecret: getenv("SESSION_SECRET"),
	}

	if _, err := strconv.Atoi(cfg.Store.Port); err != nil {
		return nil, fmt.Errorf("STORE_PORT: %q is not a port number", cfg.Store.Port)
	}
	var err error
	if cfg.Store.Timeout, err = durationVar(getenv, "STORE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = durationVar(getenv, "SESSION_TTL", 8*time.Hour); err != nil {
		return nil, err
	}
	cfg.BcryptCost = 10
	if s := getenv("BCRYPT_COST"); s != "" {
		if cfg.BcryptCost, err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("BCRYPT_COST: %w", err)
		}
	}
	return cfg, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func durationVar(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	s := getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive", key)
	}
	return d, nil
}
