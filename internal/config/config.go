// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads configuration from config.yaml and environment variables.
//
// The mail: section is a connection template shared by all accounts; each
// accounts: entry may override any of its fields. An account additionally
// carries its allow-list of accepted senders and its output policy (root
// directory and maximum image dimension).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTimezone is the zone capture timestamps are interpreted in when the
// config does not name one. Camera metadata carries no zone of its own.
const DefaultTimezone = "Europe/Stockholm"

// DefaultMaxDimension bounds the longer edge of saved images.
const DefaultMaxDimension = 1600

// MailSettings holds IMAP connection parameters. Zero fields on an account
// inherit from the global template.
type MailSettings struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      *bool  `yaml:"tls"`
	Folder   string `yaml:"folder"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Auth selects "password" (default) or "oauth2".
	Auth         string   `yaml:"auth"`
	TokenURL     string   `yaml:"token_url"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`
}

// UseTLS reports whether the connection should use implicit TLS.
// Unset means TLS on.
func (m MailSettings) UseTLS() bool {
	return m.TLS == nil || *m.TLS
}

// AcceptedSender is one allow-list entry. Matching against incoming senders
// is a case-sensitive containment check, see the router in internal/pipeline.
type AcceptedSender struct {
	Name         string `yaml:"name"`
	EmailAddress string `yaml:"email_address"`
}

// OutputPolicy describes where and how large images are filed for an account.
type OutputPolicy struct {
	Root         string `yaml:"root"`
	MaxDimension int    `yaml:"max_dimension"`
}

// Account is one monitored mailbox. Immutable after load.
type Account struct {
	ID              string           `yaml:"id"`
	Mail            MailSettings     `yaml:"mail"`
	AcceptedSenders []AcceptedSender `yaml:"accepted_senders"`
	Output          OutputPolicy     `yaml:"output"`
}

// Config holds all configuration for the service.
type Config struct {
	Accounts []Account

	// Timezone is the fixed zone used both to interpret capture timestamps
	// and to derive the date tree. Location is its resolved form.
	Timezone string
	Location *time.Location

	LogLevel slog.Level

	// Redis (optional outcome journal)
	RedisURL      string
	OutcomesQueue string

	// Postgres (optional mailbox checkpoints)
	DatabaseURL string

	// Server (health check only)
	Port int
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Timezone string       `yaml:"timezone"`
	LogLevel string       `yaml:"log_level"`
	Mail     MailSettings `yaml:"mail"`
	Accounts []Account    `yaml:"accounts"`
	Redis    struct {
		URL    string `yaml:"url"`
		Queues struct {
			Outcomes string `yaml:"outcomes"`
		} `yaml:"queues"`
	} `yaml:"redis"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
}

// Load reads configuration from the given path (with env var expansion).
// An empty path falls back to CONFIG_PATH or /app/config/config.yaml.
func Load(path string) (*Config, error) {
	if path == "" {
		path = envOrDefault("CONFIG_PATH", "/app/config/config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	// Expand ${VAR} references in the YAML
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	cfg := &Config{
		Timezone:      firstNonEmpty(raw.Timezone, envOrDefault("TIMEZONE", DefaultTimezone)),
		LogLevel:      parseLogLevel(firstNonEmpty(raw.LogLevel, os.Getenv("LOG_LEVEL"))),
		RedisURL:      firstNonEmpty(raw.Redis.URL, os.Getenv("REDIS_URL")),
		OutcomesQueue: firstNonEmpty(raw.Redis.Queues.Outcomes, envOrDefault("OUTCOMES_QUEUE", "photopost:outcomes")),
		DatabaseURL:   firstNonEmpty(raw.Database.URL, os.Getenv("DATABASE_URL")),
		Port:          envOrDefaultInt("PORT", 8080),
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	// Build account configs, merging each over the global mail template.
	for _, a := range raw.Accounts {
		a.Mail = mergeMail(raw.Mail, a.Mail)

		// Skip accounts with incomplete connection settings (commented out
		// or partially filled in the YAML).
		if a.ID == "" || a.Mail.Host == "" || a.Mail.Username == "" {
			continue
		}

		if a.Mail.Folder == "" {
			a.Mail.Folder = "INBOX"
		}
		if a.Mail.Auth == "" {
			a.Mail.Auth = "password"
		}
		if a.Output.MaxDimension <= 0 {
			a.Output.MaxDimension = DefaultMaxDimension
		}
		if a.Output.Root == "" {
			return nil, fmt.Errorf("account %s has no output root", a.ID)
		}

		cfg.Accounts = append(cfg.Accounts, a)
	}

	if len(cfg.Accounts) == 0 {
		return nil, fmt.Errorf("no accounts configured, check %s and environment variables", path)
	}

	return cfg, nil
}

// Account returns the account with the given ID, or nil.
func (c *Config) Account(id string) *Account {
	for i := range c.Accounts {
		if c.Accounts[i].ID == id {
			return &c.Accounts[i]
		}
	}
	return nil
}

// mergeMail overlays account-specific settings on the global template.
func mergeMail(tmpl, override MailSettings) MailSettings {
	out := tmpl
	if override.Host != "" {
		out.Host = override.Host
	}
	if override.Port != 0 {
		out.Port = override.Port
	}
	if override.TLS != nil {
		out.TLS = override.TLS
	}
	if override.Folder != "" {
		out.Folder = override.Folder
	}
	if override.Username != "" {
		out.Username = override.Username
	}
	if override.Password != "" {
		out.Password = override.Password
	}
	if override.Auth != "" {
		out.Auth = override.Auth
	}
	if override.TokenURL != "" {
		out.TokenURL = override.TokenURL
	}
	if override.ClientID != "" {
		out.ClientID = override.ClientID
	}
	if override.ClientSecret != "" {
		out.ClientSecret = override.ClientSecret
	}
	if len(override.Scopes) > 0 {
		out.Scopes = override.Scopes
	}
	return out
}

func parseLogLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
