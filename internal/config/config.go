// Package config loads the villabot runtime configuration from YAML.
//
// The configuration declares the webhook server, logging, the outbound
// API endpoint and one entry per hosted bot: credentials, callback
// path and a list of declarative reply rules. ${VAR} references are
// expanded from the environment before parsing, so secrets stay out of
// the file.
//
// Example:
//
//	server:
//	  port: 8080
//	logging:
//	  level: info
//	bots:
//	  - bot_id: "bot_abc123"
//	    secret: "${VILLA_BOT_SECRET}"
//	    pub_key_file: "keys/bot_abc123.pem"
//	    callback_path: "/callback/abc123"
//	    rules:
//	      - name: "greeter"
//	        priority: 1
//	        block: true
//	        match:
//	          keywords: ["hello"]
//	        reply: "world"
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/keepmind9/villabot/pkg/constants"
)

const (
	DefaultLogLevel        = "info"
	DefaultLogMaxSize      = 100 // MB
	DefaultLogMaxBackups   = 5
	DefaultLogMaxAge       = 30 // days
	DefaultLogCompress     = true
	DefaultLogEnableStdout = true
)

// Config is the root configuration document.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	API     APIConfig     `yaml:"api"`
	Bots    []BotConfig   `yaml:"bots"`
}

// ServerConfig configures the webhook HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level        string `yaml:"level"`
	File         string `yaml:"file"`
	MaxSize      int    `yaml:"max_size"`
	MaxBackups   int    `yaml:"max_backups"`
	MaxAge       int    `yaml:"max_age"`
	Compress     bool   `yaml:"compress"`
	EnableStdout bool   `yaml:"enable_stdout"`
}

// APIConfig configures the outbound REST client.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// BotConfig declares one hosted bot.
type BotConfig struct {
	BotID             string       `yaml:"bot_id"`
	Secret            string       `yaml:"secret"`
	PubKey            string       `yaml:"pub_key"`
	PubKeyFile        string       `yaml:"pub_key_file"`
	CallbackPath      string       `yaml:"callback_path"`
	WaitUntilComplete bool         `yaml:"wait_until_complete"`
	HandlerTimeout    string       `yaml:"handler_timeout"`
	Rules             []RuleConfig `yaml:"rules"`
}

// RuleConfig is one declarative reply rule: when an event satisfies
// Match, send Reply back to the room the event came from.
type RuleConfig struct {
	Name     string      `yaml:"name"`
	Priority int         `yaml:"priority"`
	Block    bool        `yaml:"block"`
	Match    MatchConfig `yaml:"match"`
	Reply    string      `yaml:"reply"`
}

// MatchConfig collects rule predicates; all populated criteria must
// hold for the rule to fire.
type MatchConfig struct {
	Events     []string `yaml:"events"`
	StartsWith []string `yaml:"starts_with"`
	Prefixes   []string `yaml:"prefixes"`
	EndsWith   []string `yaml:"ends_with"`
	Keywords   []string `yaml:"keywords"`
	Regex      string   `yaml:"regex"`
	FromUsers  []uint64 `yaml:"from_users"`
	Rooms      []uint64 `yaml:"rooms"`
	Villas     []uint64 `yaml:"villas"`
}

// LoadConfig reads, expands and validates a configuration file.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded, err := expandEnv(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to expand environment variables: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// expandEnv replaces ${VAR_NAME} patterns with environment variable
// values and fails on unset variables so missing secrets surface at
// startup.
func expandEnv(input string) (string, error) {
	var missing []string

	result := os.Expand(input, func(key string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		missing = append(missing, key)
		return ""
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("missing required environment variables: %s",
			strings.Join(missing, ", "))
	}
	return result, nil
}

// validateConfig fills defaults and rejects configurations that cannot
// serve.
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		config.Server.Port = constants.DefaultServePort
	}

	if config.Logging.Level == "" {
		config.Logging.Level = DefaultLogLevel
	}
	if config.Logging.MaxSize == 0 {
		config.Logging.MaxSize = DefaultLogMaxSize
	}
	if config.Logging.MaxBackups == 0 {
		config.Logging.MaxBackups = DefaultLogMaxBackups
	}
	if config.Logging.MaxAge == 0 {
		config.Logging.MaxAge = DefaultLogMaxAge
	}
	if !config.Logging.Compress {
		config.Logging.Compress = DefaultLogCompress
	}
	if !config.Logging.EnableStdout {
		config.Logging.EnableStdout = DefaultLogEnableStdout
	}

	if config.API.BaseURL == "" {
		config.API.BaseURL = constants.DefaultAPIBaseURL
	}
	if config.API.Timeout == "" {
		config.API.Timeout = constants.DefaultAPITimeout.String()
	}
	if _, err := time.ParseDuration(config.API.Timeout); err != nil {
		return fmt.Errorf("invalid api.timeout: %w", err)
	}

	if len(config.Bots) == 0 {
		return fmt.Errorf("at least one bot must be configured")
	}

	seenIDs := make(map[string]struct{}, len(config.Bots))
	seenPaths := make(map[string]struct{}, len(config.Bots))
	for i := range config.Bots {
		bot := &config.Bots[i]
		if bot.BotID == "" {
			return fmt.Errorf("bots[%d]: bot_id is required", i)
		}
		if _, dup := seenIDs[bot.BotID]; dup {
			return fmt.Errorf("duplicate bot_id %q", bot.BotID)
		}
		seenIDs[bot.BotID] = struct{}{}

		if bot.Secret == "" {
			return fmt.Errorf("bot %s: secret is required", bot.BotID)
		}
		if bot.PubKey == "" && bot.PubKeyFile == "" {
			return fmt.Errorf("bot %s: pub_key or pub_key_file is required", bot.BotID)
		}
		if bot.CallbackPath == "" {
			bot.CallbackPath = "/callback/" + bot.BotID
		}
		if _, dup := seenPaths[bot.CallbackPath]; dup {
			return fmt.Errorf("bot %s: duplicate callback_path %q", bot.BotID, bot.CallbackPath)
		}
		seenPaths[bot.CallbackPath] = struct{}{}

		if bot.HandlerTimeout == "" {
			bot.HandlerTimeout = constants.DefaultHandlerTimeout.String()
		}
		if _, err := time.ParseDuration(bot.HandlerTimeout); err != nil {
			return fmt.Errorf("bot %s: invalid handler_timeout: %w", bot.BotID, err)
		}

		for j, rule := range bot.Rules {
			if rule.Reply == "" {
				return fmt.Errorf("bot %s: rules[%d]: reply is required", bot.BotID, j)
			}
			if rule.Match.Regex != "" {
				if _, err := regexp.Compile(rule.Match.Regex); err != nil {
					return fmt.Errorf("bot %s: rules[%d]: invalid regex: %w", bot.BotID, j, err)
				}
			}
			if bot.Rules[j].Name == "" {
				bot.Rules[j].Name = fmt.Sprintf("rule-%d", j)
			}
		}
	}
	return nil
}

// PubKeyPEM returns the bot's public key material, reading the key
// file if the key is not inline.
func (b *BotConfig) PubKeyPEM() (string, error) {
	if b.PubKey != "" {
		return b.PubKey, nil
	}
	data, err := os.ReadFile(b.PubKeyFile)
	if err != nil {
		return "", fmt.Errorf("failed to read pub_key_file: %w", err)
	}
	return string(data), nil
}
