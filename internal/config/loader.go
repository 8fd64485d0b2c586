package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Load loads config from the default path (./config.json).
func Load() (*Config, error) {
	return LoadFromFile("config.json")
}

// LoadFromFile loads config from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader loads config from an io.Reader, applying defaults and
// validating shape. Secrets are resolved separately by ResolveEnv.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	if err := json.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if len(cfg.Routes) == 0 {
		return fmt.Errorf("config has no routes")
	}
	for key, route := range cfg.Routes {
		if route.Output == "" {
			return fmt.Errorf("route %q has no output channel", key)
		}
		if len(route.Input) == 0 {
			return fmt.Errorf("route %q has no input channels", key)
		}
	}
	switch cfg.Translator.Backend {
	case "deepl", "openai":
	default:
		return fmt.Errorf("unknown translator backend %q", cfg.Translator.Backend)
	}
	return nil
}

// ResolveEnv reads secrets and overrides from the environment. A missing
// required variable is fatal and the error names the variable.
func ResolveEnv(cfg *Config) error {
	token, err := requireEnv("BOT_TOKEN")
	if err != nil {
		return err
	}
	cfg.Channels.Discord.Token = token

	if lang := os.Getenv("TARGET_LANG"); lang != "" {
		cfg.Translator.TargetLang = lang
	}

	switch cfg.Translator.Backend {
	case "deepl":
		key, err := requireEnv("DEEPL_KEY")
		if err != nil {
			return err
		}
		cfg.Translator.APIKey = key
	case "openai":
		key, err := requireEnv("OPENAI_API_KEY")
		if err != nil {
			return err
		}
		cfg.Translator.APIKey = key
	}

	if cfg.Channels.TelegramMirror.ChatID != 0 {
		token, err := requireEnv("TELEGRAM_TOKEN")
		if err != nil {
			return err
		}
		cfg.Channels.TelegramMirror.Token = token
	}
	return nil
}

func requireEnv(name string) (string, error) {
	val := os.Getenv(name)
	if val == "" {
		return "", fmt.Errorf("required environment variable %s is not set", name)
	}
	return val, nil
}
