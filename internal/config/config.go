package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultConfigRelPath = ".skillgen/config.yaml"

type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type OutputConfig struct {
	Dir         string `yaml:"dir"`
	KeepInvalid bool   `yaml:"keep_invalid"`
}

type GenerateConfig struct {
	Workers     int  `yaml:"workers"`
	MaxRepairs  int  `yaml:"max_repairs"`
	SegmentFrom int  `yaml:"segment_from"`
	Sequential  bool `yaml:"sequential"`
}

type FilterConfig struct {
	IgnorePaths    []string `yaml:"ignore_paths"`
	IgnoreTags     []string `yaml:"ignore_tags"`
	SkipDeprecated bool     `yaml:"skip_deprecated"`
}

type SecretsConfig struct {
	WatchEnv []string `yaml:"watch_env"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Output   OutputConfig   `yaml:"output"`
	Generate GenerateConfig `yaml:"generate"`
	Filter   FilterConfig   `yaml:"filter"`
	Secrets  SecretsConfig  `yaml:"secrets"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// Load loads YAML config, then applies env overrides.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}
	cfg.SetDefaults()

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		configPath = filepath.Join(home, defaultConfigRelPath)
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func (c *Config) SetDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 8192
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.2
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "./skill"
	}
	if c.Generate.Workers == 0 {
		c.Generate.Workers = 3
	}
	if c.Generate.MaxRepairs == 0 {
		c.Generate.MaxRepairs = 3
	}
	if c.Generate.SegmentFrom == 0 {
		c.Generate.SegmentFrom = 20
	}
	if len(c.Secrets.WatchEnv) == 0 {
		c.Secrets.WatchEnv = []string{
			"OPENAI_API_KEY",
			"ANTHROPIC_API_KEY",
			"SKILLGEN_LLM_API_KEY",
		}
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output.Dir) == "" {
		return errors.New("output.dir cannot be empty")
	}
	if c.Generate.Workers < 1 {
		return errors.New("generate.workers must be at least 1")
	}
	if c.Generate.MaxRepairs < 0 {
		return errors.New("generate.max_repairs cannot be negative")
	}
	if err := ensureWritableDir(c.Output.Dir); err != nil {
		return fmt.Errorf("output.dir not writable: %w", err)
	}
	return nil
}

// ValidateGenerate enforces generate-specific requirements.
func (c *Config) ValidateGenerate() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return errors.New("llm.api_key cannot be empty")
	}
	return nil
}

func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".writable-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func applyEnvOverrides(c *Config) {
	setString(&c.LLM.Provider, "SKILLGEN_LLM_PROVIDER")
	setString(&c.LLM.APIKey, "SKILLGEN_LLM_API_KEY")
	setString(&c.LLM.BaseURL, "SKILLGEN_LLM_BASE_URL")
	setString(&c.LLM.Model, "SKILLGEN_LLM_MODEL")
	setInt(&c.LLM.MaxTokens, "SKILLGEN_LLM_MAX_TOKENS")
	setFloat(&c.LLM.Temperature, "SKILLGEN_LLM_TEMPERATURE")
	setString(&c.Output.Dir, "SKILLGEN_OUTPUT_DIR")
	setInt(&c.Generate.Workers, "SKILLGEN_WORKERS")
	setBool(&c.Generate.Sequential, "SKILLGEN_SEQUENTIAL")
	setString(&c.Server.Host, "SKILLGEN_SERVER_HOST")
	setInt(&c.Server.Port, "SKILLGEN_SERVER_PORT")
	setString(&c.Log.Level, "SKILLGEN_LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
