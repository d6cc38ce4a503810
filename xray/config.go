package xray

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const defaultConfigFile = "config.json"

// RemoteConfig holds the remote reader endpoint and credential. An empty
// APIKey selects classifier-only mode.
type RemoteConfig struct {
	APIKey         string `json:"apiKey"`
	URL            string `json:"url"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// EncoderConfig mirrors emb.Config for persistence.
type EncoderConfig struct {
	OrtDLL          string `json:"ortDll"`
	VisionModelPath string `json:"visionModelPath"`
	TextModelPath   string `json:"textModelPath"`
	TokenizerPath   string `json:"tokenizerPath"`
	MaxSeqLen       int    `json:"maxSeqLen"`
	ImageSize       int    `json:"imageSize"`
}

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	Remote  RemoteConfig  `json:"remote"`
	Encoder EncoderConfig `json:"encoder"`
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Remote.URL == "" {
		c.Remote.URL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	}
	if c.Remote.Model == "" {
		c.Remote.Model = "qwen3.5-plus"
	}
	if c.Remote.TimeoutSeconds <= 0 {
		c.Remote.TimeoutSeconds = 60
	}
	if c.Encoder.MaxSeqLen <= 0 {
		c.Encoder.MaxSeqLen = 256
	}
	if c.Encoder.ImageSize <= 0 {
		c.Encoder.ImageSize = 224
	}
}

// applyEnv overlays environment-provided settings. The credential is only
// ever read from the environment in deployments that leave config.json
// untouched.
func (c *Config) applyEnv() {
	if v := os.Getenv("DASHSCOPE_API_KEY"); v != "" {
		c.Remote.APIKey = v
	}
	if v := os.Getenv("QWEN_API_URL"); v != "" {
		c.Remote.URL = v
	}
	if v := os.Getenv("QWEN_MODEL"); v != "" {
		c.Remote.Model = v
	}
}

// LoadConfig loads configuration from the given path or the default
// config.json, then overlays environment variables. A missing file is not
// an error; defaults apply.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.ApplyDefaults()
			cfg.applyEnv()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// SaveConfig persists configuration to disk atomically.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigFile
	}
	cfg.ApplyDefaults()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
