package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Gemini exposes an OpenAI-compatible endpoint; the provider layer only
// ever speaks the OpenAI wire format.
const (
	GeminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta/openai/"
	GeminiDefaultModel = "gemini-2.5-flash"
	OpenAIBaseURL      = "https://api.openai.com/v1"
	OpenAIDefaultModel = "gpt-4o"
)

type ProviderConfig struct {
	// Name is "openai" or "gemini". Empty means auto-detect from env.
	Name       string `json:"name"`
	BaseURL    string `json:"base_url"`
	Model      string `json:"model"`
	APIKey     string `json:"api_key"`
	TimeoutMS  int    `json:"timeout_ms"`
	MaxRetries int    `json:"max_retries"`
}

type ServerConfig struct {
	Addr         string `json:"addr"`
	TokenTTLMins int    `json:"token_ttl_mins"`
}

type StorageConfig struct {
	DBPath string `json:"db_path"`
}

type AgentConfig struct {
	MaxTokens    int     `json:"max_tokens"`
	Temperature  float64 `json:"temperature"`
	HistoryLimit int     `json:"history_limit"`
	// HistoryTokenLimit caps the token budget of conversation history
	// sent to the model; older turns are dropped first.
	HistoryTokenLimit int `json:"history_token_limit"`
}

type Config struct {
	Provider ProviderConfig `json:"provider"`
	Server   ServerConfig   `json:"server"`
	Storage  StorageConfig  `json:"storage"`
	Agent    AgentConfig    `json:"agent"`
}

func defaults() Config {
	home, _ := os.UserHomeDir()
	dbPath := "todoassist.db"
	if home != "" {
		dbPath = filepath.Join(home, ".todoassist", "todoassist.db")
	}
	return Config{
		Provider: ProviderConfig{
			TimeoutMS:  60000,
			MaxRetries: 3,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			TokenTTLMins: 7 * 24 * 60,
		},
		Storage: StorageConfig{
			DBPath: dbPath,
		},
		Agent: AgentConfig{
			MaxTokens:         1024,
			Temperature:       0.3,
			HistoryLimit:      50,
			HistoryTokenLimit: 8000,
		},
	}
}

// Load reads config from path (optional), then applies env overrides and
// provider auto-detection. Precedence: env > file > defaults.
func Load(path string) (Config, error) {
	cfg := defaults()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		fc := cfg
		if err := json.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = fc
	}

	applyEnv(&cfg)
	resolveProvider(&cfg.Provider)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("TODO_ADDR")); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("TODO_DB_PATH")); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv("AI_PROVIDER")); v != "" {
		cfg.Provider.Name = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("TODO_HISTORY_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Agent.HistoryLimit = n
		}
	}
}

// resolveProvider fills name, key, base URL and model the way the original
// deployment did: explicit name wins, otherwise prefer Gemini when its key
// is present, then OpenAI.
func resolveProvider(p *ProviderConfig) {
	name := strings.ToLower(strings.TrimSpace(p.Name))
	if name == "" {
		switch {
		case os.Getenv("GEMINI_API_KEY") != "":
			name = "gemini"
		case os.Getenv("OPENAI_API_KEY") != "":
			name = "openai"
		default:
			name = "gemini"
		}
	}
	p.Name = name

	switch name {
	case "gemini":
		if p.APIKey == "" {
			p.APIKey = os.Getenv("GEMINI_API_KEY")
		}
		if p.BaseURL == "" {
			p.BaseURL = GeminiBaseURL
		}
		if p.Model == "" {
			p.Model = envOr("GEMINI_MODEL", GeminiDefaultModel)
		}
	default:
		if p.APIKey == "" {
			p.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if p.BaseURL == "" {
			p.BaseURL = OpenAIBaseURL
		}
		if p.Model == "" {
			p.Model = envOr("OPENAI_MODEL", OpenAIDefaultModel)
		}
	}
}

// Enabled reports whether a provider is usable; without a key the agent
// runs on the rule-based classifier only.
func (p ProviderConfig) Enabled() bool {
	return strings.TrimSpace(p.APIKey) != ""
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
