// Package config manages all tool configuration from .feedback/config.json.
// The file is the single source of truth; environment variables provide
// targeted overrides for secrets.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// UserConfig holds ALL configuration from .feedback/config.json.
type UserConfig struct {
	// Embedding engine configuration for semantic scoring
	Embedding *EmbeddingConfig `json:"embedding,omitempty"`

	// Reward thresholds and point values
	Rewards *RewardConfig `json:"rewards,omitempty"`

	// Educator alert thresholds
	Alerts *AlertConfig `json:"alerts,omitempty"`

	// Logging configuration
	Logging *LoggingConfig `json:"logging,omitempty"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider: "ollama", "genai", or "" (keyword fallback)
	Provider string `json:"provider,omitempty"`

	// Ollama configuration
	OllamaEndpoint string `json:"ollama_endpoint,omitempty"` // Default: http://localhost:11434
	OllamaModel    string `json:"ollama_model,omitempty"`    // Default: embeddinggemma

	// GenAI configuration
	GenAIAPIKey string `json:"genai_api_key,omitempty"`
	GenAIModel  string `json:"genai_model,omitempty"` // Default: gemini-embedding-001
	TaskType    string `json:"task_type,omitempty"`   // Default: SEMANTIC_SIMILARITY
}

// RewardTier is one row of the reward table.
type RewardTier struct {
	MinScore    float64 `json:"min_score"`
	Points      int     `json:"points"`
	Description string  `json:"description"`
}

// RewardConfig maps reward tiers to their criteria.
// Keys are reward type names (platinum, gold, silver, bronze).
type RewardConfig struct {
	Tiers map[string]RewardTier `json:"tiers,omitempty"`

	// Points awarded when a score falls below every tier threshold.
	FloorPoints int `json:"floor_points,omitempty"`
}

// AlertConfig holds educator alert thresholds.
type AlertConfig struct {
	// Score below which a single response raises a low_performance alert.
	LowScoreThreshold float64 `json:"low_score_threshold,omitempty"` // Default: 0.3

	// Recent-history window and ceiling for consistent_struggle alerts.
	StruggleWindow    int     `json:"struggle_window,omitempty"`    // Default: 5
	StruggleMinCount  int     `json:"struggle_min_count,omitempty"` // Default: 3
	StruggleThreshold float64 `json:"struggle_threshold,omitempty"` // Default: 0.5
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	Level      string          `json:"level,omitempty"`       // debug, info, warn, error
	DebugMode  bool            `json:"debug_mode,omitempty"`  // Master toggle - false = no logging
	Categories map[string]bool `json:"categories,omitempty"`  // Per-category toggles
	JSONFormat bool            `json:"json_format,omitempty"` // Structured JSON entries
}

// WorkspaceDirName is the on-disk workspace directory created by init.
const WorkspaceDirName = ".feedback"

// ConfigFileName is the config file inside the workspace directory.
const ConfigFileName = "config.json"

// DefaultConfigPath returns the default path to .feedback/config.json.
func DefaultConfigPath() string {
	root, err := FindWorkspaceRoot()
	if err != nil {
		return filepath.Join(WorkspaceDirName, ConfigFileName)
	}
	return filepath.Join(root, WorkspaceDirName, ConfigFileName)
}

// FindWorkspaceRoot finds the project root by looking for .feedback or
// go.mod, walking upward from the working directory.
func FindWorkspaceRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	originalDir := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, WorkspaceDirName)); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return originalDir, nil
}

// Load loads configuration from the given path.
// A missing file yields an empty config, not an error.
func Load(path string) (*UserConfig, error) {
	cfg := &UserConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to the given path, creating the
// directory if needed.
func (c *UserConfig) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides lets environment variables take precedence over
// file values for secrets and provider selection.
func (c *UserConfig) applyEnvOverrides() {
	if key := os.Getenv("FEEDBACK_GENAI_API_KEY"); key != "" {
		if c.Embedding == nil {
			c.Embedding = &EmbeddingConfig{}
		}
		c.Embedding.GenAIAPIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		if c.Embedding == nil {
			c.Embedding = &EmbeddingConfig{}
		}
		if c.Embedding.GenAIAPIKey == "" {
			c.Embedding.GenAIAPIKey = key
		}
	}
	if provider := os.Getenv("FEEDBACK_EMBEDDING_PROVIDER"); provider != "" {
		if c.Embedding == nil {
			c.Embedding = &EmbeddingConfig{}
		}
		c.Embedding.Provider = provider
	}
	if endpoint := os.Getenv("FEEDBACK_OLLAMA_ENDPOINT"); endpoint != "" {
		if c.Embedding == nil {
			c.Embedding = &EmbeddingConfig{}
		}
		c.Embedding.OllamaEndpoint = endpoint
	}
}

// Default returns the configuration written by `feedbackgen init`.
func Default() *UserConfig {
	return &UserConfig{
		Embedding: &EmbeddingConfig{
			Provider:       "",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
			GenAIModel:     "gemini-embedding-001",
			TaskType:       "SEMANTIC_SIMILARITY",
		},
		Rewards: &RewardConfig{
			Tiers: map[string]RewardTier{
				"platinum": {MinScore: 0.9, Points: 100, Description: "Exceptional understanding!"},
				"gold":     {MinScore: 0.8, Points: 75, Description: "Excellent work!"},
				"silver":   {MinScore: 0.65, Points: 50, Description: "Good effort!"},
				"bronze":   {MinScore: 0.4, Points: 25, Description: "Keep trying!"},
			},
			FloorPoints: 10,
		},
		Alerts: &AlertConfig{
			LowScoreThreshold: 0.3,
			StruggleWindow:    5,
			StruggleMinCount:  3,
			StruggleThreshold: 0.5,
		},
		Logging: &LoggingConfig{
			Level:     "info",
			DebugMode: false,
		},
	}
}

// IsCategoryEnabled returns whether logging is enabled for a category.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	if c.Categories == nil {
		return true
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}
