// Package config loads the engine's configuration: connection settings
// from environment variables and the tunable scoring/lifecycle policy from
// an optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mstolt/recall/internal/scoring"
)

// Config holds all configuration values.
type Config struct {
	// Storage
	DBPath string

	// Model service
	OllamaHost string
	ChatModel  string
	EmbedModel string

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Scoring and lifecycle policy
	Policy Policy
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "6h" or "30m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts back to a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Policy gathers every empirically tuned constant so deployments can
// adjust them without a rebuild. The two search thresholds intentionally
// differ between the fused and the similarity-only path.
type Policy struct {
	Weights             scoring.Weights `yaml:"weights"`
	SearchThreshold     float64         `yaml:"search_threshold"`
	SimilarityThreshold float64         `yaml:"similarity_threshold"`
	SearchLimit         int             `yaml:"search_limit"`
	SimilarityLimit     int             `yaml:"similarity_limit"`
	RecencyDecay        float64         `yaml:"recency_decay"`

	RetentionInterval     Duration `yaml:"retention_interval"`
	ConsolidationInterval Duration `yaml:"consolidation_interval"`
	ConsolidateAfter      Duration `yaml:"consolidate_after"`
	ConsolidateMin        int      `yaml:"consolidate_min"`
}

// DefaultPolicy returns the tuned defaults.
func DefaultPolicy() Policy {
	return Policy{
		Weights:               scoring.DefaultWeights(),
		SearchThreshold:       0.3,
		SimilarityThreshold:   0.7,
		SearchLimit:           5,
		SimilarityLimit:       3,
		RecencyDecay:          scoring.DefaultDecay,
		RetentionInterval:     Duration(6 * time.Hour),
		ConsolidationInterval: Duration(24 * time.Hour),
		ConsolidateAfter:      Duration(7 * 24 * time.Hour),
		ConsolidateMin:        3,
	}
}

// Load reads configuration from environment variables, then overlays the
// policy file named by RECALL_POLICY (or policy.yaml next to the database)
// when it exists.
func Load() (Config, error) {
	cfg := Config{
		DBPath:     getEnv("RECALL_DB", defaultDBPath()),
		OllamaHost: getEnv("OLLAMA_HOST", "http://localhost:11434"),
		ChatModel:  getEnv("RECALL_CHAT_MODEL", "llama3.2:3b"),
		EmbedModel: getEnv("RECALL_EMBED_MODEL", "nomic-embed-text"),
		LogFile:    getEnv("RECALL_LOG_FILE", ""),
		LogLevel:   parseLogLevel(getEnv("RECALL_LOG_LEVEL", "INFO")),
		Policy:     DefaultPolicy(),
	}

	policyPath := os.Getenv("RECALL_POLICY")
	explicit := policyPath != ""
	if policyPath == "" {
		policyPath = filepath.Join(filepath.Dir(cfg.DBPath), "policy.yaml")
	}
	if err := loadPolicyFile(policyPath, &cfg.Policy); err != nil {
		if explicit || !os.IsNotExist(err) {
			return cfg, fmt.Errorf("load policy %s: %w", policyPath, err)
		}
	}
	return cfg, nil
}

func loadPolicyFile(path string, p *Policy) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, p); err != nil {
		return err
	}
	return nil
}

func defaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".recall", "memory.db")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
