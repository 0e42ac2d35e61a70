package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kapu/chessdesk/internal/opponent"
)

type AppConfig struct {
	EnginePath string

	Tier             string
	TierFile         string
	HintMoveTimeMs   int
	EngineThreads    int
	EngineHashMB     int
	EngineSkillLevel int
	CycleInterval    time.Duration

	SaveBackend string // "file" or "redis"
	SavePath    string
	RedisURL    string
	Resume      bool

	DatabaseURL string

	ListenAddr string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Tier:           "medium",
		HintMoveTimeMs: 100,
		EngineThreads:  1,
		EngineHashMB:   64,
		CycleInterval:  50 * time.Millisecond,
		SaveBackend:    "file",
		SavePath:       "chessdesk.save",
		ListenAddr:     ":8490",
	}
	cfg.EngineSkillLevel = -1

	cfg.EnginePath = strings.TrimSpace(os.Getenv("ENGINE_PATH"))
	if cfg.EnginePath == "" {
		cfg.EnginePath = strings.TrimSpace(os.Getenv("STOCKFISH_PATH"))
	}

	if v := strings.TrimSpace(os.Getenv("TIER")); v != "" {
		cfg.Tier = v
	}
	cfg.TierFile = strings.TrimSpace(os.Getenv("TIER_FILE"))
	if v := strings.TrimSpace(os.Getenv("HINT_MOVETIME_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HintMoveTimeMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_THREADS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EngineThreads = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_HASH_MB")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EngineHashMB = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_SKILL_LEVEL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 20 {
			cfg.EngineSkillLevel = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CYCLE_INTERVAL_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CycleInterval = time.Duration(n) * time.Millisecond
		}
	}

	if v := strings.TrimSpace(os.Getenv("SAVE_BACKEND")); v != "" {
		cfg.SaveBackend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("SAVE_PATH")); v != "" {
		cfg.SavePath = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	if v := strings.TrimSpace(os.Getenv("RESUME")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Resume = b
		}
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}

	if cfg.SaveBackend != "file" && cfg.SaveBackend != "redis" {
		return nil, fmt.Errorf("SAVE_BACKEND must be file or redis, got %q", cfg.SaveBackend)
	}
	if cfg.SaveBackend == "redis" && cfg.RedisURL == "" {
		return nil, fmt.Errorf("SAVE_BACKEND=redis requires REDIS_URL")
	}
	if _, err := opponent.ParseTier(cfg.Tier); err != nil {
		return nil, err
	}

	return cfg, nil
}

// tierFileSchema is the on-disk YAML shape for overriding opponent budgets.
//
//	tiers:
//	  medium: {kind: depth, value: 12}
//	  hard:   {kind: movetime, value: 2000}
type tierFileSchema struct {
	Tiers map[string]struct {
		Random bool   `yaml:"random"`
		Kind   string `yaml:"kind"`
		Value  int    `yaml:"value"`
	} `yaml:"tiers"`
}

// LoadTierTable returns the default tier table, with overrides applied from
// the YAML file at path when path is non-empty.
func LoadTierTable(path string) (*opponent.Table, error) {
	table := opponent.DefaultTable()
	if strings.TrimSpace(path) == "" {
		return table, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tier file: %w", err)
	}
	var schema tierFileSchema
	if err := yaml.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("parse tier file: %w", err)
	}

	for name, entry := range schema.Tiers {
		tier, err := opponent.ParseTier(name)
		if err != nil {
			return nil, fmt.Errorf("tier file: %w", err)
		}
		if entry.Random {
			if err := table.Set(tier, opponent.Policy{Random: true}); err != nil {
				return nil, fmt.Errorf("tier file: %w", err)
			}
			continue
		}
		kind, err := opponent.ParseBudgetKind(entry.Kind)
		if err != nil {
			return nil, fmt.Errorf("tier file: tier %s: %w", name, err)
		}
		if entry.Value <= 0 {
			return nil, fmt.Errorf("tier file: tier %s: value must be positive", name)
		}
		if err := table.Set(tier, opponent.Policy{Budget: opponent.Budget{Kind: kind, Value: entry.Value}}); err != nil {
			return nil, fmt.Errorf("tier file: %w", err)
		}
	}

	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("tier file: %w", err)
	}
	return table, nil
}
