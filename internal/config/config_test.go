package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kapu/chessdesk/internal/opponent"
)

func writeTierFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tiers.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write tier file: %v", err)
	}
	return path
}

func TestLoadTierTableDefaults(t *testing.T) {
	table, err := LoadTierTable("")
	if err != nil {
		t.Fatalf("LoadTierTable: %v", err)
	}
	p, err := table.Policy(opponent.TierEasy)
	if err != nil || !p.Random {
		t.Fatalf("easy policy = %+v, err = %v", p, err)
	}
}

func TestLoadTierTableOverrides(t *testing.T) {
	path := writeTierFile(t, `
tiers:
  medium: {kind: depth, value: 12}
  hard: {kind: movetime, value: 2000}
`)
	table, err := LoadTierTable(path)
	if err != nil {
		t.Fatalf("LoadTierTable: %v", err)
	}

	medium, err := table.Policy(opponent.TierMedium)
	if err != nil || medium.Budget.Kind != opponent.BudgetDepth || medium.Budget.Value != 12 {
		t.Fatalf("medium policy = %+v, err = %v", medium, err)
	}
	hard, err := table.Policy(opponent.TierHard)
	if err != nil || hard.Budget.Kind != opponent.BudgetMoveTime || hard.Budget.Value != 2000 {
		t.Fatalf("hard policy = %+v, err = %v", hard, err)
	}
}

func TestLoadTierTableRandomOverride(t *testing.T) {
	path := writeTierFile(t, `
tiers:
  medium: {random: true}
`)
	table, err := LoadTierTable(path)
	if err != nil {
		t.Fatalf("LoadTierTable: %v", err)
	}
	p, err := table.Policy(opponent.TierMedium)
	if err != nil || !p.Random {
		t.Fatalf("medium policy = %+v, err = %v", p, err)
	}
}

func TestLoadTierTableRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown tier":    "tiers:\n  expert: {kind: depth, value: 5}\n",
		"unknown kind":    "tiers:\n  medium: {kind: nodes, value: 5}\n",
		"zero value":      "tiers:\n  medium: {kind: depth, value: 0}\n",
		"shrinking order": "tiers:\n  hard: {kind: depth, value: 3}\n",
		"not yaml":        "{{{{",
	}
	for name, content := range cases {
		if _, err := LoadTierTable(writeTierFile(t, content)); err == nil {
			t.Fatalf("%s: accepted", name)
		}
	}
}

func TestLoadTierTableMissingFile(t *testing.T) {
	if _, err := LoadTierTable(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("missing file accepted")
	}
}

func TestLoadValidatesBackend(t *testing.T) {
	t.Setenv("SAVE_BACKEND", "s3")
	if _, err := Load(); err == nil {
		t.Fatalf("Load accepted unknown backend")
	}
}

func TestLoadRedisBackendNeedsURL(t *testing.T) {
	t.Setenv("SAVE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("Load accepted redis backend without REDIS_URL")
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"SAVE_BACKEND", "TIER", "LISTEN_ADDR", "HINT_MOVETIME_MS"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tier != "medium" || cfg.SaveBackend != "file" || cfg.HintMoveTimeMs != 100 {
		t.Fatalf("defaults = %+v", cfg)
	}
}
