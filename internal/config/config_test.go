package config

import (
	"testing"
	"time"
)

func TestLoadBotFromEnvDefaults(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "tok")
	t.Setenv("GRINGOTTS_GUILD_ID", "123")

	cfg, err := LoadBotFromEnv()
	if err != nil {
		t.Fatalf("LoadBotFromEnv: %v", err)
	}
	if cfg.EarnPerMessage.Knuts != 7 {
		t.Fatalf("EarnPerMessage = %d knuts, want 7", cfg.EarnPerMessage.Knuts)
	}
	if cfg.EarnCooldown != 15*time.Second {
		t.Fatalf("EarnCooldown = %v, want 15s", cfg.EarnCooldown)
	}
	if cfg.MinMessageLength != 250 {
		t.Fatalf("MinMessageLength = %d, want 250", cfg.MinMessageLength)
	}
	if cfg.WeeklyPay.Knuts != 493 {
		t.Fatalf("WeeklyPay = %d knuts, want 493", cfg.WeeklyPay.Knuts)
	}
	if cfg.StarterFunds.Knuts != 50*493 {
		t.Fatalf("StarterFunds = %d knuts, want %d", cfg.StarterFunds.Knuts, 50*493)
	}
	if cfg.AdultRole != "Adult" {
		t.Fatalf("AdultRole = %q, want Adult", cfg.AdultRole)
	}
}

func TestLoadBotFromEnvRequired(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "")
	t.Setenv("GRINGOTTS_GUILD_ID", "123")
	if _, err := LoadBotFromEnv(); err == nil {
		t.Fatal("expected error for missing token")
	}

	t.Setenv("DISCORD_BOT_TOKEN", "tok")
	t.Setenv("GRINGOTTS_GUILD_ID", "")
	if _, err := LoadBotFromEnv(); err == nil {
		t.Fatal("expected error for missing guild id")
	}
}

func TestLoadBotFromEnvOverrides(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "tok")
	t.Setenv("GRINGOTTS_GUILD_ID", "123")
	t.Setenv("GRINGOTTS_DATA_DIR", "/var/lib/gringotts")
	t.Setenv("GRINGOTTS_EARN_PER_MESSAGE", "1s 2k")
	t.Setenv("GRINGOTTS_EARN_COOLDOWN", "1m")
	t.Setenv("GRINGOTTS_EARN_CHANNEL_IDS", "11, 22,,33")
	t.Setenv("GRINGOTTS_JOB_BONUSES", "Professor=2g 5s, Shopkeep=10s,=1g,Broken=nonsense")

	cfg, err := LoadBotFromEnv()
	if err != nil {
		t.Fatalf("LoadBotFromEnv: %v", err)
	}
	if cfg.EarnPerMessage.Knuts != 31 {
		t.Fatalf("EarnPerMessage = %d knuts, want 31", cfg.EarnPerMessage.Knuts)
	}
	if cfg.EarnCooldown != time.Minute {
		t.Fatalf("EarnCooldown = %v, want 1m", cfg.EarnCooldown)
	}
	if len(cfg.EarnChannelIDs) != 3 {
		t.Fatalf("EarnChannelIDs = %v, want 3 entries", cfg.EarnChannelIDs)
	}
	if _, ok := cfg.EarnChannelIDs["22"]; !ok {
		t.Fatal("channel 22 missing from set")
	}
	if len(cfg.JobBonuses) != 2 {
		t.Fatalf("JobBonuses = %v, want 2 entries", cfg.JobBonuses)
	}
	if got := cfg.JobBonuses["Professor"].Knuts; got != 2*493+5*29 {
		t.Fatalf("Professor bonus = %d knuts, want %d", got, 2*493+5*29)
	}
	if got := cfg.BalancesPath(); got != "/var/lib/gringotts/balances.json" {
		t.Fatalf("BalancesPath = %q", got)
	}
}

func TestEnvMoneyDefaultBadValue(t *testing.T) {
	t.Setenv("GRINGOTTS_WEEKLY_PAY", "garbage text")
	if got := envMoneyDefault("GRINGOTTS_WEEKLY_PAY", "1g"); got.Knuts != 493 {
		t.Fatalf("envMoneyDefault = %d knuts, want fallback 493", got.Knuts)
	}
}
