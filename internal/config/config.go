package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gringotts/internal/currency"
)

type BotConfig struct {
	Token   string
	GuildID string
	DataDir string

	// Channels (or their parents/categories) where proxied messages earn.
	EarnChannelIDs map[string]struct{}
	// Forum channel holding the vault threads.
	VaultForumID string

	EarnPerMessage   currency.Money
	EarnCooldown     time.Duration
	MinMessageLength int

	AdultRole    string
	WeeklyPay    currency.Money
	JobBonuses   map[string]currency.Money
	StarterFunds currency.Money

	// Optional read-only status HTTP server; empty disables it.
	StatusAddr string
}

func LoadBotFromEnv() (BotConfig, error) {
	cfg := BotConfig{
		Token:            strings.TrimSpace(os.Getenv("DISCORD_BOT_TOKEN")),
		GuildID:          strings.TrimSpace(os.Getenv("GRINGOTTS_GUILD_ID")),
		DataDir:          envDefault("GRINGOTTS_DATA_DIR", "data"),
		EarnChannelIDs:   envIDSet("GRINGOTTS_EARN_CHANNEL_IDS"),
		VaultForumID:     strings.TrimSpace(os.Getenv("GRINGOTTS_VAULT_FORUM_ID")),
		EarnPerMessage:   envMoneyDefault("GRINGOTTS_EARN_PER_MESSAGE", "7k"),
		EarnCooldown:     envDurationDefault("GRINGOTTS_EARN_COOLDOWN", 15*time.Second),
		MinMessageLength: envIntDefault("GRINGOTTS_MIN_MESSAGE_LENGTH", 250),
		AdultRole:        envDefault("GRINGOTTS_ADULT_ROLE", "Adult"),
		WeeklyPay:        envMoneyDefault("GRINGOTTS_WEEKLY_PAY", "1g"),
		JobBonuses:       envBonuses("GRINGOTTS_JOB_BONUSES"),
		StarterFunds:     envMoneyDefault("GRINGOTTS_STARTER_FUNDS", "50g"),
		StatusAddr:       strings.TrimSpace(os.Getenv("GRINGOTTS_STATUS_ADDR")),
	}
	if cfg.Token == "" {
		return cfg, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if cfg.GuildID == "" {
		return cfg, fmt.Errorf("GRINGOTTS_GUILD_ID is required")
	}
	return cfg, nil
}

// Data file paths. Every store is a single JSON file inside DataDir.

func (c BotConfig) BalancesPath() string { return filepath.Join(c.DataDir, "balances.json") }
func (c BotConfig) LinksPath() string    { return filepath.Join(c.DataDir, "character_links.json") }
func (c BotConfig) ShopsPath() string    { return filepath.Join(c.DataDir, "shops.json") }
func (c BotConfig) VaultsPath() string   { return filepath.Join(c.DataDir, "vaults.json") }
func (c BotConfig) PendingPath() string  { return filepath.Join(c.DataDir, "pending_receipts.json") }

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envMoneyDefault(key, fallback string) currency.Money {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		v = fallback
	}
	m, err := currency.ParseStrict(v)
	if err != nil {
		return currency.Parse(fallback)
	}
	return m
}

// envIDSet parses a comma-separated list of snowflake ids into a set.
func envIDSet(key string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, part := range strings.Split(os.Getenv(key), ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out[part] = struct{}{}
		}
	}
	return out
}

// envBonuses parses "Role=2g 5s,Other Role=10s" into role name → pay.
func envBonuses(key string) map[string]currency.Money {
	out := make(map[string]currency.Money)
	for _, part := range strings.Split(os.Getenv(key), ",") {
		role, amount, ok := strings.Cut(part, "=")
		role = strings.TrimSpace(role)
		if !ok || role == "" {
			continue
		}
		m, err := currency.ParseStrict(amount)
		if err != nil || m.Knuts <= 0 {
			continue
		}
		out[role] = m
	}
	return out
}
