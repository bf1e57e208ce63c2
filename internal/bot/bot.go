// Package bot wires the bank, character links, shops and vaults to Discord:
// slash commands, the message earning pipeline and the scheduled payouts.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gringotts/internal/bank"
	"gringotts/internal/config"
	"gringotts/internal/earn"
	"gringotts/internal/links"
	"gringotts/internal/shop"
	"gringotts/internal/vault"

	"github.com/bwmarrin/discordgo"
)

type Bot struct {
	cfg config.BotConfig
	log *slog.Logger
	ses *discordgo.Session

	ledger  *bank.Ledger
	links   *links.Table
	shops   *shop.Inventory
	vaults  *vault.Registry
	pending *earn.Queue
	cool    *earn.Cooldown

	handlers map[string]func(*discordgo.Session, *discordgo.InteractionCreate)
}

type Deps struct {
	Ledger   *bank.Ledger
	Links    *links.Table
	Shops    *shop.Inventory
	Vaults   *vault.Registry
	Pending  *earn.Queue
	Cooldown *earn.Cooldown
}

func New(cfg config.BotConfig, logger *slog.Logger, deps Deps) (*Bot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ses, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	ses.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent

	b := &Bot{
		cfg:     cfg,
		log:     logger,
		ses:     ses,
		ledger:  deps.Ledger,
		links:   deps.Links,
		shops:   deps.Shops,
		vaults:  deps.Vaults,
		pending: deps.Pending,
		cool:    deps.Cooldown,
	}
	b.handlers = b.commandHandlers()

	ses.AddHandler(b.onInteraction)
	ses.AddHandler(b.onMessage)
	return b, nil
}

// Run opens the gateway, registers the guild command set and blocks until
// ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.ses.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	defer b.ses.Close()

	appID := b.ses.State.User.ID
	if _, err := b.ses.ApplicationCommandBulkOverwrite(appID, b.cfg.GuildID, commandDefinitions()); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	b.log.Info("bot ready", "user", b.ses.State.User.Username, "guild", b.cfg.GuildID)

	go b.runPayday(ctx)
	go b.runDailyFlush(ctx)

	<-ctx.Done()
	b.log.Info("bot shutdown")
	return nil
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		h, ok := b.handlers[data.Name]
		if !ok {
			b.log.Warn("unknown command", "name", data.Name)
			return
		}
		h(s, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		b.onAutocomplete(s, i)
	}
}

// ownerID converts the invoking user's snowflake to the ledger's integer
// owner id.
func ownerID(i *discordgo.InteractionCreate) (int64, error) {
	var raw string
	if i.Member != nil && i.Member.User != nil {
		raw = i.Member.User.ID
	} else if i.User != nil {
		raw = i.User.ID
	}
	return strconv.ParseInt(raw, 10, 64)
}

func parseSnowflake(id string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(id), 10, 64)
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

// canManage reports whether the invoker holds Manage Server in this guild.
func canManage(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionManageServer != 0
}

// options flattens an interaction's options into a name lookup.
func options(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, opt := range i.ApplicationCommandData().Options {
		out[opt.Name] = opt
	}
	return out
}

func optString(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if o, ok := opts[name]; ok {
		return strings.TrimSpace(o.StringValue())
	}
	return ""
}

func optInt(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string, fallback int64) int64 {
	if o, ok := opts[name]; ok {
		return o.IntValue()
	}
	return fallback
}
