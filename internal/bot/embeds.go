package bot

import (
	"fmt"

	"gringotts/internal/currency"
	"gringotts/internal/shop"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

const (
	colorGold  = 0xd4af37
	colorGreen = 0x2e8b57
	colorRed   = 0xb22222
)

// signedLong renders a delta with an explicit sign, long form.
func signedLong(m currency.Money) string {
	if m.IsNegative() {
		return "-" + m.Abs().FormatLong()
	}
	return "+" + m.FormatLong()
}

func (b *Bot) receiptEmbed(owner int64, wallet string, delta currency.Money, note string) *discordgo.MessageEmbed {
	color := colorGreen
	if delta.IsNegative() {
		color = colorRed
	}
	title := "Gringotts receipt"
	if info, ok := b.vaults.Get(owner, wallet); ok {
		title = fmt.Sprintf("Gringotts receipt, vault %s", info.VaultNumber)
	}
	embed := &discordgo.MessageEmbed{
		Title: title,
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Amount", Value: signedLong(delta), Inline: true},
			{Name: "New balance", Value: b.ledger.Balance(owner, wallet).FormatLong(), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "ref " + uuid.NewString()},
	}
	if note != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Note", Value: note})
	}
	return embed
}

// postReceipt drops a receipt embed into the wallet's vault thread, if one
// is linked. Missing vaults are not an error: receipts are best effort.
func (b *Bot) postReceipt(s *discordgo.Session, owner int64, wallet string, delta currency.Money, note string) {
	info, ok := b.vaults.Get(owner, wallet)
	if !ok {
		return
	}
	if _, err := s.ChannelMessageSendEmbed(info.ThreadID, b.receiptEmbed(owner, wallet, delta, note)); err != nil {
		b.log.Warn("receipt post failed", "thread", info.ThreadID, "err", err)
	}
}

func vaultWelcomeEmbed(number, display string, opening currency.Money) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Vault %s", number),
		Color: colorGold,
		Description: fmt.Sprintf(
			"Welcome, **%s**. Receipts for this vault will be posted here.", display),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Opening balance", Value: opening.FormatLong()},
		},
	}
}

func helpEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Gringotts Bank",
		Color: colorGold,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Money",
				Value: "1 galleon = 17 sickles, 1 sickle = 29 knuts. Amounts read like `2g 5s 3k`.",
			},
			{
				Name:  "Earning",
				Value: "Long enough role-play posts in the earning channels pay out automatically. Daily summaries land in your vault thread.",
			},
			{
				Name:  "Characters",
				Value: "`/link_character` ties a proxied name to you; each character keeps their own purse. `/char_balance` and `/who_is` look them up.",
			},
			{
				Name:  "Shops",
				Value: "`/shop towns`, `/shop shops`, `/shop list`, `/shop buy`. Buy as a character with the `character` option.",
			},
			{
				Name:  "Vaults",
				Value: "`/vault_create` opens a receipt thread in the bank forum. `/tip` sends money between purses.",
			},
		},
	}
}

// shopEmbeds renders a catalog as one embed per 25 wares, the embed field
// limit. Pages past the first carry a continuation title.
func shopEmbeds(town, shopName string, items []shop.Listing) []*discordgo.MessageEmbed {
	var embeds []*discordgo.MessageEmbed
	for start := 0; start < len(items); start += 25 {
		title := fmt.Sprintf("%s, %s", shopName, town)
		if start > 0 {
			title = fmt.Sprintf("%s (page %d)", title, start/25+1)
		}
		embed := &discordgo.MessageEmbed{Title: title, Color: colorGold}
		for _, it := range items[start:min(start+25, len(items))] {
			stock := "unlimited"
			if it.Qty != nil {
				stock = fmt.Sprintf("%d in stock", *it.Qty)
			}
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   it.Name,
				Value:  fmt.Sprintf("%s, %s", it.Price.FormatLong(), stock),
				Inline: true,
			})
		}
		embeds = append(embeds, embed)
	}
	return embeds
}

func (b *Bot) leaderboardEmbed(kind string, n int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{Color: colorGold}
	switch kind {
	case "characters":
		embed.Title = "Richest characters"
		rank := 0
		for _, row := range b.ledger.TopWallets(n) {
			if row.Wallet == "" {
				continue
			}
			rank++
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  fmt.Sprintf("%d. %s", rank, row.Wallet),
				Value: row.Balance.FormatLong(),
			})
		}
	default:
		embed.Title = "Richest players"
		for idx, row := range b.ledger.TopOwners(n) {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  fmt.Sprintf("%d.", idx+1),
				Value: fmt.Sprintf("<@%d>: %s", row.OwnerID, row.Total.FormatLong()),
			})
		}
	}
	if len(embed.Fields) == 0 {
		embed.Description = "The ledger is empty."
	}
	return embed
}
