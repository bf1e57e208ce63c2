package bot

import (
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

// onMessage pays out role-play posts. Only webhook messages count: proxied
// characters post through webhooks, and requiring one also keeps ordinary
// chatter and bots out of the earning path.
func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID != b.cfg.GuildID || m.WebhookID == "" {
		return
	}
	if !b.channelEarns(s, m.ChannelID) {
		return
	}
	if utf8.RuneCountInString(m.Content) < b.cfg.MinMessageLength {
		return
	}

	owner, wallet, ok := b.resolveCharacter(m.Author.Username)
	if !ok {
		return
	}
	if !b.cool.Allow(owner, wallet) {
		return
	}

	pay := b.cfg.EarnPerMessage
	if err := b.ledger.Add(owner, pay, wallet); err != nil {
		b.log.Error("earning credit failed", "owner", owner, "wallet", wallet, "err", err)
		return
	}
	if err := b.pending.Add(m.GuildID, owner, wallet, pay.Knuts, time.Now()); err != nil {
		b.log.Error("earning queue failed", "owner", owner, "wallet", wallet, "err", err)
	}
	b.log.Debug("earning credited", "owner", owner, "wallet", wallet, "knuts", pay.Knuts)
}

// channelEarns checks the channel, its parent thread/channel and its
// category against the configured earning set.
func (b *Bot) channelEarns(s *discordgo.Session, channelID string) bool {
	if len(b.cfg.EarnChannelIDs) == 0 {
		return false
	}
	id := channelID
	for hop := 0; hop < 3; hop++ {
		if _, ok := b.cfg.EarnChannelIDs[id]; ok {
			return true
		}
		ch, err := s.State.Channel(id)
		if err != nil {
			if ch, err = s.Channel(id); err != nil {
				return false
			}
		}
		if ch.ParentID == "" {
			return false
		}
		id = ch.ParentID
	}
	return false
}
